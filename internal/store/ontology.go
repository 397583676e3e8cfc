package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/gravsearch/internal/ontology"
)

// SaveOntology stores d, replacing every entity previously imported for
// the same ontology IRI. The write is atomic.
func (s *Store) SaveOntology(ctx context.Context, d ontology.Definitions) error {
	if d.IRI == "" {
		return fmt.Errorf("save ontology: missing ontology IRI")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Cascades to classes, properties and their parents.
	if _, err := tx.ExecContext(ctx, `DELETE FROM ontologies WHERE iri = ?`, d.IRI); err != nil {
		return fmt.Errorf("delete ontology %s: %w", d.IRI, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ontologies (iri, imported_at) VALUES (?, ?)`,
		d.IRI, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert ontology %s: %w", d.IRI, err)
	}

	for _, c := range d.Classes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO classes (iri, ontology) VALUES (?, ?)`, c.IRI, d.IRI); err != nil {
			return fmt.Errorf("insert class %s: %w", c.IRI, err)
		}
		for i, parent := range c.SubClassOf {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO class_parents (class, parent, pos) VALUES (?, ?, ?)`,
				c.IRI, parent, i,
			); err != nil {
				return fmt.Errorf("insert parent of class %s: %w", c.IRI, err)
			}
		}
	}

	for _, p := range d.Properties {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO properties (iri, ontology, domain_iri, range_iri) VALUES (?, ?, ?, ?)`,
			p.IRI, d.IRI, p.Domain, p.Range,
		); err != nil {
			return fmt.Errorf("insert property %s: %w", p.IRI, err)
		}
		for i, parent := range p.SubPropertyOf {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO property_parents (property, parent, pos) VALUES (?, ?, ?)`,
				p.IRI, parent, i,
			); err != nil {
				return fmt.Errorf("insert parent of property %s: %w", p.IRI, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ontology %s: %w", d.IRI, err)
	}
	return nil
}

// LoadOntologies returns every stored ontology ordered by IRI, with
// entities ordered by IRI and parents in declaration order.
//
// Returns an empty slice (not nil) if nothing has been imported.
func (s *Store) LoadOntologies(ctx context.Context) ([]ontology.Definitions, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT iri FROM ontologies ORDER BY iri COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query ontologies: %w", err)
	}
	var iris []string
	for rows.Next() {
		var iri string
		if err := rows.Scan(&iri); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ontology: %w", err)
		}
		iris = append(iris, iri)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ontologies: %w", err)
	}

	defs := make([]ontology.Definitions, 0, len(iris))
	for _, iri := range iris {
		d := ontology.Definitions{IRI: iri}
		if d.Classes, err = s.loadClasses(ctx, iri); err != nil {
			return nil, err
		}
		if d.Properties, err = s.loadProperties(ctx, iri); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func (s *Store) loadClasses(ctx context.Context, ontologyIRI string) ([]ontology.ClassInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.iri, p.parent
		FROM classes c
		LEFT JOIN class_parents p ON p.class = c.iri
		WHERE c.ontology = ?
		ORDER BY c.iri COLLATE BINARY ASC, p.pos ASC
	`, ontologyIRI)
	if err != nil {
		return nil, fmt.Errorf("query classes of %s: %w", ontologyIRI, err)
	}
	defer rows.Close()

	var classes []ontology.ClassInfo
	for rows.Next() {
		var iri string
		var parent sql.NullString
		if err := rows.Scan(&iri, &parent); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		if len(classes) == 0 || classes[len(classes)-1].IRI != iri {
			classes = append(classes, ontology.ClassInfo{IRI: iri})
		}
		if parent.Valid {
			last := &classes[len(classes)-1]
			last.SubClassOf = append(last.SubClassOf, parent.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}
	return classes, nil
}

func (s *Store) loadProperties(ctx context.Context, ontologyIRI string) ([]ontology.PropertyInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.iri, p.domain_iri, p.range_iri, pp.parent
		FROM properties p
		LEFT JOIN property_parents pp ON pp.property = p.iri
		WHERE p.ontology = ?
		ORDER BY p.iri COLLATE BINARY ASC, pp.pos ASC
	`, ontologyIRI)
	if err != nil {
		return nil, fmt.Errorf("query properties of %s: %w", ontologyIRI, err)
	}
	defer rows.Close()

	var props []ontology.PropertyInfo
	for rows.Next() {
		var iri, domain, rng string
		var parent sql.NullString
		if err := rows.Scan(&iri, &domain, &rng, &parent); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		if len(props) == 0 || props[len(props)-1].IRI != iri {
			props = append(props, ontology.PropertyInfo{IRI: iri, Domain: domain, Range: rng})
		}
		if parent.Valid {
			last := &props[len(props)-1]
			last.SubPropertyOf = append(last.SubPropertyOf, parent.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return props, nil
}

// OntologyCache builds the in-memory cache from every stored ontology plus
// the built-in knora-base definitions.
func (s *Store) OntologyCache(ctx context.Context) (*ontology.Cache, error) {
	defs, err := s.LoadOntologies(ctx)
	if err != nil {
		return nil, err
	}
	return ontology.NewCache(defs...)
}
