package triplestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"github.com/roach88/gravsearch/internal/rdf"
	"github.com/roach88/gravsearch/internal/vocab"
)

// sparqlResults is the application/sparql-results+json document.
type sparqlResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []map[string]sparqlTerm `json:"bindings"`
	} `json:"results"`
}

type sparqlTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype"`
	Lang     string `json:"xml:lang"`
}

func decodeSelect(r io.Reader) (*rdf.SelectResult, error) {
	var doc sparqlResults
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid SPARQL JSON: %w", err)
	}
	if doc.Results == nil {
		return nil, errors.New("invalid SPARQL JSON: no results member")
	}

	res := &rdf.SelectResult{Vars: doc.Head.Vars}
	for _, row := range doc.Results.Bindings {
		b := make(rdf.Binding, len(row))
		for name, t := range row {
			term, err := t.term()
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", name, err)
			}
			b[name] = term
		}
		res.Bindings = append(res.Bindings, b)
	}
	return res, nil
}

func (t sparqlTerm) term() (rdf.Term, error) {
	switch t.Type {
	case "uri":
		return rdf.NewIRI(t.Value), nil
	case "bnode":
		return rdf.NewBlankNode(t.Value), nil
	case "literal", "typed-literal":
		if t.Lang != "" {
			return rdf.NewLangLiteral(t.Value, t.Lang), nil
		}
		if t.Datatype == "" {
			return rdf.NewLiteral(t.Value, vocab.XSDString), nil
		}
		return rdf.NewLiteral(t.Value, t.Datatype), nil
	}
	return rdf.Term{}, fmt.Errorf("unknown term type %q", t.Type)
}

// decodeNTriples reads an N-Triples document. Graph labels, if the store
// sends N-Quads, are ignored.
func decodeNTriples(r io.Reader) ([]rdf.Triple, error) {
	qr := nquads.NewReader(r, true)

	var triples []rdf.Triple
	for {
		q, err := qr.ReadQuad()
		if errors.Is(err, io.EOF) {
			return triples, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid N-Triples: %w", err)
		}

		subj, err := subjectOf(q.Subject)
		if err != nil {
			return nil, err
		}
		pred, ok := q.Predicate.(quad.IRI)
		if !ok {
			return nil, fmt.Errorf("invalid N-Triples: predicate %v is not an IRI", q.Predicate)
		}
		obj, err := termOf(q.Object)
		if err != nil {
			return nil, err
		}
		triples = append(triples, rdf.Triple{Subject: subj, Predicate: string(pred), Object: obj})
	}
}

func subjectOf(v quad.Value) (string, error) {
	switch x := v.(type) {
	case quad.IRI:
		return string(x), nil
	case quad.BNode:
		return "_:" + string(x), nil
	}
	return "", fmt.Errorf("invalid N-Triples: subject %v is not an IRI or blank node", v)
}

func termOf(v quad.Value) (rdf.Term, error) {
	switch x := v.(type) {
	case quad.IRI:
		return rdf.NewIRI(string(x)), nil
	case quad.BNode:
		return rdf.NewBlankNode(string(x)), nil
	case quad.String:
		return rdf.NewLiteral(string(x), vocab.XSDString), nil
	case quad.TypedString:
		return rdf.NewLiteral(string(x.Value), string(x.Type)), nil
	case quad.LangString:
		return rdf.NewLangLiteral(string(x.Value), x.Lang), nil
	}
	return rdf.Term{}, fmt.Errorf("invalid N-Triples: unsupported term %T", v)
}
