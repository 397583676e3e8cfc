package testutil

import (
	"github.com/roach88/gravsearch/internal/rdf"
	"github.com/roach88/gravsearch/internal/vocab"
)

// Permission literals used by fixtures.
const (
	// PublicPermissions lets everyone view.
	PublicPermissions = "CR knora-admin:Creator|M knora-admin:ProjectMember|V knora-admin:KnownUser,knora-admin:UnknownUser"

	// MemberPermissions hides the object from non-members.
	MemberPermissions = "CR knora-admin:Creator|M knora-admin:ProjectMember"
)

// Graph builds fetch query results the way the triplestore returns them.
type Graph struct {
	Triples []rdf.Triple

	// Project owns every resource added. Empty means IncunabulaProject.
	Project string
}

// Add appends one statement.
func (g *Graph) Add(subject, predicate string, object rdf.Term) *Graph {
	g.Triples = append(g.Triples, rdf.Triple{Subject: subject, Predicate: predicate, Object: object})
	return g
}

// Resource adds a resource with its metadata.
func (g *Graph) Resource(iri, class, owner, perms string, main bool) *Graph {
	if main {
		g.Add(iri, vocab.IsMainResource, rdf.NewLiteral("true", vocab.XSDBoolean))
	}
	g.Add(iri, vocab.RDFType, rdf.NewIRI(vocab.Resource))
	g.Add(iri, vocab.RDFType, rdf.NewIRI(class))
	g.Add(iri, vocab.RDFSLabel, rdf.NewLiteral(iri, vocab.XSDString))
	g.Add(iri, vocab.AttachedToUser, rdf.NewIRI(owner))
	project := g.Project
	if project == "" {
		project = IncunabulaProject
	}
	g.Add(iri, vocab.AttachedToProject, rdf.NewIRI(project))
	return g.Add(iri, vocab.HasPermissions, rdf.NewLiteral(perms, vocab.XSDString))
}

// TextValue adds a text value of resource res.
func (g *Graph) TextValue(res, property, iri, text, owner, perms string) *Graph {
	g.Add(res, property, rdf.NewIRI(iri))
	g.Add(iri, vocab.RDFType, rdf.NewIRI(vocab.TextValue))
	g.Add(iri, vocab.ValueHasString, rdf.NewLiteral(text, vocab.XSDString))
	g.Add(iri, vocab.AttachedToUser, rdf.NewIRI(owner))
	return g.Add(iri, vocab.HasPermissions, rdf.NewLiteral(perms, vocab.XSDString))
}

// Link adds a link from res to target: the direct statement and its link
// value, stored under property + "Value".
func (g *Graph) Link(res, property, iri, target, owner, perms string) *Graph {
	g.Add(res, property, rdf.NewIRI(target))
	g.Add(res, property+"Value", rdf.NewIRI(iri))
	g.Add(iri, vocab.RDFType, rdf.NewIRI(vocab.LinkValue))
	g.Add(iri, vocab.RDFObject, rdf.NewIRI(target))
	g.Add(iri, vocab.AttachedToUser, rdf.NewIRI(owner))
	return g.Add(iri, vocab.HasPermissions, rdf.NewLiteral(perms, vocab.XSDString))
}
