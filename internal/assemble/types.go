package assemble

import (
	"github.com/roach88/gravsearch/internal/permission"
	"github.com/roach88/gravsearch/internal/rdf"
)

// Assertion is one predicate/object pair of a subject, in store order.
type Assertion struct {
	Predicate string
	Object    rdf.Term
}

// Resource is an assembled resource: its own statements, its visible
// values grouped by property, and the level the requester holds on it.
type Resource struct {
	IRI    string
	Class  string
	IsMain bool

	// Assertions holds every statement of the resource that is not one of
	// its values, except the structural rdf:type knora-base:Resource and
	// isMainResource markers.
	Assertions []Assertion

	// Values maps property IRI to the visible values of that property.
	Values map[string][]*Value

	Permission permission.Code
}

// Value is an assembled value object.
type Value struct {
	IRI      string
	Class    string
	Property string

	Assertions []Assertion

	// Standoff maps standoff node IRI to the node's statements. Only text
	// values have standoff.
	Standoff map[string][]Assertion

	// TargetIRI is the resource a link value points to. Target holds that
	// resource, assembled, unless it is already on the path from the main
	// resource or not visible.
	TargetIRI string
	Target    *Resource

	Permission permission.Code
}

// IsLink reports whether v is a link value.
func (v *Value) IsLink() bool {
	return v.TargetIRI != ""
}

// Objects returns the objects of every assertion with predicate.
func Objects(assertions []Assertion, predicate string) []rdf.Term {
	var out []rdf.Term
	for _, a := range assertions {
		if a.Predicate == predicate {
			out = append(out, a.Object)
		}
	}
	return out
}

// First returns the object of the first assertion with predicate.
func First(assertions []Assertion, predicate string) (rdf.Term, bool) {
	for _, a := range assertions {
		if a.Predicate == predicate {
			return a.Object, true
		}
	}
	return rdf.Term{}, false
}
