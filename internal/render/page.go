// Package render serializes assembled search results as canonical JSON.
//
// Resources keep the order the prequery returned them in. Every map is
// written with sorted keys and statements keep store order, so the same
// page always renders to the same bytes.
package render

import (
	"github.com/roach88/gravsearch/internal/assemble"
	"github.com/roach88/gravsearch/internal/rdf"
)

// Page renders one page of main resources.
func Page(resources []*assemble.Resource, mayHaveMoreResults bool) ([]byte, error) {
	return MarshalCanonical(PageObject(resources, mayHaveMoreResults))
}

// PageObject builds the JSON object of a page without serializing it.
func PageObject(resources []*assemble.Resource, mayHaveMoreResults bool) Object {
	arr := make(Array, len(resources))
	for i, r := range resources {
		arr[i] = ResourceObject(r)
	}
	return Object{
		"resources":          arr,
		"mayHaveMoreResults": mayHaveMoreResults,
	}
}

// Count renders the result of a count query.
func Count(n int) ([]byte, error) {
	return MarshalCanonical(Object{"numberOfResources": n})
}

// ResourceObject converts a resource and its nested link targets.
func ResourceObject(r *assemble.Resource) Object {
	values := make(Object, len(r.Values))
	for property, vals := range r.Values {
		arr := make(Array, len(vals))
		for i, v := range vals {
			arr[i] = valueObject(v)
		}
		values[property] = arr
	}

	return Object{
		"iri":        r.IRI,
		"class":      r.Class,
		"main":       r.IsMain,
		"permission": r.Permission.String(),
		"statements": assertions(r.Assertions),
		"values":     values,
	}
}

func valueObject(v *assemble.Value) Object {
	obj := Object{
		"iri":        v.IRI,
		"class":      v.Class,
		"permission": v.Permission.String(),
		"statements": assertions(v.Assertions),
	}
	if len(v.Standoff) > 0 {
		standoff := make(Object, len(v.Standoff))
		for node, as := range v.Standoff {
			standoff[node] = assertions(as)
		}
		obj["standoff"] = standoff
	}
	if v.IsLink() {
		obj["targetIri"] = v.TargetIRI
		if v.Target != nil {
			obj["target"] = ResourceObject(v.Target)
		}
	}
	return obj
}

func assertions(as []assemble.Assertion) Array {
	arr := make(Array, len(as))
	for i, a := range as {
		arr[i] = Object{"predicate": a.Predicate, "object": Term(a.Object)}
	}
	return arr
}

// Term converts an RDF term. IRIs and blank nodes become {"iri": ...} and
// {"bnode": ...}; literals carry their datatype or language.
func Term(t rdf.Term) Object {
	switch t.Kind {
	case rdf.KindIRI:
		return Object{"iri": t.Value}
	case rdf.KindBlankNode:
		return Object{"bnode": t.Value}
	default:
		obj := Object{"value": t.Value}
		if t.Lang != "" {
			obj["lang"] = t.Lang
		} else if t.Datatype != "" {
			obj["datatype"] = t.Datatype
		}
		return obj
	}
}
