// Package rdf holds the RDF terms exchanged with the triplestore.
package rdf

import (
	"fmt"
	"strconv"
	"strings"
)

// TermKind discriminates RDF terms.
type TermKind int

const (
	KindIRI TermKind = iota
	KindBlankNode
	KindLiteral
)

// Term is an RDF node. Datatype and Lang only apply to literals.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// NewIRI creates an IRI term.
func NewIRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// NewBlankNode creates a blank node term.
func NewBlankNode(id string) Term {
	return Term{Kind: KindBlankNode, Value: id}
}

// NewLiteral creates a typed literal.
func NewLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// NewLangLiteral creates a language-tagged string.
func NewLangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: lang}
}

// IsIRI reports whether t is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsLiteral reports whether t is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// Bool interprets a literal as xsd:boolean.
func (t Term) Bool() (bool, bool) {
	if t.Kind != KindLiteral {
		return false, false
	}
	b, err := strconv.ParseBool(t.Value)
	return b, err == nil
}

// Int interprets a literal as an integer.
func (t Term) Int() (int64, bool) {
	if t.Kind != KindLiteral {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(t.Value), 10, 64)
	return n, err == nil
}

// String renders t in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlankNode:
		return "_:" + t.Value
	default:
		quoted := strconv.Quote(t.Value)
		if t.Lang != "" {
			return quoted + "@" + t.Lang
		}
		if t.Datatype != "" {
			return fmt.Sprintf("%s^^<%s>", quoted, t.Datatype)
		}
		return quoted
	}
}

// Triple is one statement returned by a CONSTRUCT query. Subjects are IRIs
// or blank node labels prefixed with "_:".
type Triple struct {
	Subject   string
	Predicate string
	Object    Term
}

// Binding maps SELECT variable names (without "?") to values.
type Binding map[string]Term

// SelectResult holds the rows of a SELECT query in store order.
type SelectResult struct {
	Vars     []string
	Bindings []Binding
}
