package typeinspect

import (
	"fmt"

	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/vocab"
)

// Type is the inferred type of a query entity.
//
// This is a sealed interface - only ResourceClass, PropertyType and
// LiteralType implement it.
type Type interface {
	typeNode()
	String() string
}

// ResourceClass types an entity standing for a node of a class: a
// resource, a value object or another class instance such as a list node.
type ResourceClass struct {
	IRI string

	// Kind is the value kind for value classes and vocab.KindNone otherwise.
	Kind vocab.ValueKind

	// IsResource is set for subclasses of knora-base:Resource.
	IsResource bool
}

func (ResourceClass) typeNode() {}

func (t ResourceClass) String() string { return fmt.Sprintf("class <%s>", t.IRI) }

// IsValue reports whether the class is a value class.
func (t ResourceClass) IsValue() bool { return t.Kind != vocab.KindNone }

// PropertyType types an entity in predicate position.
type PropertyType struct {
	IRI        string
	ObjectType string

	// IsLink is set when the property points at resources.
	IsLink bool
}

func (PropertyType) typeNode() {}

func (t PropertyType) String() string {
	return fmt.Sprintf("property <%s> -> <%s>", t.IRI, t.ObjectType)
}

// LiteralType types an entity standing for a plain literal.
type LiteralType struct {
	Datatype string
}

func (LiteralType) typeNode() {}

func (t LiteralType) String() string { return fmt.Sprintf("literal <%s>", t.Datatype) }

// Result maps every entity of a query to its type.
type Result struct {
	types map[sparql.Entity]Type
	order []sparql.Entity
}

func newResult() *Result {
	return &Result{types: make(map[sparql.Entity]Type)}
}

// TypeOf returns the type of e.
func (r *Result) TypeOf(e sparql.Entity) (Type, bool) {
	t, ok := r.types[e]
	return t, ok
}

// Entities lists the typed entities in the order they first appear in the
// query.
func (r *Result) Entities() []sparql.Entity {
	return append([]sparql.Entity(nil), r.order...)
}

// ValueKind returns the value kind of e, or vocab.KindNone when e is not
// a value.
func (r *Result) ValueKind(e sparql.Entity) vocab.ValueKind {
	if rc, ok := r.types[e].(ResourceClass); ok {
		return rc.Kind
	}
	return vocab.KindNone
}

// IsResource reports whether e stands for a resource.
func (r *Result) IsResource(e sparql.Entity) bool {
	rc, ok := r.types[e].(ResourceClass)
	return ok && rc.IsResource
}
