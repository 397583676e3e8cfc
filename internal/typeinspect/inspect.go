package typeinspect

import (
	"github.com/roach88/gravsearch/internal/ontology"
	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/vocab"
)

// Inspector infers entity types from ontology metadata. It holds no
// per-query state and is safe for concurrent use.
type Inspector struct {
	ontology ontology.Reader
}

// New creates an Inspector reading definitions from r.
func New(r ontology.Reader) *Inspector {
	return &Inspector{ontology: r}
}

// inspection is the state of one Inspect call.
type inspection struct {
	ontology ontology.Reader
	result   *Result

	// pending holds entities still to be typed, in first-seen order.
	pending []sparql.Entity
	seen    map[sparql.Entity]bool

	statements  []sparql.StatementPattern
	comparisons []sparql.CompareExpression
	predicates  map[sparql.Variable]bool
}

// Inspect types every entity of q.
//
// Strong rules (class assertions, property domains and ranges, variable
// predicates pinned by a FILTER) run to a fixed point in query order. Only
// when they stop making progress does one weak rule fire (an untyped
// variable compared with a literal or IRI, then the main resource
// defaulting to knora-base:Resource), after which the strong rules run
// again. The first assignment to an entity wins, so the result is the
// same for the same query.
//
// An entity left untyped is a BAD_REQUEST naming the first such entity.
func (in *Inspector) Inspect(q *sparql.ConstructQuery, main sparql.Variable) (*Result, error) {
	st := &inspection{
		ontology:   in.ontology,
		result:     newResult(),
		seen:       make(map[sparql.Entity]bool),
		predicates: make(map[sparql.Variable]bool),
	}
	st.collect(q.Where)
	for _, o := range q.OrderBy {
		st.track(o.Variable)
	}
	st.track(main)

	for {
		for st.applyStrong() {
		}
		if st.applyWeak(main) {
			continue
		}
		break
	}

	for _, e := range st.pending {
		if _, ok := st.result.types[e]; !ok {
			return nil, queryerr.Untyped(sparql.EntityString(e))
		}
	}
	st.result.order = st.pending
	return st.result, nil
}

// =============================================================================
// Collection
// =============================================================================

func (st *inspection) track(e sparql.Entity) {
	if e == nil || st.seen[e] {
		return
	}
	st.seen[e] = true
	st.pending = append(st.pending, e)
}

func (st *inspection) collect(patterns []sparql.Pattern) {
	for _, pat := range patterns {
		switch p := pat.(type) {
		case sparql.StatementPattern:
			st.statements = append(st.statements, p)
			st.track(p.Subject)
			if isTypeStatement(p) {
				continue
			}
			st.track(p.Predicate)
			st.track(p.Object)
			if v, ok := p.Predicate.(sparql.Variable); ok {
				st.predicates[v] = true
			}
		case sparql.FilterPattern:
			st.collectExpression(p.Expression)
		case sparql.OptionalPattern:
			st.collect(p.Patterns)
		case sparql.UnionPattern:
			for _, block := range p.Blocks {
				st.collect(block)
			}
		}
	}
}

func (st *inspection) collectExpression(e sparql.Expression) {
	switch x := e.(type) {
	case sparql.CompareExpression:
		st.comparisons = append(st.comparisons, x)
		st.collectExpression(x.Left)
		st.collectExpression(x.Right)
	case sparql.AndExpression:
		st.collectExpression(x.Left)
		st.collectExpression(x.Right)
	case sparql.OrExpression:
		st.collectExpression(x.Left)
		st.collectExpression(x.Right)
	case sparql.RegexExpression:
		st.collectExpression(x.Text)
	case sparql.Variable:
		st.track(x)
	}
}

func isTypeStatement(p sparql.StatementPattern) bool {
	pred, ok := p.Predicate.(sparql.IRI)
	return ok && pred.Value == vocab.RDFType
}

// =============================================================================
// Rules
// =============================================================================

// assign records t for e unless e already has a type.
func (st *inspection) assign(e sparql.Entity, t Type) bool {
	if _, done := st.result.types[e]; done {
		return false
	}
	st.result.types[e] = t
	return true
}

func (st *inspection) typed(e sparql.Entity) bool {
	_, ok := st.result.types[e]
	return ok
}

// applyStrong runs one pass of the strong rules and reports progress.
func (st *inspection) applyStrong() bool {
	changed := false
	for _, s := range st.statements {
		if isTypeStatement(s) {
			if class, ok := s.Object.(sparql.IRI); ok {
				changed = st.assign(s.Subject, st.classAssertion(class.Value)) || changed
			}
			continue
		}

		if lit, ok := s.Object.(sparql.Literal); ok {
			changed = st.assign(lit, LiteralType{Datatype: lit.Datatype}) || changed
		}

		if pred, ok := s.Predicate.(sparql.IRI); ok {
			if info, known := st.ontology.Property(pred.Value); known {
				changed = st.assign(pred, st.propertyType(info)) || changed
			}
		}

		pt, ok := st.result.types[s.Predicate].(PropertyType)
		if !ok {
			continue
		}
		info, _ := st.ontology.Property(pt.IRI)
		if pt.ObjectType != "" {
			changed = st.assign(s.Object, st.rangeType(pt.ObjectType)) || changed
		}
		if info.Domain != "" {
			changed = st.assign(s.Subject, st.rangeType(info.Domain)) || changed
		}
	}

	// A variable predicate compared with a property IRI is that property.
	for _, c := range st.comparisons {
		v, iri, ok := variableAndIRI(c)
		if !ok || !st.predicates[v] || st.typed(v) {
			continue
		}
		if info, known := st.ontology.Property(iri.Value); known {
			changed = st.assign(v, st.propertyType(info)) || changed
		}
	}
	return changed
}

// applyWeak fires the first applicable weak rule and reports whether one
// fired.
func (st *inspection) applyWeak(main sparql.Variable) bool {
	for _, c := range st.comparisons {
		for _, side := range [][2]sparql.Expression{{c.Left, c.Right}, {c.Right, c.Left}} {
			v, ok := side[0].(sparql.Variable)
			if !ok || st.typed(v) || st.predicates[v] {
				continue
			}
			switch other := side[1].(type) {
			case sparql.Literal:
				return st.assign(v, st.literalComparisonType(other.Datatype))
			case sparql.IRI:
				return st.assign(v, st.rangeType(vocab.Resource))
			}
		}
	}
	if !st.typed(main) {
		return st.assign(main, st.rangeType(vocab.Resource))
	}
	return false
}

// classAssertion types the subject of "?x rdf:type C".
func (st *inspection) classAssertion(class string) Type {
	if vocab.IsLiteralDatatype(class) {
		if vc, ok := vocab.ValueClassForDatatype(class); ok {
			return st.rangeType(vc)
		}
		return LiteralType{Datatype: class}
	}
	return st.rangeType(class)
}

func (st *inspection) propertyType(info ontology.PropertyInfo) PropertyType {
	return PropertyType{
		IRI:        info.IRI,
		ObjectType: info.Range,
		IsLink:     info.IRI != vocab.RDFObject && info.Range != "" && ontology.IsResourceClass(st.ontology, info.Range),
	}
}

// rangeType types an entity of class or datatype iri.
func (st *inspection) rangeType(iri string) Type {
	if vocab.IsLiteralDatatype(iri) && iri != vocab.ListNode {
		return LiteralType{Datatype: iri}
	}
	return ResourceClass{
		IRI:        iri,
		Kind:       ontology.ValueKindOf(st.ontology, iri),
		IsResource: ontology.IsResourceClass(st.ontology, iri),
	}
}

func (st *inspection) literalComparisonType(datatype string) Type {
	if vc, ok := vocab.ValueClassForDatatype(datatype); ok {
		return st.rangeType(vc)
	}
	return LiteralType{Datatype: datatype}
}

func variableAndIRI(c sparql.CompareExpression) (sparql.Variable, sparql.IRI, bool) {
	if v, ok := c.Left.(sparql.Variable); ok {
		if iri, ok := c.Right.(sparql.IRI); ok {
			return v, iri, true
		}
	}
	if v, ok := c.Right.(sparql.Variable); ok {
		if iri, ok := c.Left.(sparql.IRI); ok {
			return v, iri, true
		}
	}
	return sparql.Variable{}, sparql.IRI{}, false
}
