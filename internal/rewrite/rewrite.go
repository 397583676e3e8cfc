package rewrite

import (
	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/typeinspect"
	"github.com/roach88/gravsearch/internal/vocab"
)

// Mode selects the prequery variant.
type Mode int

const (
	// ModePage selects one page of main resources.
	ModePage Mode = iota
	// ModeCount counts all matching main resources.
	ModeCount
)

func (m Mode) String() string {
	if m == ModeCount {
		return "count"
	}
	return "page"
}

// DefaultPageSize is the number of main resources per page.
const DefaultPageSize = 25

// Options tunes prequery generation.
type Options struct {
	// PageSize is the LIMIT of page prequeries. Zero means DefaultPageSize.
	PageSize int
}

func (o Options) pageSize() int {
	if o.PageSize <= 0 {
		return DefaultPageSize
	}
	return o.PageSize
}

// CountVariable is the alias of the count projection.
var CountVariable = sparql.NewVariable("count")

// ToSelectPrequery rewrites a typed Gravsearch query into the SELECT that
// finds main resources.
//
// In ModePage the result selects DISTINCT main resources with their sort
// keys, grouped by both, ordered by the keys and then ascending main
// resource IRI, limited to one page. In ModeCount it projects only
// (COUNT(DISTINCT ?main) AS ?count). The WHERE clause is the same in both
// modes, so the count always matches the union of all pages.
func ToSelectPrequery(q *sparql.ConstructQuery, types *typeinspect.Result, mode Mode, opts Options) (*sparql.SelectQuery, error) {
	main, ok := q.MainVariable()
	if !ok {
		return nil, queryerr.Internal("query has no main resource variable")
	}

	rw := newRewriter(types)

	// Filters and sort keys decide which literal fields get bound; both
	// must be known before the statements are emitted.
	if err := rw.collectNeeds(q.Where); err != nil {
		return nil, err
	}
	keys, err := rw.sortKeys(q.OrderBy)
	if err != nil {
		return nil, err
	}

	where, err := rw.patterns(q.Where, newScope())
	if err != nil {
		return nil, err
	}

	if mode == ModeCount {
		return &sparql.SelectQuery{
			Variables: []sparql.Projection{sparql.CountProjection{Variable: main, Distinct: true, Alias: CountVariable}},
			Where:     where,
		}, nil
	}

	sel := &sparql.SelectQuery{
		Distinct:  true,
		Variables: []sparql.Projection{main},
		Where:     where,
		GroupBy:   []sparql.Variable{main},
		Limit:     opts.pageSize(),
		Offset:    q.Offset * opts.pageSize(),
	}
	for _, k := range keys {
		sel.Variables = append(sel.Variables, k.Variable)
		sel.GroupBy = append(sel.GroupBy, k.Variable)
		sel.OrderBy = append(sel.OrderBy, k)
	}
	sel.OrderBy = append(sel.OrderBy, sparql.OrderCriterion{Variable: main, Ascending: true})
	return sel, nil
}

// =============================================================================
// Rewriter
// =============================================================================

type rewriter struct {
	types *typeinspect.Result

	// needs lists, per value variable, the literal fields FILTERs and sort
	// keys read, in first-use order.
	needs map[sparql.Variable][]string
}

func newRewriter(types *typeinspect.Result) *rewriter {
	return &rewriter{types: types, needs: make(map[sparql.Variable][]string)}
}

// scope tracks what a group already contains. Nested groups start from a
// copy of their parent's scope.
type scope struct {
	guarded  map[sparql.Entity]bool
	injected map[sparql.Variable]bool
}

func newScope() *scope {
	return &scope{guarded: make(map[sparql.Entity]bool), injected: make(map[sparql.Variable]bool)}
}

func (s *scope) child() *scope {
	c := newScope()
	for k := range s.guarded {
		c.guarded[k] = true
	}
	for k := range s.injected {
		c.injected[k] = true
	}
	return c
}

// field returns the variable bound to v's literal field and records that
// it is needed.
func (rw *rewriter) field(v sparql.Variable, field string) sparql.Variable {
	fields := rw.needs[v]
	found := false
	for _, f := range fields {
		if f == field {
			found = true
			break
		}
	}
	if !found {
		rw.needs[v] = append(fields, field)
	}
	return fieldVariable(v, field)
}

func (rw *rewriter) collectNeeds(patterns []sparql.Pattern) error {
	for _, pat := range patterns {
		switch p := pat.(type) {
		case sparql.FilterPattern:
			if _, err := rw.expression(p.Expression); err != nil {
				return err
			}
		case sparql.OptionalPattern:
			if err := rw.collectNeeds(p.Patterns); err != nil {
				return err
			}
		case sparql.UnionPattern:
			for _, block := range p.Blocks {
				if err := rw.collectNeeds(block); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (rw *rewriter) sortKeys(order []sparql.OrderCriterion) ([]sparql.OrderCriterion, error) {
	var keys []sparql.OrderCriterion
	seen := make(map[sparql.Variable]bool)
	for _, o := range order {
		typ, ok := rw.types.TypeOf(o.Variable)
		if !ok {
			return nil, queryerr.Internal("no type for sort variable %s", o.Variable)
		}

		var key sparql.Variable
		switch t := typ.(type) {
		case typeinspect.LiteralType:
			key = o.Variable
		case typeinspect.ResourceClass:
			f := vocab.SortField(t.Kind)
			if f == "" {
				return nil, queryerr.BadRequest("cannot sort by %s: %s has no sortable literal", o.Variable, t)
			}
			key = rw.field(o.Variable, f)
		default:
			return nil, queryerr.BadRequest("cannot sort by %s: %s", o.Variable, typ)
		}

		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, sparql.OrderCriterion{Variable: key, Ascending: o.Ascending})
	}
	return keys, nil
}

// =============================================================================
// Patterns
// =============================================================================

func (rw *rewriter) patterns(in []sparql.Pattern, sc *scope) ([]sparql.Pattern, error) {
	var out []sparql.Pattern
	for _, pat := range in {
		switch p := pat.(type) {
		case sparql.StatementPattern:
			emitted, err := rw.statement(p, sc)
			if err != nil {
				return nil, err
			}
			out = append(out, emitted...)
		case sparql.FilterPattern:
			expr, err := rw.expression(p.Expression)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.FilterPattern{Expression: expr})
		case sparql.OptionalPattern:
			inner, err := rw.patterns(p.Patterns, sc.child())
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.OptionalPattern{Patterns: inner})
		case sparql.UnionPattern:
			u := sparql.UnionPattern{}
			for _, block := range p.Blocks {
				inner, err := rw.patterns(block, sc.child())
				if err != nil {
					return nil, err
				}
				u.Blocks = append(u.Blocks, inner)
			}
			out = append(out, u)
		default:
			return nil, queryerr.Internal("unexpected pattern %T in query", pat)
		}
	}
	return out, nil
}

// statement emits st with its isDeleted guards, link value statements and
// literal field bindings.
func (rw *rewriter) statement(st sparql.StatementPattern, sc *scope) ([]sparql.Pattern, error) {
	pred, _ := st.Predicate.(sparql.IRI)
	if pred.Value == vocab.IsMainResource {
		return nil, nil
	}
	typeStatement := pred.Value == vocab.RDFType
	if typeStatement {
		if class, ok := st.Object.(sparql.IRI); ok && vocab.IsLiteralDatatype(class.Value) {
			return nil, nil
		}
	}

	entities := []sparql.Entity{st.Subject, st.Predicate, st.Object}
	if typeStatement {
		entities = entities[:1]
	}
	for _, e := range entities {
		if _, ok := rw.types.TypeOf(e); !ok {
			return nil, queryerr.Internal("no type inferred for %s", sparql.EntityString(e))
		}
	}

	st.IncludeInOutput = false
	out := []sparql.Pattern{st}
	out = rw.guard(out, st.Subject, sc)
	out = rw.guard(out, st.Object, sc)

	if pt, ok := rw.types.TypeOf(st.Predicate); ok {
		if prop, ok := pt.(typeinspect.PropertyType); ok && prop.IsLink {
			lv := linkValueVariable(st.Subject, prop.IRI, st.Object)
			out = append(out,
				sparql.NewStatement(st.Subject, sparql.NewIRI(prop.IRI+"Value"), lv),
				sparql.NewStatement(lv, sparql.NewIRI(vocab.RDFType), sparql.NewIRI(vocab.LinkValue)),
				sparql.NewStatement(lv, sparql.NewIRI(vocab.RDFObject), st.Object),
			)
			out = rw.guard(out, lv, sc)
		}
	}

	out = rw.inject(out, st.Subject, sc)
	out = rw.inject(out, st.Object, sc)
	return out, nil
}

// guard appends the isDeleted check for resources and values once per
// scope.
func (rw *rewriter) guard(out []sparql.Pattern, e sparql.Entity, sc *scope) []sparql.Pattern {
	if sc.guarded[e] {
		return out
	}
	switch e.(type) {
	case sparql.Variable, sparql.IRI:
	default:
		return out
	}

	needsGuard := false
	if v, ok := e.(sparql.Variable); ok && isLinkValueVariable(v) {
		needsGuard = true
	} else if rw.types.IsResource(e) || rw.types.ValueKind(e) != vocab.KindNone {
		needsGuard = true
	}
	if !needsGuard {
		return out
	}

	sc.guarded[e] = true
	return append(out, notDeleted(e))
}

// inject binds the literal fields of v that filters or sort keys read.
func (rw *rewriter) inject(out []sparql.Pattern, e sparql.Entity, sc *scope) []sparql.Pattern {
	v, ok := e.(sparql.Variable)
	if !ok || sc.injected[v] {
		return out
	}
	fields := rw.needs[v]
	if len(fields) == 0 {
		return out
	}
	sc.injected[v] = true
	for _, f := range fields {
		out = append(out, sparql.NewStatement(v, sparql.NewIRI(f), fieldVariable(v, f)))
	}
	return out
}

func (rw *rewriter) typeOf(e sparql.Entity) typeinspect.Type {
	t, _ := rw.types.TypeOf(e)
	return t
}
