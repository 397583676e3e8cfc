package sparql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/gravsearch/internal/vocab"
)

// indentUnit is one nesting level in rendered query text.
const indentUnit = "    "

// localNamePattern matches local names that can be written as prefixed names.
var localNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Render serializes a query to SPARQL text.
//
// Rendering is deterministic: the same AST always yields byte-identical
// text. Well-known namespaces are abbreviated with the PREFIX header in
// vocab.Prefixes, statements render as "subject predicate object .",
// nested groups are indented by four spaces.
func Render(q Query) (string, error) {
	if q == nil {
		return "", fmt.Errorf("cannot render nil query")
	}

	r := &renderer{}
	r.prologue()

	switch query := q.(type) {
	case SelectQuery:
		if err := r.selectQuery(query); err != nil {
			return "", err
		}
	case *SelectQuery:
		if err := r.selectQuery(*query); err != nil {
			return "", err
		}
	case ConstructQuery:
		if err := r.constructQuery(query); err != nil {
			return "", err
		}
	case *ConstructQuery:
		if err := r.constructQuery(*query); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported query type: %T", q)
	}

	return r.sb.String(), nil
}

type renderer struct {
	sb strings.Builder
}

func (r *renderer) line(depth int, s string) {
	for i := 0; i < depth; i++ {
		r.sb.WriteString(indentUnit)
	}
	r.sb.WriteString(s)
	r.sb.WriteByte('\n')
}

func (r *renderer) prologue() {
	for _, p := range vocab.Prefixes {
		r.line(0, fmt.Sprintf("PREFIX %s: <%s>", p.Name, p.Namespace))
	}
	r.sb.WriteByte('\n')
}

func (r *renderer) selectQuery(q SelectQuery) error {
	if len(q.Variables) == 0 {
		return fmt.Errorf("select query has no projection")
	}

	parts := make([]string, 0, len(q.Variables))
	for _, p := range q.Variables {
		s, err := projection(p)
		if err != nil {
			return err
		}
		parts = append(parts, s)
	}

	head := "SELECT "
	if q.Distinct {
		head += "DISTINCT "
	}
	r.line(0, head+strings.Join(parts, " "))

	if err := r.where(q.Where); err != nil {
		return err
	}

	if len(q.GroupBy) > 0 {
		keys := make([]string, len(q.GroupBy))
		for i, v := range q.GroupBy {
			keys[i] = v.String()
		}
		r.line(0, "GROUP BY "+strings.Join(keys, " "))
	}
	r.orderBy(q.OrderBy)
	if q.Limit > 0 {
		r.line(0, fmt.Sprintf("LIMIT %d", q.Limit))
	}
	if q.Offset > 0 {
		r.line(0, fmt.Sprintf("OFFSET %d", q.Offset))
	}
	return nil
}

func (r *renderer) constructQuery(q ConstructQuery) error {
	r.line(0, "CONSTRUCT {")
	for _, st := range q.Template {
		s, err := statement(st)
		if err != nil {
			return err
		}
		r.line(1, s)
	}
	r.line(0, "}")

	if err := r.where(q.Where); err != nil {
		return err
	}
	r.orderBy(q.OrderBy)
	if q.Offset > 0 {
		r.line(0, fmt.Sprintf("OFFSET %d", q.Offset))
	}
	return nil
}

func (r *renderer) orderBy(criteria []OrderCriterion) {
	if len(criteria) == 0 {
		return
	}
	keys := make([]string, len(criteria))
	for i, c := range criteria {
		dir := "DESC"
		if c.Ascending {
			dir = "ASC"
		}
		keys[i] = fmt.Sprintf("%s(%s)", dir, c.Variable.String())
	}
	r.line(0, "ORDER BY "+strings.Join(keys, " "))
}

func (r *renderer) where(patterns []Pattern) error {
	r.line(0, "WHERE {")
	if err := r.patterns(1, patterns); err != nil {
		return err
	}
	r.line(0, "}")
	return nil
}

func (r *renderer) patterns(depth int, patterns []Pattern) error {
	for _, p := range patterns {
		if err := r.pattern(depth, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) pattern(depth int, p Pattern) error {
	switch pat := p.(type) {
	case StatementPattern:
		return r.statementPattern(depth, pat)
	case *StatementPattern:
		return r.statementPattern(depth, *pat)
	case FilterPattern:
		expr, err := topLevel(pat.Expression)
		if err != nil {
			return err
		}
		r.line(depth, "FILTER("+expr+")")
	case *FilterPattern:
		return r.pattern(depth, *pat)
	case OptionalPattern:
		r.line(depth, "OPTIONAL {")
		if err := r.patterns(depth+1, pat.Patterns); err != nil {
			return err
		}
		r.line(depth, "}")
	case *OptionalPattern:
		return r.pattern(depth, *pat)
	case UnionPattern:
		return r.union(depth, pat)
	case *UnionPattern:
		return r.union(depth, *pat)
	case ValuesPattern:
		return r.values(depth, pat)
	case *ValuesPattern:
		return r.values(depth, *pat)
	default:
		return fmt.Errorf("unsupported pattern type: %T", p)
	}
	return nil
}

func (r *renderer) statementPattern(depth int, st StatementPattern) error {
	s, err := statement(st)
	if err != nil {
		return err
	}
	if st.Graph == "" {
		r.line(depth, s)
		return nil
	}
	r.line(depth, fmt.Sprintf("GRAPH <%s> {", st.Graph))
	r.line(depth+1, s)
	r.line(depth, "}")
	return nil
}

func (r *renderer) union(depth int, u UnionPattern) error {
	if len(u.Blocks) == 0 {
		return fmt.Errorf("union has no blocks")
	}
	r.line(depth, "{")
	for i, block := range u.Blocks {
		if err := r.patterns(depth+1, block); err != nil {
			return err
		}
		if i < len(u.Blocks)-1 {
			r.line(depth, "} UNION {")
		}
	}
	r.line(depth, "}")
	return nil
}

func (r *renderer) values(depth int, v ValuesPattern) error {
	iris := make([]string, len(v.Values))
	for i, iri := range v.Values {
		text, err := iriText(iri.Value)
		if err != nil {
			return err
		}
		iris[i] = text
	}
	r.line(depth, fmt.Sprintf("VALUES %s { %s }", v.Variable.String(), strings.Join(iris, " ")))
	return nil
}

func statement(st StatementPattern) (string, error) {
	if _, ok := st.Subject.(Literal); ok {
		return "", fmt.Errorf("literal in subject position: %s", EntityString(st.Subject))
	}
	if _, ok := st.Predicate.(Literal); ok {
		return "", fmt.Errorf("literal in predicate position: %s", EntityString(st.Predicate))
	}
	s, err := entity(st.Subject)
	if err != nil {
		return "", err
	}
	p, err := entity(st.Predicate)
	if err != nil {
		return "", err
	}
	o, err := entity(st.Object)
	if err != nil {
		return "", err
	}
	return s + " " + p + " " + o + " .", nil
}

func projection(p Projection) (string, error) {
	switch proj := p.(type) {
	case Variable:
		return proj.String(), nil
	case CountProjection:
		inner := proj.Variable.String()
		if proj.Distinct {
			inner = "DISTINCT " + inner
		}
		return fmt.Sprintf("(COUNT(%s) AS %s)", inner, proj.Alias.String()), nil
	default:
		return "", fmt.Errorf("unsupported projection type: %T", p)
	}
}

func entity(e Entity) (string, error) {
	switch ent := e.(type) {
	case Variable:
		return ent.String(), nil
	case IRI:
		return iriText(ent.Value)
	case Literal:
		return literalText(ent)
	default:
		return "", fmt.Errorf("unsupported entity type: %T", e)
	}
}

func expression(e Expression) (string, error) {
	switch expr := e.(type) {
	case Variable, IRI, Literal:
		return entity(expr.(Entity))
	case CompareExpression:
		left, err := expression(expr.Left)
		if err != nil {
			return "", err
		}
		right, err := expression(expr.Right)
		if err != nil {
			return "", err
		}
		return left + " " + string(expr.Operator) + " " + right, nil
	case AndExpression:
		return binary(expr.Left, "&&", expr.Right)
	case OrExpression:
		return binary(expr.Left, "||", expr.Right)
	case RegexExpression:
		text, err := expression(expr.Text)
		if err != nil {
			return "", err
		}
		args := text + ", " + quote(expr.Pattern)
		if expr.Flags != "" {
			args += ", " + quote(expr.Flags)
		}
		return "regex(" + args + ")", nil
	default:
		return "", fmt.Errorf("unsupported expression type: %T", e)
	}
}

// topLevel renders a FILTER body; the FILTER parentheses already group
// a top-level conjunction or disjunction.
func topLevel(e Expression) (string, error) {
	switch expr := e.(type) {
	case AndExpression:
		return bareBinary(expr.Left, "&&", expr.Right)
	case OrExpression:
		return bareBinary(expr.Left, "||", expr.Right)
	}
	return expression(e)
}

func binary(l Expression, op string, r Expression) (string, error) {
	s, err := bareBinary(l, op, r)
	if err != nil {
		return "", err
	}
	return "(" + s + ")", nil
}

func bareBinary(l Expression, op string, r Expression) (string, error) {
	left, err := expression(l)
	if err != nil {
		return "", err
	}
	right, err := expression(r)
	if err != nil {
		return "", err
	}
	return left + " " + op + " " + right, nil
}

// iriText abbreviates IRIs in the well-known namespaces. IRIs that cannot
// be written between angle brackets are rejected.
func iriText(iri string) (string, error) {
	if i := strings.IndexFunc(iri, forbiddenInIRI); i >= 0 {
		return "", fmt.Errorf("invalid IRI %q: character %q at offset %d", iri, iri[i], i)
	}
	for _, p := range vocab.Prefixes {
		if !strings.HasPrefix(iri, p.Namespace) {
			continue
		}
		local := strings.TrimPrefix(iri, p.Namespace)
		if localNamePattern.MatchString(local) {
			return p.Name + ":" + local, nil
		}
	}
	return "<" + iri + ">", nil
}

// forbiddenInIRI reports characters an IRIREF may not contain.
func forbiddenInIRI(c rune) bool {
	return c <= 0x20 || strings.ContainsRune(`<>"{}|^`+"`"+`\`, c)
}

func literalText(l Literal) (string, error) {
	switch {
	case l.Lang != "":
		return quote(l.Value) + "@" + l.Lang, nil
	case l.Datatype == vocab.XSDBoolean && (l.Value == "true" || l.Value == "false"):
		return l.Value, nil
	case l.Datatype == "" || l.Datatype == vocab.XSDString:
		return quote(l.Value), nil
	default:
		dt, err := iriText(l.Datatype)
		if err != nil {
			return "", err
		}
		return quote(l.Value) + "^^" + dt, nil
	}
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quote(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}
