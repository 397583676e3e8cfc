package sparql

import "github.com/roach88/gravsearch/internal/vocab"

// Entity is a subject, predicate or object of a statement pattern.
//
// This is a sealed interface - only Variable, IRI and Literal implement it.
// Entities are comparable value types so they can key maps such as the
// type inspection result.
type Entity interface {
	entityNode() // Marker method - seals interface to this package
	Expression
}

// Pattern is one element of a WHERE clause.
//
// Pattern types:
//   - StatementPattern: subject predicate object, optionally in a named graph
//   - FilterPattern: FILTER(expression)
//   - OptionalPattern: OPTIONAL { patterns }
//   - UnionPattern: { block } UNION { block } ...
//   - ValuesPattern: VALUES ?var { iris } (generated queries only)
type Pattern interface {
	patternNode()
}

// Expression is a FILTER expression. Entities are expressions too.
type Expression interface {
	expressionNode()
}

// Projection is one item of a SELECT clause.
type Projection interface {
	projectionNode()
}

// Query is a complete query that can be rendered.
type Query interface {
	queryNode()
}

// Variable is a query variable, named without the leading "?".
type Variable struct {
	Name string
}

func (Variable) entityNode()     {}
func (Variable) expressionNode() {}
func (Variable) projectionNode() {}

// String returns the variable as written in query text.
func (v Variable) String() string { return "?" + v.Name }

// IRI is an absolute IRI reference.
type IRI struct {
	Value string
}

func (IRI) entityNode()     {}
func (IRI) expressionNode() {}

// String returns the IRI in angle brackets.
func (i IRI) String() string { return "<" + i.Value + ">" }

// Literal is a typed or language-tagged literal.
type Literal struct {
	Value    string
	Datatype string
	Lang     string
}

func (Literal) entityNode()     {}
func (Literal) expressionNode() {}

// String returns a short diagnostic form of the literal.
func (l Literal) String() string {
	if l.Lang != "" {
		return `"` + l.Value + `"@` + l.Lang
	}
	return `"` + l.Value + `"^^<` + l.Datatype + `>`
}

// NewVariable creates a Variable.
func NewVariable(name string) Variable { return Variable{Name: name} }

// NewIRI creates an IRI.
func NewIRI(value string) IRI { return IRI{Value: value} }

// StringLiteral creates an xsd:string literal.
func StringLiteral(s string) Literal {
	return Literal{Value: s, Datatype: vocab.XSDString}
}

// IntegerLiteral creates an xsd:integer literal.
func IntegerLiteral(s string) Literal {
	return Literal{Value: s, Datatype: vocab.XSDInteger}
}

// BooleanLiteral creates an xsd:boolean literal.
func BooleanLiteral(b bool) Literal {
	if b {
		return Literal{Value: "true", Datatype: vocab.XSDBoolean}
	}
	return Literal{Value: "false", Datatype: vocab.XSDBoolean}
}

// EntityString renders any entity for diagnostics.
func EntityString(e Entity) string {
	switch v := e.(type) {
	case Variable:
		return v.String()
	case IRI:
		return v.String()
	case Literal:
		return v.String()
	default:
		return "<nil>"
	}
}

// StatementPattern is "subject predicate object ." Subject and predicate
// are never literals.
type StatementPattern struct {
	Subject   Entity
	Predicate Entity
	Object    Entity

	// Graph restricts the statement to a named graph. Empty means the
	// default graph.
	Graph string

	// IncludeInOutput marks WHERE statements whose triple also appears in
	// the CONSTRUCT template.
	IncludeInOutput bool
}

func (StatementPattern) patternNode() {}

// NewStatement creates a statement in the default graph.
func NewStatement(s, p, o Entity) StatementPattern {
	return StatementPattern{Subject: s, Predicate: p, Object: o}
}

// FilterPattern is FILTER(expression).
type FilterPattern struct {
	Expression Expression
}

func (FilterPattern) patternNode() {}

// OptionalPattern is OPTIONAL { patterns }.
type OptionalPattern struct {
	Patterns []Pattern
}

func (OptionalPattern) patternNode() {}

// UnionPattern is a union of two or more blocks.
type UnionPattern struct {
	Blocks [][]Pattern
}

func (UnionPattern) patternNode() {}

// ValuesPattern restricts a variable to a fixed set of IRIs.
type ValuesPattern struct {
	Variable Variable
	Values   []IRI
}

func (ValuesPattern) patternNode() {}

// CompareOperator is a comparison operator.
type CompareOperator string

const (
	OpEqual        CompareOperator = "="
	OpNotEqual     CompareOperator = "!="
	OpLess         CompareOperator = "<"
	OpLessEqual    CompareOperator = "<="
	OpGreater      CompareOperator = ">"
	OpGreaterEqual CompareOperator = ">="
)

// Flip returns the operator that holds after swapping the operands.
func (op CompareOperator) Flip() CompareOperator {
	switch op {
	case OpLess:
		return OpGreater
	case OpLessEqual:
		return OpGreaterEqual
	case OpGreater:
		return OpLess
	case OpGreaterEqual:
		return OpLessEqual
	}
	return op
}

// IsEquality reports whether op is = or !=.
func (op CompareOperator) IsEquality() bool {
	return op == OpEqual || op == OpNotEqual
}

// CompareExpression is left op right.
type CompareExpression struct {
	Left     Expression
	Operator CompareOperator
	Right    Expression
}

func (CompareExpression) expressionNode() {}

// AndExpression is left && right.
type AndExpression struct {
	Left, Right Expression
}

func (AndExpression) expressionNode() {}

// OrExpression is left || right.
type OrExpression struct {
	Left, Right Expression
}

func (OrExpression) expressionNode() {}

// RegexExpression is regex(text, pattern, flags).
type RegexExpression struct {
	Text    Expression
	Pattern string
	Flags   string
}

func (RegexExpression) expressionNode() {}

// CountProjection is (COUNT([DISTINCT] ?var) AS ?alias).
type CountProjection struct {
	Variable Variable
	Distinct bool
	Alias    Variable
}

func (CountProjection) projectionNode() {}

// OrderCriterion is one ORDER BY key.
type OrderCriterion struct {
	Variable  Variable
	Ascending bool
}

// ConstructQuery is a CONSTRUCT query. Offset is the requested page
// number for client queries; generated fetch queries leave it zero.
type ConstructQuery struct {
	Template []StatementPattern
	Where    []Pattern
	OrderBy  []OrderCriterion
	Offset   int
}

func (ConstructQuery) queryNode() {}

// MainVariable returns the variable marked as main resource in the
// template, if exactly one is marked.
func (q ConstructQuery) MainVariable() (Variable, bool) {
	var found []Variable
	for _, st := range q.Template {
		pred, ok := st.Predicate.(IRI)
		if !ok || pred.Value != vocab.IsMainResource {
			continue
		}
		if v, ok := st.Subject.(Variable); ok {
			found = append(found, v)
		}
	}
	if len(found) != 1 {
		return Variable{}, false
	}
	return found[0], true
}

// SelectQuery is a SELECT query. Limit and Offset are omitted from the
// rendered text when zero.
type SelectQuery struct {
	Distinct  bool
	Variables []Projection
	Where     []Pattern
	GroupBy   []Variable
	OrderBy   []OrderCriterion
	Limit     int
	Offset    int
}

func (SelectQuery) queryNode() {}
