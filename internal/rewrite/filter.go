package rewrite

import (
	"strconv"

	"github.com/roach88/gravsearch/internal/datecal"
	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/typeinspect"
	"github.com/roach88/gravsearch/internal/vocab"
)

// literalDatatypes lists the literal datatypes each value kind can be
// compared with.
var literalDatatypes = map[vocab.ValueKind][]string{
	vocab.KindText:    {vocab.XSDString, vocab.RDFLangString},
	vocab.KindInteger: {vocab.XSDInteger, vocab.XSDDecimal},
	vocab.KindDecimal: {vocab.XSDDecimal, vocab.XSDInteger},
	vocab.KindBoolean: {vocab.XSDBoolean},
	vocab.KindDate:    {vocab.DateDatatype},
	vocab.KindURI:     {vocab.XSDAnyURI, vocab.XSDString},
	vocab.KindGeoname: {vocab.GeonameDatatype, vocab.XSDString},
}

// expression rewrites a FILTER expression so that comparisons on value
// objects read their literal fields.
func (rw *rewriter) expression(e sparql.Expression) (sparql.Expression, error) {
	switch x := e.(type) {
	case sparql.AndExpression:
		left, err := rw.expression(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := rw.expression(x.Right)
		if err != nil {
			return nil, err
		}
		return sparql.AndExpression{Left: left, Right: right}, nil
	case sparql.OrExpression:
		left, err := rw.expression(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := rw.expression(x.Right)
		if err != nil {
			return nil, err
		}
		return sparql.OrExpression{Left: left, Right: right}, nil
	case sparql.CompareExpression:
		return rw.compare(x)
	case sparql.RegexExpression:
		return rw.regex(x)
	}
	return nil, queryerr.Internal("unexpected FILTER expression %T", e)
}

func (rw *rewriter) regex(x sparql.RegexExpression) (sparql.Expression, error) {
	v, ok := x.Text.(sparql.Variable)
	if !ok {
		return nil, queryerr.BadRequest("regex can only be applied to a variable")
	}
	switch t := rw.typeOf(v).(type) {
	case nil:
		return nil, queryerr.Internal("no type inferred for %s", v)
	case typeinspect.LiteralType:
		if t.Datatype != vocab.XSDString && t.Datatype != vocab.RDFLangString {
			return nil, queryerr.BadRequest("regex is not supported on %s (%s)", v, t)
		}
		return x, nil
	case typeinspect.ResourceClass:
		if t.Kind != vocab.KindText {
			return nil, queryerr.BadRequest("regex is not supported on %s (%s)", v, t)
		}
		x.Text = rw.field(v, vocab.ValueHasString)
		return x, nil
	default:
		return nil, queryerr.BadRequest("regex is not supported on %s (%s)", v, t)
	}
}

// compare rewrites "left op right". The variable side is moved to the
// left, flipping the operator.
func (rw *rewriter) compare(c sparql.CompareExpression) (sparql.Expression, error) {
	left, isVar := c.Left.(sparql.Variable)
	if !isVar {
		right, ok := c.Right.(sparql.Variable)
		if !ok {
			return c, nil
		}
		left = right
		c = sparql.CompareExpression{Left: right, Operator: c.Operator.Flip(), Right: c.Left}
	}

	switch t := rw.typeOf(left).(type) {
	case nil:
		return nil, queryerr.Internal("no type inferred for %s", left)
	case typeinspect.LiteralType:
		return c, nil
	case typeinspect.PropertyType:
		if !c.Operator.IsEquality() {
			return nil, queryerr.BadRequest("operator %s is not supported on property variable %s", c.Operator, left)
		}
		return c, nil
	case typeinspect.ResourceClass:
		if !t.IsValue() {
			if !c.Operator.IsEquality() {
				return nil, queryerr.BadRequest("operator %s is not supported on %s (%s)", c.Operator, left, t)
			}
			return c, nil
		}
		return rw.compareValue(left, t.Kind, c)
	}
	return nil, queryerr.Internal("unexpected type for %s", left)
}

func (rw *rewriter) compareValue(v sparql.Variable, kind vocab.ValueKind, c sparql.CompareExpression) (sparql.Expression, error) {
	if err := checkOperator(v, kind, c.Operator); err != nil {
		return nil, err
	}

	switch right := c.Right.(type) {
	case sparql.Literal:
		if kind == vocab.KindDate {
			return rw.compareDate(v, c.Operator, right)
		}
		if !acceptsDatatype(kind, right.Datatype) {
			return nil, queryerr.BadRequest("cannot compare %s value %s with %s", kind, v, right)
		}
		field := vocab.SortField(kind)
		return sparql.CompareExpression{Left: rw.field(v, field), Operator: c.Operator, Right: fieldLiteral(kind, right)}, nil

	case sparql.IRI:
		switch kind {
		case vocab.KindList:
			return sparql.CompareExpression{Left: rw.field(v, vocab.ValueHasListNode), Operator: c.Operator, Right: right}, nil
		case vocab.KindURI:
			lit := sparql.Literal{Value: right.Value, Datatype: vocab.XSDAnyURI}
			return sparql.CompareExpression{Left: rw.field(v, vocab.ValueHasUri), Operator: c.Operator, Right: lit}, nil
		}
		return nil, queryerr.BadRequest("cannot compare %s value %s with IRI %s", kind, v, right)

	case sparql.Variable:
		return rw.compareValueVariables(v, kind, c.Operator, right)
	}
	return nil, queryerr.BadRequest("unsupported comparison on %s", v)
}

func (rw *rewriter) compareValueVariables(v sparql.Variable, kind vocab.ValueKind, op sparql.CompareOperator, other sparql.Variable) (sparql.Expression, error) {
	field := comparisonField(kind)
	if field == "" {
		return nil, queryerr.BadRequest("cannot compare %s values %s and %s", kind, v, other)
	}

	switch t := rw.typeOf(other).(type) {
	case nil:
		return nil, queryerr.Internal("no type inferred for %s", other)
	case typeinspect.LiteralType:
		return sparql.CompareExpression{Left: rw.field(v, field), Operator: op, Right: other}, nil
	case typeinspect.ResourceClass:
		if t.Kind == kind {
			return sparql.CompareExpression{Left: rw.field(v, field), Operator: op, Right: rw.field(other, field)}, nil
		}
	}
	return nil, queryerr.BadRequest("cannot compare %s value %s with %s", kind, v, other)
}

// compareDate expands a comparison between a date value and a date literal
// into comparisons of Julian day numbers. A date denotes the period
// [start, end]; the literal denotes [ls, le].
func (rw *rewriter) compareDate(v sparql.Variable, op sparql.CompareOperator, lit sparql.Literal) (sparql.Expression, error) {
	if lit.Datatype != vocab.DateDatatype {
		return nil, queryerr.BadRequest("date value %s can only be compared with a knora-api:Date literal, found %s", v, lit)
	}
	d, err := datecal.Parse(lit.Value)
	if err != nil {
		return nil, queryerr.BadRequest("invalid date literal %q: %v", lit.Value, err)
	}
	ls := sparql.IntegerLiteral(strconv.Itoa(d.StartJDN))
	le := sparql.IntegerLiteral(strconv.Itoa(d.EndJDN))

	fields := vocab.LiteralFields(vocab.KindDate)
	start := func() sparql.Variable { return rw.field(v, fields[0]) }
	end := func() sparql.Variable { return rw.field(v, fields[1]) }
	cmp := func(l sparql.Variable, o sparql.CompareOperator, r sparql.Literal) sparql.Expression {
		return sparql.CompareExpression{Left: l, Operator: o, Right: r}
	}

	switch op {
	case sparql.OpEqual:
		return sparql.AndExpression{
			Left:  cmp(start(), sparql.OpLessEqual, le),
			Right: cmp(end(), sparql.OpGreaterEqual, ls),
		}, nil
	case sparql.OpNotEqual:
		return sparql.OrExpression{
			Left:  cmp(start(), sparql.OpGreater, le),
			Right: cmp(end(), sparql.OpLess, ls),
		}, nil
	case sparql.OpLess:
		return cmp(end(), sparql.OpLess, ls), nil
	case sparql.OpLessEqual:
		return cmp(start(), sparql.OpLessEqual, le), nil
	case sparql.OpGreater:
		return cmp(start(), sparql.OpGreater, le), nil
	case sparql.OpGreaterEqual:
		return cmp(end(), sparql.OpGreaterEqual, ls), nil
	}
	return nil, queryerr.BadRequest("operator %s is not supported on dates", op)
}

// checkOperator enforces the operators each value kind supports.
func checkOperator(v sparql.Variable, kind vocab.ValueKind, op sparql.CompareOperator) error {
	switch kind {
	case vocab.KindInteger, vocab.KindDecimal, vocab.KindDate:
		return nil
	case vocab.KindText, vocab.KindBoolean, vocab.KindGeoname, vocab.KindList, vocab.KindURI:
		if op.IsEquality() {
			return nil
		}
		return queryerr.BadRequest("operator %s is not supported on %s value %s", op, kind, v)
	}
	return queryerr.BadRequest("values of kind %s cannot be compared (%s)", kind, v)
}

func acceptsDatatype(kind vocab.ValueKind, datatype string) bool {
	for _, dt := range literalDatatypes[kind] {
		if dt == datatype {
			return true
		}
	}
	return false
}

// fieldLiteral converts a comparison literal to the datatype the field
// stores.
func fieldLiteral(kind vocab.ValueKind, lit sparql.Literal) sparql.Literal {
	switch kind {
	case vocab.KindText, vocab.KindGeoname:
		return sparql.StringLiteral(lit.Value)
	case vocab.KindURI:
		return sparql.Literal{Value: lit.Value, Datatype: vocab.XSDAnyURI}
	}
	return lit
}

// comparisonField is the field two values of a kind are compared by.
func comparisonField(kind vocab.ValueKind) string {
	if kind == vocab.KindList {
		return vocab.ValueHasListNode
	}
	return vocab.SortField(kind)
}
