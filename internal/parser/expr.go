package parser

import (
	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/vocab"
)

// toSimpleDate is knora-api:toSimpleDate after conversion. The complex
// schema wraps date values in it; the rewriter treats the argument itself
// as the date.
const toSimpleDate = vocab.KnoraBaseNamespace + "toSimpleDate"

var compareOperators = map[string]sparql.CompareOperator{
	"=":  sparql.OpEqual,
	"!=": sparql.OpNotEqual,
	"<":  sparql.OpLess,
	"<=": sparql.OpLessEqual,
	">":  sparql.OpGreater,
	">=": sparql.OpGreaterEqual,
}

// operand is a parsed expression together with whether it yields a
// boolean. Bare entities never do.
type operand struct {
	expr    sparql.Expression
	boolean bool
	tok     token
}

// parseConstraint parses what follows FILTER: a bracketted expression or
// a built-in call.
func (p *Parser) parseConstraint() (sparql.Expression, error) {
	t := p.peek()
	if !t.is("(") && !t.isKeyword("regex") {
		if t.isKeyword("NOT") || t.isKeyword("EXISTS") {
			return nil, p.errorAt(t, "EXISTS filters are not supported")
		}
		return nil, p.errorAt(t, "expected '(' after FILTER, found %s", t.describe())
	}
	op, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !op.boolean {
		return nil, p.errorAt(op.tok, "FILTER expression must be boolean, found %s", op.tok.describe())
	}
	return op.expr, nil
}

func (p *Parser) parseOr() (operand, error) {
	left, err := p.parseAnd()
	if err != nil {
		return operand{}, err
	}
	for p.peek().is("||") {
		opTok := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return operand{}, err
		}
		left = operand{expr: sparql.OrExpression{Left: left.expr, Right: right.expr}, boolean: true, tok: opTok}
	}
	return left, nil
}

func (p *Parser) parseAnd() (operand, error) {
	left, err := p.parseRelational()
	if err != nil {
		return operand{}, err
	}
	for p.peek().is("&&") {
		opTok := p.next()
		right, err := p.parseRelational()
		if err != nil {
			return operand{}, err
		}
		left = operand{expr: sparql.AndExpression{Left: left.expr, Right: right.expr}, boolean: true, tok: opTok}
	}
	return left, nil
}

// parseRelational parses a comparison, or a boolean primary on its own.
func (p *Parser) parseRelational() (operand, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return operand{}, err
	}

	opTok := p.peek()
	op, isCompare := compareOperators[opTok.text]
	if opTok.kind != tokOp || !isCompare {
		if !left.boolean {
			return operand{}, p.errorAt(left.tok, "%s is not a boolean expression", left.tok.describe())
		}
		return left, nil
	}
	p.next()

	if left.boolean {
		return operand{}, p.errorAt(opTok, "cannot compare a boolean expression with '%s'", opTok.text)
	}
	right, err := p.parsePrimary()
	if err != nil {
		return operand{}, err
	}
	if right.boolean {
		return operand{}, p.errorAt(right.tok, "cannot compare with a boolean expression")
	}

	return operand{
		expr:    sparql.CompareExpression{Left: left.expr, Operator: op, Right: right.expr},
		boolean: true,
		tok:     left.tok,
	}, nil
}

func (p *Parser) parsePrimary() (operand, error) {
	t := p.peek()
	switch {
	case t.is("("):
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return operand{}, err
		}
		if _, err := p.expect(")"); err != nil {
			return operand{}, err
		}
		inner.tok = t
		return inner, nil
	case t.is("!"):
		return operand{}, p.errorAt(t, "negation is not supported")
	case t.isKeyword("regex"):
		return p.parseRegex()
	case (t.kind == tokIRI || t.kind == tokPName) && p.peekAt(1).is("("):
		return p.parseFunction()
	case t.kind == tokWord && t.text != "true" && t.text != "false":
		return operand{}, p.errorAt(t, "unsupported function %s", t.describe())
	}

	e, err := p.parseTerm()
	if err != nil {
		return operand{}, err
	}
	return operand{expr: e, tok: t}, nil
}

func (p *Parser) parseRegex() (operand, error) {
	start := p.next()
	if _, err := p.expect("("); err != nil {
		return operand{}, err
	}

	textTok := p.peek()
	text, err := p.parsePrimary()
	if err != nil {
		return operand{}, err
	}
	if text.boolean {
		return operand{}, p.errorAt(textTok, "regex expects a value as its first argument")
	}
	if _, err := p.expect(","); err != nil {
		return operand{}, err
	}

	pattern := p.next()
	if pattern.kind != tokString {
		return operand{}, p.errorAt(pattern, "regex pattern must be a string literal, found %s", pattern.describe())
	}

	var flags string
	if p.peek().is(",") {
		p.next()
		f := p.next()
		if f.kind != tokString {
			return operand{}, p.errorAt(f, "regex flags must be a string literal, found %s", f.describe())
		}
		flags = f.text
	}
	if _, err := p.expect(")"); err != nil {
		return operand{}, err
	}

	return operand{
		expr:    sparql.RegexExpression{Text: text.expr, Pattern: pattern.text, Flags: flags},
		boolean: true,
		tok:     start,
	}, nil
}

// parseFunction handles knora-api:toSimpleDate(x), which yields x.
func (p *Parser) parseFunction() (operand, error) {
	nameTok := p.next()
	iri, err := p.resolveIRI(nameTok)
	if err != nil {
		return operand{}, err
	}
	fn, err := p.internalIRI(iri, nameTok)
	if err != nil {
		return operand{}, err
	}
	if fn.Value != toSimpleDate {
		return operand{}, p.errorAt(nameTok, "unsupported function %s", nameTok.describe())
	}

	p.next() // (
	argTok := p.peek()
	arg, err := p.parseTerm()
	if err != nil {
		return operand{}, err
	}
	if _, ok := arg.(sparql.Variable); !ok {
		return operand{}, p.errorAt(argTok, "toSimpleDate expects a variable, found %s", argTok.describe())
	}
	if _, err := p.expect(")"); err != nil {
		return operand{}, err
	}
	return operand{expr: arg, tok: nameTok}, nil
}
