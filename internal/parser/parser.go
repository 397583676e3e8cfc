package parser

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/vocab"
)

// ParseResult is a parsed query in internal vocabulary plus the schema
// tag of the surface vocabulary it was written in.
type ParseResult struct {
	Query        *sparql.ConstructQuery
	Schema       vocab.Schema
	MainResource sparql.Variable
}

// Page returns the requested page number (the query's OFFSET).
func (r *ParseResult) Page() int {
	return r.Query.Offset
}

// defaultPrefixes are usable without a PREFIX declaration.
var defaultPrefixes = map[string]string{
	"rdf":  vocab.RDFNamespace,
	"rdfs": vocab.RDFSNamespace,
	"xsd":  vocab.XSDNamespace,
	"owl":  vocab.OWLNamespace,
}

// Parser holds the state of one parse. Use Parse; a Parser is not reusable.
type Parser struct {
	toks     []token
	pos      int
	prefixes map[string]string
	base     string

	schema      vocab.Schema
	schemaToken token
}

// Parse parses Gravsearch query text.
//
// Errors are *queryerr.Error values: PARSE_ERROR for malformed text (with
// line and column), SCHEMA_ERROR when API vocabularies are mixed and
// BAD_REQUEST for well-formed queries that cannot be served.
func Parse(text string) (*ParseResult, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	p := &Parser{toks: toks, prefixes: make(map[string]string)}
	for k, v := range defaultPrefixes {
		p.prefixes[k] = v
	}

	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}

	if p.schema == vocab.SchemaNone {
		return nil, queryerr.BadRequest("query does not use a Knora API ontology")
	}

	main, err := mainResource(q)
	if err != nil {
		return nil, err
	}

	markIncludedInOutput(q)

	return &ParseResult{Query: q, Schema: p.schema, MainResource: main}, nil
}

// =============================================================================
// Token helpers
// =============================================================================

func (p *Parser) peek() token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+offset]
}

func (p *Parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *Parser) errorAt(t token, format string, args ...any) error {
	return queryerr.Parse(t.line, t.column, format, args...)
}

func (p *Parser) expect(text string) (token, error) {
	t := p.next()
	if !t.is(text) {
		return t, p.errorAt(t, "expected '%s', found %s", text, t.describe())
	}
	return t, nil
}

func (p *Parser) expectKeyword(kw string) error {
	t := p.next()
	if !t.isKeyword(kw) {
		return p.errorAt(t, "expected %s, found %s", kw, t.describe())
	}
	return nil
}

// acceptDot consumes an optional '.' separator.
func (p *Parser) acceptDot() {
	if p.peek().is(".") {
		p.next()
	}
}

// =============================================================================
// Query
// =============================================================================

func (p *Parser) parseQuery() (*sparql.ConstructQuery, error) {
	if err := p.parsePrologue(); err != nil {
		return nil, err
	}

	if err := p.expectKeyword("CONSTRUCT"); err != nil {
		return nil, err
	}
	template, err := p.parseTemplate()
	if err != nil {
		return nil, err
	}

	if p.peek().isKeyword("WHERE") {
		p.next()
	}
	where, err := p.parseGroup()
	if err != nil {
		return nil, err
	}

	q := &sparql.ConstructQuery{Template: template, Where: where}
	if err := p.parseModifiers(q); err != nil {
		return nil, err
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorAt(t, "unexpected %s after end of query", t.describe())
	}
	return q, nil
}

func (p *Parser) parsePrologue() error {
	for {
		t := p.peek()
		switch {
		case t.isKeyword("PREFIX"):
			p.next()
			name := p.next()
			if name.kind != tokPName || !strings.HasSuffix(name.text, ":") {
				return p.errorAt(name, "expected prefix name ending in ':', found %s", name.describe())
			}
			iri := p.next()
			if iri.kind != tokIRI {
				return p.errorAt(iri, "expected IRI for prefix %s, found %s", name.text, iri.describe())
			}
			p.prefixes[strings.TrimSuffix(name.text, ":")] = p.resolveRelative(iri.text)
		case t.isKeyword("BASE"):
			p.next()
			iri := p.next()
			if iri.kind != tokIRI {
				return p.errorAt(iri, "expected IRI after BASE, found %s", iri.describe())
			}
			p.base = iri.text
		default:
			return nil
		}
	}
}

func (p *Parser) parseModifiers(q *sparql.ConstructQuery) error {
	if p.peek().isKeyword("ORDER") {
		p.next()
		if err := p.expectKeyword("BY"); err != nil {
			return err
		}
		order, err := p.parseOrderConditions()
		if err != nil {
			return err
		}
		q.OrderBy = order
	}

	seenOffset := false
	for {
		t := p.peek()
		switch {
		case t.isKeyword("LIMIT"):
			return p.errorAt(t, "LIMIT is not allowed: the page size is set by the server")
		case t.isKeyword("OFFSET"):
			if seenOffset {
				return p.errorAt(t, "duplicate OFFSET")
			}
			seenOffset = true
			p.next()
			n := p.next()
			if n.kind != tokInteger {
				return p.errorAt(n, "expected page number after OFFSET, found %s", n.describe())
			}
			page, err := strconv.Atoi(n.text)
			if err != nil || page < 0 {
				return p.errorAt(n, "OFFSET must be a non-negative integer")
			}
			q.Offset = page
		default:
			return nil
		}
	}
}

func (p *Parser) parseOrderConditions() ([]sparql.OrderCriterion, error) {
	var order []sparql.OrderCriterion
	for {
		t := p.peek()
		switch {
		case t.kind == tokVar:
			p.next()
			order = append(order, sparql.OrderCriterion{Variable: sparql.NewVariable(t.text), Ascending: true})
		case t.isKeyword("ASC") || t.isKeyword("DESC"):
			p.next()
			if _, err := p.expect("("); err != nil {
				return nil, err
			}
			v := p.next()
			if v.kind != tokVar {
				return nil, p.errorAt(v, "ORDER BY accepts only variables, found %s", v.describe())
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			order = append(order, sparql.OrderCriterion{
				Variable:  sparql.NewVariable(v.text),
				Ascending: t.isKeyword("ASC"),
			})
		default:
			if len(order) == 0 {
				return nil, p.errorAt(t, "expected ORDER BY condition, found %s", t.describe())
			}
			return order, nil
		}
	}
}

// =============================================================================
// Graph patterns
// =============================================================================

// parseTemplate parses the CONSTRUCT block, which holds only triples.
func (p *Parser) parseTemplate() ([]sparql.StatementPattern, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	var out []sparql.StatementPattern
	for !p.peek().is("}") {
		if t := p.peek(); t.kind == tokEOF || t.isKeyword("FILTER") || t.isKeyword("OPTIONAL") || t.is("{") {
			return nil, p.errorAt(t, "CONSTRUCT clause may only contain statements, found %s", t.describe())
		}
		stmts, err := p.parseTriples()
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
		p.acceptDot()
	}
	p.next()
	return out, nil
}

// parseGroup parses { ... } in the WHERE clause.
func (p *Parser) parseGroup() ([]sparql.Pattern, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}

	var patterns []sparql.Pattern
	for {
		t := p.peek()
		switch {
		case t.is("}"):
			p.next()
			return patterns, nil
		case t.kind == tokEOF:
			return nil, p.errorAt(t, "unterminated group: expected '}'")
		case t.isKeyword("FILTER"):
			p.next()
			expr, err := p.parseConstraint()
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, sparql.FilterPattern{Expression: expr})
		case t.isKeyword("OPTIONAL"):
			p.next()
			inner, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, sparql.OptionalPattern{Patterns: inner})
		case t.is("{"):
			blocks, err := p.parseUnion()
			if err != nil {
				return nil, err
			}
			if len(blocks) == 1 {
				patterns = append(patterns, blocks[0]...)
			} else {
				patterns = append(patterns, sparql.UnionPattern{Blocks: blocks})
			}
		case t.isKeyword("MINUS") || t.isKeyword("BIND") || t.isKeyword("VALUES") ||
			t.isKeyword("GRAPH") || t.isKeyword("SERVICE") || t.isKeyword("SELECT"):
			return nil, p.errorAt(t, "%s is not supported in Gravsearch queries", strings.ToUpper(t.text))
		default:
			stmts, err := p.parseTriples()
			if err != nil {
				return nil, err
			}
			for _, st := range stmts {
				patterns = append(patterns, st)
			}
		}
		p.acceptDot()
	}
}

func (p *Parser) parseUnion() ([][]sparql.Pattern, error) {
	first, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	blocks := [][]sparql.Pattern{first}
	for p.peek().isKeyword("UNION") {
		p.next()
		block, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// parseTriples parses one subject with its predicate-object list.
func (p *Parser) parseTriples() ([]sparql.StatementPattern, error) {
	subjTok := p.peek()
	subject, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if _, ok := subject.(sparql.Literal); ok {
		return nil, p.errorAt(subjTok, "a literal cannot be the subject of a statement")
	}

	var out []sparql.StatementPattern
	for {
		predTok := p.peek()
		var predicate sparql.Entity
		if predTok.kind == tokWord && predTok.text == "a" {
			p.next()
			predicate = sparql.NewIRI(vocab.RDFType)
		} else {
			predicate, err = p.parseTerm()
			if err != nil {
				return nil, err
			}
			if _, ok := predicate.(sparql.Literal); ok {
				return nil, p.errorAt(predTok, "a literal cannot be the predicate of a statement")
			}
		}

		for {
			object, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.NewStatement(subject, predicate, object))
			if !p.peek().is(",") {
				break
			}
			p.next()
		}

		if !p.peek().is(";") {
			return out, nil
		}
		for p.peek().is(";") {
			p.next()
		}
		// A dangling ';' before '.' or '}' is allowed.
		if t := p.peek(); t.is(".") || t.is("}") {
			return out, nil
		}
	}
}

// =============================================================================
// Terms
// =============================================================================

func (p *Parser) parseTerm() (sparql.Entity, error) {
	t := p.next()
	switch t.kind {
	case tokVar:
		return sparql.NewVariable(t.text), nil
	case tokIRI, tokPName:
		iri, err := p.resolveIRI(t)
		if err != nil {
			return nil, err
		}
		return p.internalIRI(iri, t)
	case tokString:
		return p.parseLiteralSuffix(t)
	case tokInteger:
		return sparql.IntegerLiteral(t.text), nil
	case tokDecimal:
		return sparql.Literal{Value: t.text, Datatype: vocab.XSDDecimal}, nil
	case tokWord:
		switch t.text {
		case "true":
			return sparql.BooleanLiteral(true), nil
		case "false":
			return sparql.BooleanLiteral(false), nil
		}
	}
	return nil, p.errorAt(t, "expected variable, IRI or literal, found %s", t.describe())
}

func (p *Parser) parseLiteralSuffix(str token) (sparql.Literal, error) {
	value := norm.NFC.String(str.text)
	switch t := p.peek(); {
	case t.kind == tokLang:
		p.next()
		return sparql.Literal{Value: value, Datatype: vocab.RDFLangString, Lang: strings.ToLower(t.text)}, nil
	case t.kind == tokDatatype:
		p.next()
		dt := p.next()
		if dt.kind != tokIRI && dt.kind != tokPName {
			return sparql.Literal{}, p.errorAt(dt, "expected datatype IRI after '^^', found %s", dt.describe())
		}
		iri, err := p.resolveIRI(dt)
		if err != nil {
			return sparql.Literal{}, err
		}
		internal, err := p.datatypeIRI(iri, dt)
		if err != nil {
			return sparql.Literal{}, err
		}
		return sparql.Literal{Value: value, Datatype: internal}, nil
	}
	return sparql.StringLiteral(value), nil
}

// resolveIRI expands a prefixed name or resolves a relative IRI.
func (p *Parser) resolveIRI(t token) (string, error) {
	if t.kind == tokIRI {
		return p.resolveRelative(t.text), nil
	}
	colon := strings.IndexByte(t.text, ':')
	prefix, local := t.text[:colon], t.text[colon+1:]
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", p.errorAt(t, "undeclared prefix %q", prefix)
	}
	return ns + local, nil
}

func (p *Parser) resolveRelative(iri string) string {
	if p.base == "" || strings.Contains(iri, "://") {
		return iri
	}
	return p.base + iri
}

// internalIRI converts an API IRI to the internal vocabulary and records
// the schema it belongs to.
func (p *Parser) internalIRI(iri string, t token) (sparql.IRI, error) {
	internal, schema, err := vocab.ToInternal(iri)
	if err != nil {
		return sparql.IRI{}, queryerr.BadRequest("line %d, column %d: %v", t.line, t.column, err)
	}
	if schema != vocab.SchemaNone {
		if p.schema == vocab.SchemaNone {
			p.schema = schema
			p.schemaToken = t
		} else if schema != p.schema {
			return sparql.IRI{}, queryerr.Schema(
				"line %d, column %d: <%s> belongs to the %s schema, but the query uses the %s schema (first seen at line %d, column %d)",
				t.line, t.column, iri, schema, p.schema, p.schemaToken.line, p.schemaToken.column)
		}
	}
	return sparql.NewIRI(internal), nil
}

// datatypeIRI converts a literal datatype. Datatypes exist under the same
// name in both schemas, so they do not decide the query's schema.
func (p *Parser) datatypeIRI(iri string, t token) (string, error) {
	internal, _, err := vocab.ToInternal(iri)
	if err != nil {
		return "", queryerr.BadRequest("line %d, column %d: %v", t.line, t.column, err)
	}
	return internal, nil
}

// =============================================================================
// Post-processing
// =============================================================================

func mainResource(q *sparql.ConstructQuery) (sparql.Variable, error) {
	var found []sparql.StatementPattern
	for _, st := range q.Template {
		if pred, ok := st.Predicate.(sparql.IRI); ok && pred.Value == vocab.IsMainResource {
			found = append(found, st)
		}
	}
	switch len(found) {
	case 0:
		return sparql.Variable{}, queryerr.BadRequest("CONSTRUCT clause must mark the main resource with knora-api:isMainResource true")
	case 1:
	default:
		return sparql.Variable{}, queryerr.BadRequest("knora-api:isMainResource may be used only once, found %d", len(found))
	}

	st := found[0]
	v, ok := st.Subject.(sparql.Variable)
	if !ok {
		return sparql.Variable{}, queryerr.BadRequest("the main resource must be a variable, found %s", sparql.EntityString(st.Subject))
	}
	if st.Object != sparql.BooleanLiteral(true) {
		return sparql.Variable{}, queryerr.BadRequest("knora-api:isMainResource must have the object true")
	}
	return v, nil
}

// markIncludedInOutput flags WHERE statements that the CONSTRUCT template
// repeats.
func markIncludedInOutput(q *sparql.ConstructQuery) {
	type key struct{ s, p, o sparql.Entity }
	inTemplate := make(map[key]bool, len(q.Template))
	for _, st := range q.Template {
		inTemplate[key{st.Subject, st.Predicate, st.Object}] = true
	}

	var mark func([]sparql.Pattern)
	mark = func(patterns []sparql.Pattern) {
		for i, pat := range patterns {
			switch v := pat.(type) {
			case sparql.StatementPattern:
				if inTemplate[key{v.Subject, v.Predicate, v.Object}] {
					v.IncludeInOutput = true
					patterns[i] = v
				}
			case sparql.OptionalPattern:
				mark(v.Patterns)
			case sparql.UnionPattern:
				for _, block := range v.Blocks {
					mark(block)
				}
			}
		}
	}
	mark(q.Where)
}
