package typeinspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gravsearch/internal/parser"
	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/testutil"
	"github.com/roach88/gravsearch/internal/vocab"
)

const (
	simplePrefixes = `
PREFIX knora-api: <http://api.knora.org/ontology/knora-api/simple/v2#>
PREFIX incunabula: <http://0.0.0.0:3333/ontology/0803/incunabula/simple/v2#>
`
	complexPrefixes = `
PREFIX knora-api: <http://api.knora.org/ontology/knora-api/v2#>
PREFIX incunabula: <http://0.0.0.0:3333/ontology/0803/incunabula/v2#>
`
)

func inspect(t *testing.T, query string) (*Result, error) {
	t.Helper()
	parsed, err := parser.Parse(query)
	require.NoError(t, err)
	return New(testutil.IncunabulaCache()).Inspect(parsed.Query, parsed.MainResource)
}

func mustInspect(t *testing.T, query string) *Result {
	t.Helper()
	res, err := inspect(t, query)
	require.NoError(t, err)
	return res
}

func typeOf(t *testing.T, res *Result, e sparql.Entity) Type {
	t.Helper()
	typ, ok := res.TypeOf(e)
	require.True(t, ok, "no type for %s", sparql.EntityString(e))
	return typ
}

func v(name string) sparql.Variable { return sparql.NewVariable(name) }

// =============================================================================
// Ontology Rules
// =============================================================================

func TestInspect_ClassAndPropertyRules(t *testing.T) {
	res := mustInspect(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book a incunabula:book .
    ?book incunabula:title ?title .
    ?page incunabula:partOf ?book .
    ?page incunabula:seqnum ?seq .
}`)

	assert.Equal(t, ResourceClass{IRI: testutil.Incunabula + "book", IsResource: true}, typeOf(t, res, v("book")))
	assert.Equal(t, ResourceClass{IRI: vocab.TextValue, Kind: vocab.KindText}, typeOf(t, res, v("title")))
	// The subject of partOf takes the property's domain.
	assert.Equal(t, ResourceClass{IRI: testutil.Incunabula + "page", IsResource: true}, typeOf(t, res, v("page")))
	assert.Equal(t, vocab.KindInteger, res.ValueKind(v("seq")))

	partOf := typeOf(t, res, sparql.NewIRI(testutil.Incunabula+"partOf"))
	assert.Equal(t, PropertyType{IRI: testutil.Incunabula + "partOf", ObjectType: testutil.Incunabula + "book", IsLink: true}, partOf)

	title := typeOf(t, res, sparql.NewIRI(testutil.Incunabula+"title")).(PropertyType)
	assert.False(t, title.IsLink)
}

func TestInspect_ComplexAccessorYieldsLiteral(t *testing.T) {
	res := mustInspect(t, complexPrefixes+`
CONSTRUCT { ?page knora-api:isMainResource true . } WHERE {
    ?page incunabula:seqnum ?seqnum .
    ?seqnum knora-api:intValueAsInt ?n .
    FILTER(?n > 2)
}`)

	assert.Equal(t, LiteralType{Datatype: vocab.XSDInteger}, typeOf(t, res, v("n")))
	assert.Equal(t, vocab.KindInteger, res.ValueKind(v("seqnum")))
	assert.True(t, res.IsResource(v("page")))
}

func TestInspect_LinkValueTarget(t *testing.T) {
	res := mustInspect(t, complexPrefixes+`
CONSTRUCT { ?page knora-api:isMainResource true . } WHERE {
    ?page incunabula:partOfValue ?lv .
    ?lv knora-api:linkValueHasTargetIri ?target .
}`)

	assert.Equal(t, vocab.KindLink, res.ValueKind(v("lv")))
	assert.True(t, res.IsResource(v("target")))
}

func TestInspect_DatatypeAssertion(t *testing.T) {
	res := mustInspect(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book knora-api:hasValue ?d .
    ?d a knora-api:Date .
    ?book knora-api:hasValue ?s .
    ?s a xsd:string .
}`)

	// First assignment wins: ?d is typed by hasValue's range before the
	// datatype assertion is read.
	assert.Equal(t, ResourceClass{IRI: vocab.Value, Kind: vocab.KindOther}, typeOf(t, res, v("d")))

	res = mustInspect(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?d a knora-api:Date .
    ?book incunabula:pubdate ?d .
    ?x a xsd:string .
    ?book ?p ?x .
    FILTER(?p = incunabula:title)
}`)
	assert.Equal(t, ResourceClass{IRI: vocab.DateValue, Kind: vocab.KindDate}, typeOf(t, res, v("d")))
	assert.Equal(t, LiteralType{Datatype: vocab.XSDString}, typeOf(t, res, v("x")))
}

// =============================================================================
// Filter Rules
// =============================================================================

func TestInspect_VariablePredicatePinnedByFilter(t *testing.T) {
	res := mustInspect(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book ?prop ?value .
    FILTER(incunabula:publisher = ?prop)
}`)

	prop := typeOf(t, res, v("prop")).(PropertyType)
	assert.Equal(t, testutil.Incunabula+"publisher", prop.IRI)
	assert.Equal(t, vocab.KindText, res.ValueKind(v("value")))
	assert.True(t, res.IsResource(v("book")))
}

func TestInspect_ComparisonWithLiteral(t *testing.T) {
	res := mustInspect(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book a incunabula:book .
    OPTIONAL { ?book knora-api:hasValue ?v . }
    FILTER(?when = "GREGORIAN:1497"^^knora-api:Date || ?label = "x" || ?other = <http://rdfh.ch/0803/x>)
    ?book ?p1 ?when .
    ?book ?p2 ?label .
    ?book ?p3 ?other .
    FILTER(?p1 = incunabula:pubdate && ?p2 = incunabula:title && ?p3 = incunabula:seeAlso)
}`)

	// Ranges beat literal comparisons even though the FILTER comes first.
	assert.Equal(t, vocab.KindDate, res.ValueKind(v("when")))
	assert.Equal(t, vocab.KindText, res.ValueKind(v("label")))
	assert.True(t, res.IsResource(v("other")))
}

func TestInspect_WeakRuleForUnboundVariables(t *testing.T) {
	query := sparql.ConstructQuery{
		Template: []sparql.StatementPattern{sparql.NewStatement(v("r"), sparql.NewIRI(vocab.IsMainResource), sparql.BooleanLiteral(true))},
		Where: []sparql.Pattern{
			sparql.FilterPattern{Expression: sparql.CompareExpression{Left: v("d"), Operator: sparql.OpEqual, Right: sparql.Literal{Value: "GREGORIAN:1497", Datatype: vocab.DateDatatype}}},
			sparql.FilterPattern{Expression: sparql.CompareExpression{Left: sparql.IntegerLiteral("3"), Operator: sparql.OpLess, Right: v("n")}},
			sparql.FilterPattern{Expression: sparql.CompareExpression{Left: v("i"), Operator: sparql.OpNotEqual, Right: sparql.NewIRI("http://rdfh.ch/x")}},
		},
	}

	res, err := New(testutil.IncunabulaCache()).Inspect(&query, v("r"))
	require.NoError(t, err)

	assert.Equal(t, vocab.KindDate, res.ValueKind(v("d")))
	assert.Equal(t, LiteralType{Datatype: vocab.XSDInteger}, typeOf(t, res, v("n")))
	assert.True(t, res.IsResource(v("i")))
	// The main resource defaults to knora-base:Resource.
	assert.Equal(t, ResourceClass{IRI: vocab.Resource, IsResource: true}, typeOf(t, res, v("r")))
}

// =============================================================================
// Errors and Determinism
// =============================================================================

func TestInspect_UntypedEntityNamed(t *testing.T) {
	_, err := inspect(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book ?p ?x .
    ?book ?q ?y .
}`)
	require.Error(t, err)
	assert.True(t, queryerr.IsBadRequest(err))

	var qe *queryerr.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "?p", qe.Entity)
}

func TestInspect_UnknownPropertyIsUntyped(t *testing.T) {
	_, err := inspect(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book incunabula:doesNotExist ?x .
}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doesNotExist")
}

func TestInspect_Deterministic(t *testing.T) {
	query := simplePrefixes + `
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book a incunabula:book ; incunabula:title ?t ; incunabula:pubdate ?d .
    ?page incunabula:partOf ?book .
    { ?book incunabula:publisher ?x . } UNION { ?book incunabula:origin ?x . }
}`
	first := mustInspect(t, query)
	for i := 0; i < 20; i++ {
		again := mustInspect(t, query)
		assert.Equal(t, first.Entities(), again.Entities())
		for _, e := range first.Entities() {
			a, _ := first.TypeOf(e)
			b, _ := again.TypeOf(e)
			assert.Equal(t, a, b)
		}
	}

	entities := first.Entities()
	require.NotEmpty(t, entities)
	assert.Equal(t, v("book"), entities[0])
}
