package rewrite

import (
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gravsearch/internal/datecal"
	"github.com/roach88/gravsearch/internal/parser"
	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/testutil"
	"github.com/roach88/gravsearch/internal/typeinspect"
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

	booksAfter2012 = simplePrefixes + `
CONSTRUCT {
    ?book knora-api:isMainResource true .
    ?book incunabula:pubdate ?date .
} WHERE {
    ?book a incunabula:book .
    ?book incunabula:pubdate ?date .
    FILTER(?date > "GREGORIAN:2012-01-01"^^knora-api:Date)
}
ORDER BY DESC(?date)
OFFSET 2
`
)

type compiled struct {
	query *sparql.ConstructQuery
	types *typeinspect.Result
}

func compile(t *testing.T, text string) compiled {
	t.Helper()
	parsed, err := parser.Parse(text)
	require.NoError(t, err)
	types, err := typeinspect.New(testutil.IncunabulaCache()).Inspect(parsed.Query, parsed.MainResource)
	require.NoError(t, err)
	return compiled{query: parsed.Query, types: types}
}

func prequery(t *testing.T, text string, mode Mode) *sparql.SelectQuery {
	t.Helper()
	c := compile(t, text)
	sel, err := ToSelectPrequery(c.query, c.types, mode, Options{})
	require.NoError(t, err)
	return sel
}

func render(t *testing.T, q sparql.Query) string {
	t.Helper()
	text, err := sparql.Render(q)
	require.NoError(t, err)
	return text
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func assertCode(t *testing.T, err error, code queryerr.Code) {
	t.Helper()
	require.Error(t, err)
	got, ok := queryerr.CodeOf(err)
	require.True(t, ok, "expected *queryerr.Error, got %T: %v", err, err)
	assert.Equal(t, code, got, err.Error())
}

// =============================================================================
// Date Rewrite
// =============================================================================

func TestToSelectPrequery_DatePageGolden(t *testing.T) {
	sel := prequery(t, booksAfter2012, ModePage)
	text := render(t, sel)

	assert.Contains(t, text, `FILTER(?date__valueHasStartJDN > "2455928"^^xsd:integer)`)
	assert.Contains(t, text, "ORDER BY DESC(?date__valueHasStartJDN) ASC(?book)")
	assert.Contains(t, text, "LIMIT 25\nOFFSET 50\n")

	golden(t).Assert(t, "date_page", []byte(text))
}

func TestToSelectPrequery_DateCountGolden(t *testing.T) {
	sel := prequery(t, booksAfter2012, ModeCount)

	assert.Empty(t, sel.GroupBy)
	assert.Empty(t, sel.OrderBy)
	assert.Zero(t, sel.Limit)
	assert.Zero(t, sel.Offset)

	golden(t).Assert(t, "date_count", []byte(render(t, sel)))
}

func TestToSelectPrequery_CountAndPageShareWhere(t *testing.T) {
	queries := map[string]string{
		"date":  booksAfter2012,
		"pages": complexPrefixes + `
CONSTRUCT { ?page knora-api:isMainResource true . } WHERE {
    ?page a incunabula:page .
    ?page incunabula:partOf ?book .
    OPTIONAL { ?book incunabula:title ?title . FILTER(regex(?title, "Zeit", "i")) }
    ?page incunabula:seqnum ?seqnum .
    ?seqnum knora-api:intValueAsInt ?n .
    FILTER(?n <= 10)
}
ORDER BY ?n`,
	}

	for name, text := range queries {
		t.Run(name, func(t *testing.T) {
			page := prequery(t, text, ModePage)
			count := prequery(t, text, ModeCount)
			assert.Equal(t, page.Where, count.Where)
		})
	}
}

func TestCompareDate_Operators(t *testing.T) {
	d, err := datecal.Parse("GREGORIAN:1497")
	require.NoError(t, err)
	require.Less(t, d.StartJDN, d.EndJDN)

	ls := sparql.IntegerLiteral(strconv.Itoa(d.StartJDN))
	le := sparql.IntegerLiteral(strconv.Itoa(d.EndJDN))
	start := sparql.NewVariable("d__valueHasStartJDN")
	end := sparql.NewVariable("d__valueHasEndJDN")
	cmp := func(l sparql.Variable, op sparql.CompareOperator, r sparql.Literal) sparql.Expression {
		return sparql.CompareExpression{Left: l, Operator: op, Right: r}
	}

	tests := []struct {
		op   sparql.CompareOperator
		want sparql.Expression
	}{
		{sparql.OpEqual, sparql.AndExpression{Left: cmp(start, sparql.OpLessEqual, le), Right: cmp(end, sparql.OpGreaterEqual, ls)}},
		{sparql.OpNotEqual, sparql.OrExpression{Left: cmp(start, sparql.OpGreater, le), Right: cmp(end, sparql.OpLess, ls)}},
		{sparql.OpLess, cmp(end, sparql.OpLess, ls)},
		{sparql.OpLessEqual, cmp(start, sparql.OpLessEqual, le)},
		{sparql.OpGreater, cmp(start, sparql.OpGreater, le)},
		{sparql.OpGreaterEqual, cmp(end, sparql.OpGreaterEqual, ls)},
	}

	lit := sparql.Literal{Value: "GREGORIAN:1497", Datatype: vocab.DateDatatype}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			rw := newRewriter(nil)
			got, err := rw.compareDate(sparql.NewVariable("d"), tt.op, lit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareDate_RejectsOtherLiterals(t *testing.T) {
	rw := newRewriter(nil)

	_, err := rw.compareDate(sparql.NewVariable("d"), sparql.OpEqual, sparql.StringLiteral("1497"))
	assertCode(t, err, queryerr.CodeBadRequest)

	_, err = rw.compareDate(sparql.NewVariable("d"), sparql.OpEqual, sparql.Literal{Value: "MAYAN:1497", Datatype: vocab.DateDatatype})
	assertCode(t, err, queryerr.CodeBadRequest)
}

// =============================================================================
// Value Comparisons
// =============================================================================

func TestToSelectPrequery_ValueFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{
			name:   "text equality",
			filter: `?title = "Narrenschiff"`,
			want:   []string{"?title knora-base:valueHasString ?title__valueHasString .", `FILTER(?title__valueHasString = "Narrenschiff")`},
		},
		{
			name:   "text regex",
			filter: `regex(?title, "Zeit", "i")`,
			want:   []string{`FILTER(regex(?title__valueHasString, "Zeit", "i"))`},
		},
		{
			name:   "literal on the left",
			filter: `"GREGORIAN:1497"^^knora-api:Date <= ?date`,
			want:   []string{"?date knora-base:valueHasEndJDN ?date__valueHasEndJDN ."},
		},
		{
			name:   "decimal",
			filter: `?price >= 10.5`,
			want:   []string{`FILTER(?price__valueHasDecimal >= "10.5"^^xsd:decimal)`},
		},
		{
			name:   "boolean",
			filter: `?printed = true`,
			want:   []string{"FILTER(?printed__valueHasBoolean = true)"},
		},
		{
			name:   "list node",
			filter: `?genre = <http://rdfh.ch/lists/0803/novel>`,
			want:   []string{"FILTER(?genre__valueHasListNode = <http://rdfh.ch/lists/0803/novel>)"},
		},
		{
			name:   "uri",
			filter: `?url = "http://example.org/book"^^xsd:anyURI`,
			want:   []string{`FILTER(?url__valueHasUri = "http://example.org/book"^^xsd:anyURI)`},
		},
		{
			name:   "linked resource",
			filter: `?other != <http://rdfh.ch/0803/b1>`,
			want:   []string{"FILTER(?other != <http://rdfh.ch/0803/b1>)"},
		},
		{
			name:   "two dates",
			filter: `?date < ?otherDate`,
			want:   []string{"FILTER(?date__valueHasStartJDN < ?otherDate__valueHasStartJDN)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := render(t, prequery(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book a incunabula:book .
    ?book incunabula:title ?title .
    ?book incunabula:pubdate ?date .
    ?book incunabula:price ?price .
    ?book incunabula:printed ?printed .
    ?book incunabula:genre ?genre .
    ?book incunabula:url ?url .
    ?book incunabula:seeAlso ?other .
    ?other incunabula:pubdate ?otherDate .
    FILTER(`+tt.filter+`)
}`, ModePage))
			for _, w := range tt.want {
				assert.Contains(t, text, w)
			}
		})
	}
}

func TestToSelectPrequery_UnsupportedFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter string
	}{
		{"text ordering", `?title > "a"`},
		{"boolean ordering", `?printed < true`},
		{"regex on integer", `regex(?seq, "1")`},
		{"resource ordering", `?book > <http://rdfh.ch/0803/b1>`},
		{"text against integer", `?title = 3`},
		{"date against string", `?date = "1497"`},
		{"link value", `?lv = <http://rdfh.ch/0803/x>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compile(t, complexPrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book a incunabula:book .
    ?book incunabula:title ?title .
    ?book incunabula:pubdate ?date .
    ?book incunabula:printed ?printed .
    ?book incunabula:seeAlsoValue ?lv .
    ?page incunabula:partOf ?book .
    ?page incunabula:seqnum ?seq .
    FILTER(`+tt.filter+`)
}`)
			_, err := ToSelectPrequery(c.query, c.types, ModePage, Options{})
			assertCode(t, err, queryerr.CodeBadRequest)
		})
	}
}

// =============================================================================
// Guards and Link Values
// =============================================================================

func TestToSelectPrequery_LinkValueInjection(t *testing.T) {
	text := render(t, prequery(t, simplePrefixes+`
CONSTRUCT { ?page knora-api:isMainResource true . } WHERE {
    ?page a incunabula:page .
    ?page incunabula:partOf ?book .
}`, ModePage))

	lv := "?page__partOf__book__LinkValue"
	assert.Contains(t, text, "?page <http://www.knora.org/ontology/0803/incunabula#partOfValue> "+lv+" .")
	assert.Contains(t, text, lv+" rdf:type knora-base:LinkValue .")
	assert.Contains(t, text, lv+" rdf:object ?book .")
	assert.Contains(t, text, lv+" knora-base:isDeleted false .")
	assert.Contains(t, text, "?book knora-base:isDeleted false .")
}

func TestToSelectPrequery_LinkToIRI(t *testing.T) {
	text := render(t, prequery(t, simplePrefixes+`
CONSTRUCT { ?page knora-api:isMainResource true . } WHERE {
    ?page incunabula:partOf <http://rdfh.ch/0803/b6b5ff1eb703> .
}`, ModePage))

	assert.Contains(t, text, "?page__partOf__http___rdfh_ch_0803_b6b5ff1eb703__LinkValue rdf:object <http://rdfh.ch/0803/b6b5ff1eb703> .")
	assert.Contains(t, text, "<http://rdfh.ch/0803/b6b5ff1eb703> knora-base:isDeleted false .")
}

func TestToSelectPrequery_GuardsOncePerScope(t *testing.T) {
	sel := prequery(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book a incunabula:book .
    ?book incunabula:title ?title .
    { ?book incunabula:publisher ?p . } UNION { ?book incunabula:title ?p . }
    OPTIONAL { ?page incunabula:partOf ?book . ?page incunabula:seqnum ?seq . }
}`, ModePage)
	text := render(t, sel)

	// ?book is guarded at top level; the nested groups reuse that guard.
	assert.Equal(t, 1, strings.Count(text, "?book knora-base:isDeleted false ."))
	// ?p is guarded in each union block, ?page once inside the OPTIONAL.
	assert.Equal(t, 2, strings.Count(text, "?p knora-base:isDeleted false ."))
	assert.Equal(t, 1, strings.Count(text, "?page knora-base:isDeleted false ."))
	assert.NotContains(t, text, "isMainResource")

	for _, pat := range sel.Where {
		if st, ok := pat.(sparql.StatementPattern); ok {
			assert.False(t, st.IncludeInOutput)
		}
	}
}

func TestToSelectPrequery_DropsDatatypeAssertions(t *testing.T) {
	text := render(t, prequery(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE {
    ?book a incunabula:book .
    ?book incunabula:pubdate ?date .
    ?date a knora-api:Date .
}`, ModePage))

	assert.NotContains(t, text, "knora-base:Date")
	assert.Contains(t, text, "?book rdf:type <http://www.knora.org/ontology/0803/incunabula#book> .")
}

// =============================================================================
// Sorting and Paging
// =============================================================================

func TestToSelectPrequery_SortKeys(t *testing.T) {
	sel := prequery(t, complexPrefixes+`
CONSTRUCT { ?page knora-api:isMainResource true . } WHERE {
    ?page incunabula:seqnum ?seqnum .
    ?seqnum knora-api:intValueAsInt ?n .
    ?page incunabula:pagenum ?num .
}
ORDER BY ?n DESC(?num) ?n
OFFSET 3`, ModePage)

	n := sparql.NewVariable("n")
	num := sparql.NewVariable("num__valueHasString")
	page := sparql.NewVariable("page")

	assert.Equal(t, []sparql.Projection{page, n, num}, sel.Variables)
	assert.Equal(t, []sparql.Variable{page, n, num}, sel.GroupBy)
	assert.Equal(t, []sparql.OrderCriterion{
		{Variable: n, Ascending: true},
		{Variable: num, Ascending: false},
		{Variable: page, Ascending: true},
	}, sel.OrderBy)
	assert.True(t, sel.Distinct)
	assert.Equal(t, 75, sel.Offset)
}

func TestToSelectPrequery_PageSizeOption(t *testing.T) {
	c := compile(t, booksAfter2012)
	sel, err := ToSelectPrequery(c.query, c.types, ModePage, Options{PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, sel.Limit)
	assert.Equal(t, 20, sel.Offset)
}

func TestToSelectPrequery_UnsortableKeys(t *testing.T) {
	tests := []struct {
		name  string
		where string
		order string
	}{
		{"resource", "?book a incunabula:book .", "?book"},
		{"list value", "?book incunabula:genre ?genre .", "?genre"},
		{"link target", "?book incunabula:seeAlso ?other .", "?other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compile(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE { `+tt.where+` }
ORDER BY `+tt.order)
			_, err := ToSelectPrequery(c.query, c.types, ModePage, Options{})
			assertCode(t, err, queryerr.CodeBadRequest)
			assert.Contains(t, err.Error(), "cannot sort by")
		})
	}
}

// =============================================================================
// Internal Inconsistencies
// =============================================================================

func TestToSelectPrequery_UntypedEntityIsInternal(t *testing.T) {
	c := compile(t, simplePrefixes+`
CONSTRUCT { ?book knora-api:isMainResource true . } WHERE { ?book a incunabula:book . }`)

	// Types inferred for a different query do not cover the extra statement.
	c.query.Where = append(c.query.Where,
		sparql.NewStatement(sparql.NewVariable("book"), sparql.NewVariable("p"), sparql.NewVariable("x")))

	_, err := ToSelectPrequery(c.query, c.types, ModePage, Options{})
	assertCode(t, err, queryerr.CodeInternal)
}

func TestToSelectPrequery_MissingMainResource(t *testing.T) {
	c := compile(t, booksAfter2012)
	c.query.Template = nil

	_, err := ToSelectPrequery(c.query, c.types, ModeCount, Options{})
	assertCode(t, err, queryerr.CodeInternal)
}

func TestToSelectPrequery_Deterministic(t *testing.T) {
	first := render(t, prequery(t, booksAfter2012, ModePage))
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, render(t, prequery(t, booksAfter2012, ModePage)))
	}
}

// =============================================================================
// Fetch Query
// =============================================================================

func TestFetchQuery_Golden(t *testing.T) {
	q := FetchQuery([]string{"http://rdfh.ch/0803/b1", "http://rdfh.ch/0803/b2"})
	golden(t).Assert(t, "fetch", []byte(render(t, q)))
}

func TestFetchQuery_MarksMainResources(t *testing.T) {
	q := FetchQuery([]string{"http://rdfh.ch/0803/b1"})

	main, ok := q.MainVariable()
	require.True(t, ok)
	assert.Equal(t, MainResourceVariable, main)

	values, ok := q.Where[0].(sparql.ValuesPattern)
	require.True(t, ok)
	assert.Equal(t, []sparql.IRI{sparql.NewIRI("http://rdfh.ch/0803/b1")}, values.Values)
}

