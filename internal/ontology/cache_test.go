package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gravsearch/internal/vocab"
)

const testOntology = "http://www.knora.org/ontology/0001/test"

func testDefinitions() Definitions {
	return Definitions{
		IRI: testOntology,
		Classes: []ClassInfo{
			{IRI: testOntology + "#thing", SubClassOf: []string{vocab.Resource}},
			{IRI: testOntology + "#special", SubClassOf: []string{testOntology + "#thing"}},
			{IRI: testOntology + "#note", SubClassOf: []string{vocab.TextValue}},
			{IRI: testOntology + "#custom", SubClassOf: []string{vocab.Value}},
		},
		Properties: []PropertyInfo{
			{IRI: testOntology + "#name", Domain: testOntology + "#thing", Range: vocab.TextValue, SubPropertyOf: []string{vocab.HasValue}},
			{IRI: testOntology + "#friend", Domain: testOntology + "#thing", Range: testOntology + "#thing", SubPropertyOf: []string{vocab.HasLinkTo}},
			{IRI: testOntology + "#bestFriend", Domain: testOntology + "#thing", Range: testOntology + "#thing", SubPropertyOf: []string{testOntology + "#friend"}},
		},
	}
}

// =============================================================================
// Construction
// =============================================================================

func TestNewCache_IncludesKnoraBase(t *testing.T) {
	c, err := NewCache()
	require.NoError(t, err)

	_, ok := c.Class(vocab.Resource)
	assert.True(t, ok)
	p, ok := c.Property(vocab.ValueHasStartJDN)
	require.True(t, ok)
	assert.Equal(t, vocab.DateValue, p.Domain)
	assert.Equal(t, []string{"http://www.knora.org/ontology/knora-base"}, c.Ontologies())
}

func TestNewCache_DerivesLinkValueProperties(t *testing.T) {
	c := MustNewCache(testDefinitions())

	for _, link := range []string{"#friend", "#bestFriend"} {
		p, ok := c.Property(testOntology + link + "Value")
		require.True(t, ok, link)
		assert.Equal(t, vocab.LinkValue, p.Range)
		assert.Equal(t, testOntology+"#thing", p.Domain)
		assert.True(t, c.IsSubPropertyOf(p.IRI, vocab.HasLinkToValue))
	}

	_, ok := c.Property(testOntology + "#nameValue")
	assert.False(t, ok, "value properties get no link value companion")
}

func TestNewCache_RejectsDuplicates(t *testing.T) {
	_, err := NewCache(testDefinitions(), testDefinitions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined twice")
}

func TestMustNewCache_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewCache(Definitions{IRI: "x", Classes: []ClassInfo{{IRI: vocab.Resource}}})
	})
}

// =============================================================================
// Hierarchy
// =============================================================================

func TestCache_IsSubClassOf(t *testing.T) {
	c := MustNewCache(testDefinitions())

	tests := []struct {
		class, ancestor string
		want            bool
	}{
		{testOntology + "#special", testOntology + "#thing", true},
		{testOntology + "#special", vocab.Resource, true},
		{testOntology + "#thing", testOntology + "#thing", true},
		{testOntology + "#thing", testOntology + "#special", false},
		{testOntology + "#note", vocab.Value, true},
		{testOntology + "#note", vocab.Resource, false},
		{"http://example.org/unknown", vocab.Resource, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsSubClassOf(tt.class, tt.ancestor), "%s ⊑ %s", tt.class, tt.ancestor)
	}
}

func TestCache_CyclicHierarchyTerminates(t *testing.T) {
	c := MustNewCache(Definitions{
		IRI: testOntology,
		Classes: []ClassInfo{
			{IRI: testOntology + "#a", SubClassOf: []string{testOntology + "#b"}},
			{IRI: testOntology + "#b", SubClassOf: []string{testOntology + "#a"}},
		},
	})
	assert.True(t, c.IsSubClassOf(testOntology+"#a", testOntology+"#b"))
	assert.False(t, c.IsSubClassOf(testOntology+"#a", vocab.Resource))
}

func TestValueKindOf(t *testing.T) {
	c := MustNewCache(testDefinitions())

	tests := []struct {
		class string
		want  vocab.ValueKind
	}{
		{vocab.TextValue, vocab.KindText},
		{testOntology + "#note", vocab.KindText},
		{vocab.IntValue, vocab.KindInteger},
		{vocab.DateValue, vocab.KindDate},
		{vocab.LinkValue, vocab.KindLink},
		{vocab.ListValue, vocab.KindList},
		{testOntology + "#custom", vocab.KindOther},
		{vocab.ColorValue, vocab.KindOther},
		{testOntology + "#thing", vocab.KindNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValueKindOf(c, tt.class), tt.class)
	}
	assert.True(t, IsResourceClass(c, testOntology+"#special"))
	assert.False(t, IsResourceClass(c, vocab.TextValue))
}

func TestResolveName(t *testing.T) {
	assert.Equal(t, testOntology+"#book", ResolveName(testOntology, "book"))
	assert.Equal(t, vocab.TextValue, ResolveName(testOntology, "knora-base:TextValue"))
	assert.Equal(t, "http://example.org/x", ResolveName(testOntology, "http://example.org/x"))
}
