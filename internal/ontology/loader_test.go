package ontology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gravsearch/internal/vocab"
)

const incunabula = "http://www.knora.org/ontology/0803/incunabula"

// =============================================================================
// LoadDir
// =============================================================================

func TestLoadDir_Incunabula(t *testing.T) {
	defs, err := LoadDir("testdata/incunabula")
	require.NoError(t, err)
	require.Len(t, defs, 1)

	d := defs[0]
	assert.Equal(t, incunabula, d.IRI)
	require.Len(t, d.Classes, 2)
	assert.Equal(t, incunabula+"#book", d.Classes[0].IRI)
	assert.Equal(t, []string{vocab.Resource}, d.Classes[0].SubClassOf)

	c, err := NewCache(defs...)
	require.NoError(t, err)

	title, ok := c.Property(incunabula + "#title")
	require.True(t, ok)
	assert.Equal(t, incunabula+"#book", title.Domain)
	assert.Equal(t, vocab.TextValue, title.Range)

	partOfValue, ok := c.Property(incunabula + "#partOfValue")
	require.True(t, ok)
	assert.Equal(t, vocab.LinkValue, partOfValue.Range)
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, err := LoadDir("testdata/does-not-exist")
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Message, "not accessible")
}

func TestLoadDir_NoCUEFiles(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}

// =============================================================================
// LoadSource
// =============================================================================

func TestLoadSource_ResolvesNames(t *testing.T) {
	src := `
ontology: anything: {
	iri: "http://www.knora.org/ontology/0001/anything"
	classes: Thing: subClassOf: ["knora-base:Resource"]
	properties: hasOtherThing: {
		domain:        "Thing"
		range:         "http://www.knora.org/ontology/0001/anything#Thing"
		subPropertyOf: ["knora-base:hasLinkTo"]
	}
}
`
	defs, err := LoadSource("anything.cue", src)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	p := defs[0].Properties[0]
	assert.Equal(t, "http://www.knora.org/ontology/0001/anything#hasOtherThing", p.IRI)
	assert.Equal(t, "http://www.knora.org/ontology/0001/anything#Thing", p.Domain)
	assert.Equal(t, []string{vocab.HasLinkTo}, p.SubPropertyOf)
}

func TestLoadSource_SortsOntologies(t *testing.T) {
	src := `
ontology: zeta: iri: "http://www.knora.org/ontology/0002/zeta"
ontology: alpha: iri: "http://www.knora.org/ontology/0001/alpha"
`
	defs, err := LoadSource("multi.cue", src)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "http://www.knora.org/ontology/0001/alpha", defs[0].IRI)
	assert.Equal(t, "http://www.knora.org/ontology/0002/zeta", defs[1].IRI)
}

func TestLoadSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax error", "ontology: {", ""},
		{"no ontology", "foo: 1", "no ontology declared"},
		{"missing iri", `ontology: x: classes: {}`, "iri is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSource("bad.cue", tt.src)
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			if tt.want != "" {
				assert.Contains(t, le.Message, tt.want)
			}
		})
	}
}

func TestLoadSource_SyntaxErrorHasPosition(t *testing.T) {
	_, err := LoadSource("bad.cue", "ontology: {\n  x: \n")
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.True(t, le.Pos.IsValid())
	assert.Contains(t, err.Error(), "bad.cue")
}
