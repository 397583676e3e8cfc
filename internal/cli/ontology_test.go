package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var incunabulaDir = filepath.Join("..", "ontology", "testdata", "incunabula")

func TestOntology_ImportAndList(t *testing.T) {
	env := newTestEnv(t, nil, false)

	out, _, err := env.run("ontology", "import", incunabulaDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 ontology from")
	assert.Contains(t, out, "http://www.knora.org/ontology/0803/incunabula")

	out, _, err = env.run("--format", "json", "ontology", "list")
	require.NoError(t, err)

	var resp struct {
		Data []OntologySummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "http://www.knora.org/ontology/0803/incunabula", resp.Data[0].IRI)
	assert.Positive(t, resp.Data[0].Classes)
	assert.Positive(t, resp.Data[0].Properties)
}

func TestOntology_ReimportReplaces(t *testing.T) {
	env := newTestEnv(t, nil, false)

	_, _, err := env.run("ontology", "import", incunabulaDir)
	require.NoError(t, err)
	_, _, err = env.run("ontology", "import", incunabulaDir)
	require.NoError(t, err)

	out, _, err := env.run("--format", "json", "ontology", "list")
	require.NoError(t, err)
	var resp struct {
		Data []OntologySummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Data, 1)
}

func TestOntology_ImportedOntologyServesQueries(t *testing.T) {
	env := newTestEnv(t, twoBooks(), false)

	_, _, err := env.run("ontology", "import", incunabulaDir)
	require.NoError(t, err)

	out, _, err := env.run("compile", env.query(t, booksByTitle))
	require.NoError(t, err)
	assert.Contains(t, out, "# prequery")
}

func TestOntology_ListEmpty(t *testing.T) {
	env := newTestEnv(t, nil, false)

	out, _, err := env.run("ontology", "list")
	require.NoError(t, err)
	assert.Equal(t, "No ontologies imported.\n", out)
}

func TestOntology_ImportErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		env := newTestEnv(t, nil, false)

		out, _, err := env.run("ontology", "import", "/nonexistent/ontologies")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E005]")
	})

	t.Run("invalid CUE", func(t *testing.T) {
		env := newTestEnv(t, nil, false)
		dir := filepath.Join(env.dir, "broken")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.cue"),
			[]byte("package broken\n\nontology: x: {iri: 42}\n"), 0o644))

		out, _, err := env.run("ontology", "import", dir)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E004]")

		out, _, err = env.run("ontology", "list")
		require.NoError(t, err)
		assert.Equal(t, "No ontologies imported.\n", out, "failed import writes nothing")
	})
}
