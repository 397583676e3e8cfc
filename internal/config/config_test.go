package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 25, cfg.Search.PageSize)
	assert.Equal(t, 30*time.Second, cfg.Triplestore.Timeout)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "gravsearch.yaml", `
triplestore:
  url: http://fuseki:3030/knora/query
  user: admin
  password: secret
  timeout: 5s
search:
  page_size: 10
store:
  path: /var/lib/gravsearch.db
ontology:
  dir: ./ontologies
log:
  level: debug
`)

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "http://fuseki:3030/knora/query", cfg.Triplestore.URL)
	assert.Equal(t, "admin", cfg.Triplestore.User)
	assert.Equal(t, "secret", cfg.Triplestore.Password)
	assert.Equal(t, 5*time.Second, cfg.Triplestore.Timeout)
	assert.Equal(t, 10, cfg.Search.PageSize)
	assert.Equal(t, "/var/lib/gravsearch.db", cfg.Store.Path)
	assert.Equal(t, "./ontologies", cfg.Ontology.Dir)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_PartialYAMLKeepsDefaults(t *testing.T) {
	path := writeFile(t, "gravsearch.yaml", "search:\n  page_size: 50\n")

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Search.PageSize)
	assert.Equal(t, Default().Triplestore, cfg.Triplestore)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "gravsearch.yaml", "search:\n  page_size: 50\n")
	t.Setenv("GRAVSEARCH_PAGE_SIZE", "7")
	t.Setenv("GRAVSEARCH_TRIPLESTORE_TIMEOUT", "250ms")
	t.Setenv("GRAVSEARCH_STORE_PATH", "env.db")

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.PageSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Triplestore.Timeout)
	assert.Equal(t, "env.db", cfg.Store.Path)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "GRAVSEARCH_TRIPLESTORE_USER=dotenv\nGRAVSEARCH_LOG_LEVEL=warn\n")
	t.Setenv("GRAVSEARCH_LOG_LEVEL", "error")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "dotenv", cfg.Triplestore.User)
	assert.Equal(t, "error", cfg.Log.Level, "process environment wins over the env file")

	_, set := os.LookupEnv("GRAVSEARCH_TRIPLESTORE_USER")
	assert.False(t, set, "env file must not leak into the process environment")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "zero page size", yaml: "search:\n  page_size: 0\n"},
		{name: "negative timeout", yaml: "triplestore:\n  timeout: -1s\n"},
		{name: "bad log level", yaml: "log:\n  level: loud\n"},
		{name: "malformed yaml", yaml: "search: [\n"},
		{name: "bad env page size", env: map[string]string{"GRAVSEARCH_PAGE_SIZE": "ten"}},
		{name: "bad env timeout", env: map[string]string{"GRAVSEARCH_TRIPLESTORE_TIMEOUT": "soon"}},
		{name: "env page size zero", env: map[string]string{"GRAVSEARCH_PAGE_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, "gravsearch.yaml", tt.yaml)
			}
			_, err := Load(path, noEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnvFile(t))
	assert.Error(t, err)
}
