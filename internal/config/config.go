// Package config loads gravsearch settings.
//
// Settings are resolved in order: built-in defaults, the YAML file, an
// optional .env file, then GRAVSEARCH_* environment variables. Command-line
// flags are applied last by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GRAVSEARCH_"

// Config is the resolved configuration.
type Config struct {
	Triplestore TriplestoreConfig `yaml:"triplestore"`
	Search      SearchConfig      `yaml:"search"`
	Store       StoreConfig       `yaml:"store"`
	Ontology    OntologyConfig    `yaml:"ontology"`
	Log         LogConfig         `yaml:"log"`
}

// TriplestoreConfig locates the SPARQL endpoint.
type TriplestoreConfig struct {
	URL      string        `yaml:"url"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

type SearchConfig struct {
	PageSize int `yaml:"page_size"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// OntologyConfig names a directory of CUE ontology files. When empty the
// ontologies imported into the store are used.
type OntologyConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Triplestore: TriplestoreConfig{
			URL:     "http://localhost:3030/knora-test/query",
			Timeout: 30 * time.Second,
		},
		Search: SearchConfig{PageSize: 25},
		Store:  StoreConfig{Path: "gravsearch.db"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load resolves the configuration. path may be empty to skip the YAML
// file. envFiles default to ".env"; missing env files are ignored.
// Variables already present in the process environment win over env files.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	dotenv := map[string]string{}
	for _, f := range envFiles {
		vars, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", f, err)
		}
		for k, v := range vars {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TRIPLESTORE_URL":      &c.Triplestore.URL,
		"TRIPLESTORE_USER":     &c.Triplestore.User,
		"TRIPLESTORE_PASSWORD": &c.Triplestore.Password,
		"STORE_PATH":           &c.Store.Path,
		"ONTOLOGY_DIR":         &c.Ontology.Dir,
		"LOG_LEVEL":            &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("TRIPLESTORE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTRIPLESTORE_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Triplestore.Timeout = d
	}
	if v, ok := lookup("PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPAGE_SIZE: %w", EnvPrefix, err)
		}
		c.Search.PageSize = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search.page_size must be positive, got %d", c.Search.PageSize)
	}
	if c.Triplestore.Timeout <= 0 {
		return fmt.Errorf("triplestore.timeout must be positive, got %s", c.Triplestore.Timeout)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level: unknown level %q", c.Log.Level)
}
