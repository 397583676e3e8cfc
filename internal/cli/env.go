package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/gravsearch/internal/config"
	"github.com/roach88/gravsearch/internal/engine"
	"github.com/roach88/gravsearch/internal/metrics"
	"github.com/roach88/gravsearch/internal/ontology"
	"github.com/roach88/gravsearch/internal/store"
	"github.com/roach88/gravsearch/internal/triplestore"
)

// openStore opens the metadata store named in cfg.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening metadata store", err)
	}
	return st, nil
}

// loadOntology builds the ontology cache. A configured ontology directory
// is read directly; otherwise the ontologies imported into st are used.
func loadOntology(ctx context.Context, cfg *config.Config, st *store.Store) (*ontology.Cache, error) {
	if cfg.Ontology.Dir != "" {
		defs, err := ontology.LoadDir(cfg.Ontology.Dir)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "loading ontology", err)
		}
		cache, err := ontology.NewCache(defs...)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "loading ontology", err)
		}
		return cache, nil
	}

	cache, err := st.OntologyCache(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading ontology from store", err)
	}
	return cache, nil
}

// newTriplestore creates the SPARQL client described by cfg.
func newTriplestore(cfg *config.Config) (*triplestore.HTTPClient, error) {
	opts := []triplestore.Option{triplestore.WithTimeout(cfg.Triplestore.Timeout)}
	if cfg.Triplestore.User != "" {
		opts = append(opts, triplestore.WithBasicAuth(cfg.Triplestore.User, cfg.Triplestore.Password))
	}
	client, err := triplestore.NewHTTPClient(cfg.Triplestore.URL, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configuring triplestore", err)
	}
	slog.Debug("triplestore configured", "endpoint", client.Endpoint(), "timeout", cfg.Triplestore.Timeout)
	return client, nil
}

// session bundles what a query command needs. Close releases the store.
type session struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
}

// newSession loads configuration, ontology and store. Log output goes to
// logOut. Creating the triplestore client performs no I/O, so commands
// that never query it can still use a session.
func newSession(ctx context.Context, opts *RootOptions, logOut io.Writer) (*session, error) {
	cfg, err := opts.loadConfig(logOut)
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	cache, err := loadOntology(ctx, cfg, st)
	if err != nil {
		st.Close()
		return nil, err
	}
	ts, err := newTriplestore(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	eng := engine.New(cache, ts,
		engine.WithPageSize(cfg.Search.PageSize),
		engine.WithMetrics(metrics.New()),
	)
	return &session{cfg: cfg, store: st, engine: eng}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// openConfiguredStore loads configuration and opens only the metadata
// store, for commands that never run a query.
func openConfiguredStore(opts *RootOptions, logOut io.Writer) (*store.Store, error) {
	cfg, err := opts.loadConfig(logOut)
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}

// readQuery reads query text from path, or from stdin for "-".
func readQuery(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", WrapExitError(ExitCommandError, fmt.Sprintf("reading query %s", path), err)
	}
	return string(data), nil
}
