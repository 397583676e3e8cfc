// Package executor runs the generated queries against the triplestore.
//
// A search is at most two sequential round trips: the prequery selecting
// one page of main resource IRIs, then the fetch query loading exactly
// those resources. Counting is a single round trip. Nothing is cached
// between calls.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/gravsearch/internal/metrics"
	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/rdf"
	"github.com/roach88/gravsearch/internal/rewrite"
	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/triplestore"
)

// Executor runs queries on one triplestore. Safe for concurrent use.
type Executor struct {
	store   triplestore.Triplestore
	metrics *metrics.Metrics
}

// Option configures an Executor.
type Option func(*Executor)

// WithMetrics records round trips in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// New creates an Executor for store.
func New(store triplestore.Triplestore, opts ...Option) *Executor {
	e := &Executor{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a page prequery and returns the main resource IRIs in the
// order the store returned them, along with the number of rows the store
// sent. The main resource is the first projected variable; rows repeating
// an IRI (one per sort key combination) are collapsed to its first
// occurrence, so the row count can exceed len(iris).
func (e *Executor) Execute(ctx context.Context, prequery *sparql.SelectQuery) ([]string, int, error) {
	main, err := firstVariable(prequery)
	if err != nil {
		return nil, 0, err
	}

	res, err := e.selectRows(ctx, metrics.QuerySelect, prequery)
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]bool, len(res.Bindings))
	iris := make([]string, 0, len(res.Bindings))
	for _, row := range res.Bindings {
		term, ok := row[main.Name]
		if !ok {
			continue
		}
		if !term.IsIRI() {
			return nil, 0, queryerr.Internal("prequery returned %s for %s, expected an IRI", term, main)
		}
		if seen[term.Value] {
			continue
		}
		seen[term.Value] = true
		iris = append(iris, term.Value)
	}
	return iris, len(res.Bindings), nil
}

// ExecuteCount runs a count query and returns the number of distinct main
// resources.
func (e *Executor) ExecuteCount(ctx context.Context, countQuery *sparql.SelectQuery) (int, error) {
	alias, err := countAlias(countQuery)
	if err != nil {
		return 0, err
	}

	res, err := e.selectRows(ctx, metrics.QueryCount, countQuery)
	if err != nil {
		return 0, err
	}
	if len(res.Bindings) == 0 {
		return 0, nil
	}

	term, ok := res.Bindings[0][alias.Name]
	if !ok {
		return 0, nil
	}
	n, ok := term.Int()
	if !ok || n < 0 {
		return 0, queryerr.Internal("count query returned %s, expected a non-negative integer", term)
	}
	return int(n), nil
}

// Fetch loads the resources with the given IRIs. It does not call the
// store for an empty set.
func (e *Executor) Fetch(ctx context.Context, iris []string) ([]rdf.Triple, error) {
	if len(iris) == 0 {
		return nil, nil
	}

	text, err := sparql.Render(rewrite.FetchQuery(iris))
	if err != nil {
		return nil, queryerr.Internal("rendering fetch query: %v", err)
	}
	slog.Debug("running fetch query", "resources", len(iris), "query", text)

	start := time.Now()
	triples, err := e.store.Construct(ctx, text)
	err = triplestore.Wrap(ctx, err, "fetching resources")
	e.metrics.ObserveStore(metrics.QueryConstruct, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	slog.Debug("fetch query returned", "triples", len(triples))
	return triples, nil
}

func (e *Executor) selectRows(ctx context.Context, kind string, q *sparql.SelectQuery) (*rdf.SelectResult, error) {
	text, err := sparql.Render(q)
	if err != nil {
		return nil, queryerr.Internal("rendering %s query: %v", kind, err)
	}
	slog.Debug("running prequery", "kind", kind, "query", text)

	start := time.Now()
	res, err := e.store.Select(ctx, text)
	err = triplestore.Wrap(ctx, err, "running "+kind+" query")
	e.metrics.ObserveStore(kind, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &rdf.SelectResult{}, nil
	}
	return res, nil
}

func firstVariable(q *sparql.SelectQuery) (sparql.Variable, error) {
	if q == nil || len(q.Variables) == 0 {
		return sparql.Variable{}, queryerr.Internal("prequery has no projection")
	}
	v, ok := q.Variables[0].(sparql.Variable)
	if !ok {
		return sparql.Variable{}, queryerr.Internal("prequery must project the main resource first, found %T", q.Variables[0])
	}
	return v, nil
}

func countAlias(q *sparql.SelectQuery) (sparql.Variable, error) {
	if q == nil || len(q.Variables) != 1 {
		return sparql.Variable{}, queryerr.Internal("count query must have exactly one projection")
	}
	c, ok := q.Variables[0].(sparql.CountProjection)
	if !ok {
		return sparql.Variable{}, queryerr.Internal("count query must project a COUNT, found %T", q.Variables[0])
	}
	return c.Alias, nil
}
