package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/gravsearch/internal/assemble"
	"github.com/roach88/gravsearch/internal/executor"
	"github.com/roach88/gravsearch/internal/metrics"
	"github.com/roach88/gravsearch/internal/ontology"
	"github.com/roach88/gravsearch/internal/parser"
	"github.com/roach88/gravsearch/internal/permission"
	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/rewrite"
	"github.com/roach88/gravsearch/internal/sparql"
	"github.com/roach88/gravsearch/internal/triplestore"
	"github.com/roach88/gravsearch/internal/typeinspect"
)

// Pipeline stages, used in RequestError and log lines.
const (
	StageParse    = "parse"
	StageInspect  = "inspect"
	StageRewrite  = "rewrite"
	StagePrequery = "prequery"
	StageFetch    = "fetch"
	StageAssemble = "assemble"
)

// Engine answers Gravsearch search and count requests. Safe for
// concurrent use.
type Engine struct {
	inspector  *typeinspect.Inspector
	executor   *executor.Executor
	requestIDs RequestIDGenerator
	clock      Clock
	metrics    *metrics.Metrics
	pageSize   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithPageSize sets the number of main resources per page.
//
// Default: rewrite.DefaultPageSize (25).
func WithPageSize(n int) Option {
	return func(e *Engine) {
		e.pageSize = n
	}
}

// WithRequestIDGenerator replaces the UUIDv7 request ID generator.
func WithRequestIDGenerator(g RequestIDGenerator) Option {
	return func(e *Engine) {
		e.requestIDs = g
	}
}

// WithClock replaces the wall clock used for request durations.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithMetrics records requests and triplestore round trips in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine reading types from ont and data from store.
func New(ont ontology.Reader, store triplestore.Triplestore, opts ...Option) *Engine {
	e := &Engine{
		inspector:  typeinspect.New(ont),
		requestIDs: UUIDv7Generator{},
		clock:      systemClock{},
		pageSize:   rewrite.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pageSize <= 0 {
		e.pageSize = rewrite.DefaultPageSize
	}
	e.executor = executor.New(store, executor.WithMetrics(e.metrics))
	return e
}

// PageSize returns the number of main resources per page.
func (e *Engine) PageSize() int {
	return e.pageSize
}

// Compiled is a query taken through parsing, type inspection and rewriting.
type Compiled struct {
	Parsed     *parser.ParseResult
	Types      *typeinspect.Result
	Prequery   *sparql.SelectQuery
	CountQuery *sparql.SelectQuery
}

// CompileOption adjusts a single compilation.
type CompileOption func(*compileConfig)

type compileConfig struct {
	page    int
	hasPage bool
}

// AtPage requests page n (zero-based) instead of the query's OFFSET.
func AtPage(n int) CompileOption {
	return func(c *compileConfig) {
		c.page = n
		c.hasPage = true
	}
}

// Compile parses, inspects and rewrites query text without touching the
// triplestore. Errors carry the *queryerr.Error of the failing stage.
func (e *Engine) Compile(text string, opts ...CompileOption) (*Compiled, error) {
	c, _, err := e.compile(text, opts)
	return c, err
}

func (e *Engine) compile(text string, opts []CompileOption) (*Compiled, string, error) {
	var cfg compileConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	parsed, err := parser.Parse(text)
	if err != nil {
		return nil, StageParse, err
	}
	if cfg.hasPage {
		if cfg.page < 0 {
			return nil, StageParse, queryerr.BadRequest("page must not be negative, got %d", cfg.page)
		}
		parsed.Query.Offset = cfg.page
	}

	types, err := e.inspector.Inspect(parsed.Query, parsed.MainResource)
	if err != nil {
		return nil, StageInspect, err
	}

	ro := rewrite.Options{PageSize: e.pageSize}
	prequery, err := rewrite.ToSelectPrequery(parsed.Query, types, rewrite.ModePage, ro)
	if err != nil {
		return nil, StageRewrite, err
	}
	count, err := rewrite.ToSelectPrequery(parsed.Query, types, rewrite.ModeCount, ro)
	if err != nil {
		return nil, StageRewrite, err
	}

	return &Compiled{Parsed: parsed, Types: types, Prequery: prequery, CountQuery: count}, "", nil
}

// Page is one page of search results.
type Page struct {
	RequestID string

	// Number is the zero-based page number.
	Number int

	// Resources holds the visible main resources in prequery order.
	Resources []*assemble.Resource

	// MayHaveMoreResults is set when the prequery returned a full page of
	// rows, even if some rows repeated a main resource or permissions then
	// hid some of it.
	MayHaveMoreResults bool

	// Filtered counts main resources of the page the requester cannot see.
	Filtered int
}

// Search runs a search request for id.
func (e *Engine) Search(ctx context.Context, text string, id permission.Identity, opts ...CompileOption) (*Page, error) {
	reqID := e.requestIDs.Generate()
	start := e.clock.Now()
	log := slog.With("request_id", reqID, "mode", rewrite.ModePage.String())
	log.Info("search started", "user", id.UserIRI)

	page, stage, err := e.search(ctx, text, id, opts, log)
	if page != nil {
		page.RequestID = reqID
	}

	e.metrics.ObserveRequest(rewrite.ModePage.String(), e.clock.Now().Sub(start), err)
	if err != nil {
		return nil, e.fail(log, reqID, rewrite.ModePage, stage, err)
	}

	e.metrics.ObservePage(len(page.Resources), page.Filtered)
	log.Info("search completed",
		"page", page.Number,
		"main_resources", len(page.Resources),
		"filtered", page.Filtered,
		"duration", e.clock.Now().Sub(start),
	)
	return page, nil
}

func (e *Engine) search(ctx context.Context, text string, id permission.Identity, opts []CompileOption, log *slog.Logger) (*Page, string, error) {
	c, stage, err := e.compile(text, opts)
	if err != nil {
		return nil, stage, err
	}

	iris, rows, err := e.executor.Execute(ctx, c.Prequery)
	if err != nil {
		return nil, StagePrequery, err
	}
	log.Debug("prequery returned", "rows", rows, "main_resources", len(iris))

	triples, err := e.executor.Fetch(ctx, iris)
	if err != nil {
		return nil, StageFetch, err
	}
	if log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("fetch returned", "main_resources", len(assemble.MainResources(triples)))
	}

	// A request abandoned during the fetch is not worth assembling.
	if err := ctx.Err(); err != nil {
		return nil, StageFetch, triplestore.Wrap(ctx, err, "search")
	}

	visible, err := assemble.Assemble(triples, id)
	if err != nil {
		return nil, StageAssemble, err
	}

	page := &Page{
		Number:             c.Parsed.Page(),
		MayHaveMoreResults: rows >= c.Prequery.Limit,
	}
	for _, iri := range iris {
		if r, ok := visible[iri]; ok {
			page.Resources = append(page.Resources, r)
		} else {
			page.Filtered++
		}
	}
	return page, "", nil
}

// Count returns the number of main resources matching the query, before
// permission filtering.
func (e *Engine) Count(ctx context.Context, text string) (int, error) {
	reqID := e.requestIDs.Generate()
	start := e.clock.Now()
	log := slog.With("request_id", reqID, "mode", rewrite.ModeCount.String())
	log.Info("count started")

	n, stage, err := e.count(ctx, text)
	e.metrics.ObserveRequest(rewrite.ModeCount.String(), e.clock.Now().Sub(start), err)
	if err != nil {
		return 0, e.fail(log, reqID, rewrite.ModeCount, stage, err)
	}

	log.Info("count completed", "main_resources", n, "duration", e.clock.Now().Sub(start))
	return n, nil
}

func (e *Engine) count(ctx context.Context, text string) (int, string, error) {
	c, stage, err := e.compile(text, nil)
	if err != nil {
		return 0, stage, err
	}
	n, err := e.executor.ExecuteCount(ctx, c.CountQuery)
	if err != nil {
		return 0, StagePrequery, err
	}
	return n, "", nil
}

// fail logs err at the level its code deserves and wraps it with the
// request context.
func (e *Engine) fail(log *slog.Logger, reqID string, mode rewrite.Mode, stage string, err error) error {
	switch {
	case queryerr.IsUserError(err):
		log.Info("request rejected", "stage", stage, "error", err)
	case queryerr.IsStoreTimeout(err), queryerr.IsStoreFailure(err):
		log.Warn("triplestore request failed", "stage", stage, "error", err)
	default:
		log.Error("internal inconsistency", "stage", stage, "error", err)
	}
	return &RequestError{RequestID: reqID, Mode: mode.String(), Stage: stage, Err: err}
}
