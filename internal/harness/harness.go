package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/gravsearch/internal/engine"
	"github.com/roach88/gravsearch/internal/ontology"
	"github.com/roach88/gravsearch/internal/permission"
	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/store"
	"github.com/roach88/gravsearch/internal/testutil"
)

// countMarker identifies count queries among the SELECTs sent to the store.
const countMarker = "COUNT(DISTINCT"

// Run executes a scenario and returns its result.
//
// Each scenario gets a fresh in-memory store holding its ontologies and
// users, a scripted triplestore, a fixed request ID and a step clock, so
// repeated runs give identical results. An error is returned only if the
// scenario itself cannot be set up; engine failures are part of the
// result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := importOntologies(ctx, st, scenario.Ontology); err != nil {
		return nil, err
	}
	cache, err := st.OntologyCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build ontology cache: %w", err)
	}

	for _, u := range scenario.Users {
		if err := st.SaveUser(ctx, toStoreUser(u)); err != nil {
			return nil, fmt.Errorf("failed to register user: %w", err)
		}
	}
	id, err := st.Identity(ctx, scenario.User)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve requester: %w", err)
	}

	opts := []engine.Option{
		engine.WithRequestIDGenerator(testutil.NewFixedRequestID(scenario.RequestID)),
		engine.WithClock(testutil.NewStepClock(time.Unix(0, 0).UTC(), time.Millisecond)),
	}
	if scenario.PageSize > 0 {
		opts = append(opts, engine.WithPageSize(scenario.PageSize))
	}
	fake := &testutil.FakeTriplestore{}
	eng := engine.New(cache, fake, opts...)

	script(fake, scenario, eng)

	var compileOpts []engine.CompileOption
	if scenario.Page != nil {
		compileOpts = append(compileOpts, engine.AtPage(*scenario.Page))
	}

	result := NewResult()
	page, err := eng.Search(ctx, scenario.Query, id, compileOpts...)
	if err != nil {
		code, _ := queryerr.CodeOf(err)
		result.ErrorCode = string(code)
	} else {
		result.Page = page
	}

	if scenario.Store.Count != nil && err == nil {
		n, err := eng.Count(ctx, scenario.Query)
		if err != nil {
			result.AddError(fmt.Sprintf("count failed: %v", err))
		} else {
			result.Count = &n
		}
	}

	result.Queries = split(fake)

	checkExpect(result, scenario.Expect, err)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func importOntologies(ctx context.Context, st *store.Store, dirs []string) error {
	for _, dir := range dirs {
		defs, err := ontology.LoadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to load ontology %s: %w", dir, err)
		}
		for _, d := range defs {
			if err := st.SaveOntology(ctx, d); err != nil {
				return fmt.Errorf("failed to import ontology %s: %w", d.IRI, err)
			}
		}
	}
	return nil
}

func toStoreUser(u User) store.User {
	groups := make(map[string][]string, len(u.Groups))
	for project, names := range u.Groups {
		for _, g := range names {
			groups[project] = append(groups[project], permission.ExpandGroup(g))
		}
	}
	return store.User{
		IRI:             u.IRI,
		SystemAdmin:     u.SystemAdmin,
		Groups:          groups,
		ProjectAdminAll: u.AdminAll,
	}
}

// script loads the scenario's canned answers into fake. The prequery
// answer binds the main resource variable, which is only known once the
// query compiles; a query that does not compile never reaches the store.
func script(fake *testutil.FakeTriplestore, s *Scenario, eng *engine.Engine) {
	if s.Store.Fail != "" {
		cause := errors.New(s.Store.Fail)
		fake.Selects = []testutil.SelectResponse{{Err: cause}}
		fake.ConstructErr = cause
		return
	}

	if s.Store.Count != nil {
		fake.Selects = append(fake.Selects, testutil.SelectResponse{
			Match:  countMarker,
			Result: testutil.CountBinding(*s.Store.Count),
		})
	}
	if c, err := eng.Compile(s.Query); err == nil {
		fake.Selects = append(fake.Selects, testutil.SelectResponse{
			Result: testutil.IRIBindings(c.Parsed.MainResource.Name, s.Store.Prequery...),
		})
	}

	var g testutil.Graph
	for _, r := range s.Store.Resources {
		g.Project = r.Project
		g.Resource(r.IRI, r.Class, r.Owner, r.Permissions, r.Main)
		for _, v := range r.Values {
			g.TextValue(r.IRI, v.Property, v.IRI, v.Text, v.Owner, v.Permissions)
		}
		for _, l := range r.Links {
			g.Link(r.IRI, l.Property, l.IRI, l.Target, l.Owner, l.Permissions)
		}
	}
	fake.Triples = g.Triples
}

func split(fake *testutil.FakeTriplestore) Queries {
	var q Queries
	for _, text := range fake.SelectQueries {
		if strings.Contains(text, countMarker) {
			q.Count = append(q.Count, text)
		} else {
			q.Prequery = append(q.Prequery, text)
		}
	}
	q.Fetch = slices.Clone(fake.ConstructQueries)
	return q
}

func checkExpect(r *Result, want Expect, searchErr error) {
	if want.Error != "" {
		if searchErr == nil {
			r.AddError(fmt.Sprintf("expected error %s, search succeeded", want.Error))
		} else if r.ErrorCode != want.Error {
			r.AddError(fmt.Sprintf("expected error %s, got %s (%v)", want.Error, codeOrNone(r.ErrorCode), searchErr))
		}
		return
	}
	if searchErr != nil {
		r.AddError(fmt.Sprintf("search failed: %v", searchErr))
		return
	}

	if want.MainResources != nil {
		got := make([]string, len(r.Page.Resources))
		for i, res := range r.Page.Resources {
			got[i] = res.IRI
		}
		if !slices.Equal(got, want.MainResources) {
			r.AddError(fmt.Sprintf("main resources: expected %v, got %v", want.MainResources, got))
		}
	}
	if want.Filtered != nil && r.Page.Filtered != *want.Filtered {
		r.AddError(fmt.Sprintf("filtered: expected %d, got %d", *want.Filtered, r.Page.Filtered))
	}
	if want.MayHaveMore != nil && r.Page.MayHaveMoreResults != *want.MayHaveMore {
		r.AddError(fmt.Sprintf("may_have_more: expected %t, got %t", *want.MayHaveMore, r.Page.MayHaveMoreResults))
	}
	if want.Count != nil {
		switch {
		case r.Count == nil:
			r.AddError(fmt.Sprintf("count: expected %d, no count was returned", *want.Count))
		case *r.Count != *want.Count:
			r.AddError(fmt.Sprintf("count: expected %d, got %d", *want.Count, *r.Count))
		}
	}
}

func codeOrNone(code string) string {
	if code == "" {
		return "no code"
	}
	return code
}
