package harness

import (
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/gravsearch/internal/render"
)

// Snapshot summarizes a result for golden comparison: the outcome of the
// search and count, and the permission level of every resource and value
// on the page. Generated SPARQL is left out; it has its own golden files.
func Snapshot(name string, r *Result) render.Object {
	snap := render.Object{"scenario": name}
	if r.ErrorCode != "" {
		snap["error"] = r.ErrorCode
	}
	if r.Count != nil {
		snap["count"] = *r.Count
	}
	if r.Page != nil {
		mains := make(render.Array, len(r.Page.Resources))
		for i, res := range r.Page.Resources {
			mains[i] = res.IRI
		}
		perms := render.Object{}
		for iri, e := range index(r.Page.Resources) {
			perms[iri] = e.permission()
		}
		snap["search"] = render.Object{
			"page":               r.Page.Number,
			"mainResources":      mains,
			"filtered":           r.Page.Filtered,
			"mayHaveMoreResults": r.Page.MayHaveMoreResults,
			"permissions":        perms,
		}
	}
	return snap
}

// RunWithGolden executes a scenario, fails t if it does not pass, and
// compares its snapshot with testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		sort.Strings(result.Errors)
		for _, msg := range result.Errors {
			t.Errorf("%s: %s", scenario.Name, msg)
		}
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	out, err := render.MarshalCanonical(Snapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, out)
	return nil
}
