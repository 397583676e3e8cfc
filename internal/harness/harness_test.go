package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gravsearch/internal/testutil"
)

func loadFixture(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

// =============================================================================
// Scenarios
// =============================================================================

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadFixture(t, "permission_cascade")

	first, err := Run(scenario)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Run(scenario)
		require.NoError(t, err)
		assert.Equal(t, Snapshot(scenario.Name, first), Snapshot(scenario.Name, again))
	}
}

func TestRun_RecordsQueries(t *testing.T) {
	result, err := Run(loadFixture(t, "books_by_title"))
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	assert.Len(t, result.Queries.Prequery, 1)
	assert.Len(t, result.Queries.Count, 1)
	assert.Len(t, result.Queries.Fetch, 1)
	assert.Equal(t, "test-request", result.Page.RequestID)
}

func TestRun_FailedSearchSkipsFetch(t *testing.T) {
	result, err := Run(loadFixture(t, "parse_error"))
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	assert.Equal(t, "PARSE_ERROR", result.ErrorCode)
	assert.Nil(t, result.Page)
	assert.Empty(t, result.Queries.Prequery)
	assert.Empty(t, result.Queries.Fetch)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	scenario := loadFixture(t, "books_by_title")
	scenario.Expect.MainResources = []string{"http://rdfh.ch/0803/b2", "http://rdfh.ch/0803/b1"}
	filtered := 0
	scenario.Expect.Filtered = &filtered

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "main resources")
	assert.Contains(t, result.Errors[1], "filtered")
}

func TestRun_UnexpectedSuccess(t *testing.T) {
	scenario := loadFixture(t, "books_by_title")
	scenario.Expect = Expect{Error: "BAD_REQUEST"}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "search succeeded")
}

func TestRun_UnknownRequester(t *testing.T) {
	scenario := loadFixture(t, "books_by_title")
	scenario.User = "http://rdfh.ch/users/nobody"

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve requester")
}

func TestRun_SystemAdminSeesEverything(t *testing.T) {
	scenario := loadFixture(t, "books_by_title")
	scenario.Users = []User{{IRI: "http://rdfh.ch/users/root", SystemAdmin: true}}
	scenario.User = "http://rdfh.ch/users/root"
	scenario.Expect = Expect{MainResources: []string{"http://rdfh.ch/0803/b2", "http://rdfh.ch/0803/b1"}}
	scenario.Assertions = []Assertion{{Type: AssertPermission, IRI: "http://rdfh.ch/0803/b2", Permission: "CR"}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestToStoreUser_ExpandsGroups(t *testing.T) {
	u := toStoreUser(User{
		IRI:    "http://rdfh.ch/users/member",
		Groups: map[string][]string{testutil.IncunabulaProject: {"knora-admin:ProjectMember"}},
	})

	assert.Equal(t, []string{"http://www.knora.org/ontology/knora-admin#ProjectMember"}, u.Groups[testutil.IncunabulaProject])
}
