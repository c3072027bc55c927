package graph

import (
	"context"
	"testing"

	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// sampleCoverage has one covered requirement, one whose only link was never
// reported, and one without links. Both linked requirements share a test.
func sampleCoverage() *trace.CoverageResult {
	login := trace.TestIdentifier{FilePath: "/repo/tests/auth.spec.ts", CaseName: "login works"}
	logout := trace.TestIdentifier{FilePath: "/repo/tests/auth.spec.ts", CaseName: "logout works"}
	dur := 42.0
	return &trace.CoverageResult{
		Requirements: []trace.RequirementCoverage{
			{
				Requirement: trace.Requirement{ID: "US-001", Title: "Login", FilePath: "/repo/docs/auth.md", Source: "stories", LinkedTests: []trace.TestIdentifier{login, logout}},
				Covered:     true,
				TestResults: []trace.TestResult{{TestIdentifier: login, Status: trace.StatusPassed, Duration: &dur, Source: "unit"}},
			},
			{
				Requirement: trace.Requirement{ID: "US-002", Title: `Logout "everywhere"`, FilePath: "/repo/docs/auth.md", Source: "stories", LinkedTests: []trace.TestIdentifier{logout}},
				TestResults: []trace.TestResult{},
			},
			{
				Requirement: trace.Requirement{ID: "US-001", Title: "Login (legacy)", FilePath: "/repo/docs/legacy.md", Source: "stories", LinkedTests: []trace.TestIdentifier{}},
				TestResults: []trace.TestResult{},
			},
		},
		Summary: trace.CoverageSummary{TotalRequirements: 3, CoveredRequirements: 1, CoveragePercentage: 100.0 / 3},
	}
}

func keysOf(reqs []RequirementNode) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Key
	}
	return out
}

// runStoreContract exercises a Store through Index and every read method.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, Index(ctx, s, sampleCoverage()))

	const (
		authLogin  = "/repo/docs/auth.md#US-001"
		authLogout = "/repo/docs/auth.md#US-002"
		legacy     = "/repo/docs/legacy.md#US-001"
		loginTest  = "/repo/tests/auth.spec.ts#login works"
		logoutTest = "/repo/tests/auth.spec.ts#logout works"
	)

	got, err := s.GetRequirement(ctx, authLogin)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, RequirementNode{Key: authLogin, ID: "US-001", Title: "Login", FilePath: "/repo/docs/auth.md", Source: "stories", Covered: true}, *got)

	missing, err := s.GetRequirement(ctx, "/nope.md#US-999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := s.Requirements(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{authLogin, authLogout, legacy}, keysOf(all))

	byID, err := s.FindRequirements(ctx, "US-001")
	require.NoError(t, err)
	assert.Equal(t, []string{authLogin, legacy}, keysOf(byID))

	uncovered, err := s.Uncovered(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{authLogout, legacy}, keysOf(uncovered))

	tests, err := s.TestsFor(ctx, authLogin)
	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Equal(t, TestCaseNode{Key: loginTest, FilePath: "/repo/tests/auth.spec.ts", CaseName: "login works", Status: "passed", DurationMS: 42, Source: "unit"}, tests[0])
	assert.Equal(t, logoutTest, tests[1].Key)
	assert.Equal(t, StatusMissing, tests[1].Status)
	assert.Equal(t, -1.0, tests[1].DurationMS)

	none, err := s.TestsFor(ctx, legacy)
	require.NoError(t, err)
	assert.Empty(t, none)

	owners, err := s.RequirementsFor(ctx, logoutTest)
	require.NoError(t, err)
	assert.Equal(t, []string{authLogin, authLogout}, keysOf(owners))

	links, err := s.Links(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Link{
		{RequirementKey: authLogin, TestKey: loginTest},
		{RequirementKey: authLogin, TestKey: logoutTest},
		{RequirementKey: authLogout, TestKey: logoutTest},
	}, links)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &GraphStats{RequirementCount: 3, CoveredCount: 1, TestCaseCount: 2, MissingCount: 1, LinkCount: 3}, stats)

	// Re-indexing the same result is idempotent.
	require.NoError(t, Index(ctx, s, sampleCoverage()))
	again, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats, again)

	assert.Error(t, s.AddLink(ctx, "/nope.md#US-999", loginTest))
	assert.Error(t, s.AddLink(ctx, authLogin, "/nope.ts#x"))
}
