package e2e

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/spectrace/internal/coverage"
	"github.com/dusk-indust/spectrace/internal/graph"
	"github.com/dusk-indust/spectrace/internal/pipeline"
	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureConfig returns the path to the webshop fixture's configuration.
func fixtureConfig(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "testdata", "fixtures", "webshop", "spectrace.yaml"))
	require.NoError(t, err)
	return path
}

func measureFixture(t *testing.T, opts ...pipeline.Option) *trace.CoverageResult {
	t.Helper()
	res, err := pipeline.MeasureFile(context.Background(), fixtureConfig(t), opts...)
	require.NoError(t, err)
	return res
}

func byID(res *trace.CoverageResult) map[string]trace.RequirementCoverage {
	out := make(map[string]trace.RequirementCoverage, len(res.Requirements))
	for _, rc := range res.Requirements {
		out[rc.ID] = rc
	}
	return out
}

func TestWebshop_Presence(t *testing.T) {
	res := measureFixture(t)

	ids := make([]string, len(res.Requirements))
	for i, rc := range res.Requirements {
		ids[i] = rc.ID
	}
	assert.Equal(t, []string{"US-001", "US-002", "US-003", "US-004", "US-005", "FS-001", "FS-002"}, ids)
	assert.Equal(t, 7, res.Summary.TotalRequirements)
	assert.Equal(t, 5, res.Summary.CoveredRequirements)
	assert.InDelta(t, 71.43, res.Summary.CoveragePercentage, 0.01)

	reqs := byID(res)

	tests := []struct {
		id      string
		covered bool
		status  trace.Status
		source  string
	}{
		{id: "US-001", covered: true, status: trace.StatusPassed, source: "unit"},
		{id: "US-002", covered: true, status: trace.StatusFailed, source: "unit"},
		{id: "US-004", covered: true, status: trace.StatusPassed, source: "e2e"},
		{id: "US-005", covered: true, status: trace.StatusFailed, source: "e2e"},
		{id: "FS-001", covered: true, status: trace.StatusPending, source: "components"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			rc := reqs[tt.id]
			assert.Equal(t, tt.covered, rc.Covered)
			require.Len(t, rc.TestResults, 1)
			assert.Equal(t, tt.status, rc.TestResults[0].Status)
			assert.Equal(t, tt.source, rc.TestResults[0].Source)
		})
	}

	assert.False(t, reqs["US-003"].Covered)
	assert.Empty(t, reqs["US-003"].LinkedTests)
	assert.False(t, reqs["FS-002"].Covered)
	assert.Len(t, reqs["FS-002"].LinkedTests, 1)
	assert.Empty(t, reqs["FS-002"].TestResults)
}

func TestWebshop_PlaywrightDuration(t *testing.T) {
	rc := byID(measureFixture(t))["US-005"]
	require.Len(t, rc.TestResults, 1)
	require.NotNil(t, rc.TestResults[0].Duration)
	assert.Equal(t, 590.0, *rc.TestResults[0].Duration, "retries are summed")
}

func TestWebshop_PassedPolicy(t *testing.T) {
	res := measureFixture(t, pipeline.WithPolicy(coverage.PolicyPassed))

	assert.Equal(t, 2, res.Summary.CoveredRequirements)
	reqs := byID(res)
	assert.True(t, reqs["US-001"].Covered)
	assert.True(t, reqs["US-004"].Covered)
	assert.False(t, reqs["FS-001"].Covered, "static cases are pending")
}

func TestWebshop_Graph(t *testing.T) {
	res := measureFixture(t)
	store := graph.NewMemStore()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, graph.Index(ctx, store, res))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &graph.GraphStats{
		RequirementCount: 7,
		CoveredCount:     5,
		TestCaseCount:    6,
		MissingCount:     1,
		LinkCount:        6,
	}, stats)

	uncovered, err := store.Uncovered(ctx)
	require.NoError(t, err)
	ids := make([]string, len(uncovered))
	for i, r := range uncovered {
		ids[i] = r.ID
	}
	assert.ElementsMatch(t, []string{"US-003", "FS-002"}, ids)
}
