package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_Contract(t *testing.T) {
	s := NewMemStore()
	defer s.Close()
	runStoreContract(t, s)
}

func TestMemStore_Empty(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	reqs, err := s.Requirements(ctx)
	require.NoError(t, err)
	assert.NotNil(t, reqs)
	assert.Empty(t, reqs)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &GraphStats{}, stats)
}

func TestIndex_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Index(ctx, NewMemStore(), sampleCoverage()), context.Canceled)
}

func TestIndex_EmptyResult(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, Index(context.Background(), s, &trace.CoverageResult{}))
	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.RequirementCount)
}

func TestIndex_DuplicateIDsInOneDocument(t *testing.T) {
	login := trace.TestIdentifier{FilePath: "/repo/tests/auth.spec.ts", CaseName: "login works"}
	relogin := trace.TestIdentifier{FilePath: "/repo/tests/auth.spec.ts", CaseName: "relogin works"}
	res := &trace.CoverageResult{
		Requirements: []trace.RequirementCoverage{
			{
				Requirement: trace.Requirement{ID: "US-001", Title: "Login", FilePath: "/repo/docs/auth.md", LinkedTests: []trace.TestIdentifier{login}},
				Covered:     true,
			},
			{
				Requirement: trace.Requirement{ID: "US-001", Title: "Login again", FilePath: "/repo/docs/auth.md", LinkedTests: []trace.TestIdentifier{relogin}},
			},
		},
	}

	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, Index(ctx, s, res))

	reqs, err := s.FindRequirements(ctx, "US-001")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, []string{"/repo/docs/auth.md#US-001", "/repo/docs/auth.md#US-001#2"}, keysOf(reqs))
	assert.Equal(t, "Login", reqs[0].Title)
	assert.True(t, reqs[0].Covered)
	assert.Equal(t, "Login again", reqs[1].Title)
	assert.False(t, reqs[1].Covered)

	tests, err := s.TestsFor(ctx, reqs[1].Key)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "relogin works", tests[0].CaseName)
}

func TestGenerateMermaid(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, Index(ctx, s, sampleCoverage()))

	out, err := GenerateMermaid(ctx, s)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, `R0["US-001: Login"]:::covered`)
	assert.Contains(t, out, `R1["US-002: Logout #quot;everywhere#quot;"]:::uncovered`)
	assert.Contains(t, out, `R2["US-001: Login (legacy)"]:::uncovered`)
	assert.Contains(t, out, `T3(["auth.spec.ts<br/>login works"])`)
	assert.Contains(t, out, `T4(["auth.spec.ts<br/>logout works"]):::missing`)
	assert.Contains(t, out, "  R0 --> T3\n  R0 --> T4\n  R1 --> T4\n")
	assert.Equal(t, 1, strings.Count(out, "T4(["), "each test node is declared once")
}

func TestGenerateMermaid_Empty(t *testing.T) {
	out, err := GenerateMermaid(context.Background(), NewMemStore())
	require.NoError(t, err)
	assert.NotContains(t, out, "-->")
}
