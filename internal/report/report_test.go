package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var fixedMeta = Meta{
	ConfigPath:  "spectrace.yaml",
	RunID:       "6f1c1c9e-3a4b-4c55-9d1e-0b6a3e1f2a77",
	GeneratedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
}

func sampleResult() *trace.CoverageResult {
	login := trace.TestIdentifier{FilePath: "/repo/tests/auth.spec.ts", CaseName: "login works"}
	dur := 12.5
	return &trace.CoverageResult{
		Requirements: []trace.RequirementCoverage{
			{
				Requirement: trace.Requirement{ID: "US-001", Title: "Login works", FilePath: "/repo/docs/stories.md", Source: "stories", LinkedTests: []trace.TestIdentifier{login}},
				Covered:     true,
				TestResults: []trace.TestResult{{TestIdentifier: login, Status: trace.StatusPassed, Duration: &dur}},
			},
			{
				Requirement: trace.Requirement{ID: "US-002", Title: "Register | sign up", FilePath: "/repo/docs/stories.md", LinkedTests: []trace.TestIdentifier{}},
				TestResults: []trace.TestResult{},
			},
			{
				Requirement: trace.Requirement{ID: "FS-001", Title: "Export", FilePath: "/repo/docs/features.md", LinkedTests: []trace.TestIdentifier{}},
				TestResults: []trace.TestResult{},
			},
			{
				Requirement: trace.Requirement{ID: "misc", Title: "Untyped", FilePath: "notes.md", LinkedTests: []trace.TestIdentifier{}},
				TestResults: []trace.TestResult{},
			},
		},
		Summary: trace.CoverageSummary{TotalRequirements: 4, CoveredRequirements: 1, CoveragePercentage: 25},
	}
}

func emptyResult() *trace.CoverageResult {
	return &trace.CoverageResult{Requirements: []trace.RequirementCoverage{}}
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

func TestSummary(t *testing.T) {
	assert.Equal(t, "Found 4 requirement(s) total, 1 covered, 25.00% coverage.", Summary(sampleResult()))
	assert.Equal(t, "No requirements found.", Summary(emptyResult()))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"md": FormatMarkdown, "markdown": FormatMarkdown, "JSON": FormatJSON, "text": FormatText, "html": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestNewMeta(t *testing.T) {
	m := NewMeta("cfg.yaml")
	assert.Equal(t, "cfg.yaml", m.ConfigPath)
	_, err := uuid.Parse(m.RunID)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now(), m.GeneratedAt, time.Minute)
}

// ---------------------------------------------------------------------------
// Markdown
// ---------------------------------------------------------------------------

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, sampleResult(), fixedMeta))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Specification Coverage Report\n\nConfiguration: `spectrace.yaml`\n"))
	assert.Contains(t, out, "🔴 **Coverage: 25.00%** `█████░░░░░░░░░░░░░░░`")
	assert.Contains(t, out, "- **Total Requirements:** 4\n- **Covered Requirements:** 1\n- **Uncovered Requirements:** 3\n")

	// Groups in order of first appearance.
	assert.Contains(t, out, "- [US (🟡 50%)](#us)\n- [FS (🔴 0%)](#fs)\n- [Other (🔴 0%)](#other)\n")
	assert.Contains(t, out, "### US 🟡 50%\n")
	assert.Contains(t, out, "| US-001 | Login works | ✅ Covered | docs/stories.md | - auth.spec.ts#login works<br/> |")
	assert.Contains(t, out, `| US-002 | Register \| sign up | ❌ Not Covered | docs/stories.md | - |`)
	assert.Contains(t, out, "| misc | Untyped | ❌ Not Covered | notes.md | - |")

	assert.Contains(t, out, "## Uncovered Requirements\n")
	assert.Contains(t, out, "- FS-001: Export (_in features.md_)\n")
	assert.NotContains(t, out, "- US-001: Login works (_in")
	assert.True(t, strings.HasSuffix(out, "Report generated on: 2026-03-14 09:26:53 UTC\n"))
}

func TestMarkdown_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, emptyResult(), Meta{}))
	out := buf.String()

	assert.NotContains(t, out, "Configuration:")
	assert.Contains(t, out, "🔴 **Coverage: 0.00%** `░░░░░░░░░░░░░░░░░░░░`")
	assert.True(t, strings.HasSuffix(out, "**No requirements found.**\n"))
	assert.NotContains(t, out, "## Requirements")
}

func TestBarAndMarker(t *testing.T) {
	assert.Equal(t, strings.Repeat("█", 20), bar(100))
	assert.Equal(t, strings.Repeat("█", 15)+strings.Repeat("░", 5), bar(75))
	assert.Equal(t, "🟢", marker(75))
	assert.Equal(t, "🟡", marker(50))
	assert.Equal(t, "🔴", marker(49.99))
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleResult(), fixedMeta))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	summary := doc["summary"].(map[string]any)
	assert.Equal(t, fixedMeta.RunID, summary["runId"])
	assert.Equal(t, "spectrace.yaml", summary["configPath"])
	assert.Equal(t, 4.0, summary["totalRequirements"])
	assert.Equal(t, 3.0, summary["uncoveredRequirements"])
	assert.Equal(t, 25.0, summary["coveragePercentage"])
	assert.Equal(t, "2026-03-14T09:26:53Z", summary["generatedAt"])

	reqs := doc["requirements"].([]any)
	require.Len(t, reqs, 4)
	first := reqs[0].(map[string]any)
	assert.Equal(t, "US-001", first["id"])
	assert.Equal(t, true, first["covered"])
	results := first["testResults"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, map[string]any{
		"filePath": "/repo/tests/auth.spec.ts",
		"caseName": "login works",
		"status":   "passed",
		"duration": 12.5,
	}, results[0])
}

func TestJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, emptyResult(), Meta{}))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Nil(t, doc["summary"].(map[string]any)["configPath"])
	assert.Equal(t, []any{}, doc["requirements"])
}

// ---------------------------------------------------------------------------
// HTML and terminal
// ---------------------------------------------------------------------------

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, sampleResult(), fixedMeta))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `data-run-id="`+fixedMeta.RunID+`"`)
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<br/>")
	assert.Contains(t, out, "width: 100%;")
	assert.True(t, strings.HasSuffix(out, "</html>\n"))
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, sampleResult(), fixedMeta))
	assert.Equal(t, Summary(sampleResult())+"\n", buf.String())

	assert.Error(t, Render(&buf, Format("pdf"), sampleResult(), fixedMeta))
}

func TestTerminal_Mono(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, sampleResult(), MonoTheme()))
	out := buf.String()

	assert.Contains(t, out, "Coverage  25.00% █████░░░░░░░░░░░░░░░\n")
	assert.Contains(t, out, "1 of 4 requirement(s) covered\n")
	assert.Contains(t, out, "  ✗ US-002 Register | sign up\n")
	assert.NotContains(t, out, "US-001")
}

func TestTerminal_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, emptyResult(), MonoTheme()))
	assert.Equal(t, "No requirements found.\n", buf.String())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
