package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const (
	storyPattern = `(US-\d+):\s+(.*)`
	linkPattern  = `@test:\s*(\S+)#(.+)`
)

func writeDoc(t *testing.T, base, rel, content string) string {
	t.Helper()
	path := filepath.Join(base, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func storySource(path string) trace.RequirementSource {
	return trace.RequirementSource{
		ID:                "user-stories",
		Type:              trace.SourceTypeMarkdown,
		Path:              path,
		IDPattern:         storyPattern,
		LinkMarkerPattern: linkPattern,
		LinkScope:         trace.LinkScopeFile,
	}
}

func ids(reqs []trace.Requirement) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.ID
	}
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestExtract_SingleRequirementWithMarker(t *testing.T) {
	base := t.TempDir()
	doc := writeDoc(t, base, "docs/login.md", "# Auth\n\n## US-001: Login works\n\nVerified by @test: auth.spec.ts#login works\n")

	reqs, err := New(nil).Extract(context.Background(), []trace.RequirementSource{storySource("docs/*.md")}, base)
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	r := reqs[0]
	assert.Equal(t, "US-001", r.ID)
	assert.Equal(t, "Login works", r.Title)
	assert.Equal(t, "", r.Description)
	assert.Equal(t, doc, r.FilePath)
	assert.Equal(t, "user-stories", r.Source)
	assert.Equal(t, []trace.TestIdentifier{
		{FilePath: filepath.Join(base, "auth.spec.ts"), CaseName: "login works"},
	}, r.LinkedTests)
}

func TestExtract_FileScopeSharesAllMarkers(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "docs/stories.md", `## US-001: Login

@test: auth.spec.ts#login works

## US-002: Register

@test: register.spec.ts#register works
`)

	reqs, err := New(nil).Extract(context.Background(), []trace.RequirementSource{storySource("docs/*.md")}, base)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	want := []trace.TestIdentifier{
		{FilePath: filepath.Join(base, "auth.spec.ts"), CaseName: "login works"},
		{FilePath: filepath.Join(base, "register.spec.ts"), CaseName: "register works"},
	}
	assert.Equal(t, want, reqs[0].LinkedTests)
	assert.Equal(t, want, reqs[1].LinkedTests)

	// Each requirement owns its slice.
	reqs[0].LinkedTests[0].CaseName = "mutated"
	assert.Equal(t, "login works", reqs[1].LinkedTests[0].CaseName)
}

func TestExtract_SectionScope(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "docs/stories.md", `Intro @test: orphan.spec.ts#ignored

## US-001: Login

@test: auth.spec.ts#login works

### Notes

@test: auth.spec.ts#logout works

## US-002: Register

@test: register.spec.ts#register works
`)
	src := storySource("docs/*.md")
	src.LinkScope = trace.LinkScopeSection

	reqs, err := New(nil).Extract(context.Background(), []trace.RequirementSource{src}, base)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, []trace.TestIdentifier{
		{FilePath: filepath.Join(base, "auth.spec.ts"), CaseName: "login works"},
		{FilePath: filepath.Join(base, "auth.spec.ts"), CaseName: "logout works"},
	}, reqs[0].LinkedTests, "non-requirement headings do not end a section")
	assert.Equal(t, []trace.TestIdentifier{
		{FilePath: filepath.Join(base, "register.spec.ts"), CaseName: "register works"},
	}, reqs[1].LinkedTests)
}

func TestExtract_HeadingRules(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "docs/rules.md", "US-010: Setext heading\n----------------------\n\n"+
		"```md\n## US-011: inside a code block\n```\n\n"+
		"## Not a requirement\n\n"+
		"### US-012: Closed heading ###\n")

	reqs, err := New(nil).Extract(context.Background(), []trace.RequirementSource{storySource("docs/*.md")}, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"US-010", "US-012"}, ids(reqs))
	assert.Equal(t, "Closed heading", reqs[1].Title)
	assert.Empty(t, reqs[0].LinkedTests)
}

func TestExtract_PatternWrittenAgainstRawLine(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "docs/a.md", "## US-001: Login works\n### US-002: Too deep\n")

	src := storySource("docs/*.md")
	src.IDPattern = `^##\s+(US-\d+):\s+(.*)$`

	reqs, err := New(nil).Extract(context.Background(), []trace.RequirementSource{src}, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"US-001"}, ids(reqs))
}

func TestExtract_NoIDPattern(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "docs/a.md", "## US-001: Login works\n")

	src := storySource("docs/*.md")
	src.IDPattern = ""

	reqs, err := New(nil).Extract(context.Background(), []trace.RequirementSource{src}, base)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestExtract_ZeroDocuments(t *testing.T) {
	base := t.TempDir()
	sources := []trace.RequirementSource{
		storySource("docs/**/*.md"),
		{ID: "specs", Path: "specs/*.md", IDPattern: `(FS-\d+):\s+(.*)`},
	}

	reqs, err := New(nil).Extract(context.Background(), sources, base)
	require.NoError(t, err)
	assert.NotNil(t, reqs)
	assert.Empty(t, reqs)
}

func TestExtract_BadSourceDoesNotAbortOthers(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "docs/a.md", "## US-001: Login works\n")

	sources := []trace.RequirementSource{
		{ID: "broken", Path: "docs/[.md", IDPattern: storyPattern},
		storySource("docs/*.md"),
	}

	reqs, err := New(nil).Extract(context.Background(), sources, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"US-001"}, ids(reqs))
}

func TestExtract_DuplicateIDsAcrossSourcesKept(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "a/stories.md", "## US-001: From A\n")
	writeDoc(t, base, "b/stories.md", "## US-001: From B\n")

	a := storySource("a/*.md")
	b := storySource("b/*.md")
	b.ID = "other"

	reqs, err := New(nil).Extract(context.Background(), []trace.RequirementSource{a, b}, base)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "From A", reqs[0].Title)
	assert.Equal(t, "From B", reqs[1].Title)
}

func TestExtract_Deterministic(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "docs/b.md", "## US-003: Third\n## US-004: Fourth\n")
	writeDoc(t, base, "docs/a.md", "## US-001: First\n## US-002: Second\n")
	writeDoc(t, base, "docs/nested/c.md", "## US-005: Fifth\n")

	ex := New(nil)
	sources := []trace.RequirementSource{storySource("docs/**/*.md")}

	first, err := ex.Extract(context.Background(), sources, base)
	require.NoError(t, err)
	second, err := ex.Extract(context.Background(), sources, base)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"US-001", "US-002", "US-003", "US-004", "US-005"}, ids(first))
}

func TestExtract_InvalidPattern(t *testing.T) {
	src := storySource("docs/*.md")
	src.IDPattern = `(US-\d+`

	_, err := New(nil).Extract(context.Background(), []trace.RequirementSource{src}, t.TempDir())
	var cfgErr *trace.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestExtract_Cancelled(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "docs/a.md", "## US-001: Login works\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).Extract(ctx, []trace.RequirementSource{storySource("docs/*.md")}, base)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_OnlyTopLevelHeadings(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "docs/a.md", "## *US-001*: Emphasis\n\n"+
		"> ## US-002: Quoted\n\n"+
		"- ## US-003: In list\n\n"+
		"## `US-004`: Code **span**\n\n"+
		"## US-005: Plain\n")

	src := storySource("docs/*.md")
	src.IDPattern = `^(US-\d+): (.*)$`

	reqs, err := New(nil).Extract(context.Background(), []trace.RequirementSource{src}, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"US-001", "US-004", "US-005"}, ids(reqs))
	assert.Equal(t, "Emphasis", reqs[0].Title)
	assert.Equal(t, "Code span", reqs[1].Title)
}

func TestExtract_UnreadableFileSkipped(t *testing.T) {
	base := t.TempDir()
	writeDoc(t, base, "docs/a.md", "## US-001: Login works\n")
	require.NoError(t, os.Symlink(filepath.Join(base, "missing.md"), filepath.Join(base, "docs", "b.md")))
	writeDoc(t, base, "docs/c.md", "## US-003: Logout works\n")

	reqs, err := New(nil).Extract(context.Background(), []trace.RequirementSource{storySource("docs/*.md")}, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"US-001", "US-003"}, ids(reqs))
}
