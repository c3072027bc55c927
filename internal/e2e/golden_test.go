//go:build e2e

package e2e

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dusk-indust/spectrace/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "update golden files")

// goldenPath returns the path to the webshop report golden file.
func goldenPath() string {
	return filepath.Join("..", "..", "testdata", "golden", "webshop_report.md")
}

// renderFixture renders the webshop Markdown report with fixed metadata so
// the output is byte-stable.
func renderFixture(t *testing.T) []byte {
	t.Helper()
	meta := report.Meta{
		RunID:       "golden",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	var buf bytes.Buffer
	require.NoError(t, report.Markdown(&buf, measureFixture(t), meta))
	return buf.Bytes()
}

// TestGolden compares the Markdown report against the golden file. If the
// golden file does not exist, the test is skipped with a message to run with
// -update.
func TestGolden(t *testing.T) {
	golden, err := os.ReadFile(goldenPath())
	if os.IsNotExist(err) {
		t.Skip("golden file not found; run with -update to generate")
	}
	require.NoError(t, err)

	assert.Equal(t, string(golden), string(renderFixture(t)))
}

// TestUpdateGolden regenerates the golden file from the current output.
// Run with: go test -tags e2e -run TestUpdateGolden ./internal/e2e/ -update
func TestUpdateGolden(t *testing.T) {
	if !*update {
		t.Skip("skipping golden file update; run with -update flag")
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath()), 0o755))
	require.NoError(t, os.WriteFile(goldenPath(), renderFixture(t), 0o644))
	t.Logf("updated %s", goldenPath())
}
