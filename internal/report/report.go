// Package report renders a coverage result for people and machines. It
// never recomputes coverage: everything it prints comes from the result.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/google/uuid"
)

// Format selects a renderer.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// Formats lists the accepted --format values.
var Formats = []Format{FormatMarkdown, FormatText, FormatJSON, FormatHTML}

// ParseFormat accepts a format name, including "markdown" for md.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	case FormatText, FormatJSON, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want md, text, json or html)", s)
}

// Meta describes the run a report belongs to.
type Meta struct {
	ConfigPath  string
	RunID       string
	GeneratedAt time.Time
}

// NewMeta stamps a report for configPath with a fresh run id and the
// current time.
func NewMeta(configPath string) Meta {
	return Meta{
		ConfigPath:  configPath,
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
	}
}

// Render writes res to w in the given format.
func Render(w io.Writer, format Format, res *trace.CoverageResult, meta Meta) error {
	switch format {
	case FormatMarkdown:
		return Markdown(w, res, meta)
	case FormatText:
		_, err := fmt.Fprintln(w, Summary(res))
		return err
	case FormatJSON:
		return JSON(w, res, meta)
	case FormatHTML:
		return HTML(w, res, meta)
	}
	return fmt.Errorf("unknown format %q", format)
}

// Summary returns the one-line text summary.
func Summary(res *trace.CoverageResult) string {
	s := res.Summary
	if s.TotalRequirements == 0 {
		return "No requirements found."
	}
	return fmt.Sprintf("Found %d requirement(s) total, %d covered, %.2f%% coverage.",
		s.TotalRequirements, s.CoveredRequirements, s.CoveragePercentage)
}
