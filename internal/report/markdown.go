package report

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dusk-indust/spectrace/internal/trace"
)

const barWidth = 20

// typePrefix extracts the requirement type from ids such as US-001.
var typePrefix = regexp.MustCompile(`([A-Za-z]+)-\d+`)

// Markdown writes the full coverage report.
func Markdown(w io.Writer, res *trace.CoverageResult, meta Meta) error {
	_, err := io.WriteString(w, markdown(res, meta))
	return err
}

func markdown(res *trace.CoverageResult, meta Meta) string {
	var sb strings.Builder
	s := res.Summary

	sb.WriteString("# Specification Coverage Report\n\n")
	if meta.ConfigPath != "" {
		fmt.Fprintf(&sb, "Configuration: `%s`\n\n", meta.ConfigPath)
	}

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "%s **Coverage: %.2f%%** `%s`\n\n", marker(s.CoveragePercentage), s.CoveragePercentage, bar(s.CoveragePercentage))
	fmt.Fprintf(&sb, "- **Total Requirements:** %d\n", s.TotalRequirements)
	fmt.Fprintf(&sb, "- **Covered Requirements:** %d\n", s.CoveredRequirements)
	fmt.Fprintf(&sb, "- **Uncovered Requirements:** %d\n\n", s.Uncovered())

	if len(res.Requirements) == 0 {
		sb.WriteString("**No requirements found.**\n")
		return sb.String()
	}

	groups := groupByType(res.Requirements)

	sb.WriteString("## Requirements\n\n")
	sb.WriteString("### Table of Contents\n\n")
	for _, g := range groups {
		pct := g.percentage()
		fmt.Fprintf(&sb, "- [%s (%s %d%%)](#%s)\n", g.name, marker(pct), roundPct(pct), strings.ToLower(g.name))
	}
	sb.WriteString("\n")

	for _, g := range groups {
		writeGroup(&sb, g)
	}

	if uncovered := res.UncoveredRequirements(); len(uncovered) > 0 {
		sb.WriteString("## Uncovered Requirements\n\n")
		sb.WriteString("The following requirements have no associated tests:\n\n")
		for _, r := range uncovered {
			fmt.Fprintf(&sb, "- %s: %s (_in %s_)\n", r.ID, r.Title, filepath.Base(r.FilePath))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "Report generated on: %s\n", meta.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	return sb.String()
}

type group struct {
	name string
	reqs []trace.RequirementCoverage
}

func (g group) percentage() float64 {
	covered := 0
	for _, r := range g.reqs {
		if r.Covered {
			covered++
		}
	}
	return float64(covered) / float64(len(g.reqs)) * 100
}

// groupByType buckets requirements by id prefix in order of first
// appearance. Ids without a prefix land in "Other".
func groupByType(reqs []trace.RequirementCoverage) []group {
	var groups []group
	index := make(map[string]int)
	for _, r := range reqs {
		name := "Other"
		if m := typePrefix.FindStringSubmatch(r.ID); m != nil {
			name = m[1]
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, group{name: name})
		}
		groups[i].reqs = append(groups[i].reqs, r)
	}
	return groups
}

func writeGroup(sb *strings.Builder, g group) {
	pct := g.percentage()
	fmt.Fprintf(sb, "### %s %s %d%%\n\n", g.name, marker(pct), roundPct(pct))
	sb.WriteString("| ID | Title | Status | Source | Linked Tests |\n")
	sb.WriteString("|:---|:------|:-------|:-------|:------------|\n")
	for _, r := range g.reqs {
		status := "❌ Not Covered"
		if r.Covered {
			status = "✅ Covered"
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s | %s |\n",
			cell(r.ID), cell(r.Title), status, cell(sourceDisplay(r.FilePath)), linkedTests(r.LinkedTests))
	}
	sb.WriteString("\n")
}

func linkedTests(links []trace.TestIdentifier) string {
	if len(links) == 0 {
		return "-"
	}
	var sb strings.Builder
	for _, l := range links {
		fmt.Fprintf(&sb, "- %s#%s<br/>", filepath.Base(l.FilePath), cell(l.CaseName))
	}
	return sb.String()
}

// sourceDisplay shortens a document path to its parent dir and name.
func sourceDisplay(path string) string {
	name := filepath.Base(path)
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return name
	}
	return dir + "/" + name
}

// cell escapes pipes so table rows keep their shape.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// marker is the traffic-light emoji for a percentage.
func marker(pct float64) string {
	switch {
	case pct >= 75:
		return "🟢"
	case pct >= 50:
		return "🟡"
	default:
		return "🔴"
	}
}

func bar(pct float64) string {
	filled := int(math.Round(pct / 100 * barWidth))
	filled = max(0, min(barWidth, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func roundPct(pct float64) int {
	return int(math.Round(pct))
}
