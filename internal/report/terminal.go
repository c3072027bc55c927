package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dusk-indust/spectrace/internal/trace"
	"golang.org/x/term"
)

// Theme holds the styles for terminal output.
type Theme struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
}

// DefaultTheme is the colored theme.
func DefaultTheme() Theme {
	return Theme{
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),  // green
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("242")), // gray
		Bold:    lipgloss.NewStyle().Bold(true),
	}
}

// MonoTheme has no colors.
func MonoTheme() Theme {
	return Theme{
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle(),
		Bold:    lipgloss.NewStyle(),
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Terminal writes a styled summary: the coverage bar followed by each
// uncovered requirement.
func Terminal(w io.Writer, res *trace.CoverageResult, theme Theme) error {
	s := res.Summary
	var sb strings.Builder

	if s.TotalRequirements == 0 {
		sb.WriteString(theme.Muted.Render("No requirements found.") + "\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	style := theme.Error
	switch {
	case s.CoveragePercentage >= 75:
		style = theme.Success
	case s.CoveragePercentage >= 50:
		style = theme.Warning
	}
	fmt.Fprintf(&sb, "%s %s %s\n",
		theme.Bold.Render("Coverage"),
		style.Render(fmt.Sprintf("%6.2f%%", s.CoveragePercentage)),
		style.Render(bar(s.CoveragePercentage)))
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("%d of %d requirement(s) covered", s.CoveredRequirements, s.TotalRequirements)) + "\n")

	for _, r := range res.UncoveredRequirements() {
		fmt.Fprintf(&sb, "  %s %s %s\n",
			theme.Error.Render("✗"),
			theme.Bold.Render(r.ID),
			theme.Muted.Render(r.Title))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
