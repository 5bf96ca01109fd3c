package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/render"
	"github.com/matzehuels/gitmorph/pkg/transition"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorDim)

	styleEntering   = lipgloss.NewStyle().Foreground(colorGreen)
	stylePersisting = lipgloss.NewStyle().Foreground(colorWhite)
	styleExiting    = lipgloss.NewStyle().Foreground(colorRed)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+styleWarning.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+styleDim.Render(iconArrow)+" "+styleValue.Render(path))
}

// printWarnings reports build and layout warnings, one line each.
func printWarnings(w io.Writer, warnings []graph.Warning) {
	for _, warn := range warnings {
		printWarning(w, "%s", warn.Message)
	}
}

// printStats prints snapshot statistics on a single line.
func printStats(w io.Writer, commits, links int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d commits", commits),
		fmt.Sprintf("%d links", links),
	}
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	line := "  " + styleDim.Render(strings.Join(parts, " · "))
	line += styleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Fprintln(w, line)
}

// printPlanStats prints a plan summary, one line for nodes and one for links.
func printPlanStats(w io.Writer, st transition.Stats) {
	row := func(label string, entering, persisting, exiting int) string {
		return fmt.Sprintf("  %-6s %s  %s  %s", label,
			styleEntering.Render(fmt.Sprintf("+%d", entering)),
			stylePersisting.Render(fmt.Sprintf("=%d", persisting)),
			styleExiting.Render(fmt.Sprintf("-%d", exiting)))
	}
	fmt.Fprintln(w, row("nodes", st.NodesEntering, st.NodesPersisting, st.NodesExiting))
	fmt.Fprintln(w, row("links", st.LinksEntering, st.LinksPersisting, st.LinksExiting))
}

// =============================================================================
// Tables
// =============================================================================

// commitTable renders commits as a bordered table with refs in their badge
// colours.
func commitTable(commits []commitlog.Commit) string {
	refStyle := func(ref string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(render.RefColor(ref))).Render(ref)
	}
	rows := make([][]string, 0, len(commits))
	for _, c := range commits {
		refs := make([]string, len(c.Refs))
		for i, r := range c.Refs {
			refs[i] = refStyle(r)
		}
		msg := c.Message
		if c.IsStash {
			msg += styleDim.Render(" (stash)")
		}
		rows = append(rows, []string{c.Hash, c.Author, c.Date, strings.Join(refs, ", "), strings.Join(c.Parents, " "), msg})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleDim).
		Headers("HASH", "AUTHOR", "DATE", "REFS", "PARENTS", "MESSAGE").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return s.Bold(true).Foreground(colorCyan)
			case col == 0:
				return s.Foreground(colorYellow)
			}
			return s
		}).
		Rows(rows...).
		String()
}
