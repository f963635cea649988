package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/query"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

var (
	colorAccent  = lipgloss.Color("#2CD7C7")
	colorMuted   = lipgloss.Color("#6C7A89")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
)

var styles = struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Label:   lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1),
}

// renderState prints the competitors and graph totals of a session.
func renderState(view workflow.StateView) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(view.Company))
	fmt.Fprintf(&b, " %s\n", styles.Muted.Render(fmt.Sprintf("(%s, %.0f%%)", view.State, view.Progress*100)))

	for _, c := range view.Competitors {
		line := fmt.Sprintf("  • %s %s", styles.Label.Render(c.Name), styles.Muted.Render(string(c.State)))
		if c.Rationale != "" {
			line += " " + c.Rationale
		}
		if c.Error != "" {
			line += " " + styles.Error.Render(c.Error)
		}
		b.WriteString(line + "\n")
	}

	fmt.Fprintf(&b, "%s %d nodes, %d edges\n", styles.Label.Render("Graph:"), view.Graph.Nodes, view.Graph.Edges)
	for _, t := range sortedKeys(view.Graph.NodesByType) {
		fmt.Fprintf(&b, "  %s %d\n", t, view.Graph.NodesByType[t])
	}
	for _, t := range sortedKeys(view.Graph.EdgesByType) {
		fmt.Fprintf(&b, "  %s %d\n", t, view.Graph.EdgesByType[t])
	}
	return styles.Box.Render(strings.TrimRight(b.String(), "\n"))
}

func renderClassification(question string, c query.Classification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", styles.Label.Render("Question:"), question)
	fmt.Fprintf(&b, "%s %s\n", styles.Label.Render("Route:"), c.Route)
	if c.Category != query.CategoryNone {
		fmt.Fprintf(&b, "%s %s\n", styles.Label.Render("Category:"), c.Category)
	}
	if len(c.Keywords) > 0 {
		fmt.Fprintf(&b, "%s %s\n", styles.Label.Render("Keywords:"), strings.Join(c.Keywords, ", "))
	}
	return b.String()
}

func renderAnswer(a query.Answer) string {
	meta := string(a.Route)
	if a.Classification.Category != query.CategoryNone {
		meta += "/" + string(a.Classification.Category)
	}
	out := styles.Muted.Render("["+meta+"]") + " " + a.Text
	if a.Fallback() {
		out += "\n" + styles.Warning.Render("fallback: "+a.FallbackReason)
	}
	return out
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
