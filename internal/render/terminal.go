package render

import (
	"fmt"
	"strings"

	"assistant-client/internal/health"
	"assistant-client/internal/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	answerBoldStyle = lipgloss.NewStyle().Bold(true)

	citationRefStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")) // Cyan

	sourcesTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("255")). // White
				MarginTop(1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim

	tierStyles = map[Tier]lipgloss.Style{
		TierHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),  // Green
		TierMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true), // Yellow
		TierLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Red
	}

	statusStyles = map[health.Tier]lipgloss.Style{
		health.TierHealthy: tierStyles[TierHigh],
		health.TierWarning: tierStyles[TierMedium],
		health.TierError:   tierStyles[TierLow],
	}
)

// TerminalAnswer is the REPL counterpart of FormatAnswer: markers are styled
// instead of turned into tags, and nothing is escaped.
func TerminalAnswer(answer string) string {
	out := citationMarker.ReplaceAllStringFunc(answer, func(m string) string {
		return citationRefStyle.Render(m)
	})
	return boldMarker.ReplaceAllStringFunc(out, func(m string) string {
		return answerBoldStyle.Render(boldMarker.FindStringSubmatch(m)[1])
	})
}

// Terminal renders resp for a terminal.
func Terminal(resp *model.QueryResponse) string {
	v := Response(resp)

	var b strings.Builder
	b.WriteString(TerminalAnswer(resp.Answer))
	b.WriteString("\n")

	if v.Confidence != nil {
		style := tierStyles[v.Confidence.Tier]
		b.WriteString(style.Render("Confidence: " + v.Confidence.Percent))
		b.WriteString("\n")
	}

	if len(v.Citations) > 0 {
		b.WriteString(sourcesTitleStyle.Render("Sources:"))
		b.WriteString("\n")
		for _, c := range v.Citations {
			fmt.Fprintf(&b, "  [%d] %s %s%s %s\n",
				c.Number, c.ProductName, c.DocumentType, c.Section, dimStyle.Render(c.Relevance))
		}
	}

	if v.Processing != nil {
		b.WriteString(dimStyle.Render(v.Processing.String()))
		b.WriteString("\n")
	}

	return b.String()
}

// TerminalStatus renders a health report one subsystem per line.
func TerminalStatus(report health.Report) string {
	var b strings.Builder
	b.WriteString(sourcesTitleStyle.Render("System Status"))
	b.WriteString("\n")
	for _, s := range report.Subsystems {
		style := statusStyles[s.Tier]
		fmt.Fprintf(&b, "  %s %-16s %s\n", style.Render("●"), s.Label, dimStyle.Render(s.State))
	}
	if !report.Reachable {
		b.WriteString(statusStyles[health.TierError].Render("API unreachable"))
		b.WriteString("\n")
	}
	return b.String()
}

// TerminalStats renders the running session statistics.
func TerminalStats(stats model.SessionStats, sessionID string) string {
	if sessionID == "" {
		sessionID = "none"
	}
	return fmt.Sprintf("Queries: %d  Avg Confidence: %s  Session: %s\n",
		stats.TotalQueries, Percent(stats.AvgConfidence), dimStyle.Render(sessionID))
}
