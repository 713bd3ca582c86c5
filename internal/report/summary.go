package report

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// Color palette.
var (
	colorGreen  = lipgloss.Color("#04B575")
	colorRed    = lipgloss.Color("#FF4672")
	colorYellow = lipgloss.Color("#FDFF90")
	colorCyan   = lipgloss.Color("#00E5FF")
	colorSubtle = lipgloss.Color("#626262")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	okStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	reviewStyle  = lipgloss.NewStyle().Foreground(colorYellow)
	badStyle     = lipgloss.NewStyle().Foreground(colorRed)
	subtleStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

// RenderSummary renders the finalized counts as a styled terminal block.
// With color false, plain text is emitted (non-TTY or piped output).
func RenderSummary(s Summary, color bool) string {
	style := func(st lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return st.Render(text)
	}

	var b strings.Builder

	b.WriteString(style(titleStyle, "fleetcheck run summary"))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("  targeted:      %d\n", s.Targeted))
	b.WriteString("  " + style(okStyle, fmt.Sprintf("reachable:     %d", s.Reachable)) + "\n")
	b.WriteString("  " + style(badStyle, fmt.Sprintf("unreachable:   %d", s.Unreachable)) + "\n")
	b.WriteString("  " + style(okStyle, fmt.Sprintf("done:          %d", s.Done)) + "\n")
	b.WriteString("  " + style(reviewStyle, fmt.Sprintf("review needed: %d", s.ReviewNeeded)) + "\n")
	b.WriteString("  " + style(badStyle, fmt.Sprintf("not done:      %d", s.NotDone)) + "\n")
	b.WriteString("  " + style(subtleStyle, fmt.Sprintf("elapsed:       %s", s.Elapsed.Round(timeRounding))) + "\n")

	if s.Warning != nil {
		b.WriteString(style(warningStyle, "warning: "+s.Warning.Error()))
		b.WriteString("\n")
	}

	return b.String()
}
