package viz

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(46)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle = lipgloss.NewStyle().Padding(1, 0)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true).MarginTop(1)

	statusStyles = map[string]lipgloss.Style{
		statusReady:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff")),
		statusRunning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88")),
		statusPaused:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00")),
		statusFinished: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444")),
	}

	sparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	sparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	sparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// GradientText colors each rune of text on a line between two hex colors.
func GradientText(text string, startColor, endColor lipgloss.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	sr, sg, sb := parseHex(string(startColor))
	er, eg, eb := parseHex(string(endColor))

	var out strings.Builder
	for i, c := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		r := sr + int(t*float64(er-sr))
		g := sg + int(t*float64(eg-sg))
		b := sb + int(t*float64(eb-sb))
		out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(r, g, b))).Render(string(c)))
	}
	return out.String()
}

// ProgressBar renders a fraction in [0, 1] as a bar of the given width.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return sparkHigh.Render(bar)
	case fraction > 0.4:
		return sparkMid.Render(bar)
	}
	return sparkLow.Render(bar)
}

// SparklineChart renders the most recent width values as a one-line chart.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var out strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			out.WriteString(sparkHigh.Render(c))
		case norm > 0.3:
			out.WriteString(sparkMid.Render(c))
		default:
			out.WriteString(sparkLow.Render(c))
		}
	}
	return out.String()
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 255, 255, 255
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func hexColor(r, g, b int) string {
	clamp := func(v int) int { return min(max(v, 0), 255) }
	return "#" + hexByte(clamp(r)) + hexByte(clamp(g)) + hexByte(clamp(b))
}

func hexByte(v int) string {
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
