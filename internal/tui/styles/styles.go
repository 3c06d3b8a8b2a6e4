package styles

import "github.com/charmbracelet/lipgloss"

// Score and severity colors.
var (
	ColorGood   = lipgloss.Color("#00CC00")
	ColorFair   = lipgloss.Color("#FFCC00")
	ColorPoor   = lipgloss.Color("#FF0000")
	ColorHigh   = lipgloss.Color("#FF6600")
	ColorInfo   = lipgloss.Color("#0099FF")
	ColorMuted  = lipgloss.Color("#666666")
	ColorAccent = lipgloss.Color("#7D56F4")
)

// Styles used across TUI views.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(ColorAccent).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			MarginBottom(1)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 2)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorPoor).
			Bold(true)

	ActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPoor)
	InactiveStyle = lipgloss.NewStyle().Foreground(ColorGood)

	scoreGoodStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorGood)
	scoreFairStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorFair)
	scorePoorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPoor)

	severityHighStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPoor)
	severityMediumStyle = lipgloss.NewStyle().Foreground(ColorHigh)
	severityLowStyle    = lipgloss.NewStyle().Foreground(ColorInfo)
)

// ScoreStyle returns the style for a percentage score. Negative scores mean
// "no metrics" and are muted.
func ScoreStyle(percent int) lipgloss.Style {
	switch {
	case percent < 0:
		return HelpStyle
	case percent >= 80:
		return scoreGoodStyle
	case percent >= 50:
		return scoreFairStyle
	default:
		return scorePoorStyle
	}
}

// SeverityStyle returns the style for a metric severity weight.
func SeverityStyle(severity int) lipgloss.Style {
	switch {
	case severity >= 4:
		return severityHighStyle
	case severity >= 2:
		return severityMediumStyle
	default:
		return severityLowStyle
	}
}
