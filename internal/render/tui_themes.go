package render

import "github.com/charmbracelet/lipgloss"

// TUITheme defines the color scheme for the chat interface
type TUITheme struct {
	Name string

	Border    lipgloss.Color
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Error     lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color
}

var (
	// NightTheme suits dark terminals
	NightTheme = TUITheme{
		Name:      "night",
		Border:    lipgloss.Color("#414868"),
		Primary:   lipgloss.Color("#7aa2f7"),
		Secondary: lipgloss.Color("#9ece6a"),
		Accent:    lipgloss.Color("#bb9af7"),
		Error:     lipgloss.Color("#f7768e"),
		Text:      lipgloss.Color("#c0caf5"),
		TextDim:   lipgloss.Color("#565f89"),
	}

	// DayTheme suits light terminals
	DayTheme = TUITheme{
		Name:      "day",
		Border:    lipgloss.Color("#a8aecb"),
		Primary:   lipgloss.Color("#2e7de9"),
		Secondary: lipgloss.Color("#587539"),
		Accent:    lipgloss.Color("#9854f1"),
		Error:     lipgloss.Color("#f52a65"),
		Text:      lipgloss.Color("#3760bf"),
		TextDim:   lipgloss.Color("#848cb5"),
	}
)

// TUIThemeFor picks the palette matching a markdown style, so message
// bubbles and rendered answers agree on background brightness.
func TUIThemeFor(style string) TUITheme {
	switch style {
	case StyleLight:
		return DayTheme
	case StyleAuto:
		if !lipgloss.HasDarkBackground() {
			return DayTheme
		}
	}
	return NightTheme
}
