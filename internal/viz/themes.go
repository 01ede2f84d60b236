package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the live view. Racer and Rival tint creature 1 and 2.
type Theme struct {
	Name   string
	Title  lipgloss.Color
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Racer  lipgloss.Color
	Rival  lipgloss.Color
	Finish lipgloss.Color
}

var (
	ThemeNeon = Theme{
		Name:   "neon",
		Title:  lipgloss.Color("#00ffff"),
		Accent: lipgloss.Color("#ff00ff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#666688"),
		Racer:  lipgloss.Color("#00ff88"),
		Rival:  lipgloss.Color("#ff44aa"),
		Finish: lipgloss.Color("#ff4444"),
	}

	ThemePaddock = Theme{
		Name:   "paddock",
		Title:  lipgloss.Color("#88ff88"),
		Accent: lipgloss.Color("#ffff00"),
		Text:   lipgloss.Color("#ccffcc"),
		Muted:  lipgloss.Color("#3a6b3a"),
		Racer:  lipgloss.Color("#00ff00"),
		Rival:  lipgloss.Color("#ffaa00"),
		Finish: lipgloss.Color("#ff0000"),
	}

	ThemeChalk = Theme{
		Name:   "chalk",
		Title:  lipgloss.Color("#ffffff"),
		Accent: lipgloss.Color("#0088ff"),
		Text:   lipgloss.Color("#eeeeee"),
		Muted:  lipgloss.Color("#888888"),
		Racer:  lipgloss.Color("#ffffff"),
		Rival:  lipgloss.Color("#0088ff"),
		Finish: lipgloss.Color("#ffaa00"),
	}

	CurrentTheme = ThemeNeon

	Themes = []Theme{ThemeNeon, ThemePaddock, ThemeChalk}
)

// GetTheme returns a theme by name, falling back to neon.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeNeon
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
	SetTheme(names[0])
}
