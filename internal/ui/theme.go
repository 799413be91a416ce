package ui

import "github.com/charmbracelet/lipgloss"

// Theme styles the browse tree. Divider is for the letter/decade headers,
// Container for artist and album rows, Song for leaf rows.
type Theme struct {
	Name      string
	Title     lipgloss.Style
	Divider   lipgloss.Style
	Container lipgloss.Style
	Song      lipgloss.Style
	Selected  lipgloss.Style
	Dim       lipgloss.Style
	Error     lipgloss.Style
	Status    lipgloss.Style
}

var themeRegistry = map[string]func(bool) Theme{
	"crate":   Crate,
	"mono":    Monochrome,
	"nocolor": NoColor,
}

// ThemeNames returns the list of available theme names.
func ThemeNames() []string {
	return []string{"crate", "mono", "nocolor"}
}

// GetTheme returns a theme by name. Returns Crate if name not found.
func GetTheme(name string, noColor bool) Theme {
	if noColor {
		return NoColor(noColor)
	}
	if fn, ok := themeRegistry[name]; ok {
		return fn(noColor)
	}
	return Crate(noColor)
}

// ValidTheme returns true if the theme name is valid.
func ValidTheme(name string) bool {
	_, ok := themeRegistry[name]
	return ok
}

// Crate is the default theme.
func Crate(noColor bool) Theme {
	if noColor {
		return NoColor(noColor)
	}
	return Theme{
		Name:      "crate",
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color("#8EEBFF")).Bold(true),
		Divider:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")).Bold(true),
		Container: lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E6FA")),
		Song:      lipgloss.NewStyle().Foreground(lipgloss.Color("#A8B2D1")),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA7C4")).Bold(true).Reverse(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6F93")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56")).Bold(true),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("#7C7CFF")),
	}
}

// Monochrome is a grayscale theme.
func Monochrome(noColor bool) Theme {
	if noColor {
		return NoColor(noColor)
	}
	return Theme{
		Name:      "mono",
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true),
		Divider:   lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Bold(true),
		Container: lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
		Song:      lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Reverse(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Underline(true),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	}
}

// NoColor is a high-contrast theme for NO_COLOR environments.
// Uses only bold, underline, and reverse instead of colors.
func NoColor(_ bool) Theme {
	reset := lipgloss.NewStyle()
	return Theme{
		Name:      "nocolor",
		Title:     reset.Bold(true),
		Divider:   reset.Bold(true).Underline(true),
		Container: reset,
		Song:      reset,
		Selected:  reset.Reverse(true),
		Dim:       reset,
		Error:     reset.Bold(true),
		Status:    reset,
	}
}
