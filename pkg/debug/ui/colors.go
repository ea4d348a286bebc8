package ui

import "github.com/charmbracelet/lipgloss"

// ColorPalette defines a consistent color scheme
type ColorPalette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
}

var DarkPalette = ColorPalette{
	Primary:   lipgloss.Color("#7C3AED"), // Purple
	Secondary: lipgloss.Color("#06B6D4"), // Cyan
	Success:   lipgloss.Color("#10B981"), // Emerald
	Warning:   lipgloss.Color("#F59E0B"), // Amber
	Error:     lipgloss.Color("#EF4444"), // Red
	Muted:     lipgloss.Color("#94A3B8"), // Slate
}

var LightPalette = ColorPalette{
	Primary:   lipgloss.Color("#5A56E0"),
	Secondary: lipgloss.Color("#EE6FF8"),
	Success:   lipgloss.Color("#02BA84"),
	Warning:   lipgloss.Color("#FF8C00"),
	Error:     lipgloss.Color("#FF5F56"),
	Muted:     lipgloss.Color("#9B9B9B"),
}

func adaptive(light, dark lipgloss.Color) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: string(light), Dark: string(dark)}
}

// Adaptive colors pick the light or dark variant from the terminal
// background.
var (
	PrimaryColor   = adaptive(LightPalette.Primary, DarkPalette.Primary)
	SecondaryColor = adaptive(LightPalette.Secondary, DarkPalette.Secondary)
	SuccessColor   = adaptive(LightPalette.Success, DarkPalette.Success)
	WarningColor   = adaptive(LightPalette.Warning, DarkPalette.Warning)
	ErrorColor     = adaptive(LightPalette.Error, DarkPalette.Error)
	MutedColor     = adaptive(LightPalette.Muted, DarkPalette.Muted)
	FgColor        = lipgloss.AdaptiveColor{Light: "#1E1E2E", Dark: "#CDD6F4"}
)
