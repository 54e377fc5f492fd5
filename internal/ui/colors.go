package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors use ANSI codes so they follow the terminal theme.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
	ColorMuted   lipgloss.Color = "8" // Gray (bright black)
)

// spinnerColors cycle while a spinner animates.
var spinnerColors = []lipgloss.Color{
	lipgloss.Color("#FF2E97"),
	lipgloss.Color("#BF40FF"),
	lipgloss.Color("#00FFFF"),
	lipgloss.Color("#39FF14"),
}

// Success renders s in the success color with a check mark.
func Success(s string) string {
	return lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolSuccess) + " " + s
}

// Warn renders s with a warning marker.
func Warn(s string) string {
	return lipgloss.NewStyle().Foreground(ColorWarning).Render(SymbolWarn) + " " + s
}

// Muted renders s in the muted color.
func Muted(s string) string {
	return lipgloss.NewStyle().Foreground(ColorMuted).Render(s)
}
