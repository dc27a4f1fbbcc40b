// Package ui provides shared styles and key bindings for the installer dialogs.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary    = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorWarning    = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorMuted      = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
	ColorText       = lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"} // Text
	ColorBackground = lipgloss.AdaptiveColor{Light: "#eff1f5", Dark: "#1e1e2e"} // Base
	ColorSurface    = lipgloss.AdaptiveColor{Light: "#e6e9ef", Dark: "#313244"} // Surface0
)

// Styles contains reusable lipgloss styles for the dialogs.
type Styles struct {
	Title     lipgloss.Style
	Paragraph lipgloss.Style
	Warning   lipgloss.Style

	Button       lipgloss.Style
	ButtonActive lipgloss.Style

	Help    lipgloss.Style
	HelpKey lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer())
}

// NewStyles builds the styles on a specific renderer.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1),

		Paragraph: r.NewStyle().
			Foreground(ColorText),

		Warning: r.NewStyle().
			Foreground(ColorWarning),

		Button: r.NewStyle().
			Padding(0, 2).
			Foreground(ColorText).
			Background(ColorSurface).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted),

		ButtonActive: r.NewStyle().
			Padding(0, 2).
			Foreground(ColorBackground).
			Background(ColorPrimary).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary),

		Help: r.NewStyle().
			Foreground(ColorMuted),

		HelpKey: r.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),
	}
}
