package render

import (
	"github.com/charmbracelet/lipgloss"

	"personasim/internal/persona"
)

// palette maps persona color tags to terminal colors for one theme.
type palette struct {
	accent lipgloss.Color
	muted  lipgloss.Color
	tags   map[string]lipgloss.Color
}

var baseTags = map[string]lipgloss.Color{
	"cyan":    lipgloss.Color("#00fff2"),
	"magenta": lipgloss.Color("#ff00ff"),
	"purple":  lipgloss.Color("#a855f7"),
	"green":   lipgloss.Color("#39ff14"),
	"orange":  lipgloss.Color("#ff8c00"),
	"blue":    lipgloss.Color("#3b82f6"),
	"yellow":  lipgloss.Color("#ffdd00"),
	"red":     lipgloss.Color("#ff3355"),
}

var palettes = map[persona.Theme]palette{
	persona.ThemeDark:      {accent: "#00fff2", muted: "#6b7280", tags: baseTags},
	persona.ThemeNeon:      {accent: "#39ff14", muted: "#4b5563", tags: baseTags},
	persona.ThemeCyberpunk: {accent: "#ffdd00", muted: "#9d4edd", tags: baseTags},
	persona.ThemeLight: {accent: "#0369a1", muted: "#64748b", tags: map[string]lipgloss.Color{
		"cyan":    lipgloss.Color("#0e7490"),
		"magenta": lipgloss.Color("#a21caf"),
		"purple":  lipgloss.Color("#7e22ce"),
		"green":   lipgloss.Color("#15803d"),
		"orange":  lipgloss.Color("#c2410c"),
		"blue":    lipgloss.Color("#1d4ed8"),
		"yellow":  lipgloss.Color("#a16207"),
		"red":     lipgloss.Color("#b91c1c"),
	}},
}

func paletteFor(theme persona.Theme) palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[persona.ThemeDark]
}

func (p palette) color(tag string) lipgloss.Color {
	if c, ok := p.tags[tag]; ok {
		return c
	}
	return p.muted
}
