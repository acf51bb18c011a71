package engine

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"personasim/internal/persona"
)

//go:embed templates.yaml
var embeddedTemplates []byte

// Templates maps (communication style, mood) to a pool of candidate lines.
type Templates map[persona.CommunicationStyle]map[persona.Mood][]string

// LoadTemplates parses a template matrix and checks that every style and
// mood combination has at least one line.
func LoadTemplates(data []byte) (Templates, error) {
	var doc struct {
		Templates Templates `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing dialogue templates: %w", err)
	}
	for _, style := range persona.Styles {
		moods, ok := doc.Templates[style]
		if !ok {
			return nil, fmt.Errorf("dialogue templates: missing style %s", style)
		}
		for _, mood := range persona.Moods {
			if len(moods[mood]) == 0 {
				return nil, fmt.Errorf("dialogue templates: empty pool for %s/%s", style, mood)
			}
		}
	}
	return doc.Templates, nil
}

// DefaultTemplates returns the built-in 5x8 matrix.
func DefaultTemplates() Templates {
	t, err := LoadTemplates(embeddedTemplates)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Templates) Pool(style persona.CommunicationStyle, mood persona.Mood) []string {
	return t[style][mood]
}
