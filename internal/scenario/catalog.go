// Package scenario holds the pre-authored scenario catalog.
package scenario

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"personasim/internal/persona"
)

//go:embed scenarios.yaml
var embeddedScenarios []byte

type Catalog struct {
	Scenarios []*persona.Scenario `yaml:"scenarios"`
}

// NewCatalog parses the embedded catalog.
func NewCatalog() (*Catalog, error) {
	return Parse(embeddedScenarios)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing scenario catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("parsing scenario catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]struct{}, len(c.Scenarios))
	for i, s := range c.Scenarios {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("scenario %d id is required", i)
		}
		if _, exists := seen[s.ID]; exists {
			return fmt.Errorf("duplicate scenario id: %s", s.ID)
		}
		seen[s.ID] = struct{}{}
		if len(s.Prompts) == 0 {
			return fmt.Errorf("scenario %s has no prompts", s.ID)
		}
		switch s.Difficulty {
		case persona.DifficultyEasy, persona.DifficultyMedium, persona.DifficultyHard:
		default:
			return fmt.Errorf("scenario %s: invalid difficulty %q", s.ID, s.Difficulty)
		}
		switch s.Category {
		case persona.CategoryCollaboration, persona.CategoryConflict, persona.CategoryCreative, persona.CategoryAdventure:
		default:
			return fmt.Errorf("scenario %s: invalid category %q", s.ID, s.Category)
		}
	}
	return nil
}

func (c *Catalog) All() []*persona.Scenario {
	if c == nil {
		return nil
	}
	return c.Scenarios
}

// Get returns the scenario with id, or nil.
func (c *Catalog) Get(id string) *persona.Scenario {
	if c == nil {
		return nil
	}
	for _, s := range c.Scenarios {
		if s.ID == id {
			return s
		}
	}
	return nil
}
