package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"personasim/internal/persona"
)

// Roster is a YAML file of persona definitions to import in bulk.
type Roster struct {
	Version  int             `yaml:"version"`
	Personas []RosterPersona `yaml:"personas"`
}

type RosterPersona struct {
	Name   string          `yaml:"name"`
	Avatar string          `yaml:"avatar"`
	Color  string          `yaml:"color"`
	Style  string          `yaml:"style"`
	Traits *persona.Traits `yaml:"traits"`
}

// Spec converts the entry into builder input. Missing traits use the
// builder defaults.
func (r RosterPersona) Spec() persona.Spec {
	traits := persona.DefaultTraits()
	if r.Traits != nil {
		traits = *r.Traits
	}
	avatar := r.Avatar
	if a, ok := persona.LookupAvatar(avatar); ok {
		avatar = a.Glyph
	}
	return persona.Spec{
		Name:   r.Name,
		Avatar: avatar,
		Color:  r.Color,
		Traits: traits,
		Style:  persona.CommunicationStyle(r.Style),
	}
}

func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	return ParseRoster(data)
}

func ParseRoster(data []byte) (*Roster, error) {
	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	if err := validateRoster(&roster); err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	return &roster, nil
}

func validateRoster(r *Roster) error {
	if r.Version != 1 {
		return fmt.Errorf("unsupported roster version: %d", r.Version)
	}
	if len(r.Personas) == 0 {
		return fmt.Errorf("at least one persona is required")
	}

	seen := make(map[string]struct{})
	for i, p := range r.Personas {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("persona %d name is required", i)
		}
		key := strings.ToLower(name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate persona name: %s", name)
		}
		seen[key] = struct{}{}

		if p.Style != "" {
			if _, err := persona.ParseStyle(p.Style); err != nil {
				return fmt.Errorf("persona %s: %w", name, err)
			}
		}
		if p.Traits != nil {
			if err := p.Traits.Validate(); err != nil {
				return fmt.Errorf("persona %s: %w", name, err)
			}
		}
		if p.Avatar != "" {
			if _, ok := persona.LookupAvatar(p.Avatar); !ok {
				return fmt.Errorf("persona %s: unknown avatar %q", name, p.Avatar)
			}
		}
	}
	return nil
}
