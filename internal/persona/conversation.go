package persona

import (
	"fmt"
	"time"
)

// Message is immutable once created.
type Message struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	Content   string    `json:"content"`
	Mood      Mood      `json:"mood"`
	Timestamp time.Time `json:"timestamp"`
	Sentiment float64   `json:"sentiment"`
}

type Conversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	Messages     []Message `json:"messages"`
	ScenarioID   string    `json:"scenario,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
}

func NewConversation(participants []string, scenarioID string, now time.Time) *Conversation {
	at := Stamp(now)
	return &Conversation{
		ID:           fmt.Sprintf("conv-%d", at.UnixMilli()),
		Participants: append([]string(nil), participants...),
		Messages:     []Message{},
		ScenarioID:   scenarioID,
		StartedAt:    at,
	}
}

func (c *Conversation) HasParticipant(id string) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.Messages = append([]Message{}, c.Messages...)
	return &out
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Category string

const (
	CategoryCollaboration Category = "collaboration"
	CategoryConflict      Category = "conflict"
	CategoryCreative      Category = "creative"
	CategoryAdventure     Category = "adventure"
)

// Scenario is pre-authored, read-only reference data.
type Scenario struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Icon        string     `json:"icon" yaml:"icon"`
	Prompts     []string   `json:"prompts" yaml:"prompts"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Category    Category   `json:"category" yaml:"category"`
}

// Prompt returns the prompt at cursor, cycling through the list.
func (s *Scenario) Prompt(cursor int) string {
	if len(s.Prompts) == 0 {
		return ""
	}
	return s.Prompts[cursor%len(s.Prompts)]
}

type Theme string

const (
	ThemeDark      Theme = "dark"
	ThemeNeon      Theme = "neon"
	ThemeLight     Theme = "light"
	ThemeCyberpunk Theme = "cyberpunk"
)

var Themes = []Theme{ThemeDark, ThemeNeon, ThemeLight, ThemeCyberpunk}

func ParseTheme(s string) (Theme, error) {
	for _, t := range Themes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme: %q", s)
}

// PreferencesKey is the single settings key holding Preferences.
const PreferencesKey = "preferences"

type Preferences struct {
	Theme Theme `json:"theme"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeDark}
}
