// Package persona defines the simulated personas and the records that
// accumulate around them: relationships, conversations and messages.
package persona

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TraitMin = 0
	TraitMax = 100
)

// Traits are five independent behavior dimensions, each in [TraitMin, TraitMax].
type Traits struct {
	Creativity     int `json:"creativity" yaml:"creativity"`
	Logic          int `json:"logic" yaml:"logic"`
	Empathy        int `json:"empathy" yaml:"empathy"`
	Curiosity      int `json:"curiosity" yaml:"curiosity"`
	MoodVolatility int `json:"moodVolatility" yaml:"moodVolatility"`
}

// DefaultTraits are the starting values offered by the persona builder.
func DefaultTraits() Traits {
	return Traits{
		Creativity:     50,
		Logic:          50,
		Empathy:        50,
		Curiosity:      50,
		MoodVolatility: 30,
	}
}

// Clamped returns a copy with every dimension forced into range.
func (t Traits) Clamped() Traits {
	return Traits{
		Creativity:     clampTrait(t.Creativity),
		Logic:          clampTrait(t.Logic),
		Empathy:        clampTrait(t.Empathy),
		Curiosity:      clampTrait(t.Curiosity),
		MoodVolatility: clampTrait(t.MoodVolatility),
	}
}

func (t Traits) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"creativity", t.Creativity},
		{"logic", t.Logic},
		{"empathy", t.Empathy},
		{"curiosity", t.Curiosity},
		{"moodVolatility", t.MoodVolatility},
	}
	for _, f := range fields {
		if f.value < TraitMin || f.value > TraitMax {
			return fmt.Errorf("trait %s out of range: %d", f.name, f.value)
		}
	}
	return nil
}

func clampTrait(v int) int {
	return max(TraitMin, min(TraitMax, v))
}

type MoodEntry struct {
	Mood Mood      `json:"mood"`
	At   time.Time `json:"at"`
}

type Persona struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Avatar      string             `json:"avatar"`
	Color       string             `json:"color"`
	Traits      Traits             `json:"traits"`
	Style       CommunicationStyle `json:"communicationStyle"`
	CurrentMood Mood               `json:"currentMood"`
	MoodHistory []MoodEntry        `json:"moodHistory"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Spec carries the builder inputs for a new persona.
type Spec struct {
	Name   string
	Avatar string
	Color  string
	Traits Traits
	Style  CommunicationStyle
}

// New builds a persona from spec. The mood starts at neutral with a single
// seed history entry.
func New(spec Spec, now time.Time) (*Persona, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, fmt.Errorf("persona name is required")
	}
	style := spec.Style
	if style == "" {
		style = StyleCasual
	}
	if !style.Valid() {
		return nil, fmt.Errorf("unknown communication style: %q", style)
	}
	avatar := spec.Avatar
	color := spec.Color
	if avatar == "" {
		avatar = Avatars[0].Glyph
	}
	if color == "" {
		color = ColorFor(avatar)
	}

	at := Stamp(now)
	return &Persona{
		ID:          NewID("persona", at),
		Name:        name,
		Avatar:      avatar,
		Color:       color,
		Traits:      spec.Traits.Clamped(),
		Style:       style,
		CurrentMood: MoodNeutral,
		MoodHistory: []MoodEntry{{Mood: MoodNeutral, At: at}},
		CreatedAt:   at,
	}, nil
}

func (p *Persona) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("persona id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("persona %s: name is required", p.ID)
	}
	if err := p.Traits.Validate(); err != nil {
		return fmt.Errorf("persona %s: %w", p.ID, err)
	}
	if !p.Style.Valid() {
		return fmt.Errorf("persona %s: unknown communication style %q", p.ID, p.Style)
	}
	if !p.CurrentMood.Valid() {
		return fmt.Errorf("persona %s: unknown mood %q", p.ID, p.CurrentMood)
	}
	return nil
}

// SetTraits replaces the trait vector, clamping each dimension.
func (p *Persona) SetTraits(t Traits) {
	p.Traits = t.Clamped()
}

// ShiftMood records a transition to m. It reports whether anything changed.
func (p *Persona) ShiftMood(m Mood, at time.Time) bool {
	if m == p.CurrentMood {
		return false
	}
	p.MoodHistory = append(p.MoodHistory, MoodEntry{Mood: m, At: Stamp(at)})
	p.CurrentMood = m
	return true
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (p *Persona) Clone() *Persona {
	if p == nil {
		return nil
	}
	out := *p
	out.MoodHistory = append([]MoodEntry(nil), p.MoodHistory...)
	return &out
}

// NewID returns "<prefix>-<unix millis>-<random suffix>".
func NewID(prefix string, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s-%d-%s", prefix, at.UnixMilli(), suffix)
}

// Stamp normalizes a timestamp to the millisecond UTC precision that every
// backend round-trips exactly.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
