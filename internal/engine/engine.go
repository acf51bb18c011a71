// Package engine turns a persona, a scenario prompt and a random source into
// dialogue lines, sentiment scores, mood transitions and relationship deltas.
package engine

import (
	"fmt"
	"time"

	"personasim/internal/persona"
)

const (
	// Traits above this threshold enable the matching text decoration.
	decorationThreshold = 70

	// Sentiment beyond ±shiftThreshold steers a mood shift; inside it a
	// shift always lands on neutral.
	shiftThreshold = 0.5

	empathyBiasWeight = 0.3
)

type Engine struct {
	rng       Rand
	clock     Clock
	templates Templates
}

func New(rng Rand, clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{rng: rng, clock: clock, templates: DefaultTemplates()}
}

// WithTemplates swaps in a custom template matrix.
func (e *Engine) WithTemplates(t Templates) *Engine {
	e.templates = t
	return e
}

// GenerateDialogue picks a line for the persona's style and current mood.
// A creative persona may get sparkle markers; a logical one may get an
// analysis wrapper, always applied after the sparkles. The prompt does not
// influence the line.
func (e *Engine) GenerateDialogue(p *persona.Persona, prompt string) string {
	pool := e.templates.Pool(p.Style, p.CurrentMood)
	if len(pool) == 0 {
		pool = e.templates.Pool(p.Style, persona.MoodNeutral)
	}
	if len(pool) == 0 {
		return "..."
	}
	text := pool[e.rng.IntN(len(pool))]

	if p.Traits.Creativity > decorationThreshold && e.coinFlip() {
		text = fmt.Sprintf("✨ %s ✨", text)
	}
	if p.Traits.Logic > decorationThreshold && e.coinFlip() {
		text = fmt.Sprintf("[Analysis: %s]", text)
	}
	return text
}

// CalculateSentiment returns a random score in [-1, 1] biased by empathy.
// The prompt is accepted but not inspected.
func (e *Engine) CalculateSentiment(traits persona.Traits, prompt string) float64 {
	base := e.rng.Float64()*2 - 1
	bias := float64(traits.Empathy-50) / 100 * empathyBiasWeight
	return clampUnit(base + bias)
}

// CalculateMoodShift decides the persona's next mood. With probability
// MoodVolatility/100 a shift is attempted; strong sentiment picks from the
// positive or negative set and anything in between resets to neutral.
func (e *Engine) CalculateMoodShift(p *persona.Persona, sentiment float64) persona.Mood {
	volatility := float64(p.Traits.MoodVolatility) / 100
	if e.rng.Float64() >= volatility {
		return p.CurrentMood
	}

	switch {
	case sentiment > shiftThreshold:
		return persona.PositiveMoods[e.rng.IntN(len(persona.PositiveMoods))]
	case sentiment < -shiftThreshold:
		return persona.NegativeMoods[e.rng.IntN(len(persona.NegativeMoods))]
	default:
		return persona.MoodNeutral
	}
}

// GeneratePersonaResponse produces one message authored by p. The message
// mood is the mood p ends the turn in. others is currently unused.
func (e *Engine) GeneratePersonaResponse(p *persona.Persona, prompt string, others []*persona.Persona) persona.Message {
	content := e.GenerateDialogue(p, prompt)
	sentiment := e.CalculateSentiment(p.Traits, prompt)
	mood := e.CalculateMoodShift(p, sentiment)

	at := persona.Stamp(e.clock())
	return persona.Message{
		ID:        persona.NewID("msg", at),
		PersonaID: p.ID,
		Content:   content,
		Mood:      mood,
		Timestamp: at,
		Sentiment: sentiment,
	}
}

func (e *Engine) coinFlip() bool {
	return e.rng.Float64() < 0.5
}

func clampUnit(v float64) float64 {
	return max(-1, min(1, v))
}
