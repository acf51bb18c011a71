package engine

import (
	"math"

	"personasim/internal/persona"
)

// CalculateRelationshipChange returns the score delta produced by one
// interaction between a and b. Higher combined empathy amplifies the
// sentiment by up to 2x. Callers merge the delta with Relationship.Apply.
func CalculateRelationshipChange(a, b *persona.Persona, sentiment float64) int {
	empathyFactor := float64(a.Traits.Empathy+b.Traits.Empathy) / 200
	raw := sentiment * (1 + empathyFactor)
	// Halves round toward positive infinity.
	return int(math.Floor(raw*10 + 0.5))
}
