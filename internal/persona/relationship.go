package persona

import "time"

const (
	ScoreMin = -100
	ScoreMax = 100
)

// PairKey identifies an unordered pair of personas. A is always the
// lexically smaller id.
type PairKey struct {
	A string
	B string
}

func NewPairKey(x, y string) PairKey {
	if y < x {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

func (k PairKey) String() string {
	return k.A + "|" + k.B
}

// Other returns the member of the pair that is not id.
func (k PairKey) Other(id string) string {
	if k.A == id {
		return k.B
	}
	return k.A
}

func (k PairKey) Has(id string) bool {
	return k.A == id || k.B == id
}

type Relationship struct {
	PersonaA        string    `json:"personaA"`
	PersonaB        string    `json:"personaB"`
	Score           int       `json:"score"`
	Interactions    int       `json:"interactions"`
	LastInteraction time.Time `json:"lastInteraction"`
}

// NewRelationship returns a zero-score record for the pair, already normalized.
func NewRelationship(x, y string) *Relationship {
	key := NewPairKey(x, y)
	return &Relationship{PersonaA: key.A, PersonaB: key.B}
}

func (r *Relationship) Key() PairKey {
	return NewPairKey(r.PersonaA, r.PersonaB)
}

// Normalize orders the pair so that it matches its PairKey.
func (r *Relationship) Normalize() {
	key := r.Key()
	r.PersonaA, r.PersonaB = key.A, key.B
}

// Apply merges one interaction's delta into the running score.
func (r *Relationship) Apply(delta int, at time.Time) {
	r.Score = ClampScore(r.Score + delta)
	r.Interactions++
	r.LastInteraction = Stamp(at)
}

func ClampScore(v int) int {
	return max(ScoreMin, min(ScoreMax, v))
}
