package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"personasim/internal/persona"
	"personasim/internal/store"
)

var now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestRenderer(buf *bytes.Buffer) *Renderer {
	return New(buf, persona.ThemeDark).WithClock(func() time.Time { return now })
}

func TestMessage(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf)
	author := &persona.Persona{ID: "p1", Name: "Nova", Avatar: "🦉", Color: "blue"}

	r.Message(author, persona.Message{PersonaID: "p1", Content: "Hello there", Mood: persona.MoodHappy})
	r.Message(nil, persona.Message{PersonaID: "gone", Content: "Still here", Mood: persona.MoodSad})

	out := buf.String()
	for _, want := range []string{"🦉 Nova", "Hello there", "gone", "Still here"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected plain text for a non-terminal writer")
	}
}

func TestRelationships(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf)
	rels := []*persona.Relationship{{
		PersonaA:        "a",
		PersonaB:        "b",
		Score:           55,
		Interactions:    3,
		LastInteraction: now.Add(-2 * time.Hour),
	}}
	r.Relationships(rels, map[string]string{"a": "Ada"})

	out := buf.String()
	for _, want := range []string{"Ada ↔ b", "+55 close", "3 interactions", "2 hours ago"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestBond(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "close"},
		{50, "close"},
		{20, "friendly"},
		{0, "neutral"},
		{-19, "neutral"},
		{-20, "tense"},
		{-50, "hostile"},
	}
	for _, tt := range tests {
		if got := Bond(tt.score); got != tt.want {
			t.Fatalf("Bond(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestEmptyListings(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf)
	r.Personas(nil)
	r.Relationships(nil, nil)
	r.Conversations(nil)

	out := buf.String()
	for _, want := range []string{"No personas yet.", "No relationships yet.", "No saved conversations."} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPersonaDetail(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf)
	p := &persona.Persona{
		ID:          "p1",
		Name:        "Nova",
		Avatar:      "🦉",
		Color:       "blue",
		Traits:      persona.Traits{Creativity: 100, Logic: 0, Empathy: 50, Curiosity: 50, MoodVolatility: 30},
		Style:       persona.StyleAnalytical,
		CurrentMood: persona.MoodCurious,
		MoodHistory: []persona.MoodEntry{{Mood: persona.MoodNeutral, At: now}, {Mood: persona.MoodCurious, At: now}},
		CreatedAt:   now.Add(-24 * time.Hour),
	}
	rels := []*persona.Relationship{{PersonaA: "p0", PersonaB: "p1", Score: -30}}
	r.PersonaDetail(p, rels, map[string]string{"p0": "Pip"})

	out := buf.String()
	for _, want := range []string{"analytical", "1 day ago", "creativity", strings.Repeat("█", 20), "Pip", "tense", "mood history (2)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPaletteFallback(t *testing.T) {
	if paletteFor("sepia").accent != palettes[persona.ThemeDark].accent {
		t.Fatalf("expected unknown theme to fall back to dark")
	}
	if paletteFor(persona.ThemeLight).color("unknown") != palettes[persona.ThemeLight].muted {
		t.Fatalf("expected unknown tag to use the muted color")
	}
}

func TestSearchHits(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf)
	r.SearchHits([]store.SearchHit{{
		ConversationID: "conv-1",
		PersonaID:      "p1",
		Snippet:        "the **anomaly** ahead",
	}}, map[string]string{"p1": "Nova"})

	out := buf.String()
	if !strings.Contains(out, "conv-1 Nova: the anomaly ahead") {
		t.Fatalf("expected highlighted snippet without markers:\n%s", out)
	}

	buf.Reset()
	r.SearchHits(nil, nil)
	if !strings.Contains(buf.String(), "No matching messages.") {
		t.Fatalf("expected empty notice, got %q", buf.String())
	}
}
