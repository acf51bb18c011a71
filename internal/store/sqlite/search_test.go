package sqlite

import (
	"context"
	"testing"
	"time"

	"personasim/internal/persona"
)

func TestFTSQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single term", input: "anomaly", expected: `"anomaly"`},
		{name: "adjacent terms", input: "ship anomaly", expected: `"ship" AND "anomaly"`},
		{name: "explicit OR", input: "ship or planet", expected: `"ship" OR "planet"`},
		{name: "exclusion", input: "ship -alien", expected: `"ship" NOT "alien"`},
		{name: "leading exclusion dropped", input: "-alien ship", expected: `"ship"`},
		{name: "phrase", input: `"first contact" crew`, expected: `"first contact" AND "crew"`},
		{name: "prefix", input: "explor*", expected: `"explor"*`},
		{name: "punctuation is quoted", input: "what's", expected: `"what's"`},
		{name: "dangling operators", input: "OR ship AND", expected: `"ship"`},
		{name: "empty", input: "   ", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ftsQuery(tt.input); got != tt.expected {
				t.Fatalf("ftsQuery(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSearchMessages(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

	conv := persona.NewConversation([]string{"persona-a", "persona-b"}, "space-expedition", at)
	conv.Messages = []persona.Message{
		{ID: "msg-1", PersonaID: "persona-a", Content: "The anomaly ahead looks like a wormhole.", Mood: persona.MoodCurious, Timestamp: at},
		{ID: "msg-2", PersonaID: "persona-b", Content: "Let's chart a course around the nebula.", Mood: persona.MoodCalm, Timestamp: at},
	}
	if err := c.PutConversation(ctx, conv); err != nil {
		t.Fatalf("put conversation: %v", err)
	}
	// A second put must not duplicate index rows.
	if err := c.PutConversation(ctx, conv); err != nil {
		t.Fatalf("put conversation again: %v", err)
	}

	hits, err := c.SearchMessages(ctx, "anomaly")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].MessageID != "msg-1" || hits[0].ConversationID != conv.ID {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].Snippet == "" || hits[0].PersonaID != "persona-a" {
		t.Fatalf("expected snippet and author, got %+v", hits[0])
	}

	hits, err = c.SearchMessages(ctx, "anomaly OR nebula")
	if err != nil || len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d, %v", len(hits), err)
	}

	if err := c.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	hits, err = c.SearchMessages(ctx, "anomaly")
	if err != nil || len(hits) != 0 {
		t.Fatalf("expected no hits after delete, got %d, %v", len(hits), err)
	}

	if _, err := c.SearchMessages(ctx, "  "); err == nil {
		t.Fatalf("expected error for empty query")
	}
}
