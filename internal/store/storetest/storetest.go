// Package storetest holds the behavior every store.Store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"personasim/internal/persona"
	"personasim/internal/store"
)

// Factory returns an empty store with its schema in place.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("personas", func(t *testing.T) { testPersonas(t, newStore(t)) })
	t.Run("relationships", func(t *testing.T) { testRelationships(t, newStore(t)) })
	t.Run("conversations", func(t *testing.T) { testConversations(t, newStore(t)) })
	t.Run("preferences", func(t *testing.T) { testPreferences(t, newStore(t)) })
	t.Run("search", func(t *testing.T) {
		s := newStore(t)
		searcher, ok := s.(store.Searcher)
		if !ok {
			t.Skip("backend has no message search")
		}
		testSearch(t, s, searcher)
	})
}

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func mustPersona(t *testing.T, name string, createdAt time.Time) *persona.Persona {
	t.Helper()
	p, err := persona.New(persona.Spec{Name: name, Traits: persona.DefaultTraits()}, createdAt)
	if err != nil {
		t.Fatalf("new persona: %v", err)
	}
	return p
}

func testPersonas(t *testing.T, s store.Store) {
	ctx := context.Background()

	late := mustPersona(t, "Late", base.Add(2*time.Minute))
	early := mustPersona(t, "Early", base)
	for _, p := range []*persona.Persona{late, early} {
		if err := s.PutPersona(ctx, p); err != nil {
			t.Fatalf("put persona: %v", err)
		}
	}

	got, err := s.GetPersona(ctx, early.ID)
	if err != nil {
		t.Fatalf("get persona: %v", err)
	}
	if diff := cmp.Diff(early, got); diff != "" {
		t.Fatalf("persona mismatch (-want +got):\n%s", diff)
	}

	missing, err := s.GetPersona(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing persona, got (%v, %v)", missing, err)
	}

	early.ShiftMood(persona.MoodHappy, base.Add(time.Minute))
	if err := s.PutPersona(ctx, early); err != nil {
		t.Fatalf("upsert persona: %v", err)
	}

	all, err := s.ListPersonas(ctx)
	if err != nil {
		t.Fatalf("list personas: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(all))
	}
	if all[0].ID != early.ID || all[1].ID != late.ID {
		t.Fatalf("expected creation order [%s %s], got [%s %s]", early.ID, late.ID, all[0].ID, all[1].ID)
	}
	if all[0].CurrentMood != persona.MoodHappy || len(all[0].MoodHistory) != 2 {
		t.Fatalf("expected updated mood record, got %+v", all[0])
	}

	if err := s.DeletePersona(ctx, early.ID); err != nil {
		t.Fatalf("delete persona: %v", err)
	}
	if err := s.DeletePersona(ctx, early.ID); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	got, err = s.GetPersona(ctx, early.ID)
	if err != nil || got != nil {
		t.Fatalf("expected deleted persona to be gone, got (%v, %v)", got, err)
	}
}

func testRelationships(t *testing.T, s store.Store) {
	ctx := context.Background()

	rel := &persona.Relationship{
		PersonaA:        "persona-b",
		PersonaB:        "persona-a",
		Score:           12,
		Interactions:    1,
		LastInteraction: base,
	}
	if err := s.PutRelationship(ctx, rel); err != nil {
		t.Fatalf("put relationship: %v", err)
	}

	ab, err := s.GetRelationship(ctx, "persona-a", "persona-b")
	if err != nil {
		t.Fatalf("get relationship: %v", err)
	}
	ba, err := s.GetRelationship(ctx, "persona-b", "persona-a")
	if err != nil {
		t.Fatalf("get relationship swapped: %v", err)
	}
	if ab == nil || ba == nil {
		t.Fatalf("expected relationship in both orders")
	}
	if diff := cmp.Diff(ab, ba); diff != "" {
		t.Fatalf("pair lookup not symmetric (-ab +ba):\n%s", diff)
	}
	if ab.PersonaA != "persona-a" || ab.PersonaB != "persona-b" {
		t.Fatalf("expected normalized pair, got %s/%s", ab.PersonaA, ab.PersonaB)
	}

	// Writing with the other order updates the same record.
	update := &persona.Relationship{
		PersonaA:        "persona-a",
		PersonaB:        "persona-b",
		Score:           40,
		Interactions:    2,
		LastInteraction: base.Add(time.Second),
	}
	if err := s.PutRelationship(ctx, update); err != nil {
		t.Fatalf("update relationship: %v", err)
	}
	other := &persona.Relationship{PersonaA: "persona-c", PersonaB: "persona-a", Score: -5, Interactions: 1, LastInteraction: base}
	if err := s.PutRelationship(ctx, other); err != nil {
		t.Fatalf("put relationship: %v", err)
	}
	unrelated := &persona.Relationship{PersonaA: "persona-c", PersonaB: "persona-d", Score: 1, Interactions: 1, LastInteraction: base}
	if err := s.PutRelationship(ctx, unrelated); err != nil {
		t.Fatalf("put relationship: %v", err)
	}

	all, err := s.ListRelationships(ctx)
	if err != nil {
		t.Fatalf("list relationships: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 relationships, got %d", len(all))
	}

	forA, err := s.ListRelationshipsFor(ctx, "persona-a")
	if err != nil {
		t.Fatalf("list relationships for: %v", err)
	}
	if len(forA) != 2 {
		t.Fatalf("expected 2 relationships for persona-a, got %d", len(forA))
	}

	got, err := s.GetRelationship(ctx, "persona-b", "persona-a")
	if err != nil {
		t.Fatalf("get relationship: %v", err)
	}
	if got.Score != 40 || got.Interactions != 2 {
		t.Fatalf("expected last write to win, got %+v", got)
	}

	missing, err := s.GetRelationship(ctx, "persona-x", "persona-y")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing relationship, got (%v, %v)", missing, err)
	}

	if err := s.PutRelationship(ctx, &persona.Relationship{PersonaA: "same", PersonaB: "same"}); err == nil {
		t.Fatalf("expected error for self relationship")
	}
}

func testConversations(t *testing.T, s store.Store) {
	ctx := context.Background()

	second := persona.NewConversation([]string{"p2", "p1"}, "", base.Add(time.Hour))
	first := persona.NewConversation([]string{"p1", "p2", "p3"}, "creative-brainstorm", base)
	first.Messages = append(first.Messages, persona.Message{
		ID:        "msg-1",
		PersonaID: "p1",
		Content:   "✨ Hello ✨",
		Mood:      persona.MoodCurious,
		Timestamp: base.Add(time.Second),
		Sentiment: -0.25,
	})
	for _, c := range []*persona.Conversation{second, first} {
		if err := s.PutConversation(ctx, c); err != nil {
			t.Fatalf("put conversation: %v", err)
		}
	}

	got, err := s.GetConversation(ctx, first.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if diff := cmp.Diff(first, got); diff != "" {
		t.Fatalf("conversation mismatch (-want +got):\n%s", diff)
	}

	all, err := s.ListConversations(ctx)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(all) != 2 || all[0].ID != first.ID || all[1].ID != second.ID {
		t.Fatalf("expected conversations ordered by start time, got %d entries", len(all))
	}

	if err := s.DeleteConversation(ctx, first.ID); err != nil {
		t.Fatalf("delete conversation: %v", err)
	}
	if err := s.DeleteConversation(ctx, first.ID); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	missing, err := s.GetConversation(ctx, first.ID)
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for deleted conversation, got (%v, %v)", missing, err)
	}
}

func testPreferences(t *testing.T, s store.Store) {
	ctx := context.Background()

	prefs, err := s.GetPreferences(ctx)
	if err != nil || prefs != nil {
		t.Fatalf("expected no preferences yet, got (%v, %v)", prefs, err)
	}

	for _, theme := range []persona.Theme{persona.ThemeNeon, persona.ThemeCyberpunk} {
		if err := s.PutPreferences(ctx, persona.Preferences{Theme: theme}); err != nil {
			t.Fatalf("put preferences: %v", err)
		}
	}

	prefs, err = s.GetPreferences(ctx)
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if prefs == nil || prefs.Theme != persona.ThemeCyberpunk {
		t.Fatalf("expected cyberpunk theme, got %+v", prefs)
	}
}

func testSearch(t *testing.T, s store.Store, searcher store.Searcher) {
	ctx := context.Background()
	conv := persona.NewConversation([]string{"persona-a", "persona-b"}, "space-expedition", base)
	conv.Messages = []persona.Message{
		{ID: "msg-1", PersonaID: "persona-a", Content: "The anomaly ahead looks like a wormhole.", Mood: persona.MoodCurious, Timestamp: base},
		{ID: "msg-2", PersonaID: "persona-b", Content: "Let's chart a course around the nebula.", Mood: persona.MoodCalm, Timestamp: base},
	}
	if err := s.PutConversation(ctx, conv); err != nil {
		t.Fatalf("put conversation: %v", err)
	}

	hits, err := searcher.SearchMessages(ctx, "anomaly")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].MessageID != "msg-1" || hits[0].ConversationID != conv.ID || hits[0].PersonaID != "persona-a" {
		t.Fatalf("unexpected hits for anomaly: %+v", hits)
	}

	hits, err = searcher.SearchMessages(ctx, "course nebula")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].MessageID != "msg-2" {
		t.Fatalf("unexpected hits for course nebula: %+v", hits)
	}

	if err := s.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("delete conversation: %v", err)
	}
	hits, err = searcher.SearchMessages(ctx, "anomaly")
	if err != nil {
		t.Fatalf("search after delete: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits after delete, got %+v", hits)
	}
}
