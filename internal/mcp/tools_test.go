package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"personasim/internal/engine"
	"personasim/internal/persona"
	"personasim/internal/scenario"
	"personasim/internal/sim"
	"personasim/internal/state"
	"personasim/internal/store/memory"
)

var now = time.Date(2026, 7, 1, 8, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	catalog, err := scenario.NewCatalog()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	backend := memory.New()
	st := state.New(backend, nil)
	clock := func() time.Time { return now }
	eng := engine.New(engine.NewRand(3), clock)

	server := NewServer(st, catalog, eng, sim.Config{MinDelay: time.Hour, MaxDelay: time.Hour}, "test")
	server.clock = clock
	return server, backend
}

func createPersona(t *testing.T, server *Server, name string) PersonaOutput {
	t.Helper()
	_, out, err := server.handleCreatePersona(context.Background(), nil, CreatePersonaInput{Name: name})
	if err != nil {
		t.Fatalf("create persona %s: %v", name, err)
	}
	// Personas list in creation order, so keep timestamps distinct.
	server.clock = func() time.Time { return out.CreatedAt.Add(time.Millisecond) }
	return out
}

func TestCreatePersona(t *testing.T) {
	server, backend := newTestServer(t)

	_, out, err := server.handleCreatePersona(context.Background(), nil, CreatePersonaInput{
		Name:   "Nova",
		Avatar: "Owl",
		Style:  "analytical",
		Traits: &persona.Traits{Creativity: 10, Logic: 95, Empathy: 40, Curiosity: 80, MoodVolatility: 20},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Avatar != "🦉" || out.Color != "blue" || out.Mood != "neutral" || out.Traits.Logic != 95 {
		t.Fatalf("unexpected persona output: %+v", out)
	}
	stored, err := backend.GetPersona(context.Background(), out.ID)
	if err != nil || stored == nil {
		t.Fatalf("expected persona to be persisted, got %v, %v", stored, err)
	}

	t.Run("rejects bad input", func(t *testing.T) {
		inputs := []CreatePersonaInput{
			{Name: ""},
			{Name: "X", Avatar: "Penguin"},
			{Name: "X", Style: "sarcastic"},
			{Name: "X", Traits: &persona.Traits{Logic: 101}},
		}
		for _, in := range inputs {
			if _, _, err := server.handleCreatePersona(context.Background(), nil, in); err == nil {
				t.Fatalf("expected error for %+v", in)
			}
		}
	})
}

func TestGetPersona(t *testing.T) {
	server, _ := newTestServer(t)
	created := createPersona(t, server, "Pip")

	_, byName, err := server.handleGetPersona(context.Background(), nil, GetPersonaInput{Persona: "pip"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byName.ID != created.ID || len(byName.MoodHistory) != 1 {
		t.Fatalf("unexpected persona output: %+v", byName)
	}

	if _, _, err := server.handleGetPersona(context.Background(), nil, GetPersonaInput{Persona: "Missing"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAmbiguousName(t *testing.T) {
	server, _ := newTestServer(t)
	createPersona(t, server, "Echo")
	createPersona(t, server, "echo")

	if _, _, err := server.handleGetPersona(context.Background(), nil, GetPersonaInput{Persona: "ECHO"}); err == nil {
		t.Fatalf("expected ambiguity error")
	}
}

func TestDeletePersona(t *testing.T) {
	server, backend := newTestServer(t)
	created := createPersona(t, server, "Sage")

	_, out, err := server.handleDeletePersona(context.Background(), nil, DeletePersonaInput{Persona: "Sage"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Deleted != created.ID {
		t.Fatalf("expected %s deleted, got %s", created.ID, out.Deleted)
	}
	if p, _ := backend.GetPersona(context.Background(), created.ID); p != nil {
		t.Fatalf("expected persona removed from backend")
	}
	_, list, _ := server.handleListPersonas(context.Background(), nil, ListPersonasInput{})
	if len(list.Personas) != 0 {
		t.Fatalf("expected no personas, got %d", len(list.Personas))
	}
}

func TestListScenarios(t *testing.T) {
	server, _ := newTestServer(t)

	_, out, err := server.handleListScenarios(context.Background(), nil, ListScenariosInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Scenarios) != 6 || out.Scenarios[0].ID != "space-expedition" {
		t.Fatalf("unexpected scenarios output: %+v", out)
	}
}

func TestSimulate(t *testing.T) {
	server, backend := newTestServer(t)
	a := createPersona(t, server, "Nova")
	b := createPersona(t, server, "Pip")

	_, out, err := server.handleSimulate(context.Background(), nil, SimulateInput{
		Scenario: "team-building",
		Personas: []string{"Nova", b.ID},
		Messages: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Messages != 4 || len(out.Transcript) != 4 {
		t.Fatalf("expected 4 messages, got %+v", out)
	}
	if out.Transcript[0].Persona != a.ID || out.Transcript[1].Persona != b.ID || out.Transcript[0].Name != "Nova" {
		t.Fatalf("expected alternating turns starting with Nova: %+v", out.Transcript)
	}

	saved, err := backend.ListConversations(context.Background())
	if err != nil || len(saved) != 1 {
		t.Fatalf("expected one saved conversation, got %d, %v", len(saved), err)
	}

	_, rels, err := server.handleListRelationships(context.Background(), nil, ListRelationshipsInput{Persona: "Pip"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rels.Relationships) != 1 || rels.Relationships[0].Interactions != 4 {
		t.Fatalf("unexpected relationships: %+v", rels)
	}

	_, convs, _ := server.handleListConversations(context.Background(), nil, ListConversationsInput{})
	if len(convs.Conversations) != 1 || convs.Conversations[0].Scenario != "team-building" {
		t.Fatalf("unexpected conversations: %+v", convs)
	}
	_, conv, err := server.handleGetConversation(context.Background(), nil, GetConversationInput{ID: out.ID})
	if err != nil || len(conv.Transcript) != 4 {
		t.Fatalf("expected transcript of saved conversation, got %+v, %v", conv, err)
	}
	_, found, err := server.handleSearchMessages(context.Background(), nil, SearchMessagesInput{Query: strings.Fields(out.Transcript[0].Content)[0]})
	if err != nil || len(found.Results) == 0 {
		t.Fatalf("expected transcript search to find the first message, got %+v, %v", found, err)
	}
	if server.state.Scenario() != nil || len(server.state.Selection()) != 0 {
		t.Fatalf("expected scenario and selection cleared after simulate")
	}
}

func TestSimulateGuards(t *testing.T) {
	server, _ := newTestServer(t)
	createPersona(t, server, "Nova")
	createPersona(t, server, "Pip")

	tests := []struct {
		name  string
		input SimulateInput
	}{
		{"unknown scenario", SimulateInput{Scenario: "nope", Personas: []string{"Nova", "Pip"}}},
		{"one persona", SimulateInput{Scenario: "team-building", Personas: []string{"Nova"}}},
		{"unknown persona", SimulateInput{Scenario: "team-building", Personas: []string{"Nova", "Ghost"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := server.handleSimulate(context.Background(), nil, tt.input); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	t.Run("busy", func(t *testing.T) {
		if _, err := server.state.StartConversation([]string{"x", "y"}, "", now); err != nil {
			t.Fatalf("start conversation: %v", err)
		}
		_, _, err := server.handleSimulate(context.Background(), nil, SimulateInput{Scenario: "team-building", Personas: []string{"Nova", "Pip"}})
		if !errors.Is(err, sim.ErrRunning) {
			t.Fatalf("expected ErrRunning, got %v", err)
		}
	})
}

func TestStepToEndStopsWhenParticipantsVanish(t *testing.T) {
	ctx := context.Background()
	server, _ := newTestServer(t)
	a := createPersona(t, server, "Nova")
	b := createPersona(t, server, "Pip")

	server.state.SelectPersona(a.ID)
	server.state.SelectPersona(b.ID)
	server.state.SetScenario(server.catalog.Get("team-building"))
	sched := sim.New(server.state, server.engine, sim.Config{MinDelay: time.Hour, MaxDelay: time.Hour, MaxMessages: 10}, sim.WithClock(server.clock))
	defer sched.Close(ctx)
	if err := sched.StartPaused(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, id := range []string{a.ID, b.ID} {
		if err := server.state.RemovePersona(ctx, id); err != nil {
			t.Fatalf("remove persona: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- stepToEnd(ctx, sched, 2) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected stepping to give up with no participants left")
	}
	if got := sched.Progress().Messages; got != 0 {
		t.Fatalf("expected no messages, got %d", got)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	if _, _, err := server.handleGetConversation(context.Background(), nil, GetConversationInput{ID: "conv-1"}); err == nil {
		t.Fatalf("expected error")
	}
}
