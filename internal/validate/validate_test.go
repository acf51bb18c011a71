package validate

import (
	"context"
	"errors"
	"testing"
	"time"

	"personasim/internal/persona"
)

type mockSource struct {
	personas      []*persona.Persona
	relationships []*persona.Relationship
	conversations []*persona.Conversation
	err           error
}

func (m *mockSource) ListPersonas(ctx context.Context) ([]*persona.Persona, error) {
	return m.personas, m.err
}

func (m *mockSource) ListRelationships(ctx context.Context) ([]*persona.Relationship, error) {
	return m.relationships, nil
}

func (m *mockSource) ListConversations(ctx context.Context) ([]*persona.Conversation, error) {
	return m.conversations, nil
}

var at = time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

func validPersona(id string) *persona.Persona {
	return &persona.Persona{
		ID:          id,
		Name:        "Persona " + id,
		Traits:      persona.DefaultTraits(),
		Style:       persona.StyleCasual,
		CurrentMood: persona.MoodNeutral,
		MoodHistory: []persona.MoodEntry{{Mood: persona.MoodNeutral, At: at}},
		CreatedAt:   at,
	}
}

func validConversation() *persona.Conversation {
	return &persona.Conversation{
		ID:           "conv-1",
		Participants: []string{"a", "b"},
		Messages: []persona.Message{
			{ID: "m1", PersonaID: "a", Content: "hi", Mood: persona.MoodCalm, Timestamp: at, Sentiment: 0.4},
		},
		StartedAt: at,
	}
}

func TestRun_Clean(t *testing.T) {
	src := &mockSource{
		personas:      []*persona.Persona{validPersona("a"), validPersona("b")},
		relationships: []*persona.Relationship{{PersonaA: "a", PersonaB: "b", Score: 12, Interactions: 1, LastInteraction: at}},
		conversations: []*persona.Conversation{validConversation()},
	}
	report, err := Run(context.Background(), src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
}

func TestRun_PersonaIssues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *persona.Persona)
		code   string
	}{
		{"trait out of range", func(p *persona.Persona) { p.Traits.Empathy = 150 }, codeTraitRange},
		{"unknown style", func(p *persona.Persona) { p.Style = "sarcastic" }, codeInvalidStyle},
		{"unknown mood", func(p *persona.Persona) {
			p.CurrentMood = "bored"
			p.MoodHistory = append(p.MoodHistory, persona.MoodEntry{Mood: "bored", At: at.Add(time.Second)})
		}, codeInvalidMood},
		{"history out of order", func(p *persona.Persona) {
			p.MoodHistory = append(p.MoodHistory, persona.MoodEntry{Mood: persona.MoodNeutral, At: at.Add(-time.Hour)})
		}, codeHistoryOrder},
		{"history mismatch", func(p *persona.Persona) { p.CurrentMood = persona.MoodSad }, codeHistoryMismatch},
		{"missing name", func(p *persona.Persona) { p.Name = "" }, codeMissingName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPersona("a")
			tt.mutate(p)
			report, err := Run(context.Background(), &mockSource{personas: []*persona.Persona{p}})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if !hasIssueCode(report.Issues, tt.code) {
				t.Fatalf("expected %s issue, got %+v", tt.code, report.Issues)
			}
		})
	}
}

func TestRun_RelationshipIssues(t *testing.T) {
	src := &mockSource{
		personas: []*persona.Persona{validPersona("a"), validPersona("b")},
		relationships: []*persona.Relationship{
			{PersonaA: "a", PersonaB: "b", Score: 10},
			{PersonaA: "b", PersonaB: "a", Score: 140},
			{PersonaA: "a", PersonaB: "ghost", Score: 1},
		},
	}
	report, err := Run(context.Background(), src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, code := range []string{codeDuplicatePair, codeScoreRange, codeMissingPersona} {
		if !hasIssueCode(report.Issues, code) {
			t.Fatalf("expected %s issue, got %+v", code, report.Issues)
		}
	}
	for _, issue := range report.Warnings() {
		if issue.Code == codeMissingPersona && issue.Subject != "a|ghost" {
			t.Fatalf("expected pair subject, got %q", issue.Subject)
		}
	}
	if len(report.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %+v", report.Errors())
	}
}

func TestRun_ConversationIssues(t *testing.T) {
	conv := validConversation()
	conv.Messages = append(conv.Messages,
		persona.Message{ID: "m2", PersonaID: "stranger", Mood: persona.MoodCalm, Timestamp: at},
		persona.Message{ID: "m3", PersonaID: "b", Mood: persona.MoodCalm, Timestamp: at, Sentiment: 1.5},
	)
	src := &mockSource{
		personas:      []*persona.Persona{validPersona("a")},
		conversations: []*persona.Conversation{conv},
	}
	report, err := Run(context.Background(), src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, code := range []string{codeForeignAuthor, codeSentimentRange, codeMissingPersona} {
		if !hasIssueCode(report.Issues, code) {
			t.Fatalf("expected %s issue, got %+v", code, report.Issues)
		}
	}
}

func TestRun_SourceError(t *testing.T) {
	if _, err := Run(context.Background(), &mockSource{err: errors.New("boom")}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
}

func hasIssueCode(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
