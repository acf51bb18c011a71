// Package state holds the live in-memory view of the simulator and mirrors
// every mutation to the persistence backend.
//
// Actions apply the in-memory change first and then call the backend. They
// are not transactional: a backend failure is returned to the caller but the
// in-memory change stays.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"personasim/internal/persona"
	"personasim/internal/store"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConversationActive = errors.New("a conversation is already active")
	ErrNoConversation     = errors.New("no active conversation")
	ErrAmbiguous          = errors.New("ambiguous persona name")
	ErrSearchUnsupported  = errors.New("storage backend does not support message search")
)

type Store struct {
	backend store.Store
	logger  *slog.Logger

	mu            sync.RWMutex
	personas      []*persona.Persona
	relationships map[persona.PairKey]*persona.Relationship
	history       []*persona.Conversation
	active        *persona.Conversation
	selection     []string
	scenario      *persona.Scenario
	theme         persona.Theme
}

func New(backend store.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{backend: backend, logger: logger}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.personas = []*persona.Persona{}
	s.relationships = map[persona.PairKey]*persona.Relationship{}
	s.history = []*persona.Conversation{}
	s.active = nil
	s.selection = []string{}
	s.scenario = nil
	s.theme = persona.DefaultPreferences().Theme
}

// Load replaces the in-memory state with what the backend holds. On failure
// the state is left empty and the error is returned.
func (s *Store) Load(ctx context.Context) error {
	personas, relationships, conversations, prefs, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()

	if err != nil {
		s.logger.ErrorContext(ctx, "loading state, continuing with empty state", "error", err)
		return fmt.Errorf("loading state: %w", err)
	}

	s.personas = personas
	for _, r := range relationships {
		r.Normalize()
		s.relationships[r.Key()] = r
	}
	s.history = conversations
	if prefs != nil && prefs.Theme != "" {
		s.theme = prefs.Theme
	}

	s.logger.DebugContext(ctx, "state loaded",
		"personas", len(s.personas),
		"relationships", len(s.relationships),
		"conversations", len(s.history),
	)
	return nil
}

func (s *Store) fetch(ctx context.Context) (
	[]*persona.Persona, []*persona.Relationship, []*persona.Conversation, *persona.Preferences, error,
) {
	personas, err := s.backend.ListPersonas(ctx)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("listing personas: %w", err)
	}
	relationships, err := s.backend.ListRelationships(ctx)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("listing relationships: %w", err)
	}
	conversations, err := s.backend.ListConversations(ctx)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("listing conversations: %w", err)
	}
	prefs, err := s.backend.GetPreferences(ctx)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("getting preferences: %w", err)
	}
	return personas, relationships, conversations, prefs, nil
}

// Personas

func (s *Store) AddPersona(ctx context.Context, p *persona.Persona) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.indexOf(p.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("persona %s already exists", p.ID)
	}
	rec := p.Clone()
	s.personas = append(s.personas, rec)
	snapshot := rec.Clone()
	s.mu.Unlock()

	if err := s.backend.PutPersona(ctx, snapshot); err != nil {
		return fmt.Errorf("persisting persona %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePersona replaces the stored record with p, matched by id.
func (s *Store) UpdatePersona(ctx context.Context, p *persona.Persona) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	i := s.indexOf(p.ID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("persona %s: %w", p.ID, ErrNotFound)
	}
	s.personas[i] = p.Clone()
	snapshot := p.Clone()
	s.mu.Unlock()

	if err := s.backend.PutPersona(ctx, snapshot); err != nil {
		return fmt.Errorf("persisting persona %s: %w", p.ID, err)
	}
	return nil
}

// RemovePersona drops the persona from the roster and the selection.
// Removing an unknown id is a no-op.
func (s *Store) RemovePersona(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.personas = slices.Delete(s.personas, i, i+1)
	s.selection = slices.DeleteFunc(s.selection, func(sel string) bool { return sel == id })
	s.mu.Unlock()

	if err := s.backend.DeletePersona(ctx, id); err != nil {
		return fmt.Errorf("deleting persona %s: %w", id, err)
	}
	return nil
}

// Persona returns a copy of the persona, or nil.
func (s *Store) Persona(id string) *persona.Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.personas[i].Clone()
	}
	return nil
}

// Personas returns copies in creation order.
func (s *Store) Personas() []*persona.Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*persona.Persona, len(s.personas))
	for i, p := range s.personas {
		out[i] = p.Clone()
	}
	return out
}

// FindPersona resolves ref as an id, then as a case-insensitive name.
func (s *Store) FindPersona(ref string) (*persona.Persona, error) {
	ref = strings.TrimSpace(ref)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(ref); i >= 0 {
		return s.personas[i].Clone(), nil
	}
	var found *persona.Persona
	for _, p := range s.personas {
		if !strings.EqualFold(p.Name, ref) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %q, use the id", ErrAmbiguous, ref)
		}
		found = p
	}
	if found == nil {
		return nil, fmt.Errorf("persona %q: %w", ref, ErrNotFound)
	}
	return found.Clone(), nil
}

// ShiftMood moves the persona to mood and persists the updated record. It
// reports whether the mood changed; an unchanged mood is not persisted.
func (s *Store) ShiftMood(ctx context.Context, id string, mood persona.Mood, at time.Time) (bool, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	if !s.personas[i].ShiftMood(mood, at) {
		s.mu.Unlock()
		return false, nil
	}
	snapshot := s.personas[i].Clone()
	s.mu.Unlock()

	if err := s.backend.PutPersona(ctx, snapshot); err != nil {
		return true, fmt.Errorf("persisting mood for %s: %w", id, err)
	}
	return true, nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.personas, func(p *persona.Persona) bool { return p.ID == id })
}

// Selection

// SelectPersona appends id to the selection. Unknown or already selected
// ids are ignored.
func (s *Store) SelectPersona(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 || slices.Contains(s.selection, id) {
		return
	}
	s.selection = append(s.selection, id)
}

func (s *Store) DeselectPersona(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = slices.DeleteFunc(s.selection, func(sel string) bool { return sel == id })
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = []string{}
}

// Selection returns the selected ids in selection order.
func (s *Store) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.selection)
}

// SelectedPersonas resolves the selection, skipping ids that no longer exist.
func (s *Store) SelectedPersonas() []*persona.Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*persona.Persona, 0, len(s.selection))
	for _, id := range s.selection {
		if i := s.indexOf(id); i >= 0 {
			out = append(out, s.personas[i].Clone())
		}
	}
	return out
}

// Relationships

// UpdateRelationship stores rel as the record for its pair.
func (s *Store) UpdateRelationship(ctx context.Context, rel *persona.Relationship) error {
	rec := *rel
	rec.Normalize()
	if rec.PersonaA == rec.PersonaB {
		return fmt.Errorf("relationship requires two distinct personas, got %q twice", rec.PersonaA)
	}
	rec.Score = persona.ClampScore(rec.Score)

	s.mu.Lock()
	s.relationships[rec.Key()] = &rec
	snapshot := rec
	s.mu.Unlock()

	if err := s.backend.PutRelationship(ctx, &snapshot); err != nil {
		return fmt.Errorf("persisting relationship %s: %w", rec.Key(), err)
	}
	return nil
}

// ApplyInteraction merges delta into the pair's running score, creating the
// record on first contact.
func (s *Store) ApplyInteraction(ctx context.Context, a, b string, delta int, at time.Time) (*persona.Relationship, error) {
	key := persona.NewPairKey(a, b)
	if key.A == key.B {
		return nil, fmt.Errorf("relationship requires two distinct personas, got %q twice", a)
	}

	s.mu.Lock()
	rel, ok := s.relationships[key]
	if !ok {
		rel = persona.NewRelationship(key.A, key.B)
		s.relationships[key] = rel
	}
	rel.Apply(delta, at)
	snapshot := *rel
	s.mu.Unlock()

	if err := s.backend.PutRelationship(ctx, &snapshot); err != nil {
		return &snapshot, fmt.Errorf("persisting relationship %s: %w", key, err)
	}
	return &snapshot, nil
}

// Relationship returns a copy of the pair's record in either order, or nil.
func (s *Store) Relationship(a, b string) *persona.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, ok := s.relationships[persona.NewPairKey(a, b)]
	if !ok {
		return nil
	}
	out := *rel
	return &out
}

// Relationships returns copies sorted by pair.
func (s *Store) Relationships() []*persona.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*persona.Relationship, 0, len(s.relationships))
	for _, rel := range s.relationships {
		r := *rel
		out = append(out, &r)
	}
	slices.SortFunc(out, func(x, y *persona.Relationship) int {
		return strings.Compare(x.Key().String(), y.Key().String())
	})
	return out
}

// Conversations

// StartConversation opens the active conversation. Only one may be active.
func (s *Store) StartConversation(participants []string, scenarioID string, now time.Time) (*persona.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil, ErrConversationActive
	}
	s.active = persona.NewConversation(participants, scenarioID, now)
	return s.active.Clone(), nil
}

// AddMessage appends msg to the active conversation.
func (s *Store) AddMessage(msg persona.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ErrNoConversation
	}
	s.active.Messages = append(s.active.Messages, msg)
	return nil
}

// EndConversation closes the active conversation. A conversation with at
// least one message is appended to history and persisted; an empty one is
// discarded. It returns the ended conversation, or nil if none was active.
func (s *Store) EndConversation(ctx context.Context) (*persona.Conversation, error) {
	s.mu.Lock()
	conv := s.active
	s.active = nil
	if conv == nil || len(conv.Messages) == 0 {
		s.mu.Unlock()
		return conv, nil
	}
	s.history = append(s.history, conv)
	snapshot := conv.Clone()
	s.mu.Unlock()

	if err := s.backend.PutConversation(ctx, snapshot); err != nil {
		return snapshot, fmt.Errorf("persisting conversation %s: %w", conv.ID, err)
	}
	return snapshot, nil
}

// Active returns a copy of the active conversation, or nil.
func (s *Store) Active() *persona.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.Clone()
}

// Simulating reports whether a conversation is active.
func (s *Store) Simulating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active != nil
}

// Conversations returns the finished conversations, oldest first.
func (s *Store) Conversations() []*persona.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*persona.Conversation, len(s.history))
	for i, c := range s.history {
		out[i] = c.Clone()
	}
	return out
}

// Conversation returns a finished conversation by id, or nil.
func (s *Store) Conversation(id string) *persona.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.history {
		if c.ID == id {
			return c.Clone()
		}
	}
	return nil
}

// RemoveConversation deletes a finished conversation. Unknown ids are a no-op.
func (s *Store) RemoveConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.history, func(c *persona.Conversation) bool { return c.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.history = slices.Delete(s.history, i, i+1)
	s.mu.Unlock()

	if err := s.backend.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	return nil
}

// SearchMessages runs a full-text search over saved transcripts in the
// backend.
func (s *Store) SearchMessages(ctx context.Context, query string) ([]store.SearchHit, error) {
	searcher, ok := s.backend.(store.Searcher)
	if !ok {
		return nil, ErrSearchUnsupported
	}
	hits, err := searcher.SearchMessages(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	return hits, nil
}

// Scenario and theme

// SetScenario chooses the scenario for the next run; nil clears it.
func (s *Store) SetScenario(sc *persona.Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenario = sc
}

func (s *Store) Scenario() *persona.Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scenario
}

func (s *Store) SetTheme(ctx context.Context, theme persona.Theme) error {
	if _, err := persona.ParseTheme(string(theme)); err != nil {
		return err
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()

	if err := s.backend.PutPreferences(ctx, persona.Preferences{Theme: theme}); err != nil {
		return fmt.Errorf("persisting preferences: %w", err)
	}
	return nil
}

func (s *Store) Theme() persona.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}
