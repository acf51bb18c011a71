// Package memory is a thread-safe in-process store.Store. Nothing survives
// the process; it backs memory:// DSNs and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"personasim/internal/persona"
	"personasim/internal/store"
)

var (
	_ store.Store    = (*Store)(nil)
	_ store.Searcher = (*Store)(nil)
)

type Store struct {
	mu            sync.RWMutex
	personas      map[string]*persona.Persona
	relationships map[persona.PairKey]persona.Relationship
	conversations map[string]*persona.Conversation
	prefs         *persona.Preferences
}

func New() *Store {
	return &Store{
		personas:      make(map[string]*persona.Persona),
		relationships: make(map[persona.PairKey]persona.Relationship),
		conversations: make(map[string]*persona.Conversation),
	}
}

func (s *Store) Close(ctx context.Context) error        { return nil }
func (s *Store) EnsureSchema(ctx context.Context) error { return nil }

func (s *Store) PutPersona(ctx context.Context, p *persona.Persona) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personas[p.ID] = p.Clone()
	return nil
}

func (s *Store) GetPersona(ctx context.Context, id string) (*persona.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.personas[id].Clone(), nil
}

func (s *Store) ListPersonas(ctx context.Context) ([]*persona.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*persona.Persona, 0, len(s.personas))
	for _, p := range s.personas {
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b *persona.Persona) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) DeletePersona(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.personas, id)
	return nil
}

func (s *Store) PutRelationship(ctx context.Context, r *persona.Relationship) error {
	rec := *r
	rec.Normalize()
	if rec.PersonaA == rec.PersonaB {
		return fmt.Errorf("relationship requires two distinct personas, got %q twice", rec.PersonaA)
	}
	rec.Score = persona.ClampScore(rec.Score)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships[rec.Key()] = rec
	return nil
}

func (s *Store) GetRelationship(ctx context.Context, a, b string) (*persona.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.relationships[persona.NewPairKey(a, b)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) ListRelationships(ctx context.Context) ([]*persona.Relationship, error) {
	return s.relationshipsWhere(func(persona.PairKey) bool { return true }), nil
}

func (s *Store) ListRelationshipsFor(ctx context.Context, id string) ([]*persona.Relationship, error) {
	return s.relationshipsWhere(func(k persona.PairKey) bool { return k.Has(id) }), nil
}

func (s *Store) relationshipsWhere(keep func(persona.PairKey) bool) []*persona.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*persona.Relationship{}
	for k, rec := range s.relationships {
		if keep(k) {
			r := rec
			out = append(out, &r)
		}
	}
	slices.SortFunc(out, func(a, b *persona.Relationship) int {
		if c := strings.Compare(a.PersonaA, b.PersonaA); c != 0 {
			return c
		}
		return strings.Compare(a.PersonaB, b.PersonaB)
	})
	return out
}

func (s *Store) PutConversation(ctx context.Context, c *persona.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c.Clone()
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*persona.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversations[id].Clone(), nil
}

func (s *Store) ListConversations(ctx context.Context) ([]*persona.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*persona.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c.Clone())
	}
	slices.SortFunc(out, func(a, b *persona.Conversation) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
	return nil
}

func (s *Store) PutPreferences(ctx context.Context, prefs persona.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = &prefs
	return nil
}

func (s *Store) GetPreferences(ctx context.Context) (*persona.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.prefs == nil {
		return nil, nil
	}
	prefs := *s.prefs
	return &prefs, nil
}

// SearchMessages matches case-insensitive substrings. Every term must occur
// unless it is prefixed with "-", which excludes messages containing it.
func (s *Store) SearchMessages(ctx context.Context, query string) ([]store.SearchHit, error) {
	var include, exclude []string
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if rest, ok := strings.CutPrefix(term, "-"); ok && rest != "" {
			exclude = append(exclude, rest)
			continue
		}
		include = append(include, term)
	}
	if len(include) == 0 {
		return nil, fmt.Errorf("query must not be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	hits := []store.SearchHit{}
	for _, c := range s.conversations {
		for _, m := range c.Messages {
			score, ok := matchTerms(strings.ToLower(m.Content), include, exclude)
			if !ok {
				continue
			}
			hits = append(hits, store.SearchHit{
				ConversationID: c.ID,
				MessageID:      m.ID,
				PersonaID:      m.PersonaID,
				Snippet:        m.Content,
				Score:          score,
			})
		}
	}
	slices.SortFunc(hits, func(a, b store.SearchHit) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.ConversationID, b.ConversationID); c != 0 {
			return c
		}
		return strings.Compare(a.MessageID, b.MessageID)
	})
	if len(hits) > store.SearchLimit {
		hits = hits[:store.SearchLimit]
	}
	return hits, nil
}

func matchTerms(content string, include, exclude []string) (float64, bool) {
	for _, term := range exclude {
		if strings.Contains(content, term) {
			return 0, false
		}
	}
	var score float64
	for _, term := range include {
		n := strings.Count(content, term)
		if n == 0 {
			return 0, false
		}
		score += float64(n)
	}
	return score, true
}
