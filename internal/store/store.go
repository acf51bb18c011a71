// Package store defines the persistence contract for personas,
// relationships, conversations and settings. Backends live in subpackages.
package store

import (
	"context"
	"errors"

	"personasim/internal/persona"
)

// ErrUnavailable marks failures where the backend could not be reached or
// initialized. Callers may fall back to empty in-memory state.
var ErrUnavailable = errors.New("storage unavailable")

// Store is a pass-through to durable storage. It holds no cached state.
//
// Put operations upsert by primary key and are last-write-wins. Get
// operations return (nil, nil) when the key is absent. Delete operations are
// no-ops for absent keys. Relationship lookups accept either order of the
// pair.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	PutPersona(ctx context.Context, p *persona.Persona) error
	GetPersona(ctx context.Context, id string) (*persona.Persona, error)
	// ListPersonas returns personas ordered by creation time.
	ListPersonas(ctx context.Context) ([]*persona.Persona, error)
	DeletePersona(ctx context.Context, id string) error

	PutRelationship(ctx context.Context, r *persona.Relationship) error
	GetRelationship(ctx context.Context, a, b string) (*persona.Relationship, error)
	ListRelationships(ctx context.Context) ([]*persona.Relationship, error)
	// ListRelationshipsFor returns every relationship the persona is part of.
	ListRelationshipsFor(ctx context.Context, id string) ([]*persona.Relationship, error)

	PutConversation(ctx context.Context, c *persona.Conversation) error
	GetConversation(ctx context.Context, id string) (*persona.Conversation, error)
	// ListConversations returns conversations ordered by start time.
	ListConversations(ctx context.Context) ([]*persona.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	PutPreferences(ctx context.Context, prefs persona.Preferences) error
	// GetPreferences returns nil when no preferences were saved yet.
	GetPreferences(ctx context.Context) (*persona.Preferences, error)
}

// SQLRunner is implemented by SQL backends that accept ad-hoc read queries.
type SQLRunner interface {
	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// SearchHit is one transcript message matching a full-text search.
type SearchHit struct {
	ConversationID string
	MessageID      string
	PersonaID      string
	// Snippet is the matching text with hits wrapped in "**".
	Snippet string
	// Score ranks hits within one result set; higher is better.
	Score float64
}

// Searcher is implemented by backends with full-text search over saved
// transcripts. Results are capped at SearchLimit.
type Searcher interface {
	SearchMessages(ctx context.Context, query string) ([]SearchHit, error)
}

const SearchLimit = 50
