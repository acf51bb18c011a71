package validate

import (
	"context"

	"personasim/internal/persona"
)

// Source is the read side of a store that validation needs.
type Source interface {
	ListPersonas(ctx context.Context) ([]*persona.Persona, error)
	ListRelationships(ctx context.Context) ([]*persona.Relationship, error)
	ListConversations(ctx context.Context) ([]*persona.Conversation, error)
}
