package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema is idempotent. PostgreSQL runs the multi-statement string in
// one implicit transaction.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS personas (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    avatar       TEXT NOT NULL DEFAULT '',
    color        TEXT NOT NULL DEFAULT '',
    traits       JSONB NOT NULL DEFAULT '{}',
    style        TEXT NOT NULL,
    current_mood TEXT NOT NULL,
    mood_history JSONB NOT NULL DEFAULT '[]',
    created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS relationships (
    persona_a        TEXT NOT NULL,
    persona_b        TEXT NOT NULL,
    score            INTEGER NOT NULL DEFAULT 0 CHECK (score BETWEEN -100 AND 100),
    interactions     INTEGER NOT NULL DEFAULT 0,
    last_interaction TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (persona_a, persona_b),
    CONSTRAINT ck_relationship_order CHECK (persona_a < persona_b)
);

CREATE TABLE IF NOT EXISTS conversations (
    id           TEXT PRIMARY KEY,
    participants TEXT[] NOT NULL DEFAULT '{}',
    messages     JSONB NOT NULL DEFAULT '[]',
    scenario     TEXT NOT NULL DEFAULT '',
    started_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value JSONB NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_personas_created ON personas (created_at);
CREATE INDEX IF NOT EXISTS idx_relationships_a ON relationships (persona_a);
CREATE INDEX IF NOT EXISTS idx_relationships_b ON relationships (persona_b);
CREATE INDEX IF NOT EXISTS idx_conversations_started ON conversations (started_at);
CREATE INDEX IF NOT EXISTS idx_conversations_participants ON conversations USING GIN (participants);
`
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
