package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS personas (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		avatar       TEXT NOT NULL DEFAULT '',
		color        TEXT NOT NULL DEFAULT '',
		traits       TEXT NOT NULL DEFAULT '{}',
		style        TEXT NOT NULL,
		current_mood TEXT NOT NULL,
		mood_history TEXT NOT NULL DEFAULT '[]',
		created_at   INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS relationships (
		persona_a        TEXT NOT NULL,
		persona_b        TEXT NOT NULL,
		score            INTEGER NOT NULL DEFAULT 0 CHECK (score BETWEEN -100 AND 100),
		interactions     INTEGER NOT NULL DEFAULT 0,
		last_interaction INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (persona_a, persona_b),
		CHECK (persona_a < persona_b)
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id           TEXT PRIMARY KEY,
		participants TEXT NOT NULL DEFAULT '[]',
		messages     TEXT NOT NULL DEFAULT '[]',
		scenario     TEXT NOT NULL DEFAULT '',
		started_at   INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT '{}'
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
		content,
		conversation_id UNINDEXED,
		message_id UNINDEXED,
		persona_id UNINDEXED
	);

	CREATE INDEX IF NOT EXISTS idx_personas_created ON personas (created_at);
	CREATE INDEX IF NOT EXISTS idx_relationships_a ON relationships (persona_a);
	CREATE INDEX IF NOT EXISTS idx_relationships_b ON relationships (persona_b);
	CREATE INDEX IF NOT EXISTS idx_conversations_started ON conversations (started_at);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}

	return statements
}
