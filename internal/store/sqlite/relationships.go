package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"personasim/internal/persona"
)

func (c *Client) PutRelationship(ctx context.Context, r *persona.Relationship) error {
	key := r.Key()
	if key.A == key.B {
		return fmt.Errorf("relationship requires two distinct personas, got %q twice", key.A)
	}

	query := `
	INSERT INTO relationships (persona_a, persona_b, score, interactions, last_interaction)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (persona_a, persona_b) DO UPDATE SET
		score = excluded.score,
		interactions = excluded.interactions,
		last_interaction = excluded.last_interaction
	`

	_, err := c.db.ExecContext(ctx, query,
		key.A,
		key.B,
		persona.ClampScore(r.Score),
		r.Interactions,
		r.LastInteraction.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upserting relationship: %w", err)
	}
	return nil
}

const relationshipColumns = `persona_a, persona_b, score, interactions, last_interaction`

func (c *Client) GetRelationship(ctx context.Context, a, b string) (*persona.Relationship, error) {
	key := persona.NewPairKey(a, b)
	row := c.db.QueryRowContext(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE persona_a = ? AND persona_b = ?`,
		key.A, key.B,
	)
	r, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting relationship: %w", err)
	}
	return r, nil
}

func (c *Client) ListRelationships(ctx context.Context) ([]*persona.Relationship, error) {
	return c.queryRelationships(ctx, `SELECT `+relationshipColumns+` FROM relationships ORDER BY persona_a, persona_b`)
}

func (c *Client) ListRelationshipsFor(ctx context.Context, id string) ([]*persona.Relationship, error) {
	return c.queryRelationships(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE persona_a = ? OR persona_b = ? ORDER BY persona_a, persona_b`,
		id, id,
	)
}

func (c *Client) queryRelationships(ctx context.Context, query string, args ...any) ([]*persona.Relationship, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	defer rows.Close()

	results := []*persona.Relationship{}
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relationship rows: %w", err)
	}
	return results, nil
}

func scanRelationship(row rowScanner) (*persona.Relationship, error) {
	var r persona.Relationship
	var last int64
	if err := row.Scan(&r.PersonaA, &r.PersonaB, &r.Score, &r.Interactions, &last); err != nil {
		return nil, err
	}
	r.LastInteraction = fromMillis(last)
	return &r, nil
}
