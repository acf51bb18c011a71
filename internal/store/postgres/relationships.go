package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"personasim/internal/persona"
)

func (c *Client) PutRelationship(ctx context.Context, r *persona.Relationship) error {
	key := r.Key()
	if key.A == key.B {
		return fmt.Errorf("relationship requires two distinct personas, got %q twice", key.A)
	}

	query := `
INSERT INTO relationships (persona_a, persona_b, score, interactions, last_interaction)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (persona_a, persona_b) DO UPDATE SET
    score = EXCLUDED.score,
    interactions = EXCLUDED.interactions,
    last_interaction = EXCLUDED.last_interaction
`
	_, err := c.pool.Exec(ctx, query,
		key.A,
		key.B,
		persona.ClampScore(r.Score),
		r.Interactions,
		r.LastInteraction,
	)
	if err != nil {
		return fmt.Errorf("upserting relationship: %w", err)
	}
	return nil
}

const relationshipColumns = `persona_a, persona_b, score, interactions, last_interaction`

func (c *Client) GetRelationship(ctx context.Context, a, b string) (*persona.Relationship, error) {
	key := persona.NewPairKey(a, b)
	row := c.pool.QueryRow(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE persona_a = $1 AND persona_b = $2`,
		key.A, key.B,
	)
	r, err := scanRelationship(row)
	if errors.Is(err, pgx.ErrNoRows) {
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
		`SELECT `+relationshipColumns+` FROM relationships WHERE persona_a = $1 OR persona_b = $1 ORDER BY persona_a, persona_b`,
		id,
	)
}

func (c *Client) queryRelationships(ctx context.Context, query string, args ...any) ([]*persona.Relationship, error) {
	rows, err := c.pool.Query(ctx, query, args...)
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

func scanRelationship(row pgx.Row) (*persona.Relationship, error) {
	var r persona.Relationship
	if err := row.Scan(&r.PersonaA, &r.PersonaB, &r.Score, &r.Interactions, &r.LastInteraction); err != nil {
		return nil, err
	}
	r.LastInteraction = utc(r.LastInteraction)
	return &r, nil
}
