package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"personasim/internal/persona"
)

func (c *Client) relationshipKey(k persona.PairKey) string {
	return c.key("relationship", k.String())
}

func (c *Client) PutRelationship(ctx context.Context, r *persona.Relationship) error {
	key := r.Key()
	if key.A == key.B {
		return fmt.Errorf("relationship requires two distinct personas, got %q twice", key.A)
	}
	rec := *r
	rec.Normalize()
	rec.Score = persona.ClampScore(rec.Score)

	data, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("marshaling relationship: %w", err)
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, c.relationshipKey(key), data, 0)
		pipe.SAdd(ctx, c.key("relationships"), key.String())
		pipe.SAdd(ctx, c.key("persona", key.A, "relationships"), key.String())
		pipe.SAdd(ctx, c.key("persona", key.B, "relationships"), key.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("upserting relationship: %w", err)
	}
	return nil
}

func (c *Client) GetRelationship(ctx context.Context, a, b string) (*persona.Relationship, error) {
	var r persona.Relationship
	found, err := c.getJSON(ctx, c.relationshipKey(persona.NewPairKey(a, b)), &r)
	if err != nil {
		return nil, fmt.Errorf("getting relationship: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &r, nil
}

func (c *Client) ListRelationships(ctx context.Context) ([]*persona.Relationship, error) {
	return c.loadRelationships(ctx, c.key("relationships"))
}

func (c *Client) ListRelationshipsFor(ctx context.Context, id string) ([]*persona.Relationship, error) {
	return c.loadRelationships(ctx, c.key("persona", id, "relationships"))
}

func (c *Client) loadRelationships(ctx context.Context, indexKey string) ([]*persona.Relationship, error) {
	pairs, err := c.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	keys := make([]string, len(pairs))
	for i, pair := range pairs {
		keys[i] = c.key("relationship", pair)
	}

	results := []*persona.Relationship{}
	err = c.mgetJSON(ctx, keys, func(raw []byte) error {
		var r persona.Relationship
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		results = append(results, &r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading relationships: %w", err)
	}

	slices.SortFunc(results, func(x, y *persona.Relationship) int {
		if n := strings.Compare(x.PersonaA, y.PersonaA); n != 0 {
			return n
		}
		return strings.Compare(x.PersonaB, y.PersonaB)
	})
	return results, nil
}
