package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"personasim/internal/persona"
)

func (c *Client) personaKey(id string) string {
	return c.key("persona", id)
}

func (c *Client) PutPersona(ctx context.Context, p *persona.Persona) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling persona: %w", err)
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, c.personaKey(p.ID), data, 0)
		pipe.ZAdd(ctx, c.key("personas"), goredis.Z{Score: float64(p.CreatedAt.UnixMilli()), Member: p.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("upserting persona: %w", err)
	}
	return nil
}

func (c *Client) GetPersona(ctx context.Context, id string) (*persona.Persona, error) {
	var p persona.Persona
	found, err := c.getJSON(ctx, c.personaKey(id), &p)
	if err != nil {
		return nil, fmt.Errorf("getting persona: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (c *Client) ListPersonas(ctx context.Context) ([]*persona.Persona, error) {
	ids, err := c.rdb.ZRange(ctx, c.key("personas"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing personas: %w", err)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.personaKey(id)
	}

	personas := []*persona.Persona{}
	err = c.mgetJSON(ctx, keys, func(raw []byte) error {
		var p persona.Persona
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		personas = append(personas, &p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading personas: %w", err)
	}
	return personas, nil
}

func (c *Client) DeletePersona(ctx context.Context, id string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, c.personaKey(id))
		pipe.ZRem(ctx, c.key("personas"), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting persona: %w", err)
	}
	return nil
}
