package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"personasim/internal/persona"
)

func (c *Client) conversationKey(id string) string {
	return c.key("conversation", id)
}

func (c *Client) PutConversation(ctx context.Context, conv *persona.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshaling conversation: %w", err)
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, c.conversationKey(conv.ID), data, 0)
		pipe.ZAdd(ctx, c.key("conversations"), goredis.Z{Score: float64(conv.StartedAt.UnixMilli()), Member: conv.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("upserting conversation: %w", err)
	}
	return nil
}

func (c *Client) GetConversation(ctx context.Context, id string) (*persona.Conversation, error) {
	var conv persona.Conversation
	found, err := c.getJSON(ctx, c.conversationKey(id), &conv)
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	if !found {
		return nil, nil
	}
	fillConversation(&conv)
	return &conv, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]*persona.Conversation, error) {
	ids, err := c.rdb.ZRange(ctx, c.key("conversations"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.conversationKey(id)
	}

	results := []*persona.Conversation{}
	err = c.mgetJSON(ctx, keys, func(raw []byte) error {
		var conv persona.Conversation
		if err := json.Unmarshal(raw, &conv); err != nil {
			return err
		}
		fillConversation(&conv)
		results = append(results, &conv)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading conversations: %w", err)
	}
	return results, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, c.conversationKey(id))
		pipe.ZRem(ctx, c.key("conversations"), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

func fillConversation(conv *persona.Conversation) {
	if conv.Participants == nil {
		conv.Participants = []string{}
	}
	if conv.Messages == nil {
		conv.Messages = []persona.Message{}
	}
}
