package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"personasim/internal/persona"
)

func (c *Client) PutConversation(ctx context.Context, conv *persona.Conversation) error {
	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("marshaling messages: %w", err)
	}
	participants := conv.Participants
	if participants == nil {
		participants = []string{}
	}

	query := `
INSERT INTO conversations (id, participants, messages, scenario, started_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    participants = EXCLUDED.participants,
    messages = EXCLUDED.messages,
    scenario = EXCLUDED.scenario,
    started_at = EXCLUDED.started_at
`
	_, err = c.pool.Exec(ctx, query,
		conv.ID,
		participants,
		messagesJSON,
		conv.ScenarioID,
		conv.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting conversation: %w", err)
	}
	return nil
}

const conversationColumns = `id, participants, messages, scenario, started_at`

func (c *Client) GetConversation(ctx context.Context, id string) (*persona.Conversation, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	conv, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return conv, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]*persona.Conversation, error) {
	rows, err := c.pool.Query(ctx, `SELECT `+conversationColumns+` FROM conversations ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	results := []*persona.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		results = append(results, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}
	return results, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

func scanConversation(row pgx.Row) (*persona.Conversation, error) {
	var conv persona.Conversation
	var messagesJSON []byte
	if err := row.Scan(&conv.ID, &conv.Participants, &messagesJSON, &conv.ScenarioID, &conv.StartedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(messagesJSON, &conv.Messages); err != nil {
		return nil, fmt.Errorf("unmarshaling messages: %w", err)
	}
	if conv.Participants == nil {
		conv.Participants = []string{}
	}
	if conv.Messages == nil {
		conv.Messages = []persona.Message{}
	}
	conv.StartedAt = utc(conv.StartedAt)
	return &conv, nil
}
