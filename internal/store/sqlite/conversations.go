package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"personasim/internal/persona"
)

// PutConversation upserts the record and rebuilds its rows in the message
// search index in the same transaction.
func (c *Client) PutConversation(ctx context.Context, conv *persona.Conversation) error {
	participantsJSON, err := json.Marshal(conv.Participants)
	if err != nil {
		return fmt.Errorf("marshaling participants: %w", err)
	}
	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("marshaling messages: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO conversations (id, participants, messages, scenario, started_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		participants = excluded.participants,
		messages = excluded.messages,
		scenario = excluded.scenario,
		started_at = excluded.started_at
	`
	_, err = tx.ExecContext(ctx, query,
		conv.ID,
		string(participantsJSON),
		string(messagesJSON),
		conv.ScenarioID,
		conv.StartedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upserting conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages_fts WHERE conversation_id = ?`, conv.ID); err != nil {
		return fmt.Errorf("clearing message index: %w", err)
	}
	for _, m := range conv.Messages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages_fts (content, conversation_id, message_id, persona_id) VALUES (?, ?, ?, ?)`,
			m.Content, conv.ID, m.ID, m.PersonaID,
		)
		if err != nil {
			return fmt.Errorf("indexing message %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing conversation: %w", err)
	}
	return nil
}

const conversationColumns = `id, participants, messages, scenario, started_at`

func (c *Client) GetConversation(ctx context.Context, id string) (*persona.Conversation, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return conv, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]*persona.Conversation, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+conversationColumns+` FROM conversations ORDER BY started_at, id`)
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
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages_fts WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("clearing message index: %w", err)
	}
	return tx.Commit()
}

func scanConversation(row rowScanner) (*persona.Conversation, error) {
	var conv persona.Conversation
	var participantsJSON, messagesJSON string
	var startedAt int64
	if err := row.Scan(&conv.ID, &participantsJSON, &messagesJSON, &conv.ScenarioID, &startedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(participantsJSON), &conv.Participants); err != nil {
		return nil, fmt.Errorf("unmarshaling participants: %w", err)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &conv.Messages); err != nil {
		return nil, fmt.Errorf("unmarshaling messages: %w", err)
	}
	if conv.Participants == nil {
		conv.Participants = []string{}
	}
	if conv.Messages == nil {
		conv.Messages = []persona.Message{}
	}
	conv.StartedAt = fromMillis(startedAt)
	return &conv, nil
}
