package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"personasim/internal/persona"
)

func (c *Client) PutPersona(ctx context.Context, p *persona.Persona) error {
	traitsJSON, err := json.Marshal(p.Traits)
	if err != nil {
		return fmt.Errorf("marshaling traits: %w", err)
	}
	historyJSON, err := json.Marshal(p.MoodHistory)
	if err != nil {
		return fmt.Errorf("marshaling mood history: %w", err)
	}

	query := `
	INSERT INTO personas (id, name, avatar, color, traits, style, current_mood, mood_history, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		avatar = excluded.avatar,
		color = excluded.color,
		traits = excluded.traits,
		style = excluded.style,
		current_mood = excluded.current_mood,
		mood_history = excluded.mood_history,
		created_at = excluded.created_at
	`

	_, err = c.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Avatar,
		p.Color,
		string(traitsJSON),
		string(p.Style),
		string(p.CurrentMood),
		string(historyJSON),
		p.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upserting persona: %w", err)
	}
	return nil
}

const personaColumns = `id, name, avatar, color, traits, style, current_mood, mood_history, created_at`

func (c *Client) GetPersona(ctx context.Context, id string) (*persona.Persona, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+personaColumns+` FROM personas WHERE id = ?`, id)
	p, err := scanPersona(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting persona: %w", err)
	}
	return p, nil
}

func (c *Client) ListPersonas(ctx context.Context) ([]*persona.Persona, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+personaColumns+` FROM personas ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing personas: %w", err)
	}
	defer rows.Close()

	personas := []*persona.Persona{}
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning persona: %w", err)
		}
		personas = append(personas, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating persona rows: %w", err)
	}
	return personas, nil
}

func (c *Client) DeletePersona(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM personas WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting persona: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPersona(row rowScanner) (*persona.Persona, error) {
	var p persona.Persona
	var traitsJSON, historyJSON string
	var style, mood string
	var createdAt int64
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Avatar,
		&p.Color,
		&traitsJSON,
		&style,
		&mood,
		&historyJSON,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(traitsJSON), &p.Traits); err != nil {
		return nil, fmt.Errorf("unmarshaling traits: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &p.MoodHistory); err != nil {
		return nil, fmt.Errorf("unmarshaling mood history: %w", err)
	}
	if p.MoodHistory == nil {
		p.MoodHistory = []persona.MoodEntry{}
	}
	p.Style = persona.CommunicationStyle(style)
	p.CurrentMood = persona.Mood(mood)
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
