package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

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
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    avatar = EXCLUDED.avatar,
    color = EXCLUDED.color,
    traits = EXCLUDED.traits,
    style = EXCLUDED.style,
    current_mood = EXCLUDED.current_mood,
    mood_history = EXCLUDED.mood_history,
    created_at = EXCLUDED.created_at
`
	_, err = c.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Avatar,
		p.Color,
		traitsJSON,
		string(p.Style),
		string(p.CurrentMood),
		historyJSON,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting persona: %w", err)
	}
	return nil
}

const personaColumns = `id, name, avatar, color, traits, style, current_mood, mood_history, created_at`

func (c *Client) GetPersona(ctx context.Context, id string) (*persona.Persona, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+personaColumns+` FROM personas WHERE id = $1`, id)
	p, err := scanPersona(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting persona: %w", err)
	}
	return p, nil
}

func (c *Client) ListPersonas(ctx context.Context) ([]*persona.Persona, error) {
	rows, err := c.pool.Query(ctx, `SELECT `+personaColumns+` FROM personas ORDER BY created_at, id`)
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
	if _, err := c.pool.Exec(ctx, `DELETE FROM personas WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting persona: %w", err)
	}
	return nil
}

func scanPersona(row pgx.Row) (*persona.Persona, error) {
	var p persona.Persona
	var traitsJSON, historyJSON []byte
	var style, mood string
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Avatar,
		&p.Color,
		&traitsJSON,
		&style,
		&mood,
		&historyJSON,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(traitsJSON, &p.Traits); err != nil {
		return nil, fmt.Errorf("unmarshaling traits: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &p.MoodHistory); err != nil {
		return nil, fmt.Errorf("unmarshaling mood history: %w", err)
	}
	if p.MoodHistory == nil {
		p.MoodHistory = []persona.MoodEntry{}
	}
	p.Style = persona.CommunicationStyle(style)
	p.CurrentMood = persona.Mood(mood)
	p.CreatedAt = utc(p.CreatedAt)
	return &p, nil
}

func utc(t time.Time) time.Time {
	return persona.Stamp(t)
}
