package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"personasim/internal/persona"
)

func (c *Client) PutPreferences(ctx context.Context, prefs persona.Preferences) error {
	value, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	_, err = c.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		persona.PreferencesKey, value,
	)
	if err != nil {
		return fmt.Errorf("upserting preferences: %w", err)
	}
	return nil
}

func (c *Client) GetPreferences(ctx context.Context) (*persona.Preferences, error) {
	var value []byte
	err := c.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, persona.PreferencesKey).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting preferences: %w", err)
	}
	var prefs persona.Preferences
	if err := json.Unmarshal(value, &prefs); err != nil {
		return nil, fmt.Errorf("unmarshaling preferences: %w", err)
	}
	return &prefs, nil
}
