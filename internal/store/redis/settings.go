package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"personasim/internal/persona"
)

func (c *Client) PutPreferences(ctx context.Context, prefs persona.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key("settings", persona.PreferencesKey), data, 0).Err(); err != nil {
		return fmt.Errorf("upserting preferences: %w", err)
	}
	return nil
}

func (c *Client) GetPreferences(ctx context.Context) (*persona.Preferences, error) {
	var prefs persona.Preferences
	found, err := c.getJSON(ctx, c.key("settings", persona.PreferencesKey), &prefs)
	if err != nil {
		return nil, fmt.Errorf("getting preferences: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &prefs, nil
}
