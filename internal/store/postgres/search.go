package postgres

import (
	"context"
	"fmt"
	"strings"

	"personasim/internal/store"
)

// SearchMessages matches transcript messages with websearch_to_tsquery
// syntax, ranked by ts_rank.
func (c *Client) SearchMessages(ctx context.Context, query string) ([]store.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	sql := `
SELECT c.id,
    m->>'id',
    m->>'personaId',
    ts_headline('english', m->>'content', q,
        'MaxWords=24, MinWords=8, StartSel=**, StopSel=**') AS snippet,
    ts_rank(to_tsvector('english', m->>'content'), q)::float8 AS score
FROM conversations c
CROSS JOIN LATERAL jsonb_array_elements(c.messages) AS m
CROSS JOIN websearch_to_tsquery('english', $1) AS q
WHERE to_tsvector('english', m->>'content') @@ q
ORDER BY score DESC, c.id ASC, m->>'id' ASC
LIMIT $2
`
	rows, err := c.pool.Query(ctx, sql, query, store.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	defer rows.Close()

	hits := []store.SearchHit{}
	for rows.Next() {
		var h store.SearchHit
		if err := rows.Scan(&h.ConversationID, &h.MessageID, &h.PersonaID, &h.Snippet, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search hits: %w", err)
	}
	return hits, nil
}
