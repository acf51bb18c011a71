package sqlite

import (
	"context"
	"fmt"
	"strings"

	"personasim/internal/store"
)

// SearchMessages runs a web-search style query (terms, "phrases", -exclude,
// OR, prefix*) against saved transcripts, best matches first.
func (c *Client) SearchMessages(ctx context.Context, query string) ([]store.SearchHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	sqlQuery := `
	SELECT conversation_id, message_id, persona_id,
		   snippet(messages_fts, 0, '**', '**', '...', 24) AS snippet,
		   -bm25(messages_fts) AS score
	FROM messages_fts
	WHERE messages_fts MATCH ?
	ORDER BY score DESC, conversation_id ASC, message_id ASC
	LIMIT ?
	`
	rows, err := c.db.QueryContext(ctx, sqlQuery, match, store.SearchLimit)
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

type searchToken struct {
	text   string
	phrase bool
}

func tokenize(input string) []searchToken {
	var tokens []searchToken
	var current strings.Builder
	inQuote := false

	flush := func(phrase bool) {
		if current.Len() > 0 {
			tokens = append(tokens, searchToken{text: current.String(), phrase: phrase})
			current.Reset()
		}
	}
	for _, r := range input {
		switch {
		case r == '"':
			flush(inQuote)
			inQuote = !inQuote
		case inQuote:
			current.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			flush(false)
		default:
			current.WriteRune(r)
		}
	}
	flush(inQuote)
	return tokens
}

// ftsQuery translates web-search syntax into an FTS5 MATCH expression.
// Adjacent terms are joined with AND. FTS5 NOT is binary, so a leading
// exclusion is dropped.
func ftsQuery(input string) string {
	var parts []string
	lastIsOperator := func() bool {
		return len(parts) > 0 && isOperator(parts[len(parts)-1])
	}
	setOperator := func(op string) {
		if lastIsOperator() {
			parts[len(parts)-1] = op
			return
		}
		parts = append(parts, op)
	}

	for _, tok := range tokenize(input) {
		if tok.phrase {
			if len(parts) > 0 && !lastIsOperator() {
				parts = append(parts, "AND")
			}
			parts = append(parts, quoteFTS(tok.text))
			continue
		}

		upper := strings.ToUpper(tok.text)
		if isOperator(upper) {
			if len(parts) > 0 {
				setOperator(upper)
			}
			continue
		}

		text := tok.text
		if strings.HasPrefix(text, "-") && len(text) > 1 {
			if len(parts) == 0 {
				continue
			}
			setOperator("NOT")
			text = text[1:]
		} else if len(parts) > 0 && !lastIsOperator() {
			parts = append(parts, "AND")
		}
		parts = append(parts, termFTS(text))
	}

	if lastIsOperator() {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, " ")
}

func isOperator(s string) bool {
	return s == "AND" || s == "OR" || s == "NOT"
}

func termFTS(text string) string {
	if len(text) > 1 && strings.HasSuffix(text, "*") {
		return quoteFTS(strings.TrimSuffix(text, "*")) + "*"
	}
	return quoteFTS(text)
}

func quoteFTS(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}
