package store

import (
	"fmt"
	"strings"
)

// CheckReadOnly rejects anything other than a single SELECT or WITH query.
func CheckReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if trimmed == "" {
		return fmt.Errorf("query is required")
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("only a single statement is allowed")
	}
	first := strings.ToUpper(strings.Fields(trimmed)[0])
	switch first {
	case "SELECT", "WITH":
		return nil
	default:
		return fmt.Errorf("only read-only queries are allowed, got %s", first)
	}
}
