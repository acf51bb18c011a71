//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"

	"personasim/internal/store"
	"personasim/internal/store/storetest"
)

const dsnEnv = "PERSONASIM_TEST_POSTGRES_DSN"

func newTestClient(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}
	ctx := context.Background()
	client, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })

	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	for _, table := range []string{"personas", "relationships", "conversations", "settings"} {
		if _, err := client.pool.Exec(ctx, "TRUNCATE "+table); err != nil {
			t.Fatalf("truncating %s: %v", table, err)
		}
	}
	return client
}

func TestContract(t *testing.T) {
	storetest.Run(t, newTestClient)
}

func TestRunSQLReadOnly(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t).(*Client)

	rows, err := client.RunSQL(ctx, "SELECT $1::int AS answer", map[string]any{"1": 42})
	if err != nil {
		t.Fatalf("run sql: %v", err)
	}
	if len(rows) != 1 || rows[0]["answer"] != int32(42) {
		t.Fatalf("expected answer 42, got %v", rows)
	}
	if _, err := client.RunSQL(ctx, "DELETE FROM personas", nil); err == nil {
		t.Fatalf("expected write query to be rejected")
	}
}
