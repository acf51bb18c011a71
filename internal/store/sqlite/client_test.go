package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"personasim/internal/store"
	"personasim/internal/store/storetest"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "personasim.db")
	client, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return client
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestClient(t) })
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	client := newTestClient(t)
	if err := client.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	defer client.Close(ctx)
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	personas, err := client.ListPersonas(ctx)
	if err != nil {
		t.Fatalf("listing personas: %v", err)
	}
	if len(personas) != 0 {
		t.Fatalf("expected empty store, got %d personas", len(personas))
	}
}

func TestNewRejectsBadDSN(t *testing.T) {
	_, err := New(context.Background(), "postgres://localhost/db")
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("a malformed DSN is a usage error, not unavailability")
	}
}

func TestNewUnavailable(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "missing-dir", "nested", "db.sqlite")
	_, err := New(context.Background(), dsn)
	if err == nil {
		t.Fatalf("expected error for unreachable path")
	}
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRunSQL(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	rows, err := client.RunSQL(ctx, "SELECT ? AS answer", map[string]any{"1": 42})
	if err != nil {
		t.Fatalf("run sql: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if _, err := client.RunSQL(ctx, "DELETE FROM personas", nil); err == nil {
		t.Fatalf("expected write query to be rejected")
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "memory", input: "sqlite://:memory:", expected: ":memory:"},
		{name: "absolute", input: "sqlite:///var/lib/sim.db", expected: "/var/lib/sim.db"},
		{name: "relative dot", input: "sqlite://./sim.db", expected: "./sim.db"},
		{name: "bare relative", input: "sqlite://sim.db", expected: "./sim.db"},
		{name: "query kept", input: "sqlite://sim.db?cache=shared", expected: "./sim.db?cache=shared"},
		{name: "escaped path", input: "sqlite://my%20sim.db", expected: "./my sim.db"},
		{name: "wrong scheme", input: "file:sim.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Fatalf("parseDSN(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
