package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"personasim/internal/persona"
	"personasim/internal/store"
	"personasim/internal/store/storetest"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	ctx := context.Background()
	client, err := New(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connecting to miniredis: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	return client
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestClient(t) })
}

func TestNewUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), "redis://"+addr)
	if err == nil {
		t.Fatalf("expected error for closed server")
	}
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewRejectsBadDSN(t *testing.T) {
	if _, err := New(context.Background(), "sqlite://./x.db"); err == nil {
		t.Fatalf("expected error for non-redis DSN")
	}
}

func TestPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	other := client.WithPrefix("other")

	p, err := persona.New(persona.Spec{Name: "Ada"}, testTime)
	if err != nil {
		t.Fatalf("new persona: %v", err)
	}
	if err := client.PutPersona(ctx, p); err != nil {
		t.Fatalf("put persona: %v", err)
	}

	got, err := other.GetPersona(ctx, p.ID)
	if err != nil {
		t.Fatalf("get persona: %v", err)
	}
	if got != nil {
		t.Fatalf("expected persona to be invisible under another prefix")
	}
}

func TestListSkipsStaleIndexEntries(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	p, err := persona.New(persona.Spec{Name: "Ada"}, testTime)
	if err != nil {
		t.Fatalf("new persona: %v", err)
	}
	if err := client.PutPersona(ctx, p); err != nil {
		t.Fatalf("put persona: %v", err)
	}
	if err := client.rdb.Del(ctx, client.personaKey(p.ID)).Err(); err != nil {
		t.Fatalf("deleting value: %v", err)
	}

	personas, err := client.ListPersonas(ctx)
	if err != nil {
		t.Fatalf("list personas: %v", err)
	}
	if len(personas) != 0 {
		t.Fatalf("expected stale index entry to be skipped, got %d personas", len(personas))
	}
}

var testTime = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
