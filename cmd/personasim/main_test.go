package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"personasim/internal/store"
)

func writeTempConfig(t *testing.T, maxMessages string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "personasim.yaml")
	contents := `project: cli-test
version: 1
database:
  dsn: sqlite://` + filepath.Join(dir, "personasim.db") + `
simulation:
  min_delay: 1ms
  max_delay: 2ms
  max_messages: ` + maxMessages + `
log:
  level: error
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPersonaLifecycle(t *testing.T) {
	cfg := writeTempConfig(t, "4")
	roster := filepath.Join("..", "..", "internal", "config", "testdata", "roster.yaml")

	out, err := execute(t, "--config", cfg, "persona", "import", roster)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if strings.Count(out, "Created") != 3 {
		t.Fatalf("expected 3 personas created:\n%s", out)
	}

	out, err = execute(t, "--config", cfg, "persona", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Personas (3)") || strings.Index(out, "Nova") > strings.Index(out, "Sage") {
		t.Fatalf("expected roster order in listing:\n%s", out)
	}

	out, err = execute(t, "--config", cfg, "persona", "show", "nova")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "analytical") {
		t.Fatalf("expected persona detail:\n%s", out)
	}

	if _, err := execute(t, "--config", cfg, "persona", "delete", "Sage"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out, _ = execute(t, "--config", cfg, "persona", "list")
	if !strings.Contains(out, "Personas (2)") {
		t.Fatalf("expected 2 personas after delete:\n%s", out)
	}
}

func TestSimulateSavesConversation(t *testing.T) {
	cfg := writeTempConfig(t, "4")
	if _, err := execute(t, "--config", cfg, "persona", "create", "--name", "Ada", "--avatar", "Owl"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := execute(t, "--config", cfg, "persona", "create", "--name", "Bo", "--style", "formal"); err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := execute(t, "--config", cfg, "simulate", "--scenario", "team-building", "--persona", "Ada", "--persona", "Bo", "--seed", "42")
	if err != nil {
		t.Fatalf("simulate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "with 4 messages") {
		t.Fatalf("expected saved summary:\n%s", out)
	}

	out, err = execute(t, "--config", cfg, "history", "list")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "Conversations (1)") || !strings.Contains(out, "team-building") {
		t.Fatalf("expected saved conversation in history:\n%s", out)
	}

	out, err = execute(t, "--config", cfg, "history", "search", "zzzunmatched")
	if err != nil || !strings.Contains(out, "No matching messages.") {
		t.Fatalf("expected empty search result, got %q, %v", out, err)
	}

	out, err = execute(t, "--config", cfg, "relations", "--persona", "Ada")
	if err != nil {
		t.Fatalf("relations: %v", err)
	}
	if !strings.Contains(out, "Relationships (1)") || !strings.Contains(out, "4 interactions") {
		t.Fatalf("expected one relationship with 4 interactions:\n%s", out)
	}

	if out, err := execute(t, "--config", cfg, "validate"); err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
}

func TestSimulateRequiresTwoPersonas(t *testing.T) {
	cfg := writeTempConfig(t, "4")
	if _, err := execute(t, "--config", cfg, "simulate", "--scenario", "team-building", "--persona", "Ada"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTheme(t *testing.T) {
	cfg := writeTempConfig(t, "0")

	out, err := execute(t, "--config", cfg, "theme", "get")
	if err != nil || strings.TrimSpace(out) != "dark" {
		t.Fatalf("expected default dark theme, got %q, %v", out, err)
	}
	if _, err := execute(t, "--config", cfg, "theme", "set", "sepia"); err == nil {
		t.Fatalf("expected unknown theme error")
	}
	if _, err := execute(t, "--config", cfg, "theme", "set", "neon"); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	out, _ = execute(t, "--config", cfg, "theme", "get")
	if strings.TrimSpace(out) != "neon" {
		t.Fatalf("expected neon after restart, got %q", out)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personasim.yaml")
	if err := runInit(path, "demo"); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "project: demo") {
		t.Fatalf("unexpected scaffold:\n%s", data)
	}
	if err := runInit(path, "demo"); err == nil {
		t.Fatalf("expected error when config exists")
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	db, err := openStore(ctx, "memory://")
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	db.Close(ctx)

	if _, err := openStore(ctx, "mysql://localhost/db"); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
	if _, err := openStore(ctx, "personasim.db"); err == nil {
		t.Fatalf("expected missing scheme error")
	}
	_, err = openStore(ctx, "sqlite://"+filepath.Join(t.TempDir(), "missing", "dir", "p.db"))
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestParseParamPairs(t *testing.T) {
	params, err := parseParamPairs([]string{"id = persona-1", "", "q=a=b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["id"] != "persona-1" || params["q"] != "a=b" {
		t.Fatalf("unexpected params: %+v", params)
	}
	if _, err := parseParamPairs([]string{"novalue"}); err == nil {
		t.Fatalf("expected error for missing '='")
	}
	if _, err := parseParamPairs([]string{"=x"}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestSQL(t *testing.T) {
	cfg := writeTempConfig(t, "0")
	if _, err := execute(t, "--config", cfg, "persona", "create", "--name", "Ada"); err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := execute(t, "--config", cfg, "sql", "SELECT name FROM personas")
	if err != nil {
		t.Fatalf("sql: %v", err)
	}
	if !strings.Contains(out, `"name": "Ada"`) {
		t.Fatalf("expected Ada in result:\n%s", out)
	}
	if _, err := execute(t, "--config", cfg, "sql", "DELETE FROM personas"); err == nil {
		t.Fatalf("expected write query to be rejected")
	}
}
