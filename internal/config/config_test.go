package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"personasim/internal/persona"
)

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "test-project" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if cfg.Simulation.MinDelay != 500*time.Millisecond || cfg.Simulation.MaxDelay != 1500*time.Millisecond {
			t.Fatalf("expected parsed delays, got %+v", cfg.Simulation)
		}
		if cfg.Simulation.MaxMessages != 20 {
			t.Fatalf("expected max_messages 20, got %d", cfg.Simulation.MaxMessages)
		}
		if cfg.Log.Format != "json" || cfg.Log.File == "" {
			t.Fatalf("expected log settings, got %+v", cfg.Log)
		}
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Database.DSN != DefaultDSN {
			t.Fatalf("expected default dsn, got %q", cfg.Database.DSN)
		}
		if cfg.Simulation.MinDelay != 2*time.Second || cfg.Simulation.MaxDelay != 3*time.Second {
			t.Fatalf("expected default delays, got %+v", cfg.Simulation)
		}
	})

	t.Run("defaults fill omitted sections", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\n")
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
			t.Fatalf("expected default log settings, got %+v", cfg.Log)
		}
	})

	t.Run("scaffold round-trips", func(t *testing.T) {
		path := writeTempConfig(t, Scaffold("fresh"))
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected scaffold to load, got %v", err)
		}
		if cfg.Project != "fresh" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
	})

	invalid := []struct {
		name     string
		contents string
	}{
		{"missing project name", "version: 1\n"},
		{"unsupported version", "project: test\nversion: 2\n"},
		{"dsn without scheme", "project: test\nversion: 1\ndatabase:\n  dsn: ./local.db\n"},
		{"min above max", "project: test\nversion: 1\nsimulation:\n  min_delay: 5s\n  max_delay: 1s\n"},
		{"negative max messages", "project: test\nversion: 1\nsimulation:\n  max_messages: -1\n"},
		{"unknown log level", "project: test\nversion: 1\nlog:\n  level: loud\n"},
		{"unknown log format", "project: test\nversion: 1\nlog:\n  format: xml\n"},
		{"invalid yaml", "project: [\n"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempConfig(t, tt.contents)
			if _, err := LoadProjectConfig(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadRoster(t *testing.T) {
	t.Run("valid roster loads", func(t *testing.T) {
		roster, err := LoadRoster(filepath.Join("testdata", "roster.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(roster.Personas) != 3 {
			t.Fatalf("expected 3 personas, got %d", len(roster.Personas))
		}

		nova := roster.Personas[0].Spec()
		if nova.Avatar != "🦉" {
			t.Fatalf("expected avatar name resolved to glyph, got %q", nova.Avatar)
		}
		if nova.Traits.Logic != 90 || nova.Style != persona.StyleAnalytical {
			t.Fatalf("unexpected spec %+v", nova)
		}

		sage := roster.Personas[2].Spec()
		if sage.Traits != persona.DefaultTraits() {
			t.Fatalf("expected default traits, got %+v", sage.Traits)
		}
	})

	invalid := []struct {
		name     string
		contents string
	}{
		{"wrong version", "version: 2\npersonas:\n  - name: A\n"},
		{"empty", "version: 1\n"},
		{"missing name", "version: 1\npersonas:\n  - style: casual\n"},
		{"duplicate names", "version: 1\npersonas:\n  - name: Pip\n  - name: pip\n"},
		{"unknown style", "version: 1\npersonas:\n  - name: Pip\n    style: sarcastic\n"},
		{"trait out of range", "version: 1\npersonas:\n  - name: Pip\n    traits:\n      logic: 140\n"},
		{"unknown avatar", "version: 1\npersonas:\n  - name: Pip\n    avatar: Badger\n"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRoster([]byte(tt.contents)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadRoster(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}
