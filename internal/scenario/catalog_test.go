package scenario

import (
	"testing"

	"personasim/internal/persona"
)

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(c.All()) != 6 {
		t.Fatalf("expected 6 scenarios, got %d", len(c.All()))
	}
	for _, s := range c.All() {
		if len(s.Prompts) != 5 {
			t.Fatalf("scenario %s: expected 5 prompts, got %d", s.ID, len(s.Prompts))
		}
	}

	brainstorm := c.Get("creative-brainstorm")
	if brainstorm == nil {
		t.Fatalf("expected creative-brainstorm")
	}
	if brainstorm.Name != "Creative Brainstorming" || brainstorm.Category != persona.CategoryCreative {
		t.Fatalf("unexpected scenario %+v", brainstorm)
	}
	if c.Get("missing") != nil {
		t.Fatalf("expected nil for unknown id")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "invalid yaml",
			yaml: "scenarios: [\n",
		},
		{
			name: "missing id",
			yaml: "scenarios:\n  - name: x\n    prompts: [a]\n    difficulty: easy\n    category: creative\n",
		},
		{
			name: "no prompts",
			yaml: "scenarios:\n  - id: x\n    difficulty: easy\n    category: creative\n",
		},
		{
			name: "bad difficulty",
			yaml: "scenarios:\n  - id: x\n    prompts: [a]\n    difficulty: extreme\n    category: creative\n",
		},
		{
			name: "bad category",
			yaml: "scenarios:\n  - id: x\n    prompts: [a]\n    difficulty: easy\n    category: sports\n",
		},
		{
			name: "duplicate id",
			yaml: "scenarios:\n  - id: x\n    prompts: [a]\n    difficulty: easy\n    category: creative\n  - id: x\n    prompts: [b]\n    difficulty: easy\n    category: creative\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
