// Package render writes personas, relationships and conversations to a
// terminal, styled by the active theme.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"personasim/internal/persona"
	"personasim/internal/store"
)

type Renderer struct {
	w   io.Writer
	lg  *lipgloss.Renderer
	pal palette
	now func() time.Time
}

// New returns a renderer for w. Color output follows what w supports, so a
// pipe or buffer gets plain text.
func New(w io.Writer, theme persona.Theme) *Renderer {
	return &Renderer{w: w, lg: lipgloss.NewRenderer(w), pal: paletteFor(theme), now: time.Now}
}

// WithClock fixes the reference time for relative timestamps.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

func (r *Renderer) style(tag string) lipgloss.Style {
	return r.lg.NewStyle().Foreground(r.pal.color(tag))
}

func (r *Renderer) heading(s string) string {
	return r.lg.NewStyle().Bold(true).Foreground(r.pal.accent).Render(s)
}

func (r *Renderer) faint(s string) string {
	return r.lg.NewStyle().Foreground(r.pal.muted).Render(s)
}

func (r *Renderer) ago(t time.Time) string {
	return humanize.RelTime(t, r.now(), "ago", "from now")
}

// Message writes one chat line. author may be nil when the persona has
// since been deleted.
func (r *Renderer) Message(author *persona.Persona, msg persona.Message) {
	name, avatar, tag := msg.PersonaID, "?", ""
	if author != nil {
		name, avatar, tag = author.Name, author.Avatar, author.Color
	}
	fmt.Fprintf(r.w, "%s %s %s %s\n",
		avatar,
		r.style(tag).Bold(true).Render(name),
		r.style(msg.Mood.Color()).Render(msg.Mood.Emoji()),
		msg.Content,
	)
}

// Status writes a single dim line such as scheduler progress.
func (r *Renderer) Status(format string, args ...any) {
	fmt.Fprintln(r.w, r.faint(fmt.Sprintf(format, args...)))
}

func (r *Renderer) Personas(personas []*persona.Persona) {
	if len(personas) == 0 {
		fmt.Fprintln(r.w, "No personas yet.")
		return
	}
	fmt.Fprintln(r.w, r.heading(fmt.Sprintf("Personas (%d)", len(personas))))
	for _, p := range personas {
		fmt.Fprintf(r.w, "  %s %s %s %s %s\n",
			p.Avatar,
			r.style(p.Color).Render(p.Name),
			r.faint(p.ID),
			r.style(p.CurrentMood.Color()).Render(p.CurrentMood.Emoji()+" "+string(p.CurrentMood)),
			r.faint(string(p.Style)),
		)
	}
}

func (r *Renderer) PersonaDetail(p *persona.Persona, rels []*persona.Relationship, names map[string]string) {
	fmt.Fprintf(r.w, "%s %s\n", p.Avatar, r.heading(p.Name))
	fmt.Fprintf(r.w, "  id:      %s\n", p.ID)
	fmt.Fprintf(r.w, "  style:   %s\n", p.Style)
	fmt.Fprintf(r.w, "  mood:    %s %s\n", p.CurrentMood.Emoji(), p.CurrentMood)
	fmt.Fprintf(r.w, "  created: %s\n", r.ago(p.CreatedAt))

	fmt.Fprintln(r.w, "  traits:")
	traits := []struct {
		name  string
		value int
	}{
		{"creativity", p.Traits.Creativity},
		{"logic", p.Traits.Logic},
		{"empathy", p.Traits.Empathy},
		{"curiosity", p.Traits.Curiosity},
		{"volatility", p.Traits.MoodVolatility},
	}
	for _, t := range traits {
		fmt.Fprintf(r.w, "    %-10s %3d %s\n", t.name, t.value, r.style(p.Color).Render(bar(t.value, 100, 20)))
	}

	if n := len(p.MoodHistory); n > 0 {
		fmt.Fprintf(r.w, "  mood history (%d):", n)
		start := max(0, n-8)
		for _, e := range p.MoodHistory[start:] {
			fmt.Fprintf(r.w, " %s", e.Mood.Emoji())
		}
		fmt.Fprintln(r.w)
	}

	if len(rels) > 0 {
		fmt.Fprintln(r.w, "  relationships:")
		for _, rel := range rels {
			other := rel.Key().Other(p.ID)
			fmt.Fprintf(r.w, "    %-16s %s\n", displayName(other, names), r.score(rel.Score))
		}
	}
}

func (r *Renderer) Relationships(rels []*persona.Relationship, names map[string]string) {
	if len(rels) == 0 {
		fmt.Fprintln(r.w, "No relationships yet.")
		return
	}
	fmt.Fprintln(r.w, r.heading(fmt.Sprintf("Relationships (%d)", len(rels))))
	for _, rel := range rels {
		fmt.Fprintf(r.w, "  %s ↔ %s  %s  %s\n",
			displayName(rel.PersonaA, names),
			displayName(rel.PersonaB, names),
			r.score(rel.Score),
			r.faint(fmt.Sprintf("%d interactions, last %s", rel.Interactions, r.ago(rel.LastInteraction))),
		)
	}
}

func (r *Renderer) score(score int) string {
	tag := "yellow"
	switch {
	case score >= 20:
		tag = "green"
	case score <= -20:
		tag = "red"
	}
	return r.style(tag).Render(fmt.Sprintf("%+4d %s", score, Bond(score)))
}

// Bond names the band a relationship score falls in.
func Bond(score int) string {
	switch {
	case score >= 50:
		return "close"
	case score >= 20:
		return "friendly"
	case score > -20:
		return "neutral"
	case score > -50:
		return "tense"
	default:
		return "hostile"
	}
}

func (r *Renderer) Conversations(convs []*persona.Conversation) {
	if len(convs) == 0 {
		fmt.Fprintln(r.w, "No saved conversations.")
		return
	}
	fmt.Fprintln(r.w, r.heading(fmt.Sprintf("Conversations (%d)", len(convs))))
	for _, c := range convs {
		scenario := c.ScenarioID
		if scenario == "" {
			scenario = "free-form"
		}
		fmt.Fprintf(r.w, "  %s  %-22s %s  %s\n",
			c.ID,
			scenario,
			humanize.Comma(int64(len(c.Messages)))+" messages",
			r.faint(r.ago(c.StartedAt)),
		)
	}
}

func (r *Renderer) Conversation(c *persona.Conversation, authors map[string]*persona.Persona) {
	fmt.Fprintf(r.w, "%s %s\n", r.heading(c.ID), r.faint(r.ago(c.StartedAt)))
	if c.ScenarioID != "" {
		fmt.Fprintf(r.w, "  scenario: %s\n", c.ScenarioID)
	}
	fmt.Fprintf(r.w, "  participants: %d, messages: %d\n\n", len(c.Participants), len(c.Messages))
	for _, m := range c.Messages {
		r.Message(authors[m.PersonaID], m)
	}
}

// SearchHits lists transcript matches. Hit markers in snippets are shown
// with the accent color.
func (r *Renderer) SearchHits(hits []store.SearchHit, names map[string]string) {
	if len(hits) == 0 {
		fmt.Fprintln(r.w, "No matching messages.")
		return
	}
	fmt.Fprintln(r.w, r.heading(fmt.Sprintf("Matches (%d)", len(hits))))
	for _, h := range hits {
		fmt.Fprintf(r.w, "  %s %s: %s\n",
			r.faint(h.ConversationID),
			displayName(h.PersonaID, names),
			r.highlight(h.Snippet),
		)
	}
}

func (r *Renderer) highlight(snippet string) string {
	parts := strings.Split(snippet, "**")
	accent := r.lg.NewStyle().Bold(true).Foreground(r.pal.accent)
	var b strings.Builder
	for i, part := range parts {
		if i%2 == 1 {
			b.WriteString(accent.Render(part))
			continue
		}
		b.WriteString(part)
	}
	return b.String()
}

func (r *Renderer) Scenarios(list []*persona.Scenario) {
	fmt.Fprintln(r.w, r.heading(fmt.Sprintf("Scenarios (%d)", len(list))))
	for _, s := range list {
		fmt.Fprintf(r.w, "  %s %-24s %s %s\n", s.Icon, s.ID, r.faint(string(s.Category)), r.faint(string(s.Difficulty)))
	}
}

func (r *Renderer) ScenarioDetail(s *persona.Scenario) {
	fmt.Fprintf(r.w, "%s %s\n", s.Icon, r.heading(s.Name))
	fmt.Fprintf(r.w, "  %s\n", s.Description)
	fmt.Fprintf(r.w, "  %s, %s\n", s.Category, s.Difficulty)
	for i, p := range s.Prompts {
		fmt.Fprintf(r.w, "  %d. %s\n", i+1, p)
	}
}

func bar(value, maxValue, width int) string {
	filled := value * width / maxValue
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func displayName(id string, names map[string]string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}
