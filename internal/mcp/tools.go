package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"personasim/internal/persona"
	"personasim/internal/sim"
)

// maxSimulateMessages bounds a single simulate call.
const maxSimulateMessages = 100

type ListPersonasInput struct{}

type GetPersonaInput struct {
	Persona string `json:"persona" jsonschema:"persona id or name"`
}

type CreatePersonaInput struct {
	Name   string          `json:"name" jsonschema:"display name"`
	Avatar string          `json:"avatar,omitempty" jsonschema:"avatar glyph or name, e.g. Owl"`
	Color  string          `json:"color,omitempty" jsonschema:"color tag"`
	Style  string          `json:"style,omitempty" jsonschema:"formal, casual, analytical, creative, or empathetic"`
	Traits *persona.Traits `json:"traits,omitempty" jsonschema:"trait values from 0 to 100"`
}

type DeletePersonaInput struct {
	Persona string `json:"persona" jsonschema:"persona id or name"`
}

type ListScenariosInput struct{}

type ListRelationshipsInput struct {
	Persona string `json:"persona,omitempty" jsonschema:"restrict to relationships of this persona"`
}

type ListConversationsInput struct{}

type GetConversationInput struct {
	ID string `json:"id" jsonschema:"conversation id"`
}

type SearchMessagesInput struct {
	Query string `json:"query" jsonschema:"search terms; supports quoted phrases, -exclude and OR"`
}

type SimulateInput struct {
	Scenario string   `json:"scenario" jsonschema:"scenario id"`
	Personas []string `json:"personas" jsonschema:"at least two persona ids or names"`
	Messages int      `json:"messages,omitempty" jsonschema:"number of messages to generate"`
}

type PersonaOutput struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Avatar      string         `json:"avatar"`
	Color       string         `json:"color"`
	Style       string         `json:"style"`
	Mood        string         `json:"mood"`
	Traits      persona.Traits `json:"traits"`
	MoodHistory []string       `json:"mood_history,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type ListPersonasOutput struct {
	Personas []PersonaOutput `json:"personas"`
}

type DeletePersonaOutput struct {
	Deleted string `json:"deleted"`
}

type ScenarioOutput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Difficulty  string   `json:"difficulty"`
	Prompts     []string `json:"prompts"`
}

type ListScenariosOutput struct {
	Scenarios []ScenarioOutput `json:"scenarios"`
}

type RelationshipOutput struct {
	PersonaA        string    `json:"persona_a"`
	PersonaB        string    `json:"persona_b"`
	Score           int       `json:"score"`
	Interactions    int       `json:"interactions"`
	LastInteraction time.Time `json:"last_interaction"`
}

type ListRelationshipsOutput struct {
	Relationships []RelationshipOutput `json:"relationships"`
}

type ConversationSummaryOutput struct {
	ID           string    `json:"id"`
	Scenario     string    `json:"scenario,omitempty"`
	Participants []string  `json:"participants"`
	Messages     int       `json:"messages"`
	StartedAt    time.Time `json:"started_at"`
}

type ListConversationsOutput struct {
	Conversations []ConversationSummaryOutput `json:"conversations"`
}

type MessageOutput struct {
	Persona   string    `json:"persona"`
	Name      string    `json:"name,omitempty"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood"`
	Sentiment float64   `json:"sentiment"`
	Timestamp time.Time `json:"timestamp"`
}

type SearchHitOutput struct {
	Conversation string  `json:"conversation"`
	Message      string  `json:"message"`
	Persona      string  `json:"persona"`
	Snippet      string  `json:"snippet"`
	Score        float64 `json:"score"`
}

type SearchMessagesOutput struct {
	Results []SearchHitOutput `json:"results"`
}

type ConversationOutput struct {
	ConversationSummaryOutput
	Transcript []MessageOutput `json:"transcript"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_personas",
		Description: "List every persona with its current mood",
	}, s.handleListPersonas)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_persona",
		Description: "Retrieve a persona with traits and mood history",
	}, s.handleGetPersona)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "create_persona",
		Description: "Create a persona",
	}, s.handleCreatePersona)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "delete_persona",
		Description: "Delete a persona",
	}, s.handleDeletePersona)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_scenarios",
		Description: "List the scenario catalog",
	}, s.handleListScenarios)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_relationships",
		Description: "List relationship scores between personas",
	}, s.handleListRelationships)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_conversations",
		Description: "List saved conversations",
	}, s.handleListConversations)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_conversation",
		Description: "Retrieve a saved conversation transcript",
	}, s.handleGetConversation)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_messages",
		Description: "Full-text search over saved conversation transcripts",
	}, s.handleSearchMessages)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "simulate",
		Description: "Run a conversation between personas for a number of messages and save it",
	}, s.handleSimulate)
}

func (s *Server) handleListPersonas(ctx context.Context, req *sdk.CallToolRequest, input ListPersonasInput) (*sdk.CallToolResult, ListPersonasOutput, error) {
	personas := s.state.Personas()
	output := make([]PersonaOutput, 0, len(personas))
	for _, p := range personas {
		out := personaOutput(p)
		out.MoodHistory = nil
		output = append(output, out)
	}
	return nil, ListPersonasOutput{Personas: output}, nil
}

func (s *Server) handleGetPersona(ctx context.Context, req *sdk.CallToolRequest, input GetPersonaInput) (*sdk.CallToolResult, PersonaOutput, error) {
	p, err := s.resolvePersona(input.Persona)
	if err != nil {
		return nil, PersonaOutput{}, err
	}
	return nil, personaOutput(p), nil
}

func (s *Server) handleCreatePersona(ctx context.Context, req *sdk.CallToolRequest, input CreatePersonaInput) (*sdk.CallToolResult, PersonaOutput, error) {
	spec := persona.Spec{
		Name:   input.Name,
		Color:  input.Color,
		Style:  persona.CommunicationStyle(input.Style),
		Traits: persona.DefaultTraits(),
	}
	if input.Avatar != "" {
		avatar, ok := persona.LookupAvatar(input.Avatar)
		if !ok {
			return nil, PersonaOutput{}, fmt.Errorf("unknown avatar: %q", input.Avatar)
		}
		spec.Avatar = avatar.Glyph
	}
	if input.Traits != nil {
		if err := input.Traits.Validate(); err != nil {
			return nil, PersonaOutput{}, err
		}
		spec.Traits = *input.Traits
	}

	p, err := persona.New(spec, s.clock())
	if err != nil {
		return nil, PersonaOutput{}, err
	}
	if err := s.state.AddPersona(ctx, p); err != nil {
		return nil, PersonaOutput{}, err
	}
	return nil, personaOutput(p), nil
}

func (s *Server) handleDeletePersona(ctx context.Context, req *sdk.CallToolRequest, input DeletePersonaInput) (*sdk.CallToolResult, DeletePersonaOutput, error) {
	p, err := s.resolvePersona(input.Persona)
	if err != nil {
		return nil, DeletePersonaOutput{}, err
	}
	if err := s.state.RemovePersona(ctx, p.ID); err != nil {
		return nil, DeletePersonaOutput{}, err
	}
	return nil, DeletePersonaOutput{Deleted: p.ID}, nil
}

func (s *Server) handleListScenarios(ctx context.Context, req *sdk.CallToolRequest, input ListScenariosInput) (*sdk.CallToolResult, ListScenariosOutput, error) {
	all := s.catalog.All()
	output := make([]ScenarioOutput, 0, len(all))
	for _, sc := range all {
		output = append(output, ScenarioOutput{
			ID:          sc.ID,
			Name:        sc.Name,
			Description: sc.Description,
			Category:    string(sc.Category),
			Difficulty:  string(sc.Difficulty),
			Prompts:     append([]string{}, sc.Prompts...),
		})
	}
	return nil, ListScenariosOutput{Scenarios: output}, nil
}

func (s *Server) handleListRelationships(ctx context.Context, req *sdk.CallToolRequest, input ListRelationshipsInput) (*sdk.CallToolResult, ListRelationshipsOutput, error) {
	var filter string
	if input.Persona != "" {
		p, err := s.resolvePersona(input.Persona)
		if err != nil {
			return nil, ListRelationshipsOutput{}, err
		}
		filter = p.ID
	}

	rels := s.state.Relationships()
	output := make([]RelationshipOutput, 0, len(rels))
	for _, rel := range rels {
		if filter != "" && !rel.Key().Has(filter) {
			continue
		}
		output = append(output, RelationshipOutput{
			PersonaA:        rel.PersonaA,
			PersonaB:        rel.PersonaB,
			Score:           rel.Score,
			Interactions:    rel.Interactions,
			LastInteraction: rel.LastInteraction,
		})
	}
	return nil, ListRelationshipsOutput{Relationships: output}, nil
}

func (s *Server) handleListConversations(ctx context.Context, req *sdk.CallToolRequest, input ListConversationsInput) (*sdk.CallToolResult, ListConversationsOutput, error) {
	convs := s.state.Conversations()
	output := make([]ConversationSummaryOutput, 0, len(convs))
	for _, c := range convs {
		output = append(output, conversationSummary(c))
	}
	return nil, ListConversationsOutput{Conversations: output}, nil
}

func (s *Server) handleGetConversation(ctx context.Context, req *sdk.CallToolRequest, input GetConversationInput) (*sdk.CallToolResult, ConversationOutput, error) {
	if input.ID == "" {
		return nil, ConversationOutput{}, fmt.Errorf("id is required")
	}
	c := s.state.Conversation(input.ID)
	if c == nil {
		return nil, ConversationOutput{}, fmt.Errorf("conversation not found")
	}
	return nil, s.conversationOutput(c), nil
}

func (s *Server) handleSearchMessages(ctx context.Context, req *sdk.CallToolRequest, input SearchMessagesInput) (*sdk.CallToolResult, SearchMessagesOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchMessagesOutput{}, fmt.Errorf("query is required")
	}
	hits, err := s.state.SearchMessages(ctx, input.Query)
	if err != nil {
		return nil, SearchMessagesOutput{}, err
	}
	output := make([]SearchHitOutput, 0, len(hits))
	for _, h := range hits {
		output = append(output, SearchHitOutput{
			Conversation: h.ConversationID,
			Message:      h.MessageID,
			Persona:      h.PersonaID,
			Snippet:      h.Snippet,
			Score:        h.Score,
		})
	}
	return nil, SearchMessagesOutput{Results: output}, nil
}

func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, input SimulateInput) (*sdk.CallToolResult, ConversationOutput, error) {
	sc := s.catalog.Get(input.Scenario)
	if sc == nil {
		return nil, ConversationOutput{}, fmt.Errorf("unknown scenario: %q", input.Scenario)
	}
	if len(input.Personas) < 2 {
		return nil, ConversationOutput{}, fmt.Errorf("at least two personas are required")
	}
	n := input.Messages
	if n <= 0 {
		n = len(input.Personas) * len(sc.Prompts)
	}
	n = min(n, maxSimulateMessages)
	if s.state.Simulating() {
		return nil, ConversationOutput{}, sim.ErrRunning
	}

	s.state.ClearSelection()
	defer s.state.ClearSelection()
	for _, ref := range input.Personas {
		p, err := s.resolvePersona(ref)
		if err != nil {
			return nil, ConversationOutput{}, err
		}
		s.state.SelectPersona(p.ID)
	}
	s.state.SetScenario(sc)

	cfg := s.simCfg
	cfg.MaxMessages = n
	sched := sim.New(s.state, s.engine, cfg, sim.WithClock(s.clock), sim.WithLogger(s.logger))
	defer sched.Close(context.WithoutCancel(ctx))

	if err := sched.StartPaused(ctx); err != nil {
		s.state.SetScenario(nil)
		return nil, ConversationOutput{}, err
	}
	if err := stepToEnd(ctx, sched, len(input.Personas)); err != nil {
		sched.Stop(context.WithoutCancel(ctx))
		return nil, ConversationOutput{}, err
	}

	conv, err := sched.Stop(ctx)
	if err != nil {
		return nil, ConversationOutput{}, err
	}
	if conv == nil {
		return nil, ConversationOutput{}, fmt.Errorf("simulation produced no messages")
	}
	return nil, s.conversationOutput(conv), nil
}

// stepToEnd steps a paused run until it stops itself. It gives up once a
// full round of turns passes without a message, which happens when the
// participants were deleted mid-run.
func stepToEnd(ctx context.Context, sched *sim.Scheduler, participants int) error {
	skipped := 0
	for sched.Phase() == sim.PhasePaused {
		msg, err := sched.Step(ctx)
		if err != nil {
			return err
		}
		if msg != nil {
			skipped = 0
			continue
		}
		skipped++
		if skipped >= max(participants, 1) {
			return nil
		}
	}
	return nil
}

func (s *Server) resolvePersona(ref string) (*persona.Persona, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("persona is required")
	}
	return s.state.FindPersona(ref)
}

func (s *Server) conversationOutput(c *persona.Conversation) ConversationOutput {
	out := ConversationOutput{
		ConversationSummaryOutput: conversationSummary(c),
		Transcript:                make([]MessageOutput, 0, len(c.Messages)),
	}
	for _, m := range c.Messages {
		msg := MessageOutput{
			Persona:   m.PersonaID,
			Content:   m.Content,
			Mood:      string(m.Mood),
			Sentiment: m.Sentiment,
			Timestamp: m.Timestamp,
		}
		if p := s.state.Persona(m.PersonaID); p != nil {
			msg.Name = p.Name
		}
		out.Transcript = append(out.Transcript, msg)
	}
	return out
}

func conversationSummary(c *persona.Conversation) ConversationSummaryOutput {
	return ConversationSummaryOutput{
		ID:           c.ID,
		Scenario:     c.ScenarioID,
		Participants: append([]string{}, c.Participants...),
		Messages:     len(c.Messages),
		StartedAt:    c.StartedAt,
	}
}

func personaOutput(p *persona.Persona) PersonaOutput {
	out := PersonaOutput{
		ID:        p.ID,
		Name:      p.Name,
		Avatar:    p.Avatar,
		Color:     p.Color,
		Style:     string(p.Style),
		Mood:      string(p.CurrentMood),
		Traits:    p.Traits,
		CreatedAt: p.CreatedAt,
	}
	for _, e := range p.MoodHistory {
		out.MoodHistory = append(out.MoodHistory, string(e.Mood))
	}
	return out
}
