// Package validate checks stored simulator records for consistency.
package validate

import (
	"context"
	"fmt"

	"personasim/internal/persona"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeTraitRange          = "trait_out_of_range"
	codeInvalidStyle        = "style_invalid"
	codeInvalidMood         = "mood_invalid"
	codeMissingName         = "missing_name"
	codeDuplicatePersona    = "duplicate_persona_id"
	codeHistoryOrder        = "mood_history_out_of_order"
	codeHistoryMismatch     = "mood_history_mismatch"
	codeScoreRange          = "score_out_of_range"
	codeSelfRelationship    = "self_relationship"
	codeDuplicatePair       = "duplicate_pair"
	codeMissingPersona      = "missing_persona_reference"
	codeForeignAuthor       = "author_not_participant"
	codeSentimentRange      = "sentiment_out_of_range"
	codeTooFewParticipants  = "too_few_participants"
	codeEmptyConversation   = "empty_conversation"
	codeNegativeInteraction = "negative_interactions"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	// Subject is the id of the record the issue is about: a persona,
	// a conversation, or an "a|b" pair key.
	Subject string
}

type Report struct {
	Issues []Issue
}

// Errors returns the error-severity issues.
func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarn)
}

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

func Run(ctx context.Context, src Source) (*Report, error) {
	if src == nil {
		return nil, fmt.Errorf("store is required")
	}

	personas, err := src.ListPersonas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	relationships, err := src.ListRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	conversations, err := src.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	issues := make([]Issue, 0)
	known := make(map[string]struct{}, len(personas))
	for _, p := range personas {
		if _, dup := known[p.ID]; dup {
			issues = append(issues, errorf(p.ID, codeDuplicatePersona, "persona id appears more than once"))
		}
		known[p.ID] = struct{}{}
		issues = append(issues, validatePersona(p)...)
	}

	seenPairs := make(map[persona.PairKey]struct{}, len(relationships))
	for _, r := range relationships {
		key := r.Key()
		if _, dup := seenPairs[key]; dup {
			issues = append(issues, errorf(key.String(), codeDuplicatePair, "more than one record for the pair"))
		}
		seenPairs[key] = struct{}{}
		issues = append(issues, validateRelationship(r, known)...)
	}

	for _, c := range conversations {
		issues = append(issues, validateConversation(c, known)...)
	}

	return &Report{Issues: issues}, nil
}

func validatePersona(p *persona.Persona) []Issue {
	var issues []Issue
	if p.Name == "" {
		issues = append(issues, errorf(p.ID, codeMissingName, "persona has no name"))
	}
	if err := p.Traits.Validate(); err != nil {
		issues = append(issues, errorf(p.ID, codeTraitRange, err.Error()))
	}
	if !p.Style.Valid() {
		issues = append(issues, errorf(p.ID, codeInvalidStyle, fmt.Sprintf("unknown communication style: %s", p.Style)))
	}
	if !p.CurrentMood.Valid() {
		issues = append(issues, errorf(p.ID, codeInvalidMood, fmt.Sprintf("unknown mood: %s", p.CurrentMood)))
	}

	for i := 1; i < len(p.MoodHistory); i++ {
		if p.MoodHistory[i].At.Before(p.MoodHistory[i-1].At) {
			issues = append(issues, errorf(p.ID, codeHistoryOrder, fmt.Sprintf("mood history entry %d is older than entry %d", i, i-1)))
			break
		}
	}
	if n := len(p.MoodHistory); n > 0 && p.MoodHistory[n-1].Mood != p.CurrentMood {
		issues = append(issues, warnf(p.ID, codeHistoryMismatch,
			fmt.Sprintf("current mood %s differs from last history entry %s", p.CurrentMood, p.MoodHistory[n-1].Mood)))
	}
	return issues
}

func validateRelationship(r *persona.Relationship, known map[string]struct{}) []Issue {
	key := r.Key()
	subject := key.String()

	var issues []Issue
	if key.A == key.B {
		issues = append(issues, errorf(subject, codeSelfRelationship, "relationship pairs a persona with itself"))
	}
	if r.Score < persona.ScoreMin || r.Score > persona.ScoreMax {
		issues = append(issues, errorf(subject, codeScoreRange, fmt.Sprintf("score %d outside [%d, %d]", r.Score, persona.ScoreMin, persona.ScoreMax)))
	}
	if r.Interactions < 0 {
		issues = append(issues, errorf(subject, codeNegativeInteraction, fmt.Sprintf("negative interaction count %d", r.Interactions)))
	}
	for _, id := range []string{key.A, key.B} {
		if _, ok := known[id]; !ok {
			issues = append(issues, warnf(subject, codeMissingPersona, fmt.Sprintf("references missing persona %s", id)))
		}
	}
	return issues
}

func validateConversation(c *persona.Conversation, known map[string]struct{}) []Issue {
	var issues []Issue
	if len(c.Participants) < 2 {
		issues = append(issues, warnf(c.ID, codeTooFewParticipants, fmt.Sprintf("%d participants", len(c.Participants))))
	}
	if len(c.Messages) == 0 {
		issues = append(issues, warnf(c.ID, codeEmptyConversation, "saved conversation has no messages"))
	}
	for _, id := range c.Participants {
		if _, ok := known[id]; !ok {
			issues = append(issues, warnf(c.ID, codeMissingPersona, fmt.Sprintf("participant %s no longer exists", id)))
		}
	}
	for _, m := range c.Messages {
		if !c.HasParticipant(m.PersonaID) {
			issues = append(issues, warnf(c.ID, codeForeignAuthor, fmt.Sprintf("message %s authored by non-participant %s", m.ID, m.PersonaID)))
		}
		if !m.Mood.Valid() {
			issues = append(issues, errorf(c.ID, codeInvalidMood, fmt.Sprintf("message %s has unknown mood %s", m.ID, m.Mood)))
		}
		if m.Sentiment < -1 || m.Sentiment > 1 {
			issues = append(issues, errorf(c.ID, codeSentimentRange, fmt.Sprintf("message %s sentiment %.2f outside [-1, 1]", m.ID, m.Sentiment)))
		}
	}
	return issues
}

func errorf(subject, code, message string) Issue {
	return Issue{Severity: SeverityError, Code: code, Message: message, Subject: subject}
}

func warnf(subject, code, message string) Issue {
	return Issue{Severity: SeverityWarn, Code: code, Message: message, Subject: subject}
}
