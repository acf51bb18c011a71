// Package sim drives a conversation between the selected personas, one
// message per tick, on a randomized timer.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"personasim/internal/engine"
	"personasim/internal/persona"
	"personasim/internal/state"
)

var (
	// ErrCannotStart is returned when fewer than two personas are selected
	// or no scenario is chosen.
	ErrCannotStart = errors.New("cannot start: need at least 2 selected personas and a scenario")
	ErrNotPaused   = errors.New("simulation is not paused")
	ErrRunning     = errors.New("simulation is already running")
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseRunning
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseSelecting:
		return "selecting"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	default:
		return "idle"
	}
}

type Config struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	// MaxMessages ends the run after that many messages. Zero means no limit.
	MaxMessages int
}

func DefaultConfig() Config {
	return Config{MinDelay: 2 * time.Second, MaxDelay: 3 * time.Second}
}

// Progress describes where a run is in its scenario.
type Progress struct {
	Prompt   int // 1-based index of the current prompt
	Prompts  int
	Cursor   int // completed rounds; not wrapped
	Messages int
}

func (p Progress) String() string {
	return fmt.Sprintf("Prompt %d of %d", p.Prompt, p.Prompts)
}

type Option func(*Scheduler)

// WithRand sets the source used for inter-tick delays.
func WithRand(r engine.Rand) Option {
	return func(s *Scheduler) { s.jitter = r }
}

func WithClock(c engine.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

type Scheduler struct {
	state  *state.Store
	engine *engine.Engine
	cfg    Config
	jitter engine.Rand
	clock  engine.Clock
	logger *slog.Logger
	gate   *gate
	bus    *broadcaster

	mu       sync.Mutex
	running  bool
	paused   bool
	scenario *persona.Scenario
	turn     int
	cursor   int
	cancel   context.CancelFunc
	done     chan struct{}
	resume   chan struct{}
	ended    *persona.Conversation
	endErr   error
}

func New(st *state.Store, eng *engine.Engine, cfg Config, opts ...Option) *Scheduler {
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	s := &Scheduler{
		state:  st,
		engine: eng,
		cfg:    cfg,
		clock:  time.Now,
		logger: slog.Default(),
		gate:   newGate(),
		bus:    &broadcaster{},
		resume: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.jitter == nil {
		s.jitter = engine.NewRandFromTime()
	}
	return s
}

// Phase reports the scheduler state, deriving Idle and Selecting from the
// state store when no run is active.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	running, paused := s.running, s.paused
	s.mu.Unlock()

	switch {
	case running && paused:
		return PhasePaused
	case running:
		return PhaseRunning
	case s.state.Scenario() != nil || len(s.state.Selection()) > 0:
		return PhaseSelecting
	default:
		return PhaseIdle
	}
}

func (s *Scheduler) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Progress{}
	if s.scenario != nil && len(s.scenario.Prompts) > 0 {
		p.Prompts = len(s.scenario.Prompts)
		p.Prompt = s.cursor%p.Prompts + 1
	}
	p.Cursor = s.cursor
	if conv := s.state.Active(); conv != nil {
		p.Messages = len(conv.Messages)
	}
	return p
}

// Subscribe returns a channel receiving every generated message. It is
// closed by Close.
func (s *Scheduler) Subscribe() <-chan persona.Message {
	return s.bus.subscribe()
}

// Done is closed when the current run's loop exits, including when
// MaxMessages is reached.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.done
}

// Start opens a conversation with the current selection and scenario and
// begins ticking.
func (s *Scheduler) Start(ctx context.Context) error {
	return s.start(ctx, false)
}

// StartPaused is Start without the timer running; messages are produced
// only through Step until Resume.
func (s *Scheduler) StartPaused(ctx context.Context) error {
	return s.start(ctx, true)
}

func (s *Scheduler) start(ctx context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}

	sc := s.state.Scenario()
	selected := s.state.SelectedPersonas()
	if sc == nil || len(selected) < 2 {
		return ErrCannotStart
	}
	ids := make([]string, len(selected))
	for i, p := range selected {
		ids[i] = p.ID
	}

	conv, err := s.state.StartConversation(ids, sc.ID, s.clock())
	if err != nil {
		return fmt.Errorf("starting conversation: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.running = true
	s.paused = paused
	s.scenario = sc
	s.turn = 0
	s.cursor = 0
	s.cancel = cancel
	s.done = make(chan struct{})
	s.ended = nil
	s.endErr = nil
	s.drainResume()

	s.logger.InfoContext(ctx, "simulation started",
		"conversation", conv.ID,
		"scenario", sc.ID,
		"participants", len(ids),
	)

	go s.loop(loopCtx, s.done)
	return nil
}

func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.paused = true
	s.drainResume()
}

func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || !s.paused {
		return
	}
	s.paused = false
	select {
	case s.resume <- struct{}{}:
	default:
	}
}

func (s *Scheduler) drainResume() {
	select {
	case <-s.resume:
	default:
	}
}

// Step runs exactly one tick while paused.
func (s *Scheduler) Step(ctx context.Context) (*persona.Message, error) {
	s.mu.Lock()
	if !s.running || !s.paused {
		s.mu.Unlock()
		return nil, ErrNotPaused
	}
	s.mu.Unlock()

	if err := s.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	msg, limit := s.tick(ctx)
	s.gate.Release()

	if limit {
		if _, err := s.Stop(ctx); err != nil {
			return msg, err
		}
	}
	return msg, nil
}

// Stop ends the run, waiting for an in-flight tick to finish. The
// conversation is persisted when it has at least one message. It returns
// the conversation the last run ended with, or nil if no run has ended.
func (s *Scheduler) Stop(ctx context.Context) (*persona.Conversation, error) {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.finish(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended, s.endErr
}

// Close stops any run and closes subscriber channels.
func (s *Scheduler) Close(ctx context.Context) error {
	_, err := s.Stop(ctx)
	s.bus.close()
	return err
}

func (s *Scheduler) finish(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.paused = false
	s.scenario = nil
	s.turn = 0
	s.cursor = 0
	s.cancel = nil
	s.mu.Unlock()

	s.state.SetScenario(nil)
	conv, err := s.state.EndConversation(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "saving conversation", "error", err)
	}
	if conv != nil {
		s.logger.InfoContext(ctx, "simulation stopped", "conversation", conv.ID, "messages", len(conv.Messages))
	}

	s.mu.Lock()
	s.ended, s.endErr = conv, err
	s.mu.Unlock()
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		timer := time.NewTimer(s.nextDelay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.gate.Acquire(ctx); err != nil {
			return
		}
		s.mu.Lock()
		paused := s.paused
		s.mu.Unlock()
		if paused {
			s.gate.Release()
			select {
			case <-ctx.Done():
				return
			case <-s.resume:
				continue
			}
		}

		_, limit := s.tick(ctx)
		s.gate.Release()
		if limit {
			s.finish(context.WithoutCancel(ctx))
			return
		}
	}
}

func (s *Scheduler) nextDelay() time.Duration {
	span := s.cfg.MaxDelay - s.cfg.MinDelay
	if span <= 0 {
		return s.cfg.MinDelay
	}
	return s.cfg.MinDelay + time.Duration(s.jitter.Float64()*float64(span))
}

// tick produces one message. The caller must hold the gate. It reports the
// message, or nil when the turn was skipped, and whether MaxMessages has
// been reached.
func (s *Scheduler) tick(ctx context.Context) (*persona.Message, bool) {
	// A tick that has begun runs to completion even if Stop cancels the loop.
	ctx = context.WithoutCancel(ctx)

	conv := s.state.Active()
	if conv == nil || len(conv.Participants) == 0 {
		return nil, false
	}

	s.mu.Lock()
	sc := s.scenario
	n := len(conv.Participants)
	responderID := conv.Participants[s.turn%n]
	prompt := sc.Prompt(s.cursor)
	if (s.turn+1)%n == 0 {
		s.cursor++
	}
	s.turn++
	s.mu.Unlock()

	responder := s.state.Persona(responderID)
	if responder == nil {
		s.logger.WarnContext(ctx, "skipping turn for missing persona", "persona", responderID)
		return nil, false
	}
	others := make([]*persona.Persona, 0, n-1)
	for _, id := range conv.Participants {
		if id == responderID {
			continue
		}
		if p := s.state.Persona(id); p != nil {
			others = append(others, p)
		}
	}

	msg := s.engine.GeneratePersonaResponse(responder, prompt, others)
	if err := s.state.AddMessage(msg); err != nil {
		s.logger.WarnContext(ctx, "dropping message", "error", err)
		return nil, false
	}

	if _, err := s.state.ShiftMood(ctx, responder.ID, msg.Mood, msg.Timestamp); err != nil {
		s.logger.WarnContext(ctx, "updating mood", "persona", responder.ID, "error", err)
	}
	for _, other := range others {
		delta := engine.CalculateRelationshipChange(responder, other, msg.Sentiment)
		if _, err := s.state.ApplyInteraction(ctx, responder.ID, other.ID, delta, msg.Timestamp); err != nil {
			s.logger.WarnContext(ctx, "updating relationship", "a", responder.ID, "b", other.ID, "error", err)
		}
	}

	s.bus.publish(msg)
	s.logger.DebugContext(ctx, "tick",
		"persona", responder.ID,
		"mood", msg.Mood,
		"sentiment", msg.Sentiment,
	)

	limit := s.cfg.MaxMessages > 0 && len(conv.Messages)+1 >= s.cfg.MaxMessages
	return &msg, limit
}
