package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"personasim/internal/engine"
	"personasim/internal/persona"
	"personasim/internal/scenario"
	"personasim/internal/sim"
)

type simulateOptions struct {
	scenario string
	personas []string
	messages int
	seed     uint64
}

func simulateCmd() *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a live conversation between personas",
		Long:  "Run a live conversation between personas. Press Ctrl+C to stop; the conversation is saved if it has any messages.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.scenario == "" {
				return fmt.Errorf("--scenario is required")
			}
			if len(opts.personas) < 2 {
				return fmt.Errorf("at least two --persona flags are required")
			}
			return runSimulate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "Scenario id")
	cmd.Flags().StringArrayVar(&opts.personas, "persona", nil, "Persona id or name (repeatable, in turn order)")
	cmd.Flags().IntVar(&opts.messages, "messages", -1, "Stop after this many messages (default from config, 0 for no limit)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Random seed for reproducible runs (0 picks one)")
	return cmd
}

func runSimulate(cmd *cobra.Command, opts simulateOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	catalog, err := scenario.NewCatalog()
	if err != nil {
		return err
	}
	sc := catalog.Get(opts.scenario)
	if sc == nil {
		return fmt.Errorf("unknown scenario: %s", opts.scenario)
	}
	authors := map[string]*persona.Persona{}
	for _, ref := range opts.personas {
		p, err := a.state.FindPersona(ref)
		if err != nil {
			return err
		}
		a.state.SelectPersona(p.ID)
		authors[p.ID] = p
	}
	a.state.SetScenario(sc)

	rng := engine.NewRandFromTime()
	if opts.seed != 0 {
		rng = engine.NewRand(opts.seed)
	}
	cfg := a.simConfig()
	if opts.messages >= 0 {
		cfg.MaxMessages = opts.messages
	}
	sched := sim.New(a.state, engine.New(rng, nil), cfg, sim.WithLogger(a.logger))
	defer sched.Close(context.Background())

	out := a.renderer(cmd)
	messages := sched.Subscribe()
	if err := sched.Start(ctx); err != nil {
		return err
	}
	out.Status("%s %s with %d personas. Ctrl+C to stop.", sc.Icon, sc.Name, len(authors))

	show := func(msg persona.Message) {
		out.Message(authors[msg.PersonaID], msg)
	}
loop:
	for {
		select {
		case msg := <-messages:
			show(msg)
		case <-sched.Done():
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	conv, err := sched.Stop(context.Background())
	for drained := false; !drained; {
		select {
		case msg := <-messages:
			show(msg)
		default:
			drained = true
		}
	}
	if err != nil {
		return err
	}
	if conv == nil || len(conv.Messages) == 0 {
		out.Status("No messages were generated; nothing saved.")
		return nil
	}
	out.Status("Saved %s with %d messages.", conv.ID, len(conv.Messages))
	return nil
}
