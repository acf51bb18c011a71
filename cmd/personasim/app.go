package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"personasim/internal/config"
	"personasim/internal/logging"
	"personasim/internal/render"
	"personasim/internal/sim"
	"personasim/internal/state"
	"personasim/internal/store"
	"personasim/internal/store/memory"
)

// app is the wiring shared by commands that touch simulator state.
type app struct {
	cfg     *config.ProjectConfig
	logger  *slog.Logger
	backend store.Store
	state   *state.Store
	logs    io.Closer
}

// openApp loads config, installs the logger, opens storage and hydrates
// state. An unreachable backend degrades to an in-memory store.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	logs, err := logging.Setup(cfg.Log)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	backend, err := openStore(ctx, cfg.Database.DSN)
	if errors.Is(err, store.ErrUnavailable) {
		logger.WarnContext(ctx, "storage unavailable, changes will not be saved", "error", err)
		backend = memory.New()
	} else if err != nil {
		logs.Close()
		return nil, err
	}

	st := state.New(backend, logger)
	if err := st.Load(ctx); err != nil {
		logger.WarnContext(ctx, "starting with empty state", "error", err)
	}

	return &app{cfg: cfg, logger: logger, backend: backend, state: st, logs: logs}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.backend.Close(ctx); err != nil {
		a.logger.WarnContext(ctx, "closing storage", "error", err)
	}
	a.logs.Close()
}

func (a *app) renderer(cmd *cobra.Command) *render.Renderer {
	return render.New(cmd.OutOrStdout(), a.state.Theme())
}

func (a *app) simConfig() sim.Config {
	return sim.Config{
		MinDelay:    a.cfg.Simulation.MinDelay,
		MaxDelay:    a.cfg.Simulation.MaxDelay,
		MaxMessages: a.cfg.Simulation.MaxMessages,
	}
}

// personaNames maps ids to display names for listings.
func (a *app) personaNames() map[string]string {
	names := map[string]string{}
	for _, p := range a.state.Personas() {
		names[p.ID] = p.Name
	}
	return names
}
