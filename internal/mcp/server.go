// Package mcp exposes the persona simulator over the Model Context Protocol.
package mcp

import (
	"context"
	"log/slog"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"personasim/internal/engine"
	"personasim/internal/scenario"
	"personasim/internal/sim"
	"personasim/internal/state"
)

type Server struct {
	state   *state.Store
	catalog *scenario.Catalog
	engine  *engine.Engine
	simCfg  sim.Config
	clock   engine.Clock
	logger  *slog.Logger
	mcp     *sdk.Server
}

func NewServer(st *state.Store, catalog *scenario.Catalog, eng *engine.Engine, simCfg sim.Config, version string) *Server {
	s := &Server{
		state:   st,
		catalog: catalog,
		engine:  eng,
		simCfg:  simCfg,
		clock:   time.Now,
		logger:  slog.Default(),
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "personasim",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
