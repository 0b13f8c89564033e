// Package main provides the Chronicle Weave game server. It wires together
// configuration, the model gateway, world content, and the websocket frontend.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/chronicleweave/weave/internal/config"
	"github.com/chronicleweave/weave/internal/game/town"
	"github.com/chronicleweave/weave/internal/game/world"
	"github.com/chronicleweave/weave/internal/gameserver"
	"github.com/chronicleweave/weave/internal/gateway"
	"github.com/chronicleweave/weave/internal/observability"
	"github.com/chronicleweave/weave/internal/server"
)

const (
	stopTimeout          = 15 * time.Second
	contextSweepInterval = time.Hour
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	locationsDir := flag.String("locations", "", "path to location YAML files directory (overrides config)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *locationsDir != "" {
		cfg.Content.LocationsDir = *locationsDir
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting Chronicle Weave server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("default_backend", cfg.Gateway.DefaultBackend),
	)

	// Build the model gateway. Missing credentials leave backends degraded,
	// never unregistered.
	creds := config.ResolveCredentials(cfg.Gateway.Backends)
	gwStart := time.Now()
	gw, err := gateway.New(cfg.Gateway, creds, logger)
	if err != nil {
		logger.Fatal("building model gateway", zap.Error(err))
	}
	logger.Info("model gateway ready",
		zap.Strings("backends", gw.AvailableBackends()),
		zap.String("default", gw.DefaultBackend()),
		zap.Duration("elapsed", time.Since(gwStart)),
	)

	// Load world content
	locations := world.DefaultWorld()
	if cfg.Content.LocationsDir != "" {
		locations, err = world.LoadLocations(cfg.Content.LocationsDir)
		if err != nil {
			logger.Fatal("loading locations", zap.Error(err))
		}
	}
	logger.Info("world loaded", zap.Int("locations", len(locations)))

	// Ensure the starting town exists in the cache
	townCache, err := town.NewCache(cfg.Content.TownsDir, logger)
	if err != nil {
		logger.Fatal("opening town cache", zap.Error(err))
	}
	generator := town.NewGenerator(townCache, logger)
	if _, err := generator.GenerateStartingTown(); err != nil {
		logger.Fatal("generating starting town", zap.Error(err))
	}

	// Build services
	state := world.NewState(locations)
	registry := gameserver.NewRegistry(logger)
	orchestrator := gameserver.NewAgentOrchestrator(gw, logger)
	handler := gameserver.NewHandler(state, registry, orchestrator, logger)
	srv := gameserver.NewServer(cfg.Server, handler, logger)

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger, stopTimeout)

	sweepDone := make(chan struct{})
	lifecycle.Add("context-sweep", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(contextSweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					gw.ClearOldContexts(cfg.Gateway.ContextMaxAge)
				case <-sweepDone:
					return nil
				}
			}
		},
		StopFn: func(ctx context.Context) error {
			close(sweepDone)
			return nil
		},
	})

	lifecycle.Add("http", srv)

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
