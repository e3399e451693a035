// Package main provides the arena server binary that runs the battle
// orchestrator and its background sweeper.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Dadudekc/shinobi-arena/internal/arena"
	"github.com/Dadudekc/shinobi-arena/internal/config"
	"github.com/Dadudekc/shinobi-arena/internal/game/battle"
	"github.com/Dadudekc/shinobi-arena/internal/game/oracle"
	"github.com/Dadudekc/shinobi-arena/internal/game/technique"
	"github.com/Dadudekc/shinobi-arena/internal/observability"
	"github.com/Dadudekc/shinobi-arena/internal/server"
	"github.com/Dadudekc/shinobi-arena/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	techniquesDir := flag.String("techniques-dir", "content/techniques", "path to technique YAML files directory")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Load the technique catalog.
	catStart := time.Now()
	catalog, err := technique.LoadCatalog(*techniquesDir)
	if err != nil {
		logger.Fatal("loading technique catalog", zap.Error(err))
	}
	logger.Info("technique catalog loaded",
		zap.Int("techniques", catalog.Len()),
		zap.Duration("elapsed", time.Since(catStart)),
	)

	// Connect to PostgreSQL for character persistence.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	charRepo := postgres.NewCharacterRepository(pool.DB())

	// Pick the decision generator. Without credentials the adapter still
	// works; computer-controlled sides just pass every turn.
	var gen oracle.Generator
	if os.Getenv(cfg.Oracle.APIKeyEnv) != "" {
		g, err := oracle.NewAnthropicGenerator(cfg.Oracle)
		if err != nil {
			logger.Fatal("initializing generator", zap.Error(err))
		}
		gen = g
		logger.Info("decision generator ready", zap.String("model", cfg.Oracle.Model))
	} else {
		gen = oracle.UnavailableGenerator{}
		logger.Warn("no generation credentials, computer-controlled fighters will pass",
			zap.String("api_key_env", cfg.Oracle.APIKeyEnv))
	}
	chooser := oracle.NewAdapter(gen, logger)

	engine := battle.NewEngine(catalog, cfg.Battle, logger)
	manager := arena.NewManager(charRepo, engine, catalog, chooser, cfg.Battle, logger)
	sweeper := battle.NewSweeper(manager, cfg.Battle.SweepInterval, logger)

	// Wire lifecycle.
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("sweeper", sweeper)
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("arena server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Duration("idle_timeout", cfg.Battle.IdleTimeout),
		zap.Duration("sweep_interval", cfg.Battle.SweepInterval),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
