package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cashnoteio/cashnote/app"
	"github.com/cashnoteio/cashnote/infra"
	infraeventbus "github.com/cashnoteio/cashnote/infra/eventbus"
	"github.com/cashnoteio/cashnote/infra/provider/compliancehttp"
	"github.com/cashnoteio/cashnote/infra/provider/mockcompliance"
	infrarepo "github.com/cashnoteio/cashnote/infra/repository"
	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/eventbus"
	"github.com/cashnoteio/cashnote/pkg/provider"
	"github.com/cashnoteio/cashnote/pkg/service/transfer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	db, err := infra.NewDBConnection(cfg.DB.Url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err = infra.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var bus eventbus.Bus
	if cfg.Events.RedisUrl != "" {
		redisBus, err := infraeventbus.NewWithRedis(
			cfg.Events.RedisUrl,
			cfg.Events.Stream,
			cfg.Events.Group,
			infraeventbus.DefaultTypeFactories(),
			logger,
		)
		if err != nil {
			return fmt.Errorf("failed to connect event bus: %w", err)
		}
		defer redisBus.Close() //nolint:errcheck
		bus = redisBus
	} else {
		bus = infraeventbus.NewWithMemory(logger)
	}

	var compliance provider.ComplianceValidator
	if cfg.Compliance.Enabled {
		compliance = compliancehttp.New(cfg.Compliance, logger)
	} else {
		logger.Warn("compliance validator disabled, using mock")
		compliance = mockcompliance.New()
	}

	deps := config.Deps{
		Uow:        infrarepo.NewUoW(db),
		Compliance: compliance,
		EventBus:   bus,
		Logger:     logger,
		Config:     cfg,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Sweeper.Enabled {
		sweeper := transfer.NewSweeper(deps.Uow, logger, cfg.Sweeper.Interval)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	fiberApp := app.New(deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		_ = fiberApp.Shutdown()
	}()

	logger.Info("starting server", "env", cfg.Env, "addr", cfg.Addr)
	return fiberApp.Listen(cfg.Addr)
}
