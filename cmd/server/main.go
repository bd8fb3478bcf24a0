package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/courtside/livescore/internal/config"
	"github.com/courtside/livescore/internal/database"
	"github.com/courtside/livescore/internal/scoring"
	"github.com/courtside/livescore/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	store, err := server.NewSQLiteStore(ctx, db)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	if err := server.SeedDemo(ctx, logger, store); err != nil {
		return fmt.Errorf("seeding demo data: %w", err)
	}

	// --- Broadcasting ---
	hub := server.NewHub(logger, cfg.WSPingInterval)
	throttle := server.NewThrottle(cfg.BroadcastDebounce, server.PublicRefresher(logger, store, hub))
	defer throttle.Stop()

	rules := server.SportRules{
		Tennis: scoring.Rules{
			Sport:          scoring.Tennis,
			GamesPerSet:    cfg.TennisGamesPerSet,
			TiebreakAt:     cfg.TennisTiebreakAt,
			TiebreakPoints: cfg.TennisTiebreakPoints,
			SetsToWin:      cfg.TennisSetsToWin,
			TechnicalLimit: cfg.TechnicalLimit,
		},
		Racquetball: scoring.Rules{
			Sport:          scoring.Racquetball,
			RallyTarget:    cfg.RallyTargetPoints,
			WinBy:          cfg.RallyWinBy,
			SetsToWin:      cfg.RallySetsToWin,
			TechnicalLimit: cfg.TechnicalLimit,
		},
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, store, hub, throttle, rules, db)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
