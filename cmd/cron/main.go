package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/app"
	"github.com/riskibarqy/fantasy-settlement/internal/config"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/observability"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
)

const closeTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName, "component", "cron")
	logging.SetDefault(logger)

	if err := run(strings.ToLower(strings.TrimSpace(os.Args[1])), cfg, logger); err != nil {
		logger.Error("cron job failed", "job", os.Args[1], "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(job string, cfg config.Config, logger *logging.Logger) error {
	if job != "settle" && job != "lock" {
		printUsage()
		return fmt.Errorf("unknown job %q", job)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	// Close waits for queued notifications before the process exits.
	defer func() {
		if err := application.Close(closeTimeout); err != nil {
			logger.Warn("app close failed", "error", err)
		}
	}()

	switch job {
	case "settle":
		result, err := application.Settlement.Run(ctx, settlement.TriggerCron)
		if err != nil {
			return err
		}
		logger.Info("settlement finished",
			"run_id", result.ID,
			"status", result.Status,
			"games_settled", result.GamesSettled,
			"teams_credited", result.TeamsCredited,
			"points_awarded", result.PointsAwarded,
		)
	case "lock":
		refreshed, err := application.MarketLock.Refresh(ctx)
		if err != nil {
			return err
		}
		logger.Info("market lock refreshed",
			"skipped", refreshed.Skipped,
			"games", refreshed.Games,
			"lock_start", refreshed.Lock.LockStart,
			"lock_end", refreshed.Lock.LockEnd,
			"no_games_today", refreshed.Lock.NoGamesToday,
		)
	}
	return nil
}

func printUsage() {
	fmt.Println("usage: go run ./cmd/cron <settle|lock>")
}
