package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intraday-trader/internal/engine"
	"intraday-trader/internal/engine/engineobs"
	"intraday-trader/internal/eod"
	"intraday-trader/internal/eod/eodobs"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/trace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := initializeSystem(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer func() { _ = trace.Shutdown(context.Background()) }()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	compressOldLogs(ctx)

	eod.SetDefaultSummarizer(eodobs.Wrap(eod.NewSummarizer()))
	if ok, _ := eod.ShouldRunNow(); ok {
		// Process restarted after close without writing today's summary.
		if _, err := eod.SummarizeToday(); err != nil {
			logger.Warn(ctx, "EOD catch-up failed", "error", err)
		}
	}

	exec, err := initializeExecution(ctx, cfg)
	if err != nil {
		return err
	}
	notifier, closeNotifier, err := initializeNotifier(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeNotifier()
	adv := initializeAdvisory(ctx)

	eng, err := engine.New(cfg, engine.Deps{
		MarketData: initializeFeed(ctx, cfg),
		Execution:  exec,
		Regime:     adv,
		Sentiment:  adv,
		Bias:       adv,
		Notifier:   notifier,
	})
	if err != nil {
		return err
	}
	eng.SetStepper(engineobs.Wrap(eng))

	daemon := os.Getenv("TRADER_DAEMON") == "true"
	logger.Info(ctx, "Trader started",
		"mode", cfg.Mode,
		"symbols", cfg.Watchlist,
		"daemon", daemon,
	)

	for {
		if err := eng.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info(ctx, "Shutting down")
				return nil
			}
			return err
		}
		if _, err := eod.SummarizeToday(); err != nil {
			logger.Warn(ctx, "EOD summary failed", "error", err)
		}
		if !daemon {
			return nil
		}
		if err := eng.ResetSession(ctx); err != nil {
			return err
		}
		if err := waitForNextOpen(ctx, cfg.Session.Open); err != nil {
			logger.Info(ctx, "Shutting down")
			return nil
		}
	}
}

// waitForNextOpen sleeps until the next IST session open or ctx cancellation.
func waitForNextOpen(ctx context.Context, open string) error {
	t, err := time.Parse("15:04", open)
	if err != nil {
		return err
	}
	now := time.Now().In(engine.IST)
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, engine.IST)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	logger.Info(ctx, "Waiting for next session", "open_at", next.Format(time.RFC3339))

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
