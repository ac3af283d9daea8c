package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"intraday-trader/internal/advisory"
	"intraday-trader/internal/broker/execobs"
	"intraday-trader/internal/broker/paper"
	"intraday-trader/internal/broker/zerodha"
	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/marketdata"
	"intraday-trader/internal/notify"
	"intraday-trader/internal/store"
	"intraday-trader/internal/trace"
	"intraday-trader/internal/tradelog"
)

// initializeSystem initializes environment, logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("TRADER_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old journal files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeFeed returns the snapshot source for the configured data source
func initializeFeed(ctx context.Context, cfg *store.Config) interfaces.MarketData {
	logger.Info(ctx, "Market data source", "source", marketdata.Describe(cfg))

	if cfg.DataSource == "LIVE" {
		stream := zerodha.NewTickerStream(
			os.Getenv("KITE_API_KEY"),
			os.Getenv("KITE_ACCESS_TOKEN"),
			cfg.Indicators.IntervalMinutes,
		)
		return marketdata.NewLive(cfg, stream)
	}
	return marketdata.NewReplay(cfg)
}

// initializeExecution returns the order path with observability middleware
func initializeExecution(ctx context.Context, cfg *store.Config) (interfaces.Execution, error) {
	if cfg.Mode == "LIVE" {
		exec, err := zerodha.NewExecutor(zerodha.Params{
			APIKey:      os.Getenv("KITE_API_KEY"),
			AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
			Exchange:    cfg.Exchange,
		})
		if err != nil {
			return nil, fmt.Errorf("live execution unavailable: %w", err)
		}
		logger.Warn(ctx, "LIVE mode - real orders will be placed")
		return execobs.Wrap(exec), nil
	}

	logger.Info(ctx, "PAPER mode - orders are simulated")
	return execobs.Wrap(paper.New()), nil
}

// initializeAdvisory wires the regime/sentiment/bias source. A file-backed
// source is used when one is configured, otherwise everything is neutral.
func initializeAdvisory(ctx context.Context) interface {
	interfaces.RegimeClassifier
	interfaces.SentimentAnalyzer
	interfaces.BiasProvider
} {
	if path := os.Getenv("TRADER_ADVISORY_FILE"); path != "" {
		logger.Info(ctx, "Using file-backed advisory source", "path", path)
		return advisory.NewFile(path)
	}
	logger.Info(ctx, "No advisory source configured - using neutral defaults")
	return advisory.Neutral{}
}

// initializeNotifier builds the notification fan-out from config
func initializeNotifier(ctx context.Context, cfg *store.Config) (interfaces.Notifier, func(), error) {
	sinks := []interfaces.Notifier{notify.Log{}}
	closers := []func(){}

	if cfg.Notify.Telegram.Enabled {
		token := os.Getenv("TELEGRAM_BOT_TOKEN")
		if token == "" {
			logger.Warn(ctx, "Telegram enabled but TELEGRAM_BOT_TOKEN is not set - skipping")
		} else {
			sinks = append(sinks, notify.NewTelegram(token, cfg.Notify.Telegram.ChatID))
			logger.Info(ctx, "Telegram notifications enabled", "chat_id", cfg.Notify.Telegram.ChatID)
		}
	}

	if cfg.Notify.Kafka.Enabled {
		k, err := notify.NewKafka(cfg.Notify.Kafka.Brokers, cfg.Notify.Kafka.Topic)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, k)
		closers = append(closers, func() { _ = k.Close() })
		logger.Info(ctx, "Kafka notifications enabled",
			"brokers", cfg.Notify.Kafka.Brokers,
			"topic", cfg.Notify.Kafka.Topic,
		)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return notify.NewMulti(sinks...), closeAll, nil
}
