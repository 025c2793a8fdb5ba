package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	batchz "github.com/zoobzio/batchz"
	"github.com/zoobzio/batchz/internal/config"
	"github.com/zoobzio/batchz/internal/generator"
)

var (
	configFile = flag.String("config", getEnv("CONFIG_FILE", ""), "Path to configuration file")
	logLevel   = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	logger, err := initLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // best effort flush on exit

	cfg, err := config.NewLoader().Load(*configFile)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.Int("bufferSize", cfg.Buffer.Size),
		zap.Int("timeFrameMs", cfg.Buffer.TimeFrameMs),
		zap.Int("intervalMs", cfg.Source.IntervalMs),
		zap.Int("count", cfg.Source.Count),
	)

	var metrics *batchz.Metrics
	if cfg.Metrics.Enabled {
		metrics = batchz.NewMetrics(prometheus.DefaultRegisterer)
		go startMetricsServer(cfg.Metrics.Port, logger)
	}

	sub, err := run(cfg, metrics, logger)
	if err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		sub.Unsubscribe()
	case <-sub.Done():
	}

	if err := sub.Err(); err != nil {
		logger.Error("Stream failed", zap.Error(err))
		return
	}
	logger.Info("Shutdown complete")
}

// run builds interval -> reading event -> buffer and subscribes a console
// printer to it.
func run(cfg *config.Config, metrics *batchz.Metrics, logger *zap.Logger) (*batchz.Subscription, error) {
	gen := generator.New(logger, batchz.RealClock.Now)

	ticks := batchz.Interval(cfg.Source.Interval(), batchz.RealClock)
	if cfg.Source.Count > 0 {
		ticks = batchz.Take(ticks, cfg.Source.Count)
	}
	events := batchz.Map(ticks, gen.Event)
	events = batchz.Tap(events, func(e cloudevents.Event) {
		logger.Debug("Generated event", zap.String("eventId", e.ID()))
	}, logger)

	batches, err := batchz.BufferTimeOrCount(events, cfg.Buffer.Operator(),
		batchz.WithName("readings"),
		batchz.WithLogger(logger),
		batchz.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	return batches.Subscribe(batchz.ObserverFuncs[[]cloudevents.Event]{
		NextFn: func(batch []cloudevents.Event) error {
			fmt.Println(formatBatch(batch))
			return nil
		},
		ErrorFn: func(err error) {
			fmt.Fprintln(os.Stderr, err)
		},
		CompleteFn: func() {
			logger.Info("Stream completed")
		},
	}), nil
}

// formatBatch renders a batch as "[seq seq seq]" with one entry per event.
func formatBatch(batch []cloudevents.Event) string {
	parts := make([]string, 0, len(batch))
	for _, e := range batch {
		reading, err := generator.Decode(e)
		if err != nil {
			parts = append(parts, e.ID())
			continue
		}
		parts = append(parts, fmt.Sprintf("%d:%s=%.2f", reading.Sequence, reading.DeviceID, reading.Value))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := ":" + port
	logger.Info("Starting metrics server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec // demo endpoint without timeouts
		logger.Error("Metrics server failed", zap.Error(err))
	}
}

// initLogger initializes the zap logger based on the log level
func initLogger(level string) (*zap.Logger, error) {
	var config zap.Config

	switch level {
	case "debug":
		config = zap.NewDevelopmentConfig()
	case "info", "warn", "error":
		config = zap.NewProductionConfig()
		config.Level = parseLogLevel(level)
	default:
		config = zap.NewProductionConfig()
	}

	return config.Build()
}

func parseLogLevel(level string) zap.AtomicLevel {
	switch level {
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
