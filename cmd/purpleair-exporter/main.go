package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/purpleair-exporter/internal/collector"
	"codeberg.org/mutker/purpleair-exporter/internal/config"
	"codeberg.org/mutker/purpleair-exporter/internal/errors"
	"codeberg.org/mutker/purpleair-exporter/internal/fetch"
	"codeberg.org/mutker/purpleair-exporter/internal/logger"
	"codeberg.org/mutker/purpleair-exporter/internal/metrics"
	"codeberg.org/mutker/purpleair-exporter/internal/publish"
	"codeberg.org/mutker/purpleair-exporter/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	fetchTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	recorder := metrics.NewService(registry)

	server := startMetricsServer(recorder)

	poller := collector.New(collector.Config{
		Variant: cfg.Variant(),
		Host:    cfg.APIHost,
		Token:   cfg.APIToken,
		UnitIDs: cfg.SensorIDs,
	}, fetch.New(fetchTimeout), recorder)

	if cfg.MQTTBroker != "" {
		publisher, err := publish.Connect(ctx, publish.Config{
			Broker: cfg.MQTTBroker,
			Topic:  cfg.MQTTTopic,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to MQTT broker")
		}
		defer publisher.Close()
		poller.SetPublisher(publisher)
	}

	ticker := scheduler.NewTicker(time.Duration(cfg.Interval) * time.Second)
	go handleSignals(ticker)

	logger.Info().
		Int("interval", cfg.Interval).
		Ints("sensor_ids", cfg.SensorIDs).
		Str("api_version", cfg.APIVersion).
		Msg("Polling started")

	ticker.Run(ctx, func() {
		poller.CollectAll(ctx)
	})

	shutdown(server)
}

func startMetricsServer(recorder *metrics.Service) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ListenPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("Metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("metrics server failed")
		}
	}()

	return server
}

// handleSignals stops the ticker cooperatively; an in-flight poll is
// allowed to finish its tick.
func handleSignals(ticker *scheduler.Ticker) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	ticker.Stop()
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down metrics server")
	}
	logger.Info().Msg("Exiting...")
}
