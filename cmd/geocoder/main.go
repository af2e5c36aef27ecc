package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-data-geocoder/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/storm-data-geocoder/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-geocoder/internal/adapter/yandex"
	"github.com/couchcryptid/storm-data-geocoder/internal/cachestore"
	"github.com/couchcryptid/storm-data-geocoder/internal/config"
	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
	"github.com/couchcryptid/storm-data-geocoder/internal/geocoder"
	"github.com/couchcryptid/storm-data-geocoder/internal/observability"
	"github.com/couchcryptid/storm-data-geocoder/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// readiness is ready only when every check passes.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	policy, err := domain.ParseFailurePolicy(cfg.GeocoderFailurePolicy)
	if err != nil {
		logger.Error("invalid failure policy", "error", err)
		os.Exit(1)
	}

	var store domain.CacheStore = cachestore.NewNoop()
	if cfg.GeocoderCache == config.CacheMemory {
		store = cachestore.NewMemory()
	}

	client := yandex.NewClient(cfg.GeocoderAPIKey, cfg.GeocoderTimeout, logger, metrics,
		yandex.WithBaseURL(cfg.GeocoderBaseURL),
		yandex.WithLanguage(cfg.GeocoderLang),
	)
	g := geocoder.New(client,
		geocoder.WithStore(store),
		geocoder.WithFailurePolicy(policy),
		geocoder.WithCacheTTL(cfg.GeocoderCacheTTL),
		geocoder.WithMaxConcurrency(cfg.GeocoderMaxConcurrency),
		geocoder.WithLogger(logger),
		geocoder.WithMetrics(metrics),
	)
	logger.Info("geocoder ready",
		"base_url", cfg.GeocoderBaseURL,
		"cache", cfg.GeocoderCache,
		"cache_ttl", cfg.GeocoderCacheTTL,
		"failure_policy", policy.String(),
	)

	ready := readiness{g}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	pipelineDone := make(chan struct{})
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p := pipeline.New(reader, pipeline.NewTransformer(g, logger), writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)

		go func() {
			defer close(pipelineDone)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		close(pipelineDone)
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, g, ready, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := g.Close(); err != nil {
		logger.Error("geocoder close error", "error", err)
	}

	logger.Info("shutdown complete")
}
