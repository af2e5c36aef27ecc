package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Cache backends selectable through GEOCODER_CACHE.
const (
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Geocoding service and cache configuration.
	GeocoderBaseURL        string
	GeocoderAPIKey         string
	GeocoderLang           string
	GeocoderTimeout        time.Duration
	GeocoderCache          string
	GeocoderCacheTTL       time.Duration
	GeocoderFailurePolicy  string
	GeocoderMaxConcurrency int

	// Kafka request pipeline configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	timeout, err := parsePositiveDuration("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("GEOCODER_CACHE_TTL", "720h")
	if err != nil {
		return nil, err
	}

	maxConcurrency, err := parseMaxConcurrency()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeocoderBaseURL:        sharedcfg.EnvOrDefault("GEOCODER_BASE_URL", "https://geocode-maps.yandex.ru/1.x/"),
		GeocoderAPIKey:         os.Getenv("GEOCODER_API_KEY"),
		GeocoderLang:           os.Getenv("GEOCODER_LANG"),
		GeocoderTimeout:        timeout,
		GeocoderCache:          strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER_CACHE", CacheMemory)),
		GeocoderCacheTTL:       cacheTTL,
		GeocoderFailurePolicy:  strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER_FAILURE_POLICY", "empty")),
		GeocoderMaxConcurrency: maxConcurrency,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "geocode-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "geocode-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "storm-data-geocoder"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.GeocoderBaseURL == "" {
		return nil, errors.New("GEOCODER_BASE_URL is required")
	}
	if cfg.GeocoderCache != CacheMemory && cfg.GeocoderCache != CacheNone {
		return nil, fmt.Errorf("invalid GEOCODER_CACHE %q: want %q or %q", cfg.GeocoderCache, CacheMemory, CacheNone)
	}
	if cfg.GeocoderFailurePolicy != "empty" && cfg.GeocoderFailurePolicy != "error" {
		return nil, fmt.Errorf("invalid GEOCODER_FAILURE_POLICY %q: want \"empty\" or \"error\"", cfg.GeocoderFailurePolicy)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseMaxConcurrency() (int, error) {
	s := os.Getenv("GEOCODER_MAX_CONCURRENCY")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid GEOCODER_MAX_CONCURRENCY")
	}
	return n, nil
}
