// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime settings for the TrashMob API.
type Config struct {
	Environment string
	HTTPAddr    string
	DatabaseDSN string

	Search   SearchConfig
	Tracing  TracingConfig
	Pipeline PipelineConfig
}

// SearchConfig configures the OpenStreetMap search client.
type SearchConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxResults int
}

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// PipelineConfig tunes the area generation pipeline.
type PipelineConfig struct {
	DuplicateRadiusMeters float64
	ErrorMessageLimit     int
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from environment variables, applying defaults.
func Load() Config {
	return Config{
		Environment: envString("TRASHMOB_ENV", "development"),
		HTTPAddr:    envString("TRASHMOB_HTTP_ADDR", ":8080"),
		DatabaseDSN: envString("TRASHMOB_DATABASE_DSN", ""),
		Search: SearchConfig{
			BaseURL:    envString("TRASHMOB_SEARCH_BASE_URL", "https://overpass-api.de/api"),
			Timeout:    envDuration("TRASHMOB_SEARCH_TIMEOUT", 30*time.Second),
			MaxResults: envInt("TRASHMOB_SEARCH_MAX_RESULTS", 500),
		},
		Tracing: TracingConfig{
			Enabled:          envBool("TRASHMOB_TRACING_ENABLED", false),
			ExporterEndpoint: envString("TRASHMOB_OTLP_ENDPOINT", ""),
			ExporterProtocol: envString("TRASHMOB_OTLP_PROTOCOL", "grpc"),
			SamplingRatio:    envFloat("TRASHMOB_TRACE_SAMPLING_RATIO", 0.1),
		},
		Pipeline: PipelineConfig{
			DuplicateRadiusMeters: envFloat("TRASHMOB_DUPLICATE_RADIUS_METERS", 100),
			ErrorMessageLimit:     envInt("TRASHMOB_PIPELINE_ERROR_LIMIT", 4000),
		},
	}
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
