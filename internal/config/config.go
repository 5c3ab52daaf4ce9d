package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	API       APIConfig
	Resize    ResizeConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

type APIConfig struct {
	Addr           string
	MaxUploadBytes int64
	UserIDHeader   string
}

type ResizeConfig struct {
	Filter string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Capacity      int
	Window        time.Duration
	KeyPrefix     string
}

type TracingConfig struct {
	ServiceName  string
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

func Load() Config {
	return Config{
		API: APIConfig{
			Addr:           env("BATCH4K_API_ADDR", ":8080"),
			MaxUploadBytes: int64(envInt("BATCH4K_MAX_UPLOAD_BYTES", 256<<20)),
			UserIDHeader:   env("BATCH4K_RATE_LIMIT_USER_HEADER", "X-User-ID"),
		},
		Resize: ResizeConfig{
			Filter: env("BATCH4K_RESIZE_FILTER", "lanczos3"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       envBool("BATCH4K_RATE_LIMIT_ENABLED", false),
			RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			Capacity:      envInt("BATCH4K_RATE_LIMIT_CAPACITY", 100),
			Window:        envDuration("BATCH4K_RATE_LIMIT_WINDOW", time.Minute),
			KeyPrefix:     env("BATCH4K_RATE_LIMIT_PREFIX", "batch4k:ratelimit"),
		},
		Tracing: TracingConfig{
			ServiceName:  env("OTEL_SERVICE_NAME", "batch4k-api"),
			Exporter:     env("BATCH4K_TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("BATCH4K_OTLP_INSECURE", true),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
