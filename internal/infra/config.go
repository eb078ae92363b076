package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	GoogleAPIKey    string
	ImagenModel     string
	GoogleBaseURL   string
	ProviderTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AssetBackend string
	AssetDir     string
	S3Bucket     string
	S3Region     string
	S3Prefix     string

	HistoryLimit       int
	SessionIdleTimeout time.Duration
	MaxUploadBytes     int64
	CORSAllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

const (
	AssetBackendFS = "fs"
	AssetBackendS3 = "s3"
)

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// Provider keys are optional here; a missing key only fails generation requests for that provider.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "dall-e-3"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		ImagenModel:     getEnv("IMAGEN_MODEL", "imagen-3.0-generate-002"),
		GoogleBaseURL:   os.Getenv("GOOGLE_BASE_URL"),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT_SECONDS", 90*time.Second, time.Second),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AssetBackend: strings.ToLower(getEnv("ASSET_BACKEND", AssetBackendFS)),
		AssetDir:     getEnv("ASSET_DIR", "./data/assets"),
		S3Bucket:     os.Getenv("S3_BUCKET"),
		S3Region:     getEnv("S3_REGION", "us-east-1"),
		S3Prefix:     getEnv("S3_PREFIX", "thumbgen/"),

		HistoryLimit:       getEnvInt("HISTORY_LIMIT", 100),
		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT_MINUTES", 60*time.Minute, time.Minute),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		HTTPReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT_SECONDS", 15*time.Second, time.Second),
		HTTPWriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT_SECONDS", 120*time.Second, time.Second),
		HTTPIdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT_SECONDS", 60*time.Second, time.Second),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.AssetBackend {
	case AssetBackendFS:
	case AssetBackendS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when ASSET_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("ASSET_BACKEND must be %q or %q, got %q", AssetBackendFS, AssetBackendS3, cfg.AssetBackend)
	}

	if cfg.HistoryLimit < 0 {
		return nil, fmt.Errorf("HISTORY_LIMIT must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback, unit time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return time.Duration(i) * unit
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
