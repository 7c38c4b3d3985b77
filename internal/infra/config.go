package infra

import (
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	ViewpointConcurrency int
	GenerationRetries    int
	CallTimeout          time.Duration
	JobTimeout           time.Duration
	ModelRatePerMinute   int

	GeoCacheTTL time.Duration

	StoragePath string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is optional: without it the service
// keeps jobs in memory, which is enough for a single-node deployment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		ViewpointConcurrency: getEnvInt("VIEWPOINT_CONCURRENCY", 3),
		GenerationRetries:    getEnvInt("GENERATION_RETRIES", 1),
		CallTimeout:          time.Second * time.Duration(getEnvInt("GENERATION_CALL_TIMEOUT_SECONDS", 120)),
		JobTimeout:           time.Second * time.Duration(getEnvInt("GENERATION_JOB_TIMEOUT_SECONDS", 1800)),
		ModelRatePerMinute:   getEnvInt("MODEL_RATE_PER_MINUTE", 30),

		GeoCacheTTL: time.Second * time.Duration(getEnvInt("GEO_CACHE_TTL_SECONDS", 900)),

		StoragePath: getEnv("STORAGE_PATH", "data/renders"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
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
