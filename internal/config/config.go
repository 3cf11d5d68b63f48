package config

import (
	"os"
	"strconv"
	"strings"
)

// Config centralizes runtime settings for the API, the job pipeline, and the
// analyzer. The core treats every value as immutable for the process
// lifetime.
type Config struct {
	Port      string
	AuthToken string

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabaseURL string

	// Job record TTLs in seconds, per state.
	TTLProcessingSeconds int
	TTLCompletedSeconds  int
	TTLFailedSeconds     int

	UploadDir        string
	MaxFileSizeBytes int64
	SupportedFormats []string

	DefaultModel       string
	MinParagraphLength int
	MaxSummaryLength   int
}

func Load() Config {
	return Config{
		Port:      getEnv("PORT", "8080"),
		AuthToken: getEnv("API_AUTH_TOKEN", ""),

		CORSAllowedOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"}),
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 40),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		TTLProcessingSeconds: getEnvInt("JOB_TTL_PROCESSING", 3600),
		TTLCompletedSeconds:  getEnvInt("JOB_TTL_COMPLETED", 86400),
		TTLFailedSeconds:     getEnvInt("JOB_TTL_FAILED", 86400),

		UploadDir:        getEnv("UPLOAD_DIR", "temp/uploads"),
		MaxFileSizeBytes: getEnvInt64("MAX_FILE_SIZE", 50*1024*1024),
		SupportedFormats: getEnvList("SUPPORTED_FORMATS", []string{"pdf", "txt", "md", "html", "htm"}),

		DefaultModel:       getEnv("DEFAULT_MODEL", "gpt-3.5-turbo"),
		MinParagraphLength: getEnvInt("MIN_PARAGRAPH_LENGTH", 40),
		MaxSummaryLength:   getEnvInt("MAX_SUMMARY_LENGTH", 1000),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
