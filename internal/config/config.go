package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Port            int
	BaseURL         string // Public base URL used to build short URLs
	GinMode         string
	ShutdownTimeout time.Duration

	StoreDriver   string // file, memory, redis or postgres
	StorePath     string // JSON file used by the file driver
	RedisURL      string
	RedisTableKey string
	DatabaseURL   string

	RedirectDelay          time.Duration // Display delay on the redirect page
	DefaultValidityMinutes int

	RateLimitRPS           float64 // Rate limit for general API endpoints (requests per second)
	RateLimitBurst         int     // Burst size for rate limiting
	RateLimitShortenRPS    float64 // Rate limit for URL shortening (stricter)
	RateLimitShortenBurst  int     // Burst size for URL shortening
	RateLimitRedirectRPS   float64 // Rate limit for redirects (more lenient)
	RateLimitRedirectBurst int     // Burst size for redirects

	LogLevel     string // zap level for process diagnostics
	LogDevMode   bool   // Development logger and verbose sink output
	LogAPIURL    string // Remote log collector
	LogAuthToken string // Bearer token for the remote log collector

	EnvFileMissing bool // No .env file was found; the logger reports it once it exists
}

// Load reads configuration from the environment, after loading a .env file
// when one exists.
func Load() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	envErr := godotenv.Load()

	port := getEnvInt("PORT", 8080)

	cfg := &Config{
		Port:            port,
		BaseURL:         strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+strconv.Itoa(port)), "/"),
		GinMode:         getEnv("GIN_MODE", "release"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverFile)),
		StorePath:     getEnv("STORE_PATH", "data/url_mappings.json"),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisTableKey: getEnv("REDIS_TABLE_KEY", "urlMappings"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		RedirectDelay:          getEnvDuration("REDIRECT_DELAY", 2*time.Second),
		DefaultValidityMinutes: getEnvInt("DEFAULT_VALIDITY_MINUTES", 30),

		RateLimitRPS:           getEnvFloat("RATE_LIMIT_RPS", 10),          // 10 requests per second for general API
		RateLimitBurst:         getEnvInt("RATE_LIMIT_BURST", 20),          // Allow bursts of 20
		RateLimitShortenRPS:    getEnvFloat("RATE_LIMIT_SHORTEN_RPS", 2),   // 2 requests per second for shortening
		RateLimitShortenBurst:  getEnvInt("RATE_LIMIT_SHORTEN_BURST", 5),   // Allow bursts of 5
		RateLimitRedirectRPS:   getEnvFloat("RATE_LIMIT_REDIRECT_RPS", 30), // 30 requests per second for redirects
		RateLimitRedirectBurst: getEnvInt("RATE_LIMIT_REDIRECT_BURST", 60), // Allow bursts of 60

		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogDevMode:   getEnvBool("LOG_DEV_MODE", false),
		LogAPIURL:    getEnv("LOG_API_URL", "http://20.244.56.144/evaluation-service/logs"),
		LogAuthToken: getEnv("LOG_AUTH_TOKEN", ""),
	}

	if envErr != nil {
		cfg.EnvFileMissing = true
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
