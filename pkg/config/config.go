package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	LogMode string

	// Postgres (Supabase). DatabaseURL wins over the discrete POSTGRES_* values.
	DatabaseURL      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string
	PostgresSSLMode  string
	DBAutoMigrate    bool

	JWTSecret   string
	JWTAudience string

	RedisURL string

	AnalysisCron      string
	AnalysisTimeout   time.Duration
	AnalysisTimezone  string
	HistoryLimit      int
	HistoryWindowDays int
	PatternCacheTTL   time.Duration

	GoogleProjectID   string
	GoogleCredentials string
	ActivityTopic     string
	PatternsTopic     string
	ActivityDebounce  time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:    getEnv("PORT", "8080"),
		LogMode: getEnv("LOG_MODE", "dev"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresName:     getEnv("POSTGRES_NAME", "postgres"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		DBAutoMigrate:    getEnvBool("DB_AUTO_MIGRATE", false),

		JWTSecret:   getEnv("SUPABASE_JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAudience: getEnv("JWT_AUDIENCE", "authenticated"),

		RedisURL: getEnv("REDIS_URL", ""),

		AnalysisCron:      getEnv("ANALYSIS_CRON", "0 3 * * *"),
		AnalysisTimeout:   getEnvDuration("ANALYSIS_TIMEOUT", 60*time.Second),
		AnalysisTimezone:  getEnv("ANALYSIS_TIMEZONE", "UTC"),
		HistoryLimit:      getEnvInt("HISTORY_LIMIT", 2000),
		HistoryWindowDays: getEnvInt("HISTORY_WINDOW_DAYS", 365),
		PatternCacheTTL:   getEnvDuration("PATTERN_CACHE_TTL", 5*time.Minute),

		GoogleProjectID:   getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleCredentials: getEnv("GOOGLE_CREDENTIALS", ""),
		ActivityTopic:     getEnv("ACTIVITY_TOPIC", "saydo-activity"),
		PatternsTopic:     getEnv("PATTERNS_TOPIC", "saydo-patterns"),
		ActivityDebounce:  getEnvDuration("ACTIVITY_DEBOUNCE", 10*time.Minute),
	}
}

// PostgresDSN returns DatabaseURL when set, otherwise builds a DSN from the POSTGRES_* values.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresName, c.PostgresSSLMode)
}

// Location resolves AnalysisTimezone, falling back to UTC for unknown zones.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AnalysisTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}
