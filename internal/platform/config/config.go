package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	FrontendDir        string
	Environment        string
	SeedMDEmail        string
	SeedMDPassword     string
	SeedMDName         string
	PushEnabled        bool
	PushEndpoint       string
	PushServerKey      string
	MorningReminder    string
	AfternoonReminder  string
	ReminderTick       time.Duration
	TokenCacheTTL      time.Duration
	HolidayCacheTTL    time.Duration
	MaxBodyBytes       int64
	RateLimitPerMinute int
	RunMigrations      bool
	RunSeed            bool
	MetricsEnabled     bool
}

func Load() Config {
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		FrontendDir:        getEnv("FRONTEND_DIR", "frontend/dist"),
		Environment:        getEnv("APP_ENV", "development"),
		SeedMDEmail:        getEnv("SEED_MD_EMAIL", ""),
		SeedMDPassword:     getEnv("SEED_MD_PASSWORD", ""),
		SeedMDName:         getEnv("SEED_MD_NAME", "Managing Director"),
		PushEnabled:        getEnvBool("PUSH_ENABLED", false),
		PushEndpoint:       getEnv("PUSH_ENDPOINT", ""),
		PushServerKey:      getEnv("PUSH_SERVER_KEY", ""),
		MorningReminder:    getEnv("MORNING_REMINDER", "09:30"),
		AfternoonReminder:  getEnv("AFTERNOON_REMINDER", "15:30"),
		ReminderTick:       getEnvDuration("REMINDER_TICK", time.Minute),
		TokenCacheTTL:      getEnvDuration("TOKEN_CACHE_TTL", 5*time.Minute),
		HolidayCacheTTL:    getEnvDuration("HOLIDAY_CACHE_TTL", time.Hour),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:            getEnvBool("RUN_SEED", true),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedMDPassword) == "" {
			return fmt.Errorf("SEED_MD_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.PushEnabled && strings.TrimSpace(c.PushEndpoint) == "" {
		return fmt.Errorf("PUSH_ENDPOINT must be set when PUSH_ENABLED is true")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if _, err := parseClock(c.MorningReminder); err != nil {
		return fmt.Errorf("MORNING_REMINDER: %w", err)
	}
	if _, err := parseClock(c.AfternoonReminder); err != nil {
		return fmt.Errorf("AFTERNOON_REMINDER: %w", err)
	}
	return nil
}

func parseClock(value string) (time.Time, error) {
	return time.Parse("15:04", strings.TrimSpace(value))
}
