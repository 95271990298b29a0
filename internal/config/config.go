package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode  string // Set via flag, not env
	LogLevel string

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string

	// Server
	ApiPort            string
	ServiceApiPort     string
	CorsAllowedOrigins []string

	// Booking
	FinalizeLockTTL  time.Duration
	FinalizeLockWait time.Duration

	// Background schedules (asynq cron specs)
	ReconcileSchedule         string
	NotificationPurgeSchedule string

	// List views
	ListDefaultLimit int
	ListMaxLimit     int

	// Rate Limiting
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "marketplace")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.ReconcileSchedule = getEnv("RECONCILE_SCHEDULE", "@every 15m")
	cfg.NotificationPurgeSchedule = getEnv("NOTIFICATION_PURGE_SCHEDULE", "@daily")

	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.CorsAllowedOrigins = append(cfg.CorsAllowedOrigins, trimmed)
		}
	}

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	lockTTLSeconds, err := strconv.ParseInt(getEnv("FINALIZE_LOCK_TTL_SECONDS", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FINALIZE_LOCK_TTL_SECONDS: %w", err)
	}
	cfg.FinalizeLockTTL = time.Duration(lockTTLSeconds) * time.Second

	lockWaitMillis, err := strconv.ParseInt(getEnv("FINALIZE_LOCK_WAIT_MS", "2000"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FINALIZE_LOCK_WAIT_MS: %w", err)
	}
	cfg.FinalizeLockWait = time.Duration(lockWaitMillis) * time.Millisecond

	cfg.ListDefaultLimit, err = strconv.Atoi(getEnv("LIST_DEFAULT_LIMIT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LIST_DEFAULT_LIMIT: %w", err)
	}
	cfg.ListMaxLimit, err = strconv.Atoi(getEnv("LIST_MAX_LIMIT", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid LIST_MAX_LIMIT: %w", err)
	}
	if cfg.ListDefaultLimit <= 0 || cfg.ListMaxLimit < cfg.ListDefaultLimit {
		return nil, fmt.Errorf("invalid list limits: default %d, max %d", cfg.ListDefaultLimit, cfg.ListMaxLimit)
	}

	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
