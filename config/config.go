package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Platform  PlatformConfig
	Reconcile ReconcileConfig
	Admin     AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings for operator auth.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// PlatformConfig holds credentials for the video platform's REST API and
// webhook verification.
type PlatformConfig struct {
	BaseURL           string
	TokenID           string
	TokenSecret       string
	WebhookSecret     string // HMAC secret for inbound webhook signatures; empty disables verification
	DefaultPlaybackID string // playback id served when no stream record exists
	RequestTimeoutSec int
}

// ReconcileConfig tunes the liveness reconciliation paths.
type ReconcileConfig struct {
	StatusCacheTTLSec int // short TTL cache of the composed status document
	SweepIntervalSec  int // worker poll-path sweep period
	DedupTTLHours     int // webhook delivery-id dedup window
}

// AdminConfig seeds the first operator account when the table is empty.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "pulsecast"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Platform: PlatformConfig{
			BaseURL:           getEnv("PLATFORM_API_URL", "https://api.mux.com"),
			TokenID:           getEnv("PLATFORM_TOKEN_ID", ""),
			TokenSecret:       getEnv("PLATFORM_TOKEN_SECRET", ""),
			WebhookSecret:     getEnv("PLATFORM_WEBHOOK_SECRET", ""),
			DefaultPlaybackID: getEnv("DEFAULT_PLAYBACK_ID", ""),
			RequestTimeoutSec: getEnvInt("PLATFORM_REQUEST_TIMEOUT_SEC", 10),
		},
		Reconcile: ReconcileConfig{
			StatusCacheTTLSec: getEnvInt("STATUS_CACHE_TTL_SEC", 5),
			SweepIntervalSec:  getEnvInt("RECONCILE_SWEEP_INTERVAL_SEC", 60),
			DedupTTLHours:     getEnvInt("WEBHOOK_DEDUP_TTL_HOURS", 24),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Admin"),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
