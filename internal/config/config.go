// file: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Auth       AuthConfig
	Cloudinary CloudinaryConfig
	Rewards    RewardsConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

// DatabaseConfig holds Postgres configuration
type DatabaseConfig struct {
	URL                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	ConnectTimeout     time.Duration
	SlowQueryThreshold time.Duration
	MigrationsPath     string
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Provider      string // "memory" or "redis"
	RedisURL      string
	RedisDB       int
	RedisPassword string
	PoolSize      int
	DefaultTTL    time.Duration
	CatalogTTL    time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret     string
	JWTExpiry     time.Duration
	SessionExpiry time.Duration
	BCryptCost    int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// CloudinaryConfig holds Cloudinary configuration for avatar uploads
type CloudinaryConfig struct {
	CloudName   string
	APIKey      string
	APISecret   string
	Folder      string
	MaxFileSize int64
}

// RewardsConfig holds the tunable parts of the token economy. The
// probability split itself lives in the engine and is not configurable.
type RewardsConfig struct {
	DailyBonusTokens int
	StartingTokens   int
	SpinRatePerMin   int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	// Missing .env is fine outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "9000"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			GracefulTimeout: getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxOpenConns:       getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:    getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime:    getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			ConnectTimeout:     getDurationEnv("DB_CONNECT_TIMEOUT", 30*time.Second),
			SlowQueryThreshold: getDurationEnv("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
			MigrationsPath:     getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},
		Cache: CacheConfig{
			Provider:      getEnv("CACHE_PROVIDER", "memory"),
			RedisURL:      getEnv("REDIS_URL", ""),
			RedisDB:       getIntEnv("REDIS_DB", 0),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			PoolSize:      getIntEnv("REDIS_POOL_SIZE", 10),
			DefaultTTL:    getDurationEnv("CACHE_DEFAULT_TTL", 15*time.Minute),
			CatalogTTL:    getDurationEnv("CACHE_CATALOG_TTL", 5*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			JWTExpiry:          getDurationEnv("JWT_EXPIRY", 24*time.Hour),
			SessionExpiry:      getDurationEnv("SESSION_EXPIRY", 7*24*time.Hour),
			BCryptCost:         getIntEnv("BCRYPT_COST", 12),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:   getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:      getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:   getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:      getEnv("CLOUDINARY_FOLDER", "badgehub/avatars"),
			MaxFileSize: int64(getIntEnv("CLOUDINARY_MAX_FILE_SIZE", 5*1024*1024)),
		},
		Rewards: RewardsConfig{
			DailyBonusTokens: getIntEnv("REWARDS_DAILY_BONUS", 1),
			StartingTokens:   getIntEnv("REWARDS_STARTING_TOKENS", 3),
			SpinRatePerMin:   getIntEnv("REWARDS_SPIN_RATE_PER_MIN", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	var problems []string
	if c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.Cache.Provider == "redis" && c.Cache.RedisURL == "" {
		problems = append(problems, "REDIS_URL is required when CACHE_PROVIDER=redis")
	}
	if c.Auth.BCryptCost < 10 || c.Auth.BCryptCost > 31 {
		problems = append(problems, "BCRYPT_COST must be between 10 and 31")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// ===============================
// ENV HELPERS
// ===============================

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
