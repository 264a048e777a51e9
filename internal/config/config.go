package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Security SecurityConfig
	Identity IdentityConfig
	Accord   AccordConfig
	Sync     SyncConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port       string
	Env        string
	AdminToken string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret        string
	SessionExpiry time.Duration
}

// SecurityConfig holds security encryption keys
type SecurityConfig struct {
	IdentityEncryptionKey string
}

// IdentityConfig holds OTP/PIN flow settings
type IdentityConfig struct {
	PendingTTL time.Duration
	OTPDigits  int
}

// AccordConfig holds the reference data feed settings
type AccordConfig struct {
	BaseURL  string
	Token    string
	FeedDate string
	Timeout  time.Duration
}

// SyncConfig holds the periodic ingestion settings
type SyncConfig struct {
	Enabled  bool
	Interval time.Duration
	Workers  int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       getEnv("SERVER_PORT", "8080"),
			Env:        getEnv("SERVER_ENV", "development"),
			AdminToken: getEnv("ADMIN_TOKEN", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "myfi"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "change-this-in-production"),
			SessionExpiry: getEnvAsDuration("SESSION_EXPIRY", 7*24*time.Hour),
		},
		Security: SecurityConfig{
			IdentityEncryptionKey: getEnv("IDENTITY_ENCRYPTION_KEY", "0000000000000000000000000000000000000000000000000000000000000000"), // 32-bytes hex string
		},
		Identity: IdentityConfig{
			PendingTTL: getEnvAsDuration("OTP_PENDING_TTL", 180*time.Second),
			OTPDigits:  getEnvAsInt("OTP_DIGITS", 6),
		},
		Accord: AccordConfig{
			BaseURL:  getEnv("ACCORD_BASE_URL", "https://contentapi.accordwebservices.com/RawData"),
			Token:    getEnv("ACCORD_TOKEN", ""),
			FeedDate: getEnv("ACCORD_FEED_DATE", ""),
			Timeout:  getEnvAsDuration("ACCORD_TIMEOUT", 60*time.Second),
		},
		Sync: SyncConfig{
			Enabled:  getEnvAsBool("SYNC_ENABLED", false),
			Interval: getEnvAsDuration("SYNC_INTERVAL", 24*time.Hour),
			Workers:  getEnvAsInt("SYNC_WORKERS", 4),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
