package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Admin     AdminConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration.
// Driver is either "sqlite" (Path is used) or "postgres" (DSN is used).
type DatabaseConfig struct {
	Driver          string
	Path            string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// UploadConfig holds upload configuration
type UploadConfig struct {
	MaxFileSize int64
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// CORSConfig holds the allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// AdminConfig holds the credentials of the bootstrap admin account
type AdminConfig struct {
	Username  string
	Password  string
	Bootstrap bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvInt("TALKA_PORT", 8080),
			Host:            getEnv("TALKA_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvDuration("TALKA_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("TALKA_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvDuration("TALKA_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("TALKA_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("TALKA_DB_DRIVER", "sqlite"),
			Path:            getEnv("TALKA_DB_PATH", "data/talka_history.db"),
			DSN:             getEnv("TALKA_DB_DSN", ""),
			MaxOpenConns:    getEnvInt("TALKA_MAX_OPEN_CONNS", 1),
			MaxIdleConns:    getEnvInt("TALKA_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: getEnvDuration("TALKA_CONN_MAX_LIFETIME", 1*time.Hour),
		},
		Upload: UploadConfig{
			MaxFileSize: getEnvInt64("TALKA_MAX_FILE_SIZE", 52428800), // 50MB
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvInt("TALKA_REQUESTS_PER_MINUTE", 300),
			BurstSize:         getEnvInt("TALKA_BURST_SIZE", 20),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("TALKA_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Logging: LoggingConfig{
			Level:  getEnv("TALKA_LOG_LEVEL", "info"),
			Format: getEnv("TALKA_LOG_FORMAT", "json"),
			Output: getEnv("TALKA_LOG_OUTPUT", "stdout"),
		},
		Admin: AdminConfig{
			Username:  getEnv("TALKA_ADMIN_USERNAME", "admin"),
			Password:  getEnv("TALKA_ADMIN_PASSWORD", "admin123"),
			Bootstrap: getEnvBool("TALKA_ADMIN_BOOTSTRAP", true),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1024 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1024 and 65535, got %d", c.Server.Port)
	}

	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.Upload.MaxFileSize)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.BurstSize <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.Logging.Format)
	}

	if c.Admin.Bootstrap && (c.Admin.Username == "" || c.Admin.Password == "") {
		return fmt.Errorf("admin username and password are required when bootstrap is enabled")
	}

	return nil
}

// resolvePaths resolves the sqlite path to an absolute path
func (c *Config) resolvePaths() error {
	if c.Database.Driver != "sqlite" || c.Database.Path == ":memory:" {
		return nil
	}

	var err error
	c.Database.Path, err = filepath.Abs(c.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}
	return nil
}

// Helper functions for environment variable parsing
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
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
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList reads a comma separated list, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
