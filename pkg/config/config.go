package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/crm/pkg/audit"
	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/reports"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Observability configuration
	Observability ObservabilityConfig

	// Export configuration for published reports
	Export ExportConfig

	// SeedFile is an optional YAML file applied to documents never written
	SeedFile string

	// Timezone renders report dates
	Timezone string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Metrics and health server
	MetricsPort string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	LogFormat      string // json or text
	MetricsEnabled bool

	// AuditFile receives the audit trail as JSON lines; empty logs it only
	AuditFile         string
	AuditFileMaxBytes int64
}

// ExportConfig selects where published reports go. S3 wins when a bucket is set.
type ExportConfig struct {
	Dir string

	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Observability: loadObservabilityConfig(),
		Export:        loadExportConfig(),
		SeedFile:      getEnv("CRM_SEED_FILE", ""),
		Timezone:      getEnv("CRM_TIMEZONE", "UTC"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CRM_HOST", "0.0.0.0"),
		Port:            getEnv("CRM_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CRM_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CRM_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CRM_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CRM_SHUTDOWN_TIMEOUT", 30*time.Second),
		MetricsPort:     getEnv("CRM_METRICS_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if storageType := getEnv("CRM_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = strings.ToLower(storageType)
	}

	// Filesystem config
	if fsRoot := getEnv("CRM_FILESYSTEM_ROOT", ""); fsRoot != "" {
		cfg.FilesystemRoot = fsRoot
	}

	// Redis config
	if redisURL := getEnv("CRM_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("CRM_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("CRM_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	cfg.RedisPrefix = getEnv("CRM_REDIS_PREFIX", cfg.RedisPrefix)
	if redisPoolSize := getEnvInt("CRM_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	// PostgreSQL config
	if pgURL := getEnv("CRM_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("CRM_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}

	// SQLite config
	if sqlitePath := getEnv("CRM_SQLITE_PATH", ""); sqlitePath != "" {
		cfg.SQLitePath = sqlitePath
	}

	// Cache config
	cfg.CacheEnabled = getEnvBool("CRM_CACHE_ENABLED", cfg.CacheEnabled)
	if entries := getEnvInt("CRM_CACHE_ENTRIES", 0); entries > 0 {
		cfg.CacheEntries = entries
	}
	cfg.CacheTTL = getEnvDuration("CRM_CACHE_TTL", cfg.CacheTTL)

	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("CRM_LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("CRM_LOG_FORMAT", "json")),
		MetricsEnabled: getEnvBool("CRM_METRICS_ENABLED", true),

		AuditFile:         getEnv("CRM_AUDIT_FILE", ""),
		AuditFileMaxBytes: int64(getEnvInt("CRM_AUDIT_FILE_MAX_BYTES", 100*1024*1024)),
	}
}

// OpenAudit builds the audit trail: structured log entries on log, plus the
// audit file when one is configured
func (o ObservabilityConfig) OpenAudit(log *logrus.Logger) (audit.Logger, error) {
	trail := audit.NewLogrusLogger(log)
	if o.AuditFile == "" {
		return trail, nil
	}
	file, err := audit.NewFileLogger(audit.FileLoggerConfig{
		Path:    o.AuditFile,
		MaxSize: o.AuditFileMaxBytes,
	})
	if err != nil {
		return nil, err
	}
	return audit.NewMultiLogger(trail, file), nil
}

// loadExportConfig loads report export configuration from environment
func loadExportConfig() ExportConfig {
	return ExportConfig{
		Dir:            getEnv("CRM_EXPORT_DIR", ""),
		S3Bucket:       getEnv("CRM_EXPORT_S3_BUCKET", ""),
		S3Prefix:       getEnv("CRM_EXPORT_S3_PREFIX", "reports"),
		S3Region:       getEnv("CRM_EXPORT_S3_REGION", "us-east-1"),
		S3Endpoint:     getEnv("CRM_EXPORT_S3_ENDPOINT", ""),
		S3AccessKey:    getEnv("CRM_EXPORT_S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("CRM_EXPORT_S3_SECRET_KEY", ""),
		S3UsePathStyle: getEnvBool("CRM_EXPORT_S3_PATH_STYLE", false),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.MetricsPort == "" {
		return fmt.Errorf("metrics port is required")
	}
	if c.Server.Port == c.Server.MetricsPort {
		return fmt.Errorf("server port and metrics port must be different")
	}

	// Validate storage config based on type
	switch c.Storage.Type {
	case "memory":
	case "filesystem":
		if c.Storage.FilesystemRoot == "" {
			return fmt.Errorf("filesystem root is required for filesystem storage")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis storage")
		}
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory, filesystem, redis, postgres, or sqlite)", c.Storage.Type)
	}

	switch c.Observability.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Observability.LogFormat)
	}

	if (c.Export.S3AccessKey == "") != (c.Export.S3SecretKey == "") {
		return fmt.Errorf("S3 access key and secret key must be set together")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// S3 returns the S3 sink settings, or false when no bucket is configured
func (e ExportConfig) S3() (reports.S3Config, bool) {
	if e.S3Bucket == "" {
		return reports.S3Config{}, false
	}
	return reports.S3Config{
		Bucket:       e.S3Bucket,
		Prefix:       e.S3Prefix,
		Region:       e.S3Region,
		Endpoint:     e.S3Endpoint,
		AccessKey:    e.S3AccessKey,
		SecretKey:    e.S3SecretKey,
		UsePathStyle: e.S3UsePathStyle,
	}, true
}

// OpenSink builds the sink for published reports: S3 when a bucket is set,
// else a directory when one is set, else nil
func (e ExportConfig) OpenSink(ctx context.Context) (reports.Sink, error) {
	if s3cfg, ok := e.S3(); ok {
		sink, err := reports.NewS3Sink(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
	if e.Dir != "" {
		sink, err := reports.NewFileSink(e.Dir)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
	return nil, nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
