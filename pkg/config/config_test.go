package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/platinummonkey/crm/pkg/audit"
	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/reports"
	"github.com/platinummonkey/crm/pkg/storage"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "CRM_TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "CRM_TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{name: "true", envValue: "true", want: true},
		{name: "one", envValue: "1", want: true},
		{name: "uppercase", envValue: "TRUE", want: true},
		{name: "false", defaultValue: true, envValue: "false", want: false},
		{name: "garbage is false", defaultValue: true, envValue: "yes please", want: false},
		{name: "unset keeps default", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("CRM_TEST_BOOL", tt.envValue)
			}

			if got := getEnvBool("CRM_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	t.Setenv("CRM_TEST_INT", "42")
	if got := getEnvInt("CRM_TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt() = %v, want 42", got)
	}

	t.Setenv("CRM_TEST_INT", "forty-two")
	if got := getEnvInt("CRM_TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt() with invalid value = %v, want default 7", got)
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	t.Setenv("CRM_TEST_DURATION", "90s")
	if got := getEnvDuration("CRM_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration() = %v, want 90s", got)
	}

	t.Setenv("CRM_TEST_DURATION", "soon")
	if got := getEnvDuration("CRM_TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() with invalid value = %v, want default 1s", got)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.MetricsPort != "9090" {
		t.Errorf("ports = %s/%s, want 8080/9090", cfg.Server.Port, cfg.Server.MetricsPort)
	}
	if cfg.Storage.Type != "filesystem" {
		t.Errorf("storage type = %s, want filesystem", cfg.Storage.Type)
	}
	if cfg.Observability.LogLevel != observability.InfoLevel {
		t.Errorf("log level = %v, want info", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogFormat != "json" {
		t.Errorf("log format = %s, want json", cfg.Observability.LogFormat)
	}
	if _, ok := cfg.Export.S3(); ok {
		t.Error("S3 export should be off without a bucket")
	}
	if loc, err := cfg.Location(); err != nil || loc != time.UTC {
		t.Errorf("Location() = %v, %v; want UTC", loc, err)
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("CRM_PORT", "8000")
	t.Setenv("CRM_STORAGE_TYPE", "Redis")
	t.Setenv("CRM_REDIS_URL", "redis://cache:6379/2")
	t.Setenv("CRM_REDIS_PREFIX", "tenant-a:")
	t.Setenv("CRM_CACHE_ENABLED", "true")
	t.Setenv("CRM_CACHE_TTL", "30s")
	t.Setenv("CRM_LOG_LEVEL", "debug")
	t.Setenv("CRM_LOG_FORMAT", "TEXT")
	t.Setenv("CRM_EXPORT_S3_BUCKET", "crm-reports")
	t.Setenv("CRM_EXPORT_S3_PATH_STYLE", "1")
	t.Setenv("CRM_SEED_FILE", "/etc/crm/seed.yaml")
	t.Setenv("CRM_TIMEZONE", "America/New_York")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8000" {
		t.Errorf("port = %s, want 8000", cfg.Server.Port)
	}
	if cfg.Storage.Type != "redis" || cfg.Storage.RedisURL != "redis://cache:6379/2" || cfg.Storage.RedisPrefix != "tenant-a:" {
		t.Errorf("unexpected redis config: %+v", cfg.Storage)
	}
	if !cfg.Storage.CacheEnabled || cfg.Storage.CacheTTL != 30*time.Second {
		t.Errorf("cache = %v/%v, want enabled/30s", cfg.Storage.CacheEnabled, cfg.Storage.CacheTTL)
	}
	if cfg.Observability.LogLevel != observability.DebugLevel || cfg.Observability.LogFormat != "text" {
		t.Errorf("observability = %+v", cfg.Observability)
	}
	if cfg.SeedFile != "/etc/crm/seed.yaml" {
		t.Errorf("seed file = %s", cfg.SeedFile)
	}

	s3, ok := cfg.Export.S3()
	if !ok {
		t.Fatal("S3 export should be on with a bucket")
	}
	if s3.Bucket != "crm-reports" || s3.Prefix != "reports" || !s3.UsePathStyle {
		t.Errorf("unexpected S3 config: %+v", s3)
	}

	loc, err := cfg.Location()
	if err != nil || loc.String() != "America/New_York" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:        ServerConfig{Port: "8080", MetricsPort: "9090"},
			Storage:       storage.DefaultConfig(),
			Observability: ObservabilityConfig{LogFormat: "json"},
			Timezone:      "UTC",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "memory store", mutate: func(c *Config) { c.Storage.Type = "memory" }},
		{name: "sqlite store", mutate: func(c *Config) { c.Storage.Type = "sqlite" }},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "server port is required",
		},
		{
			name:    "shared port",
			mutate:  func(c *Config) { c.Server.MetricsPort = "8080" },
			wantErr: "must be different",
		},
		{
			name:    "unknown storage",
			mutate:  func(c *Config) { c.Storage.Type = "hybrid" },
			wantErr: "invalid storage type",
		},
		{
			name: "postgres without url",
			mutate: func(c *Config) {
				c.Storage.Type = "postgres"
				c.Storage.PostgresURL = ""
			},
			wantErr: "postgres URL is required",
		},
		{
			name:    "filesystem without root",
			mutate:  func(c *Config) { c.Storage.FilesystemRoot = "" },
			wantErr: "filesystem root is required",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Observability.LogFormat = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "half of the S3 credentials",
			mutate:  func(c *Config) { c.Export.S3AccessKey = "AKIA" },
			wantErr: "must be set together",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus_Mons" },
			wantErr: "invalid timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExportConfig_OpenSink(t *testing.T) {
	sink, err := ExportConfig{}.OpenSink(context.Background())
	if err != nil || sink != nil {
		t.Fatalf("OpenSink() = %v, %v; want no sink", sink, err)
	}

	dir := t.TempDir()
	sink, err = ExportConfig{Dir: dir}.OpenSink(context.Background())
	if err != nil {
		t.Fatalf("OpenSink() error = %v", err)
	}
	if _, ok := sink.(*reports.FileSink); !ok {
		t.Errorf("OpenSink() = %T, want *reports.FileSink", sink)
	}
}

func TestObservabilityConfig_OpenAudit(t *testing.T) {
	trail, err := ObservabilityConfig{}.OpenAudit(observability.NewNopLogger())
	if err != nil {
		t.Fatalf("OpenAudit() error = %v", err)
	}
	if _, ok := trail.(*audit.LogrusLogger); !ok {
		t.Errorf("OpenAudit() = %T, want *audit.LogrusLogger", trail)
	}

	path := filepath.Join(t.TempDir(), "audit.log")
	trail, err = ObservabilityConfig{AuditFile: path}.OpenAudit(observability.NewNopLogger())
	if err != nil {
		t.Fatalf("OpenAudit() error = %v", err)
	}
	defer trail.Close()
	if err := trail.Log(context.Background(), &audit.Event{Type: audit.EventTypeLogin, Status: audit.EventStatusSuccess}); err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"eventType":"auth.login"`) {
		t.Errorf("audit file = %q, want the login event", data)
	}
}
