// Package config loads process configuration in layers: struct defaults, an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// InsecureDefaultJWTSecret is used when no signing secret is configured.
// Deployments must override it via JWT_SECRET.
const InsecureDefaultJWTSecret = "your-secret-key-change-in-production"

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// Blob backends.
const (
	BlobBackendMemory   = "memory"
	BlobBackendBadger   = "badger"
	BlobBackendSupabase = "supabase"
)

type Config struct {
	Server   Server   `koanf:"server"`
	JWT      JWT      `koanf:"jwt"`
	Password Password `koanf:"password"`
	Database Database `koanf:"database"`
	Blob     Blob     `koanf:"blob"`
	CORS     CORS     `koanf:"cors"`
	Log      Log      `koanf:"log"`
}

type Server struct {
	Addr           string        `koanf:"addr"`
	Environment    string        `koanf:"environment"`
	MaxBodyBytes   int64         `koanf:"max_body_bytes"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// TrustedProxies lists CIDRs whose X-Forwarded-For header is honored.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

type JWT struct {
	Secret   string        `koanf:"secret"`
	TokenTTL time.Duration `koanf:"token_ttl"`
}

type Password struct {
	Cost int `koanf:"cost"`
}

// Database selects Postgres when URL is set; otherwise stores are in-memory.
type Database struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type Blob struct {
	Backend       string `koanf:"backend"`
	BadgerPath    string `koanf:"badger_path"`
	PublicBaseURL string `koanf:"public_base_url"`
	SupabaseURL   string `koanf:"supabase_url"`
	SupabaseKey   string `koanf:"supabase_key"`
	Bucket        string `koanf:"bucket"`
	// UploadTimeout bounds a single remote upload attempt.
	UploadTimeout time.Duration `koanf:"upload_timeout"`
}

type CORS struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type Log struct {
	Level string `koanf:"level"`
}

func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Addr:           ":8080",
			Environment:    "development",
			MaxBodyBytes:   64 << 10,
			RequestTimeout: 30 * time.Second,
			TrustedProxies: []string{},
		},
		JWT: JWT{
			Secret:   "",
			TokenTTL: 24 * time.Hour,
		},
		Password: Password{Cost: 10},
		Database: Database{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Blob: Blob{
			Backend:       BlobBackendMemory,
			BadgerPath:    "data/photos",
			PublicBaseURL: "http://localhost:8080",
			Bucket:        "tracking-photos",
			UploadTimeout: 15 * time.Second,
		},
		CORS: CORS{AllowedOrigins: []string{"*"}},
		Log:  Log{Level: "info"},
	}
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"addr":                "server.addr",
	"environment":         "server.environment",
	"max_body_bytes":      "server.max_body_bytes",
	"request_timeout":     "server.request_timeout",
	"trusted_proxies":     "server.trusted_proxies",
	"jwt_secret":          "jwt.secret",
	"token_ttl":           "jwt.token_ttl",
	"password_cost":       "password.cost",
	"database_url":        "database.url",
	"db_max_open_conns":   "database.max_open_conns",
	"db_max_idle_conns":   "database.max_idle_conns",
	"db_conn_max_life":    "database.conn_max_lifetime",
	"blob_backend":        "blob.backend",
	"blob_badger_path":    "blob.badger_path",
	"public_base_url":     "blob.public_base_url",
	"supabase_url":        "blob.supabase_url",
	"supabase_key":        "blob.supabase_key",
	"blob_bucket":         "blob.bucket",
	"blob_upload_timeout": "blob.upload_timeout",
	"cors_origins":        "cors.allowed_origins",
	"log_level":           "log.level",
}

var sliceConfigPaths = []string{
	"server.trusted_proxies",
	"cors.allowed_origins",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// Load builds the configuration. Later layers override earlier ones.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// processSliceFields splits comma-separated env values into string slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Validate fills the insecure secret fallback and rejects unusable settings.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		c.JWT.Secret = InsecureDefaultJWTSecret
	}
	if c.JWT.TokenTTL <= 0 {
		return errors.New("jwt.token_ttl must be positive")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch c.Blob.Backend {
	case BlobBackendMemory:
	case BlobBackendBadger:
		if c.Blob.BadgerPath == "" {
			return errors.New("blob.badger_path is required for the badger backend")
		}
	case BlobBackendSupabase:
		if c.Blob.SupabaseURL == "" || c.Blob.SupabaseKey == "" {
			return errors.New("blob.supabase_url and blob.supabase_key are required for the supabase backend")
		}
	default:
		return fmt.Errorf("unknown blob.backend %q", c.Blob.Backend)
	}
	if c.Blob.Bucket == "" {
		return errors.New("blob.bucket is required")
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyPrefixes parses server.trusted_proxies. Bare addresses are
// accepted as single-host prefixes.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.Server.TrustedProxies))
	for _, raw := range c.Server.TrustedProxies {
		if addr, err := netip.ParseAddr(raw); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("server.trusted_proxies: invalid entry %q", raw)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}

// UsesInsecureSecret reports whether the signing key is the built-in fallback.
func (c *Config) UsesInsecureSecret() bool {
	return c.JWT.Secret == InsecureDefaultJWTSecret
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

const redacted = "[REDACTED]"

// LogValue keeps secrets out of logs.
func (c *Config) LogValue() slog.Value {
	dbURL := ""
	if c.Database.URL != "" {
		dbURL = redacted
	}
	supabaseKey := ""
	if c.Blob.SupabaseKey != "" {
		supabaseKey = redacted
	}
	return slog.GroupValue(
		slog.String("addr", c.Server.Addr),
		slog.String("environment", c.Server.Environment),
		slog.Duration("request_timeout", c.Server.RequestTimeout),
		slog.String("jwt_secret", redacted),
		slog.Duration("token_ttl", c.JWT.TokenTTL),
		slog.Int("password_cost", c.Password.Cost),
		slog.String("database_url", dbURL),
		slog.String("blob_backend", c.Blob.Backend),
		slog.String("blob_bucket", c.Blob.Bucket),
		slog.String("supabase_url", c.Blob.SupabaseURL),
		slog.String("supabase_key", supabaseKey),
		slog.Any("cors_origins", c.CORS.AllowedOrigins),
		slog.String("log_level", c.Log.Level),
	)
}
