package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the bizlens server and CLI.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Agent    AgentConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Minio    MinioConfig
	Auth     AuthConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port        int
	Env         string
	CORSOrigins []string
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AgentConfig struct {
	URL             string
	Name            string
	ResponseTimeout time.Duration
	MaxReconnects   int
	ReconnectDelay  time.Duration
	PingInterval    time.Duration
}

type CacheConfig struct {
	Backend  string
	RedisURL string
	Path     string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Enabled reports whether PDF exports should be archived to object storage.
func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

type AuthConfig struct {
	APIKeyHash      string
	RateLimitPerMin int
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

const (
	CacheBackendRedis  = "redis"
	CacheBackendSQLite = "sqlite"
	CacheBackendMemory = "memory"
)

var validCacheBackends = map[string]bool{
	CacheBackendRedis:  true,
	CacheBackendSQLite: true,
	CacheBackendMemory: true,
}

// Load reads server configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := load(CacheBackendRedis)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Cache.Backend == CacheBackendRedis && cfg.Cache.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when CACHE_BACKEND is redis")
	}
	return cfg, nil
}

// LoadCLI reads configuration for the command-line client. The CLI keeps its
// report cache in a local SQLite file unless told otherwise.
func LoadCLI() (*Config, error) {
	cfg := load(CacheBackendSQLite)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(defaultCache string) *Config {
	return &Config{
		Server: ServerConfig{
			Port:        envInt("BIZLENS_PORT", 8080),
			Env:         envString("BIZLENS_ENV", "development"),
			CORSOrigins: envList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(envString("BACKEND_URL", "http://localhost:5000"), "/"),
			Timeout: envDuration("BACKEND_TIMEOUT", 5*time.Minute),
		},
		Agent: AgentConfig{
			URL:             os.Getenv("AGENT_SOCKET_URL"),
			Name:            envString("AGENT_NAME", "business-analyst"),
			ResponseTimeout: envDurationSecs("AGENT_RESPONSE_TIMEOUT_SECS", 60*time.Second),
			MaxReconnects:   envInt("AGENT_MAX_RECONNECTS", 5),
			ReconnectDelay:  envDuration("AGENT_RECONNECT_DELAY", time.Second),
			PingInterval:    envDuration("AGENT_PING_INTERVAL", 25*time.Second),
		},
		Cache: CacheConfig{
			Backend:  envString("CACHE_BACKEND", defaultCache),
			RedisURL: os.Getenv("REDIS_URL"),
			Path:     envString("CACHE_PATH", defaultCachePath()),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    envString("MINIO_BUCKET", "bizlens-exports"),
			Region:    envString("MINIO_REGION", "us-east-1"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
		},
		Auth: AuthConfig{
			APIKeyHash:      os.Getenv("API_KEY_HASH"),
			RateLimitPerMin: envInt("RATE_LIMIT_PER_MIN", 30),
		},
		Log: LogConfig{
			Level:      envString("LOG_LEVEL", "info"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: envInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 14),
		},
	}
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if !isHTTPURL(c.Backend.BaseURL) {
		return fmt.Errorf("BACKEND_URL must start with http:// or https://, got %q", c.Backend.BaseURL)
	}

	if c.Agent.URL != "" && !strings.HasPrefix(c.Agent.URL, "ws://") && !strings.HasPrefix(c.Agent.URL, "wss://") {
		return fmt.Errorf("AGENT_SOCKET_URL must start with ws:// or wss://, got %q", c.Agent.URL)
	}
	if c.Agent.MaxReconnects < 0 {
		return fmt.Errorf("AGENT_MAX_RECONNECTS must not be negative, got %d", c.Agent.MaxReconnects)
	}

	if !validCacheBackends[c.Cache.Backend] {
		return fmt.Errorf("CACHE_BACKEND must be one of redis, sqlite, memory; got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBackendSQLite && c.Cache.Path == "" {
		return fmt.Errorf("CACHE_PATH is required when CACHE_BACKEND is sqlite")
	}

	if c.Minio.Enabled() && (c.Minio.AccessKey == "" || c.Minio.SecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func defaultCachePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".bizlens", "cache.db")
	}
	return filepath.Join(dir, "bizlens", "cache.db")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
