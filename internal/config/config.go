// Package config loads service configuration from an optional YAML file,
// a .env file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Mongo  MongoConfig  `yaml:"mongo"`
	SQL    SQLConfig    `yaml:"sql"`
	AI     AIConfig     `yaml:"ai"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port for the HTTP listener
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MongoConfig configures the profile store. An empty URI disables it.
type MongoConfig struct {
	URI        string        `yaml:"uri"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SQLConfig configures the transaction store. Driver is mysql or sqlite.
type SQLConfig struct {
	Driver  string        `yaml:"driver"`
	DSN     string        `yaml:"dsn"`
	Timeout time.Duration `yaml:"timeout"`
}

// AIConfig configures the generative service
type AIConfig struct {
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	ClassifyTimeout time.Duration `yaml:"classify_timeout"`
	SummaryTimeout  time.Duration `yaml:"summary_timeout"`
}

// CacheConfig configures the optional intent cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	MaxCost   int64         `yaml:"max_cost"`
	TTL       time.Duration `yaml:"ttl"`
	RedisAddr string        `yaml:"redis_addr"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns a configuration that runs with no external services:
// stub generator, in-memory SQLite and no MongoDB.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			AllowedOrigins: []string{"http://localhost:3000"},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
		},
		Mongo: MongoConfig{
			Database:   "wealth_management",
			Collection: "client_profiles",
			Timeout:    5 * time.Second,
		},
		SQL: SQLConfig{
			Driver:  "sqlite",
			DSN:     ":memory:",
			Timeout: 5 * time.Second,
		},
		AI: AIConfig{
			Provider:        "stub",
			ClassifyTimeout: 10 * time.Second,
			SummaryTimeout:  20 * time.Second,
		},
		Cache: CacheConfig{
			MaxCost: 1 << 20,
			TTL:     5 * time.Minute,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (optional; a missing file is not an error), then .env, then
// the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// .env never overrides variables already set in the environment.
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("HOST", &c.Server.Host)
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PORT: %w", err))
		} else {
			c.Server.Port = port
		}
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}

	str("MONGODB_URL", &c.Mongo.URI)
	str("MONGODB_DATABASE", &c.Mongo.Database)
	dur("MONGODB_TIMEOUT", &c.Mongo.Timeout)

	str("SQL_DRIVER", &c.SQL.Driver)
	str("SQL_DSN", &c.SQL.DSN)
	dur("SQL_TIMEOUT", &c.SQL.Timeout)

	str("AI_PROVIDER", &c.AI.Provider)
	str("AI_MODEL", &c.AI.Model)
	str("AI_API_KEY", &c.AI.APIKey)
	if c.AI.APIKey == "" {
		str("GEMINI_API_KEY", &c.AI.APIKey)
	}
	str("AI_BASE_URL", &c.AI.BaseURL)
	dur("AI_CLASSIFY_TIMEOUT", &c.AI.ClassifyTimeout)
	dur("AI_SUMMARY_TIMEOUT", &c.AI.SummaryTimeout)

	boolean("CACHE_ENABLED", &c.Cache.Enabled)
	dur("CACHE_TTL", &c.Cache.TTL)
	str("REDIS_ADDRESS", &c.Cache.RedisAddr)

	str("LOG_LEVEL", &c.Log.Level)
	boolean("LOG_DEVELOPMENT", &c.Log.Development)

	return errors.Join(errs...)
}

// Validate checks values that would otherwise fail later at startup
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch strings.ToLower(c.SQL.Driver) {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("sql.driver must be mysql or sqlite, got %q", c.SQL.Driver)
	}
	return nil
}
