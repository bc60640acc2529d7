package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	SourcePostgres = "postgres"
	SourceREST     = "rest"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Source   SourceConfig   `yaml:"source"`
	Redis    RedisConfig    `yaml:"redis"`
	Grid     GridConfig     `yaml:"grid"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type SourceConfig struct {
	// Kind is either "postgres" (items table over DATABASE_URL) or "rest"
	// (Supabase PostgREST endpoint).
	Kind     string         `yaml:"kind"`
	Supabase SupabaseConfig `yaml:"supabase"`
}

type SupabaseConfig struct {
	URL   string `yaml:"url"`
	Key   string `yaml:"key"`
	Table string `yaml:"table"`
}

// RedisConfig enables the snapshot warm cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type GridConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	Locale          string        `yaml:"locale"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: ":8080"},
		Auth:   AuthConfig{SessionTTL: 24 * time.Hour},
		Source: SourceConfig{
			Kind:     SourcePostgres,
			Supabase: SupabaseConfig{Table: "items"},
		},
		Grid: GridConfig{
			RefreshInterval: 60 * time.Second,
			FetchTimeout:    30 * time.Second,
			Locale:          "en",
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// LoadDotEnv loads a .env file without overwriting variables that are
// already set in the environment.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Load reads defaults, then the YAML file at path if it exists, then the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.Server.Host, "APP_HOST")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Source.Kind, "DATA_SOURCE")
	setString(&c.Source.Supabase.URL, "SUPABASE_URL")
	setString(&c.Source.Supabase.Key, "SUPABASE_KEY")
	setString(&c.Source.Supabase.Table, "SUPABASE_TABLE")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Grid.Locale, "GRID_LOCALE")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		c.Redis.DB = db
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"REFRESH_INTERVAL", &c.Grid.RefreshInterval},
		{"FETCH_TIMEOUT", &c.Grid.FetchTimeout},
		{"SESSION_TTL", &c.Auth.SessionTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, v, err)
		}
		*d.dst = parsed
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks what the HTTP service needs to start.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if err := c.ValidateSource(); err != nil {
		return err
	}
	if c.Grid.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", c.Grid.RefreshInterval)
	}
	if _, err := c.Grid.Tag(); err != nil {
		return err
	}
	return nil
}

// ValidateSource checks only the data source settings. The terminal viewer
// needs nothing else.
func (c *Config) ValidateSource() error {
	switch c.Source.Kind {
	case SourcePostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres data source")
		}
	case SourceREST:
		if c.Source.Supabase.URL == "" || c.Source.Supabase.Key == "" {
			return errors.New("SUPABASE_URL and SUPABASE_KEY are required for the rest data source")
		}
	default:
		return fmt.Errorf("unknown data source %q", c.Source.Kind)
	}
	return nil
}

// Tag is the collation locale for string sorting.
func (g GridConfig) Tag() (language.Tag, error) {
	if g.Locale == "" {
		return language.English, nil
	}
	tag, err := language.Parse(g.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid grid locale %q: %w", g.Locale, err)
	}
	return tag, nil
}
