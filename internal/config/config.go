// Package config loads perron's settings from defaults, an optional YAML
// file, a .env file and PERRON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by Load
const EnvPrefix = "PERRON_"

// Config is the complete runtime configuration
type Config struct {
	Kiosk    bool   `yaml:"kiosk"`
	Stations string `yaml:"stations"`

	API     APIConfig     `yaml:"api"`
	Refresh RefreshConfig `yaml:"refresh"`
	Search  SearchConfig  `yaml:"search"`
	Board   BoardConfig   `yaml:"board"`
	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval" validate:"gte=1s"`
}

type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

type BoardConfig struct {
	Limit      int `yaml:"limit" validate:"gt=0,lte=50"`
	KioskLimit int `yaml:"kiosk_limit" validate:"gt=0,lte=50"`
}

type StoreConfig struct {
	Backend string `yaml:"backend" validate:"oneof=file sqlite postgres memory"`
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn" validate:"required_if=Backend postgres"`
}

type CacheConfig struct {
	Size int           `yaml:"size" validate:"gte=0"`
	TTL  time.Duration `yaml:"ttl" validate:"gte=0"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://transport.opendata.ch/v1",
			Timeout: 10 * time.Second,
		},
		Refresh: RefreshConfig{Interval: 60 * time.Second},
		Search:  SearchConfig{Debounce: 300 * time.Millisecond},
		Board:   BoardConfig{Limit: 5, KioskLimit: 10},
		Store:   StoreConfig{Backend: "file"},
		Cache:   CacheConfig{Size: 256, TTL: 10 * time.Minute},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}

// DefaultPath returns the config file read when no path is given
func DefaultPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "perron", "config.yml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "perron", "config.yml")
}

// Load builds the configuration. An explicit path must exist; the default
// path is optional. Values from the environment override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	// A missing .env is fine; it never overrides variables already set
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	// #nosec G304 -- path comes from the user's own flag or config dir
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	boolean("KIOSK", &c.Kiosk)
	str("STATIONS", &c.Stations)
	str("API_BASE_URL", &c.API.BaseURL)
	duration("API_TIMEOUT", &c.API.Timeout)
	duration("REFRESH_INTERVAL", &c.Refresh.Interval)
	duration("SEARCH_DEBOUNCE", &c.Search.Debounce)
	integer("BOARD_LIMIT", &c.Board.Limit)
	integer("BOARD_KIOSK_LIMIT", &c.Board.KioskLimit)
	str("STORE_BACKEND", &c.Store.Backend)
	str("STORE_PATH", &c.Store.Path)
	str("STORE_DSN", &c.Store.DSN)
	integer("CACHE_SIZE", &c.Cache.Size)
	duration("CACHE_TTL", &c.Cache.TTL)
	str("SERVER_ADDR", &c.Server.Addr)

	if v, ok := lookup(EnvPrefix + "SERVER_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	return errors.Join(errs...)
}

// Validate checks every field against its constraints
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RowLimit returns the number of departures shown per station
func (c *Config) RowLimit() int {
	if c.Kiosk {
		return c.Board.KioskLimit
	}
	return c.Board.Limit
}

// StationNames returns the startup station list, split and trimmed
func (c *Config) StationNames() []string {
	return splitList(c.Stations)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
