// Package config handles loading and managing configuration for todone.
// It supports YAML and TOML files, environment variables, and hardcoded defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all configuration settings for todone.
type Config struct {
	// Backend selects the record store (sqlite, redis)
	Backend string `yaml:"backend" toml:"backend"`

	// DBPath is the SQLite database file
	DBPath string `yaml:"db_path" toml:"db_path"`

	// RedisURL is the Redis connection URL
	RedisURL string `yaml:"redis_url" toml:"redis_url"`

	// APIAddr is the listen address of `todone serve`
	APIAddr string `yaml:"api_addr" toml:"api_addr"`

	// DefaultProject receives tasks created without a project
	DefaultProject string `yaml:"default_project" toml:"default_project"`

	// RemindNotify sends desktop notifications from `todone remind`
	RemindNotify bool `yaml:"remind_notify" toml:"remind_notify"`

	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	Keys Keymap `yaml:"keys" toml:"keys"`
}

// LoggingConfig holds the logging section.
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	FilePath   string `yaml:"file_path" toml:"file_path"`
	JSON       bool   `yaml:"json" toml:"json"`
	Console    bool   `yaml:"console" toml:"console"`
	MaxSize    int    `yaml:"max_size" toml:"max_size"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAge     int    `yaml:"max_age" toml:"max_age"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// Keymap binds TUI actions to keys.
type Keymap struct {
	Quit     string `yaml:"quit" toml:"quit"`
	Up       string `yaml:"up" toml:"up"`
	Down     string `yaml:"down" toml:"down"`
	Toggle   string `yaml:"toggle" toml:"toggle"`
	Delete   string `yaml:"delete" toml:"delete"`
	MoveUp   string `yaml:"move_up" toml:"move_up"`
	MoveDown string `yaml:"move_down" toml:"move_down"`
	Filter   string `yaml:"filter" toml:"filter"`
	Add      string `yaml:"add" toml:"add"`
}

// Default configuration values
const (
	DefaultBackend        = BackendSQLite
	DefaultRedisURL       = "redis://localhost:6379"
	DefaultAPIAddr        = "127.0.0.1:7070"
	DefaultDefaultProject = "inbox"
	DefaultLogLevel       = "warn"
)

// DefaultKeymap returns the built-in TUI bindings.
func DefaultKeymap() Keymap {
	return Keymap{
		Quit:     "q",
		Up:       "k",
		Down:     "j",
		Toggle:   " ",
		Delete:   "d",
		MoveUp:   "K",
		MoveDown: "J",
		Filter:   "/",
		Add:      "a",
	}
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configErr    error
)

// Get returns the global configuration, loading it if necessary.
// This function is safe for concurrent use.
func Get() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = Load()
	})
	return globalConfig, configErr
}

// Reload forces a reload of the configuration.
func Reload() (*Config, error) {
	configOnce = sync.Once{}
	return Get()
}

// Defaults returns the configuration used when no file or variable is set.
func Defaults() *Config {
	return &Config{
		Backend:        DefaultBackend,
		DBPath:         DefaultDBPath(),
		RedisURL:       DefaultRedisURL,
		APIAddr:        DefaultAPIAddr,
		DefaultProject: DefaultDefaultProject,
		Logging: LoggingConfig{
			Level:      DefaultLogLevel,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     7,
			Compress:   true,
		},
		Keys: DefaultKeymap(),
	}
}

// DefaultDBPath is ~/.local/share/todone/todone.db, or todone.db when the
// home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "todone.db"
	}
	return filepath.Join(home, ".local", "share", "todone", "todone.db")
}

// Load reads configuration from files and environment variables.
// Priority (highest to lowest):
// 1. Environment variables
// 2. ~/.config/todone/config.yaml (or config.yml)
// 3. ~/.config/todone/config.toml
// 4. ~/.todone.yaml
// 5. Hardcoded defaults
//
// A file that exists but does not parse is an error.
func Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range searchOrder() {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := cfg.merge(path, data); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	cfg.DBPath = ExpandHome(cfg.DBPath)
	cfg.Logging.FilePath = ExpandHome(cfg.Logging.FilePath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(path string, data []byte) error {
	var err error
	if strings.HasSuffix(path, ".toml") {
		err = toml.Unmarshal(data, c)
	} else {
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the fields that have a fixed set of values.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendRedis)
	}
	if c.Backend == BackendSQLite && c.DBPath == "" {
		return fmt.Errorf("db_path is required for the %s backend", BackendSQLite)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvOverrides() {
	if val := os.Getenv("TODONE_BACKEND"); val != "" {
		c.Backend = strings.ToLower(val)
	}

	if val := os.Getenv("TODONE_DB_PATH"); val != "" {
		c.DBPath = val
	}

	// Redis URL (support both REDIS_URL and TODONE_REDIS_URL)
	if val := os.Getenv("TODONE_REDIS_URL"); val != "" {
		c.RedisURL = val
	} else if val := os.Getenv("REDIS_URL"); val != "" {
		c.RedisURL = val
	}

	if val := os.Getenv("TODONE_API_ADDR"); val != "" {
		c.APIAddr = val
	}

	if val := os.Getenv("TODONE_DEFAULT_PROJECT"); val != "" {
		c.DefaultProject = val
	}

	if val := os.Getenv("TODONE_REMIND_NOTIFY"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.RemindNotify = b
		} else {
			c.RemindNotify = val == "yes"
		}
	}

	if val := os.Getenv("TODONE_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("TODONE_LOG_FILE"); val != "" {
		c.Logging.FilePath = val
	}
}

// ExpandHome replaces a leading "~/" with the home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// searchOrder lists config files from lowest to highest priority.
func searchOrder() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	dir := filepath.Join(homeDir, ".config", "todone")
	return []string{
		filepath.Join(homeDir, ".todone.yaml"),
		filepath.Join(dir, "config.toml"),
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.yml"),
	}
}

// ConfigPaths returns the paths where config files are searched, highest
// priority first.
func ConfigPaths() []string {
	paths := searchOrder()
	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}
	return paths
}

// WriteExample writes an example configuration file to path. A .toml path
// gets the TOML encoding of the defaults; anything else gets commented YAML.
func WriteExample(path string) error {
	var data []byte
	if strings.HasSuffix(path, ".toml") {
		var err error
		data, err = toml.Marshal(Defaults())
		if err != nil {
			return err
		}
	} else {
		data = []byte(exampleYAML)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

const exampleYAML = `# todone configuration file
# Place this file at ~/.config/todone/config.yaml or ~/.todone.yaml

# Record store: sqlite or redis
backend: sqlite

# SQLite database file (sqlite backend)
db_path: ~/.local/share/todone/todone.db

# Redis connection URL (redis backend)
redis_url: redis://localhost:6379

# Listen address for "todone serve"
api_addr: 127.0.0.1:7070

# Project that receives tasks created without one
default_project: inbox

# Send desktop notifications from "todone remind"
remind_notify: false

logging:
  level: warn
  file_path: ""
  json: false
  console: false
  max_size: 10
  max_backups: 5
  max_age: 7
  compress: true

# TUI key bindings
keys:
  quit: q
  up: k
  down: j
  toggle: " "
  delete: d
  move_up: K
  move_down: J
  filter: /
  add: a
`
