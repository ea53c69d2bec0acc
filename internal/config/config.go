package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	BackendSQLite    = "sqlite"
	BackendAutomerge = "automerge"
)

type Config struct {
	Dir       string `toml:"dir,omitempty"`
	Backend   string `toml:"backend"`
	Board     string `toml:"board,omitempty"`
	RedisURL  string `toml:"redis_url,omitempty"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	Format    string `toml:"format"`
	SyncAddr  string `toml:"sync_addr,omitempty"`
}

func Defaults() Config {
	return Config{
		Backend:   BackendSQLite,
		Board:     "default",
		LogLevel:  "warn",
		LogFormat: "text",
		Format:    "json",
		SyncAddr:  "127.0.0.1:7474",
	}
}

// Path is $TODOBOARD_CONFIG, else ~/.config/todoboard/config.toml.
func Path() string {
	if p := strings.TrimSpace(os.Getenv("TODOBOARD_CONFIG")); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "todoboard", "config.toml")
}

// Load reads the config file at path over the defaults. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Defaults(), fmt.Errorf("decode config %s: %w", path, err)
	}
	return withDefaults(cfg), nil
}

// Runtime loads the config file and applies environment overrides.
func Runtime() (Config, error) {
	cfg, err := Load(Path())
	return ApplyEnv(cfg), err
}

func ApplyEnv(cfg Config) Config {
	overlay := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	overlay(&cfg.Dir, "TODOBOARD_DIR")
	overlay(&cfg.Backend, "TODOBOARD_BACKEND")
	overlay(&cfg.Board, "TODOBOARD_BOARD")
	overlay(&cfg.RedisURL, "TODOBOARD_REDIS_URL")
	overlay(&cfg.LogLevel, "TODOBOARD_LOG_LEVEL")
	overlay(&cfg.LogFormat, "TODOBOARD_LOG_FORMAT")
	overlay(&cfg.Format, "TODOBOARD_FORMAT")
	overlay(&cfg.SyncAddr, "TODOBOARD_SYNC_ADDR")
	return cfg
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendAutomerge:
	default:
		return fmt.Errorf("invalid backend %q (expected %s|%s)", c.Backend, BackendSQLite, BackendAutomerge)
	}
	switch c.Format {
	case "json", "edn", "text":
	default:
		return fmt.Errorf("invalid format %q (expected json|edn|text)", c.Format)
	}
	return nil
}

// Save writes cfg as TOML, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func withDefaults(c Config) Config {
	d := Defaults()
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.Board == "" {
		c.Board = d.Board
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.SyncAddr == "" {
		c.SyncAddr = d.SyncAddr
	}
	return c
}
