// Package config loads famcal settings from a YAML file, an optional .env
// file and FAMCAL_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	MarkerBackendSQLite   = "sqlite"
	MarkerBackendPostgres = "postgres"
	MarkerBackendMemory   = "memory"
)

type MarkerConfig struct {
	// Backend is one of sqlite, postgres or memory.
	Backend     string `yaml:"backend"`
	PostgresURL string `yaml:"postgres_url,omitempty"`
	Prefix      string `yaml:"prefix"`
}

type TelegramConfig struct {
	Token  string `yaml:"token,omitempty"`
	ChatID int64  `yaml:"chat_id,omitempty"`
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

type Config struct {
	DatabasePath string       `yaml:"database_path"`
	Markers      MarkerConfig `yaml:"markers"`

	// TickSpec is a robfig/cron spec, "@every 1m" by default.
	TickSpec   string `yaml:"tick"`
	Timezone   string `yaml:"timezone"`
	DateLayout string `yaml:"date_layout"`
	// ChannelBuffer sizes the reminder feed between the runner and the UI.
	ChannelBuffer int `yaml:"channel_buffer"`

	// DefaultViewer is a member id, or "all" for the whole household.
	DefaultViewer   string `yaml:"default_viewer"`
	LegacyNameMatch bool   `yaml:"legacy_name_match"`

	DesktopNotifications bool           `yaml:"desktop_notifications"`
	Telegram             TelegramConfig `yaml:"telegram"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`
}

func Default() *Config {
	return &Config{
		DatabasePath:  "famcal.db",
		Markers:       MarkerConfig{Backend: MarkerBackendSQLite, Prefix: "famcal_notified"},
		TickSpec:      "@every 1m",
		Timezone:      "Local",
		DateLayout:    "Mon, 2 Jan 2006",
		ChannelBuffer: 64,
		DefaultViewer: "all",
		LogLevel:      "info",
	}
}

// Normalize fills zero values with defaults so older or partial files
// still behave.
func (c *Config) Normalize() {
	d := Default()
	if c.DatabasePath == "" {
		c.DatabasePath = d.DatabasePath
	}
	switch strings.ToLower(strings.TrimSpace(c.Markers.Backend)) {
	case MarkerBackendSQLite, MarkerBackendPostgres, MarkerBackendMemory:
		c.Markers.Backend = strings.ToLower(strings.TrimSpace(c.Markers.Backend))
	default:
		c.Markers.Backend = d.Markers.Backend
	}
	if strings.TrimSpace(c.Markers.Prefix) == "" {
		c.Markers.Prefix = d.Markers.Prefix
	}
	if c.TickSpec == "" {
		c.TickSpec = d.TickSpec
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.DateLayout == "" {
		c.DateLayout = d.DateLayout
	}
	if c.ChannelBuffer <= 0 {
		c.ChannelBuffer = d.ChannelBuffer
	}
	if c.DefaultViewer == "" {
		c.DefaultViewer = d.DefaultViewer
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

func (c *Config) Validate() error {
	if c.Markers.Backend == MarkerBackendPostgres && c.Markers.PostgresURL == "" {
		return errors.New("config: postgres marker backend needs markers.postgres_url")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads the YAML file at path. A missing file is created with the
// defaults so first runs leave an editable config behind.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg atomically with 0600 permissions; it may hold a bot token.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".famcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}
