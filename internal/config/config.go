// Package config handles TOML-based configuration loading and validation.
// Values are layered: defaults, then the config file, then SNAG_*
// environment variables. CLI flags are applied on top by the cmd package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"

	"snag/internal/media"
)

const appName = "snag"

// Config holds all application configuration.
type Config struct {
	Quality      string   `toml:"quality" env:"QUALITY"`
	Kind         string   `toml:"kind" env:"KIND"`
	CookiesDir   string   `toml:"cookies_dir" env:"COOKIES_DIR"`
	AuthGated    []string `toml:"auth_gated" env:"AUTH_GATED" envSeparator:","`
	YTDLPPath    string   `toml:"ytdlp_path" env:"YTDLP_PATH"`
	VxTwitterAPI string   `toml:"vxtwitter_api" env:"VXTWITTER_API"`
	Timeouts     Timeouts `toml:"timeouts" envPrefix:"TIMEOUT_"`
	Listen       string   `toml:"listen" env:"LISTEN"`
	RateLimit    int      `toml:"rate_limit" env:"RATE_LIMIT"`
	History      bool     `toml:"history" env:"HISTORY"`
	LogLevel     string   `toml:"log_level" env:"LOG_LEVEL"`
	Debug        bool     `toml:"debug" env:"DEBUG"`
}

// Timeouts bound upstream calls per extractor class.
type Timeouts struct {
	// Metadata covers single API or page fetches.
	Metadata time.Duration `toml:"metadata" env:"METADATA"`
	// Tool covers external extraction processes.
	Tool time.Duration `toml:"tool" env:"TOOL"`
	// Merge covers follow-up calls that negotiate a muxed stream.
	Merge time.Duration `toml:"merge" env:"MERGE"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Quality:    "hd",
		Kind:       "auto",
		CookiesDir: "~/.config/snag/cookies",
		AuthGated:  []string{"instagram", "facebook"},
		YTDLPPath:  "yt-dlp",
		Timeouts: Timeouts{
			Metadata: 30 * time.Second,
			Tool:     90 * time.Second,
			Merge:    120 * time.Second,
		},
		Listen:    "127.0.0.1:8080",
		RateLimit: 30,
		History:   true,
		LogLevel:  "info",
		Debug:     false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and environment and merges them with defaults.
// A missing config file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := ConfigPath(); err == nil {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "SNAG_"}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if _, err := media.ParseTier(c.Quality); err != nil {
		return err
	}
	if _, err := media.ParseKindHint(c.Kind); err != nil {
		return err
	}
	for _, p := range c.AuthGated {
		if _, err := media.ParsePlatform(p); err != nil {
			return fmt.Errorf("auth_gated: %w", err)
		}
	}

	if c.Timeouts.Metadata <= 0 || c.Timeouts.Tool <= 0 || c.Timeouts.Merge <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("unsupported log_level %q (valid: trace, debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// ExpandCookiesDir resolves ~ in the cookies directory path.
func (c *Config) ExpandCookiesDir() (string, error) {
	dir := c.CookiesDir
	if dir == "" {
		return "", nil
	}
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// HistoryPath returns the path to the history database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName, "history.db"), nil
}
