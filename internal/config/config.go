// Package config handles TOML-based configuration loading and validation.
// TOML is parsed as data only; no code execution is possible.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"adaptplay/internal/device"
)

// Config holds all application configuration.
type Config struct {
	SiteURL            string `toml:"site_url"`
	Player             string `toml:"player"`
	ForceTier          string `toml:"force_tier"`
	ViewportWidth      int    `toml:"viewport_width"`
	Autoplay           bool   `toml:"autoplay"`
	TheaterModeAllowed bool   `toml:"theater_mode_allowed"`
	SubsLanguage       string `toml:"subs_language"`
	Embed              bool   `toml:"embed"`
	Remember           bool   `toml:"remember"`
	Debug              bool   `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Player:             "mpv",
		Autoplay:           true,
		TheaterModeAllowed: true,
		SubsLanguage:       "english",
		Remember:           true,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "adaptplay"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "adaptplay"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if c.ForceTier != "" {
		if _, err := device.ParseTier(c.ForceTier); err != nil {
			return err
		}
	}

	if c.ViewportWidth < 0 {
		return fmt.Errorf("viewport width cannot be negative")
	}

	if c.SiteURL != "" {
		u, err := url.Parse(c.SiteURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("site URL %q must be an absolute http(s) URL", c.SiteURL)
		}
	}

	return nil
}

// PreferencesPath returns the path to the persisted playback preferences.
func PreferencesPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "adaptplay", "prefs.toml"), nil
}
