package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mpv", cfg.Player)
	assert.True(t, cfg.Autoplay)
	assert.True(t, cfg.Remember)
	assert.Empty(t, cfg.ForceTier)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid player", func(c *Config) { c.Player = "notepad" }, true},
		{"valid vlc", func(c *Config) { c.Player = "vlc" }, false},
		{"valid forced tier", func(c *Config) { c.ForceTier = "high" }, false},
		{"invalid forced tier", func(c *Config) { c.ForceTier = "ultra" }, true},
		{"negative viewport", func(c *Config) { c.ViewportWidth = -1 }, true},
		{"valid site", func(c *Config) { c.SiteURL = "https://media.example.com" }, false},
		{"relative site", func(c *Config) { c.SiteURL = "media.example.com" }, true},
		{"ftp site", func(c *Config) { c.SiteURL = "ftp://media.example.com" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "adaptplay")
	require.NoError(t, os.MkdirAll(dir, 0755))

	content := `
site_url = "https://media.example.com"
player = "vlc"
force_tier = "low"
viewport_width = 1366
autoplay = false
remember = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://media.example.com", cfg.SiteURL)
	assert.Equal(t, "vlc", cfg.Player)
	assert.Equal(t, "low", cfg.ForceTier)
	assert.Equal(t, 1366, cfg.ViewportWidth)
	assert.False(t, cfg.Autoplay)
	assert.False(t, cfg.Remember)
	assert.True(t, cfg.TheaterModeAllowed, "unset keys keep defaults")
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	dir := filepath.Join(tmpDir, "adaptplay")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`force_tier = "ultra"`), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mpv", cfg.Player)
}

func TestPreferencesPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	path, err := PreferencesPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "adaptplay", "prefs.toml"), path)
}
