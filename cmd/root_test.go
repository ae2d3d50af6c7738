package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptplay/internal/media"
	"adaptplay/internal/prefs"
)

func TestOverridePreferences(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{"--volume=0.25", "--theater"}))

	stored := true
	in := overridePreferences(rootCmd, prefs.Input{Muted: &stored})

	require.NotNil(t, in.Volume)
	assert.Equal(t, 0.25, *in.Volume)
	require.NotNil(t, in.TheaterMode)
	assert.True(t, *in.TheaterMode)
	assert.True(t, *in.Muted, "stored value kept when the flag is absent")
	assert.Nil(t, in.Quality)
	assert.Nil(t, in.PlaybackRate)
}

func TestVersionAndTier(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "adaptplay dev\n", out.String())

	out.Reset()
	rootCmd.SetArgs([]string{"tier", "--tier=low", "--json"})
	require.NoError(t, rootCmd.Execute())

	var r struct {
		Tier      string `json:"tier"`
		Forced    bool   `json:"forced"`
		Bandwidth string `json:"bandwidth"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.Equal(t, "low", r.Tier)
	assert.True(t, r.Forced)
	assert.Equal(t, "1000000bps", r.Bandwidth)
}

func TestMediaSources(t *testing.T) {
	in := []media.Source{{Src: "https://cdn.example.com/a.m3u8", Type: "application/x-mpegURL"}}

	flagPassword = ""
	assert.Equal(t, in, mediaSources(in, "https://media.example.com"))

	flagPassword = "s3cret"
	defer func() { flagPassword = "" }()
	got := mediaSources(in, "https://media.example.com")
	assert.Equal(t, "https://cdn.example.com/a.m3u8?password=s3cret", got[0].Src)
	assert.Equal(t, "https://cdn.example.com/a.m3u8", in[0].Src, "input left untouched")
}

func TestStoredPreferencesMalformed(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "adaptplay"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adaptplay", "prefs.toml"), []byte("volume = [\n"), 0600))

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	st, in := storedPreferences(logger)
	require.NotNil(t, st, "the store is still usable for saving")
	assert.Equal(t, prefs.Input{}, in)
	assert.Contains(t, buf.String(), "ignoring stored preferences")
}

func TestStoredPreferencesLoads(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "adaptplay"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adaptplay", "prefs.toml"), []byte("muted = true\n"), 0600))

	var buf bytes.Buffer
	_, in := storedPreferences(zerolog.New(&buf))
	require.NotNil(t, in.Muted)
	assert.True(t, *in.Muted)
	assert.Empty(t, buf.String())
}
