// Package store persists playback preferences between sessions as TOML.
// Writes are atomic (temp+rename) so a crash never leaves a partial file.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/renameio/v2"

	"adaptplay/internal/config"
	"adaptplay/internal/prefs"
)

// record is the on-disk layout. Keys missing from the file stay unset.
type record struct {
	Volume       *float64 `toml:"volume,omitempty"`
	Muted        *bool    `toml:"muted,omitempty"`
	Quality      *string  `toml:"quality,omitempty"`
	PlaybackRate *float64 `toml:"playback_rate,omitempty"`
	TheaterMode  *bool    `toml:"theater_mode,omitempty"`
}

// newRecord converts p for writing. A zero playback rate means no override
// and is left out of the file.
func newRecord(p prefs.Preferences) record {
	rec := record{
		Volume:      &p.Volume,
		Muted:       &p.Muted,
		Quality:     &p.Quality,
		TheaterMode: &p.TheaterMode,
	}
	if p.PlaybackRate > 0 {
		rec.PlaybackRate = &p.PlaybackRate
	}
	return rec
}

// Store reads and writes one preferences file.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns a store for the default preferences path.
func Open() (*Store, error) {
	path, err := config.PreferencesPath()
	if err != nil {
		return nil, err
	}
	return New(path), nil
}

// New returns a store backed by path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file the store writes to.
func (s *Store) Path() string { return s.path }

// Load reads the stored preferences. A missing file yields an empty Input.
func (s *Store) Load() (prefs.Input, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs.Input{}, nil
		}
		return prefs.Input{}, fmt.Errorf("reading preferences: %w", err)
	}

	var rec record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return prefs.Input{}, fmt.Errorf("parsing preferences %s: %w", s.path, err)
	}
	if rec.PlaybackRate != nil && *rec.PlaybackRate <= 0 {
		rec.PlaybackRate = nil
	}
	return prefs.Input{
		Volume:       rec.Volume,
		Muted:        rec.Muted,
		Quality:      rec.Quality,
		PlaybackRate: rec.PlaybackRate,
		TheaterMode:  rec.TheaterMode,
	}, nil
}

// Put writes p, replacing the previous file. It implements prefs.Sink.
func (s *Store) Put(p prefs.Preferences, changed prefs.Changes) error {
	if changed.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating preferences dir: %w", err)
	}

	data, err := toml.Marshal(newRecord(p))
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}

// Clear removes the stored preferences.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing preferences: %w", err)
	}
	return nil
}
