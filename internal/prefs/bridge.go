package prefs

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ReportedState is the live state reported by the engine.
type ReportedState struct {
	Volume       float64 `json:"volume"`
	Muted        bool    `json:"soundMuted"`
	Quality      string  `json:"quality"`
	PlaybackRate float64 `json:"playbackSpeed"`
	TheaterMode  bool    `json:"theaterMode"`
}

// Field names a preference.
type Field uint8

const (
	FieldVolume Field = 1 << iota
	FieldMuted
	FieldQuality
	FieldPlaybackRate
	FieldTheaterMode
)

var fieldNames = []struct {
	f    Field
	name string
}{
	{FieldVolume, "volume"},
	{FieldMuted, "muted"},
	{FieldQuality, "quality"},
	{FieldPlaybackRate, "playback_rate"},
	{FieldTheaterMode, "theater_mode"},
}

// Changes is a set of fields.
type Changes Field

// Has reports whether f is in the set.
func (c Changes) Has(f Field) bool { return Field(c)&f != 0 }

// Empty reports whether the set is empty.
func (c Changes) Empty() bool { return c == 0 }

// Names returns the field names in a fixed order.
func (c Changes) Names() []string {
	var names []string
	for _, fn := range fieldNames {
		if c.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	return names
}

func (c Changes) String() string { return strings.Join(c.Names(), ",") }

// Apply folds a reported state into p. Only fields whose reported value
// differs are updated and recorded. The reported volume is clamped to [0,1]
// first.
func Apply(p Preferences, s ReportedState) (Preferences, Changes) {
	var c Field
	if v := clamp(s.Volume); p.Volume != v {
		p.Volume = v
		c |= FieldVolume
	}
	if p.Muted != s.Muted {
		p.Muted = s.Muted
		c |= FieldMuted
	}
	if p.Quality != s.Quality {
		p.Quality = s.Quality
		c |= FieldQuality
	}
	if p.PlaybackRate != s.PlaybackRate {
		p.PlaybackRate = s.PlaybackRate
		c |= FieldPlaybackRate
	}
	if p.TheaterMode != s.TheaterMode {
		p.TheaterMode = s.TheaterMode
		c |= FieldTheaterMode
	}
	return p, Changes(c)
}

// Sink receives preferences after an engine update changed them.
type Sink interface {
	Put(p Preferences, changed Changes) error
}

// Bridge is the single writer of a Preferences value. It only flows engine
// state into preferences; it never pushes preferences into the engine.
type Bridge struct {
	mu    sync.Mutex
	prefs Preferences

	sink     Sink
	onUpdate func(ReportedState)
	logger   zerolog.Logger
}

// NewBridge creates a bridge owning p. sink and onUpdate may be nil.
func NewBridge(p Preferences, sink Sink, onUpdate func(ReportedState), logger zerolog.Logger) *Bridge {
	return &Bridge{prefs: p, sink: sink, onUpdate: onUpdate, logger: logger}
}

// Preferences returns the current preferences.
func (b *Bridge) Preferences() Preferences {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.prefs
}

// Update applies an engine report and returns the changed fields. The
// update callback is invoked exactly once with the full reported state.
func (b *Bridge) Update(s ReportedState) Changes {
	b.mu.Lock()
	updated, changed := Apply(b.prefs, s)
	b.prefs = updated
	b.mu.Unlock()

	if !changed.Empty() {
		b.logger.Debug().Stringer("changed", changed).Msg("preferences updated from engine")
		if b.sink != nil {
			if err := b.sink.Put(updated, changed); err != nil {
				b.logger.Warn().Err(err).Msg("persisting preferences failed")
			}
		}
	}

	if b.onUpdate != nil {
		b.onUpdate(s)
	}
	return changed
}
