// Package prefs holds the externally owned playback preferences and the
// bridge that folds engine-reported state back into them.
package prefs

import "strings"

// DefaultQuality lets the engine pick a rendition by source order.
const DefaultQuality = "Auto"

// Input carries caller-supplied preferences. Nil fields are unset.
type Input struct {
	Volume       *float64
	Muted        *bool
	Quality      *string
	PlaybackRate *float64
	TheaterMode  *bool
}

// Preferences are the playback preferences the host keeps between items.
// PlaybackRate 0 means no override has been chosen or reported yet.
type Preferences struct {
	Volume       float64 `toml:"volume"`
	Muted        bool    `toml:"muted"`
	Quality      string  `toml:"quality"`
	PlaybackRate float64 `toml:"playback_rate"`
	TheaterMode  bool    `toml:"theater_mode"`
}

// Normalize applies defaults to unset fields and clamps the volume to [0,1].
func Normalize(in Input) Preferences {
	p := Preferences{Volume: 1, Quality: DefaultQuality}
	if in.Volume != nil {
		p.Volume = clamp(*in.Volume)
	}
	if in.Muted != nil {
		p.Muted = *in.Muted
	}
	if in.Quality != nil && strings.TrimSpace(*in.Quality) != "" {
		p.Quality = *in.Quality
	}
	if in.PlaybackRate != nil && *in.PlaybackRate > 0 {
		p.PlaybackRate = *in.PlaybackRate
	}
	if in.TheaterMode != nil {
		p.TheaterMode = *in.TheaterMode
	}
	return p
}

func clamp(v float64) float64 {
	if v != v { // NaN
		return 1
	}
	return max(min(v, 1), 0)
}

// Input returns p as caller input, so preferences can be carried to the
// next item. A zero playback rate stays unset.
func (p Preferences) Input() Input {
	in := Input{
		Volume:      &p.Volume,
		Muted:       &p.Muted,
		Quality:     &p.Quality,
		TheaterMode: &p.TheaterMode,
	}
	if p.PlaybackRate > 0 {
		in.PlaybackRate = &p.PlaybackRate
	}
	return in
}

// Initial is the snapshot the engine starts from.
type Initial struct {
	Volume       float64 `json:"volume"`
	Muted        bool    `json:"muted"`
	TheaterMode  bool    `json:"theaterMode"`
	Quality      string  `json:"quality,omitempty"` // Empty selects automatically by source order
	PlaybackRate float64 `json:"playbackRate"`
}

// Initial returns the engine start snapshot for p. The stored quality is not
// forced on a new item; a missing rate override starts at normal speed.
func (p Preferences) Initial() Initial {
	rate := p.PlaybackRate
	if rate <= 0 {
		rate = 1
	}
	return Initial{
		Volume:       p.Volume,
		Muted:        p.Muted,
		TheaterMode:  p.TheaterMode,
		PlaybackRate: rate,
	}
}
