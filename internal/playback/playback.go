// Package playback builds the immutable configuration handed to a player
// engine. A Config is rebuilt, never patched, whenever an input changes.
package playback

import (
	"adaptplay/internal/bandwidth"
	"adaptplay/internal/device"
	"adaptplay/internal/media"
	"adaptplay/internal/subtitle"
)

// Preload strategies.
const (
	PreloadNone     = "none"
	PreloadMetadata = "metadata"
)

// Adaptive bitrate failover policy.
const (
	MaxPlaylistRetries       = 2
	PlaylistExclusionSeconds = 60
)

// SpeedSteps are the playback rates offered by the engine.
var SpeedSteps = []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}

// Options are the caller-supplied parts of the configuration.
type Options struct {
	Sources            []media.Source
	Poster             string
	Autoplay           bool
	TheaterModeAllowed bool
	HasNext            bool
	HasPrevious        bool
	OverlayLayers      media.OverlayLayers
	PreviewThumbnails  *media.PreviewThumbnails
}

// ControlBar toggles optional control bar buttons.
type ControlBar struct {
	TheaterMode      bool `json:"theaterMode"`
	PictureInPicture bool `json:"pictureInPicture"`
	Next             bool `json:"next"`
	Previous         bool `json:"previous"`
}

// ABROptions is the anti-buffering adaptive bitrate policy.
type ABROptions struct {
	// Bandwidth is the ceiling in bits per second; 0 means no ceiling and is
	// left out of the encoded form.
	Bandwidth                 int64 `json:"bandwidth,omitempty"`
	UseStoredBandwidth        bool  `json:"useBandwidthFromLocalStorage"`
	StartAtLowestRendition    bool  `json:"enableLowInitialPlaylist"`
	LimitByPlayerDimensions   bool  `json:"limitRenditionByPlayerDimensions"`
	UseDevicePixelRatio       bool  `json:"useDevicePixelRatio"`
	AllowPartialSegmentRender bool  `json:"handlePartialData"`
	UseLiveNetworkSignal      bool  `json:"useNetworkInformationApi"`
	MaxPlaylistRetries        int   `json:"maxPlaylistRetries"`
	PlaylistExclusionSeconds  int   `json:"playlistExclusionDuration"`
}

// Config is the engine-facing configuration.
type Config struct {
	TouchControls     bool                     `json:"enabledTouchControls"`
	Sources           []media.Source           `json:"sources"`
	Poster            string                   `json:"poster,omitempty"`
	Autoplay          bool                     `json:"autoplay"`
	Preload           string                   `json:"preload"`
	BigPlayButton     bool                     `json:"bigPlayButton"`
	ControlBar        ControlBar               `json:"controlBar"`
	Subtitles         subtitle.Config          `json:"subtitles"`
	OverlayLayers     media.OverlayLayers      `json:"cornerLayers,omitempty"`
	PreviewThumbnails *media.PreviewThumbnails `json:"videoPreviewThumb,omitempty"`
	ABR               ABROptions               `json:"vhsOptions"`
}

// Build composes the engine configuration. Media data is only preloaded when
// it is about to be played; the live network signal is only used when no
// ceiling is in force.
func Build(opts Options, tier device.Tier, ceiling bandwidth.Ceiling, subs subtitle.Config) Config {
	preload := PreloadNone
	if opts.Autoplay {
		preload = PreloadMetadata
	}

	abr := ABROptions{
		StartAtLowestRendition:    true,
		LimitByPlayerDimensions:   true,
		UseDevicePixelRatio:       true,
		AllowPartialSegmentRender: true,
		UseLiveNetworkSignal:      tier == device.High,
		MaxPlaylistRetries:        MaxPlaylistRetries,
		PlaylistExclusionSeconds:  PlaylistExclusionSeconds,
	}
	if ceiling.Limited() {
		abr.Bandwidth = int64(ceiling)
	}

	return Config{
		TouchControls: true,
		Sources:       append([]media.Source(nil), opts.Sources...),
		Poster:        opts.Poster,
		Autoplay:      opts.Autoplay,
		Preload:       preload,
		BigPlayButton: true,
		ControlBar: ControlBar{
			TheaterMode: opts.TheaterModeAllowed,
			Next:        opts.HasNext,
			Previous:    opts.HasPrevious,
		},
		Subtitles:         cloneSubtitles(subs),
		OverlayLayers:     cloneLayers(opts.OverlayLayers),
		PreviewThumbnails: clonePreview(opts.PreviewThumbnails),
		ABR:               abr,
	}
}

func cloneSubtitles(c subtitle.Config) subtitle.Config {
	c.Tracks = append([]subtitle.Track(nil), c.Tracks...)
	return c
}

func cloneLayers(l media.OverlayLayers) media.OverlayLayers {
	if l == nil {
		return nil
	}
	out := make(media.OverlayLayers, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

func clonePreview(p *media.PreviewThumbnails) *media.PreviewThumbnails {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
