// Package media defines shared types for the adaptplay application.
package media

// Source is one playable rendition list entry (an HLS master playlist or a
// progressive file).
type Source struct {
	Src  string `json:"src"`
	Type string `json:"type,omitempty"` // e.g. "application/x-mpegURL", "video/mp4"
}

// SubtitleInfo is a raw subtitle descriptor as supplied by the caller or
// scraped from a media page. Any field may be empty.
type SubtitleInfo struct {
	Src     string `json:"src,omitempty"`
	SrcLang string `json:"srclang,omitempty"`
	Label   string `json:"label,omitempty"`
}

// Info describes the media item being played.
type Info struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"` // Page the media was resolved from
}

// OverlayLayers are corner overlays drawn by the engine on top of the video,
// keyed by position (e.g. "topLeft").
type OverlayLayers map[string]string

// PreviewThumbnails points at a sprite sheet used for seek-bar previews.
type PreviewThumbnails struct {
	URL       string  `json:"url"`
	Frame     Frame   `json:"frame"`
	FrameSecs float64 `json:"seconds"` // Seconds of media per sprite frame
}

// Frame is the pixel size of one sprite frame.
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Target is the surface the engine renders into. A nil *Target means the
// host has nothing to render into yet.
type Target struct {
	Title    string // Window title
	WindowID string // Embed into an existing window (mpv --wid); empty for a new window
}
