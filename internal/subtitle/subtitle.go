// Package subtitle turns raw subtitle descriptors into renderer-ready tracks
// and manages secure temp files for engines that need local copies.
package subtitle

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"adaptplay/internal/httputil"
	"adaptplay/internal/media"
)

// Track is a validated subtitle track with an absolute source URL.
type Track struct {
	Src     string `json:"src"`
	SrcLang string `json:"srclang"`
	Label   string `json:"label"`
}

// Config is the subtitle section of the engine configuration.
type Config struct {
	Enabled bool    `json:"on"`
	Tracks  []Track `json:"languages,omitempty"`
}

// Normalize drops descriptors missing a source, language or label, resolves
// the remaining sources against siteURL and keeps their order. Incomplete
// descriptors are treated as absent, never as an error.
func Normalize(raw []media.SubtitleInfo, siteURL string) Config {
	var cfg Config
	for _, r := range raw {
		if r.Src == "" || r.SrcLang == "" || r.Label == "" {
			continue
		}
		cfg.Tracks = append(cfg.Tracks, Track{
			Src:     httputil.ResolveLink(r.Src, siteURL),
			SrcLang: r.SrcLang,
			Label:   r.Label,
		})
	}
	cfg.Enabled = len(cfg.Tracks) > 0
	return cfg
}

// BestMatch returns the best track for the given language, matched against
// the language code and the label (case-insensitive). Non-SDH label matches
// win, then the first match. Returns nil when nothing matches.
func BestMatch(tracks []Track, language string) *Track {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		if len(tracks) == 0 {
			return nil
		}
		return &tracks[0]
	}

	var matched []Track
	for _, t := range tracks {
		if strings.ToLower(t.SrcLang) == lang ||
			strings.Contains(strings.ToLower(t.Label), lang) {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	for _, t := range matched {
		if !strings.Contains(strings.ToLower(t.Label), "sdh") {
			return &t
		}
	}
	return &matched[0]
}

// TempDir manages a secure temporary directory for subtitle files.
type TempDir struct {
	path string
}

// NewTempDir creates a randomized temporary directory for subtitle files.
func NewTempDir() (*TempDir, error) {
	dir, err := os.MkdirTemp("", "adaptplay-subs-*")
	if err != nil {
		return nil, fmt.Errorf("creating subtitle temp dir: %w", err)
	}
	return &TempDir{path: dir}, nil
}

// Cleanup removes the temporary directory and all contents.
func (t *TempDir) Cleanup() {
	if t.path != "" {
		os.RemoveAll(t.path)
	}
}

// Download fetches a track into the temp directory and returns the local path.
func (t *TempDir) Download(client *http.Client, track Track) (string, error) {
	if err := httputil.ValidateURL(track.Src); err != nil {
		return "", fmt.Errorf("invalid subtitle URL: %w", err)
	}

	name := track.SrcLang + "-" + httputil.FilenameFromURL(track.Src, "subtitle.vtt")
	localPath := filepath.Join(t.path, httputil.SanitizeFilename(name))

	resp, err := httputil.Get(client, track.Src)
	if err != nil {
		return "", fmt.Errorf("downloading subtitle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("subtitle download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("creating subtitle file: %w", err)
	}
	defer f.Close()

	// 10MB cap
	if _, err := io.Copy(f, io.LimitReader(resp.Body, 10*1024*1024)); err != nil {
		return "", fmt.Errorf("writing subtitle file: %w", err)
	}

	return localPath, nil
}
