// Package player implements engines on top of external media player
// binaries. All invocations use exec.Command with explicit argument slices;
// nothing is passed through a shell.
package player

import (
	"errors"
	"fmt"
	"math"
	"os/exec"

	"github.com/rs/zerolog"

	"adaptplay/internal/lifecycle"
	"adaptplay/internal/playback"
)

// ErrNoSource is returned when a configuration carries no playable source.
var ErrNoSource = errors.New("no playable source")

// Player launches engines for one player binary.
type Player interface {
	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool

	// Start launches the player and returns the live engine.
	Start(spec lifecycle.EngineSpec) (lifecycle.Engine, error)
}

// Options tune all players.
type Options struct {
	SubsLanguage string // preferred subtitle language, code or label
	Logger       zerolog.Logger
}

// New creates a player by name, defaulting to mpv.
func New(name string, opts Options) Player {
	switch name {
	case "vlc":
		return &VLC{opts: opts}
	case "iina", "celluloid":
		return &Generic{name: name, opts: opts}
	default:
		return &MPV{opts: opts}
	}
}

func lookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// primarySource returns the first source URL of cfg.
func primarySource(cfg playback.Config) (string, error) {
	for _, s := range cfg.Sources {
		if s.Src != "" {
			return s.Src, nil
		}
	}
	return "", ErrNoSource
}

func title(spec lifecycle.EngineSpec) string {
	if spec.Info.Title != "" {
		return spec.Info.Title
	}
	if spec.Target != nil && spec.Target.Title != "" {
		return spec.Target.Title
	}
	return "adaptplay"
}

// percent converts a [0,1] volume into the 0-100 scale of the players.
func percent(v float64) int {
	return int(math.Round(max(min(v, 1), 0) * 100))
}

func startErr(name string, err error) error {
	return fmt.Errorf("starting %s: %w", name, err)
}
