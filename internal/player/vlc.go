package player

import (
	"fmt"

	"adaptplay/internal/httputil"
	"adaptplay/internal/lifecycle"
	"adaptplay/internal/subtitle"
)

// VLC implements Player for the VLC media player. VLC has no IPC channel
// here, so it never reports state changes, and volume and mute cannot be
// preset from the command line.
type VLC struct {
	opts Options
}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool { return lookPath("vlc") }

// Start launches VLC. VLC only loads local subtitle files, so the best
// matching track is downloaded into a temp dir removed on Dispose.
func (v *VLC) Start(spec lifecycle.EngineSpec) (lifecycle.Engine, error) {
	var subFile string
	var tmp *subtitle.TempDir
	if best := subtitle.BestMatch(spec.Config.Subtitles.Tracks, v.opts.SubsLanguage); best != nil {
		var err error
		tmp, err = subtitle.NewTempDir()
		if err != nil {
			return nil, err
		}
		subFile, err = tmp.Download(httputil.NewClient(), *best)
		if err != nil {
			v.opts.Logger.Warn().Err(err).Str("track", best.Label).Msg("subtitle download failed, continuing without")
			subFile = ""
		}
	}

	args, err := vlcArgs(spec, subFile)
	if err != nil {
		if tmp != nil {
			tmp.Cleanup()
		}
		return nil, err
	}

	p, err := startProcess("vlc", args, v.opts.Logger)
	if err != nil {
		if tmp != nil {
			tmp.Cleanup()
		}
		return nil, err
	}
	if tmp != nil {
		p.cleanup = append(p.cleanup, tmp.Cleanup)
	}
	return p, nil
}

func vlcArgs(spec lifecycle.EngineSpec, subFile string) ([]string, error) {
	src, err := primarySource(spec.Config)
	if err != nil {
		return nil, err
	}
	cfg := spec.Config

	args := []string{
		src,
		"--meta-title", title(spec),
		"--play-and-exit",
		fmt.Sprintf("--rate=%g", spec.Initial.PlaybackRate),
	}
	if !cfg.Autoplay {
		args = append(args, "--start-paused")
	}
	if spec.Initial.TheaterMode && cfg.ControlBar.TheaterMode {
		args = append(args, "--fullscreen")
	}
	if cfg.ABR.Bandwidth > 0 {
		// --adaptive-bw is in KiB/s
		args = append(args, "--adaptive-logic=fixedrate",
			fmt.Sprintf("--adaptive-bw=%d", max(cfg.ABR.Bandwidth/8/1024, 1)))
	} else if cfg.ABR.StartAtLowestRendition {
		args = append(args, "--adaptive-logic=predictive")
	}
	if subFile != "" {
		args = append(args, "--sub-file", subFile)
	}
	return args, nil
}
