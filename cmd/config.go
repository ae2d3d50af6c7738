package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"adaptplay/internal/httputil"
	"adaptplay/internal/lifecycle"
	"adaptplay/internal/log"
	"adaptplay/internal/media"
	"adaptplay/internal/page"
	"adaptplay/internal/playback"
	"adaptplay/internal/prefs"
	"adaptplay/internal/source"
)

var configCmd = &cobra.Command{
	Use:   "config <url>",
	Short: "Print the player configuration for a media page as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  configRun,
}

// dryEngine stands in for a player so the configuration can be inspected
// without launching one.
type dryEngine struct{}

func (dryEngine) Dispose() error { return nil }

type configReport struct {
	Config  playback.Config `json:"config"`
	Initial prefs.Initial   `json:"initial"`
	Info    media.Info      `json:"info"`
	Speeds  []float64       `json:"playbackRates"`
}

func configRun(cmd *cobra.Command, args []string) error {
	pg, err := source.Fetch(httputil.NewClient(), args[0])
	if err != nil {
		return fmt.Errorf("fetching %s: %w", args[0], err)
	}

	in := prefs.Input{}
	if cfg.Remember {
		_, in = storedPreferences(log.WithComponent("config"))
	}

	siteURL := cfg.SiteURL
	if siteURL == "" {
		siteURL = pg.SiteURL
	}
	subs := pg.Subtitles
	if flagNoSubs {
		subs = nil
	}

	var spec lifecycle.EngineSpec
	ctrl := lifecycle.New(lifecycle.Params{
		Preferences:        overridePreferences(cmd, in),
		SiteURL:            siteURL,
		Subtitles:          subs,
		InEmbed:            true,
		Sources:            mediaSources(pg.Sources, siteURL),
		Info:               pg.Info,
		Autoplay:           cfg.Autoplay,
		TheaterModeAllowed: cfg.TheaterModeAllowed,
		Poster:             pg.Poster,
		ViewportWidth:      cfg.ViewportWidth,
		Debug:              cfg.Debug,
		ForceTier:          cfg.ForceTier,
	}, lifecycle.Deps{
		Page: page.Static{},
		Engine: func(s lifecycle.EngineSpec) (lifecycle.Engine, error) {
			spec = s
			return dryEngine{}, nil
		},
		Target: &media.Target{Title: pg.Info.Title},
		Logger: log.WithComponent("lifecycle"),
	})
	defer ctrl.Dispose()

	if err := ctrl.Mount(); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(configReport{
		Config:  spec.Config,
		Initial: spec.Initial,
		Info:    spec.Info,
		Speeds:  spec.SpeedSteps,
	})
}
