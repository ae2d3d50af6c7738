// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"adaptplay/internal/config"
	"adaptplay/internal/httputil"
	"adaptplay/internal/log"
	"adaptplay/internal/media"
	"adaptplay/internal/prefs"
	"adaptplay/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagSiteURL  string
	flagPlayer   string
	flagTier     string
	flagViewport int
	flagLanguage string
	flagNoSubs   bool
	flagPaused   bool
	flagEmbed    bool
	flagForget   bool
	flagWID      string
	flagPassword string
	flagDebug    bool
)

// Preference overrides; only applied when the flag was given.
var (
	flagVolume  float64
	flagMute    bool
	flagQuality string
	flagSpeed   float64
	flagTheater bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "adaptplay [url...]",
	Short: "Adaptive playback of web media in an external player",
	Long: `adaptplay reads the <video> element of a media page, sizes adaptive
bitrate selection to this machine and hands the stream to mpv or vlc.
Playback starts once the terminal is in the foreground.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return playRun(cmd, args)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSiteURL, "site-url", "", "Base URL for relative subtitle links (default: page origin)")
	pf.StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	pf.StringVarP(&flagTier, "tier", "t", "", "Force device tier: low | mid | high")
	pf.IntVar(&flagViewport, "viewport-width", 0, "Viewport width in pixels used for tier detection")
	pf.StringVarP(&flagLanguage, "language", "l", "", "Subtitle language (default: english)")
	pf.BoolVarP(&flagNoSubs, "no-subs", "n", false, "Disable subtitles")
	pf.BoolVar(&flagPaused, "paused", false, "Do not start playback automatically")
	pf.BoolVar(&flagEmbed, "embed", false, "Start immediately without waiting for the foreground")
	pf.BoolVar(&flagForget, "forget", false, "Do not load or save playback preferences")
	pf.StringVar(&flagWID, "wid", "", "Render into an existing window (mpv only)")
	pf.StringVar(&flagPassword, "password", "", "Password for restricted media")
	pf.BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	pf.Float64Var(&flagVolume, "volume", 1, "Initial volume, 0 to 1")
	pf.BoolVar(&flagMute, "mute", false, "Start muted")
	pf.StringVarP(&flagQuality, "quality", "q", "", "Preferred quality label, e.g. 720p")
	pf.Float64Var(&flagSpeed, "speed", 1, "Initial playback rate")
	pf.BoolVar(&flagTheater, "theater", false, "Start in theater (fullscreen) mode")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(tierCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagSiteURL != "" {
		cfg.SiteURL = flagSiteURL
	}
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagTier != "" {
		cfg.ForceTier = flagTier
	}
	if flagViewport > 0 {
		cfg.ViewportWidth = flagViewport
	}
	if flagLanguage != "" {
		cfg.SubsLanguage = flagLanguage
	}
	if flagPaused {
		cfg.Autoplay = false
	}
	if flagEmbed {
		cfg.Embed = true
	}
	if flagForget {
		cfg.Remember = false
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Configure(log.Config{Debug: cfg.Debug})
	return nil
}

// overridePreferences applies the preference flags that were set on the
// command line on top of in.
func overridePreferences(cmd *cobra.Command, in prefs.Input) prefs.Input {
	flags := cmd.Flags()
	if flags.Changed("volume") {
		in.Volume = &flagVolume
	}
	if flags.Changed("mute") {
		in.Muted = &flagMute
	}
	if flags.Changed("quality") {
		in.Quality = &flagQuality
	}
	if flags.Changed("speed") {
		in.PlaybackRate = &flagSpeed
	}
	if flags.Changed("theater") {
		in.TheaterMode = &flagTheater
	}
	return in
}

// storedPreferences opens the preference store and loads it. Failures are
// logged and yield empty preferences; a nil store means nothing is saved.
func storedPreferences(logger zerolog.Logger) (*store.Store, prefs.Input) {
	st, err := store.Open()
	if err != nil {
		logger.Warn().Err(err).Msg("preferences will not be saved")
		return nil, prefs.Input{}
	}
	in, err := st.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring stored preferences")
		return st, prefs.Input{}
	}
	return st, in
}

// mediaSources resolves the page sources for playback, adding the password
// for restricted media.
func mediaSources(sources []media.Source, siteURL string) []media.Source {
	out := make([]media.Source, len(sources))
	for i, src := range sources {
		src.Src = httputil.FormatMediaLink(src.Src, siteURL, flagPassword)
		out[i] = src
	}
	return out
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "adaptplay %s\n", Version)
	},
}
