package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"adaptplay/internal/httputil"
	"adaptplay/internal/lifecycle"
	"adaptplay/internal/log"
	"adaptplay/internal/media"
	"adaptplay/internal/page"
	"adaptplay/internal/player"
	"adaptplay/internal/prefs"
	"adaptplay/internal/source"
	"adaptplay/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play <url>...",
	Short: "Play media pages in order",
	Long: `Play each media page in turn. Next and previous in the player move
between the given pages; each page gets a fresh player.`,
	Args: cobra.MinimumNArgs(1),
	RunE: playRun,
}

// navigation is what happens after an item finishes.
type navigation int

const (
	navStop navigation = iota
	navNext
	navPrevious
)

// session carries state across the items of one play invocation.
type session struct {
	client *http.Client
	player player.Player
	page   lifecycle.Page
	store  *store.Store
	prefs  prefs.Input
	logger zerolog.Logger
}

func playRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.WithComponent("play")

	pl := player.New(cfg.Player, player.Options{
		SubsLanguage: cfg.SubsLanguage,
		Logger:       log.WithComponent("player"),
	})
	if !pl.Available() {
		return fmt.Errorf("player %q not found in PATH", cfg.Player)
	}

	s := &session{
		client: httputil.NewClient(),
		player: pl,
		page:   page.NewTerminal(),
		logger: logger,
	}
	if cfg.Embed {
		s.page = page.Static{}
	}

	if cfg.Remember {
		s.store, s.prefs = storedPreferences(logger)
	}
	s.prefs = overridePreferences(cmd, s.prefs)

	dir := navNext
	for i := 0; i >= 0 && i < len(args); {
		nav, err := s.playItem(ctx, args, i, dir)
		if err != nil {
			return err
		}
		dir = nav
		switch nav {
		case navNext:
			i++
		case navPrevious:
			i--
		default:
			return nil
		}
	}
	return nil
}

// playItem plays args[i] with a fresh controller and reports where to go next.
// dir is the direction args[i] was reached from; an unplayable page is
// skipped in that direction.
func (s *session) playItem(ctx context.Context, args []string, i int, dir navigation) (navigation, error) {
	url := args[i]
	pg, err := source.Fetch(s.client, url)
	if err != nil {
		return navStop, fmt.Errorf("fetching %s: %w", url, err)
	}

	siteURL := cfg.SiteURL
	if siteURL == "" {
		siteURL = pg.SiteURL
	}
	subs := pg.Subtitles
	if flagNoSubs {
		subs = nil
	}

	var errMsg string
	if !pg.Playable() {
		errMsg = "no playable source on page"
	}

	nav := make(chan navigation, 1)
	send := func(n navigation) func() {
		return func() {
			select {
			case nav <- n:
			default:
			}
		}
	}
	engines := make(chan lifecycle.Engine, 1)

	var sink prefs.Sink
	if s.store != nil {
		sink = s.store
	}

	ctrl := lifecycle.New(lifecycle.Params{
		Preferences:        s.prefs,
		SiteURL:            siteURL,
		ErrorMessage:       errMsg,
		Subtitles:          subs,
		InEmbed:            cfg.Embed,
		Sources:            mediaSources(pg.Sources, siteURL),
		Info:               pg.Info,
		Autoplay:           cfg.Autoplay,
		TheaterModeAllowed: cfg.TheaterModeAllowed,
		HasNext:            i < len(args)-1,
		HasPrevious:        i > 0,
		Poster:             pg.Poster,
		ViewportWidth:      cfg.ViewportWidth,
		OnClickNext:        send(navNext),
		OnClickPrevious:    send(navPrevious),
		OnPlayerInit:       func(e lifecycle.Engine, _ *media.Target) { engines <- e },
		Debug:              cfg.Debug,
		ForceTier:          cfg.ForceTier,
	}, lifecycle.Deps{
		Page:   s.page,
		Engine: s.player.Start,
		Target: &media.Target{Title: pg.Info.Title, WindowID: flagWID},
		Sink:   sink,
		Logger: log.WithComponent("lifecycle"),
	})
	defer func() {
		s.prefs = ctrl.Preferences().Input()
		if err := ctrl.Dispose(); err != nil {
			s.logger.Debug().Err(err).Msg("dispose")
		}
	}()

	logger := s.logger.With().Str("url", url).Str("controller", ctrl.ID()[:8]).Logger()

	if errMsg != "" {
		logger.Warn().Msg(errMsg)
		return dir, nil
	}

	if err := ctrl.Mount(); err != nil {
		return navStop, fmt.Errorf("starting player: %w", err)
	}
	if ctrl.State() == lifecycle.PendingActivation {
		logger.Info().Msg("waiting for the terminal to come to the foreground")
	}

	select {
	case <-ctrl.Activated():
	case <-ctx.Done():
		return navStop, nil
	}
	if err := ctrl.Err(); err != nil {
		return navStop, fmt.Errorf("starting player: %w", err)
	}

	var done <-chan struct{}
	select {
	case e := <-engines:
		if d, ok := e.(interface{ Done() <-chan struct{} }); ok {
			done = d.Done()
		}
	default:
		return navStop, fmt.Errorf("starting player: no engine")
	}

	logger.Info().Str("title", pg.Info.Title).Msg("playing")

	select {
	case n := <-nav:
		return n, nil
	case <-done:
		// The player quit on its own; continue with the next page.
		return navNext, nil
	case <-ctx.Done():
		return navStop, nil
	}
}
