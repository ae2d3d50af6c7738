// Package lifecycle decides when a player engine is created, deferred and
// torn down. The Controller owns the only reference to the live engine.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"adaptplay/internal/bandwidth"
	"adaptplay/internal/device"
	"adaptplay/internal/media"
	"adaptplay/internal/playback"
	"adaptplay/internal/prefs"
	"adaptplay/internal/subtitle"
)

// ErrDisposed is returned when a disposed controller is asked to start again.
var ErrDisposed = errors.New("controller disposed")

// State is the lifecycle state of a Controller.
type State int

const (
	Idle State = iota
	PendingActivation
	Active
	Disposed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingActivation:
		return "pending"
	case Active:
		return "active"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Page reports whether the host is in front of the user and notifies when
// that may have changed. A subscription ends when its context is cancelled;
// fn must never be called after that, and a subscription made with an
// already-cancelled context is a no-op.
type Page interface {
	Focused() bool
	Visible() bool
	OnFocus(ctx context.Context, fn func())
	OnVisibilityChange(ctx context.Context, fn func())
}

// Engine is a live player instance.
type Engine interface {
	Dispose() error
}

// Callbacks are invoked by the engine. They must not call back into the
// Controller synchronously.
type Callbacks struct {
	OnStateChanged func(prefs.ReportedState)
	OnNext         func()
	OnPrevious     func()
}

// EngineSpec is everything an engine is constructed from.
type EngineSpec struct {
	Target     *media.Target
	Config     playback.Config
	Initial    prefs.Initial
	Info       media.Info
	SpeedSteps []float64
	Callbacks  Callbacks
}

// EngineFactory constructs an engine.
type EngineFactory func(spec EngineSpec) (Engine, error)

// Params are the caller-facing construction parameters.
type Params struct {
	Preferences        prefs.Input
	SiteURL            string
	ErrorMessage       string
	OverlayLayers      media.OverlayLayers
	Subtitles          []media.SubtitleInfo
	InEmbed            bool
	Sources            []media.Source
	Info               media.Info
	Autoplay           bool
	TheaterModeAllowed bool
	HasNext            bool
	HasPrevious        bool
	Poster             string
	PreviewThumbnails  *media.PreviewThumbnails
	ViewportWidth      int

	OnClickPrevious func()
	OnClickNext     func()
	OnPlayerInit    func(Engine, *media.Target)
	OnStateUpdate   func(prefs.ReportedState)
	OnUnmount       func()

	Debug     bool
	ForceTier string
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Page    Page
	Engine  EngineFactory
	Target  *media.Target
	Sink    prefs.Sink            // optional; receives preferences changed by the engine
	Signals func() device.Signals // optional; defaults to device.Probe
	Logger  zerolog.Logger
}

// Controller runs Idle → PendingActivation → Active → Disposed for one
// engine instance. Disposed is terminal.
type Controller struct {
	id     string
	params Params
	deps   Deps
	bridge *prefs.Bridge
	logger zerolog.Logger

	mu        sync.Mutex
	state     State
	engine    Engine
	cancel    context.CancelFunc
	err       error
	activated chan struct{}
	resolve   sync.Once
}

// New creates an idle controller.
func New(p Params, deps Deps) *Controller {
	id := uuid.NewString()
	logger := deps.Logger.With().Str("controller", id[:8]).Logger()
	if p.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	}
	if deps.Signals == nil {
		width := p.ViewportWidth
		deps.Signals = func() device.Signals { return device.Probe(width) }
	}

	return &Controller{
		id:        id,
		params:    p,
		deps:      deps,
		bridge:    prefs.NewBridge(prefs.Normalize(p.Preferences), deps.Sink, p.OnStateUpdate, logger),
		logger:    logger,
		activated: make(chan struct{}),
	}
}

// ID identifies the controller in logs.
func (c *Controller) ID() string { return c.id }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Preferences returns the preferences as last reported by the engine.
func (c *Controller) Preferences() prefs.Preferences {
	return c.bridge.Preferences()
}

// Err returns the construction error of a deferred activation, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Activated is closed once the controller stops waiting for the page: after
// an initialization attempt, including its OnPlayerInit call, or on disposal.
func (c *Controller) Activated() <-chan struct{} {
	return c.activated
}

// Mount initializes immediately when embedded or when the page is already
// focused or visible, and otherwise waits for the first focus or visibility
// notification. A controller with an error message never initializes.
func (c *Controller) Mount() error {
	c.mu.Lock()
	switch {
	case c.state == Disposed:
		c.mu.Unlock()
		return ErrDisposed
	case c.state != Idle:
		c.mu.Unlock()
		return nil
	case c.params.ErrorMessage != "":
		c.mu.Unlock()
		c.logger.Debug().Str("error", c.params.ErrorMessage).Msg("error state set, not initializing")
		return nil
	}

	page := c.deps.Page
	if c.params.InEmbed || page == nil || page.Focused() || page.Visible() {
		c.mu.Unlock()
		return c.Init()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = PendingActivation
	c.mu.Unlock()

	c.logger.Debug().Msg("page not in front, deferring activation")
	fire := func() { c.activate(ctx) }
	page.OnFocus(ctx, fire)
	page.OnVisibilityChange(ctx, fire)
	return nil
}

// activate resolves a pending activation. Only the first call for ctx does
// anything.
func (c *Controller) activate(ctx context.Context) {
	c.mu.Lock()
	if c.state != PendingActivation || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.cancelPendingLocked()
	eng, err := c.initLocked()
	c.err = err
	c.mu.Unlock()

	if err != nil {
		c.logger.Error().Err(err).Msg("deferred activation failed")
	}
	c.afterInit(eng)
}

// Init constructs the engine. It is a no-op when an engine already exists,
// when an error message is set or when there is no render target. A
// construction failure is returned as is and never retried.
func (c *Controller) Init() error {
	c.mu.Lock()
	eng, err := c.initLocked()
	c.mu.Unlock()

	c.afterInit(eng)
	return err
}

func (c *Controller) afterInit(eng Engine) {
	if eng != nil && c.params.OnPlayerInit != nil {
		c.params.OnPlayerInit(eng, c.deps.Target)
	}
	c.resolve.Do(func() { close(c.activated) })
}

func (c *Controller) cancelPendingLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.state == PendingActivation {
		c.state = Idle
	}
}

func (c *Controller) initLocked() (Engine, error) {
	if c.state == Disposed {
		return nil, ErrDisposed
	}
	if c.engine != nil || c.params.ErrorMessage != "" {
		return nil, nil
	}
	c.cancelPendingLocked()

	if c.deps.Target == nil {
		c.logger.Debug().Msg("no render target, skipping initialization")
		return nil, nil
	}
	if c.deps.Engine == nil {
		return nil, fmt.Errorf("constructing engine: no engine factory")
	}

	spec, err := c.spec()
	if err != nil {
		return nil, err
	}

	eng, err := c.deps.Engine(spec)
	if err != nil {
		return nil, fmt.Errorf("constructing engine: %w", err)
	}
	c.engine = eng
	c.state = Active
	c.logger.Info().Str("title", c.params.Info.Title).Msg("player initialized")
	return eng, nil
}

// spec builds a fresh configuration for this activation.
func (c *Controller) spec() (EngineSpec, error) {
	signals := c.deps.Signals()
	tier, err := device.Resolve(c.params.ForceTier, signals)
	if err != nil {
		return EngineSpec{}, fmt.Errorf("resolving device tier: %w", err)
	}
	ceiling := bandwidth.Estimate(tier)
	subs := subtitle.Normalize(c.params.Subtitles, c.params.SiteURL)

	cfg := playback.Build(playback.Options{
		Sources:            c.params.Sources,
		Poster:             c.params.Poster,
		Autoplay:           c.params.Autoplay,
		TheaterModeAllowed: c.params.TheaterModeAllowed,
		HasNext:            c.params.HasNext,
		HasPrevious:        c.params.HasPrevious,
		OverlayLayers:      c.params.OverlayLayers,
		PreviewThumbnails:  c.params.PreviewThumbnails,
	}, tier, ceiling, subs)

	c.logger.Debug().
		Stringer("tier", tier).
		Bool("forced", c.params.ForceTier != "").
		Bool("reliable", signals.Reliable()).
		Int("concurrency", signals.Concurrency).
		Float64("memory_gb", signals.MemoryGB).
		Int("viewport_width", signals.ViewportWidth).
		Stringer("bandwidth", ceiling).
		Str("preload", cfg.Preload).
		Interface("config", cfg).
		Msg("playback configuration")

	return EngineSpec{
		Target:     c.deps.Target,
		Config:     cfg,
		Initial:    c.bridge.Preferences().Initial(),
		Info:       c.params.Info,
		SpeedSteps: append([]float64(nil), playback.SpeedSteps...),
		Callbacks: Callbacks{
			OnStateChanged: func(s prefs.ReportedState) { c.bridge.Update(s) },
			OnNext:         c.params.OnClickNext,
			OnPrevious:     c.params.OnClickPrevious,
		},
	}, nil
}

// Dispose tears the controller down from any state. Pending listeners are
// removed together, the engine is disposed synchronously and OnUnmount runs.
// Calling it again does nothing.
func (c *Controller) Dispose() error {
	c.mu.Lock()
	if c.state == Disposed {
		c.mu.Unlock()
		return nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	eng := c.engine
	c.engine = nil
	c.state = Disposed
	c.mu.Unlock()

	c.resolve.Do(func() { close(c.activated) })

	var err error
	if eng != nil {
		if err = eng.Dispose(); err != nil {
			err = fmt.Errorf("disposing engine: %w", err)
		}
		c.logger.Debug().Msg("player disposed")
	}

	if c.params.OnUnmount != nil {
		c.params.OnUnmount()
	}
	return err
}
