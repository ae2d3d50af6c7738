package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"adaptplay/internal/device"
	"adaptplay/internal/media"
	"adaptplay/internal/prefs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type subscription struct {
	ctx context.Context
	fn  func()
}

type fakePage struct {
	mu         sync.Mutex
	focused    bool
	visible    bool
	focusSubs  []subscription
	visibleSub []subscription
}

func (p *fakePage) Focused() bool { return p.focused }
func (p *fakePage) Visible() bool { return p.visible }

func (p *fakePage) OnFocus(ctx context.Context, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() == nil {
		p.focusSubs = append(p.focusSubs, subscription{ctx, fn})
	}
}

func (p *fakePage) OnVisibilityChange(ctx context.Context, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() == nil {
		p.visibleSub = append(p.visibleSub, subscription{ctx, fn})
	}
}

func fire(subs []subscription) {
	for _, s := range subs {
		if s.ctx.Err() == nil {
			s.fn()
		}
	}
}

func (p *fakePage) fireFocus() {
	p.mu.Lock()
	subs := append([]subscription(nil), p.focusSubs...)
	p.mu.Unlock()
	fire(subs)
}

func (p *fakePage) fireVisibility() {
	p.mu.Lock()
	subs := append([]subscription(nil), p.visibleSub...)
	p.mu.Unlock()
	fire(subs)
}

// listeners counts subscriptions that are still live.
func (p *fakePage) listeners() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range append(append([]subscription(nil), p.focusSubs...), p.visibleSub...) {
		if s.ctx.Err() == nil {
			n++
		}
	}
	return n
}

type fakeEngine struct {
	mu       sync.Mutex
	disposed int
	spec     EngineSpec
}

func (e *fakeEngine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposed++
	return nil
}

type fakeFactory struct {
	mu      sync.Mutex
	engines []*fakeEngine
	err     error
}

func (f *fakeFactory) build(spec EngineSpec) (Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e := &fakeEngine{spec: spec}
	f.engines = append(f.engines, e)
	return e, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

func newController(p Params, page *fakePage, f *fakeFactory) *Controller {
	if p.Sources == nil {
		p.Sources = []media.Source{{Src: "https://x/v.m3u8"}}
	}
	return New(p, Deps{
		Page:    page,
		Engine:  f.build,
		Target:  &media.Target{Title: "test"},
		Signals: func() device.Signals { return device.Signals{Concurrency: 4, MemoryGB: 4, ViewportWidth: 1280} },
		Logger:  zerolog.Nop(),
	})
}

func TestMountFocusedInitializesImmediately(t *testing.T) {
	page := &fakePage{focused: true}
	f := &fakeFactory{}
	var inits int
	c := newController(Params{OnPlayerInit: func(Engine, *media.Target) { inits++ }}, page, f)

	require.NoError(t, c.Mount())
	assert.Equal(t, Active, c.State())
	assert.Equal(t, 1, f.count())
	assert.Equal(t, 1, inits)
	assert.Zero(t, page.listeners())

	// Second mount and explicit init are no-ops.
	require.NoError(t, c.Mount())
	require.NoError(t, c.Init())
	assert.Equal(t, 1, f.count())

	select {
	case <-c.Activated():
	default:
		t.Fatal("Activated not closed after immediate init")
	}
	require.NoError(t, c.Dispose())
}

func TestMountVisibleInitializesImmediately(t *testing.T) {
	f := &fakeFactory{}
	c := newController(Params{}, &fakePage{visible: true}, f)
	require.NoError(t, c.Mount())
	assert.Equal(t, Active, c.State())
	require.NoError(t, c.Dispose())
}

func TestMountInEmbedIgnoresPage(t *testing.T) {
	page := &fakePage{}
	f := &fakeFactory{}
	c := newController(Params{InEmbed: true}, page, f)

	require.NoError(t, c.Mount())
	assert.Equal(t, Active, c.State())
	assert.Zero(t, page.listeners())
	require.NoError(t, c.Dispose())
}

func TestDeferredActivationFirstWins(t *testing.T) {
	tests := []struct {
		name  string
		first func(*fakePage)
		other func(*fakePage)
	}{
		{"focus first", (*fakePage).fireFocus, (*fakePage).fireVisibility},
		{"visibility first", (*fakePage).fireVisibility, (*fakePage).fireFocus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &fakePage{}
			f := &fakeFactory{}
			c := newController(Params{}, page, f)

			require.NoError(t, c.Mount())
			assert.Equal(t, PendingActivation, c.State())
			assert.Equal(t, 2, page.listeners())
			assert.Zero(t, f.count())

			tt.first(page)
			assert.Equal(t, Active, c.State())
			assert.Equal(t, 1, f.count())
			assert.Zero(t, page.listeners(), "both listeners must be removed together")

			tt.other(page)
			tt.first(page)
			assert.Equal(t, 1, f.count())

			<-c.Activated()
			assert.NoError(t, c.Err())
			require.NoError(t, c.Dispose())
		})
	}
}

func TestDeferredActivationConcurrentSignals(t *testing.T) {
	page := &fakePage{}
	f := &fakeFactory{}
	c := newController(Params{}, page, f)
	require.NoError(t, c.Mount())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); page.fireFocus() }()
		go func() { defer wg.Done(); page.fireVisibility() }()
	}
	wg.Wait()

	assert.Equal(t, 1, f.count())
	assert.Equal(t, Active, c.State())
	require.NoError(t, c.Dispose())
}

func TestDisposeIdempotent(t *testing.T) {
	f := &fakeFactory{}
	unmounts := 0
	c := newController(Params{OnUnmount: func() { unmounts++ }}, &fakePage{focused: true}, f)
	require.NoError(t, c.Mount())

	require.NoError(t, c.Dispose())
	require.NoError(t, c.Dispose())

	require.Len(t, f.engines, 1)
	assert.Equal(t, 1, f.engines[0].disposed)
	assert.Equal(t, 1, unmounts)
	assert.Equal(t, Disposed, c.State())

	assert.ErrorIs(t, c.Mount(), ErrDisposed)
	assert.ErrorIs(t, c.Init(), ErrDisposed)
	assert.Equal(t, 1, f.count())
}

func TestDisposeWhilePending(t *testing.T) {
	page := &fakePage{}
	f := &fakeFactory{}
	unmounts := 0
	c := newController(Params{OnUnmount: func() { unmounts++ }}, page, f)

	require.NoError(t, c.Mount())
	require.Equal(t, 2, page.listeners())

	require.NoError(t, c.Dispose())
	assert.Zero(t, page.listeners())
	assert.Equal(t, Disposed, c.State())
	assert.Equal(t, 1, unmounts)

	page.fireFocus()
	page.fireVisibility()
	assert.Zero(t, f.count())
	<-c.Activated()
}

func TestDisposeFromIdle(t *testing.T) {
	unmounts := 0
	c := newController(Params{OnUnmount: func() { unmounts++ }}, &fakePage{}, &fakeFactory{})
	require.NoError(t, c.Dispose())
	assert.Equal(t, 1, unmounts)
	assert.Equal(t, Disposed, c.State())
}

func TestErrorMessageSkipsInitialization(t *testing.T) {
	for _, page := range []*fakePage{{focused: true}, {}} {
		f := &fakeFactory{}
		c := newController(Params{ErrorMessage: "Media is not available"}, page, f)

		require.NoError(t, c.Mount())
		require.NoError(t, c.Init())
		assert.Equal(t, Idle, c.State())
		assert.Zero(t, f.count())
		assert.Zero(t, page.listeners())
		require.NoError(t, c.Dispose())
	}
}

func TestNoTargetSkipsInitialization(t *testing.T) {
	f := &fakeFactory{}
	c := New(Params{}, Deps{Page: &fakePage{focused: true}, Engine: f.build, Logger: zerolog.Nop()})
	require.NoError(t, c.Mount())
	assert.Zero(t, f.count())
	assert.Equal(t, Idle, c.State())
}

func TestConstructionFailureIsNotRetried(t *testing.T) {
	boom := errors.New("mpv not found")
	f := &fakeFactory{err: boom}
	unmounts := 0
	c := newController(Params{OnUnmount: func() { unmounts++ }}, &fakePage{focused: true}, f)

	err := c.Mount()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Idle, c.State())
	assert.Zero(t, f.count())

	require.NoError(t, c.Dispose())
	assert.Equal(t, 1, unmounts)
}

func TestDeferredConstructionFailure(t *testing.T) {
	boom := errors.New("no display")
	page := &fakePage{}
	c := newController(Params{}, page, &fakeFactory{err: boom})

	require.NoError(t, c.Mount())
	page.fireVisibility()

	<-c.Activated()
	assert.ErrorIs(t, c.Err(), boom)
	assert.Equal(t, Idle, c.State())
	assert.Zero(t, page.listeners())

	page.fireFocus()
	assert.ErrorIs(t, c.Err(), boom)
}

func TestEngineSpec(t *testing.T) {
	vol := 1.5
	f := &fakeFactory{}
	c := newController(Params{
		Preferences: prefs.Input{Volume: &vol},
		SiteURL:     "https://media.example.com",
		Subtitles: []media.SubtitleInfo{
			{Src: "/subs/en.vtt", SrcLang: "en", Label: "English"},
			{Src: "/subs/broken.vtt"},
		},
		Autoplay:  true,
		HasNext:   true,
		ForceTier: "low",
	}, &fakePage{focused: true}, f)

	require.NoError(t, c.Mount())
	require.Len(t, f.engines, 1)
	spec := f.engines[0].spec

	assert.Equal(t, 1.0, spec.Initial.Volume)
	assert.Equal(t, 1.0, spec.Initial.PlaybackRate)
	assert.Empty(t, spec.Initial.Quality)
	assert.Equal(t, int64(1_000_000), spec.Config.ABR.Bandwidth)
	assert.False(t, spec.Config.ABR.UseLiveNetworkSignal)
	assert.Equal(t, "metadata", spec.Config.Preload)
	assert.True(t, spec.Config.ControlBar.Next)
	assert.False(t, spec.Config.ControlBar.Previous)
	require.Len(t, spec.Config.Subtitles.Tracks, 1)
	assert.Equal(t, "https://media.example.com/subs/en.vtt", spec.Config.Subtitles.Tracks[0].Src)
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}, spec.SpeedSteps)
	require.NoError(t, c.Dispose())
}

func TestEngineSpecInvalidForcedTier(t *testing.T) {
	f := &fakeFactory{}
	c := newController(Params{ForceTier: "ultra"}, &fakePage{focused: true}, f)
	assert.Error(t, c.Mount())
	assert.Zero(t, f.count())
}

func TestEngineStateFlowsIntoPreferences(t *testing.T) {
	f := &fakeFactory{}
	var updates []prefs.ReportedState
	next := 0
	c := newController(Params{
		OnStateUpdate: func(s prefs.ReportedState) { updates = append(updates, s) },
		OnClickNext:   func() { next++ },
	}, &fakePage{focused: true}, f)
	require.NoError(t, c.Mount())

	cb := f.engines[0].spec.Callbacks
	state := prefs.ReportedState{Volume: 0.4, Muted: true, Quality: "720p", PlaybackRate: 1.25}
	cb.OnStateChanged(state)
	cb.OnNext()
	assert.Nil(t, cb.OnPrevious)

	assert.Equal(t, []prefs.ReportedState{state}, updates)
	assert.Equal(t, prefs.Preferences{Volume: 0.4, Muted: true, Quality: "720p", PlaybackRate: 1.25}, c.Preferences())
	assert.Equal(t, 1, next)
	require.NoError(t, c.Dispose())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", PendingActivation.String())
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "disposed", Disposed.String())
}
