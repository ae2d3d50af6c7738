package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"adaptplay/internal/lifecycle"
	"adaptplay/internal/playback"
	"adaptplay/internal/prefs"
	"adaptplay/internal/subtitle"
)

// Script messages bound to the next/previous keys.
const (
	msgNext     = "adaptplay-next"
	msgPrevious = "adaptplay-previous"
)

// Properties observed over IPC. The id is the observe_property id.
var observed = []struct {
	id   int
	name string
}{
	{1, "volume"},
	{2, "mute"},
	{3, "speed"},
	{4, "fullscreen"},
	{5, "height"},
}

// MPV implements Player for mpv. State changes are read from mpv's JSON IPC
// socket, created at a randomized temp path.
type MPV struct {
	opts Options
}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool { return lookPath("mpv") }

// Start launches mpv and begins reporting its state.
func (m *MPV) Start(spec lifecycle.EngineSpec) (lifecycle.Engine, error) {
	// Randomized socket dir prevents symlink attacks.
	socketDir, err := os.MkdirTemp("", "adaptplay-mpv-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir for mpv socket: %w", err)
	}
	socketPath := filepath.Join(socketDir, "socket")

	args, err := mpvArgs(spec, socketPath, m.opts.SubsLanguage)
	if err != nil {
		os.RemoveAll(socketDir)
		return nil, err
	}

	p, err := startProcess("mpv", args, m.opts.Logger)
	if err != nil {
		os.RemoveAll(socketDir)
		return nil, err
	}

	e := &mpvEngine{
		process: p,
		spec:    spec,
		state:   newMPVState(spec),
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.watch(socketPath)
	}()
	p.cleanup = append(p.cleanup, e.wg.Wait, func() { os.RemoveAll(socketDir) })
	return e, nil
}

// mpvArgs translates the engine spec into mpv flags. socketPath may be empty
// for mpv-compatible players without IPC.
func mpvArgs(spec lifecycle.EngineSpec, socketPath, subsLang string) ([]string, error) {
	src, err := primarySource(spec.Config)
	if err != nil {
		return nil, err
	}
	cfg := spec.Config

	args := []string{
		src,
		"--force-media-title=" + title(spec),
		"--really-quiet",
		fmt.Sprintf("--volume=%d", percent(spec.Initial.Volume)),
		"--speed=" + strconv.FormatFloat(spec.Initial.PlaybackRate, 'g', -1, 64),
	}
	if socketPath != "" {
		args = append(args, "--input-ipc-server="+socketPath)
	}
	if spec.Target != nil && spec.Target.WindowID != "" {
		args = append(args, "--wid="+spec.Target.WindowID)
	}
	if spec.Initial.Muted {
		args = append(args, "--mute=yes")
	}
	if spec.Initial.TheaterMode && cfg.ControlBar.TheaterMode {
		args = append(args, "--fullscreen")
	}
	if !cfg.Autoplay {
		args = append(args, "--pause")
	}
	if cfg.Preload == playback.PreloadNone {
		// nothing is read ahead until playback starts
		args = append(args, "--demuxer-readahead-secs=0")
	}

	// mpv picks one HLS variant up front and does not switch afterwards.
	if cfg.ABR.Bandwidth > 0 {
		args = append(args, "--hls-bitrate="+strconv.FormatInt(cfg.ABR.Bandwidth, 10))
	} else {
		args = append(args, "--hls-bitrate=max")
	}

	if cfg.Subtitles.Enabled {
		for _, t := range cfg.Subtitles.Tracks {
			args = append(args, "--sub-file="+t.Src)
		}
		if best := subtitle.BestMatch(cfg.Subtitles.Tracks, subsLang); best != nil && subsLang != "" {
			args = append(args, "--slang="+best.SrcLang)
		}
	}
	return args, nil
}

// mpvEngine is a running mpv with an IPC reader.
type mpvEngine struct {
	*process
	spec lifecycle.EngineSpec
	wg   sync.WaitGroup

	mu    sync.Mutex
	state mpvState
}

// watch connects to the IPC socket and reports state until mpv exits.
func (e *mpvEngine) watch(socketPath string) {
	conn, err := e.dial(socketPath)
	if err != nil {
		e.logger.Debug().Err(err).Msg("mpv IPC unavailable, state changes will not be reported")
		return
	}
	defer conn.Close()

	// mpv closes the socket on exit, which ends the scanner.
	go func() {
		<-e.done
		conn.Close()
	}()

	if err := e.subscribe(conn); err != nil {
		e.logger.Debug().Err(err).Msg("mpv IPC subscribe failed")
		return
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var ev mpvEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		e.handle(ev)
	}
}

func (e *mpvEngine) dial(socketPath string) (net.Conn, error) {
	var lastErr error
	for i := 0; i < 50; i++ {
		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		select {
		case <-e.done:
			return nil, fmt.Errorf("mpv exited before IPC was ready")
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil, lastErr
}

func (e *mpvEngine) subscribe(conn net.Conn) error {
	var cmds [][]any
	for _, p := range observed {
		cmds = append(cmds, []any{"observe_property", p.id, p.name})
	}
	if e.spec.Config.ControlBar.Next {
		cmds = append(cmds, []any{"keybind", ">", "script-message " + msgNext})
	}
	if e.spec.Config.ControlBar.Previous {
		cmds = append(cmds, []any{"keybind", "<", "script-message " + msgPrevious})
	}

	for i, c := range cmds {
		data, err := json.Marshal(map[string]any{"command": c, "request_id": 100 + i})
		if err != nil {
			return err
		}
		if _, err := conn.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing mpv command: %w", err)
		}
	}
	return nil
}

func (e *mpvEngine) handle(ev mpvEvent) {
	cb := e.spec.Callbacks
	switch ev.Event {
	case "client-message":
		if len(ev.Args) == 0 {
			return
		}
		switch ev.Args[0] {
		case msgNext:
			if cb.OnNext != nil {
				cb.OnNext()
			}
		case msgPrevious:
			if cb.OnPrevious != nil {
				cb.OnPrevious()
			}
		}
	case "property-change":
		e.mu.Lock()
		changed := e.state.apply(ev)
		report := e.state.report()
		e.mu.Unlock()
		if changed && cb.OnStateChanged != nil {
			cb.OnStateChanged(report)
		}
	}
}

// mpvEvent is one line received on the IPC socket.
type mpvEvent struct {
	Event string          `json:"event"`
	Name  string          `json:"name"`
	Data  json.RawMessage `json:"data"`
	Args  []string        `json:"args"`
}

// mpvState mirrors the observed mpv properties.
type mpvState struct {
	volume     float64 // 0-100
	mute       bool
	speed      float64
	fullscreen bool
	height     int
}

func newMPVState(spec lifecycle.EngineSpec) mpvState {
	return mpvState{
		volume:     float64(percent(spec.Initial.Volume)),
		mute:       spec.Initial.Muted,
		speed:      spec.Initial.PlaybackRate,
		fullscreen: spec.Initial.TheaterMode && spec.Config.ControlBar.TheaterMode,
	}
}

// apply updates the mirror from a property-change event. Events with
// missing or mistyped data are ignored.
func (s *mpvState) apply(ev mpvEvent) bool {
	if len(ev.Data) == 0 || string(ev.Data) == "null" {
		return false
	}
	switch ev.Name {
	case "volume":
		return decode(ev.Data, &s.volume)
	case "mute":
		return decode(ev.Data, &s.mute)
	case "speed":
		return decode(ev.Data, &s.speed)
	case "fullscreen":
		return decode(ev.Data, &s.fullscreen)
	case "height":
		return decode(ev.Data, &s.height)
	}
	return false
}

func decode[T any](data json.RawMessage, dst *T) bool {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// report converts the mirror into the engine-neutral state.
func (s *mpvState) report() prefs.ReportedState {
	quality := prefs.DefaultQuality
	if s.height > 0 {
		quality = strconv.Itoa(s.height) + "p"
	}
	return prefs.ReportedState{
		Volume:       max(min(s.volume/100, 1), 0),
		Muted:        s.mute,
		Quality:      quality,
		PlaybackRate: s.speed,
		TheaterMode:  s.fullscreen,
	}
}
