package player

import (
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// disposeGrace is how long a player gets to quit after an interrupt.
const disposeGrace = 3 * time.Second

// process is a running player binary. It is the engine for players without
// an IPC channel.
type process struct {
	name    string
	cmd     *exec.Cmd
	done    chan struct{}
	logger  zerolog.Logger
	once    sync.Once
	cleanup []func()
}

func startProcess(name string, args []string, logger zerolog.Logger) (*process, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	logger.Debug().Str("player", name).Strs("args", args).Msg("launching player")
	if err := cmd.Start(); err != nil {
		return nil, startErr(name, err)
	}

	p := &process{name: name, cmd: cmd, done: make(chan struct{}), logger: logger}
	go func() {
		// Players exit non-zero when the user quits; that is not an error.
		if err := cmd.Wait(); err != nil {
			logger.Debug().Err(err).Str("player", name).Msg("player exited")
		}
		close(p.done)
	}()
	return p, nil
}

// Done is closed when the player process has exited.
func (p *process) Done() <-chan struct{} { return p.done }

// Dispose stops the player and waits for it to exit. Safe to call repeatedly.
func (p *process) Dispose() error {
	p.once.Do(func() {
		select {
		case <-p.done:
		default:
			_ = p.cmd.Process.Signal(os.Interrupt)
			select {
			case <-p.done:
			case <-time.After(disposeGrace):
				_ = p.cmd.Process.Kill()
				<-p.done
			}
		}
		for _, fn := range p.cleanup {
			fn()
		}
	})
	return nil
}
