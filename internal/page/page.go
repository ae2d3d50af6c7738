// Package page tells the lifecycle controller whether the controlling
// terminal is in front of the user, and when that may have changed.
package page

import (
	"context"
	"os"
	"os/signal"
	"time"

	"golang.org/x/term"
)

// pollInterval is how often foreground ownership is checked for OnFocus.
const pollInterval = 250 * time.Millisecond

// Terminal treats the controlling terminal as the page. It is focused when
// this process group owns the terminal foreground. Without a terminal there
// is nobody to wait for, so the page counts as visible.
type Terminal struct {
	fd int
}

// NewTerminal watches the terminal attached to stdin.
func NewTerminal() *Terminal {
	return &Terminal{fd: int(os.Stdin.Fd())}
}

func (t *Terminal) interactive() bool {
	return term.IsTerminal(t.fd)
}

// Focused reports whether the process is the terminal foreground job.
func (t *Terminal) Focused() bool {
	return t.interactive() && foreground(t.fd)
}

// Visible reports whether output is reaching the user.
func (t *Terminal) Visible() bool {
	return !t.interactive() || foreground(t.fd)
}

// OnFocus calls fn on the first poll that finds the process in the
// foreground and on each later move back to it, until ctx is cancelled.
// Callers subscribe while the process is in the background, so gaining the
// foreground before the first poll still counts.
func (t *Terminal) OnFocus(ctx context.Context, fn func()) {
	if ctx.Err() != nil {
		return
	}
	go pollFocus(ctx, pollInterval, t.Focused, fn)
}

func pollFocus(ctx context.Context, interval time.Duration, focused func() bool, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	was := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := focused()
			if now && !was && ctx.Err() == nil {
				fn()
			}
			was = now
		}
	}
}

// OnVisibilityChange calls fn each time the process is continued after a
// stop or a job-control move, until ctx is cancelled.
func (t *Terminal) OnVisibilityChange(ctx context.Context, fn func()) {
	if ctx.Err() != nil || len(continueSignals) == 0 {
		return
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, continueSignals...)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				if ctx.Err() == nil {
					fn()
				}
			}
		}
	}()
}

// Static is a page that is always in front, for non-interactive hosts.
type Static struct{}

func (Static) Focused() bool                              { return true }
func (Static) Visible() bool                              { return true }
func (Static) OnFocus(context.Context, func())            {}
func (Static) OnVisibilityChange(context.Context, func()) {}
