package player

import (
	"adaptplay/internal/lifecycle"
)

// Generic implements Player for players like iina and celluloid that accept
// mpv-compatible arguments but expose no IPC socket.
type Generic struct {
	name string
	opts Options
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool { return lookPath(g.name) }

// Start launches the player. State changes are not reported.
func (g *Generic) Start(spec lifecycle.EngineSpec) (lifecycle.Engine, error) {
	args, err := mpvArgs(spec, "", g.opts.SubsLanguage)
	if err != nil {
		return nil, err
	}
	return startProcess(g.name, args, g.opts.Logger)
}
