// Package device classifies the host into a coarse capability tier used to
// gate how aggressive adaptive bitrate selection may be.
package device

import (
	"fmt"
	"runtime"
	"strings"
)

// Tier is a coarse device-capability classification.
type Tier int

const (
	Low Tier = iota
	Mid
	High
)

func (t Tier) String() string {
	switch t {
	case Low:
		return "low"
	case Mid:
		return "mid"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseTier parses "low", "mid" or "high" (case-insensitive).
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "mid":
		return Mid, nil
	case "high":
		return High, nil
	default:
		return Mid, fmt.Errorf("unknown tier %q (valid: low, mid, high)", s)
	}
}

// Defaults substituted for missing host signals.
const (
	DefaultConcurrency   = 2
	DefaultMemoryGB      = 2
	DefaultViewportWidth = 1024
)

// Signals is a read-only snapshot of the host environment.
// A zero value in a field means the host did not report it.
type Signals struct {
	Concurrency   int     `json:"concurrency"`
	MemoryGB      float64 `json:"memory_gb"`
	ViewportWidth int     `json:"viewport_width"`
}

// Reliable reports whether both the concurrency and the memory hint were
// supplied by the host.
func (s Signals) Reliable() bool {
	return s.Concurrency > 0 && s.MemoryGB > 0
}

// withDefaults fills missing signals with the documented defaults.
func (s Signals) withDefaults() Signals {
	if s.Concurrency <= 0 {
		s.Concurrency = DefaultConcurrency
	}
	if s.MemoryGB <= 0 {
		s.MemoryGB = DefaultMemoryGB
	}
	if s.ViewportWidth <= 0 {
		s.ViewportWidth = DefaultViewportWidth
	}
	return s
}

// Classify returns the tier for the given signals. When the signals are not
// reliable the result is always Mid. The low-tier checks take priority, so a
// narrow viewport on a many-core machine is still Low.
func Classify(s Signals, reliable bool) Tier {
	if !reliable {
		return Mid
	}
	s = s.withDefaults()

	if s.Concurrency <= 2 || s.MemoryGB <= 2 || s.ViewportWidth <= 768 {
		return Low
	}
	if s.Concurrency >= 8 || s.MemoryGB >= 8 || s.ViewportWidth >= 1920 {
		return High
	}
	return Mid
}

// Resolve returns the forced tier when one is given, bypassing
// classification entirely, and the classified tier otherwise.
func Resolve(forced string, s Signals) (Tier, error) {
	if forced != "" {
		return ParseTier(forced)
	}
	return Classify(s, s.Reliable()), nil
}

// Probe reads the host signals once. viewportWidth comes from configuration
// because a terminal has no pixel viewport; 0 leaves it unreported.
func Probe(viewportWidth int) Signals {
	return Signals{
		Concurrency:   runtime.NumCPU(),
		MemoryGB:      totalMemoryGB(),
		ViewportWidth: viewportWidth,
	}
}
