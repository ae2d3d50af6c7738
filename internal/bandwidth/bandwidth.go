// Package bandwidth maps a device tier to the bandwidth ceiling handed to
// the adaptive bitrate logic of the engine.
package bandwidth

import (
	"strconv"

	"adaptplay/internal/device"
)

// Ceiling is a bandwidth limit in bits per second.
type Ceiling int64

// Unlimited means no bandwidth limit is imposed.
const Unlimited Ceiling = -1

var table = map[device.Tier]Ceiling{
	device.Low:  1_000_000,
	device.Mid:  3_000_000,
	device.High: Unlimited,
}

// Estimate returns the ceiling for a tier. Unknown tiers get the mid value.
func Estimate(tier device.Tier) Ceiling {
	if c, ok := table[tier]; ok {
		return c
	}
	return table[device.Mid]
}

// Limited reports whether the ceiling is finite.
func (c Ceiling) Limited() bool { return c > 0 }

func (c Ceiling) String() string {
	if !c.Limited() {
		return "unlimited"
	}
	return strconv.FormatInt(int64(c), 10) + "bps"
}
