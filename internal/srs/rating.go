// Package srs derives recall ratings from response performance and turns
// them into scheduling decisions via the flux memory model.
package srs

import "github.com/sky-flux/flux"

// lengthFactor is the per-extra-chord threshold allowance: a keybind of n
// chords gets its time thresholds scaled by 1 + 0.2*(n-1).
const lengthFactor = 0.2

// ScaleThreshold widens a base millisecond threshold for longer keybinds.
func ScaleThreshold(baseMS int64, chords int) int64 {
	extra := chords - 1
	if extra < 0 {
		extra = 0
	}
	return int64(float64(baseMS) * (1 + lengthFactor*float64(extra)))
}

// RateResponse classifies one scored presentation into a recall rating.
// responseTimeMS excludes paused time; attempts counts completed-or-failed
// match cycles for this presentation. First matching rule wins:
//
//	attempts >= maxAttempts                      -> Again
//	attempts == 2 or time >= scaled hard         -> Hard
//	time < scaled easy and attempts == 1         -> Easy
//	otherwise                                    -> Good
func RateResponse(responseTimeMS int64, attempts, chords int, easyMS, hardMS int64, maxAttempts int) flux.Rating {
	easy := ScaleThreshold(easyMS, chords)
	hard := ScaleThreshold(hardMS, chords)

	switch {
	case attempts >= maxAttempts:
		return flux.Again
	case attempts == 2 || responseTimeMS >= hard:
		return flux.Hard
	case responseTimeMS < easy && attempts == 1:
		return flux.Easy
	default:
		return flux.Good
	}
}
