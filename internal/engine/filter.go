package engine

import (
	"fmt"
	"math"
)

// Survival-filter window sizes. The filter looks at most 5 bars back.
const (
	dormantDays      = 3
	frozenWindowDays = 5
	frozenStdDev     = 0.01
)

// Survives applies the survival filter to an enriched series. A false
// result carries a human-readable rejection reason; it is a
// classification, not an error.
func Survives(cfg Config, series []EnrichedBar) (bool, string) {
	if len(series) == 0 {
		return false, "no data"
	}

	// Ghost town: three straight sessions with zero volume.
	if len(series) >= dormantDays {
		dormant := true
		for _, e := range series[len(series)-dormantDays:] {
			if e.Volume != 0 {
				dormant = false
				break
			}
		}
		if dormant {
			return false, "dormant: zero volume for 3 sessions"
		}
	}

	// Price frozen at floor/ceiling: virtually no close movement.
	if len(series) >= frozenWindowDays {
		if stdDev(closes(series[len(series)-frozenWindowDays:])) < frozenStdDev {
			return false, "price frozen at floor/ceiling"
		}
	}

	latest := series[len(series)-1]
	if latest.Volume < cfg.MinVolume {
		return false, fmt.Sprintf("illiquid: volume %d below floor %d", latest.Volume, cfg.MinVolume)
	}

	return true, ""
}

func closes(series []EnrichedBar) []float64 {
	out := make([]float64, len(series))
	for i, e := range series {
		out[i] = e.Close
	}
	return out
}

// stdDev is the sample standard deviation.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}
