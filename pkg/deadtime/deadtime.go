// Package deadtime models detector dead time: after each recorded
// event the detector is blind for a fixed interval, and arrivals inside
// that interval are lost.
package deadtime

import (
	"fmt"
)

// Stats summarizes what a dead-time filter did to a time series.
type Stats struct {
	Total    int     `json:"total"`
	Kept     int     `json:"kept"`
	Dropped  int     `json:"dropped"`
	Deadtime float64 `json:"deadtime"`
}

// Filter applies a fixed dead time to sorted event timestamps.
//
// In the default non-paralyzable mode only recorded events restart the
// dead period. A paralyzable detector restarts it on every arrival,
// recorded or not, so a fast enough source can blind it completely.
type Filter struct {
	Paralyzable bool
}

// Mask returns the keep-mask for the given timestamps, plus statistics
// about the filtering. Timestamps must be sorted ascending.
func (f Filter) Mask(times []float64, deadtime float64) ([]bool, Stats, error) {
	if deadtime < 0 {
		return nil, Stats{}, fmt.Errorf("deadtime: negative dead time %g", deadtime)
	}
	stats := Stats{Total: len(times), Deadtime: deadtime}
	mask := make([]bool, len(times))
	if len(times) == 0 {
		return mask, stats, nil
	}
	if deadtime == 0 {
		for i := range mask {
			mask[i] = true
		}
		stats.Kept = len(times)
		return mask, stats, nil
	}

	mask[0] = true
	if f.Paralyzable {
		for i := 1; i < len(times); i++ {
			mask[i] = times[i]-times[i-1] >= deadtime
		}
	} else {
		last := times[0]
		for i := 1; i < len(times); i++ {
			if times[i]-last >= deadtime {
				mask[i] = true
				last = times[i]
			}
		}
	}

	for _, keep := range mask {
		if keep {
			stats.Kept++
		}
	}
	stats.Dropped = stats.Total - stats.Kept
	return mask, stats, nil
}

// DeadtimeMask adapts the filter to the events package interface,
// discarding the statistics.
func (f Filter) DeadtimeMask(times []float64, deadtime float64) ([]bool, error) {
	mask, _, err := f.Mask(times, deadtime)
	return mask, err
}
