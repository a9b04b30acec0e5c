// Package lightcurve bins event timestamps into fixed-width count
// series and expands such series back into event streams.
package lightcurve

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
)

// LightCurve is a binned count series: bin centers, per-bin counts, and
// the provenance needed to map it back to absolute time.
type LightCurve struct {
	Time   []float64 `json:"time"`
	Counts []int64   `json:"counts"`
	DT     float64   `json:"dt"`
	TStart float64   `json:"tstart"`
	TSeg   float64   `json:"tseg"`
	GTI    gti.List  `json:"gti,omitempty"`
	MJDRef float64   `json:"mjdref"`
}

// Make bins timestamps into fixed-width windows over the segment
// [tstart, tstart+tseg): bin i counts the events with
// tstart+i*dt <= t < tstart+(i+1)*dt. Events outside the segment are
// ignored.
func Make(times []float64, dt, tstart, tseg float64, g gti.List, mjdref float64) (*LightCurve, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("lightcurve: bin width must be positive, got %g", dt)
	}
	if tseg <= 0 {
		return nil, fmt.Errorf("lightcurve: segment duration must be positive, got %g", tseg)
	}

	nbins := int(math.Ceil(tseg / dt))
	counts := make([]int64, nbins)
	for _, t := range times {
		if t < tstart {
			continue
		}
		idx := int((t - tstart) / dt)
		if idx >= nbins {
			continue
		}
		counts[idx]++
	}

	centers := make([]float64, nbins)
	for i := range centers {
		centers[i] = tstart + (float64(i)+0.5)*dt
	}

	return &LightCurve{
		Time:   centers,
		Counts: counts,
		DT:     dt,
		TStart: tstart,
		TSeg:   tseg,
		GTI:    g.Clone(),
		MJDRef: mjdref,
	}, nil
}

// FromEvents bins a whole event stream. The segment defaults to the
// span of the stream's GTIs when it has any, or to the raw time span
// padded by half a bin otherwise.
func FromEvents(ev *events.EventList, dt float64) (*LightCurve, error) {
	if len(ev.Time) == 0 {
		return nil, errors.New("lightcurve: no events to bin")
	}
	tstart := ev.Time[0] - dt/2
	tseg := ev.Time[len(ev.Time)-1] + dt/2 - tstart
	if len(ev.GTI) > 0 {
		tstart = ev.GTI[0].Start
		tseg = ev.GTI[len(ev.GTI)-1].End - tstart
	}
	return Make(ev.Time, dt, tstart, tseg, ev.GTI, ev.MJDRef)
}

// PerGTI yields one light curve per GTI, each binned only from the
// events inside its own window and carrying that single window as its
// GTI. Timestamps must be sorted ascending.
func PerGTI(ev *events.EventList, dt float64) iter.Seq2[*LightCurve, error] {
	return func(yield func(*LightCurve, error) bool) {
		for seg := range ev.Segments() {
			lc, err := Make(seg.Times, dt, seg.Interval.Start, seg.Interval.Duration(), gti.List{seg.Interval}, ev.MJDRef)
			if !yield(lc, err) {
				return
			}
		}
	}
}

// Events expands the curve back into an event stream: every count in a
// bin becomes one event stamped with that bin's center. The curve's
// GTIs, epoch, and bin width carry over.
func (lc *LightCurve) Events() (*events.EventList, error) {
	var total int64
	for _, c := range lc.Counts {
		if c < 0 {
			return nil, fmt.Errorf("lightcurve: negative count %d cannot be expanded into events", c)
		}
		total += c
	}
	times := make([]float64, 0, total)
	for i, c := range lc.Counts {
		for j := int64(0); j < c; j++ {
			times = append(times, lc.Time[i])
		}
	}
	return events.New(times, events.Options{
		GTI:    lc.GTI.Clone(),
		MJDRef: lc.MJDRef,
		DT:     lc.DT,
	})
}
