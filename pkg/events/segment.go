package events

import (
	"iter"
	"sort"

	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
)

// Segment is the slice of an event stream falling inside one GTI.
// Start and End are the index bounds into the owning stream's
// timestamps, with End exclusive; Times aliases that range.
type Segment struct {
	Interval gti.Interval
	Start    int
	End      int
	Times    []float64
}

// Segments yields one segment per GTI, located by binary search over
// the timestamps. Timestamps must be sorted ascending. Each segment is
// half-open like its interval, so an event sitting exactly on a shared
// boundary lands in exactly one segment. GTIs with no events yield an
// empty segment rather than being skipped.
func (ev *EventList) Segments() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for _, iv := range ev.GTI {
			lo := sort.SearchFloat64s(ev.Time, iv.Start)
			hi := sort.SearchFloat64s(ev.Time, iv.End)
			seg := Segment{
				Interval: iv,
				Start:    lo,
				End:      hi,
				Times:    ev.Time[lo:hi],
			}
			if !yield(seg) {
				return
			}
		}
	}
}
