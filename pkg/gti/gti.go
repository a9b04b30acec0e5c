// Package gti implements the interval algebra for Good Time Intervals,
// the windows of time during which an event stream is valid.
//
// All boundaries follow one convention: an interval covers [Start, End),
// so a timestamp equal to Start is inside and a timestamp equal to End
// is not. Two intervals that merely touch at an endpoint do not overlap.
package gti

import (
	"fmt"
	"sort"
)

// Interval is a single valid-time window, in seconds relative to the
// owning stream's reference epoch.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the interval length in seconds.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Contains reports whether t falls inside the half-open interval.
func (iv Interval) Contains(t float64) bool {
	return t >= iv.Start && t < iv.End
}

// Overlaps reports whether two intervals share a region of positive
// length. Touching endpoints do not count.
func (iv Interval) Overlaps(other Interval) bool {
	return max(iv.Start, other.Start) < min(iv.End, other.End)
}

// List is an ordered set of non-overlapping intervals.
type List []Interval

// Check validates that every interval runs forward and that the list is
// sorted by start with no overlaps. Touching endpoints are allowed.
func Check(list List) error {
	for i, iv := range list {
		if iv.Start >= iv.End {
			return fmt.Errorf("gti: interval %d [%g, %g] has start >= end", i, iv.Start, iv.End)
		}
		if i == 0 {
			continue
		}
		prev := list[i-1]
		if iv.Start < prev.Start {
			return fmt.Errorf("gti: interval %d [%g, %g] is out of order", i, iv.Start, iv.End)
		}
		if iv.Start < prev.End {
			return fmt.Errorf("gti: interval %d [%g, %g] overlaps [%g, %g]", i, iv.Start, iv.End, prev.Start, prev.End)
		}
	}
	return nil
}

// Clone returns a copy that shares no storage with the original.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Sorted returns a copy ordered by interval start.
func (l List) Sorted() List {
	out := l.Clone()
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Shift returns a copy with every boundary translated by delta seconds.
func (l List) Shift(delta float64) List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, iv := range l {
		out[i] = Interval{Start: iv.Start + delta, End: iv.End + delta}
	}
	return out
}

// Duration returns the summed length of all intervals.
func (l List) Duration() float64 {
	var total float64
	for _, iv := range l {
		total += iv.Duration()
	}
	return total
}

// MinBound returns the earliest start across all intervals. Zero for an
// empty list.
func (l List) MinBound() float64 {
	if len(l) == 0 {
		return 0
	}
	lo := l[0].Start
	for _, iv := range l[1:] {
		lo = min(lo, iv.Start)
	}
	return lo
}

// MaxBound returns the latest end across all intervals. Zero for an
// empty list.
func (l List) MaxBound() float64 {
	if len(l) == 0 {
		return 0
	}
	hi := l[0].End
	for _, iv := range l[1:] {
		hi = max(hi, iv.End)
	}
	return hi
}

// Disjoint reports whether no interval of a overlaps any interval of b.
func Disjoint(a, b List) bool {
	for _, x := range a {
		for _, y := range b {
			if x.Overlaps(y) {
				return false
			}
		}
	}
	return true
}

// Cross intersects any number of interval sets, keeping only the
// windows valid in every one of them. Sets with no common region
// produce an empty, non-nil list.
func Cross(lists ...List) List {
	if len(lists) == 0 {
		return List{}
	}
	out := lists[0].Sorted()
	for _, next := range lists[1:] {
		out = crossPair(out, next.Sorted())
	}
	return out
}

func crossPair(a, b List) List {
	out := List{}
	for _, x := range a {
		for _, y := range b {
			start := max(x.Start, y.Start)
			end := min(x.End, y.End)
			if start < end {
				out = append(out, Interval{Start: start, End: end})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Append concatenates two fully disjoint interval sets into one sorted
// list, preserving every window verbatim. Overlapping sets must be
// combined with Cross instead.
func Append(a, b List) (List, error) {
	if !Disjoint(a, b) {
		return nil, fmt.Errorf("gti: interval sets overlap, combine them with Cross")
	}
	out := make(List, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	if err := Check(out); err != nil {
		return nil, err
	}
	return out, nil
}

// FromBounds synthesizes the single interval spanning a sequence of
// timestamps, padded by half a bin width on each side.
func FromBounds(times []float64, dt float64) List {
	if len(times) == 0 {
		return nil
	}
	return List{{Start: times[0] - dt/2, End: times[len(times)-1] + dt/2}}
}
