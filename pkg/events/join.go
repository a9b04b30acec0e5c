package events

import (
	"sort"

	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
)

// Join merges two event streams into a new one, leaving both inputs
// untouched. Timestamps are concatenated and sorted with a single
// stable permutation that also reorders every per-event column; a
// column present on only one side is zero-filled on the other. GTI
// sets are intersected when they overlap anywhere and concatenated
// when fully disjoint. A reference-epoch difference beyond
// EpochTolerance is reconciled onto the receiver's epoch first.
//
// Degraded inputs produce notices, never errors; only columns that
// share a name but not a kind fail the merge.
func (ev *EventList) Join(other *EventList) (*EventList, Notices, error) {
	var notices Notices
	out := &EventList{MJDRef: ev.MJDRef, DT: ev.DT}

	if ev.DT != other.DT {
		out.DT = max(ev.DT, other.DT)
		notices.Addf(NoticeBinWidth, "bin widths differ (%g and %g), keeping the coarser %g", ev.DT, other.DT, out.DT)
	}

	left, right := ev, other
	if left.Time == nil && right.Time == nil {
		return out, notices, nil
	}
	if left.Time == nil || right.Time == nil {
		notices.Addf(NoticeEmptySide, "one of the joined streams has no events")
	}
	if !sameEpoch(left.MJDRef, right.MJDRef) {
		right = right.ChangeMJDRef(left.MJDRef)
		notices.Addf(NoticeEpochShifted, "reference epochs differ, shifting one stream onto MJDREF %g", left.MJDRef)
	}

	nl, nr := len(left.Time), len(right.Time)
	times := make([]float64, 0, nl+nr)
	times = append(times, left.Time...)
	times = append(times, right.Time...)
	perm := sortPermutation(times)
	out.Time = applyPermutation(times, perm)

	for _, name := range unionColumnNames(left, right) {
		lc, lok := arrayColumn(left, name)
		rc, rok := arrayColumn(right, name)
		if !lok && !rok {
			continue
		}
		if !lok {
			lc = zeroColumn(rc.Kind(), nl)
			notices.Addf(NoticeZeroFilled, "column %q is missing on one side, filling with zeros", name)
		}
		if !rok {
			rc = zeroColumn(lc.Kind(), nr)
			notices.Addf(NoticeZeroFilled, "column %q is missing on one side, filling with zeros", name)
		}
		merged, err := appendColumns(lc, rc)
		if err != nil {
			return nil, notices, err
		}
		out.SetColumn(name, merged.reorder(perm))
	}

	// A side without GTIs borrows the span of its own events, padded by
	// its own bin width, but only when the other side brings real GTIs
	// to combine with.
	lg, rg := left.GTI, right.GTI
	if lg == nil && rg != nil && nl > 0 {
		lg = gti.FromBounds(left.Time, left.DT)
	}
	if rg == nil && lg != nil && nr > 0 {
		rg = gti.FromBounds(right.Time, right.DT)
	}
	switch {
	case lg == nil && rg == nil:
	case lg != nil && rg != nil:
		if gti.Disjoint(lg, rg) {
			joined, err := gti.Append(lg, rg)
			if err != nil {
				return nil, notices, err
			}
			out.GTI = joined
			notices.Addf(NoticeGTIAppended, "valid windows do not overlap anywhere, appending instead of intersecting")
		} else {
			out.GTI = gti.Cross(lg, rg)
		}
	case lg != nil:
		out.GTI = lg.Clone()
		notices.Addf(NoticeGTIOneSided, "only one of the joined streams carries valid windows, keeping them")
	default:
		out.GTI = rg.Clone()
		notices.Addf(NoticeGTIOneSided, "only one of the joined streams carries valid windows, keeping them")
	}

	out.Mission = joinLabel(left.Mission, right.Mission)
	out.Instr = joinLabel(left.Instr, right.Instr)
	return out, notices, nil
}

// joinLabel combines a descriptive label from two streams: equal labels
// collapse, an empty side defers to the other, anything else joins with
// a comma.
func joinLabel(a, b string) string {
	switch {
	case a == b:
		return a
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "," + b
}

// arrayColumn fetches a column only when it is array-shaped for its
// owning stream.
func arrayColumn(ev *EventList, name string) (Column, bool) {
	col, ok := ev.columns[name]
	if !ok || col.Len() != len(ev.Time) {
		return Column{}, false
	}
	return col, true
}

func unionColumnNames(a, b *EventList) []string {
	seen := make(map[string]struct{}, len(a.columns)+len(b.columns))
	for name := range a.columns {
		seen[name] = struct{}{}
	}
	for name := range b.columns {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sortPermutation returns the stable permutation that sorts values
// ascending, without touching the input.
func sortPermutation(values []float64) []int {
	perm := make([]int, len(values))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool { return values[perm[i]] < values[perm[j]] })
	return perm
}

func applyPermutation(values []float64, perm []int) []float64 {
	out := make([]float64, len(values))
	for i, p := range perm {
		out[i] = values[p]
	}
	return out
}
