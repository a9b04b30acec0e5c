// Package events models time-tagged event streams: photon or particle
// detections carrying a timestamp plus optional per-event attributes
// such as energy or instrument channel, stream-level metadata, and the
// Good Time Intervals describing when the detector was live.
//
// Per-event attributes live in an explicit column registry. A column
// whose length matches the timestamp count is an array attribute and is
// filtered, reordered, and merged together with the timestamps; a
// column of any other length, like the fixed metadata fields, is a
// summary attribute and rides along unchanged.
package events

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
)

// Canonical per-event column names.
const (
	ColEnergy     = "energy"
	ColPI         = "pi"
	ColDetectorID = "detector_id"
)

const secondsPerDay = 86400.0

// EpochTolerance is the difference in MJD below which two reference
// epochs count as identical: one microsecond.
const EpochTolerance = 1e-6 / secondsPerDay

var (
	// ErrLengthMismatch flags per-event data whose length disagrees
	// with the event count.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrNoTime flags operations that need timestamps on a stream that
	// has none.
	ErrNoTime = errors.New("no timestamps")
	// ErrMissingColumn flags a reference to a column that is not set.
	ErrMissingColumn = errors.New("missing column")
)

// EventList is one event stream. Timestamps are in seconds relative to
// the MJDRef epoch and are not reordered at construction; operations
// that need ordering restore it themselves.
type EventList struct {
	Time []float64

	MJDRef float64
	DT     float64
	GTI    gti.List

	Mission string
	Instr   string
	Notes   string
	Header  string
	Ephem   string
	TimeRef string
	TimeSys string

	ncounts int
	columns map[string]Column
}

// Options carries the optional construction parameters of New.
type Options struct {
	Energy     []float64
	PI         []int64
	DetectorID []int64
	GTI        gti.List
	MJDRef     float64
	DT         float64
	NCounts    int
	Mission    string
	Instr      string
	Notes      string
	Header     string
	Ephem      string
	TimeRef    string
	TimeSys    string
	Columns    map[string]Column
}

// New builds an event stream from raw arrays. Per-event columns given
// here must match the timestamp count; a mismatch is fatal. A nil time
// slice with a positive NCounts builds an empty template stream that
// only carries a count, which the spectral sampler accepts.
func New(time []float64, opts Options) (*EventList, error) {
	ev := &EventList{
		Time:    time,
		MJDRef:  opts.MJDRef,
		DT:      opts.DT,
		Mission: opts.Mission,
		Instr:   opts.Instr,
		Notes:   opts.Notes,
		Header:  opts.Header,
		Ephem:   opts.Ephem,
		TimeRef: opts.TimeRef,
		TimeSys: opts.TimeSys,
		ncounts: opts.NCounts,
	}
	if opts.GTI != nil {
		if err := gti.Check(opts.GTI); err != nil {
			return nil, err
		}
		ev.GTI = opts.GTI
	}
	if opts.Energy != nil {
		if err := ev.checkLength(ColEnergy, len(opts.Energy)); err != nil {
			return nil, err
		}
		ev.SetColumn(ColEnergy, Float64Column(opts.Energy))
	}
	if opts.PI != nil {
		if err := ev.checkLength(ColPI, len(opts.PI)); err != nil {
			return nil, err
		}
		ev.SetColumn(ColPI, Int64Column(opts.PI))
	}
	if opts.DetectorID != nil {
		if err := ev.checkLength(ColDetectorID, len(opts.DetectorID)); err != nil {
			return nil, err
		}
		ev.SetColumn(ColDetectorID, Int64Column(opts.DetectorID))
	}
	for _, name := range sortedColumnNames(opts.Columns) {
		col := opts.Columns[name]
		if err := ev.checkLength(name, col.Len()); err != nil {
			return nil, err
		}
		ev.SetColumn(name, col)
	}
	return ev, nil
}

func (ev *EventList) checkLength(name string, n int) error {
	if ev.Time == nil || n == len(ev.Time) {
		return nil
	}
	return fmt.Errorf("events: %s has %d values for %d timestamps: %w", name, n, len(ev.Time), ErrLengthMismatch)
}

// Count returns the number of events, falling back to the stored
// template count when no timestamps are present.
func (ev *EventList) Count() int {
	if ev.Time != nil {
		return len(ev.Time)
	}
	return ev.ncounts
}

// Column returns the named registry column.
func (ev *EventList) Column(name string) (Column, bool) {
	col, ok := ev.columns[name]
	return col, ok
}

// SetColumn stores a column under the given name. Length is not checked
// here: a column whose length differs from the timestamp count becomes
// a summary attribute instead of a per-event one.
func (ev *EventList) SetColumn(name string, col Column) {
	if ev.columns == nil {
		ev.columns = make(map[string]Column)
	}
	ev.columns[name] = col
}

// DeleteColumn removes the named column.
func (ev *EventList) DeleteColumn(name string) {
	delete(ev.columns, name)
}

// ColumnNames returns every registry column name in sorted order.
func (ev *EventList) ColumnNames() []string {
	return sortedColumnNames(ev.columns)
}

// Energy returns the energy column values, nil when absent.
func (ev *EventList) Energy() []float64 {
	return ev.columns[ColEnergy].Float64s()
}

// SetEnergy replaces the energy column; nil removes it.
func (ev *EventList) SetEnergy(values []float64) {
	if values == nil {
		ev.DeleteColumn(ColEnergy)
		return
	}
	ev.SetColumn(ColEnergy, Float64Column(values))
}

// PI returns the instrument channel column values, nil when absent.
func (ev *EventList) PI() []int64 {
	return ev.columns[ColPI].Int64s()
}

// SetPI replaces the instrument channel column; nil removes it.
func (ev *EventList) SetPI(values []int64) {
	if values == nil {
		ev.DeleteColumn(ColPI)
		return
	}
	ev.SetColumn(ColPI, Int64Column(values))
}

// DetectorID returns the detector identifier column values, nil when
// absent.
func (ev *EventList) DetectorID() []int64 {
	return ev.columns[ColDetectorID].Int64s()
}

// SetDetectorID replaces the detector identifier column; nil removes
// it.
func (ev *EventList) SetDetectorID(values []int64) {
	if values == nil {
		ev.DeleteColumn(ColDetectorID)
		return
	}
	ev.SetColumn(ColDetectorID, Int64Column(values))
}

// ArrayAttrs lists the per-event attributes in sorted order: "time"
// plus every registry column whose length matches the timestamp count.
// It returns nil when the stream has no timestamps, since array-ness is
// defined against them.
func (ev *EventList) ArrayAttrs() []string {
	if ev.Time == nil {
		return nil
	}
	names := []string{"time"}
	for name, col := range ev.columns {
		if col.Len() == len(ev.Time) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// MetaAttrs lists the summary attributes in sorted order: the fixed
// metadata fields plus every registry column whose length does not
// match the timestamp count.
func (ev *EventList) MetaAttrs() []string {
	names := []string{
		"dt", "ephem", "gti", "header", "instr", "mission",
		"mjdref", "ncounts", "notes", "timeref", "timesys",
	}
	n := -1
	if ev.Time != nil {
		n = len(ev.Time)
	}
	for name, col := range ev.columns {
		if col.Len() != n {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// MetaDict returns the populated summary attributes as a flat map, the
// metadata section of a serialized stream. Empty strings and absent
// values are skipped. Off-shape registry columns are not included; a
// flat metadata map cannot hold them.
func (ev *EventList) MetaDict() map[string]any {
	m := map[string]any{
		"mjdref": ev.MJDRef,
		"dt":     ev.DT,
	}
	if ev.GTI != nil {
		m["gti"] = ev.GTI.Clone()
	}
	if ev.Time == nil && ev.ncounts > 0 {
		m["ncounts"] = ev.ncounts
	}
	for key, val := range map[string]string{
		"mission": ev.Mission,
		"instr":   ev.Instr,
		"notes":   ev.Notes,
		"header":  ev.Header,
		"ephem":   ev.Ephem,
		"timeref": ev.TimeRef,
		"timesys": ev.TimeSys,
	} {
		if val != "" {
			m[key] = val
		}
	}
	return m
}

// ApplyMetaDict sets summary attributes from a flat metadata map, the
// inverse of MetaDict. Keywords that are not recognized, or whose
// values cannot be coerced, are discarded with a notice.
func (ev *EventList) ApplyMetaDict(meta map[string]any) Notices {
	var notices Notices
	for _, key := range sortedMapKeys(meta) {
		val := meta[key]
		switch key {
		case "mjdref":
			if f, ok := asFloat(val); ok {
				ev.MJDRef = f
				continue
			}
		case "dt":
			if f, ok := asFloat(val); ok {
				ev.DT = f
				continue
			}
		case "ncounts":
			if f, ok := asFloat(val); ok {
				ev.ncounts = int(f)
				continue
			}
		case "gti":
			if list, ok := asGTI(val); ok && gti.Check(list) == nil {
				ev.GTI = list
				continue
			}
		case "mission", "instr", "notes", "header", "ephem", "timeref", "timesys":
			if s, ok := val.(string); ok {
				ev.setLabel(key, s)
				continue
			}
		}
		notices.Addf(NoticeUnknownKey, "discarding metadata keyword %q", key)
	}
	return notices
}

func (ev *EventList) setLabel(key, val string) {
	switch key {
	case "mission":
		ev.Mission = val
	case "instr":
		ev.Instr = val
	case "notes":
		ev.Notes = val
	case "header":
		ev.Header = val
	case "ephem":
		ev.Ephem = val
	case "timeref":
		ev.TimeRef = val
	case "timesys":
		ev.TimeSys = val
	}
}

// Copy returns a deep copy sharing no mutable state with the receiver.
func (ev *EventList) Copy() *EventList {
	out := *ev
	out.Time = slices.Clone(ev.Time)
	out.GTI = ev.GTI.Clone()
	if ev.columns != nil {
		out.columns = make(map[string]Column, len(ev.columns))
		for name, col := range ev.columns {
			out.columns[name] = col.clone()
		}
	}
	return &out
}

// SortByTime reorders the stream in place so timestamps ascend, with
// every array attribute permuted identically. The sort is stable, so
// events sharing a timestamp keep their relative order.
func (ev *EventList) SortByTime() {
	if len(ev.Time) == 0 {
		return
	}
	n := len(ev.Time)
	perm := sortPermutation(ev.Time)
	ev.Time = applyPermutation(ev.Time, perm)
	for name, col := range ev.columns {
		if col.Len() == n {
			ev.columns[name] = col.reorder(perm)
		}
	}
}

func sameEpoch(a, b float64) bool {
	return math.Abs(a-b) < EpochTolerance
}

func sortedColumnNames(columns map[string]Column) []string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func asGTI(val any) (gti.List, bool) {
	switch v := val.(type) {
	case gti.List:
		return v.Clone(), true
	case [][]float64:
		out := make(gti.List, 0, len(v))
		for _, pair := range v {
			if len(pair) != 2 {
				return nil, false
			}
			out = append(out, gti.Interval{Start: pair[0], End: pair[1]})
		}
		return out, true
	case []any:
		// JSON-decoded [[start, end], ...] or [{"start": ..., "end": ...}, ...].
		out := make(gti.List, 0, len(v))
		for _, item := range v {
			switch pair := item.(type) {
			case []any:
				if len(pair) != 2 {
					return nil, false
				}
				start, ok1 := asFloat(pair[0])
				end, ok2 := asFloat(pair[1])
				if !ok1 || !ok2 {
					return nil, false
				}
				out = append(out, gti.Interval{Start: start, End: end})
			case map[string]any:
				start, ok1 := asFloat(pair["start"])
				end, ok2 := asFloat(pair["end"])
				if !ok1 || !ok2 {
					return nil, false
				}
				out = append(out, gti.Interval{Start: start, End: end})
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}
