// Package evio serializes event streams: a generic labeled-table view
// plus JSON, CSV, binary snapshot, and SQLite codecs built on it.
package evio

import (
	"fmt"
	"slices"

	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
)

// Table is the labeled-table view of an event stream: one column per
// array attribute plus a metadata map of summary attributes. Names
// fixes the column order, with "time" first.
type Table struct {
	Names   []string                 `json:"names"`
	Columns map[string]events.Column `json:"columns"`
	Meta    map[string]any           `json:"meta,omitempty"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.Names) == 0 {
		return 0
	}
	return t.Columns[t.Names[0]].Len()
}

// ToTable flattens a stream into a table. Off-shape registry columns do
// not fit a rectangular table and are left out; the snapshot format
// keeps them.
func ToTable(ev *events.EventList) *Table {
	t := &Table{Columns: make(map[string]events.Column), Meta: ev.MetaDict()}
	if ev.Time == nil {
		return t
	}
	t.Names = append(t.Names, "time")
	t.Columns["time"] = events.Float64Column(slices.Clone(ev.Time))
	for _, name := range ev.ArrayAttrs() {
		if name == "time" {
			continue
		}
		col, _ := ev.Column(name)
		t.Names = append(t.Names, name)
		t.Columns[name] = col
	}
	return t
}

// FromTable rebuilds a stream from a table. Column lengths must agree
// with the time column; unrecognized metadata keywords are discarded
// with a notice.
func FromTable(t *Table) (*events.EventList, events.Notices, error) {
	var timeVals []float64
	if timeCol, ok := t.Columns["time"]; ok {
		vals, numeric := timeCol.Numbers()
		if !numeric {
			return nil, nil, fmt.Errorf("evio: time column is not numeric")
		}
		timeVals = slices.Clone(vals)
	}
	ev, err := events.New(timeVals, events.Options{})
	if err != nil {
		return nil, nil, err
	}
	for _, name := range t.Names {
		if name == "time" {
			continue
		}
		col, ok := t.Columns[name]
		if !ok {
			return nil, nil, fmt.Errorf("evio: column %q named but not present", name)
		}
		if col.Len() != len(timeVals) {
			return nil, nil, fmt.Errorf("evio: column %q has %d rows, time has %d: %w",
				name, col.Len(), len(timeVals), events.ErrLengthMismatch)
		}
		ev.SetColumn(name, col)
	}
	notices := ev.ApplyMetaDict(t.Meta)
	return ev, notices, nil
}
