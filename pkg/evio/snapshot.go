package evio

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
)

func init() {
	// GTIs travel inside the interface-typed metadata map.
	gob.Register(gti.List{})
}

// snapshotState is the complete private state of a stream, including
// the off-shape registry columns a rectangular table cannot hold.
type snapshotState struct {
	Time    []float64
	Names   []string
	Columns map[string]events.Column
	Meta    map[string]any
}

// WriteSnapshot stores the complete stream in binary form. Unlike the
// table formats, a snapshot keeps every registry column regardless of
// shape.
func WriteSnapshot(w io.Writer, ev *events.EventList) error {
	state := snapshotState{
		Time:    ev.Time,
		Names:   ev.ColumnNames(),
		Columns: make(map[string]events.Column),
		Meta:    ev.MetaDict(),
	}
	for _, name := range state.Names {
		col, _ := ev.Column(name)
		state.Columns[name] = col
	}
	if err := gob.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("evio: encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot restores a stream written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*events.EventList, events.Notices, error) {
	var state snapshotState
	if err := gob.NewDecoder(r).Decode(&state); err != nil {
		return nil, nil, fmt.Errorf("evio: decode snapshot: %w", err)
	}
	ev, err := events.New(state.Time, events.Options{})
	if err != nil {
		return nil, nil, err
	}
	for _, name := range state.Names {
		ev.SetColumn(name, state.Columns[name])
	}
	notices := ev.ApplyMetaDict(state.Meta)
	return ev, notices, nil
}
