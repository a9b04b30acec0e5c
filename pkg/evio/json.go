package evio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
)

// WriteJSON stores the stream's table view as one JSON document.
func WriteJSON(w io.Writer, ev *events.EventList) error {
	if err := json.NewEncoder(w).Encode(ToTable(ev)); err != nil {
		return fmt.Errorf("evio: encode json: %w", err)
	}
	return nil
}

// ReadJSON rebuilds a stream from a document written by WriteJSON.
func ReadJSON(r io.Reader) (*events.EventList, events.Notices, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, nil, fmt.Errorf("evio: decode json: %w", err)
	}
	return FromTable(&t)
}
