package temporal

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
)

// BuildEventList decodes a batch of flat JSON detection records into a
// time-sorted event list. Every record needs a numeric "time" field;
// the remaining fields become registry columns whose kind is taken
// from the first record that carries them. Records missing a column,
// or carrying it with the wrong type, contribute a zero value and one
// notice per column.
func BuildEventList(records [][]byte, request PipelineRequest) (*events.EventList, events.Notices, error) {
	decoded := make([]map[string]any, len(records))
	for i, raw := range records {
		var rec map[string]any
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i, err)
		}
		decoded[i] = rec
	}

	times := make([]float64, len(decoded))
	for i, rec := range decoded {
		t, ok := numberValue(rec["time"])
		if !ok {
			return nil, nil, fmt.Errorf("record %d: missing numeric time field", i)
		}
		times[i] = t
	}

	var names []string
	kinds := make(map[string]events.ColumnKind)
	for _, rec := range decoded {
		keys := make([]string, 0, len(rec))
		for key := range rec {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if key == "time" {
				continue
			}
			if _, seen := kinds[key]; seen {
				continue
			}
			kind, ok := kindOf(key, rec[key])
			if !ok {
				continue
			}
			names = append(names, key)
			kinds[key] = kind
		}
	}

	var notices events.Notices
	columns := make(map[string]events.Column, len(names))
	for _, name := range names {
		col, filled := buildColumn(name, kinds[name], decoded)
		columns[name] = col
		if filled > 0 {
			notices.Addf(events.NoticeZeroFilled,
				"column %q missing or mistyped in %d of %d records; zero filled", name, filled, len(decoded))
		}
	}

	ev, err := events.New(times, events.Options{
		GTI:     request.GTI,
		MJDRef:  request.MJDRef,
		DT:      request.DT,
		Columns: columns,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(request.Meta) > 0 {
		notices = append(notices, ev.ApplyMetaDict(request.Meta)...)
	}
	ev.SortByTime()
	return ev, notices, nil
}

// kindOf picks a column kind from a field's first occurrence.
// Detector channels stay integral; anything else numeric is a float.
func kindOf(name string, value any) (events.ColumnKind, bool) {
	switch value.(type) {
	case float64:
		if name == events.ColPI || name == events.ColDetectorID {
			return events.KindInt64, true
		}
		return events.KindFloat64, true
	case string:
		return events.KindString, true
	default:
		return "", false
	}
}

func buildColumn(name string, kind events.ColumnKind, decoded []map[string]any) (events.Column, int) {
	filled := 0
	switch kind {
	case events.KindInt64:
		values := make([]int64, len(decoded))
		for i, rec := range decoded {
			if f, ok := numberValue(rec[name]); ok {
				values[i] = int64(f)
			} else {
				filled++
			}
		}
		return events.Int64Column(values), filled
	case events.KindString:
		values := make([]string, len(decoded))
		for i, rec := range decoded {
			if s, ok := rec[name].(string); ok {
				values[i] = s
			} else {
				filled++
			}
		}
		return events.StringColumn(values), filled
	default:
		values := make([]float64, len(decoded))
		for i, rec := range decoded {
			if f, ok := numberValue(rec[name]); ok {
				values[i] = f
			} else {
				filled++
			}
		}
		return events.Float64Column(values), filled
	}
}

func numberValue(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
