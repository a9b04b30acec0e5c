package evio

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
)

// WriteCSV stores the array attributes as CSV columns. CSV has no
// metadata section, so summary attributes are lost; that lossiness is
// inherent to the format.
func WriteCSV(w io.Writer, ev *events.EventList) error {
	t := ToTable(ev)
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names); err != nil {
		return fmt.Errorf("evio: write csv header: %w", err)
	}
	for row := 0; row < t.Len(); row++ {
		record := make([]string, len(t.Names))
		for i, name := range t.Names {
			record[i] = formatValue(t.Columns[name], row)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("evio: write csv row %d: %w", row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(col events.Column, row int) string {
	switch col.Kind() {
	case events.KindFloat64:
		return strconv.FormatFloat(col.Float64s()[row], 'g', -1, 64)
	case events.KindInt64:
		return strconv.FormatInt(col.Int64s()[row], 10)
	default:
		return col.Strings()[row]
	}
}

// ReadCSV rebuilds a stream from CSV columns. A column whose every
// value parses as an integer comes back as int64, a numeric one as
// float64, anything else as strings. Metadata cannot be recovered from
// CSV.
func ReadCSV(r io.Reader) (*events.EventList, events.Notices, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("evio: read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("evio: csv has no header row")
	}
	header := records[0]
	rows := records[1:]

	t := &Table{Names: header, Columns: make(map[string]events.Column, len(header))}
	for i, name := range header {
		raw := make([]string, len(rows))
		for j, rec := range rows {
			raw[j] = rec[i]
		}
		t.Columns[name] = inferColumn(raw)
	}
	return FromTable(t)
}

func inferColumn(raw []string) events.Column {
	ints := make([]int64, len(raw))
	allInt := true
	for i, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			allInt = false
			break
		}
		ints[i] = n
	}
	if allInt {
		return events.Int64Column(ints)
	}

	floats := make([]float64, len(raw))
	for i, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return events.StringColumn(slices.Clone(raw))
		}
		floats[i] = f
	}
	return events.Float64Column(floats)
}
