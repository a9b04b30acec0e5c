package events

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"slices"
)

// ColumnKind identifies the element type of a Column.
type ColumnKind string

const (
	KindFloat64 ColumnKind = "float64"
	KindInt64   ColumnKind = "int64"
	KindString  ColumnKind = "string"
)

// Column is a typed sequence of per-event values. The zero value is an
// absent column.
type Column struct {
	kind ColumnKind
	f    []float64
	i    []int64
	s    []string
}

// Float64Column wraps a float64 sequence.
func Float64Column(values []float64) Column {
	return Column{kind: KindFloat64, f: values}
}

// Int64Column wraps an int64 sequence.
func Int64Column(values []int64) Column {
	return Column{kind: KindInt64, i: values}
}

// StringColumn wraps a string sequence.
func StringColumn(values []string) Column {
	return Column{kind: KindString, s: values}
}

// Kind returns the element type.
func (c Column) Kind() ColumnKind { return c.kind }

// IsZero reports whether the column is absent.
func (c Column) IsZero() bool { return c.kind == "" }

// Len returns the number of values.
func (c Column) Len() int {
	switch c.kind {
	case KindFloat64:
		return len(c.f)
	case KindInt64:
		return len(c.i)
	case KindString:
		return len(c.s)
	}
	return 0
}

// Float64s returns the backing slice of a float64 column, nil for any
// other kind.
func (c Column) Float64s() []float64 { return c.f }

// Int64s returns the backing slice of an int64 column, nil for any
// other kind.
func (c Column) Int64s() []int64 { return c.i }

// Strings returns the backing slice of a string column, nil for any
// other kind.
func (c Column) Strings() []string { return c.s }

// Numbers returns a float64 view of a numeric column. Int64 values are
// converted element-wise; string columns report false.
func (c Column) Numbers() ([]float64, bool) {
	switch c.kind {
	case KindFloat64:
		return c.f, true
	case KindInt64:
		out := make([]float64, len(c.i))
		for idx, v := range c.i {
			out[idx] = float64(v)
		}
		return out, true
	}
	return nil, false
}

// Equal reports whether two columns hold the same kind and values.
func (c Column) Equal(other Column) bool {
	if c.kind != other.kind {
		return false
	}
	switch c.kind {
	case KindFloat64:
		return slices.Equal(c.f, other.f)
	case KindInt64:
		return slices.Equal(c.i, other.i)
	case KindString:
		return slices.Equal(c.s, other.s)
	}
	return true
}

func (c Column) clone() Column {
	return Column{kind: c.kind, f: slices.Clone(c.f), i: slices.Clone(c.i), s: slices.Clone(c.s)}
}

// mask keeps the values selected by keep; kept is the number of true
// entries, passed in so the output can be sized up front.
func (c Column) mask(keep []bool, kept int) Column {
	switch c.kind {
	case KindFloat64:
		out := make([]float64, 0, kept)
		for idx, m := range keep {
			if m {
				out = append(out, c.f[idx])
			}
		}
		return Float64Column(out)
	case KindInt64:
		out := make([]int64, 0, kept)
		for idx, m := range keep {
			if m {
				out = append(out, c.i[idx])
			}
		}
		return Int64Column(out)
	case KindString:
		out := make([]string, 0, kept)
		for idx, m := range keep {
			if m {
				out = append(out, c.s[idx])
			}
		}
		return StringColumn(out)
	}
	return c
}

// reorder returns a copy permuted so that output position idx holds
// input position perm[idx].
func (c Column) reorder(perm []int) Column {
	switch c.kind {
	case KindFloat64:
		out := make([]float64, len(perm))
		for idx, p := range perm {
			out[idx] = c.f[p]
		}
		return Float64Column(out)
	case KindInt64:
		out := make([]int64, len(perm))
		for idx, p := range perm {
			out[idx] = c.i[p]
		}
		return Int64Column(out)
	case KindString:
		out := make([]string, len(perm))
		for idx, p := range perm {
			out[idx] = c.s[p]
		}
		return StringColumn(out)
	}
	return c
}

// appendColumns concatenates two columns of the same kind.
func appendColumns(a, b Column) (Column, error) {
	if a.kind != b.kind {
		return Column{}, fmt.Errorf("events: cannot concatenate %s column with %s column", a.kind, b.kind)
	}
	switch a.kind {
	case KindFloat64:
		return Float64Column(append(slices.Clone(a.f), b.f...)), nil
	case KindInt64:
		return Int64Column(append(slices.Clone(a.i), b.i...)), nil
	case KindString:
		return StringColumn(append(slices.Clone(a.s), b.s...)), nil
	}
	return Column{}, fmt.Errorf("events: cannot concatenate absent columns")
}

// zeroColumn builds a column of n zero values of the given kind.
func zeroColumn(kind ColumnKind, n int) Column {
	switch kind {
	case KindInt64:
		return Int64Column(make([]int64, n))
	case KindString:
		return StringColumn(make([]string, n))
	}
	return Float64Column(make([]float64, n))
}

type columnWire struct {
	Kind   ColumnKind      `json:"kind"`
	Values json.RawMessage `json:"values"`
}

// MarshalJSON encodes the column as {"kind": ..., "values": [...]}.
func (c Column) MarshalJSON() ([]byte, error) {
	var values any
	switch c.kind {
	case KindFloat64:
		values = c.f
	case KindInt64:
		values = c.i
	case KindString:
		values = c.s
	default:
		return nil, fmt.Errorf("events: cannot marshal an absent column")
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return json.Marshal(columnWire{Kind: c.kind, Values: raw})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (c *Column) UnmarshalJSON(data []byte) error {
	var wire columnWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Kind {
	case KindFloat64:
		var v []float64
		if err := json.Unmarshal(wire.Values, &v); err != nil {
			return err
		}
		*c = Float64Column(v)
	case KindInt64:
		var v []int64
		if err := json.Unmarshal(wire.Values, &v); err != nil {
			return err
		}
		*c = Int64Column(v)
	case KindString:
		var v []string
		if err := json.Unmarshal(wire.Values, &v); err != nil {
			return err
		}
		*c = StringColumn(v)
	default:
		return fmt.Errorf("events: unknown column kind %q", wire.Kind)
	}
	return nil
}

// GobEncode serializes the column for binary snapshots.
func (c Column) GobEncode() ([]byte, error) {
	if c.IsZero() {
		return nil, fmt.Errorf("events: cannot encode an absent column")
	}
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(string(c.kind)); err != nil {
		return nil, err
	}
	var err error
	switch c.kind {
	case KindFloat64:
		err = enc.Encode(c.f)
	case KindInt64:
		err = enc.Encode(c.i)
	case KindString:
		err = enc.Encode(c.s)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores a column written by GobEncode.
func (c *Column) GobDecode(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var kind string
	if err := dec.Decode(&kind); err != nil {
		return err
	}
	switch ColumnKind(kind) {
	case KindFloat64:
		var v []float64
		if err := dec.Decode(&v); err != nil {
			return err
		}
		*c = Float64Column(v)
	case KindInt64:
		var v []int64
		if err := dec.Decode(&v); err != nil {
			return err
		}
		*c = Int64Column(v)
	case KindString:
		var v []string
		if err := dec.Decode(&v); err != nil {
			return err
		}
		*c = StringColumn(v)
	default:
		return fmt.Errorf("events: unknown column kind %q", kind)
	}
	return nil
}
