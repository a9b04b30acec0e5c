package events

import "fmt"

// maskColumns computes the filtered timestamps and column registry for
// a keep-mask. Array-shaped columns are filtered; off-shape columns are
// carried through untouched.
func (ev *EventList) maskColumns(mask []bool) ([]float64, map[string]Column, error) {
	if ev.Time == nil {
		return nil, nil, fmt.Errorf("events: cannot mask a stream without timestamps: %w", ErrNoTime)
	}
	n := len(ev.Time)
	if len(mask) != n {
		return nil, nil, fmt.Errorf("events: mask has %d entries for %d events: %w", len(mask), n, ErrLengthMismatch)
	}
	kept := 0
	for _, keep := range mask {
		if keep {
			kept++
		}
	}
	newTime := make([]float64, 0, kept)
	for i, keep := range mask {
		if keep {
			newTime = append(newTime, ev.Time[i])
		}
	}
	var cols map[string]Column
	if ev.columns != nil {
		cols = make(map[string]Column, len(ev.columns))
		for name, col := range ev.columns {
			if col.Len() == n {
				cols[name] = col.mask(mask, kept)
			} else {
				cols[name] = col
			}
		}
	}
	return newTime, cols, nil
}

// ApplyMask returns a new stream keeping only the events selected by
// mask. Array attributes are fresh, filtered copies; summary attributes
// are carried over verbatim and may share storage with the receiver.
func (ev *EventList) ApplyMask(mask []bool) (*EventList, error) {
	newTime, cols, err := ev.maskColumns(mask)
	if err != nil {
		return nil, err
	}
	out := *ev
	out.Time = newTime
	out.columns = cols
	return &out, nil
}

// ApplyMaskInPlace filters the receiver itself, keeping only the events
// selected by mask.
func (ev *EventList) ApplyMaskInPlace(mask []bool) error {
	newTime, cols, err := ev.maskColumns(mask)
	if err != nil {
		return err
	}
	ev.Time = newTime
	ev.columns = cols
	return nil
}

// rangeMask builds the keep-mask selecting events whose named column
// value v satisfies lo <= v < hi.
func (ev *EventList) rangeMask(name string, lo, hi float64) ([]bool, error) {
	col, ok := ev.columns[name]
	if !ok {
		return nil, fmt.Errorf("events: column %q: %w", name, ErrMissingColumn)
	}
	if ev.Time == nil {
		return nil, fmt.Errorf("events: cannot filter a stream without timestamps: %w", ErrNoTime)
	}
	if col.Len() != len(ev.Time) {
		return nil, fmt.Errorf("events: column %q has %d values for %d events: %w", name, col.Len(), len(ev.Time), ErrLengthMismatch)
	}
	values, ok := col.Numbers()
	if !ok {
		return nil, fmt.Errorf("events: column %q is not numeric", name)
	}
	mask := make([]bool, len(values))
	for i, v := range values {
		mask[i] = v >= lo && v < hi
	}
	return mask, nil
}

// FilterColumnRange returns a new stream keeping the events whose
// named column value falls in the half-open range [lo, hi).
func (ev *EventList) FilterColumnRange(name string, lo, hi float64) (*EventList, error) {
	mask, err := ev.rangeMask(name, lo, hi)
	if err != nil {
		return nil, err
	}
	return ev.ApplyMask(mask)
}

// FilterColumnRangeInPlace filters the receiver itself by the named
// column, keeping values in [lo, hi).
func (ev *EventList) FilterColumnRangeInPlace(name string, lo, hi float64) error {
	mask, err := ev.rangeMask(name, lo, hi)
	if err != nil {
		return err
	}
	return ev.ApplyMaskInPlace(mask)
}

// FilterEnergyRange returns a new stream keeping the events whose
// energy falls in [lo, hi). With usePI set, the instrument channel is
// used in place of calibrated energy.
func (ev *EventList) FilterEnergyRange(lo, hi float64, usePI bool) (*EventList, error) {
	name := ColEnergy
	if usePI {
		name = ColPI
	}
	return ev.FilterColumnRange(name, lo, hi)
}

// FilterEnergyRangeInPlace filters the receiver itself by energy,
// keeping values in [lo, hi). With usePI set, the instrument channel is
// used in place of calibrated energy.
func (ev *EventList) FilterEnergyRangeInPlace(lo, hi float64, usePI bool) error {
	name := ColEnergy
	if usePI {
		name = ColPI
	}
	return ev.FilterColumnRangeInPlace(name, lo, hi)
}

// DeadtimeMasker computes a keep-mask for detector dead time over
// sorted timestamps.
type DeadtimeMasker interface {
	DeadtimeMask(times []float64, deadtime float64) ([]bool, error)
}

// ApplyDeadtime returns a new stream with dead-time-filtered events,
// dropping every event that arrives while the detector is still blind
// from a previous one.
func (ev *EventList) ApplyDeadtime(masker DeadtimeMasker, deadtime float64) (*EventList, error) {
	if ev.Time == nil {
		return nil, fmt.Errorf("events: cannot apply dead time to a stream without timestamps: %w", ErrNoTime)
	}
	mask, err := masker.DeadtimeMask(ev.Time, deadtime)
	if err != nil {
		return nil, err
	}
	return ev.ApplyMask(mask)
}

// ApplyDeadtimeInPlace filters the receiver itself through a dead-time
// mask.
func (ev *EventList) ApplyDeadtimeInPlace(masker DeadtimeMasker, deadtime float64) error {
	if ev.Time == nil {
		return fmt.Errorf("events: cannot apply dead time to a stream without timestamps: %w", ErrNoTime)
	}
	mask, err := masker.DeadtimeMask(ev.Time, deadtime)
	if err != nil {
		return err
	}
	return ev.ApplyMaskInPlace(mask)
}
