package events

import (
	"math"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
)

func TestShift(t *testing.T) {
	ev := mustNew(t, []float64{1, 2, 3}, Options{
		Energy: []float64{10, 20, 30},
		GTI:    gti.List{{0, 4}},
	})

	got := ev.Shift(100)

	if !slices.Equal(got.Time, []float64{101, 102, 103}) {
		t.Errorf("Time = %v, want [101 102 103]", got.Time)
	}
	if got.GTI[0] != (gti.Interval{Start: 100, End: 104}) {
		t.Errorf("GTI = %v, want [[100 104]]", got.GTI)
	}
	if !slices.Equal(got.Energy(), []float64{10, 20, 30}) {
		t.Errorf("Energy() = %v, energies should not shift", got.Energy())
	}
	if ev.Time[0] != 1 || ev.GTI[0].Start != 0 {
		t.Error("Shift() mutated the original stream")
	}
}

func TestChangeMJDRef(t *testing.T) {
	ev := mustNew(t, []float64{86400}, Options{MJDRef: 55197, GTI: gti.List{{86000, 87000}}})

	got := ev.ChangeMJDRef(55198)

	if got.MJDRef != 55198 {
		t.Errorf("MJDRef = %g, want 55198", got.MJDRef)
	}
	// One day later epoch means timestamps drop by one day of seconds.
	if got.Time[0] != 0 {
		t.Errorf("Time = %v, want [0]", got.Time)
	}
	if got.GTI[0] != (gti.Interval{Start: -400, End: 600}) {
		t.Errorf("GTI = %v, want [[-400 600]]", got.GTI)
	}
	if ev.Time[0] != 86400 || ev.MJDRef != 55197 {
		t.Error("ChangeMJDRef() mutated the original stream")
	}
}

func TestChangeMJDRefRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mjdref := rapid.Float64Range(40000, 60000).Draw(t, "mjdref")
		newRef := rapid.Float64Range(40000, 60000).Draw(t, "newRef")
		times := rapid.SliceOfN(rapid.Float64Range(0, 1e6), 1, 50).Draw(t, "times")

		ev, err := New(slices.Clone(times), Options{MJDRef: mjdref})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		back := ev.ChangeMJDRef(newRef).ChangeMJDRef(mjdref)
		if back.MJDRef != mjdref {
			t.Fatalf("MJDRef = %g, want %g", back.MJDRef, mjdref)
		}
		for i := range times {
			// Absolute times survive the round trip up to float
			// rounding on the day conversion.
			if math.Abs(back.Time[i]-times[i]) > 1e-5 {
				t.Fatalf("Time[%d] = %g, want %g", i, back.Time[i], times[i])
			}
		}
	})
}

func TestShiftPreservesSpacing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		times := rapid.SliceOfN(rapid.Float64Range(-1e5, 1e5), 2, 50).Draw(t, "times")
		delta := rapid.Float64Range(-1e5, 1e5).Draw(t, "delta")

		ev, err := New(slices.Clone(times), Options{})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		got := ev.Shift(delta)

		for i := 1; i < len(times); i++ {
			before := times[i] - times[i-1]
			after := got.Time[i] - got.Time[i-1]
			if math.Abs(after-before) > 1e-9 {
				t.Fatalf("spacing changed at %d: %g vs %g", i, before, after)
			}
		}
	})
}
