package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
)

func newPipelineStream(t *testing.T) *events.EventList {
	t.Helper()
	ev, err := events.New([]float64{0.5, 1.5, 2.5, 3.5}, events.Options{
		Energy: []float64{0.3, 2.0, 0.8, 5.0},
		GTI:    gti.List{{Start: 0, End: 4}},
		MJDRef: 55197,
		DT:     0.1,
	})
	require.NoError(t, err)
	return ev
}

func TestProcessorFilterSteps(t *testing.T) {
	processor := NewPipelineProcessor()
	ev := newPipelineStream(t)

	request := PipelineRequest{
		StreamID: "obs-001",
		Steps: []PipelineStep{
			{ID: "soft", Type: "energy_range", Lo: 0, Hi: 3},
			{ID: "trim", Type: "mask", Mask: []bool{true, true, false}},
		},
	}

	result, err := processor.Execute(ev, request, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.InitialCount)
	assert.Equal(t, 2, result.FinalCount)
	require.Equal(t, 2, len(result.Steps))
	assert.Equal(t, "soft", result.Steps[0].ID)
	assert.Equal(t, 3, result.Steps[0].Count)
	assert.Equal(t, 2, result.Steps[1].Count)

	// The input stream is left untouched
	assert.Equal(t, 4, ev.Count())
}

func TestProcessorDeadtimeStep(t *testing.T) {
	processor := NewPipelineProcessor()
	ev, err := events.New([]float64{1, 1.05, 2, 2.03, 3}, events.Options{})
	require.NoError(t, err)

	request := PipelineRequest{
		Steps: []PipelineStep{{Type: "deadtime", Deadtime: 0.1}},
	}

	result, err := processor.Execute(ev, request, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.FinalCount)
	require.NotNil(t, result.Steps[0].Deadtime)
	assert.Equal(t, 5, result.Steps[0].Deadtime.Total)
	assert.Equal(t, 2, result.Steps[0].Deadtime.Dropped)
}

func TestProcessorShiftSteps(t *testing.T) {
	processor := NewPipelineProcessor()
	ev := newPipelineStream(t)

	request := PipelineRequest{
		Steps: []PipelineStep{
			{Type: "shift", Delta: 10},
			{Type: "change_mjdref", MJDRef: 55196},
		},
	}

	result, err := processor.Execute(ev, request, nil)
	require.NoError(t, err)

	assert.Equal(t, 55196.0, result.MJDRef)
	require.Equal(t, 1, len(result.GTI))
	assert.InDelta(t, 86410.0, result.GTI[0].Start, 1e-6)
}

func TestProcessorJoinStep(t *testing.T) {
	processor := NewPipelineProcessor()
	ev := newPipelineStream(t)

	other, err := events.New([]float64{10, 11}, events.Options{
		GTI: gti.List{{Start: 9, End: 12}},
	})
	require.NoError(t, err)

	loadOther := func(streamID string) (*events.EventList, error) {
		assert.Equal(t, "obs-002", streamID)
		return other, nil
	}

	request := PipelineRequest{
		Steps: []PipelineStep{{Type: "join", Other: "obs-002"}},
	}

	result, err := processor.Execute(ev, request, loadOther)
	require.NoError(t, err)

	assert.Equal(t, 6, result.FinalCount)
	assert.True(t, result.Notices.Has(events.NoticeGTIAppended))
}

func TestProcessorJoinWithoutLoader(t *testing.T) {
	processor := NewPipelineProcessor()
	ev := newPipelineStream(t)

	request := PipelineRequest{
		Steps: []PipelineStep{{ID: "merge", Type: "join", Other: "obs-002"}},
	}

	_, err := processor.Execute(ev, request, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error executing step merge")
}

func TestProcessorCurveSteps(t *testing.T) {
	processor := NewPipelineProcessor()
	ev := newPipelineStream(t)

	request := PipelineRequest{
		Steps: []PipelineStep{
			{Type: "lightcurve", DT: 1},
			{Type: "segment", DT: 2},
		},
	}

	result, err := processor.Execute(ev, request, nil)
	require.NoError(t, err)

	// Derivation steps leave the event count alone
	assert.Equal(t, 4, result.FinalCount)

	curve := result.Steps[0].Curve
	require.NotNil(t, curve)
	assert.Equal(t, 4, curve.Bins)
	assert.Equal(t, int64(4), curve.TotalCounts)
	assert.Equal(t, int64(1), curve.PeakCounts)

	segments := result.Steps[1].Segments
	require.Equal(t, 1, len(segments))
	assert.Equal(t, 0.0, segments[0].Start)
	assert.Equal(t, 4.0, segments[0].End)
	assert.Equal(t, 4, segments[0].Events)
	assert.Equal(t, 2, segments[0].Bins)
}

func TestProcessorSimulateEnergiesStep(t *testing.T) {
	processor := NewPipelineProcessor()
	ev, err := events.New([]float64{1, 2, 3}, events.Options{})
	require.NoError(t, err)

	request := PipelineRequest{
		Steps: []PipelineStep{{
			Type: "simulate_energies",
			Rows: [][]float64{{1, 2, 3}, {10, 0, 0}},
			Seed: 42,
		}},
	}

	result, err := processor.Execute(ev, request, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.FinalCount)

	// All the weight sits on the first channel
	energy := ev.Energy()
	require.Equal(t, 3, len(energy))
	for _, e := range energy {
		assert.Equal(t, 1.0, e)
	}
}

func TestProcessorUnknownStep(t *testing.T) {
	processor := NewPipelineProcessor()
	ev := newPipelineStream(t)

	request := PipelineRequest{
		Steps: []PipelineStep{{Type: "defragment"}},
	}

	_, err := processor.Execute(ev, request, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step type: defragment")
}
