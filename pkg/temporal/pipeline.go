package temporal

import (
	"fmt"

	"github.com/leowmjw/go-temporal-eventstream/pkg/deadtime"
	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
	"github.com/leowmjw/go-temporal-eventstream/pkg/lightcurve"
	"github.com/leowmjw/go-temporal-eventstream/pkg/spectrum"
)

// LoadStreamFunc resolves another stream's event list for join steps.
type LoadStreamFunc func(streamID string) (*events.EventList, error)

// PipelineProcessor runs pipeline steps over an event list
type PipelineProcessor struct {
	// No fields needed for now, can be extended with configuration
}

// NewPipelineProcessor creates a new PipelineProcessor
func NewPipelineProcessor() *PipelineProcessor {
	return &PipelineProcessor{}
}

// Execute runs every step of a pipeline in order and reports per-step
// counts and notices. Steps that only derive products (light curves,
// segment summaries) leave the stream untouched.
func (p *PipelineProcessor) Execute(ev *events.EventList, request PipelineRequest, loadOther LoadStreamFunc) (*PipelineResult, error) {
	result := &PipelineResult{
		StreamID:     request.StreamID,
		InitialCount: ev.Count(),
		Steps:        make([]StepResult, 0, len(request.Steps)),
	}

	for _, step := range request.Steps {
		next, stepResult, err := p.executeStep(ev, step, loadOther)
		if err != nil {
			return nil, fmt.Errorf("error executing step %s: %w", stepName(step), err)
		}
		ev = next
		stepResult.ID = step.ID
		stepResult.Type = step.Type
		stepResult.Count = ev.Count()
		result.Steps = append(result.Steps, stepResult)
		result.Notices = append(result.Notices, stepResult.Notices...)
	}

	result.FinalCount = ev.Count()
	result.MJDRef = ev.MJDRef
	result.GTI = ev.GTI.Clone()
	return result, nil
}

// executeStep executes a single pipeline step
func (p *PipelineProcessor) executeStep(ev *events.EventList, step PipelineStep, loadOther LoadStreamFunc) (*events.EventList, StepResult, error) {
	var res StepResult
	switch step.Type {
	case "energy_range":
		next, err := ev.FilterEnergyRange(step.Lo, step.Hi, step.UsePI)
		if err != nil {
			return nil, res, err
		}
		return next, res, nil
	case "column_range":
		next, err := ev.FilterColumnRange(step.Column, step.Lo, step.Hi)
		if err != nil {
			return nil, res, err
		}
		return next, res, nil
	case "mask":
		next, err := ev.ApplyMask(step.Mask)
		if err != nil {
			return nil, res, err
		}
		return next, res, nil
	case "deadtime":
		filter := deadtime.Filter{Paralyzable: step.Paralyzable}
		mask, stats, err := filter.Mask(ev.Time, step.Deadtime)
		if err != nil {
			return nil, res, err
		}
		next, err := ev.ApplyMask(mask)
		if err != nil {
			return nil, res, err
		}
		res.Deadtime = &stats
		return next, res, nil
	case "shift":
		return ev.Shift(step.Delta), res, nil
	case "change_mjdref":
		return ev.ChangeMJDRef(step.MJDRef), res, nil
	case "join":
		if loadOther == nil {
			return nil, res, fmt.Errorf("join requires a stream loader")
		}
		other, err := loadOther(step.Other)
		if err != nil {
			return nil, res, fmt.Errorf("failed to load stream %s: %w", step.Other, err)
		}
		next, notices, err := ev.Join(other)
		if err != nil {
			return nil, res, err
		}
		res.Notices = notices
		return next, res, nil
	case "lightcurve":
		lc, err := lightcurve.FromEvents(ev, step.DT)
		if err != nil {
			return nil, res, err
		}
		summary := summarizeCurve(lc)
		res.Curve = &summary
		return ev, res, nil
	case "segment":
		for lc, err := range lightcurve.PerGTI(ev, step.DT) {
			if err != nil {
				return nil, res, err
			}
			res.Segments = append(res.Segments, summarizeSegment(lc))
		}
		return ev, res, nil
	case "simulate_energies":
		sampler, err := spectrum.FromRows(step.Rows)
		if err != nil {
			return nil, res, err
		}
		sampler.Seed(step.Seed)
		notices, err := ev.SimulateEnergies(sampler)
		if err != nil {
			return nil, res, err
		}
		res.Notices = notices
		return ev, res, nil
	default:
		return nil, res, fmt.Errorf("unknown step type: %s", step.Type)
	}
}

// Helper functions

func stepName(step PipelineStep) string {
	if step.ID != "" {
		return step.ID
	}
	return step.Type
}

func summarizeCurve(lc *lightcurve.LightCurve) LightCurveSummary {
	var total, peak int64
	for _, c := range lc.Counts {
		total += c
		if c > peak {
			peak = c
		}
	}
	return LightCurveSummary{
		Bins:        len(lc.Counts),
		DT:          lc.DT,
		TStart:      lc.TStart,
		TSeg:        lc.TSeg,
		TotalCounts: total,
		PeakCounts:  peak,
	}
}

func summarizeSegment(lc *lightcurve.LightCurve) SegmentSummary {
	var total int64
	for _, c := range lc.Counts {
		total += c
	}
	s := SegmentSummary{
		Bins:        len(lc.Counts),
		TotalCounts: total,
		Events:      int(total),
	}
	if len(lc.GTI) > 0 {
		s.Start = lc.GTI[0].Start
		s.End = lc.GTI[len(lc.GTI)-1].End
	}
	return s
}
