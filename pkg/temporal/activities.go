package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/activity"

	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
	"github.com/leowmjw/go-temporal-eventstream/pkg/lightcurve"
)

// Activities interface defines all the activities used by workflows
type Activities interface {
	AppendEventsActivity(ctx context.Context, streamID string, records [][]byte) error
	LoadEventsActivity(ctx context.Context, streamID string) ([][]byte, error)
	RunPipelineActivity(ctx context.Context, request PipelineRequest, records [][]byte) (*PipelineResult, error)
	BinSegmentActivity(ctx context.Context, request BinSegmentRequest) (*SegmentSummary, error)
}

// StorageService defines the interface for durable record storage
type StorageService interface {
	AppendEvents(ctx context.Context, streamID string, records [][]byte) error
	LoadEvents(ctx context.Context, streamID string) ([][]byte, error)
}

// ActivitiesImpl implements the Activities interface
type ActivitiesImpl struct {
	logger  *slog.Logger
	storage StorageService
}

// NewActivitiesImpl creates a new activities implementation
func NewActivitiesImpl(logger *slog.Logger, storage StorageService) *ActivitiesImpl {
	return &ActivitiesImpl{
		logger:  logger,
		storage: storage,
	}
}

// AppendEventsActivity persists detection records to durable storage
func (a *ActivitiesImpl) AppendEventsActivity(ctx context.Context, streamID string, records [][]byte) error {
	a.logger.Info("Appending records", "streamID", streamID, "count", len(records))

	if err := a.storage.AppendEvents(ctx, streamID, records); err != nil {
		a.logger.Error("Failed to append to storage", "error", err)
		return fmt.Errorf("failed to append to storage: %w", err)
	}

	a.logger.Info("Successfully appended records", "streamID", streamID, "count", len(records))
	return nil
}

// LoadEventsActivity loads a stream's records from storage
func (a *ActivitiesImpl) LoadEventsActivity(ctx context.Context, streamID string) ([][]byte, error) {
	a.logger.Info("Loading records", "streamID", streamID)

	records, err := a.storage.LoadEvents(ctx, streamID)
	if err != nil {
		a.logger.Error("Failed to load records", "error", err)
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	a.logger.Info("Successfully loaded records", "streamID", streamID, "count", len(records))
	return records, nil
}

// RunPipelineActivity decodes a stream's records and runs a pipeline
// over them. Join steps pull the other stream from storage on demand.
func (a *ActivitiesImpl) RunPipelineActivity(ctx context.Context, request PipelineRequest, records [][]byte) (*PipelineResult, error) {
	a.logger.Info("Running pipeline",
		"streamID", request.StreamID, "recordCount", len(records), "stepCount", len(request.Steps))

	ev, notices, err := BuildEventList(records, request)
	if err != nil {
		a.logger.Error("Failed to decode records", "error", err)
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	loadOther := func(streamID string) (*events.EventList, error) {
		otherRecords, err := a.storage.LoadEvents(ctx, streamID)
		if err != nil {
			return nil, err
		}
		other, _, err := BuildEventList(otherRecords, PipelineRequest{StreamID: streamID})
		return other, err
	}

	processor := NewPipelineProcessor()
	result, err := processor.Execute(ev, request, loadOther)
	if err != nil {
		a.logger.Error("Failed to run pipeline", "error", err)
		return nil, fmt.Errorf("failed to run pipeline: %w", err)
	}
	result.Notices = append(notices, result.Notices...)

	a.logger.Info("Pipeline completed",
		"streamID", request.StreamID, "initialCount", result.InitialCount, "finalCount", result.FinalCount)
	return result, nil
}

// BinSegmentActivity bins the events of a single good time interval
func (a *ActivitiesImpl) BinSegmentActivity(ctx context.Context, request BinSegmentRequest) (*SegmentSummary, error) {
	a.logger.Info("Binning segment",
		"start", request.Interval.Start, "end", request.Interval.End, "recordCount", len(request.Records))

	activity.RecordHeartbeat(ctx, map[string]interface{}{
		"start":       request.Interval.Start,
		"end":         request.Interval.End,
		"recordCount": len(request.Records),
	})

	if request.BinWidth <= 0 {
		return nil, fmt.Errorf("bin width must be positive, got %g", request.BinWidth)
	}

	ev, _, err := BuildEventList(request.Records, PipelineRequest{
		MJDRef: request.MJDRef,
		DT:     request.DT,
		GTI:    gti.List{request.Interval},
	})
	if err != nil {
		a.logger.Error("Failed to decode records", "error", err)
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	summary := SegmentSummary{
		Start: request.Interval.Start,
		End:   request.Interval.End,
	}
	for seg := range ev.Segments() {
		lc, err := lightcurve.Make(seg.Times, request.BinWidth,
			seg.Interval.Start, seg.Interval.Duration(), gti.List{seg.Interval}, request.MJDRef)
		if err != nil {
			a.logger.Error("Failed to bin segment", "error", err)
			return nil, fmt.Errorf("failed to bin segment: %w", err)
		}
		summary.Events = len(seg.Times)
		summary.Bins = len(lc.Counts)
		for _, c := range lc.Counts {
			summary.TotalCounts += c
		}
	}

	a.logger.Info("Successfully binned segment",
		"start", summary.Start, "end", summary.End, "events", summary.Events, "bins", summary.Bins)
	return &summary, nil
}
