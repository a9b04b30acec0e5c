package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/leowmjw/go-temporal-eventstream/pkg/deadtime"
	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
)

const (
	// Workflow IDs
	IngestionWorkflowIDPrefix = "stream-"
	PipelineWorkflowIDPrefix  = "pipeline-"
	SegmentsWorkflowIDPrefix  = "segments-"

	// Signal names
	EventBatchSignalName = "event-batch-signal"

	// Query names
	IngestionStateQueryName = "ingestion-state"

	// Activity names
	AppendEventsActivityName = "append-events"
	LoadEventsActivityName   = "load-events"
	RunPipelineActivityName  = "run-pipeline"
	BinSegmentActivityName   = "bin-segment"

	// Default values
	DefaultTaskQueue              = "eventstream-task-queue"
	DefaultContinueAsNewThreshold = 1000 // events before ContinueAsNew
)

// EventBatchSignal carries a batch of raw JSON detection records into
// an ingestion workflow.
type EventBatchSignal struct {
	Records [][]byte `json:"records"`
}

// PipelineRequest describes a processing pipeline to run against one
// stored stream: stream-level parameters plus an ordered list of steps.
// Meta carries metadata keywords (mission, instr, header and friends)
// applied to the decoded stream before any step runs.
type PipelineRequest struct {
	StreamID string         `json:"stream_id"`
	MJDRef   float64        `json:"mjdref,omitempty"`
	DT       float64        `json:"dt,omitempty"`
	GTI      gti.List       `json:"gti,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
	Steps    []PipelineStep `json:"steps"`
}

// PipelineStep is one operation in a pipeline. Type selects the
// operation; the other fields parameterize it and are ignored when the
// type does not use them.
type PipelineStep struct {
	ID          string      `json:"id,omitempty"`
	Type        string      `json:"type"`
	Column      string      `json:"column,omitempty"`
	Lo          float64     `json:"lo,omitempty"`
	Hi          float64     `json:"hi,omitempty"`
	UsePI       bool        `json:"use_pi,omitempty"`
	Mask        []bool      `json:"mask,omitempty"`
	Deadtime    float64     `json:"deadtime,omitempty"`
	Paralyzable bool        `json:"paralyzable,omitempty"`
	Delta       float64     `json:"delta,omitempty"`
	MJDRef      float64     `json:"mjdref,omitempty"`
	Other       string      `json:"other,omitempty"`
	DT          float64     `json:"dt,omitempty"`
	Rows        [][]float64 `json:"rows,omitempty"`
	Seed        int64       `json:"seed,omitempty"`
}

// StepResult reports what one pipeline step did.
type StepResult struct {
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type"`
	Count    int                `json:"count"`
	Notices  events.Notices     `json:"notices,omitempty"`
	Curve    *LightCurveSummary `json:"curve,omitempty"`
	Segments []SegmentSummary   `json:"segments,omitempty"`
	Deadtime *deadtime.Stats    `json:"deadtime,omitempty"`
}

// LightCurveSummary is the wire-friendly digest of a binned curve.
type LightCurveSummary struct {
	Bins        int     `json:"bins"`
	DT          float64 `json:"dt"`
	TStart      float64 `json:"tstart"`
	TSeg        float64 `json:"tseg"`
	TotalCounts int64   `json:"total_counts"`
	PeakCounts  int64   `json:"peak_counts"`
}

// SegmentSummary digests one GTI's worth of events or bins.
type SegmentSummary struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Events      int     `json:"events"`
	Bins        int     `json:"bins,omitempty"`
	TotalCounts int64   `json:"total_counts,omitempty"`
}

// PipelineResult is the final outcome of a pipeline run.
type PipelineResult struct {
	StreamID     string         `json:"stream_id"`
	InitialCount int            `json:"initial_count"`
	FinalCount   int            `json:"final_count"`
	MJDRef       float64        `json:"mjdref"`
	GTI          gti.List       `json:"gti,omitempty"`
	Steps        []StepResult   `json:"steps"`
	Notices      events.Notices `json:"notices,omitempty"`
}

// IngestionWorkflowState tracks the progress of an ingestion workflow.
type IngestionWorkflowState struct {
	StreamID    string    `json:"stream_id"`
	EventCount  int       `json:"event_count"`
	LastEventAt time.Time `json:"last_event_at"`
}

// IngestionWorkflow appends detection records to a specific stream as
// they arrive via signals.
func IngestionWorkflow(ctx workflow.Context, streamID string) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting ingestion workflow", "streamID", streamID)

	state := IngestionWorkflowState{
		StreamID:    streamID,
		EventCount:  0,
		LastEventAt: workflow.Now(ctx),
	}

	err := workflow.SetQueryHandler(ctx, IngestionStateQueryName, func() (IngestionWorkflowState, error) {
		return state, nil
	})
	if err != nil {
		return fmt.Errorf("failed to register state query: %w", err)
	}

	signalChan := workflow.GetSignalChannel(ctx, EventBatchSignalName)

	for {
		var batch EventBatchSignal
		signalChan.Receive(ctx, &batch)

		logger.Info("Received records", "count", len(batch.Records))

		ao := workflow.ActivityOptions{
			ScheduleToCloseTimeout: 30 * time.Second,
			RetryPolicy: &temporal.RetryPolicy{
				MaximumAttempts: 3,
			},
		}
		ctx = workflow.WithActivityOptions(ctx, ao)

		err := workflow.ExecuteActivity(ctx, AppendEventsActivityName, streamID, batch.Records).Get(ctx, nil)
		if err != nil {
			logger.Error("Failed to append records", "error", err)
			// Keep receiving later batches rather than failing the workflow
			continue
		}

		state.EventCount += len(batch.Records)
		state.LastEventAt = workflow.Now(ctx)

		// Roll over before the history grows unbounded
		if state.EventCount >= DefaultContinueAsNewThreshold {
			logger.Info("Continuing as new", "eventCount", state.EventCount)
			return workflow.NewContinueAsNewError(ctx, IngestionWorkflow, streamID)
		}
	}
}

// PipelineWorkflow loads a stream's records and runs a processing
// pipeline over them.
func PipelineWorkflow(ctx workflow.Context, request PipelineRequest) (*PipelineResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting pipeline workflow", "streamID", request.StreamID, "steps", len(request.Steps))

	ao := workflow.ActivityOptions{
		ScheduleToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var records [][]byte
	err := workflow.ExecuteActivity(ctx, LoadEventsActivityName, request.StreamID).Get(ctx, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	var result *PipelineResult
	err = workflow.ExecuteActivity(ctx, RunPipelineActivityName, request, records).Get(ctx, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to run pipeline: %w", err)
	}

	logger.Info("Pipeline completed", "streamID", request.StreamID, "finalCount", result.FinalCount)
	return result, nil
}

// Utility functions for workflow IDs

// GenerateIngestionWorkflowID creates a workflow ID for ingestion
func GenerateIngestionWorkflowID(streamID string) string {
	return IngestionWorkflowIDPrefix + streamID
}

// GeneratePipelineWorkflowID creates a workflow ID for pipeline runs
func GeneratePipelineWorkflowID(streamID string) string {
	return fmt.Sprintf("%s%s-%d", PipelineWorkflowIDPrefix, streamID, time.Now().UnixNano())
}

// GenerateSegmentsWorkflowID creates a workflow ID for segmented binning
func GenerateSegmentsWorkflowID(streamID string) string {
	return fmt.Sprintf("%s%s-%d", SegmentsWorkflowIDPrefix, streamID, time.Now().UnixNano())
}
