package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"

	"github.com/leowmjw/go-temporal-eventstream/pkg/hcl"
	"github.com/leowmjw/go-temporal-eventstream/pkg/temporal"
)

func main() {
	// Set up logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Define command line flags
	var (
		path        string
		stream      string
		address     string
		namespace   string
		displayJSON bool
		mode        string // "pipeline" or "ingest"
	)

	flag.StringVar(&path, "path", "", "Path to pipeline file, pipeline directory, or record file (required)")
	flag.StringVar(&stream, "stream", "", "Stream ID (overrides the pipeline file, required for ingest)")
	flag.StringVar(&address, "address", "localhost:7233", "Address of Temporal server")
	flag.StringVar(&namespace, "namespace", "default", "Temporal namespace")
	flag.BoolVar(&displayJSON, "json", false, "Display results as JSON")
	flag.StringVar(&mode, "mode", "pipeline", "Operation mode: 'pipeline' or 'ingest'")
	flag.Parse()

	// Validate required parameters
	if path == "" {
		logger.Error("Path parameter is required")
		flag.Usage()
		os.Exit(1)
	}

	if mode != "pipeline" && mode != "ingest" {
		logger.Error("Mode must be either 'pipeline' or 'ingest'")
		os.Exit(1)
	}

	if mode == "ingest" && stream == "" {
		logger.Error("Stream parameter is required for ingest mode")
		os.Exit(1)
	}

	// Create Temporal client
	c, err := client.Dial(client.Options{
		HostPort:  address,
		Namespace: namespace,
	})
	if err != nil {
		logger.Error("Unable to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	ctx := context.Background()

	if mode == "pipeline" {
		err = runPipeline(ctx, c, path, stream, displayJSON, logger)
	} else {
		err = runIngest(ctx, c, path, stream, logger)
	}

	if err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// loadPipelineRequest reads a pipeline definition from a single HCL or
// JSON file, or merges all HCL files under a directory.
func loadPipelineRequest(path string) (*temporal.PipelineRequest, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if fileInfo.IsDir() {
		return hcl.ParsePipelineDirectory(path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if hcl.IsHCLBasedOnExtension(path) {
		return hcl.ParsePipeline(string(content))
	}

	request := &temporal.PipelineRequest{}
	if err := json.Unmarshal(content, request); err != nil {
		return nil, fmt.Errorf("failed to parse JSON pipeline: %w", err)
	}
	return request, nil
}

// runPipeline parses and executes a stream pipeline
func runPipeline(ctx context.Context, c client.Client, path, stream string, jsonOutput bool, logger *slog.Logger) error {
	pipelineRequest, err := loadPipelineRequest(path)
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}

	// The -stream flag wins over the stream_id in the file
	if stream != "" {
		pipelineRequest.StreamID = stream
	}
	if pipelineRequest.StreamID == "" {
		return fmt.Errorf("no stream ID in pipeline file; pass -stream")
	}

	// Determine workflow ID
	workflowID := temporal.GeneratePipelineWorkflowID(pipelineRequest.StreamID)

	logger.Info("Executing pipeline",
		"stream_id", pipelineRequest.StreamID,
		"steps", len(pipelineRequest.Steps))

	// Execute the pipeline workflow
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: temporal.DefaultTaskQueue,
	}

	run, err := c.ExecuteWorkflow(ctx, options, temporal.PipelineWorkflow, *pipelineRequest)
	if err != nil {
		return fmt.Errorf("failed to execute pipeline workflow: %w", err)
	}

	var result temporal.PipelineResult
	if err := run.Get(ctx, &result); err != nil {
		return fmt.Errorf("failed to get pipeline result: %w", err)
	}

	// Display the result
	displayResult(result, jsonOutput, logger)

	return nil
}

// runIngest reads a JSON record file and signals it into a stream
func runIngest(ctx context.Context, c client.Client, path, stream string, logger *slog.Logger) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read record file: %w", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(content, &records); err != nil {
		return fmt.Errorf("failed to parse record file: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("record file is empty")
	}

	recordBytes := make([][]byte, len(records))
	for i, record := range records {
		recordBytes[i] = []byte(record)
	}

	workflowID := temporal.GenerateIngestionWorkflowID(stream)

	logger.Info("Ingesting records", "stream_id", stream, "count", len(records))

	_, err = c.SignalWithStartWorkflow(
		ctx,
		workflowID,
		temporal.EventBatchSignalName,
		temporal.EventBatchSignal{Records: recordBytes},
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: temporal.DefaultTaskQueue,
		},
		temporal.IngestionWorkflow,
		stream,
	)
	if err != nil {
		return fmt.Errorf("failed to signal ingestion workflow: %w", err)
	}

	fmt.Printf("Queued %d records for stream %s\n", len(records), stream)
	return nil
}

// displayResult shows the pipeline result in human-readable or JSON format
func displayResult(result temporal.PipelineResult, jsonOutput bool, logger *slog.Logger) {
	if jsonOutput {
		// Output as JSON
		resultJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			logger.Error("Failed to marshal result to JSON", "error", err)
			fmt.Printf("%+v\n", result)
		} else {
			fmt.Println(string(resultJSON))
		}
		return
	}

	// Output in human-readable format
	fmt.Println("Pipeline Result:")
	fmt.Printf("  Stream: %s\n", result.StreamID)
	fmt.Printf("  Events: %d -> %d\n", result.InitialCount, result.FinalCount)
	fmt.Printf("  MJDRef: %g\n", result.MJDRef)
	if len(result.GTI) > 0 {
		fmt.Printf("  GTIs: %d spanning [%g, %g)\n", len(result.GTI), result.GTI.MinBound(), result.GTI.MaxBound())
	}
	for _, step := range result.Steps {
		name := step.ID
		if name == "" {
			name = step.Type
		}
		fmt.Printf("  Step %s (%s): %d events\n", name, step.Type, step.Count)
		if step.Curve != nil {
			fmt.Printf("    Curve: %d bins, %d counts, peak %d\n",
				step.Curve.Bins, step.Curve.TotalCounts, step.Curve.PeakCounts)
		}
		for _, segment := range step.Segments {
			fmt.Printf("    Segment [%g, %g): %d events in %d bins\n",
				segment.Start, segment.End, segment.Events, segment.Bins)
		}
		if step.Deadtime != nil {
			fmt.Printf("    Deadtime: kept %d of %d\n", step.Deadtime.Kept, step.Deadtime.Total)
		}
	}
	for _, notice := range result.Notices {
		fmt.Printf("  Notice [%s]: %s\n", notice.Code, notice.Message)
	}
}
