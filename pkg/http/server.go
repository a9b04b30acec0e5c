package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/leowmjw/go-temporal-eventstream/pkg/hcl"
	"github.com/leowmjw/go-temporal-eventstream/pkg/temporal"
)

// Server represents the HTTP server for the event stream service
type Server struct {
	logger         *slog.Logger
	temporalClient client.Client
	addr           string
}

// NewServer creates a new HTTP server
func NewServer(logger *slog.Logger, temporalClient client.Client, addr string) *Server {
	return &Server{
		logger:         logger,
		temporalClient: temporalClient,
		addr:           addr,
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc("POST /streams/{id}/events", s.handleIngestEvents)
	mux.HandleFunc("POST /streams/{id}/pipeline", s.handlePipeline)
	mux.HandleFunc("POST /streams/{id}/segments", s.handleSegments)
	mux.HandleFunc("GET /streams/{id}", s.handleStreamState)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Add middleware
	handler := s.loggingMiddleware(mux)

	server := &http.Server{
		Addr:    s.addr,
		Handler: handler,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// Event ingestion endpoint
func (s *Server) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	streamID := r.PathValue("id")
	if streamID == "" {
		s.respondError(w, http.StatusBadRequest, "stream ID is required")
		return
	}

	var records []json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if len(records) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one record is required")
		return
	}

	s.logger.Info("Ingesting records", "streamID", streamID, "count", len(records))

	// Convert to byte slices
	recordBytes := make([][]byte, len(records))
	for i, record := range records {
		recordBytes[i] = []byte(record)
	}

	// Send to Temporal workflow via signal
	workflowID := temporal.GenerateIngestionWorkflowID(streamID)

	// Use SignalWithStart to ensure workflow exists
	signal := temporal.EventBatchSignal{
		Records: recordBytes,
	}

	_, err := s.temporalClient.SignalWithStartWorkflow(
		r.Context(),
		workflowID,
		temporal.EventBatchSignalName,
		signal,
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: temporal.DefaultTaskQueue,
		},
		temporal.IngestionWorkflow,
		streamID,
	)

	if err != nil {
		s.logger.Error("Failed to signal workflow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to process records")
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":      "records queued for processing",
		"stream_id":    streamID,
		"record_count": len(records),
	})
}

// Pipeline endpoint accepting JSON or HCL request bodies
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	streamID := r.PathValue("id")
	if streamID == "" {
		s.respondError(w, http.StatusBadRequest, "stream ID is required")
		return
	}

	contentType, err := hcl.DetectContentType(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "unable to read request body")
		return
	}

	var request *temporal.PipelineRequest
	if contentType == hcl.ContentTypeHCL {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "unable to read request body")
			return
		}
		request, err = hcl.ParsePipeline(string(body))
		if err != nil {
			s.logger.Error("Failed to parse HCL pipeline", "error", err)
			s.respondError(w, http.StatusBadRequest, "invalid HCL configuration")
			return
		}
	} else {
		request = &temporal.PipelineRequest{}
		if err := json.NewDecoder(r.Body).Decode(request); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	// Ensure stream ID matches the path
	request.StreamID = streamID

	s.logger.Info("Processing pipeline", "streamID", streamID, "steps", len(request.Steps))

	// Start pipeline workflow
	workflowID := temporal.GeneratePipelineWorkflowID(streamID)

	workflowRun, err := s.temporalClient.ExecuteWorkflow(
		r.Context(),
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: temporal.DefaultTaskQueue,
		},
		temporal.PipelineWorkflow,
		*request,
	)

	if err != nil {
		s.logger.Error("Failed to start pipeline workflow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to start pipeline")
		return
	}

	// Wait for result
	var result *temporal.PipelineResult
	err = workflowRun.Get(r.Context(), &result)
	if err != nil {
		s.logger.Error("Pipeline workflow failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "pipeline execution failed")
		return
	}

	s.logger.Info("Pipeline completed", "streamID", streamID, "finalCount", result.FinalCount)
	s.respondJSON(w, http.StatusOK, result)
}

// Segmented binning endpoint
func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	streamID := r.PathValue("id")
	if streamID == "" {
		s.respondError(w, http.StatusBadRequest, "stream ID is required")
		return
	}

	var request temporal.SegmentedBinningRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Ensure stream ID matches the path
	request.StreamID = streamID

	s.logger.Info("Processing segmented binning", "streamID", streamID, "segments", len(request.GTI))

	// Start segmented binning workflow
	workflowID := temporal.GenerateSegmentsWorkflowID(streamID)

	workflowRun, err := s.temporalClient.ExecuteWorkflow(
		r.Context(),
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: temporal.DefaultTaskQueue,
		},
		temporal.SegmentedBinningWorkflow,
		request,
	)

	if err != nil {
		s.logger.Error("Failed to start segmented binning workflow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to start segmented binning")
		return
	}

	// Wait for result
	var result *temporal.SegmentedBinningResult
	err = workflowRun.Get(r.Context(), &result)
	if err != nil {
		s.logger.Error("Segmented binning workflow failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "segmented binning execution failed")
		return
	}

	s.logger.Info("Segmented binning completed", "streamID", streamID, "segments", len(result.Segments))
	s.respondJSON(w, http.StatusOK, result)
}

// Stream state endpoint backed by the ingestion workflow query handler
func (s *Server) handleStreamState(w http.ResponseWriter, r *http.Request) {
	streamID := r.PathValue("id")
	if streamID == "" {
		s.respondError(w, http.StatusBadRequest, "stream ID is required")
		return
	}

	workflowID := temporal.GenerateIngestionWorkflowID(streamID)

	response, err := s.temporalClient.QueryWorkflow(r.Context(), workflowID, "", temporal.IngestionStateQueryName)
	if err != nil {
		s.logger.Error("Failed to query ingestion workflow", "error", err)
		s.respondError(w, http.StatusNotFound, "stream not found")
		return
	}

	var state temporal.IngestionWorkflowState
	if err := response.Get(&state); err != nil {
		s.logger.Error("Failed to decode stream state", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to decode stream state")
		return
	}

	s.respondJSON(w, http.StatusOK, state)
}

// Health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Middleware for request logging
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap ResponseWriter to capture status code
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", duration,
			"user_agent", r.UserAgent(),
		)
	})
}

// Response helpers
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Warn("HTTP error response", "status", status, "message", message)
	s.respondJSON(w, status, map[string]string{"error": message})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
