package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/client"
	sdkMocks "go.temporal.io/sdk/mocks"

	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
	"github.com/leowmjw/go-temporal-eventstream/pkg/temporal"
)

func TestServer_handleIngestEvents_ValidJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{} // Use aliased import
	server := NewServer(logger, mockClient, ":8080")

	// Test JSON parsing and basic validation.
	// The Temporal call is mocked to return an error,
	// and we expect the server to handle this gracefully (e.g., by returning 500).
	records := []json.RawMessage{
		json.RawMessage(`{"time": 80000.5, "energy": 1.2}`),
	}

	body, _ := json.Marshal(records)
	req := httptest.NewRequest("POST", "/streams/obs-123/events", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "obs-123")

	// --- Mock Temporal Client Setup ---
	recordBytes := make([][]byte, len(records))
	for i, record := range records {
		recordBytes[i] = []byte(record)
	}
	expectedSignal := temporal.EventBatchSignal{
		Records: recordBytes,
	}
	expectedWorkflowID := temporal.GenerateIngestionWorkflowID("obs-123")
	expectedStreamID := "obs-123"
	expectedOptions := client.StartWorkflowOptions{
		ID:        expectedWorkflowID,
		TaskQueue: temporal.DefaultTaskQueue,
	}

	mockClient.On("SignalWithStartWorkflow",
		mock.Anything, // Context argument
		expectedWorkflowID,
		temporal.EventBatchSignalName,
		expectedSignal,
		expectedOptions,
		mock.AnythingOfType("func(internal.Context, string) error"), // Workflow function type as per panic
		expectedStreamID,
	).Return(nil, errors.New("mock temporal error")).Once()

	rr := httptest.NewRecorder()

	// Create a mux and register the handler
	mux := http.NewServeMux()
	mux.HandleFunc("POST /streams/{id}/events", server.handleIngestEvents)

	// Serve the request using the mux
	mux.ServeHTTP(rr, req)

	// --- Assertions ---
	// Expect InternalServerError because the mocked Temporal call returns an error.
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d after mocked Temporal error, got status %d. Response body: %s",
			http.StatusInternalServerError, rr.Code, rr.Body.String())
	}

	// Verify that all expectations set on the mock client were met.
	mockClient.AssertExpectations(t)
}

func TestServer_handleIngestEvents_InvalidJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	req := httptest.NewRequest("POST", "/streams/obs-123/events", strings.NewReader("invalid json"))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "obs-123")

	rr := httptest.NewRecorder()
	server.handleIngestEvents(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestServer_handleIngestEvents_EmptyRecords(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	records := []json.RawMessage{}
	body, _ := json.Marshal(records)

	req := httptest.NewRequest("POST", "/streams/obs-123/events", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "obs-123")

	rr := httptest.NewRecorder()
	server.handleIngestEvents(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestServer_handlePipeline(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Create mock Temporal client - test just validates request structure
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	// Test request structure validation
	pipelineRequest := temporal.PipelineRequest{
		MJDRef: 55197,
		Steps: []temporal.PipelineStep{
			{ID: "soft", Type: "energy_range", Lo: 0.3, Hi: 2.0},
		},
	}

	body, _ := json.Marshal(pipelineRequest)
	req := httptest.NewRequest("POST", "/streams/obs-123/pipeline", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "obs-123")

	// --- Mock Temporal Client Setup for ExecuteWorkflow ---
	expectedStreamID := "obs-123"
	// The pipelineRequest that will be passed to ExecuteWorkflow by the handler
	// will have its StreamID field populated.
	expectedPipelineRequest := pipelineRequest
	expectedPipelineRequest.StreamID = expectedStreamID

	// Expect ExecuteWorkflow to be called and return an error
	mockClient.On(
		"ExecuteWorkflow",
		mock.Anything, // Context (r.Context() will be passed by handler)
		mock.AnythingOfType("StartWorkflowOptions"), // Match any StartWorkflowOptions, using unqualified type
		mock.AnythingOfType("func(internal.Context, temporal.PipelineRequest) (*temporal.PipelineResult, error)"),
		expectedPipelineRequest, // The request object with StreamID set
	).Return(nil, errors.New("mock temporal ExecuteWorkflow error")).Once()

	rr := httptest.NewRecorder()
	// Use a mux to correctly simulate routing and path parameter extraction
	mux := http.NewServeMux()
	mux.HandleFunc("POST /streams/{id}/pipeline", server.handlePipeline)
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockClient.AssertExpectations(t) // Verify that ExecuteWorkflow was called as expected
}

func TestServer_handleSegments(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Create mock Temporal client - test just validates request structure
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	// Test request structure validation
	segmentsRequest := temporal.SegmentedBinningRequest{
		MJDRef:   55197,
		BinWidth: 1.0,
		GTI:      gti.List{{Start: 0, End: 100}},
	}

	body, _ := json.Marshal(segmentsRequest)
	req := httptest.NewRequest("POST", "/streams/obs-123/segments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "obs-123")

	// --- Mock Temporal Client Setup for ExecuteWorkflow ---
	expectedStreamID := "obs-123"
	// The segmentsRequest that will be passed to ExecuteWorkflow by the handler
	// will have its StreamID field populated.
	expectedSegmentsRequest := segmentsRequest
	expectedSegmentsRequest.StreamID = expectedStreamID

	// Expect ExecuteWorkflow to be called and return an error
	mockClient.On(
		"ExecuteWorkflow",
		mock.Anything, // Context
		mock.AnythingOfType("StartWorkflowOptions"), // Match any StartWorkflowOptions
		mock.AnythingOfType("func(internal.Context, temporal.SegmentedBinningRequest) (*temporal.SegmentedBinningResult, error)"),
		expectedSegmentsRequest, // The request object with StreamID set
	).Return(nil, errors.New("mock temporal ExecuteWorkflow error")).Once()

	rr := httptest.NewRecorder()
	// Use a mux to correctly simulate routing and path parameter extraction
	mux := http.NewServeMux()
	mux.HandleFunc("POST /streams/{id}/segments", server.handleSegments)
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockClient.AssertExpectations(t) // Verify that ExecuteWorkflow was called as expected
}

func TestServer_handleStreamState(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	state := temporal.IngestionWorkflowState{
		StreamID:   "obs-123",
		EventCount: 42,
	}
	expectedWorkflowID := temporal.GenerateIngestionWorkflowID("obs-123")

	mockClient.On("QueryWorkflow",
		mock.Anything,
		expectedWorkflowID,
		"",
		temporal.IngestionStateQueryName,
	).Return(encodedState{state: state}, nil).Once()

	req := httptest.NewRequest("GET", "/streams/obs-123", nil)
	req.SetPathValue("id", "obs-123")

	rr := httptest.NewRecorder()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /streams/{id}", server.handleStreamState)
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response temporal.IngestionWorkflowState
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "obs-123", response.StreamID)
	assert.Equal(t, 42, response.EventCount)

	mockClient.AssertExpectations(t)
}

func TestServer_handleStreamState_NotFound(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	mockClient.On("QueryWorkflow",
		mock.Anything,
		temporal.GenerateIngestionWorkflowID("obs-404"),
		"",
		temporal.IngestionStateQueryName,
	).Return(nil, errors.New("workflow not found")).Once()

	req := httptest.NewRequest("GET", "/streams/obs-404", nil)
	req.SetPathValue("id", "obs-404")

	rr := httptest.NewRecorder()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /streams/{id}", server.handleStreamState)
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	mockClient.AssertExpectations(t)
}

func TestServer_handleHealth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	server.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var response map[string]string
	err := json.NewDecoder(rr.Body).Decode(&response)
	if err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %s", response["status"])
	}

	if response["time"] == "" {
		t.Error("Expected time field to be populated")
	}
}

func TestServer_loggingMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response"))
	})

	// Wrap with logging middleware
	wrapped := server.loggingMiddleware(testHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	wrapped.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	if rr.Body.String() != "test response" {
		t.Errorf("Expected 'test response', got %s", rr.Body.String())
	}
}

func TestResponseWrapper(t *testing.T) {
	rr := httptest.NewRecorder()
	wrapper := &responseWrapper{ResponseWriter: rr, statusCode: http.StatusOK}

	wrapper.WriteHeader(http.StatusNotFound)

	if wrapper.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, wrapper.statusCode)
	}

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected response code %d, got %d", http.StatusNotFound, rr.Code)
	}
}

// encodedState satisfies converter.EncodedValue for stream state queries
type encodedState struct {
	state temporal.IngestionWorkflowState
}

func (e encodedState) HasValue() bool { return true }

func (e encodedState) Get(valuePtr interface{}) error {
	target, ok := valuePtr.(*temporal.IngestionWorkflowState)
	if !ok {
		return errors.New("unexpected query result type")
	}
	*target = e.state
	return nil
}
