package temporal

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"go.temporal.io/sdk/testsuite"

	"github.com/leowmjw/go-temporal-eventstream/pkg/gti"
)

func TestActivitiesImpl_AppendEventsActivity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	storage := NewMockStorageService()

	activities := NewActivitiesImpl(logger, storage)

	records := [][]byte{
		[]byte(`{"time": 1.0, "energy": 0.8}`),
		[]byte(`{"time": 2.0, "energy": 1.3}`),
	}

	err := activities.AppendEventsActivity(context.Background(), "obs-001", records)
	if err != nil {
		t.Fatalf("AppendEventsActivity failed: %v", err)
	}

	// Verify records were stored
	if storage.GetEventCount("obs-001") != 2 {
		t.Errorf("Expected 2 records in storage, got %d", storage.GetEventCount("obs-001"))
	}
}

func TestActivitiesImpl_LoadEventsActivity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	storage := NewMockStorageService()

	activities := NewActivitiesImpl(logger, storage)

	// Prepare test data
	testRecords := [][]byte{
		[]byte(`{"time": 1.0, "energy": 0.8}`),
		[]byte(`{"time": 2.0, "energy": 1.3}`),
	}

	// Store records first
	err := storage.AppendEvents(context.Background(), "obs-001", testRecords)
	if err != nil {
		t.Fatalf("Failed to store test records: %v", err)
	}

	// Load records
	records, err := activities.LoadEventsActivity(context.Background(), "obs-001")
	if err != nil {
		t.Fatalf("LoadEventsActivity failed: %v", err)
	}

	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
}

func TestActivitiesImpl_LoadEventsActivityEmptyStream(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	storage := NewMockStorageService()

	activities := NewActivitiesImpl(logger, storage)

	records, err := activities.LoadEventsActivity(context.Background(), "missing")
	if err != nil {
		t.Fatalf("LoadEventsActivity failed: %v", err)
	}

	if len(records) != 0 {
		t.Errorf("Expected 0 records, got %d", len(records))
	}
}

func TestActivitiesImpl_BinSegmentActivity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	storage := NewMockStorageService()
	activities := NewActivitiesImpl(logger, storage)

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(activities.BinSegmentActivity)

	request := BinSegmentRequest{
		Records: [][]byte{
			[]byte(`{"time": 0.5}`),
			[]byte(`{"time": 1.5}`),
			[]byte(`{"time": 1.6}`),
			[]byte(`{"time": 5.0}`),
		},
		Interval: gti.Interval{Start: 0, End: 2},
		BinWidth: 1,
	}

	val, err := env.ExecuteActivity(activities.BinSegmentActivity, request)
	if err != nil {
		t.Fatalf("BinSegmentActivity failed: %v", err)
	}

	var summary SegmentSummary
	if err := val.Get(&summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}

	// The event at t=5 falls outside the interval
	if summary.Events != 3 {
		t.Errorf("Expected 3 events in segment, got %d", summary.Events)
	}
	if summary.Bins != 2 {
		t.Errorf("Expected 2 bins, got %d", summary.Bins)
	}
	if summary.TotalCounts != 3 {
		t.Errorf("Expected 3 counts, got %d", summary.TotalCounts)
	}
}

func TestActivitiesImpl_BinSegmentActivityBadWidth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	storage := NewMockStorageService()
	activities := NewActivitiesImpl(logger, storage)

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(activities.BinSegmentActivity)

	request := BinSegmentRequest{
		Records:  [][]byte{[]byte(`{"time": 0.5}`)},
		Interval: gti.Interval{Start: 0, End: 2},
		BinWidth: 0,
	}

	_, err := env.ExecuteActivity(activities.BinSegmentActivity, request)
	if err == nil {
		t.Fatal("Expected error for zero bin width")
	}
}
