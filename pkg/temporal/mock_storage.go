package temporal

import (
	"context"
	"sync"
)

// MockStorageService implements StorageService for testing
type MockStorageService struct {
	mu      sync.RWMutex
	streams map[string][][]byte // streamID -> records
}

// NewMockStorageService creates a new mock storage service
func NewMockStorageService() *MockStorageService {
	return &MockStorageService{
		streams: make(map[string][][]byte),
	}
}

// AppendEvents appends records to the mock storage
func (m *MockStorageService) AppendEvents(ctx context.Context, streamID string, records [][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.streams[streamID] == nil {
		m.streams[streamID] = make([][]byte, 0)
	}

	m.streams[streamID] = append(m.streams[streamID], records...)
	return nil
}

// LoadEvents loads records from the mock storage
func (m *MockStorageService) LoadEvents(ctx context.Context, streamID string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, exists := m.streams[streamID]
	if !exists {
		return [][]byte{}, nil
	}

	return records, nil
}

// GetEventCount returns the number of records for a stream (for testing)
func (m *MockStorageService) GetEventCount(streamID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, exists := m.streams[streamID]
	if !exists {
		return 0
	}

	return len(records)
}
