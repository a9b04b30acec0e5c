package temporal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorageService(t *testing.T) {
	storage, err := NewSQLiteStorageService(":memory:")
	require.NoError(t, err)
	defer storage.Close()

	ctx := context.Background()
	first := [][]byte{
		[]byte(`{"time": 1.0, "energy": 0.8}`),
		[]byte(`{"time": 2.0, "energy": 1.3}`),
	}
	second := [][]byte{
		[]byte(`{"time": 3.0, "energy": 0.4}`),
	}

	require.NoError(t, storage.AppendEvents(ctx, "obs-001", first))
	require.NoError(t, storage.AppendEvents(ctx, "obs-001", second))
	require.NoError(t, storage.AppendEvents(ctx, "obs-002", [][]byte{
		[]byte(`{"time": 9.0}`),
	}))

	records, err := storage.LoadEvents(ctx, "obs-001")
	require.NoError(t, err)
	require.Equal(t, 3, len(records))

	// Append order is preserved
	assert.Equal(t, string(first[0]), string(records[0]))
	assert.Equal(t, string(first[1]), string(records[1]))
	assert.Equal(t, string(second[0]), string(records[2]))

	other, err := storage.LoadEvents(ctx, "obs-002")
	require.NoError(t, err)
	assert.Equal(t, 1, len(other))
}

func TestSQLiteStorageServiceEmptyStream(t *testing.T) {
	storage, err := NewSQLiteStorageService(":memory:")
	require.NoError(t, err)
	defer storage.Close()

	records, err := storage.LoadEvents(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteStorageServiceOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.db")

	storage, err := NewSQLiteStorageService(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, storage.AppendEvents(ctx, "obs-001", [][]byte{
		[]byte(`{"time": 1.0}`),
	}))
	require.NoError(t, storage.Close())

	// Reopen and verify the records survived
	reopened, err := NewSQLiteStorageService(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.LoadEvents(ctx, "obs-001")
	require.NoError(t, err)
	assert.Equal(t, 1, len(records))
}

func TestSQLiteStorageServiceEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorageService("")
	require.Error(t, err)
}
