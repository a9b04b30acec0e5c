package temporal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStorageService implements StorageService on a local SQLite
// database. Records are stored verbatim and returned in append order.
type SQLiteStorageService struct {
	db *sql.DB
}

// NewSQLiteStorageService opens or creates the database at path.
// The path ":memory:" keeps everything in process memory.
func NewSQLiteStorageService(path string) (*SQLiteStorageService, error) {
	if path == "" {
		return nil, errors.New("temporal: empty database path")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("temporal: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("temporal: ping database: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS records (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	stream_id TEXT NOT NULL,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS records_stream_idx ON records (stream_id, seq);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("temporal: create schema: %w", err)
	}

	return &SQLiteStorageService{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStorageService) Close() error {
	return s.db.Close()
}

// AppendEvents persists records under the given stream in one transaction.
func (s *SQLiteStorageService) AppendEvents(ctx context.Context, streamID string, records [][]byte) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("temporal: begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (stream_id, payload) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("temporal: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		if _, err := stmt.ExecContext(ctx, streamID, record); err != nil {
			return fmt.Errorf("temporal: insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("temporal: commit append: %w", err)
	}
	return nil
}

// LoadEvents returns every record of a stream in append order.
func (s *SQLiteStorageService) LoadEvents(ctx context.Context, streamID string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM records WHERE stream_id = ? ORDER BY seq`, streamID)
	if err != nil {
		return nil, fmt.Errorf("temporal: query records: %w", err)
	}
	defer rows.Close()

	records := make([][]byte, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("temporal: scan record: %w", err)
		}
		records = append(records, payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("temporal: iterate records: %w", err)
	}
	return records, nil
}
