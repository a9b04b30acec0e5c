package evio

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/leowmjw/go-temporal-eventstream/pkg/events"
)

// Store persists one event stream per SQLite database: an events table
// with one typed column per array attribute, plus a meta table of
// JSON-coded summary attributes.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the SQLite database at path. Use
// ":memory:" for an ephemeral store.
func OpenStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("evio: storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var columnNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Save writes the stream, replacing any previously stored one. Column
// names become SQL identifiers and must look like them.
func (s *Store) Save(ctx context.Context, ev *events.EventList) error {
	t := ToTable(ev)
	for _, name := range t.Names {
		if !columnNamePattern.MatchString(name) {
			return fmt.Errorf("evio: column name %q cannot be stored in sqlite", name)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DROP TABLE IF EXISTS events`,
		`DROP TABLE IF EXISTS meta`,
		`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare schema: %w", err)
		}
	}

	if len(t.Names) > 0 {
		defs := make([]string, len(t.Names))
		quoted := make([]string, len(t.Names))
		for i, name := range t.Names {
			quoted[i] = `"` + name + `"`
			defs[i] = quoted[i] + " " + sqliteType(t.Columns[name].Kind())
		}
		create := "CREATE TABLE events (" + strings.Join(defs, ", ") + ")"
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("create events table: %w", err)
		}

		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Names)), ", ")
		insert := "INSERT INTO events (" + strings.Join(quoted, ", ") + ") VALUES (" + placeholders + ")"
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for row := 0; row < t.Len(); row++ {
			args := make([]any, len(t.Names))
			for i, name := range t.Names {
				args[i] = columnValue(t.Columns[name], row)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert row %d: %w", row, err)
			}
		}
	}

	metaKeys := make([]string, 0, len(t.Meta))
	for key := range t.Meta {
		metaKeys = append(metaKeys, key)
	}
	sort.Strings(metaKeys)
	for _, key := range metaKeys {
		encoded, err := json.Marshal(t.Meta[key])
		if err != nil {
			return fmt.Errorf("encode meta %q: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, key, string(encoded)); err != nil {
			return fmt.Errorf("insert meta %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Load reads the stream back. Column kinds are recovered from the
// declared SQLite column types.
func (s *Store) Load(ctx context.Context) (*events.EventList, events.Notices, error) {
	t := &Table{Columns: make(map[string]events.Column), Meta: make(map[string]any)}

	hasEvents, err := s.tableExists(ctx, "events")
	if err != nil {
		return nil, nil, err
	}
	if hasEvents {
		if err := s.loadColumns(ctx, t); err != nil {
			return nil, nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, nil, fmt.Errorf("query meta: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, nil, fmt.Errorf("scan meta: %w", err)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			return nil, nil, fmt.Errorf("decode meta %q: %w", key, err)
		}
		t.Meta[key] = decoded
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("read meta: %w", err)
	}

	return FromTable(t)
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var found string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inspect schema: %w", err)
	}
	return true, nil
}

func (s *Store) loadColumns(ctx context.Context, t *Table) error {
	rows, err := s.db.QueryContext(ctx, `SELECT * FROM events ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("read column names: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("read column types: %w", err)
	}

	floats := make(map[int][]float64)
	ints := make(map[int][]int64)
	strs := make(map[int][]string)
	kinds := make([]events.ColumnKind, len(names))
	for i, ct := range types {
		switch strings.ToUpper(ct.DatabaseTypeName()) {
		case "REAL":
			kinds[i] = events.KindFloat64
		case "INTEGER":
			kinds[i] = events.KindInt64
		default:
			kinds[i] = events.KindString
		}
	}

	for rows.Next() {
		dests := make([]any, len(names))
		for i := range dests {
			switch kinds[i] {
			case events.KindFloat64:
				dests[i] = new(float64)
			case events.KindInt64:
				dests[i] = new(int64)
			default:
				dests[i] = new(string)
			}
		}
		if err := rows.Scan(dests...); err != nil {
			return fmt.Errorf("scan events row: %w", err)
		}
		for i := range dests {
			switch kinds[i] {
			case events.KindFloat64:
				floats[i] = append(floats[i], *dests[i].(*float64))
			case events.KindInt64:
				ints[i] = append(ints[i], *dests[i].(*int64))
			default:
				strs[i] = append(strs[i], *dests[i].(*string))
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read events: %w", err)
	}

	t.Names = names
	for i, name := range names {
		switch kinds[i] {
		case events.KindFloat64:
			t.Columns[name] = events.Float64Column(floats[i])
		case events.KindInt64:
			t.Columns[name] = events.Int64Column(ints[i])
		default:
			t.Columns[name] = events.StringColumn(strs[i])
		}
	}
	return nil
}

func sqliteType(kind events.ColumnKind) string {
	switch kind {
	case events.KindInt64:
		return "INTEGER"
	case events.KindString:
		return "TEXT"
	default:
		return "REAL"
	}
}

func columnValue(col events.Column, row int) any {
	switch col.Kind() {
	case events.KindFloat64:
		return col.Float64s()[row]
	case events.KindInt64:
		return col.Int64s()[row]
	default:
		return col.Strings()[row]
	}
}
