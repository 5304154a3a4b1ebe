/*
Package sqlite provides the SQLite-backed table store.

PURPOSE:
  Holds the three agency tables (reservas, clientes, destinos) whose schema
  comes from the last imported workbook, plus the import_runs history.
  Implements agency.Store and agency.ImportLog.

REPLACE-LOAD:
  ReplaceTables drops, recreates and fills every given table inside ONE
  database transaction. SQLite DDL is transactional, so a failure on the
  third table rolls back the first two and the previous data stays intact.

CONCURRENCY:
  A sync.RWMutex serializes replace-loads against reads. A read never sees
  a half-replaced set (one table new, two old) or a missing table.

BASELINE SCHEMA:
  On New() the three tables are created empty with the canonical columns
  if they do not exist yet, so reads before the first import return no
  rows instead of failing. The first import replaces that schema.

CASE FOLDING:
  Connections are opened through a driver that registers query.FoldFunc
  (Unicode lower-casing) on every new connection.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging). ":memory:"
  databases are pinned to one connection; each new connection would
  otherwise see its own empty database.

USAGE:
  store, err := sqlite.New("./data/viajante.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - agency/store.go: Interface definitions
  - workbook/dataset.go: Dataset and inferred column types
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/viajante/agency-analytics/agency"
	"github.com/viajante/agency-analytics/query"
	"github.com/viajante/agency-analytics/workbook"
)

const (
	driverName      = "sqlite3_agency"
	importRunsTable = "import_runs"

	// timestampLayout is one of go-sqlite3's timestamp formats, so
	// TIMESTAMP columns scan back as time.Time.
	timestampLayout = "2006-01-02 15:04:05"

	// runTimeLayout has a fixed width so import_runs sort as text.
	runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(query.FoldFunc, strings.ToLower, true)
		},
	})
}

// Store implements the table store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the import history table and the baseline agency tables.
func (s *Store) migrate() error {
	schema := `
	-- Import history (fixed schema, never replaced by imports)
	CREATE TABLE IF NOT EXISTS import_runs (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		status TEXT NOT NULL,
		reservations INTEGER NOT NULL DEFAULT 0,
		customers INTEGER NOT NULL DEFAULT 0,
		destinations INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_import_runs_started_at
		ON import_runs(started_at DESC);

	-- Baseline agency tables, replaced by the first import
	CREATE TABLE IF NOT EXISTS reservas (
		id_reserva INTEGER,
		cliente TEXT,
		destino TEXT,
		canal_venda TEXT,
		dt_reserva TIMESTAMP,
		dt_embarque TIMESTAMP,
		receita REAL,
		custo REAL
	);

	CREATE TABLE IF NOT EXISTS clientes (
		cliente TEXT,
		uf TEXT,
		segmento TEXT,
		cidade TEXT
	);

	CREATE TABLE IF NOT EXISTS destinos (
		destino TEXT,
		pais TEXT,
		continente TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TABLE STORE (agency.Store interface)
// =============================================================================

// ReplaceTables replaces every dataset's table in one transaction.
func (s *Store) ReplaceTables(ctx context.Context, datasets ...*workbook.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ds := range datasets {
		if err := replaceTable(ctx, tx, ds); err != nil {
			return fmt.Errorf("failed to replace table %s: %w", ds.Name, err)
		}
	}

	return tx.Commit()
}

func replaceTable(ctx context.Context, tx *sql.Tx, ds *workbook.Dataset) error {
	if strings.EqualFold(ds.Name, importRunsTable) {
		return fmt.Errorf("table name %q is reserved", ds.Name)
	}
	if len(ds.Columns) == 0 {
		return fmt.Errorf("dataset has no columns")
	}

	table := quoteIdent(ds.Name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return err
	}

	defs := make([]string, len(ds.Columns))
	names := make([]string, len(ds.Columns))
	marks := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		defs[i] = quoteIdent(c.Name) + " " + string(c.Type)
		names[i] = quoteIdent(c.Name)
		marks[i] = "?"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(ds.Columns))
	for r, row := range ds.Rows {
		for i, v := range row {
			args[i] = toDB(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", r+1, err)
		}
	}
	return nil
}

// Query runs a read statement and maps every row by column name. When two
// result columns share a name the first one wins.
func (s *Store) Query(ctx context.Context, q string, args ...any) ([]agency.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []agency.Row{}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(agency.Row, len(cols))
		for i, c := range cols {
			if _, dup := row[c]; dup {
				continue
			}
			row[c] = fromDB(values[i])
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// =============================================================================
// IMPORT RUNS (agency.ImportLog interface)
// =============================================================================

// SaveImportRun records one import attempt.
func (s *Store) SaveImportRun(ctx context.Context, run agency.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt := `
		INSERT INTO import_runs
		(id, filename, status, reservations, customers, destinations, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, stmt,
		run.ID, run.Filename, string(run.Status),
		run.Reservations, run.Customers, run.Destinations,
		nullString(run.Error),
		run.StartedAt.UTC().Format(runTimeLayout),
		run.CompletedAt.UTC().Format(runTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save import run: %w", err)
	}
	return nil
}

// ListImportRuns returns the latest runs, newest first. limit <= 0 means 20.
func (s *Store) ListImportRuns(ctx context.Context, limit int) ([]agency.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, status, reservations, customers, destinations, error, started_at, completed_at
		FROM import_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}
	defer rows.Close()

	runs := []agency.ImportRun{}
	for rows.Next() {
		var (
			r                      agency.ImportRun
			status                 string
			errMsg                 sql.NullString
			startedAt, completedAt string
		)
		if err := rows.Scan(
			&r.ID, &r.Filename, &status, &r.Reservations, &r.Customers, &r.Destinations,
			&errMsg, &startedAt, &completedAt,
		); err != nil {
			return nil, err
		}
		r.Status = agency.ImportStatus(status)
		r.Error = errMsg.String
		r.StartedAt, _ = time.Parse(runTimeLayout, startedAt)
		r.CompletedAt, _ = time.Parse(runTimeLayout, completedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Helper functions

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func toDB(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(timestampLayout)
	}
	return v
}

func fromDB(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
