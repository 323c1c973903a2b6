package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO required

	"github.com/orbsim/orbsim/internal/domain"
)

// SQLiteSink persists LogRecords into a WAL-mode SQLite database for
// post-run querying: a single append-only log_records table.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if absent) the database at path, enabling
// WAL mode and a busy timeout, and runs the one migration this sink needs.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create log db dir: %w", err)
		}
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS log_records (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		sim_time   REAL NOT NULL,
		node_id    INTEGER NOT NULL,
		level      TEXT NOT NULL,
		event_kind TEXT NOT NULL,
		payload    TEXT NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_log_records_node_time ON log_records(node_id, sim_time)`)
	return err
}

// Write implements Sink. A marshal or insert failure is swallowed rather
// than propagated; a single malformed payload must never stall the
// scheduler.
func (s *SQLiteSink) Write(rec domain.LogRecord) {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		payload = []byte("{}")
	}
	s.db.Exec(
		`INSERT INTO log_records (sim_time, node_id, level, event_kind, payload) VALUES (?, ?, ?, ?, ?)`,
		rec.SimTime, rec.NodeID, string(rec.Level), string(rec.EventKind), string(payload),
	)
}

// Close flushes and closes the underlying database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Query returns every record for nodeID in sim-time order, for tests and
// post-run inspection; the sink's one read path, since the rest of the
// simulator only ever writes through Write.
func (s *SQLiteSink) Query(nodeID int) ([]domain.LogRecord, error) {
	rows, err := s.db.Query(
		`SELECT sim_time, node_id, level, event_kind, payload FROM log_records WHERE node_id = ? ORDER BY sim_time`,
		nodeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LogRecord
	for rows.Next() {
		var rec domain.LogRecord
		var level, kind, payload string
		if err := rows.Scan(&rec.SimTime, &rec.NodeID, &level, &kind, &payload); err != nil {
			return nil, err
		}
		rec.Level = domain.LogLevel(level)
		rec.EventKind = domain.EventKind(kind)
		json.Unmarshal([]byte(payload), &rec.Payload)
		out = append(out, rec)
	}
	return out, rows.Err()
}
