package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	ts         TEXT NOT NULL,
	tool_name  TEXT NOT NULL DEFAULT '',
	decision   TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_ts ON entries(ts);
`

// SQLiteLog stores entries in a SQLite database. Unlike FileLog it is safe
// for several hook processes writing at once.
type SQLiteLog struct {
	db         *sql.DB
	maxEntries int
}

// OpenSQLite opens (and migrates) the database at path. ":memory:" gives a
// private in-memory log.
func OpenSQLite(path string, maxEntries int) (*SQLiteLog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating audit db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}
	// One connection keeps ":memory:" databases from splitting per conn.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring audit db: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating audit db: %w", err)
	}

	if maxEntries <= 0 {
		maxEntries = DefaultLookbackEntries
	}
	return &SQLiteLog{db: db, maxEntries: maxEntries}, nil
}

func (l *SQLiteLog) Append(e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding audit entry: %w", err)
	}
	_, err = l.db.Exec(
		`INSERT INTO entries (id, ts, tool_name, decision, body) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp, e.ToolName, e.Decision, string(body),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

func (l *SQLiteLog) Entries() ([]Entry, error) {
	rows, err := l.db.Query(`SELECT body FROM entries ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	return scanEntries(rows)
}

func (l *SQLiteLog) RecentMatching(now time.Time, window time.Duration, match func(Entry) bool) (bool, error) {
	rows, err := l.db.Query(`SELECT body FROM entries ORDER BY seq DESC LIMIT ?`, l.maxEntries)
	if err != nil {
		return false, fmt.Errorf("querying recent audit entries: %w", err)
	}
	newestFirst, err := scanEntries(rows)
	if err != nil {
		return false, err
	}
	for _, e := range newestFirst {
		if withinWindow(e, now, window) && match(e) {
			return true, nil
		}
	}
	return false, nil
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		var e Entry
		if err := json.Unmarshal([]byte(body), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
