package imgconv

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Conversion outcomes stored in Entry.Status
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is a single conversion recorded in the HistoryDB
type Entry struct {
	ID           int64
	RunID        string
	Input        string
	Output       string
	InputFormat  string
	OutputFormat string
	Width        int
	Height       int
	SHA1         string
	Status       string
	Error        string
	Created      time.Time
}

// HistoryDB records every conversion attempted by a Converter
type HistoryDB struct {
	db *sql.DB
}

// NewHistoryDB opens the sqlite database in file, creating it and the
// schema as necessary
func NewHistoryDB(file string) (*HistoryDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS conversion (id INTEGER PRIMARY KEY NOT NULL, run TEXT NOT NULL, input TEXT NOT NULL, output TEXT NOT NULL, input_format TEXT NOT NULL, output_format TEXT NOT NULL, width INTEGER, height INTEGER, sha1 TEXT, status TEXT NOT NULL, error TEXT, created INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS conversion_sha1 ON conversion (sha1)"); err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryDB{
		db: db,
	}, nil
}

// Close closes the database
func (db *HistoryDB) Close() error {
	return db.db.Close()
}

func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Record stores e and returns its ID. If e.Created is zero the current time
// is used.
func (db *HistoryDB) Record(e Entry) (int64, error) {
	if e.Created.IsZero() {
		e.Created = time.Now()
	}
	result, err := db.db.Exec("INSERT INTO conversion (run, input, output, input_format, output_format, width, height, sha1, status, error, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.RunID, e.Input, e.Output, e.InputFormat, e.OutputFormat, nullInt(e.Width), nullInt(e.Height), nullString(e.SHA1), e.Status, nullString(e.Error), e.Created.UnixNano())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const selectEntries = "SELECT id, run, input, output, input_format, output_format, width, height, sha1, status, error, created FROM conversion"

func (db *HistoryDB) query(query string, args ...interface{}) ([]Entry, error) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var width, height, created sql.NullInt64
		var sha1, errText sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Input, &e.Output, &e.InputFormat, &e.OutputFormat, &width, &height, &sha1, &e.Status, &errText, &created); err != nil {
			return nil, err
		}
		e.Width, e.Height = int(width.Int64), int(height.Int64)
		e.SHA1, e.Error = sha1.String, errText.String
		e.Created = time.Unix(0, created.Int64)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Recent returns up to limit entries, newest first
func (db *HistoryDB) Recent(limit int) ([]Entry, error) {
	return db.query(selectEntries+" ORDER BY id DESC LIMIT ?", limit)
}

// FindByChecksum returns every entry whose input had the given SHA-1, in the
// order they were recorded
func (db *HistoryDB) FindByChecksum(sum string) ([]Entry, error) {
	return db.query(selectEntries+" WHERE sha1 = ? ORDER BY id", sum)
}

// Run returns every entry recorded with the given run ID
func (db *HistoryDB) Run(runID string) ([]Entry, error) {
	return db.query(selectEntries+" WHERE run = ? ORDER BY id", runID)
}
