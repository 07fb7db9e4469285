// Package persistence provides SQLite-based storage for the poem history.
package persistence

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// PoemRecord is one generated poem as stored in the history table.
type PoemRecord struct {
	ID         int64  `db:"id" json:"id"`
	Timestamp  int64  `db:"timestamp" json:"timestamp"` // epoch millis of the minute the poem describes
	TimeString string `db:"time_string" json:"time_string"`
	Poem       string `db:"poem" json:"poem"`
	ModelUsed  string `db:"model_used" json:"model_used"`
	CreatedAt  string `db:"created_at" json:"created_at"`
}

// DB wraps a SQLite connection for poem history storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path. WAL mode keeps
// history reads from blocking behind the writer.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS poems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		time_string TEXT NOT NULL,
		poem TEXT NOT NULL,
		model_used TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_poems_timestamp ON poems(timestamp);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Append inserts one poem into the history. created_at is filled by SQLite.
func (db *DB) Append(rec PoemRecord) error {
	_, err := db.conn.Exec(
		"INSERT INTO poems (timestamp, time_string, poem, model_used) VALUES (?, ?, ?, ?)",
		rec.Timestamp, rec.TimeString, rec.Poem, rec.ModelUsed,
	)
	if err != nil {
		return fmt.Errorf("insert poem: %w", err)
	}
	return nil
}

// Prune deletes poems older than the retention window and reports how many
// rows went away.
func (db *DB) Prune(retentionHours int) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(retentionHours) * time.Hour).UnixMilli()
	res, err := db.conn.Exec("DELETE FROM poems WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune poems: %w", err)
	}
	return res.RowsAffected()
}

// ListRecent returns the newest poems first, at most limit rows.
func (db *DB) ListRecent(limit int) ([]PoemRecord, error) {
	var poems []PoemRecord
	err := db.conn.Select(&poems,
		"SELECT id, timestamp, time_string, poem, model_used, created_at FROM poems ORDER BY timestamp DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list poems: %w", err)
	}
	return poems, nil
}

// Count reports how many poems are currently retained.
func (db *DB) Count() (int64, error) {
	var n int64
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM poems"); err != nil {
		return 0, fmt.Errorf("count poems: %w", err)
	}
	return n, nil
}

// Checkpoint folds the write-ahead log back into the main database file and
// truncates it. Run from the maintenance job; the minute loop never needs it.
func (db *DB) Checkpoint() error {
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}
