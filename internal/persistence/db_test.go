package persistence

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "poems.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func testRecord(label string, ts int64) PoemRecord {
	return PoemRecord{
		Timestamp:  ts,
		TimeString: label,
		Poem:       "A verse for " + label,
		ModelUsed:  "test-model",
	}
}

func TestOpenCreatesEmptyHistory(t *testing.T) {
	db := openTestDB(t)

	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poems.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Append(testRecord("10:33 AM", time.Now().UnixMilli())); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Second open runs the migration again; it must not disturb existing rows.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() after reopen = %d, want 1", n)
	}
}

func TestAppendAndListRecent(t *testing.T) {
	db := openTestDB(t)

	base := time.Now().Truncate(time.Minute)
	for i, label := range []string{"10:31 AM", "10:32 AM", "10:33 AM"} {
		rec := testRecord(label, base.Add(time.Duration(i)*time.Minute).UnixMilli())
		if err := db.Append(rec); err != nil {
			t.Fatalf("Append(%s) error = %v", label, err)
		}
	}

	poems, err := db.ListRecent(10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(poems) != 3 {
		t.Fatalf("ListRecent() returned %d rows, want 3", len(poems))
	}

	// Newest first.
	if poems[0].TimeString != "10:33 AM" || poems[2].TimeString != "10:31 AM" {
		t.Errorf("order = [%s %s %s], want newest first",
			poems[0].TimeString, poems[1].TimeString, poems[2].TimeString)
	}

	got := poems[0]
	if got.ID == 0 {
		t.Error("ID not assigned")
	}
	if got.Poem != "A verse for 10:33 AM" {
		t.Errorf("Poem = %q, want stored text", got.Poem)
	}
	if got.ModelUsed != "test-model" {
		t.Errorf("ModelUsed = %q, want %q", got.ModelUsed, "test-model")
	}
	if got.CreatedAt == "" {
		t.Error("CreatedAt not filled by the database")
	}
}

func TestListRecentHonorsLimit(t *testing.T) {
	db := openTestDB(t)

	base := time.Now().Truncate(time.Minute)
	for i := 0; i < 5; i++ {
		rec := testRecord("10:30 AM", base.Add(time.Duration(i)*time.Minute).UnixMilli())
		if err := db.Append(rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	poems, err := db.ListRecent(2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(poems) != 2 {
		t.Errorf("ListRecent(2) returned %d rows, want 2", len(poems))
	}
	if poems[0].Timestamp < poems[1].Timestamp {
		t.Error("ListRecent(2) did not return the newest rows first")
	}
}

func TestPruneRemovesOnlyExpired(t *testing.T) {
	db := openTestDB(t)

	now := time.Now()
	old := testRecord("9:00 AM", now.Add(-25*time.Hour).UnixMilli())
	fresh := testRecord("10:33 AM", now.UnixMilli())
	if err := db.Append(old); err != nil {
		t.Fatalf("Append(old) error = %v", err)
	}
	if err := db.Append(fresh); err != nil {
		t.Fatalf("Append(fresh) error = %v", err)
	}

	deleted, err := db.Prune(24)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d rows, want 1", deleted)
	}

	poems, err := db.ListRecent(10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(poems) != 1 || poems[0].TimeString != "10:33 AM" {
		t.Errorf("surviving rows = %+v, want only the fresh poem", poems)
	}

	// Nothing left to prune.
	deleted, err = db.Prune(24)
	if err != nil {
		t.Fatalf("second Prune() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("second Prune() deleted %d rows, want 0", deleted)
	}
}

func TestCheckpoint(t *testing.T) {
	db := openTestDB(t)

	// Safe on an empty database.
	if err := db.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint() on empty db error = %v", err)
	}

	if err := db.Append(testRecord("10:33 AM", time.Now().UnixMilli())); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := db.Checkpoint(); err != nil {
		t.Errorf("Checkpoint() error = %v", err)
	}
}
