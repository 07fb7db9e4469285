// Command poemtail follows the poem history as the clock writes it, like
// tail -f for verses. WAL mode lets it read while the service holds the
// database open.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gangerang/poem-clock/internal/persistence"
)

func main() {
	// Poems go to stdout; keep the log channel quiet and separate.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	dbPath := envOrDefault("DB_PATH", "data/poems.db")
	pollSec := envIntOrDefault("POEMTAIL_INTERVAL", 5)
	if pollSec < 1 {
		pollSec = 1
	}

	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	total, err := db.Count()
	if err != nil {
		slog.Error("failed to read history", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Following %s (%d poems retained). Ctrl+C to stop.\n", dbPath, total)

	lastID := printNew(db, 0)

	ticker := time.NewTicker(time.Duration(pollSec) * time.Second)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			lastID = printNew(db, lastID)
		case <-sigCh:
			fmt.Println("\nPoemtail stopped.")
			return
		}
	}
}

// printNew prints poems appended since lastID, oldest first, and returns the
// newest ID seen.
func printNew(db *persistence.DB, lastID int64) int64 {
	recent, err := db.ListRecent(20)
	if err != nil {
		slog.Error("history read failed", "error", err)
		return lastID
	}

	// ListRecent is newest first; walk backwards to print chronologically.
	for i := len(recent) - 1; i >= 0; i-- {
		rec := recent[i]
		if rec.ID <= lastID {
			continue
		}
		fmt.Printf("\n--- %s (%s) ---\n%s\n", rec.TimeString, rec.ModelUsed, rec.Poem)
		lastID = rec.ID
	}
	return lastID
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
