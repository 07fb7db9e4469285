// Command poemclock serves a poem about the current time, rewritten every
// minute.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gangerang/poem-clock/internal/api"
	"github.com/gangerang/poem-clock/internal/config"
	"github.com/gangerang/poem-clock/internal/generator"
	"github.com/gangerang/poem-clock/internal/llm"
	"github.com/gangerang/poem-clock/internal/maintenance"
	"github.com/gangerang/poem-clock/internal/persistence"
	"github.com/gangerang/poem-clock/internal/scheduler"
)

func main() {
	// ── Configuration ─────────────────────────────────────────────────
	// .env is a dev convenience; absence is normal in production.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("poem clock starting",
		"model", cfg.Model,
		"retention_hours", cfg.RetentionHours,
		"db", cfg.DBPath,
	)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Scheduler ─────────────────────────────────────────────────────
	client := llm.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model)
	gen := generator.New(client)

	// Start blocks until the first poem is in place, so the API below never
	// serves an empty clock after a normal boot.
	sched := scheduler.New(gen, db, cfg.Model, cfg.RetentionHours)
	sched.Start()

	// ── Maintenance ───────────────────────────────────────────────────
	maint := maintenance.New(db)
	if err := maint.Start(); err != nil {
		slog.Error("failed to start maintenance jobs", "error", err)
		os.Exit(1)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Sched:          sched,
		DB:             db,
		Model:          cfg.Model,
		RetentionHours: cfg.RetentionHours,
		Port:           cfg.Port,
	}
	apiServer.Start()

	fmt.Printf("\nPoem clock is ticking: http://localhost:%d\n", cfg.Port)
	fmt.Printf("Current poem: http://localhost:%d/api/current-poem\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop.")

	// ── Shutdown ──────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	sched.Stop()
	maint.Stop()

	fmt.Println("Poem clock stopped. History saved.")
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
