// Package api provides the HTTP query surface for the poem clock.
// All endpoints are public GETs; nothing served here mutates state.
package api

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gangerang/poem-clock/internal/persistence"
	"github.com/gangerang/poem-clock/internal/scheduler"
)

//go:embed web
var webContent embed.FS

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Server serves the current poem and its history over HTTP.
type Server struct {
	Sched          *scheduler.Scheduler
	DB             *persistence.DB
	Model          string
	RetentionHours int
	Port           int
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// History reads hit the database; cap them per client.
	historyLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/current-poem", s.handleCurrentPoem)
	mux.HandleFunc("/api/poem-history", RateLimitMiddleware(historyLimiter, s.handlePoemHistory))
	mux.HandleFunc("/api/health", s.handleHealth)

	// The clock page ships inside the binary.
	webRoot, err := fs.Sub(webContent, "web")
	if err != nil {
		slog.Error("embedded clock page unavailable", "error", err)
	} else {
		mux.Handle("/", http.FileServer(http.FS(webRoot)))
	}

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, corsMiddleware(mux)); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware opens the read-only API to any origin, so the clock can be
// embedded in other pages.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCurrentPoem(w http.ResponseWriter, r *http.Request) {
	p := s.Sched.Current()
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, "poem not ready yet")
		return
	}

	writeJSON(w, map[string]any{
		"poem":       p.Text,
		"timeString": p.TimeLabel,
		"timestamp":  p.Timestamp,
	})
}

func (s *Server) handlePoemHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxHistoryLimit {
			limit = n
		}
	}

	poems, err := s.DB.ListRecent(limit)
	if err != nil {
		slog.Error("history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if poems == nil {
		poems = []persistence.PoemRecord{}
	}

	writeJSON(w, map[string]any{
		"poems":          poems,
		"count":          len(poems),
		"retentionHours": s.RetentionHours,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var current any
	if p := s.Sched.Current(); p != nil {
		current = p.TimeLabel
	}

	writeJSON(w, map[string]any{
		"status":         "ok",
		"model":          s.Model,
		"timestamp":      time.Now().UnixMilli(),
		"currentPoem":    current,
		"retentionHours": s.RetentionHours,
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
