// Package generator turns clock-time labels into short poems.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// avoidWords are clock clichés the prompt bans outright.
var avoidWords = []string{"tick", "tock", "tick-tock", "o'clock", "chime"}

// CompletionClient is the single call the generator needs from the LLM layer.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator writes a poem for a given time label.
type Generator struct {
	client CompletionClient
}

// New creates a generator backed by the given completion client.
func New(client CompletionClient) *Generator {
	return &Generator{client: client}
}

// Generate returns a poem for timeLabel. It never fails: on any API error or
// empty reply it logs the problem and returns a fixed fallback verse that
// still names the time.
func (g *Generator) Generate(ctx context.Context, timeLabel string) string {
	prompt := buildPrompt(timeLabel)

	text, err := g.client.Complete(ctx, prompt)
	if err != nil {
		slog.Warn("poem generation failed, using fallback", "label", timeLabel, "error", err)
		return fallbackPoem(timeLabel)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		slog.Warn("poem generation returned nothing, using fallback", "label", timeLabel)
		return fallbackPoem(timeLabel)
	}

	slog.Debug("poem generated", "label", timeLabel, "poem", text)
	return text
}

func buildPrompt(timeLabel string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a short rhyming poem, two to four lines, about the time %s.\n", timeLabel)
	b.WriteString("Work the time itself into the poem naturally.\n")
	fmt.Fprintf(&b, "Avoid these words entirely: %s.\n", strings.Join(avoidWords, ", "))
	b.WriteString("Reply with the poem only. No title, no quotation marks, no commentary.")

	return b.String()
}

// fallbackPoem is the deterministic stand-in served when the API is down.
func fallbackPoem(timeLabel string) string {
	return fmt.Sprintf("At %s the moment slips away,\nanother quiet minute of the day.", timeLabel)
}
