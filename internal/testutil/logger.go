package testutil

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// NopLogger returns a logger that drops everything
func NopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// LogEntry is one captured log record with its attributes flattened by key
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type logStore struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogRecorder is a slog.Handler that keeps every record at or above Debug.
// Groups are ignored; attributes from With are carried into each entry.
type LogRecorder struct {
	store *logStore
	attrs []slog.Attr
}

// NewLogRecorder returns a logger writing into a fresh LogRecorder
func NewLogRecorder() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{store: &logStore{}}
	return slog.New(rec), rec
}

// Enabled implements slog.Handler
func (h *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler
func (h *LogRecorder) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{Level: r.Level, Message: r.Message, Attrs: make(map[string]any, len(h.attrs)+r.NumAttrs())}
	for _, a := range h.attrs {
		entry.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.Any()
		return true
	})

	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.entries = append(h.store.entries, entry)
	return nil
}

// WithAttrs implements slog.Handler
func (h *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{store: h.store, attrs: append(slices.Clip(h.attrs), attrs...)}
}

// WithGroup implements slog.Handler
func (h *LogRecorder) WithGroup(string) slog.Handler {
	return h
}

// Entries returns a copy of every captured record
func (h *LogRecorder) Entries() []LogEntry {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return slices.Clone(h.store.entries)
}

// Find returns the first captured record with the given message
func (h *LogRecorder) Find(message string) (LogEntry, bool) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	i := slices.IndexFunc(h.store.entries, func(e LogEntry) bool { return e.Message == message })
	if i < 0 {
		return LogEntry{}, false
	}
	return h.store.entries[i], true
}
