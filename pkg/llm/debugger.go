package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// StreamDebugger appends raw prompts and generations to a per-request log
// file under debug/. It centralizes directory creation, file naming and safe
// writes so backends only call Write.
type StreamDebugger struct {
	file    *os.File
	enabled bool
}

// NewStreamDebugger opens the debug file immediately when enabled. The
// request identifier stored under DebugDirContextKey groups dumps from one
// agent turn.
func NewStreamDebugger(ctx context.Context, backend string, enabled bool) *StreamDebugger {
	if !enabled {
		return &StreamDebugger{}
	}

	debugDir := filepath.Join("debug", "chunks", backend)
	if val := ctx.Value(DebugDirContextKey); val != nil {
		if id, ok := val.(string); ok && id != "" {
			debugDir = filepath.Join("debug", "chunks", id, backend)
		}
	}

	if err := os.MkdirAll(debugDir, 0755); err != nil {
		slog.Error("Failed to create debug directory", "dir", debugDir, "error", err)
		return &StreamDebugger{}
	}

	filename := filepath.Join(debugDir, fmt.Sprintf("%s.log", time.Now().Format("20060102_150405")))
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("Failed to open debug file", "file", filename, "error", err)
		return &StreamDebugger{}
	}

	slog.Debug("Debug mode ON", "backend", backend, "file", filename)
	return &StreamDebugger{file: f, enabled: true}
}

// Write appends data plus a trailing newline.
func (d *StreamDebugger) Write(data []byte) {
	if !d.enabled || d.file == nil {
		return
	}
	if _, err := d.file.Write(data); err != nil {
		slog.Warn("Failed to write to debug file", "error", err)
	}
	d.file.WriteString("\n")
}

// WriteString appends s plus a trailing newline.
func (d *StreamDebugger) WriteString(s string) {
	d.Write([]byte(s))
}

// Close releases the file handle.
func (d *StreamDebugger) Close() {
	if d.file != nil {
		d.file.Close()
		d.file = nil
	}
}
