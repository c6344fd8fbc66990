package tools

import (
	"log/slog"
	"os"
)

// jsonStore persists one document as human-readable indented JSON. An empty
// path means memory-only. Every mutation rewrites the whole file in place
// before the tool callback returns. The rewrite is not atomic: a crash
// mid-write can leave a truncated file, which the next load treats as an
// empty store.
type jsonStore struct {
	path string
}

// load fills v from the file. Missing or malformed files are treated as an
// empty store so a fresh path always works.
func (s jsonStore) load(v any) {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	if !json.Valid(data) {
		slog.Warn("Ignoring malformed store file", "path", s.path)
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("Ignoring malformed store file", "path", s.path, "error", err)
	}
}

// save writes v with 2-space indentation.
func (s jsonStore) save(v any) error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
