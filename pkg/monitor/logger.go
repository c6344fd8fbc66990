// Package monitor holds the logging and diagnostics surface shared by the
// examples and the engine: the slog handler, its setup helper, and a plain
// terminal monitor for conversation traffic.
package monitor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// CustomHandler implements slog.Handler with a compact
// [time] [LEVEL] [trace] message k=v line format.
type CustomHandler struct {
	w     io.Writer
	opts  slog.HandlerOptions
	attrs []slog.Attr
}

// NewCustomHandler builds a handler writing to w.
func NewCustomHandler(w io.Writer, opts slog.HandlerOptions) *CustomHandler {
	return &CustomHandler{w: w, opts: opts}
}

func (h *CustomHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {
	buf := bytes.NewBuffer(nil)

	// Requests stash a trace id under the llm debug key; surface it so one
	// agent turn can be grepped out of the log.
	traceID := ""
	if ctx != nil {
		if val := ctx.Value("llm_debug_dir"); val != nil {
			if id, ok := val.(string); ok {
				traceID = id
			}
		}
	}

	fmt.Fprintf(buf, "[%s] [%s]", r.Time.Format("2006-01-02 15:04:05"), r.Level)
	if traceID != "" {
		fmt.Fprintf(buf, " [%s]", traceID)
	}
	fmt.Fprintf(buf, " %s", r.Message)

	for _, a := range h.attrs {
		h.appendAttr(buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(buf, a)
		return true
	})

	buf.WriteString("\n")
	h.w.Write(buf.Bytes())
	return nil
}

func (h *CustomHandler) appendAttr(buf *bytes.Buffer, a slog.Attr) {
	buf.WriteString(" ")
	buf.WriteString(a.Key)
	buf.WriteString("=")

	val := a.Value.Resolve()
	switch val.Kind() {
	case slog.KindString:
		fmt.Fprintf(buf, "%q", val.String())
	case slog.KindTime:
		buf.WriteString(val.Time().Format(time.RFC3339))
	default:
		fmt.Fprintf(buf, "%v", val.Any())
	}
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CustomHandler{
		w:     h.w,
		opts:  h.opts,
		attrs: append(h.attrs, attrs...),
	}
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	// Grouping is not needed by this library's call sites.
	return h
}

// SetupSlog installs the custom handler as the default logger at the given
// level ("debug", "info", "warn", "error").
func SetupSlog(levelStr string) {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := NewCustomHandler(os.Stderr, slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
