package llm

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the library can report. Errors are carried
// as values through normal returns; the diagnostics slot in this package is
// a compatibility layer on top (see diagnostics.go).
type Kind int

const (
	KindNone Kind = iota
	// KindInvalidParam indicates a caller-supplied argument was rejected.
	KindInvalidParam
	// KindOutOfMemory indicates an allocation or resource reservation failed.
	KindOutOfMemory
	// KindModelNotFound indicates the requested model does not exist on the backend.
	KindModelNotFound
	// KindBackendInit indicates a backend could not be constructed.
	KindBackendInit
	// KindInference indicates a generation request failed after the backend was up.
	KindInference
	// KindToolNotFound indicates a tool call referenced an unregistered tool.
	KindToolNotFound
	// KindJSONParse indicates malformed JSON where valid JSON was mandatory.
	KindJSONParse
	// KindHTTP indicates a transport-level failure talking to a remote backend.
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "success"
	case KindInvalidParam:
		return "invalid parameter"
	case KindOutOfMemory:
		return "out of memory"
	case KindModelNotFound:
		return "model not found"
	case KindBackendInit:
		return "backend initialization failed"
	case KindInference:
		return "inference failed"
	case KindToolNotFound:
		return "tool not found"
	case KindJSONParse:
		return "JSON parse failed"
	case KindHTTP:
		return "HTTP request failed"
	default:
		return "unknown error"
	}
}

// Error is the library's error value. Message describes the specific failure;
// Err optionally carries the underlying cause for errors.Is/As chains.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and context to an underlying error.
func WrapError(kind Kind, err error, message string) *Error {
	if message == "" && err != nil {
		message = err.Error()
	} else if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind carried by err, or KindNone for nil and foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindNone
}
