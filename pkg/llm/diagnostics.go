package llm

import "sync"

// ErrorCallback is notified once for each error recorded by the library.
// It is advisory; nothing in the engine depends on one being registered.
type ErrorCallback func(kind Kind, message string)

// Errors are primarily returned as values. This slot is the compatibility
// layer for callers that want a query-style "last error" surface: every
// public operation records its failure here and clears it on success. The
// slot is process-global and mutex-guarded.
var (
	diagMu        sync.Mutex
	lastError     error
	errorCallback ErrorCallback
)

// SetErrorCallback replaces the global error callback. Passing nil removes it.
func SetErrorCallback(cb ErrorCallback) {
	diagMu.Lock()
	errorCallback = cb
	diagMu.Unlock()
}

// Record stores err as the most recent failure and notifies the callback.
// Record(nil) clears the slot.
func Record(err error) {
	if err == nil {
		ClearLastError()
		return
	}
	diagMu.Lock()
	lastError = err
	cb := errorCallback
	diagMu.Unlock()
	if cb != nil {
		cb(KindOf(err), err.Error())
	}
}

// ClearLastError empties the slot.
func ClearLastError() {
	diagMu.Lock()
	lastError = nil
	diagMu.Unlock()
}

// LastError returns the most recently recorded failure, or nil. The value is
// valid until the next library call that records or clears.
func LastError() error {
	diagMu.Lock()
	defer diagMu.Unlock()
	return lastError
}
