package utils

import "time"

// UTCTimestamp returns the current time in the ISO-8601 UTC form used by
// persisted tool state, e.g. "2026-08-06T12:30:05Z".
func UTCTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
