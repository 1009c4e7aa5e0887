// Package biztime holds the time conventions used across persistence and
// event metadata. Everything is stored in UTC; rows keep unix milliseconds.
package biztime

import "time"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToMillis converts t to unix milliseconds for storage.
func ToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromMillis is the inverse of ToMillis. Zero maps to the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// FormatMetadataTime formats a timestamp for event metadata (RFC3339).
func FormatMetadataTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
