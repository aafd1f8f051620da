package database

import "time"

// Millis and FromMillis convert between time.Time and the integer
// millisecond columns used by every table.
func Millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
