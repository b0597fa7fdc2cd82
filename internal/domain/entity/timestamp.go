package entity

import (
	"fmt"
	"time"
)

// TimestampLayout is the only accepted wire format for event and query times.
const TimestampLayout = "2006-01-02T15:04:05Z"

// ParseTimestamp parses s in TimestampLayout and nothing else.
// time.Parse tolerates fractional seconds the layout does not name, so the
// result is re-formatted and compared to reject them.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: expected format YYYY-MM-DDTHH:MM:SSZ", s)
	}
	if t.Format(TimestampLayout) != s {
		return time.Time{}, fmt.Errorf("timestamp %q: expected format YYYY-MM-DDTHH:MM:SSZ", s)
	}
	return t.UTC(), nil
}

// FormatTimestamp renders t in TimestampLayout, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
