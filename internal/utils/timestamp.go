package utils

import "time"

// FormatIsoTimestamp renders t in UTC ISO8601. The zero time renders as an
// empty string so that optional times can be omitted from responses.
func FormatIsoTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
