package database

import "time"

// sqliteTimeLayout is the format produced by datetime('now').
const sqliteTimeLayout = "2006-01-02 15:04:05"

// FormatRunTime formats a created_at value for display, e.g.
// "Feb 06, 2026 14:03". Unparseable input is returned unchanged.
func FormatRunTime(createdAt *string) string {
	if createdAt == nil {
		return ""
	}
	t, err := time.Parse(sqliteTimeLayout, *createdAt)
	if err != nil {
		return *createdAt
	}
	return t.Format("Jan 02, 2006 15:04")
}

// ShortID returns the first eight characters of a run ID.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
