package database

import (
	"database/sql"
	"time"
)

// TimestampLayout is the fixed-width UTC layout used for TEXT timestamp columns,
// so lexical order matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NullTimestamp converts an optional time into a nullable TEXT value.
func NullTimestamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatTimestamp(*t), Valid: true}
}

// ParseTimestamp parses a TEXT timestamp written by FormatTimestamp.
// RFC 3339 values are accepted too.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// ParseNullTimestamp parses an optional TEXT timestamp.
func ParseNullTimestamp(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
