// Package domain defines the core types shared across the PMEX pipeline:
// month keys, snapshot statuses, and snapshot filename conventions.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SnapshotStatus tags a snapshot file as covering a fully elapsed month
// (final) or the still-in-progress current month (partial).
type SnapshotStatus string

const (
	StatusFinal   SnapshotStatus = "final"
	StatusPartial SnapshotStatus = "partial"
)

// MonthKey identifies one calendar month. Keys are totally ordered and
// support signed month-distance arithmetic.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the MonthKey containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Diff returns the signed number of months from o to k. A positive result
// means k is later than o.
func (k MonthKey) Diff(o MonthKey) int {
	return (k.Year-o.Year)*12 + int(k.Month) - int(o.Month)
}

// Before reports whether k is strictly earlier than o.
func (k MonthKey) Before(o MonthKey) bool {
	return k.Diff(o) < 0
}

// AddMonths returns the key n months after k (n may be negative).
func (k MonthKey) AddMonths(n int) MonthKey {
	t := time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return MonthOf(t)
}

// Start returns 00:00 on the first calendar day of the month (UTC).
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns 23:59 on the last calendar day of the month (UTC).
func (k MonthKey) End() time.Time {
	// Day 0 of the next month is the last day of this month.
	last := time.Date(k.Year, k.Month+1, 0, 0, 0, 0, 0, time.UTC)
	return time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 0, 0, time.UTC)
}

// String formats the key as YYYY_MM, the prefix used in snapshot filenames.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d_%02d", k.Year, int(k.Month))
}

// SnapshotFilename returns the snapshot file basename for this month and
// status: YYYY_MM_raw.txt for final, YYYY_MM_raw_partial.txt for partial.
func (k MonthKey) SnapshotFilename(status SnapshotStatus) string {
	if status == StatusPartial {
		return k.String() + "_raw_partial.txt"
	}
	return k.String() + "_raw.txt"
}

// ParseSnapshotFilename parses a snapshot file basename into its month key
// and status. ok is false for names that are not snapshot files.
func ParseSnapshotFilename(name string) (key MonthKey, status SnapshotStatus, ok bool) {
	var rest string
	switch {
	case strings.HasSuffix(name, "_raw_partial.txt"):
		rest = strings.TrimSuffix(name, "_raw_partial.txt")
		status = StatusPartial
	case strings.HasSuffix(name, "_raw.txt"):
		rest = strings.TrimSuffix(name, "_raw.txt")
		status = StatusFinal
	default:
		return MonthKey{}, "", false
	}

	parts := strings.Split(rest, "_")
	if len(parts) != 2 {
		return MonthKey{}, "", false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return MonthKey{}, "", false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return MonthKey{}, "", false
	}
	return MonthKey{Year: year, Month: time.Month(month)}, status, true
}
