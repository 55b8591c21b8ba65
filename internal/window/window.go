// Package window resolves the next fetch window for the PMEX borrower
// pipeline: which month to query, over which date range, under which
// snapshot filename, and whether a follow-up pass is needed.
package window

import (
	"errors"
	"fmt"
	"time"

	"pmex/internal/domain"
)

// Sentinel errors for the resolver's failure branches. Callers match with
// errors.Is.
var (
	// ErrNoFinalSnapshots means no final snapshot exists to anchor the
	// window computation. Seeding the first final snapshot is a manual step.
	ErrNoFinalSnapshots = errors.New("no final snapshot found")

	// ErrStaleData means the newest final snapshot is more than two months
	// behind the current month and the gap must be backfilled by hand.
	ErrStaleData = errors.New("snapshot data too far behind current month")

	// ErrInvariantViolation means the newest final snapshot is for the
	// current month or later, which indicates a clock or naming defect.
	ErrInvariantViolation = errors.New("final snapshot month not in the past")
)

// Window describes one fetch against the analytics query service.
type Window struct {
	DateFrom time.Time             // first instant of the target month (00:00)
	DateTo   time.Time             // last instant of the target month (23:59)
	Month    domain.MonthKey       // target month
	Status   domain.SnapshotStatus // final or partial
	Filename string                // snapshot file basename to write
	RunAgain bool                  // a second resolver pass is required
}

// QueryTimeFormat is the timestamp layout the analytics query service
// expects for date_from / date_to parameters.
const QueryTimeFormat = "2006-01-02 15:04"

// Resolve computes the next fetch window from the set of existing final
// snapshot month keys and the current time. It is a pure function; callers
// inject now to keep tests deterministic.
//
// Policy, by distance between the current month and the newest final month:
//
//	1   the prior month is finalized: fetch the current month as partial
//	2   the prior month is missing: fetch it as final, then run again
//	>2  too far behind, manual backfill required
//	<=0 unreachable under the naming invariant
func Resolve(finals []domain.MonthKey, now time.Time) (Window, error) {
	if len(finals) == 0 {
		return Window{}, ErrNoFinalSnapshots
	}

	latest := finals[0]
	for _, k := range finals[1:] {
		if latest.Before(k) {
			latest = k
		}
	}

	current := domain.MonthOf(now)
	diff := current.Diff(latest)

	switch {
	case diff == 1:
		return windowFor(current, domain.StatusPartial, false), nil
	case diff == 2:
		return windowFor(current.AddMonths(-1), domain.StatusFinal, true), nil
	case diff > 2:
		return Window{}, fmt.Errorf("%w: latest final is %s, current month is %s", ErrStaleData, latest, current)
	default:
		return Window{}, fmt.Errorf("%w: latest final is %s, current month is %s", ErrInvariantViolation, latest, current)
	}
}

func windowFor(month domain.MonthKey, status domain.SnapshotStatus, runAgain bool) Window {
	return Window{
		DateFrom: month.Start(),
		DateTo:   month.End(),
		Month:    month,
		Status:   status,
		Filename: month.SnapshotFilename(status),
		RunAgain: runAgain,
	}
}
