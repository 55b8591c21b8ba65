// Package fetch drives the borrower-address fetch loop: resolve the next
// date window, query the analytics service, write the snapshot file, and
// repeat while the resolver asks for another pass.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pmex/internal/query"
	"pmex/internal/snapshot"
	"pmex/internal/window"
)

// ErrUnexpectedResponse means the query service returned a result shape
// other than exactly one row.
var ErrUnexpectedResponse = errors.New("query returned unexpected row count")

// DefaultMaxIterations bounds the fetch loop. Two passes cover the worst
// supported case: finalize the previous month, then fetch the current month
// as partial.
const DefaultMaxIterations = 2

// Fetcher runs the fetch loop against a snapshot directory.
type Fetcher struct {
	dir           string // <DATA_DIR>/vega/borrowers
	runner        query.Runner
	maxIterations int
	now           func() time.Time
	log           *slog.Logger
}

// NewFetcher creates a Fetcher writing snapshots to dir. maxIterations
// values below 1 fall back to DefaultMaxIterations. now is injected so
// tests can fix the resolver's current month.
func NewFetcher(dir string, runner query.Runner, maxIterations int, now func() time.Time) *Fetcher {
	if maxIterations < 1 {
		maxIterations = DefaultMaxIterations
	}
	return &Fetcher{
		dir:           dir,
		runner:        runner,
		maxIterations: maxIterations,
		now:           now,
		log:           slog.Default().With("component", "fetcher"),
	}
}

// Run executes up to maxIterations fetch passes. Each pass re-reads the
// final snapshot listing, so a final snapshot written by one pass anchors
// the next. Any failure ends the run; the next invocation re-resolves from
// the filesystem state it left behind.
func (f *Fetcher) Run(ctx context.Context) error {
	for i := 0; i < f.maxIterations; i++ {
		runAgain, err := f.runOnce(ctx)
		if err != nil {
			return err
		}
		if !runAgain {
			return nil
		}
	}
	f.log.Warn("iteration budget exhausted with run_again still set", "maxIterations", f.maxIterations)
	return nil
}

func (f *Fetcher) runOnce(ctx context.Context) (runAgain bool, err error) {
	finals, err := snapshot.ListFinals(f.dir)
	if err != nil {
		return false, err
	}

	w, err := window.Resolve(finals, f.now())
	if err != nil {
		return false, err
	}

	params := query.Params{
		DateFrom: w.DateFrom.Format(window.QueryTimeFormat),
		DateTo:   w.DateTo.Format(window.QueryTimeFormat),
	}
	f.log.Info("fetching snapshot",
		"month", w.Month.String(),
		"status", string(w.Status),
		"dateFrom", params.DateFrom,
		"dateTo", params.DateTo,
	)

	rows, err := f.runner.RunQuery(ctx, params)
	if err != nil {
		return false, fmt.Errorf("running query for %s: %w", w.Month, err)
	}
	if len(rows) != 1 {
		return false, fmt.Errorf("%w: got %d rows, want 1", ErrUnexpectedResponse, len(rows))
	}

	addresses := splitAddresses(rows[0].Addresses)
	if err := snapshot.WriteSnapshot(f.dir, w.Filename, addresses); err != nil {
		return false, err
	}

	f.log.Info("snapshot written", "file", w.Filename, "addresses", len(addresses))
	return w.RunAgain, nil
}

// splitAddresses splits the service's comma-delimited address field,
// trimming whitespace and dropping empty entries.
func splitAddresses(field string) []string {
	parts := strings.Split(field, ",")
	addresses := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			addresses = append(addresses, p)
		}
	}
	return addresses
}
