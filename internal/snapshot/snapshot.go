// Package snapshot manages the on-disk monthly snapshot files under
// <DATA_DIR>/vega/borrowers and merges them into the master address list.
package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pmex/internal/domain"
)

// ErrMissingDirectory means the snapshot directory does not exist. It is a
// configuration problem, not an empty-data condition.
var ErrMissingDirectory = errors.New("snapshot directory does not exist")

// BorrowersDirName is the subdirectory of the vega data dir that holds the
// monthly snapshot files.
const BorrowersDirName = "borrowers"

// ListFinals returns the month keys of all final snapshot files in dir.
// Files that do not follow the snapshot naming convention are ignored.
func ListFinals(dir string) ([]domain.MonthKey, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_raw.txt"))
	if err != nil {
		return nil, fmt.Errorf("globbing final snapshots: %w", err)
	}

	var keys []domain.MonthKey
	for _, m := range matches {
		if key, status, ok := domain.ParseSnapshotFilename(filepath.Base(m)); ok && status == domain.StatusFinal {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// WriteSnapshot writes one address per line to <dir>/<filename>, creating
// dir if needed. A final snapshot for a month supersedes that month's
// partial; existing files with the same name are replaced.
func WriteSnapshot(dir, filename string, addresses []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return fmt.Errorf("creating snapshot file %s: %w", filename, err)
	}

	w := bufio.NewWriter(f)
	for _, addr := range addresses {
		w.WriteString(addr + "\n")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing snapshot file %s: %w", filename, err)
	}
	return f.Close()
}

// Merger unions all final and partial snapshot files into a single sorted,
// deduplicated master address file.
type Merger struct {
	vegaDir       string // <DATA_DIR>/vega
	exportParquet bool
	now           func() time.Time
	log           *slog.Logger
}

// NewMerger creates a Merger rooted at the vega data directory. now is
// injected so tests can fix the output timestamp.
func NewMerger(vegaDir string, exportParquet bool, now func() time.Time) *Merger {
	return &Merger{
		vegaDir:       vegaDir,
		exportParquet: exportParquet,
		now:           now,
		log:           slog.Default().With("component", "merger"),
	}
}

// Merge scans the borrowers directory, unions every trimmed non-empty line
// across all final and partial snapshot files, and writes the sorted result
// to a new addresses_<timestamp>_<count>.txt file. It returns the output
// path. Merged content is deterministic given identical inputs.
func (m *Merger) Merge() (string, error) {
	borrowers := filepath.Join(m.vegaDir, BorrowersDirName)
	if _, err := os.Stat(borrowers); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrMissingDirectory, borrowers)
		}
		return "", err
	}

	files, err := snapshotFiles(borrowers)
	if err != nil {
		return "", err
	}

	set := make(map[string]struct{})
	for _, path := range files {
		if err := readAddresses(path, set); err != nil {
			return "", err
		}
	}

	addresses := make([]string, 0, len(set))
	for addr := range set {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	captured := m.now()
	timestamp := captured.Format("20060102150405")
	outPath := filepath.Join(m.vegaDir, fmt.Sprintf("addresses_%s_%d.txt", timestamp, len(addresses)))

	var buf strings.Builder
	for _, addr := range addresses {
		buf.WriteString(addr)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(outPath, []byte(buf.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing merged address file: %w", err)
	}

	if m.exportParquet {
		pqPath := filepath.Join(m.vegaDir, fmt.Sprintf("addresses_%s_%d.parquet", timestamp, len(addresses)))
		if err := writeParquet(pqPath, addresses, captured); err != nil {
			return "", err
		}
		m.log.Info("parquet export written", "path", pqPath)
	}

	m.log.Info("merged address file written",
		"path", outPath,
		"snapshots", len(files),
		"addresses", len(addresses),
	)
	return outPath, nil
}

// snapshotFiles returns the paths of all final and partial snapshot files
// in dir, ignoring anything that does not parse as a snapshot name.
func snapshotFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*_raw.txt", "*_raw_partial.txt"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("globbing snapshots: %w", err)
		}
		for _, m := range matches {
			if _, _, ok := domain.ParseSnapshotFilename(filepath.Base(m)); ok {
				files = append(files, m)
			}
		}
	}
	return files, nil
}

// readAddresses adds every trimmed non-empty line of the file to set.
func readAddresses(path string, set map[string]struct{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			set[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading snapshot %s: %w", filepath.Base(path), err)
	}
	return nil
}
