// Package ledger persists one result row per grid point in an append-only
// CSV file. Appends are serialized and flushed whole, so concurrent workers
// never interleave partial rows, and an existing file is scanned into a
// resume key set instead of being rewritten.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync"
)

// #region ledger

// Ledger is the append handle for the result file. The zero value is not
// usable; call Open.
type Ledger struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *csv.Writer
}

// Open opens (or creates) the result file for appending, writing the header
// exactly once when the file is new or empty.
func Open(path string) (*Ledger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat ledger: %w", err)
	}

	l := &Ledger{path: path, f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := l.w.Write(Header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		l.w.Flush()
		if err := l.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush header: %w", err)
		}
		log.Printf("[LEDGER] created %s", path)
	}
	return l, nil
}

// Close flushes and closes the file.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return fmt.Errorf("flush ledger: %w", err)
	}
	return l.f.Close()
}

// Append writes one complete row and flushes it. Serialized under the
// ledger's mutex: a row is visible fully formed or not at all. Any write
// error is surfaced to the caller; dropping a computed result silently is
// worse than failing the run.
func (l *Ledger) Append(row Row) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.w.Write(row.record()); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	return nil
}

// #endregion ledger

// #region resume

// LoadKeys scans an existing result file into the set of already-persisted
// grid-point keys. When retryFailed is set, rows whose metric columns are all
// sentinels are left out of the set, so the next run retries those points.
// A missing file yields an empty set. Malformed rows are skipped.
func LoadKeys(path string, retryFailed bool) (map[Key]bool, error) {
	done := make(map[Key]bool)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return done, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger for resume: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == Header[0] {
				continue // header row
			}
		}
		key, failed, ok := parseRecord(rec)
		if !ok {
			continue
		}
		if retryFailed && failed {
			continue
		}
		done[key] = true
	}
	return done, nil
}

// parseRecord extracts the key tuple and whether the row is all-sentinel.
func parseRecord(rec []string) (Key, bool, bool) {
	if len(rec) < len(Header) {
		return Key{}, false, false
	}

	beta, err1 := strconv.ParseFloat(rec[0], 64)
	k, err2 := strconv.ParseFloat(rec[1], 64)
	tau, err3 := strconv.ParseFloat(rec[2], 64)
	alpha, err4 := strconv.ParseFloat(rec[3], 64)
	seed, err5 := strconv.Atoi(rec[4])
	adv, err6 := strconv.Atoi(rec[5])
	for _, err := range []error{err1, err2, err3, err4, err5, err6} {
		if err != nil {
			return Key{}, false, false
		}
	}

	failed := true
	for _, col := range rec[9:len(Header)] {
		if col != NA {
			failed = false
			break
		}
	}

	return Key{
		Beta:        beta,
		K:           k,
		Tau:         tau,
		Alpha:       alpha,
		Seed:        seed,
		Adversarial: adv != 0,
	}, failed, true
}

// #endregion resume
