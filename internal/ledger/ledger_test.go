package ledger

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func testRow(seed int) Row {
	return Row{
		Key:                        Key{Beta: 0.3, K: 3, Tau: 0.5, Alpha: 0.8, Seed: seed},
		MuPlanner:                  0.71,
		MuResearcher:               0.685,
		MuCritic:                   0.705,
		RoundsToApprovalBaseline:   1,
		RoundsToApprovalInfluence:  1,
		AgreementRateBaseline:      0.5,
		AgreementRateInfluence:     1,
		RevisionDepthBetweenRounds: 2,
		CanonicalBaseline:          0.5,
		CanonicalInfluence:         0.75,
		PlannerSelfAgreement:       0.5,
		ResearcherSelfAgreement:    0.5,
	}
}

func openTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.csv")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l, path
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func TestOpen_WritesHeaderOnce(t *testing.T) {
	l, path := openTestLedger(t)
	if err := l.Append(testRow(1)); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening an existing file must not duplicate the header.
	l2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l2.Append(testRow(2)); err != nil {
		t.Fatal(err)
	}
	l2.Close()

	recs := readAll(t, path)
	if len(recs) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(recs))
	}
	if recs[0][0] != "beta" || len(recs[0]) != len(Header) {
		t.Errorf("header = %v", recs[0])
	}
	if recs[1][0] == "beta" || recs[2][0] == "beta" {
		t.Error("duplicated header")
	}
}

func TestAppend_FullRowEncoding(t *testing.T) {
	l, path := openTestLedger(t)
	if err := l.Append(testRow(1)); err != nil {
		t.Fatal(err)
	}

	recs := readAll(t, path)
	row := recs[1]
	if len(row) != len(Header) {
		t.Fatalf("row has %d columns, want %d", len(row), len(Header))
	}
	if row[0] != "0.3" || row[4] != "1" || row[5] != "0" {
		t.Errorf("key columns = %v", row[:6])
	}
	if row[6] != "0.7100" {
		t.Errorf("mu_planner = %q", row[6])
	}
}

func TestAppend_SentinelRow(t *testing.T) {
	l, path := openTestLedger(t)
	key := Key{Beta: 0.2, K: 6, Tau: 0.3, Alpha: 1.2, Seed: 3, Adversarial: true}
	if err := l.Append(SentinelRow(key)); err != nil {
		t.Fatal(err)
	}

	recs := readAll(t, path)
	row := recs[1]
	if row[5] != "1" {
		t.Errorf("adversarial column = %q", row[5])
	}
	for i := 6; i < len(Header); i++ {
		if row[i] != NA {
			t.Errorf("column %s = %q, want NA", Header[i], row[i])
		}
	}
}

func TestLoadKeys_Resume(t *testing.T) {
	l, path := openTestLedger(t)
	l.Append(testRow(1))
	l.Append(testRow(2))
	failedKey := Key{Beta: 0.9, K: 6, Tau: 0.7, Alpha: 0.4, Seed: 5}
	l.Append(SentinelRow(failedKey))
	l.Close()

	done, err := LoadKeys(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 3 {
		t.Fatalf("expected 3 done keys, got %d", len(done))
	}
	if !done[testRow(1).Key] || !done[failedKey] {
		t.Errorf("missing keys in %v", done)
	}

	// retry_failed drops the sentinel row from the done set.
	retry, err := LoadKeys(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(retry) != 2 {
		t.Fatalf("expected 2 done keys with retryFailed, got %d", len(retry))
	}
	if retry[failedKey] {
		t.Error("sentinel row should be retried")
	}
}

func TestLoadKeys_MissingFileAndMalformedRows(t *testing.T) {
	done, err := LoadKeys(filepath.Join(t.TempDir(), "absent.csv"), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 0 {
		t.Errorf("missing file should yield empty set, got %v", done)
	}

	path := filepath.Join(t.TempDir(), "results.csv")
	content := strings.Join(Header, ",") + "\n" +
		"bogus,row\n" +
		"0.3,3,0.5,0.8,1,0,0.7,0.7,0.7,1.0000,1.0000,0.5000,1.0000,2.0000,0.5000,0.7500,0.5000,0.5000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	done, err = LoadKeys(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 1 {
		t.Errorf("expected 1 key, got %v", done)
	}
}

func TestAppend_ConcurrentRowsNeverInterleave(t *testing.T) {
	l, path := openTestLedger(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			if err := l.Append(testRow(seed)); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	l.Close()

	recs := readAll(t, path)
	if len(recs) != 51 {
		t.Fatalf("expected header + 50 rows, got %d", len(recs))
	}
	seen := make(map[string]bool)
	for _, rec := range recs[1:] {
		if len(rec) != len(Header) {
			t.Fatalf("torn row: %v", rec)
		}
		if seen[rec[4]] {
			t.Errorf("duplicate seed %s", rec[4])
		}
		seen[rec[4]] = true
	}
}

func TestSentinelDetection(t *testing.T) {
	if !SentinelRow(Key{}).Sentinel() {
		t.Error("SentinelRow should report Sentinel()")
	}
	r := testRow(1)
	if r.Sentinel() {
		t.Error("populated row should not be a sentinel")
	}
	r.AgreementRateBaseline = math.NaN()
	if r.Sentinel() {
		t.Error("single NaN column is not a full sentinel")
	}
}
