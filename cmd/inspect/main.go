package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/audit"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to audit.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "dump the full transcript of one run")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/audit.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	store, err := audit.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runTranscriptMode(store, *runID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID       string  `json:"run_id"`
	Beta        float64 `json:"beta"`
	K           float64 `json:"k"`
	Tau         float64 `json:"tau"`
	Alpha       float64 `json:"alpha"`
	Seed        int     `json:"seed"`
	Adversarial bool    `json:"adversarial"`
	Failed      bool    `json:"failed"`
	FailReason  string  `json:"fail_reason,omitempty"`
	FinishedAt  string  `json:"finished_at"`
}

func runListMode(store *audit.Store, last int, jsonOut bool) error {
	runs, err := store.RecentRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = listRow{
			RunID:       r.RunID,
			Beta:        r.Beta,
			K:           r.K,
			Tau:         r.Tau,
			Alpha:       r.Alpha,
			Seed:        r.Seed,
			Adversarial: r.Adversarial,
			Failed:      r.Failed,
			FailReason:  r.FailReason,
			FinishedAt:  r.FinishedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-36s  %5s  %4s  %4s  %5s  %4s  %-5s  %-6s  %s\n",
		"Run", "Beta", "K", "Tau", "Alpha", "Seed", "Adv", "Status", "Finished")
	for _, r := range rows {
		status := "ok"
		if r.Failed {
			status = "failed"
		}
		fmt.Printf("%-36s  %5.2f  %4.1f  %4.2f  %5.2f  %4d  %-5v  %-6s  %s\n",
			r.RunID, r.Beta, r.K, r.Tau, r.Alpha, r.Seed, r.Adversarial, status, r.FinishedAt)
		if r.FailReason != "" {
			fmt.Printf("%-36s  reason: %s\n", "", r.FailReason)
		}
	}
	return nil
}

// #endregion list-mode

// #region transcript-mode

type transcriptRow struct {
	Condition string `json:"condition"`
	Role      string `json:"role"`
	Round     int    `json:"round"`
	Repaired  bool   `json:"repaired,omitempty"`
	Raw       string `json:"raw"`
}

func runTranscriptMode(store *audit.Store, runID string, jsonOut bool) error {
	turns, err := store.TurnsForRun(runID)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("run %s not found or has no turns", runID)
	}

	rows := make([]transcriptRow, len(turns))
	for i, t := range turns {
		rows[i] = transcriptRow{
			Condition: t.Condition,
			Role:      t.Role,
			Round:     t.Round,
			Repaired:  t.Repaired,
			Raw:       t.Raw,
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	cond := ""
	for _, r := range rows {
		if r.Condition != cond {
			cond = r.Condition
			fmt.Printf("== %s ==\n", cond)
		}
		tag := ""
		if r.Repaired {
			tag = " (repaired)"
		}
		fmt.Printf("[round %d] %s%s:\n%s\n\n", r.Round, r.Role, tag, r.Raw)
	}
	return nil
}

// #endregion transcript-mode

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
