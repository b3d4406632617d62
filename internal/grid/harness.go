package grid

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/agent"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/audit"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/config"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/conversation"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/inference"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/influence"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/ledger"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/protocol"
)

// #region harness

// Harness drives one sweep: enumerate, resume-filter, dispatch to the worker
// pool, persist one row per point.
type Harness struct {
	config config.Config
	client inference.Client
	ledger *ledger.Ledger
	audit  *audit.Store // nil disables transcript auditing
}

// New wires a harness over an open ledger and (optionally) an audit store.
func New(cfg config.Config, client inference.Client, led *ledger.Ledger, auditStore *audit.Store) *Harness {
	return &Harness{config: cfg, client: client, ledger: led, audit: auditStore}
}

// Summary reports what one Run did.
type Summary struct {
	Planned   int // grid points in the full sweep
	Skipped   int // already present in the ledger
	Completed int // evaluated with full metrics this run
	Failed    int // evaluated but recorded as sentinel rows
	Elapsed   time.Duration
	BudgetHit bool
}

// #endregion harness

// #region run

// Run executes the sweep. Per-point conversation failures are recorded as
// sentinel rows and do not abort the run; ledger write errors do. The time
// budget is checked only at dispatch: in-flight points always finish and
// persist.
func (h *Harness) Run(ctx context.Context) (Summary, error) {
	keys := Enumerate(h.config.Sweep)
	if h.config.Shuffle {
		Shuffle(keys, h.config.ShuffleSeed)
	}

	done, err := ledger.LoadKeys(h.config.LedgerPath, h.config.RetryFailed)
	if err != nil {
		return Summary{}, err
	}

	todo := keys[:0:0]
	for _, key := range keys {
		if !done[key] {
			todo = append(todo, key)
		}
	}

	sum := Summary{Planned: len(keys), Skipped: len(keys) - len(todo)}
	log.Printf("[GRID] planned=%d already_done=%d to_run=%d workers=%d",
		sum.Planned, sum.Skipped, len(todo), h.config.Workers)

	var completed, failed atomic.Int64
	budget := time.Duration(h.config.TimeBudgetS) * time.Second
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.Workers)

	for i, key := range todo {
		if budget > 0 && time.Since(start) > budget {
			sum.BudgetHit = true
			log.Printf("[GRID] time budget %s hit, stopping dispatch after %d/%d points",
				budget, i, len(todo))
			break
		}
		if gctx.Err() != nil {
			break
		}

		i, key := i, key
		g.Go(func() error {
			row, ok := h.evaluatePoint(gctx, key)
			if err := h.ledger.Append(row); err != nil {
				return err
			}
			if ok {
				completed.Add(1)
			} else {
				failed.Add(1)
			}
			log.Printf("[GRID] [%d/%d] saved beta=%g k=%g tau=%g alpha=%g seed=%d adv=%v ok=%v",
				i+1, len(todo), key.Beta, key.K, key.Tau, key.Alpha, key.Seed, key.Adversarial, ok)
			return nil
		})
	}

	err = g.Wait()
	sum.Completed = int(completed.Load())
	sum.Failed = int(failed.Load())
	sum.Elapsed = time.Since(start)
	return sum, err
}

// #endregion run

// #region evaluate

// evaluatePoint runs the baseline+influence pair for one grid point and
// builds its row. Returns ok=false when either conversation failed; the row
// is then the sentinel with only the μ columns populated.
func (h *Harness) evaluatePoint(ctx context.Context, key ledger.Key) (ledger.Row, bool) {
	started := time.Now().UTC()

	pairCfg := conversation.PairConfig{
		Agent: agent.Config{
			Curves: influence.CurveConfig{
				T0:    h.config.T0,
				Alpha: key.Alpha,
				K:     key.K,
				Tau:   key.Tau,
			},
			Prior:    h.config.Prior,
			BaseTemp: h.config.BaseTemp,
		},
		MaxRounds:      h.config.MaxRounds,
		AgreeThreshold: h.config.AgreeThreshold,
		FeedbackBeta:   key.Beta,
		Adversarial:    key.Adversarial,
		Seed:           key.Seed,
	}

	pair := conversation.NewPair(pairCfg, protocol.NewValidator(), h.client)
	baseline, influenced := pair.Run(ctx)
	muP, muR, muC := pair.Mus()

	var row ledger.Row
	ok := !baseline.Failed && !influenced.Failed
	if ok {
		row = ComputeRow(key, baseline, influenced, h.config.MaxRounds)
	} else {
		row = ledger.SentinelRow(key)
	}
	row.MuPlanner, row.MuResearcher, row.MuCritic = muP, muR, muC

	h.recordAudit(key, baseline, influenced, started)
	return row, ok
}

// recordAudit persists both transcripts. Audit failures are logged, not
// fatal: the ledger row is the canonical result.
func (h *Harness) recordAudit(key ledger.Key, baseline, influenced conversation.Transcript, started time.Time) {
	if h.audit == nil {
		return
	}

	failed := baseline.Failed || influenced.Failed
	reason := baseline.FailReason
	if reason == "" {
		reason = influenced.FailReason
	}

	rec := audit.RunRecord{
		RunID:       uuid.New().String(),
		Beta:        key.Beta,
		K:           key.K,
		Tau:         key.Tau,
		Alpha:       key.Alpha,
		Seed:        key.Seed,
		Adversarial: key.Adversarial,
		Failed:      failed,
		FailReason:  reason,
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
	}

	var turns []audit.TurnRecord
	for _, t := range []conversation.Transcript{baseline, influenced} {
		for _, turn := range t.Turns {
			turns = append(turns, audit.TurnRecord{
				RunID:     rec.RunID,
				Condition: string(t.Condition),
				Role:      turn.Role,
				Round:     turn.Round,
				Repaired:  turn.Repaired,
				Raw:       turn.Raw,
			})
		}
	}

	if err := h.audit.RecordRun(rec, turns); err != nil {
		log.Printf("[GRID] audit record failed for run %s: %v", rec.RunID, err)
	}
}

// #endregion evaluate
