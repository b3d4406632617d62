package ledger

import (
	"math"
	"strconv"
)

// #region key

// Key is the identity tuple of one grid point. Exact field equality is the
// dedup contract behind resume.
type Key struct {
	Beta        float64
	K           float64
	Tau         float64
	Alpha       float64
	Seed        int
	Adversarial bool
}

// #endregion key

// #region row

// Row is one persisted result record: the grid point, each agent's μ after
// feedback, and every metric column. Metric fields use NaN as the failure
// sentinel, rendered as NA in the file.
type Row struct {
	Key

	MuPlanner    float64
	MuResearcher float64
	MuCritic     float64

	RoundsToApprovalBaseline  float64
	RoundsToApprovalInfluence float64
	AgreementRateBaseline     float64
	AgreementRateInfluence    float64
	RevisionDepthBetweenRounds float64
	CanonicalBaseline         float64
	CanonicalInfluence        float64
	PlannerSelfAgreement      float64
	ResearcherSelfAgreement   float64
}

// SentinelRow builds the all-NA record for a grid point whose conversations
// failed irrecoverably. Recording it (rather than omitting it) is what keeps
// resume from retrying the point forever by default.
func SentinelRow(key Key) Row {
	nan := math.NaN()
	return Row{
		Key:                        key,
		MuPlanner:                  nan,
		MuResearcher:               nan,
		MuCritic:                   nan,
		RoundsToApprovalBaseline:   nan,
		RoundsToApprovalInfluence:  nan,
		AgreementRateBaseline:      nan,
		AgreementRateInfluence:     nan,
		RevisionDepthBetweenRounds: nan,
		CanonicalBaseline:          nan,
		CanonicalInfluence:         nan,
		PlannerSelfAgreement:       nan,
		ResearcherSelfAgreement:    nan,
	}
}

// Sentinel reports whether every metric column carries the failure sentinel.
func (r Row) Sentinel() bool {
	for _, v := range r.metricValues() {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

func (r Row) metricValues() []float64 {
	return []float64{
		r.RoundsToApprovalBaseline, r.RoundsToApprovalInfluence,
		r.AgreementRateBaseline, r.AgreementRateInfluence,
		r.RevisionDepthBetweenRounds,
		r.CanonicalBaseline, r.CanonicalInfluence,
		r.PlannerSelfAgreement, r.ResearcherSelfAgreement,
	}
}

// #endregion row

// #region encoding

// Header is the fixed column order of the result file.
var Header = []string{
	"beta", "k", "tau", "alpha", "seed", "adversarial",
	"mu_planner", "mu_researcher", "mu_critic",
	"RoundsToApproval_baseline", "RoundsToApproval_influence",
	"AgreementRate_baseline", "AgreementRate_influence",
	"RevisionDepth_between_rounds",
	"PlannerResearcher_Canonical_baseline", "PlannerResearcher_Canonical_influence",
	"Planner_SelfAgreement", "Researcher_SelfAgreement",
}

// NA is the sentinel written for NaN metric values.
const NA = "NA"

func (r Row) record() []string {
	out := []string{
		formatParam(r.Beta),
		formatParam(r.K),
		formatParam(r.Tau),
		formatParam(r.Alpha),
		strconv.Itoa(r.Seed),
		formatBool(r.Adversarial),
		formatMetric(r.MuPlanner),
		formatMetric(r.MuResearcher),
		formatMetric(r.MuCritic),
	}
	for _, v := range r.metricValues() {
		out = append(out, formatMetric(v))
	}
	return out
}

// formatParam round-trips sweep parameters exactly for resume-key equality.
func formatParam(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatMetric renders metric columns at fixed precision, NA for sentinels.
func formatMetric(f float64) string {
	if math.IsNaN(f) {
		return NA
	}
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// #endregion encoding
