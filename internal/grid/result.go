package grid

import (
	"math"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/conversation"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/ledger"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/metrics"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/protocol"
)

// #region compute-row

// ComputeRow assembles the result row for a grid point from the two completed
// transcripts. Per-condition metrics compare the planner's and researcher's
// terminal turns. The caller handles failed transcripts; here both are
// assumed complete.
func ComputeRow(key ledger.Key, baseline, influenced conversation.Transcript, maxRounds int) ledger.Row {
	pB, _ := baseline.LastFor(protocol.RolePlanner)
	rB, _ := baseline.LastFor(protocol.RoleResearcher)
	pI, _ := influenced.LastFor(protocol.RolePlanner)
	rI, _ := influenced.LastFor(protocol.RoleResearcher)

	pfB := metrics.FeatureSet(pB.Payload)
	rfB := metrics.FeatureSet(rB.Payload)
	pfI := metrics.FeatureSet(pI.Payload)
	rfI := metrics.FeatureSet(rI.Payload)

	return ledger.Row{
		Key: key,

		RoundsToApprovalBaseline:  roundsToApproval(baseline, maxRounds),
		RoundsToApprovalInfluence: roundsToApproval(influenced, maxRounds),

		AgreementRateBaseline:  metrics.Jaccard(pfB, rfB),
		AgreementRateInfluence: metrics.Jaccard(pfI, rfI),

		RevisionDepthBetweenRounds: float64(metrics.RevisionDepth(pfB, rfB, pfI, rfI)),

		CanonicalBaseline:  metrics.CanonicalOverlap(pB.Raw, rB.Raw),
		CanonicalInfluence: metrics.CanonicalOverlap(pI.Raw, rI.Raw),

		PlannerSelfAgreement:    metrics.Jaccard(pfB, pfI),
		ResearcherSelfAgreement: metrics.Jaccard(rfB, rfI),
	}
}

// roundsToApproval maps a transcript's outcome onto the rounds metric: the
// round where the termination predicate first held, the round cap when it
// never did, NaN when the conversation never completed a round.
func roundsToApproval(t conversation.Transcript, maxRounds int) float64 {
	if t.ApprovedRound > 0 {
		return float64(t.ApprovedRound)
	}
	if t.Rounds == 0 {
		return math.NaN()
	}
	return float64(maxRounds)
}

// #endregion compute-row
