package grid

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/conversation"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/ledger"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/protocol"
)

func featureTurn(role string, round int, raw string, features ...string) conversation.Turn {
	feats := make([]any, len(features))
	for i, f := range features {
		feats[i] = f
	}
	return conversation.Turn{
		Role:    role,
		Round:   round,
		Raw:     raw,
		Payload: map[string]any{"features": feats},
	}
}

func criticTurn(round int, decision string) conversation.Turn {
	return conversation.Turn{
		Role:    protocol.RoleCritic,
		Round:   round,
		Raw:     `{"decision":"` + decision + `"}`,
		Payload: map[string]any{"decision": decision},
	}
}

func TestComputeRowMetrics(t *testing.T) {
	baseline := conversation.Transcript{
		Condition: conversation.ConditionBaseline,
		Turns: []conversation.Turn{
			featureTurn(protocol.RolePlanner, 1, "monitor rate and iat and entropy", "rate", "iat", "entropy"),
			featureTurn(protocol.RoleResearcher, 1, "rate iat entropy window", "rate", "iat", "entropy"),
			criticTurn(1, "APPROVE"),
		},
		Rounds:        1,
		ApprovedRound: 1,
	}
	influenced := conversation.Transcript{
		Condition: conversation.ConditionInfluence,
		Turns: []conversation.Turn{
			featureTurn(protocol.RolePlanner, 1, "rate iat entropy", "rate", "iat", "entropy"),
			featureTurn(protocol.RoleResearcher, 1, "rate iat packets", "rate", "iat", "packets"),
			criticTurn(1, "REVISE"),
		},
		Rounds:        3,
		ApprovedRound: 0,
	}

	key := ledger.Key{Beta: 0.3, K: 3.0, Tau: 0.5, Alpha: 0.8, Seed: 1}
	row := ComputeRow(key, baseline, influenced, 3)

	if row.Key != key {
		t.Errorf("key = %v, want %v", row.Key, key)
	}
	if row.RoundsToApprovalBaseline != 1 {
		t.Errorf("baseline rounds = %v, want 1", row.RoundsToApprovalBaseline)
	}
	if row.RoundsToApprovalInfluence != 3 {
		t.Errorf("influence rounds = %v, want cap 3", row.RoundsToApprovalInfluence)
	}
	if row.AgreementRateBaseline != 1.0 {
		t.Errorf("baseline agreement = %v, want 1.0", row.AgreementRateBaseline)
	}
	// {rate,iat} over {rate,iat,entropy,packets}
	if row.AgreementRateInfluence != 0.5 {
		t.Errorf("influence agreement = %v, want 0.5", row.AgreementRateInfluence)
	}
	// packets is the only feature new to the influenced union
	if row.RevisionDepthBetweenRounds != 1 {
		t.Errorf("revision depth = %v, want 1", row.RevisionDepthBetweenRounds)
	}
	if row.PlannerSelfAgreement != 1.0 {
		t.Errorf("planner self-agreement = %v, want 1.0", row.PlannerSelfAgreement)
	}
	if row.ResearcherSelfAgreement != 0.5 {
		t.Errorf("researcher self-agreement = %v, want 0.5", row.ResearcherSelfAgreement)
	}
	// Baseline raws share {rate,iat,entropy}, researcher adds window: 3/4.
	if row.CanonicalBaseline != 0.75 {
		t.Errorf("canonical baseline = %v, want 0.75", row.CanonicalBaseline)
	}
	if row.Sentinel() {
		t.Error("complete row reported as sentinel")
	}
}

func TestComputeRowUsesTerminalTurns(t *testing.T) {
	// A two-round conversation: metrics must come from round 2, not round 1.
	baseline := conversation.Transcript{
		Turns: []conversation.Turn{
			featureTurn(protocol.RolePlanner, 1, "", "src_ip"),
			featureTurn(protocol.RoleResearcher, 1, "", "dst_ip"),
			criticTurn(1, "REVISE"),
			featureTurn(protocol.RolePlanner, 2, "", "rate", "iat"),
			featureTurn(protocol.RoleResearcher, 2, "", "rate", "iat"),
			criticTurn(2, "APPROVE"),
		},
		Rounds:        2,
		ApprovedRound: 2,
	}
	influenced := conversation.Transcript{
		Turns: []conversation.Turn{
			featureTurn(protocol.RolePlanner, 1, "", "rate", "iat"),
			featureTurn(protocol.RoleResearcher, 1, "", "rate", "iat"),
			criticTurn(1, "APPROVE"),
		},
		Rounds:        1,
		ApprovedRound: 1,
	}

	row := ComputeRow(ledger.Key{}, baseline, influenced, 3)
	if row.RoundsToApprovalBaseline != 2 {
		t.Errorf("baseline rounds = %v, want 2", row.RoundsToApprovalBaseline)
	}
	if row.AgreementRateBaseline != 1.0 {
		t.Errorf("agreement from terminal round = %v, want 1.0", row.AgreementRateBaseline)
	}
	if row.PlannerSelfAgreement != 1.0 {
		t.Errorf("self-agreement across conditions = %v, want 1.0", row.PlannerSelfAgreement)
	}
}

func TestComputeRowEmptyFeatures(t *testing.T) {
	empty := conversation.Transcript{
		Turns: []conversation.Turn{
			featureTurn(protocol.RolePlanner, 1, "no tags here"),
			featureTurn(protocol.RoleResearcher, 1, "none here either"),
			criticTurn(1, "APPROVE"),
		},
		Rounds:        1,
		ApprovedRound: 1,
	}

	row := ComputeRow(ledger.Key{}, empty, empty, 3)
	if !math.IsNaN(row.AgreementRateBaseline) {
		t.Errorf("agreement over empty sets = %v, want NaN", row.AgreementRateBaseline)
	}
	if !math.IsNaN(row.CanonicalBaseline) {
		t.Errorf("canonical over tagless text = %v, want NaN", row.CanonicalBaseline)
	}
	if row.RevisionDepthBetweenRounds != 0 {
		t.Errorf("revision depth = %v, want 0", row.RevisionDepthBetweenRounds)
	}
}

func TestRoundsToApprovalNeverCompleted(t *testing.T) {
	got := roundsToApproval(conversation.Transcript{Rounds: 0}, 3)
	if !math.IsNaN(got) {
		t.Errorf("rounds for zero completed rounds = %v, want NaN", got)
	}
}
