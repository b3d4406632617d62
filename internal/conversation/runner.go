package conversation

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/agent"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/inference"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/metrics"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/protocol"
)

// #region config

// PairConfig parameterizes one baseline+influence conversation pair.
type PairConfig struct {
	Agent          agent.Config
	MaxRounds      int     // round cap per conversation
	AgreeThreshold float64 // cross-role Jaccard that also terminates a round
	FeedbackBeta   float64 // EMA β for the peer-feedback schedule
	Adversarial    bool    // flips the scripted feedback to hostile scores
	Seed           int
}

// DefaultPairConfig returns runner defaults.
func DefaultPairConfig() PairConfig {
	return PairConfig{
		Agent:          agent.DefaultConfig(),
		MaxRounds:      3,
		AgreeThreshold: 0.66,
		FeedbackBeta:   0.6,
		Seed:           1,
	}
}

// #endregion config

// #region pair

// Pair owns the three agents for one grid point and runs both conditions.
// Agent state carries from the baseline run into the influence run; nothing
// is shared with other pairs, so no locking is needed.
type Pair struct {
	config     PairConfig
	planner    *agent.Agent
	researcher *agent.Agent
	critic     *agent.Agent
	constraint []string // researcher baseline features fed to influenced planner
}

// NewPair wires three fresh agents against the shared validator and client.
func NewPair(config PairConfig, validator *protocol.Validator, client inference.Client) *Pair {
	aCfg := config.Agent
	aCfg.Seed = config.Seed
	return &Pair{
		config:     config,
		planner:    agent.New(protocol.RolePlanner, aCfg, validator, client),
		researcher: agent.New(protocol.RoleResearcher, aCfg, validator, client),
		critic:     agent.New(protocol.RoleCritic, aCfg, validator, client),
	}
}

// Run executes the baseline conversation, applies the peer-feedback schedule,
// then executes the influence conversation. A failed baseline short-circuits
// the influence run.
func (p *Pair) Run(ctx context.Context) (baseline, influenced Transcript) {
	baseline = p.run(ctx, ConditionBaseline)

	p.applyFeedback()
	p.captureConstraint(baseline)

	if baseline.Failed {
		influenced = Transcript{
			Condition:  ConditionInfluence,
			Failed:     true,
			FailReason: "baseline conversation failed: " + baseline.FailReason,
		}
		return baseline, influenced
	}

	influenced = p.run(ctx, ConditionInfluence)
	return baseline, influenced
}

// Mus reports each agent's μ after the feedback schedule.
func (p *Pair) Mus() (planner, researcher, critic float64) {
	return p.planner.Mu(), p.researcher.Mu(), p.critic.Mu()
}

// #endregion pair

// #region run

func (p *Pair) run(ctx context.Context, cond Condition) Transcript {
	influenced := cond == ConditionInfluence
	t := Transcript{Condition: cond}
	phase := Start()

	for !phase.Terminated {
		round := phase.Round
		var approved bool

		switch phase.Awaiting {
		case protocol.RolePlanner:
			task := agent.PlannerTask(p.config.Seed, influenced, p.constraint)
			if !p.takeTurn(ctx, &t, p.planner, task, influenced, round) {
				return t
			}

		case protocol.RoleResearcher:
			task := agent.ResearcherTask(p.config.Seed, influenced)
			if !p.takeTurn(ctx, &t, p.researcher, task, influenced, round) {
				return t
			}

		case protocol.RoleCritic:
			plannerTurn, _ := t.TurnFor(protocol.RolePlanner, round)
			researcherTurn, _ := t.TurnFor(protocol.RoleResearcher, round)
			task := agent.CriticTask(plannerTurn.Raw, researcherTurn.Raw)
			if !p.takeTurn(ctx, &t, p.critic, task, influenced, round) {
				return t
			}

			criticTurn, _ := t.TurnFor(protocol.RoleCritic, round)
			approved = p.roundApproved(plannerTurn, researcherTurn, criticTurn)
			t.Rounds = round
			if approved && t.ApprovedRound == 0 {
				t.ApprovedRound = round
			}
		}

		phase = Next(phase, approved, p.config.MaxRounds)
	}

	log.Printf("[CONV] %s done: rounds=%d approved_round=%d repairs=%d",
		cond, t.Rounds, t.ApprovedRound, t.RepairCount())
	return t
}

// takeTurn produces one validated turn and appends it. Returns false when the
// turn failed, after marking the transcript failed.
func (p *Pair) takeTurn(ctx context.Context, t *Transcript, a *agent.Agent, task string, influenced bool, round int) bool {
	out := a.Produce(ctx, task, influenced)
	if !out.Accepted() {
		t.Failed = true
		t.FailReason = fmt.Sprintf("%s round %d: %s", a.Role(), round, out.Reason)
		log.Printf("[CONV] %s aborted: %s", t.Condition, t.FailReason)
		return false
	}
	t.Turns = append(t.Turns, Turn{
		Role:     a.Role(),
		Round:    round,
		Payload:  out.Payload,
		Raw:      out.Raw,
		Repaired: out.Status == protocol.StatusRepaired,
	})
	return true
}

// roundApproved evaluates the termination predicate for a completed round:
// an explicit critic APPROVE, or cross-role feature agreement at or above
// the configured threshold.
func (p *Pair) roundApproved(plannerTurn, researcherTurn, criticTurn Turn) bool {
	if metrics.CriticDecision(criticTurn.Payload) == metrics.DecisionApprove {
		return true
	}
	jac := metrics.Jaccard(metrics.FeatureSet(plannerTurn.Payload), metrics.FeatureSet(researcherTurn.Payload))
	return jac >= p.config.AgreeThreshold // NaN compares false
}

// #endregion run

// #region feedback

// applyFeedback runs the scripted peer-feedback schedule between the two
// conditions. Adversarial points flip the critic-facing scores hostile.
func (p *Pair) applyFeedback() {
	beta := p.config.FeedbackBeta

	if p.config.Adversarial {
		p.planner.ReceiveFeedback(protocol.RoleCritic, 0.1, beta)
		p.researcher.ReceiveFeedback(protocol.RoleCritic, 0.1, beta)
		p.critic.ReceiveFeedback(protocol.RolePlanner, 0.4, beta)
		p.critic.ReceiveFeedback(protocol.RoleResearcher, 0.4, beta)
	} else {
		p.planner.ReceiveFeedback(protocol.RoleCritic, 0.9, beta)
		p.researcher.ReceiveFeedback(protocol.RoleCritic, 0.7, beta)
		p.critic.ReceiveFeedback(protocol.RolePlanner, 0.8, beta)
		p.critic.ReceiveFeedback(protocol.RoleResearcher, 0.75, beta)
	}

	p.planner.ReceiveFeedback(protocol.RoleResearcher, 0.8, beta)
	p.researcher.ReceiveFeedback(protocol.RolePlanner, 0.85, beta)
}

// captureConstraint records the researcher's baseline features so the
// influenced planner can be held to exact tokens.
func (p *Pair) captureConstraint(baseline Transcript) {
	turn, ok := baseline.LastFor(protocol.RoleResearcher)
	if !ok {
		return
	}
	set := metrics.FeatureSet(turn.Payload)
	feats := make([]string, 0, len(set))
	for f := range set {
		feats = append(feats, f)
	}
	sort.Strings(feats)
	p.constraint = feats
}

// #endregion feedback
