// Package agent implements the three role-playing agents. Each agent owns
// its peer-score state for the lifetime of one grid point and produces
// protocol-validated turns through the shared validator.
package agent

import (
	"context"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/inference"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/influence"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/protocol"
)

// #region config

// Config holds per-agent constants. The curve constants come from the grid
// point; the rest are calibration configuration.
type Config struct {
	Curves   influence.CurveConfig
	Prior    float64 // first-contact peer-score baseline
	BaseTemp float64 // temperature for the baseline condition
	Seed     int     // pins service-side sampling
}

// DefaultConfig returns agent calibration defaults.
func DefaultConfig() Config {
	return Config{
		Curves:   influence.DefaultCurveConfig(),
		Prior:    0.5,
		BaseTemp: 0.2,
	}
}

// #endregion config

// #region agent

// Agent is one role-playing participant. Not safe for concurrent use; each
// conversation pair owns its own trio.
type Agent struct {
	role      string
	config    Config
	scores    *influence.PeerScores
	validator *protocol.Validator
	client    inference.Client
}

// New creates an agent for the given role.
func New(role string, config Config, validator *protocol.Validator, client inference.Client) *Agent {
	return &Agent{
		role:      role,
		config:    config,
		scores:    influence.NewPeerScores(config.Prior),
		validator: validator,
		client:    client,
	}
}

// Role returns the agent's role name.
func (a *Agent) Role() string {
	return a.role
}

// Mu returns the agent's current mutual-influence value.
func (a *Agent) Mu() float64 {
	return a.scores.Mu()
}

// ReceiveFeedback folds one peer score into the agent's EMA state.
func (a *Agent) ReceiveFeedback(peer string, score, beta float64) {
	a.scores.Receive(peer, score, beta)
}

// #endregion agent

// #region produce

// Produce runs one validated exchange for this agent. In the influenced
// condition the task is prefixed with the μ/λ/temperature hint and the
// temperature is modulated by μ; baseline uses the fixed base temperature.
func (a *Agent) Produce(ctx context.Context, task string, influenced bool) protocol.Outcome {
	temp := a.config.BaseTemp
	if influenced {
		mu := a.scores.Mu()
		lam := influence.LambdaFromMu(mu, a.config.Curves)
		temp = influence.TemperatureFromMu(mu, a.config.Curves)
		task = influencePrefix(mu, lam, temp) + "\n\n" + task
	}

	req := inference.Request{
		System:      SystemMessage(a.role),
		Prompt:      task,
		Temperature: temp,
		JSONOnly:    true,
		Seed:        a.config.Seed,
	}
	return a.validator.Exchange(ctx, a.client, req, protocol.RequiredKeysFor(a.role))
}

// #endregion produce
