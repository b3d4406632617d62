package conversation

import "github.com/danielpatrickdp/mutual-influence/go-harness/internal/protocol"

// #region phase

// Phase is the runner's state: awaiting one role's turn, or terminated.
type Phase struct {
	Awaiting   string // role whose turn is next; empty when terminated
	Round      int    // 1-based
	Terminated bool
}

// Start returns the initial phase: planner's turn, round 1.
func Start() Phase {
	return Phase{Awaiting: protocol.RolePlanner, Round: 1}
}

// #endregion phase

// #region transition

// Next is the pure transition function. approved is only consulted after the
// critic's turn, when the round is complete: the conversation terminates on
// approval or on reaching maxRounds, otherwise the next round begins.
func Next(p Phase, approved bool, maxRounds int) Phase {
	if p.Terminated {
		return p
	}
	switch p.Awaiting {
	case protocol.RolePlanner:
		return Phase{Awaiting: protocol.RoleResearcher, Round: p.Round}
	case protocol.RoleResearcher:
		return Phase{Awaiting: protocol.RoleCritic, Round: p.Round}
	case protocol.RoleCritic:
		if approved || p.Round >= maxRounds {
			return Phase{Round: p.Round, Terminated: true}
		}
		return Phase{Awaiting: protocol.RolePlanner, Round: p.Round + 1}
	default:
		return Phase{Round: p.Round, Terminated: true}
	}
}

// #endregion transition
