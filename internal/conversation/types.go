package conversation

// #region condition

// Condition tags which arm of the comparison a conversation belongs to.
type Condition string

const (
	ConditionBaseline  Condition = "baseline"  // μ fixed at the neutral value
	ConditionInfluence Condition = "influence" // μ from accumulated feedback
)

// #endregion condition

// #region turn

// Turn is one agent's validated output for one round. Immutable once
// appended to a transcript.
type Turn struct {
	Role     string
	Round    int // 1-based
	Payload  map[string]any
	Raw      string
	Repaired bool // true if the protocol validator needed its repair attempt
}

// #endregion turn

// #region transcript

// Transcript is a completed conversation: ordered turns plus the outcome.
// Read-only after the runner returns it.
type Transcript struct {
	Condition     Condition
	Turns         []Turn
	Rounds        int    // rounds fully completed
	ApprovedRound int    // 1-based round where the predicate first held, 0 if never
	Failed        bool   // a turn failed the protocol irrecoverably
	FailReason    string // empty unless Failed
}

// TurnFor returns the turn a role took in a given round.
func (t Transcript) TurnFor(role string, round int) (Turn, bool) {
	for _, turn := range t.Turns {
		if turn.Role == role && turn.Round == round {
			return turn, true
		}
	}
	return Turn{}, false
}

// LastFor returns the role's turn in the final completed round.
func (t Transcript) LastFor(role string) (Turn, bool) {
	for i := len(t.Turns) - 1; i >= 0; i-- {
		if t.Turns[i].Role == role {
			return t.Turns[i], true
		}
	}
	return Turn{}, false
}

// RepairCount reports how many turns needed the repair attempt.
func (t Transcript) RepairCount() int {
	var n int
	for _, turn := range t.Turns {
		if turn.Repaired {
			n++
		}
	}
	return n
}

// #endregion transcript
