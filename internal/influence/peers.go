package influence

// #region peer-scores

// PeerScores accumulates exponential-moving-average feedback per peer.
// State is scoped to one conversation and owned by a single agent.
type PeerScores struct {
	prior  float64
	scores map[string]float64
}

// NewPeerScores creates an accumulator whose first-contact baseline is prior.
func NewPeerScores(prior float64) *PeerScores {
	return &PeerScores{
		prior:  prior,
		scores: make(map[string]float64),
	}
}

// #endregion peer-scores

// #region receive

// Receive folds one feedback score into the EMA for the given peer:
// new = beta*score + (1-beta)*old, with old = prior on first contact.
// Scores are clamped to [0,1]. beta=1 is memoryless, beta=0 frozen.
func (p *PeerScores) Receive(peer string, score, beta float64) float64 {
	old, ok := p.scores[peer]
	if !ok {
		old = p.prior
	}
	score = clamp01(score)
	updated := (1.0-beta)*old + beta*score
	p.scores[peer] = updated
	return updated
}

// #endregion receive

// #region accessors

// Mu returns the mean of all accumulated peer scores, 0 before any feedback.
func (p *PeerScores) Mu() float64 {
	if len(p.scores) == 0 {
		return 0.0
	}
	var sum float64
	for _, s := range p.scores {
		sum += s
	}
	return sum / float64(len(p.scores))
}

// Score returns the accumulated score for one peer.
func (p *PeerScores) Score(peer string) (float64, bool) {
	s, ok := p.scores[peer]
	return s, ok
}

// #endregion accessors

// #region helpers

func clamp01(x float64) float64 {
	if x < 0.0 {
		return 0.0
	}
	if x > 1.0 {
		return 1.0
	}
	return x
}

// #endregion helpers
