package influence

import (
	"math"
	"testing"
)

func TestPeerScores_EMA(t *testing.T) {
	p := NewPeerScores(0.5)

	// First contact blends against the prior.
	got := p.Receive("critic", 0.9, 0.6)
	want := (1-0.6)*0.5 + 0.6*0.9
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("first contact: got %v, want %v", got, want)
	}

	// Second update blends against the stored value.
	got2 := p.Receive("critic", 0.1, 0.6)
	want2 := (1-0.6)*want + 0.6*0.1
	if math.Abs(got2-want2) > 1e-12 {
		t.Errorf("second update: got %v, want %v", got2, want2)
	}
}

func TestPeerScores_BetaOneMemoryless(t *testing.T) {
	p := NewPeerScores(0.5)
	p.Receive("researcher", 0.2, 1.0)
	if got := p.Receive("researcher", 0.75, 1.0); got != 0.75 {
		t.Errorf("beta=1 should return the latest score, got %v", got)
	}
}

func TestPeerScores_BetaZeroFrozen(t *testing.T) {
	p := NewPeerScores(0.3)
	if got := p.Receive("planner", 0.9, 0.0); got != 0.3 {
		t.Errorf("beta=0 should stay at prior, got %v", got)
	}
	if got := p.Receive("planner", 0.1, 0.0); got != 0.3 {
		t.Errorf("beta=0 should never move, got %v", got)
	}
}

func TestPeerScores_ScoreClamped(t *testing.T) {
	p := NewPeerScores(0)
	if got := p.Receive("a", 7.0, 1.0); got != 1.0 {
		t.Errorf("score above 1 should clamp, got %v", got)
	}
	if got := p.Receive("b", -3.0, 1.0); got != 0.0 {
		t.Errorf("score below 0 should clamp, got %v", got)
	}
}

func TestPeerScores_Mu(t *testing.T) {
	p := NewPeerScores(0)
	if got := p.Mu(); got != 0 {
		t.Errorf("mu with no feedback should be 0, got %v", got)
	}

	p.Receive("critic", 0.8, 1.0)
	p.Receive("researcher", 0.4, 1.0)
	if got := p.Mu(); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("mu: got %v, want 0.6", got)
	}

	if _, ok := p.Score("nobody"); ok {
		t.Error("Score should report missing peers")
	}
	if s, ok := p.Score("critic"); !ok || s != 0.8 {
		t.Errorf("Score(critic) = %v, %v", s, ok)
	}
}
