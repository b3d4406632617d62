package inference

import (
	"context"
	"fmt"
	"sync"
)

// #region scripted

// Scripted is a Client test double that replays canned responses in order.
// When the script is exhausted it repeats the final entry, so fixed-length
// scripts can drive conversations of any round count.
type Scripted struct {
	mu      sync.Mutex
	script  []ScriptStep
	next    int
	calls   int
	history []Request
}

// ScriptStep is one canned reply (or error) in a script.
type ScriptStep struct {
	Text string
	Err  error
}

// NewScripted creates a scripted client from the given steps.
func NewScripted(steps ...ScriptStep) *Scripted {
	return &Scripted{script: steps}
}

// Complete returns the next scripted step.
func (s *Scripted) Complete(_ context.Context, req Request) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.history = append(s.history, req)

	if len(s.script) == 0 {
		return Response{}, fmt.Errorf("scripted client has no steps")
	}
	step := s.script[s.next]
	if s.next < len(s.script)-1 {
		s.next++
	}
	if step.Err != nil {
		return Response{}, step.Err
	}
	return Response{Text: step.Text}, nil
}

// Calls reports how many completions were requested.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Requests returns a copy of every request seen, in order.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.history))
	copy(out, s.history)
	return out
}

// #endregion scripted
