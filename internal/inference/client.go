package inference

import "context"

// #region types

// Request is one completion call to the external text-generation service.
type Request struct {
	System      string  // role system message
	Prompt      string  // fully built task prompt
	Temperature float64 // sampling temperature
	JSONOnly    bool    // ask the service for exactly one JSON object
	Seed        int     // pins service-side sampling for reproducible runs
}

// Response carries the raw text returned by the service.
type Response struct {
	Text string
}

// #endregion types

// #region interface

// Client abstracts the external text-generation service.
// Implementations must honor ctx cancellation and deadlines.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a plain function to the Client interface.
// Used for injecting test behavior without a real connection.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// #endregion interface
