package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/inference"
)

// #region parse

// ParseObject parses raw text as a single JSON object. Returns nil for
// anything else: invalid JSON, arrays, scalars.
func ParseObject(raw string) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload
}

// MissingKeys returns the required keys absent from payload. A nil payload
// misses every key.
func MissingKeys(payload map[string]any, required []string) []string {
	var missing []string
	for _, k := range required {
		if payload == nil {
			missing = append(missing, k)
			continue
		}
		if _, ok := payload[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// #endregion parse

// #region validator

// Validator enforces the JSON-object response protocol with one bounded
// repair attempt per exchange.
type Validator struct{}

// NewValidator creates a protocol validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Exchange submits req, validates the response against the required keys,
// and performs at most one repair attempt. Transport-level failures (the
// client's own retry budget exhausted) map to a failed Outcome; they never
// panic or abort the caller.
func (v *Validator) Exchange(ctx context.Context, client inference.Client, req inference.Request, required []string) Outcome {
	resp, err := client.Complete(ctx, req)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("service: %v", err)}
	}

	payload := ParseObject(resp.Text)
	missing := MissingKeys(payload, required)
	if payload != nil && len(missing) == 0 {
		return Outcome{Status: StatusOK, Payload: payload, Raw: resp.Text}
	}

	log.Printf("[PROTO] invalid response (missing %v), issuing repair", missing)

	repairReq := req
	repairReq.Prompt = repairPrompt(required) + "\n\nLast task:\n" + req.Prompt
	resp2, err := client.Complete(ctx, repairReq)
	if err != nil {
		return Outcome{Status: StatusFailed, Raw: resp.Text,
			Reason: fmt.Sprintf("repair service: %v", err)}
	}

	payload2 := ParseObject(resp2.Text)
	missing2 := MissingKeys(payload2, required)
	if payload2 != nil && len(missing2) == 0 {
		return Outcome{Status: StatusRepaired, Payload: payload2, Raw: resp2.Text}
	}

	return Outcome{Status: StatusFailed, Raw: resp2.Text,
		Reason: fmt.Sprintf("invalid JSON after repair, missing keys %v", missing2)}
}

// repairPrompt builds the explicit one-shot repair instruction.
func repairPrompt(required []string) string {
	return fmt.Sprintf(
		"Your previous output was not a valid JSON object with required keys. "+
			"Required keys: [%s]. "+
			"Return exactly one JSON object with those keys only. No explanations.",
		strings.Join(required, ", "))
}

// #endregion validator
