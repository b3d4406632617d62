// Package metrics derives agreement and revision measurements from validated
// agent payloads. Every function is total: degenerate inputs yield NaN
// sentinels, never panics.
package metrics

import (
	"math"
	"regexp"
	"strings"
)

// #region sets

// Set is a normalized string set.
type Set map[string]struct{}

// NewSet builds a set from the given members.
func NewSet(members ...string) Set {
	s := make(Set, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Union returns a ∪ b.
func Union(a, b Set) Set {
	out := make(Set, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// Diff returns a − b.
func Diff(a, b Set) Set {
	out := make(Set)
	for k := range a {
		if _, ok := b[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// #endregion sets

// #region feature-extraction

// FeatureSet extracts the normalized feature names from a validated payload:
// the "features" list, lowercased with whitespace collapsed. Non-list or
// missing features yield an empty set.
func FeatureSet(payload map[string]any) Set {
	out := make(Set)
	if payload == nil {
		return out
	}
	feats, ok := payload["features"].([]any)
	if !ok {
		return out
	}
	for _, f := range feats {
		s, ok := f.(string)
		if !ok {
			continue
		}
		norm := strings.Join(strings.Fields(strings.ToLower(s)), " ")
		if norm != "" {
			out[norm] = struct{}{}
		}
	}
	return out
}

// #endregion feature-extraction

// #region jaccard

// Jaccard returns |a∩b| / |a∪b|, or NaN when both sets are empty.
func Jaccard(a, b Set) float64 {
	if len(a) == 0 && len(b) == 0 {
		return math.NaN()
	}
	var inter int
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	denom := len(a) + len(b) - inter
	if denom == 0 {
		return 0.0
	}
	return float64(inter) / float64(denom)
}

// #endregion jaccard

// #region canonical

// canonicalTags is the fixed vocabulary of network-flow concepts used for
// synonym-free overlap scoring.
var canonicalTags = NewSet(
	"duration", "bytes", "packets", "src_ip", "dst_ip", "src_port", "dst_port",
	"protocol", "flags", "entropy", "dns", "http", "tls", "ja3", "user_agent",
	"flow_count", "rate", "iat", "window", "payload_len",
)

var tokenPattern = regexp.MustCompile(`[a-z0-9_]+`)

// CanonicalOverlap tokenizes two raw texts and returns the Jaccard similarity
// of their canonical-tag sets, isolating concept-level agreement from
// spelling. NaN when neither text mentions a canonical tag.
func CanonicalOverlap(textA, textB string) float64 {
	return Jaccard(canonicalize(textA), canonicalize(textB))
}

func canonicalize(text string) Set {
	out := make(Set)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := canonicalTags[tok]; ok {
			out[tok] = struct{}{}
		}
	}
	return out
}

// #endregion canonical

// #region critic-decision

// Decision is the critic's verdict on a round.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionRevise  Decision = "REVISE"
	DecisionNone    Decision = "" // missing or malformed
)

// CriticDecision parses the critic payload's decision field.
func CriticDecision(payload map[string]any) Decision {
	if payload == nil {
		return DecisionNone
	}
	raw, ok := payload["decision"].(string)
	if !ok {
		return DecisionNone
	}
	switch Decision(strings.ToUpper(strings.TrimSpace(raw))) {
	case DecisionApprove:
		return DecisionApprove
	case DecisionRevise:
		return DecisionRevise
	default:
		return DecisionNone
	}
}

// #endregion critic-decision

// #region revision-depth

// RevisionDepth counts features present in the later round's combined set but
// absent from the earlier round's: |(P2∪R2) − (P1∪R1)|.
func RevisionDepth(plannerBefore, researcherBefore, plannerAfter, researcherAfter Set) int {
	before := Union(plannerBefore, researcherBefore)
	after := Union(plannerAfter, researcherAfter)
	return len(Diff(after, before))
}

// #endregion revision-depth
