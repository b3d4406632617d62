package protocol

// #region status

// Status tags the outcome of one validated exchange.
type Status string

const (
	StatusOK       Status = "ok"       // first response parsed with all keys
	StatusRepaired Status = "repaired" // second attempt succeeded
	StatusFailed   Status = "failed"   // both attempts failed
)

// #endregion status

// #region outcome

// Outcome is the tagged result of a validated exchange. Callers branch on
// Status instead of catching errors, so "needed repair" stays distinguishable
// from "unrecoverable".
type Outcome struct {
	Status  Status
	Payload map[string]any // nil unless Status is OK or Repaired
	Raw     string         // raw text of the accepted (or last) response
	Reason  string         // failure reason, empty on success
}

// Accepted reports whether the exchange produced a usable payload.
func (o Outcome) Accepted() bool {
	return o.Status == StatusOK || o.Status == StatusRepaired
}

// #endregion outcome

// #region roles

// Agent role names, fixed round-robin order.
const (
	RolePlanner    = "planner"
	RoleResearcher = "researcher"
	RoleCritic     = "critic"
)

// RoleOrder returns the fixed turn order for one round.
func RoleOrder() []string {
	return []string{RolePlanner, RoleResearcher, RoleCritic}
}

// RequiredKeysFor returns the protocol-required payload keys for a role.
func RequiredKeysFor(role string) []string {
	switch role {
	case RolePlanner:
		return []string{"features", "steps"}
	case RoleResearcher:
		return []string{"features"}
	case RoleCritic:
		return []string{"decision"}
	default:
		return nil
	}
}

// #endregion roles

// #region whitelist

// FeatureWhitelist is the shared vocabulary agents may emit as features.
var FeatureWhitelist = []string{
	"flow_bytes", "packets", "rate", "iat",
	"src_ip", "dst_ip", "src_port", "dst_port",
	"protocol", "entropy", "payload_len",
}

// #endregion whitelist
