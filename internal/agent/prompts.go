package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/protocol"
)

// #region hints

const baseHint = "Return exactly ONE JSON object. No prose, no explanations, no markdown, no code fences.\n" +
	"If you cannot comply, output {}.\n"

// allowedSet renders the feature whitelist as an exact-token JSON list.
func allowedSet() string {
	quoted := make([]string, len(protocol.FeatureWhitelist))
	for i, f := range protocol.FeatureWhitelist {
		quoted[i] = `"` + f + `"`
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

// #endregion hints

// #region system-messages

// SystemMessage returns the role persona sent as the system message.
func SystemMessage(role string) string {
	collaborate := "You are a helpful assistant collaborating with peers. " +
		"Be concise and factual. When mutual influence μ is high, prefer peer-consistent reasoning " +
		"and cite their key points; when low, be skeptical and justify divergences briefly. "
	switch role {
	case protocol.RolePlanner:
		return collaborate + "Role: Planner. Short prioritized plan."
	case protocol.RoleResearcher:
		return collaborate + "Role: Researcher. List concise streaming features and brief reasons."
	case protocol.RoleCritic:
		return collaborate + "Role: Critic. Point gaps/risks. Reply 'APPROVE' if sufficient."
	default:
		return collaborate
	}
}

// #endregion system-messages

// #region tasks

// PlannerTask builds the planner prompt for one round. For influenced rounds,
// constraint carries the researcher's baseline features as exact tokens.
func PlannerTask(seed int, influenced bool, constraint []string) string {
	var task string
	if influenced {
		task = fmt.Sprintf(`%s
Return:
{
  "features": ["<name1>", "<name2>", "<name3>"],
  "steps": ["<step1>", "<step2>"]
}
Refine the plan to reduce false positives and keep exactly 3 features consistent with the plan.
Each step MUST explicitly mention by name one or more of the chosen features.
Choose features ONLY from this allowed set (use exact tokens): %s.
`, baseHint, allowedSet())
	} else {
		task = fmt.Sprintf(`%s
Return:
{
  "features": ["<name1>", "<name2>", "<name3>"],
  "steps": ["<step1>", "<step2>", "<step3>"]
}
Task: [seed=%d] Propose exactly 3 streaming features for malware triage and a 3-step plan that uses exactly those features.
Choose features ONLY from this allowed set (use exact tokens): %s.
`, baseHint, seed, allowedSet())
	}

	if influenced && len(constraint) > 0 {
		sorted := append([]string(nil), constraint...)
		sort.Strings(sorted)
		task += fmt.Sprintf(
			"\n\nConstraint: Use EXACTLY these three features from Researcher baseline "+
				"(use exact tokens, same order not required): [%s]. Do not rename them.",
			strings.Join(sorted, ", "))
	}
	return task
}

// ResearcherTask builds the researcher prompt for one round.
func ResearcherTask(seed int, influenced bool) string {
	if influenced {
		return fmt.Sprintf(`%s
Return:
{ "features": ["<name1>", "<name2>", "<name3>"] }
List exactly 3 minimal streaming features we can compute now.
Choose ONLY from this allowed set (use exact tokens): %s.
`, baseHint, allowedSet())
	}
	return fmt.Sprintf(`%s
Return:
{ "features": ["<name1>", "<name2>", "<name3>"] }
Task: [seed=%d] List exactly 3 streaming features (names only) computable in real time for malware triage.
Choose ONLY from this allowed set (use exact tokens): %s.
`, baseHint, seed, allowedSet())
}

// CriticTask builds the critic prompt with the round's planner and researcher
// JSON embedded, so the rubric can be applied deterministically.
func CriticTask(plannerRaw, researcherRaw string) string {
	rubric := fmt.Sprintf(`%s
Return exactly: { "decision": "APPROVE" or "REVISE" }

You will receive two JSON objects below as PLANNER and RESEARCHER.

APPROVAL RUBRIC (deterministic):
- APPROVE only if ALL are true:
  1) Both JSONs are valid, PLANNER has "features"(3) and "steps"(>=2), RESEARCHER has "features"(3).
  2) All features in both JSONs belong to %s.
  3) Planner and Researcher share at least 2 out of 3 features (Jaccard >= 0.66).
  4) At least 2 of Planner's steps explicitly mention (by exact token) features used by Planner.
- Otherwise REVISE.
`, baseHint, allowedSet())

	return rubric + fmt.Sprintf("\nPLANNER:\n%s\n\nRESEARCHER:\n%s\n", plannerRaw, researcherRaw)
}

// #endregion tasks

// #region influence-prefix

// influencePrefix renders the μ/λ/temperature hint prepended to influenced
// tasks.
func influencePrefix(mu, lambda, temp float64) string {
	return fmt.Sprintf(
		"[mutual_influence μ=%.2f, mix λ=%.2f, temp=%.2f] "+
			"If μ is high, be peer-consistent; if μ is low, justify disagreements.",
		mu, lambda, temp)
}

// #endregion influence-prefix
