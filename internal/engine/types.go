package engine

import (
	"time"

	"github.com/smukkama/launch-advisor/internal/rules"
)

// Quality records whether a verdict was computed from fresh, stale, or
// absent input data.
type Quality string

const (
	QualityOK      Quality = "ok"
	QualityStale   Quality = "stale"
	QualityMissing Quality = "missing"
)

// Verdict is the outcome of evaluating one rule against current samples.
type Verdict struct {
	RuleID      int64          `json:"rule_id"`
	Category    rules.Category `json:"category"`
	Priority    int            `json:"priority"`
	Triggered   bool           `json:"triggered"`
	Severity    rules.Severity `json:"severity"`
	Quality     Quality        `json:"quality"`
	Explanation string         `json:"explanation"`
}

// SkippedRule records a rule that could not be evaluated (malformed
// definition or evaluator fault). Skipped rules never contribute
// severity but are carried on the decision so they are not silently lost.
type SkippedRule struct {
	RuleID int64  `json:"rule_id"`
	Reason string `json:"reason"`
}

// Decision is the aggregate advisory outcome for one location at one
// instant. Append-only once persisted.
type Decision struct {
	ID         string         `json:"id"`
	LocationID int64          `json:"location_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Status     rules.Severity `json:"status"`

	// Degraded is true when any evaluated rule saw stale or missing
	// input, so consumers can tell "safe" from "safe for lack of data".
	Degraded bool `json:"degraded"`

	// Triggered holds only the rules that fired, ordered by descending
	// priority then ascending rule id.
	Triggered []Verdict     `json:"triggered"`
	Skipped   []SkippedRule `json:"skipped,omitempty"`

	// RulesEvaluated counts every active rule considered, including the
	// ones that did not fire, for completeness checks downstream.
	RulesEvaluated int `json:"rules_evaluated"`
}
