package protocol

import (
	"encoding/json"
	"time"

	"github.com/smukkama/launch-advisor/internal/engine"
)

// DecisionMessage is the wire format for decisions published to Kafka.
// Downstream consumers (notifiers, dashboards) subscribe to this topic
// rather than polling the decisions table.
type DecisionMessage struct {
	ID             string           `json:"id"`
	LocationID     int64            `json:"location_id"`
	Timestamp      time.Time        `json:"timestamp"`
	Status         string           `json:"status"`
	Degraded       bool             `json:"degraded"`
	Triggered      []VerdictMessage `json:"triggered"`
	SkippedRules   []SkippedMessage `json:"skipped_rules,omitempty"`
	RulesEvaluated int              `json:"rules_evaluated"`
}

// VerdictMessage is one triggered rule on the wire
type VerdictMessage struct {
	RuleID      int64  `json:"rule_id"`
	Category    string `json:"category"`
	Priority    int    `json:"priority"`
	Severity    string `json:"severity"`
	Quality     string `json:"quality"`
	Explanation string `json:"explanation"`
}

// SkippedMessage is one unevaluable rule on the wire
type SkippedMessage struct {
	RuleID int64  `json:"rule_id"`
	Reason string `json:"reason"`
}

// FromDecision converts an engine decision to its wire form
func FromDecision(d *engine.Decision) *DecisionMessage {
	msg := &DecisionMessage{
		ID:             d.ID,
		LocationID:     d.LocationID,
		Timestamp:      d.Timestamp,
		Status:         string(d.Status),
		Degraded:       d.Degraded,
		Triggered:      make([]VerdictMessage, 0, len(d.Triggered)),
		RulesEvaluated: d.RulesEvaluated,
	}
	for _, v := range d.Triggered {
		msg.Triggered = append(msg.Triggered, VerdictMessage{
			RuleID:      v.RuleID,
			Category:    string(v.Category),
			Priority:    v.Priority,
			Severity:    string(v.Severity),
			Quality:     string(v.Quality),
			Explanation: v.Explanation,
		})
	}
	for _, s := range d.Skipped {
		msg.SkippedRules = append(msg.SkippedRules, SkippedMessage{
			RuleID: s.RuleID,
			Reason: s.Reason,
		})
	}
	return msg
}

// EncodeDecisionMessage encodes a DecisionMessage to JSON
func EncodeDecisionMessage(msg *DecisionMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeDecisionMessage decodes JSON to DecisionMessage
func DecodeDecisionMessage(data []byte) (*DecisionMessage, error) {
	var msg DecisionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
