package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smukkama/launch-advisor/internal/engine"
)

// AppendDecision persists a decision. The decisions table is
// append-only; nothing in this service updates or deletes rows.
func (db *DB) AppendDecision(ctx context.Context, d *engine.Decision) error {
	triggered, err := json.Marshal(d.Triggered)
	if err != nil {
		return fmt.Errorf("failed to encode verdicts: %w", err)
	}
	skipped, err := json.Marshal(d.Skipped)
	if err != nil {
		return fmt.Errorf("failed to encode skipped rules: %w", err)
	}

	query := `
		INSERT INTO decisions (
			id, location_id, timestamp, status, degraded,
			triggered, skipped, rules_evaluated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if _, err := db.ExecContext(
		ctx,
		query,
		d.ID,
		d.LocationID,
		d.Timestamp,
		d.Status,
		d.Degraded,
		string(triggered), // pq would send []byte as bytea, not jsonb
		string(skipped),
		d.RulesEvaluated,
	); err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}

	return nil
}
