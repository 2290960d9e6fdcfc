package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/smukkama/launch-advisor/internal/rules"
)

// LocationExists reports whether a location is configured at all.
func (db *DB) LocationExists(ctx context.Context, locationID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1)`

	var exists bool
	if err := db.QueryRowContext(ctx, query, locationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check location: %w", err)
	}
	return exists, nil
}

// GetActiveRules retrieves all active rules for a location
func (db *DB) GetActiveRules(ctx context.Context, locationID int64) ([]rules.Rule, error) {
	query := `
		SELECT id, location_id, category, station_id, second_station_id,
		       operator, threshold_low, threshold_high, sectors,
		       severity, priority, fail_unsafe, active, description
		FROM rules
		WHERE location_id = $1 AND active = true
		ORDER BY priority DESC, id
	`

	rows, err := db.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var result []rules.Rule
	for rows.Next() {
		var (
			r             rules.Rule
			station       sql.NullString
			secondStation sql.NullString
			thresholdHigh sql.NullFloat64
			sectorsJSON   sql.NullString
			description   sql.NullString
		)
		if err := rows.Scan(
			&r.ID,
			&r.LocationID,
			&r.Category,
			&station,
			&secondStation,
			&r.Operator,
			&r.ThresholdLow,
			&thresholdHigh,
			&sectorsJSON,
			&r.Severity,
			&r.Priority,
			&r.FailUnsafe,
			&r.Active,
			&description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		// A NULL station means the rule covers every station
		// associated with its location.
		r.StationID = station.String
		r.SecondStationID = secondStation.String
		r.Description = description.String
		if thresholdHigh.Valid {
			high := thresholdHigh.Float64
			r.ThresholdHigh = &high
		}
		if sectorsJSON.Valid && sectorsJSON.String != "" {
			if err := json.Unmarshal([]byte(sectorsJSON.String), &r.Sectors); err != nil {
				return nil, fmt.Errorf("failed to decode sectors for rule %d: %w", r.ID, err)
			}
		}

		result = append(result, r)
	}

	return result, rows.Err()
}

// GetLocationStations retrieves the active station ids associated with
// a location. Rules without an explicit station evaluate against this set.
func (db *DB) GetLocationStations(ctx context.Context, locationID int64) ([]string, error) {
	query := `
		SELECT ls.station_id
		FROM location_stations ls
		JOIN stations s ON s.id = ls.station_id
		WHERE ls.location_id = $1 AND s.active = true
		ORDER BY ls.station_id
	`

	rows, err := db.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query location stations: %w", err)
	}
	defer rows.Close()

	var stations []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan station id: %w", err)
		}
		stations = append(stations, id)
	}

	return stations, rows.Err()
}

// ListActiveLocations retrieves all active locations for scheduling
func (db *DB) ListActiveLocations(ctx context.Context) ([]Location, error) {
	query := `
		SELECT id, name, region, lat, lon, elevation, eval_interval_seconds, active, created_at, updated_at
		FROM locations
		WHERE active = true
		ORDER BY id
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(
			&loc.ID,
			&loc.Name,
			&loc.Region,
			&loc.Lat,
			&loc.Lon,
			&loc.Elevation,
			&loc.EvalInterval,
			&loc.Active,
			&loc.CreatedAt,
			&loc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}

	return locations, rows.Err()
}
