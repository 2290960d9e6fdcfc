package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/smukkama/launch-advisor/internal/weather"
)

const sampleColumns = `station_id, source, timestamp, wind_speed, wind_direction,
	gust_speed, temperature, humidity, pressure, rain`

// Latest retrieves the most recent sample for a station, or nil if the
// station has never reported.
func (db *DB) Latest(ctx context.Context, stationID string) (*weather.Sample, error) {
	query := `
		SELECT ` + sampleColumns + `
		FROM samples
		WHERE station_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var s weather.Sample
	err := db.QueryRowContext(ctx, query, stationID).Scan(
		&s.StationID,
		&s.Source,
		&s.Timestamp,
		&s.WindSpeed,
		&s.WindDirection,
		&s.GustSpeed,
		&s.Temperature,
		&s.Humidity,
		&s.Pressure,
		&s.Rain,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest sample: %w", err)
	}

	return &s, nil
}

// Window retrieves all samples for a station within the lookback,
// oldest first.
func (db *DB) Window(ctx context.Context, stationID string, lookback time.Duration) ([]weather.Sample, error) {
	query := `
		SELECT ` + sampleColumns + `
		FROM samples
		WHERE station_id = $1 AND timestamp >= $2
		ORDER BY timestamp ASC
	`

	cutoff := time.Now().UTC().Add(-lookback)
	rows, err := db.QueryContext(ctx, query, stationID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample window: %w", err)
	}
	defer rows.Close()

	var samples []weather.Sample
	for rows.Next() {
		var s weather.Sample
		if err := rows.Scan(
			&s.StationID,
			&s.Source,
			&s.Timestamp,
			&s.WindSpeed,
			&s.WindDirection,
			&s.GustSpeed,
			&s.Temperature,
			&s.Humidity,
			&s.Pressure,
			&s.Rain,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}
