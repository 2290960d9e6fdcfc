package weather

import (
	"time"
)

// Sample is one normalized reading from one station at one instant.
// Units are fixed by the collection pipeline: wind and gust in m/s,
// direction in degrees (0-360, circular), temperature in °C, humidity
// in %, pressure in hPa, rain in mm. Fields a station does not report
// are nil. Samples are immutable once stored.
type Sample struct {
	StationID     string    `json:"station_id"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
	WindSpeed     *float64  `json:"wind_speed,omitempty"`
	WindDirection *float64  `json:"wind_direction,omitempty"`
	GustSpeed     *float64  `json:"gust_speed,omitempty"`
	Temperature   *float64  `json:"temperature,omitempty"`
	Humidity      *float64  `json:"humidity,omitempty"`
	Pressure      *float64  `json:"pressure,omitempty"`
	Rain          *float64  `json:"rain,omitempty"`
}

// Age returns how old the sample is relative to now.
func (s *Sample) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}
