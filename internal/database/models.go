package database

import (
	"time"
)

// Location represents a launch site with its own rule set
type Location struct {
	ID           int64
	Name         string
	Region       string
	Lat          *float64
	Lon          *float64
	Elevation    *int
	EvalInterval *int // seconds between scheduled evaluations, nil = default
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
