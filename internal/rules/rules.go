package rules

import (
	"errors"
	"fmt"
)

// Category identifies which weather quantity a rule evaluates.
type Category string

const (
	CategoryWindSpeed        Category = "wind_speed"
	CategoryWindDirection    Category = "wind_direction"
	CategoryGustRatio        Category = "gust_ratio"
	CategoryPressureAbsolute Category = "pressure_absolute"
	CategoryPressureTrend    Category = "pressure_trend"
	CategoryPressureDelta    Category = "pressure_delta"
	CategoryTemperature      Category = "temperature"
	CategoryHumidity         Category = "humidity"
)

// Operator is the comparison applied between a live value and a rule's
// thresholds.
type Operator string

const (
	OpGreaterThan    Operator = "greater_than"
	OpLessThan       Operator = "less_than"
	OpBetween        Operator = "between"
	OpNotInRange     Operator = "not_in_range"
	OpDirectionInSet Operator = "direction_in_set"
)

// Severity is the advisory level a rule contributes when triggered, and
// also the overall status of a decision. Safe is never a triggered
// outcome, only the default when nothing fires.
type Severity string

const (
	SeveritySafe    Severity = "safe"
	SeverityCaution Severity = "caution"
	SeverityUnsafe  Severity = "unsafe"
)

// severityRank defines the total order safe < caution < unsafe.
var severityRank = map[Severity]int{
	SeveritySafe:    0,
	SeverityCaution: 1,
	SeverityUnsafe:  2,
}

// Worst returns the more severe of a and b. Unknown values rank below
// safe so a corrupt severity can never escalate a decision.
func Worst(a, b Severity) Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// Sector is one circular wind-direction sector: all bearings within
// HalfWidth degrees of Center, wrapping across 0/360.
type Sector struct {
	Center    float64 `json:"center"`
	HalfWidth float64 `json:"half_width"`
}

// Rule is a single evaluable condition attached to one location.
// Rules are authored externally and read-only here.
type Rule struct {
	ID              int64
	LocationID      int64
	Category        Category
	StationID       string // empty targets every station associated with the location
	SecondStationID string // only for cross-station pressure delta rules
	Operator        Operator
	ThresholdLow    float64
	ThresholdHigh   *float64 // only for between / not_in_range
	Sectors         []Sector // only for direction_in_set
	Severity        Severity
	Priority        int  // ordering of explanations only, higher first
	FailUnsafe      bool // missing data triggers instead of suppressing
	Active          bool
	Description     string
}

// ErrInvalidRule marks a rule whose definition does not satisfy its
// operator or category contract. Detected at load time; such rules are
// skipped, never evaluated.
var ErrInvalidRule = errors.New("invalid rule definition")

// Validate checks threshold arity, sector sets, and station references
// against the rule's operator and category.
func (r *Rule) Validate() error {
	switch r.Severity {
	case SeverityCaution, SeverityUnsafe:
	default:
		return fmt.Errorf("%w: rule %d: severity %q is not a triggerable severity", ErrInvalidRule, r.ID, r.Severity)
	}

	switch r.Operator {
	case OpGreaterThan, OpLessThan:
		if r.ThresholdHigh != nil {
			return fmt.Errorf("%w: rule %d: operator %q takes a single threshold", ErrInvalidRule, r.ID, r.Operator)
		}
	case OpBetween, OpNotInRange:
		if r.ThresholdHigh == nil {
			return fmt.Errorf("%w: rule %d: operator %q requires two thresholds", ErrInvalidRule, r.ID, r.Operator)
		}
		if r.ThresholdLow > *r.ThresholdHigh {
			return fmt.Errorf("%w: rule %d: lower threshold %g exceeds upper %g", ErrInvalidRule, r.ID, r.ThresholdLow, *r.ThresholdHigh)
		}
	case OpDirectionInSet:
		if r.Category != CategoryWindDirection {
			return fmt.Errorf("%w: rule %d: operator %q only applies to wind direction rules", ErrInvalidRule, r.ID, r.Operator)
		}
		if len(r.Sectors) == 0 {
			return fmt.Errorf("%w: rule %d: operator %q requires at least one sector", ErrInvalidRule, r.ID, r.Operator)
		}
		for _, s := range r.Sectors {
			if s.Center < 0 || s.Center >= 360 {
				return fmt.Errorf("%w: rule %d: sector center %g outside [0,360)", ErrInvalidRule, r.ID, s.Center)
			}
			if s.HalfWidth <= 0 || s.HalfWidth > 180 {
				return fmt.Errorf("%w: rule %d: sector half-width %g outside (0,180]", ErrInvalidRule, r.ID, s.HalfWidth)
			}
		}
	default:
		return fmt.Errorf("%w: rule %d: unknown operator %q", ErrInvalidRule, r.ID, r.Operator)
	}

	switch r.Category {
	case CategoryWindDirection:
		if r.Operator != OpDirectionInSet {
			return fmt.Errorf("%w: rule %d: wind direction rules require operator %q", ErrInvalidRule, r.ID, OpDirectionInSet)
		}
	case CategoryPressureDelta:
		if r.StationID == "" {
			return fmt.Errorf("%w: rule %d: pressure delta rules require an explicit station pair", ErrInvalidRule, r.ID)
		}
		if r.SecondStationID == "" {
			return fmt.Errorf("%w: rule %d: pressure delta rules require a second station", ErrInvalidRule, r.ID)
		}
		if r.SecondStationID == r.StationID {
			return fmt.Errorf("%w: rule %d: pressure delta rules require two distinct stations", ErrInvalidRule, r.ID)
		}
	case CategoryWindSpeed, CategoryGustRatio, CategoryPressureAbsolute,
		CategoryPressureTrend, CategoryTemperature, CategoryHumidity:
	default:
		return fmt.Errorf("%w: rule %d: unknown category %q", ErrInvalidRule, r.ID, r.Category)
	}

	// An empty StationID is valid everywhere else: the rule then runs
	// against each station associated with its location.
	return nil
}
