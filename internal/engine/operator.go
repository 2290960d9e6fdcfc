package engine

import (
	"fmt"
	"math"

	"github.com/smukkama/launch-advisor/internal/rules"
)

// apply evaluates a comparison operator against a live value using the
// rule's thresholds. Pure; the only failure mode is a threshold arity
// that does not match the operator, which Validate should have caught
// at load time.
func apply(op rules.Operator, value float64, low float64, high *float64, sectors []rules.Sector) (bool, error) {
	switch op {
	case rules.OpGreaterThan:
		return value > low, nil
	case rules.OpLessThan:
		return value < low, nil
	case rules.OpBetween:
		if high == nil {
			return false, fmt.Errorf("%w: operator %q requires two thresholds", rules.ErrInvalidRule, op)
		}
		return value >= low && value <= *high, nil
	case rules.OpNotInRange:
		if high == nil {
			return false, fmt.Errorf("%w: operator %q requires two thresholds", rules.ErrInvalidRule, op)
		}
		return value < low || value > *high, nil
	case rules.OpDirectionInSet:
		if len(sectors) == 0 {
			return false, fmt.Errorf("%w: operator %q requires at least one sector", rules.ErrInvalidRule, op)
		}
		return directionInSet(value, sectors), nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", rules.ErrInvalidRule, op)
	}
}

// directionInSet reports whether a bearing falls inside any sector.
// Distances are circular, so a sector centered at 350° with a 20°
// half-width covers 330° through 10°.
func directionInSet(value float64, sectors []rules.Sector) bool {
	for _, s := range sectors {
		if circularDistance(value, s.Center) <= s.HalfWidth {
			return true
		}
	}
	return false
}

// circularDistance returns the shortest angular distance in degrees
// between two bearings, always in [0,180].
func circularDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	return math.Min(d, 360-d)
}
