package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/smukkama/launch-advisor/internal/rules"
	"github.com/smukkama/launch-advisor/internal/weather"
)

// evaluatorFunc evaluates one rule against current samples. Evaluators
// are stateless and side-effect-free; a returned error means the rule
// could not be evaluated at all and is recorded as skipped.
type evaluatorFunc func(ctx context.Context, r rules.Rule, res *resolver, cfg Config) (Verdict, error)

// evaluators is the closed dispatch table mapping rule categories to
// their evaluator. Extending the engine with a new category means
// adding a table entry.
var evaluators = map[rules.Category]evaluatorFunc{
	rules.CategoryWindSpeed:        evalScalar,
	rules.CategoryTemperature:      evalScalar,
	rules.CategoryHumidity:         evalScalar,
	rules.CategoryPressureAbsolute: evalScalar,
	rules.CategoryWindDirection:    evalWindDirection,
	rules.CategoryGustRatio:        evalGustRatio,
	rules.CategoryPressureTrend:    evalPressureTrend,
	rules.CategoryPressureDelta:    evalPressureDelta,
}

type scalarInfo struct {
	name string
	unit string
}

var scalarInfos = map[rules.Category]scalarInfo{
	rules.CategoryWindSpeed:        {"wind speed", "m/s"},
	rules.CategoryTemperature:      {"temperature", "°C"},
	rules.CategoryHumidity:         {"humidity", "%"},
	rules.CategoryPressureAbsolute: {"pressure", "hPa"},
}

// scalarField returns the sample field a scalar category reads, or nil
// when the station does not report it.
func scalarField(c rules.Category, s *weather.Sample) *float64 {
	switch c {
	case rules.CategoryWindSpeed:
		return s.WindSpeed
	case rules.CategoryTemperature:
		return s.Temperature
	case rules.CategoryHumidity:
		return s.Humidity
	case rules.CategoryPressureAbsolute:
		return s.Pressure
	default:
		return nil
	}
}

func baseVerdict(r rules.Rule, q Quality) Verdict {
	return Verdict{
		RuleID:   r.ID,
		Category: r.Category,
		Priority: r.Priority,
		Severity: r.Severity,
		Quality:  q,
	}
}

// noData produces the untriggered, quality=missing verdict used when a
// rule's required input is absent. Missing data never fabricates a
// worse-than-safe outcome here; the fail-unsafe escalation is applied
// by the aggregator for rules that opt in.
func noData(r rules.Rule, reason string) Verdict {
	v := baseVerdict(r, QualityMissing)
	v.Explanation = reason
	return v
}

func evalScalar(ctx context.Context, r rules.Rule, res *resolver, cfg Config) (Verdict, error) {
	info, ok := scalarInfos[r.Category]
	if !ok {
		return Verdict{}, fmt.Errorf("no scalar field mapping for category %q", r.Category)
	}

	sample, q := res.Latest(ctx, r.StationID)
	if sample == nil {
		return noData(r, fmt.Sprintf("no sample from station %s", r.StationID)), nil
	}
	value := scalarField(r.Category, sample)
	if value == nil {
		return noData(r, fmt.Sprintf("station %s does not report %s", r.StationID, info.name)), nil
	}

	triggered, err := apply(r.Operator, *value, r.ThresholdLow, r.ThresholdHigh, nil)
	if err != nil {
		return Verdict{}, err
	}

	v := baseVerdict(r, q)
	v.Triggered = triggered
	if triggered {
		v.Explanation = describe(r.Operator, info.name, *value, info.unit, r.ThresholdLow, r.ThresholdHigh)
	}
	return v, nil
}

func evalWindDirection(ctx context.Context, r rules.Rule, res *resolver, cfg Config) (Verdict, error) {
	sample, q := res.Latest(ctx, r.StationID)
	if sample == nil {
		return noData(r, fmt.Sprintf("no sample from station %s", r.StationID)), nil
	}
	if sample.WindDirection == nil {
		return noData(r, fmt.Sprintf("station %s does not report wind direction", r.StationID)), nil
	}

	triggered, err := apply(r.Operator, *sample.WindDirection, r.ThresholdLow, r.ThresholdHigh, r.Sectors)
	if err != nil {
		return Verdict{}, err
	}

	v := baseVerdict(r, q)
	v.Triggered = triggered
	if triggered {
		if s, ok := matchedSector(*sample.WindDirection, r.Sectors); ok {
			v.Explanation = fmt.Sprintf("wind direction %g° inside sector %g°±%g°",
				*sample.WindDirection, s.Center, s.HalfWidth)
		}
	}
	return v, nil
}

func matchedSector(value float64, sectors []rules.Sector) (rules.Sector, bool) {
	for _, s := range sectors {
		if circularDistance(value, s.Center) <= s.HalfWidth {
			return s, true
		}
	}
	return rules.Sector{}, false
}

func evalGustRatio(ctx context.Context, r rules.Rule, res *resolver, cfg Config) (Verdict, error) {
	sample, q := res.Latest(ctx, r.StationID)
	if sample == nil {
		return noData(r, fmt.Sprintf("no sample from station %s", r.StationID)), nil
	}
	if sample.GustSpeed == nil || sample.WindSpeed == nil {
		return noData(r, fmt.Sprintf("station %s does not report both gust and wind speed", r.StationID)), nil
	}
	// Near-zero wind makes the ratio meaningless, not infinite.
	if *sample.WindSpeed < cfg.GustEpsilon {
		return noData(r, fmt.Sprintf("wind speed %g m/s too low for a gust ratio", *sample.WindSpeed)), nil
	}

	ratio := *sample.GustSpeed / *sample.WindSpeed
	triggered, err := apply(r.Operator, ratio, r.ThresholdLow, r.ThresholdHigh, nil)
	if err != nil {
		return Verdict{}, err
	}

	v := baseVerdict(r, q)
	v.Triggered = triggered
	if triggered {
		v.Explanation = fmt.Sprintf("%s (gust %g m/s over wind %g m/s)",
			describe(r.Operator, "gust ratio", ratio, "", r.ThresholdLow, r.ThresholdHigh),
			*sample.GustSpeed, *sample.WindSpeed)
	}
	return v, nil
}

// evalPressureTrend computes the rate of change in hPa/hour as the
// endpoint slope between the oldest and newest pressure-bearing samples
// in the lookback window. Deterministic for a given window; a
// least-squares fit would add precision no two-state trigger needs.
func evalPressureTrend(ctx context.Context, r rules.Rule, res *resolver, cfg Config) (Verdict, error) {
	samples, q := res.Window(ctx, r.StationID, cfg.TrendLookback)

	var points []weather.Sample
	for _, s := range samples {
		if s.Pressure != nil {
			points = append(points, s)
		}
	}
	if len(points) < 2 {
		return noData(r, fmt.Sprintf("fewer than two pressure readings from station %s in the last %s", r.StationID, cfg.TrendLookback)), nil
	}

	oldest, newest := points[0], points[len(points)-1]
	hours := newest.Timestamp.Sub(oldest.Timestamp).Hours()
	if hours <= 0 {
		return noData(r, fmt.Sprintf("pressure readings from station %s span no time", r.StationID)), nil
	}
	rate := (*newest.Pressure - *oldest.Pressure) / hours

	triggered, err := apply(r.Operator, rate, r.ThresholdLow, r.ThresholdHigh, nil)
	if err != nil {
		return Verdict{}, err
	}

	v := baseVerdict(r, q)
	v.Triggered = triggered
	if triggered {
		v.Explanation = describe(r.Operator, "pressure trend", rate, "hPa/h", r.ThresholdLow, r.ThresholdHigh)
	}
	return v, nil
}

// evalPressureDelta compares the latest pressure readings of two
// stations taken at approximately the same time. Used for föhn
// detection across a mountain range.
func evalPressureDelta(ctx context.Context, r rules.Rule, res *resolver, cfg Config) (Verdict, error) {
	a, qa := res.Latest(ctx, r.StationID)
	b, qb := res.Latest(ctx, r.SecondStationID)

	if a == nil || a.Pressure == nil {
		return noData(r, fmt.Sprintf("no pressure reading from station %s", r.StationID)), nil
	}
	if b == nil || b.Pressure == nil {
		return noData(r, fmt.Sprintf("no pressure reading from station %s", r.SecondStationID)), nil
	}

	skew := a.Timestamp.Sub(b.Timestamp)
	if skew < 0 {
		skew = -skew
	}
	if skew > cfg.DeltaTolerance {
		return noData(r, fmt.Sprintf("readings from %s and %s are %s apart, beyond the %s tolerance",
			r.StationID, r.SecondStationID, skew.Round(time.Second), cfg.DeltaTolerance)), nil
	}

	delta := math.Abs(*a.Pressure - *b.Pressure)
	triggered, err := apply(r.Operator, delta, r.ThresholdLow, r.ThresholdHigh, nil)
	if err != nil {
		return Verdict{}, err
	}

	v := baseVerdict(r, worstQuality(qa, qb))
	v.Triggered = triggered
	if triggered {
		v.Explanation = fmt.Sprintf("%s between stations %s and %s",
			describe(r.Operator, "pressure delta", delta, "hPa", r.ThresholdLow, r.ThresholdHigh),
			r.StationID, r.SecondStationID)
	}
	return v, nil
}

var qualityRank = map[Quality]int{
	QualityOK:      0,
	QualityStale:   1,
	QualityMissing: 2,
}

func worstQuality(a, b Quality) Quality {
	if qualityRank[b] > qualityRank[a] {
		return b
	}
	return a
}

func fmtQty(value float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%g", value)
	}
	return fmt.Sprintf("%g %s", value, unit)
}

// describe renders a triggered comparison as a human-readable sentence,
// e.g. "wind speed 9.2 m/s exceeds 8 m/s limit".
func describe(op rules.Operator, quantity string, value float64, unit string, low float64, high *float64) string {
	switch op {
	case rules.OpGreaterThan:
		return fmt.Sprintf("%s %s exceeds %s limit", quantity, fmtQty(value, unit), fmtQty(low, unit))
	case rules.OpLessThan:
		return fmt.Sprintf("%s %s below %s limit", quantity, fmtQty(value, unit), fmtQty(low, unit))
	case rules.OpBetween:
		return fmt.Sprintf("%s %s within %s to %s band", quantity, fmtQty(value, unit), fmtQty(low, unit), fmtQty(*high, unit))
	case rules.OpNotInRange:
		return fmt.Sprintf("%s %s outside %s to %s band", quantity, fmtQty(value, unit), fmtQty(low, unit), fmtQty(*high, unit))
	default:
		return fmt.Sprintf("%s %s triggered", quantity, fmtQty(value, unit))
	}
}
