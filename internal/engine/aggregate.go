package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/smukkama/launch-advisor/internal/metrics"
	"github.com/smukkama/launch-advisor/internal/rules"
)

type ruleResult struct {
	category rules.Category
	verdict  Verdict
	skipped  *SkippedRule
}

// aggregate runs every active rule for a location in parallel, waits
// for all verdicts, and folds them into one Decision. The fold is a
// max-reduce over the safe < caution < unsafe order, so adding a
// triggered rule can only keep or worsen the status.
func aggregate(ctx context.Context, locationID int64, active []rules.Rule, stations []string, source SampleSource, cfg Config) Decision {
	res := newResolver(source, cfg)
	results := make([]ruleResult, len(active))

	g := new(errgroup.Group)
	g.SetLimit(cfg.MaxParallel)
	for i, r := range active {
		i, r := i, r
		g.Go(func() error {
			results[i] = evaluateRule(ctx, r, stations, res, cfg)
			return nil
		})
	}
	// Join barrier: rule evaluations carry no ordering dependency, only
	// the fold below has to see them all.
	_ = g.Wait()

	d := Decision{
		ID:         uuid.NewString(),
		LocationID: locationID,
		Timestamp:  cfg.Clock.Now().UTC(),
		Status:     rules.SeveritySafe,
	}

	for _, out := range results {
		if out.skipped != nil {
			d.Skipped = append(d.Skipped, *out.skipped)
			continue
		}
		d.RulesEvaluated++

		v := out.verdict
		if v.Quality != QualityOK {
			d.Degraded = true
		}
		if v.Triggered {
			d.Status = rules.Worst(d.Status, v.Severity)
			d.Triggered = append(d.Triggered, v)
		}
	}

	// Most influential factor first; priority never overrides the
	// worst-case fold above, it only orders the explanation.
	sort.Slice(d.Triggered, func(i, j int) bool {
		if d.Triggered[i].Priority != d.Triggered[j].Priority {
			return d.Triggered[i].Priority > d.Triggered[j].Priority
		}
		return d.Triggered[i].RuleID < d.Triggered[j].RuleID
	})

	observeResults(results)
	return d
}

// evaluateRule validates and dispatches one rule, isolating any fault
// to that rule alone. A panicking or malformed rule becomes a skipped
// note, never an aborted decision.
func evaluateRule(ctx context.Context, r rules.Rule, stations []string, res *resolver, cfg Config) (out ruleResult) {
	defer func() {
		if p := recover(); p != nil {
			out = ruleResult{category: r.Category, skipped: &SkippedRule{
				RuleID: r.ID,
				Reason: fmt.Sprintf("evaluator panic: %v", p),
			}}
		}
	}()

	if err := r.Validate(); err != nil {
		return ruleResult{category: r.Category, skipped: &SkippedRule{RuleID: r.ID, Reason: err.Error()}}
	}

	eval, ok := evaluators[r.Category]
	if !ok {
		return ruleResult{category: r.Category, skipped: &SkippedRule{
			RuleID: r.ID,
			Reason: fmt.Sprintf("no evaluator for category %q", r.Category),
		}}
	}

	var (
		v   Verdict
		err error
	)
	if r.StationID == "" {
		v, err = evalAcrossStations(ctx, r, stations, eval, res, cfg)
	} else {
		v, err = eval(ctx, r, res, cfg)
	}
	if err != nil {
		return ruleResult{category: r.Category, skipped: &SkippedRule{RuleID: r.ID, Reason: err.Error()}}
	}

	// Fail-unsafe rules escalate on missing data instead of staying
	// quiet. Opt-in per rule; the default suppresses, because absent
	// data cannot assert danger.
	if r.FailUnsafe && v.Quality == QualityMissing && !v.Triggered {
		v.Triggered = true
		v.Explanation = "fail-unsafe: " + v.Explanation
	}

	return ruleResult{category: r.Category, verdict: v}
}

// evalAcrossStations runs a rule with no station of its own against
// every station associated with the location and folds the per-station
// verdicts into one: any violating station trips the rule, and the fold
// keeps the worst data quality, so a silent station still degrades the
// decision (and, for fail-unsafe rules, still escalates).
func evalAcrossStations(ctx context.Context, r rules.Rule, stations []string, eval evaluatorFunc, res *resolver, cfg Config) (Verdict, error) {
	if len(stations) == 0 {
		return Verdict{}, fmt.Errorf("rule %d targets the location's associated stations but location %d has none", r.ID, r.LocationID)
	}

	folded := baseVerdict(r, QualityOK)
	var missingReason string
	for _, stationID := range stations {
		pinned := r
		pinned.StationID = stationID
		v, err := eval(ctx, pinned, res, cfg)
		if err != nil {
			return Verdict{}, err
		}

		folded.Quality = worstQuality(folded.Quality, v.Quality)
		if v.Quality == QualityMissing && missingReason == "" {
			missingReason = v.Explanation
		}
		// First violating station wins the explanation; later ones
		// cannot change the rule's severity anyway.
		if v.Triggered && !folded.Triggered {
			folded.Triggered = true
			folded.Explanation = fmt.Sprintf("%s (station %s)", v.Explanation, stationID)
		}
	}

	if !folded.Triggered && folded.Quality == QualityMissing {
		folded.Explanation = missingReason
	}
	return folded, nil
}

func observeResults(results []ruleResult) {
	for _, out := range results {
		switch {
		case out.skipped != nil:
			metrics.RuleVerdicts.WithLabelValues(string(out.category), "skipped").Inc()
		case out.verdict.Triggered:
			metrics.RuleVerdicts.WithLabelValues(string(out.verdict.Category), "triggered").Inc()
		default:
			metrics.RuleVerdicts.WithLabelValues(string(out.verdict.Category), "clear").Inc()
		}
	}
}
