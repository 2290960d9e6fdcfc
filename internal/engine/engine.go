package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smukkama/launch-advisor/internal/logger"
	"github.com/smukkama/launch-advisor/internal/metrics"
	"github.com/smukkama/launch-advisor/internal/rules"
)

// RuleStore is the external rule configuration store, read-only here.
// GetLocationStations backs rules with no station of their own: such a
// rule evaluates against every station associated with its location.
type RuleStore interface {
	LocationExists(ctx context.Context, locationID int64) (bool, error)
	GetActiveRules(ctx context.Context, locationID int64) ([]rules.Rule, error)
	GetLocationStations(ctx context.Context, locationID int64) ([]string, error)
}

// DecisionSink persists decisions append-only.
type DecisionSink interface {
	AppendDecision(ctx context.Context, d *Decision) error
}

// MultiSink fans a decision out to several sinks, collecting failures.
type MultiSink []DecisionSink

func (m MultiSink) AppendDecision(ctx context.Context, d *Decision) error {
	var errs []error
	for _, sink := range m {
		if err := sink.AppendDecision(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	// ErrLocationNotFound means the location has no configuration at
	// all; nothing is evaluated or persisted.
	ErrLocationNotFound = errors.New("location not found")

	// ErrSinkAppend wraps a decision sink failure. The computed
	// decision is still returned alongside it.
	ErrSinkAppend = errors.New("decision sink append failed")
)

// Engine is the decision engine entry point: it loads a location's
// rules, aggregates verdicts, persists the decision, and returns it.
// Safe for concurrent use; evaluations share no mutable state.
type Engine struct {
	store  RuleStore
	source SampleSource
	sink   DecisionSink // nil disables persistence (dry runs)
	cfg    Config
	log    zerolog.Logger
}

func New(store RuleStore, source SampleSource, sink DecisionSink, cfg Config) *Engine {
	return &Engine{
		store:  store,
		source: source,
		sink:   sink,
		cfg:    cfg.withDefaults(),
		log:    logger.WithComponent("engine"),
	}
}

// EvaluateLocation computes and persists the advisory decision for one
// location. A location with zero active rules is not an error: it
// evaluates to safe with nothing to report. Sink failures are returned
// as an ErrSinkAppend wrap together with the still-valid decision, so
// the caller may retry persistence or proceed with the in-memory
// result.
func (e *Engine) EvaluateLocation(ctx context.Context, locationID int64) (*Decision, error) {
	start := e.cfg.Clock.Now()

	exists, err := e.store.LocationExists(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("checking location %d: %w", locationID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrLocationNotFound, locationID)
	}

	active, err := e.store.GetActiveRules(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("loading rules for location %d: %w", locationID, err)
	}

	// The station set is only needed when some rule leaves its station
	// unspecified; locations with fully pinned rules skip the lookup.
	var stations []string
	for _, r := range active {
		if r.StationID == "" {
			stations, err = e.store.GetLocationStations(ctx, locationID)
			if err != nil {
				return nil, fmt.Errorf("loading stations for location %d: %w", locationID, err)
			}
			break
		}
	}

	d := aggregate(ctx, locationID, active, stations, e.source, e.cfg)

	// A cancelled evaluation persists nothing.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	metrics.EvaluationsTotal.WithLabelValues(string(d.Status)).Inc()
	metrics.EvaluationDuration.Observe(e.cfg.Clock.Since(start).Seconds())
	if d.Degraded {
		metrics.DegradedDecisions.Inc()
	}

	e.log.Info().
		Int64("location_id", locationID).
		Str("status", string(d.Status)).
		Bool("degraded", d.Degraded).
		Int("rules_evaluated", d.RulesEvaluated).
		Int("triggered", len(d.Triggered)).
		Int("skipped", len(d.Skipped)).
		Msg("location evaluated")
	for _, s := range d.Skipped {
		e.log.Warn().
			Int64("location_id", locationID).
			Int64("rule_id", s.RuleID).
			Str("reason", s.Reason).
			Msg("rule skipped")
	}

	if e.sink != nil {
		if err := e.sink.AppendDecision(ctx, d.clone()); err != nil {
			metrics.SinkAppendFailures.WithLabelValues("engine").Inc()
			e.log.Warn().Err(err).Int64("location_id", locationID).Msg("decision not persisted")
			return &d, fmt.Errorf("%w: %v", ErrSinkAppend, err)
		}
	}

	return &d, nil
}

// clone hands sinks their own copy so a persisted decision can never be
// mutated through the returned pointer.
func (d *Decision) clone() *Decision {
	c := *d
	c.Triggered = append([]Verdict(nil), d.Triggered...)
	c.Skipped = append([]SkippedRule(nil), d.Skipped...)
	return &c
}
