package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/launch-advisor/internal/rules"
)

func TestAggregateZeroRules(t *testing.T) {
	d := aggregate(context.Background(), 1, nil, nil, newFakeSource(), testConfig())

	assert.Equal(t, rules.SeveritySafe, d.Status)
	assert.False(t, d.Degraded)
	assert.Empty(t, d.Triggered)
	assert.Empty(t, d.Skipped)
	assert.Equal(t, 0, d.RulesEvaluated)
}

func TestAggregateWorstOfTriggered(t *testing.T) {
	source := newFakeSource()
	source.latest["STA"] = withDirection(withWind(sampleAt("STA", time.Minute), 9.2), 320)

	caution := testRule(1, rules.CategoryWindDirection, rules.OpDirectionInSet, 0)
	caution.Severity = rules.SeverityCaution
	caution.Sectors = []rules.Sector{{Center: 315, HalfWidth: 45}}
	unsafe := testRule(2, rules.CategoryWindSpeed, rules.OpGreaterThan, 8)

	t.Run("caution alone", func(t *testing.T) {
		d := aggregate(context.Background(), 1, []rules.Rule{caution}, nil, source, testConfig())
		assert.Equal(t, rules.SeverityCaution, d.Status)
	})

	t.Run("adding an unsafe rule can only worsen the status", func(t *testing.T) {
		d := aggregate(context.Background(), 1, []rules.Rule{caution, unsafe}, nil, source, testConfig())
		assert.Equal(t, rules.SeverityUnsafe, d.Status)
		assert.Len(t, d.Triggered, 2)
		assert.Equal(t, 2, d.RulesEvaluated)
	})
}

func TestAggregateExplanationOrdering(t *testing.T) {
	source := newFakeSource()
	source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 20)

	low := testRule(7, rules.CategoryWindSpeed, rules.OpGreaterThan, 8)
	low.Priority = 1
	high := testRule(9, rules.CategoryWindSpeed, rules.OpGreaterThan, 10)
	high.Priority = 5
	tied := testRule(3, rules.CategoryWindSpeed, rules.OpGreaterThan, 12)
	tied.Priority = 5

	d := aggregate(context.Background(), 1, []rules.Rule{low, high, tied}, nil, source, testConfig())

	require.Len(t, d.Triggered, 3)
	// Descending priority, ties broken by ascending rule id.
	assert.Equal(t, int64(3), d.Triggered[0].RuleID)
	assert.Equal(t, int64(9), d.Triggered[1].RuleID)
	assert.Equal(t, int64(7), d.Triggered[2].RuleID)
}

func TestAggregateDegradedFlag(t *testing.T) {
	t.Run("untriggered missing data still degrades", func(t *testing.T) {
		source := newFakeSource() // station never reported
		r := testRule(1, rules.CategoryWindSpeed, rules.OpGreaterThan, 8)

		d := aggregate(context.Background(), 1, []rules.Rule{r}, nil, source, testConfig())
		assert.Equal(t, rules.SeveritySafe, d.Status)
		assert.True(t, d.Degraded)
		assert.Empty(t, d.Triggered)
	})

	t.Run("fresh data on every rule stays clean", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 5)
		r := testRule(1, rules.CategoryWindSpeed, rules.OpGreaterThan, 8)

		d := aggregate(context.Background(), 1, []rules.Rule{r}, nil, source, testConfig())
		assert.False(t, d.Degraded)
	})
}

func TestAggregateSkipsMalformedRules(t *testing.T) {
	source := newFakeSource()
	source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 9.2)

	bad := testRule(1, rules.CategoryWindSpeed, rules.OpBetween, 8) // missing upper bound
	good := testRule(2, rules.CategoryWindSpeed, rules.OpGreaterThan, 8)

	d := aggregate(context.Background(), 1, []rules.Rule{bad, good}, nil, source, testConfig())

	require.Len(t, d.Skipped, 1)
	assert.Equal(t, int64(1), d.Skipped[0].RuleID)
	assert.Equal(t, rules.SeverityUnsafe, d.Status, "one bad rule must not blank out the others")
	assert.Equal(t, 1, d.RulesEvaluated)
}

func TestAggregateIsolatesEvaluatorPanic(t *testing.T) {
	source := newFakeSource()
	source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 9.2)

	original := evaluators[rules.CategoryHumidity]
	evaluators[rules.CategoryHumidity] = func(ctx context.Context, r rules.Rule, res *resolver, cfg Config) (Verdict, error) {
		panic("boom")
	}
	defer func() { evaluators[rules.CategoryHumidity] = original }()

	panicky := testRule(1, rules.CategoryHumidity, rules.OpGreaterThan, 90)
	good := testRule(2, rules.CategoryWindSpeed, rules.OpGreaterThan, 8)

	d := aggregate(context.Background(), 1, []rules.Rule{panicky, good}, nil, source, testConfig())

	require.Len(t, d.Skipped, 1)
	assert.Contains(t, d.Skipped[0].Reason, "panic")
	assert.Equal(t, rules.SeverityUnsafe, d.Status)
}

func TestAggregateFailUnsafeEscalation(t *testing.T) {
	source := newFakeSource() // no data at all

	r := testRule(1, rules.CategoryWindSpeed, rules.OpGreaterThan, 8)
	r.FailUnsafe = true

	d := aggregate(context.Background(), 1, []rules.Rule{r}, nil, source, testConfig())

	require.Len(t, d.Triggered, 1)
	assert.Equal(t, rules.SeverityUnsafe, d.Status)
	assert.Equal(t, QualityMissing, d.Triggered[0].Quality)
	assert.Contains(t, d.Triggered[0].Explanation, "fail-unsafe")
	assert.True(t, d.Degraded)
}

func TestAggregateStationlessRules(t *testing.T) {
	stations := []string{"STA", "STB"}

	stationless := func(id int64) rules.Rule {
		r := testRule(id, rules.CategoryWindSpeed, rules.OpGreaterThan, 8)
		r.StationID = ""
		return r
	}

	t.Run("any violating station trips the rule", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 5)
		source.latest["STB"] = withWind(sampleAt("STB", time.Minute), 9.2)

		d := aggregate(context.Background(), 1, []rules.Rule{stationless(1)}, stations, source, testConfig())

		assert.Equal(t, rules.SeverityUnsafe, d.Status)
		require.Len(t, d.Triggered, 1)
		assert.Contains(t, d.Triggered[0].Explanation, "STB")
		assert.False(t, d.Degraded)
	})

	t.Run("all stations clear stays safe", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 5)
		source.latest["STB"] = withWind(sampleAt("STB", time.Minute), 6)

		d := aggregate(context.Background(), 1, []rules.Rule{stationless(1)}, stations, source, testConfig())

		assert.Equal(t, rules.SeveritySafe, d.Status)
		assert.False(t, d.Degraded)
	})

	t.Run("a silent station degrades the decision", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 5)
		// STB never reported

		d := aggregate(context.Background(), 1, []rules.Rule{stationless(1)}, stations, source, testConfig())

		assert.Equal(t, rules.SeveritySafe, d.Status)
		assert.True(t, d.Degraded)
		assert.Empty(t, d.Triggered)
	})

	t.Run("a silent station escalates a fail-unsafe rule", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 5)

		r := stationless(1)
		r.FailUnsafe = true
		d := aggregate(context.Background(), 1, []rules.Rule{r}, stations, source, testConfig())

		require.Len(t, d.Triggered, 1)
		assert.Equal(t, rules.SeverityUnsafe, d.Status)
		assert.Contains(t, d.Triggered[0].Explanation, "STB")
	})

	t.Run("no associated stations is a skipped rule", func(t *testing.T) {
		d := aggregate(context.Background(), 1, []rules.Rule{stationless(1)}, nil, newFakeSource(), testConfig())

		require.Len(t, d.Skipped, 1)
		assert.Contains(t, d.Skipped[0].Reason, "associated stations")
		assert.Equal(t, rules.SeveritySafe, d.Status)
		assert.Equal(t, 0, d.RulesEvaluated)
	})
}

func TestAggregateSharesOneSnapshot(t *testing.T) {
	source := newFakeSource()
	source.latest["STA"] = withWind(withDirection(sampleAt("STA", time.Minute), 100), 5)

	speed := testRule(1, rules.CategoryWindSpeed, rules.OpGreaterThan, 8)
	direction := testRule(2, rules.CategoryWindDirection, rules.OpDirectionInSet, 0)
	direction.Sectors = []rules.Sector{{Center: 315, HalfWidth: 45}}

	aggregate(context.Background(), 1, []rules.Rule{speed, direction}, nil, source, testConfig())

	assert.Equal(t, 1, source.latestCalls["STA"], "both rules must see one consistent fetch")
}
