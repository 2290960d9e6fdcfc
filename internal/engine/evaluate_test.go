package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/launch-advisor/internal/rules"
	"github.com/smukkama/launch-advisor/internal/weather"
)

func testRule(id int64, cat rules.Category, op rules.Operator, low float64) rules.Rule {
	return rules.Rule{
		ID:           id,
		LocationID:   1,
		Category:     cat,
		StationID:    "STA",
		Operator:     op,
		ThresholdLow: low,
		Severity:     rules.SeverityUnsafe,
		Priority:     1,
		Active:       true,
	}
}

func TestEvalScalarWindSpeed(t *testing.T) {
	cfg := testConfig()
	r := testRule(1, rules.CategoryWindSpeed, rules.OpGreaterThan, 8)

	t.Run("triggers above the limit", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 9.2)

		v, err := evalScalar(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.True(t, v.Triggered)
		assert.Equal(t, QualityOK, v.Quality)
		assert.Contains(t, v.Explanation, "9.2")
		assert.Contains(t, v.Explanation, "8")
	})

	t.Run("clear below the limit", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 5.0)

		v, err := evalScalar(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.False(t, v.Triggered)
		assert.Empty(t, v.Explanation)
	})

	t.Run("absent field never triggers", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withTemperature(sampleAt("STA", time.Minute), 12.5)

		v, err := evalScalar(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.False(t, v.Triggered)
		assert.Equal(t, QualityMissing, v.Quality)
	})

	t.Run("stale sample still evaluates but tags the verdict", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withWind(sampleAt("STA", 2*time.Hour), 9.2)

		v, err := evalScalar(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.True(t, v.Triggered)
		assert.Equal(t, QualityStale, v.Quality)
	})
}

func TestEvalWindDirection(t *testing.T) {
	cfg := testConfig()
	r := testRule(2, rules.CategoryWindDirection, rules.OpDirectionInSet, 0)
	r.Severity = rules.SeverityCaution
	r.Sectors = []rules.Sector{{Center: 315, HalfWidth: 45}}

	t.Run("bearing inside the sector triggers", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withDirection(sampleAt("STA", time.Minute), 320)

		v, err := evalWindDirection(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.True(t, v.Triggered)
		assert.Equal(t, rules.SeverityCaution, v.Severity)
		assert.Contains(t, v.Explanation, "320")
	})

	t.Run("bearing outside stays clear", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withDirection(sampleAt("STA", time.Minute), 100)

		v, err := evalWindDirection(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.False(t, v.Triggered)
	})

	t.Run("no direction reading is missing", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 4)

		v, err := evalWindDirection(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.False(t, v.Triggered)
		assert.Equal(t, QualityMissing, v.Quality)
	})
}

func TestEvalGustRatio(t *testing.T) {
	cfg := testConfig()
	r := testRule(3, rules.CategoryGustRatio, rules.OpGreaterThan, 2)

	t.Run("ratio above threshold triggers", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withGust(withWind(sampleAt("STA", time.Minute), 4.0), 9.2)

		v, err := evalGustRatio(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.True(t, v.Triggered)
		assert.Contains(t, v.Explanation, "gust ratio")
	})

	t.Run("near-zero wind makes the ratio unevaluable", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withGust(withWind(sampleAt("STA", time.Minute), 0.05), 3.0)

		v, err := evalGustRatio(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.False(t, v.Triggered)
		assert.Equal(t, QualityMissing, v.Quality)
	})

	t.Run("missing gust reading is missing", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withWind(sampleAt("STA", time.Minute), 4.0)

		v, err := evalGustRatio(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.Equal(t, QualityMissing, v.Quality)
	})
}

func TestEvalPressureTrend(t *testing.T) {
	cfg := testConfig()
	r := testRule(4, rules.CategoryPressureTrend, rules.OpLessThan, -0.5)

	t.Run("falling pressure triggers", func(t *testing.T) {
		source := newFakeSource()
		source.windows["STA"] = []weather.Sample{
			*withPressure(sampleAt("STA", 2*time.Hour), 1010),
			*withPressure(sampleAt("STA", time.Hour), 1009),
			*withPressure(sampleAt("STA", 10*time.Minute), 1007.5),
		}

		// Endpoint slope: (1007.5-1010) hPa over 110 minutes.
		v, err := evalPressureTrend(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.True(t, v.Triggered)
		assert.Contains(t, v.Explanation, "hPa/h")
	})

	t.Run("single reading is missing", func(t *testing.T) {
		source := newFakeSource()
		source.windows["STA"] = []weather.Sample{*withPressure(sampleAt("STA", time.Hour), 1010)}

		v, err := evalPressureTrend(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.False(t, v.Triggered)
		assert.Equal(t, QualityMissing, v.Quality)
	})

	t.Run("samples without pressure are ignored", func(t *testing.T) {
		source := newFakeSource()
		source.windows["STA"] = []weather.Sample{
			*withWind(sampleAt("STA", 2*time.Hour), 3),
			*withWind(sampleAt("STA", time.Hour), 4),
		}

		v, err := evalPressureTrend(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.Equal(t, QualityMissing, v.Quality)
	})
}

func TestEvalPressureDelta(t *testing.T) {
	cfg := testConfig()
	r := testRule(5, rules.CategoryPressureDelta, rules.OpNotInRange, 0)
	r.SecondStationID = "STB"
	r.ThresholdHigh = fptr(4)

	t.Run("large delta triggers", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withPressure(sampleAt("STA", time.Minute), 950)
		source.latest["STB"] = withPressure(sampleAt("STB", 5*time.Minute), 955)

		v, err := evalPressureDelta(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.True(t, v.Triggered)
		assert.Contains(t, v.Explanation, "STA")
		assert.Contains(t, v.Explanation, "STB")
		assert.Contains(t, v.Explanation, "5")
	})

	t.Run("small delta stays clear", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withPressure(sampleAt("STA", time.Minute), 952)
		source.latest["STB"] = withPressure(sampleAt("STB", 5*time.Minute), 955)

		v, err := evalPressureDelta(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.False(t, v.Triggered)
	})

	t.Run("readings too far apart in time are missing", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withPressure(sampleAt("STA", time.Minute), 950)
		source.latest["STB"] = withPressure(sampleAt("STB", 40*time.Minute), 955)

		v, err := evalPressureDelta(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.False(t, v.Triggered)
		assert.Equal(t, QualityMissing, v.Quality)
	})

	t.Run("one station silent is missing", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withPressure(sampleAt("STA", time.Minute), 950)

		v, err := evalPressureDelta(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.Equal(t, QualityMissing, v.Quality)
	})

	t.Run("stale input propagates to the verdict", func(t *testing.T) {
		source := newFakeSource()
		source.latest["STA"] = withPressure(sampleAt("STA", 90*time.Minute), 950)
		source.latest["STB"] = withPressure(sampleAt("STB", 95*time.Minute), 955)

		v, err := evalPressureDelta(context.Background(), r, newResolver(source, cfg), cfg)
		require.NoError(t, err)
		assert.True(t, v.Triggered)
		assert.Equal(t, QualityStale, v.Quality)
	})
}
