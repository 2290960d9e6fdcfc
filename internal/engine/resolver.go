package engine

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/smukkama/launch-advisor/internal/metrics"
	"github.com/smukkama/launch-advisor/internal/weather"
)

// SampleSource provides normalized station readings. Implementations
// are read-only collaborators (database, cache); the engine never
// writes samples.
type SampleSource interface {
	// Latest returns the most recent sample for a station, or nil if
	// the station has never reported.
	Latest(ctx context.Context, stationID string) (*weather.Sample, error)
	// Window returns all samples within the lookback, oldest first.
	Window(ctx context.Context, stationID string, lookback time.Duration) ([]weather.Sample, error)
}

// resolver wraps a SampleSource for the duration of one evaluation
// cycle. Every fetch result, including failures, is memoized per
// station so all rules in the cycle see one consistent snapshot of the
// world. Each underlying fetch is bounded by the configured timeout.
// Memoization uses one sync.Once per key, so rules touching different
// stations still fetch in parallel.
type resolver struct {
	source       SampleSource
	clock        clockwork.Clock
	freshness    time.Duration
	fetchTimeout time.Duration

	mu      sync.Mutex
	latest  map[string]*latestCell
	windows map[windowKey]*windowCell
}

type latestCell struct {
	once    sync.Once
	sample  *weather.Sample
	quality Quality
}

type windowKey struct {
	stationID string
	lookback  time.Duration
}

type windowCell struct {
	once    sync.Once
	samples []weather.Sample
	quality Quality
}

func newResolver(source SampleSource, cfg Config) *resolver {
	return &resolver{
		source:       source,
		clock:        cfg.Clock,
		freshness:    cfg.Freshness,
		fetchTimeout: cfg.FetchTimeout,
		latest:       make(map[string]*latestCell),
		windows:      make(map[windowKey]*windowCell),
	}
}

// Latest returns the station's most recent sample with a quality tag.
// A fetch error or timeout yields (nil, missing); an old sample is
// still returned but tagged stale.
func (r *resolver) Latest(ctx context.Context, stationID string) (*weather.Sample, Quality) {
	r.mu.Lock()
	cell, ok := r.latest[stationID]
	if !ok {
		cell = &latestCell{}
		r.latest[stationID] = cell
	}
	r.mu.Unlock()

	cell.once.Do(func() {
		sample, err := r.fetchLatest(ctx, stationID)
		if err != nil || sample == nil {
			cell.quality = QualityMissing
			return
		}
		cell.sample = sample
		cell.quality = QualityOK
		if sample.Age(r.clock.Now()) > r.freshness {
			cell.quality = QualityStale
		}
	})

	return cell.sample, cell.quality
}

// Window returns the station's samples over the lookback, oldest first.
// Quality is missing when the fetch fails or returns nothing, stale
// when the newest in-window sample is older than the freshness limit.
func (r *resolver) Window(ctx context.Context, stationID string, lookback time.Duration) ([]weather.Sample, Quality) {
	key := windowKey{stationID: stationID, lookback: lookback}

	r.mu.Lock()
	cell, ok := r.windows[key]
	if !ok {
		cell = &windowCell{}
		r.windows[key] = cell
	}
	r.mu.Unlock()

	cell.once.Do(func() {
		samples, err := r.fetchWindow(ctx, stationID, lookback)
		if err != nil || len(samples) == 0 {
			cell.quality = QualityMissing
			return
		}
		cell.samples = samples
		cell.quality = QualityOK
		if samples[len(samples)-1].Age(r.clock.Now()) > r.freshness {
			cell.quality = QualityStale
		}
	})

	return cell.samples, cell.quality
}

func (r *resolver) fetchLatest(ctx context.Context, stationID string) (*weather.Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	start := r.clock.Now()
	sample, err := r.source.Latest(ctx, stationID)
	metrics.SampleFetchDuration.Observe(r.clock.Since(start).Seconds())
	return sample, err
}

func (r *resolver) fetchWindow(ctx context.Context, stationID string, lookback time.Duration) ([]weather.Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	start := r.clock.Now()
	samples, err := r.source.Window(ctx, stationID, lookback)
	metrics.SampleFetchDuration.Observe(r.clock.Since(start).Seconds())
	return samples, err
}
