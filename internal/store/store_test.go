package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/config"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/passes"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/pipeline"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/tle"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/trajectory"
)

var t0 = time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// twoPasses rises above the horizon twice in 40 ticks, for phases 1-9 of
// each 20 tick cycle.
type twoPasses struct{}

func (twoPasses) Track(t time.Time) (trajectory.Look, error) {
	i := int(t.Sub(t0) / (10 * time.Second))
	el := -5.0
	if phase := i % 20; phase >= 1 && phase <= 9 {
		el = 30 - 5*math.Abs(float64(phase-5))
	}
	return trajectory.Look{
		ElevationDeg: el,
		AzimuthDeg:   float64(i * 9),
		RangeKm:      700,
		SubLatDeg:    30,
		SubLonDeg:    -100,
		SubAltKm:     520,
	}, nil
}

func testResult(t *testing.T, created time.Time) *pipeline.Result {
	t.Helper()
	link := linkbudget.DefaultParams()
	end := t0.Add(390 * time.Second)
	s := trajectory.Sampler{Interval: 10 * time.Second, Link: link}
	samples, err := s.Sample(context.Background(), twoPasses{}, t0, end)
	require.NoError(t, err)
	ps := passes.Segment(samples)
	require.Len(t, ps, 2)

	cfg := config.Default()
	return &pipeline.Result{
		RunID:     uuid.New(),
		CreatedAt: created,
		Observer:  cfg.Observer,
		Start:     t0,
		End:       end,
		Interval:  10 * time.Second,
		Link:      link,
		Satellites: []pipeline.SatelliteResult{
			{
				Satellite: cfg.Satellites[0],
				TLE:       tle.Resolved{Entry: tle.Simulated(53807, "BLUEWALKER 3"), Source: tle.SourceSimulated},
				Samples:   samples,
				Passes:    ps,
				Summaries: passes.SummarizeAll(ps, 10*time.Second, link.Thresholds),
				Stats:     pipeline.Stats{TotalSamples: 40, VisibleSamples: 18, VisibleMinutes: 3, Passes: 2, MaxElevation: 30},
			},
			{Satellite: cfg.Satellites[1], Err: "resolving elements: context deadline exceeded"},
		},
		Fleet: pipeline.FleetStats{Satellites: 2, Failed: 1, Passes: 2, VisibleMinutes: 3, BestSatellite: 53807},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	for range 2 {
		s, err := Open(context.Background(), path, testLogger())
		require.NoError(t, err)
		version, err := s.migrateUp()
		require.NoError(t, err)
		assert.EqualValues(t, 1, version)
		require.NoError(t, s.Close())
	}
}

func TestSaveAndLoadPasses(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	res := testResult(t, time.Date(2025, 12, 13, 8, 0, 0, 0, time.UTC))

	require.NoError(t, s.SaveRun(ctx, res))

	got, err := s.LoadPasses(ctx, res.RunID, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	want := res.Satellites[0].Summaries
	for i, sp := range got {
		assert.Equal(t, 53807, sp.NORADID)
		assert.Equal(t, "BLUEWALKER 3", sp.Name)
		assert.Equal(t, i+1, sp.Index)
		diff := cmp.Diff(want[i], sp.Summary, cmpopts.IgnoreFields(passes.Summary{}, "GroundTrack"))
		assert.Empty(t, diff, "pass %d round trip", i+1)
	}

	only, err := s.LoadPasses(ctx, res.RunID, 53807)
	require.NoError(t, err)
	assert.Len(t, only, 2)
	none, err := s.LoadPasses(ctx, res.RunID, 61045)
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := s.CountSamples(ctx, res.RunID, 53807)
	require.NoError(t, err)
	assert.Equal(t, res.Satellites[0].Passes[0].Len()+res.Satellites[0].Passes[1].Len(), n)
}

func TestLoadPassesUnknownRun(t *testing.T) {
	s := openTest(t)
	_, err := s.LoadPasses(context.Background(), uuid.New(), 0)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSaveRunTwiceFails(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	res := testResult(t, time.Now().UTC())

	require.NoError(t, s.SaveRun(ctx, res))
	require.Error(t, s.SaveRun(ctx, res))

	// The failed transaction left nothing behind.
	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	older := testResult(t, time.Date(2025, 12, 13, 8, 0, 0, 0, time.UTC))
	newer := testResult(t, time.Date(2025, 12, 14, 8, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveRun(ctx, older))
	require.NoError(t, s.SaveRun(ctx, newer))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.RunID, runs[0].RunID)
	assert.Equal(t, older.RunID, runs[1].RunID)

	r := runs[0]
	assert.True(t, r.CreatedAt.Equal(newer.CreatedAt))
	assert.True(t, r.Start.Equal(t0))
	assert.Equal(t, 10*time.Second, r.Interval)
	assert.Equal(t, "Odessa, TX", r.ObserverName)
	assert.Equal(t, 2, r.Satellites)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 2, r.Passes)
	assert.Equal(t, 53807, r.BestSatellite)

	limited, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newer.RunID, limited[0].RunID)
}
