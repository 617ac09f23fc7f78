package trajectory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
)

type trackerFunc func(t time.Time) (Look, error)

func (f trackerFunc) Track(t time.Time) (Look, error) { return f(t) }

func constant(el float64) Tracker {
	return trackerFunc(func(time.Time) (Look, error) {
		return Look{ElevationDeg: el, AzimuthDeg: 180, RangeKm: 600}, nil
	})
}

var t0 = time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC)

func defaultSampler() Sampler {
	return Sampler{Interval: 5 * time.Second, Link: linkbudget.DefaultParams()}
}

func TestSampleTickCount(t *testing.T) {
	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"59 seconds at 5s", t0.Add(59 * time.Second), 12},
		{"exact multiple includes end", t0.Add(60 * time.Second), 13},
		{"start equals end", t0, 1},
		{"shorter than one interval", t0.Add(4 * time.Second), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := defaultSampler().Sample(context.Background(), constant(30), t0, tt.end)
			require.NoError(t, err)
			require.Len(t, samples, tt.want)
			assert.Equal(t, tt.want, Ticks(t0, tt.end, 5*time.Second))

			for i, s := range samples {
				assert.True(t, s.Time.Equal(t0.Add(time.Duration(i)*5*time.Second)), "tick %d at %s", i, s.Time)
			}
			assert.False(t, samples[len(samples)-1].Time.After(tt.end))
		})
	}
}

func TestSampleRejectsInvalidInput(t *testing.T) {
	cst := time.FixedZone("CST", -6*3600)
	tests := []struct {
		name       string
		sampler    Sampler
		start, end time.Time
		field      string
	}{
		{"end before start", defaultSampler(), t0, t0.Add(-time.Second), "end"},
		{"zero interval", Sampler{Link: linkbudget.DefaultParams()}, t0, t0.Add(time.Minute), "interval"},
		{"negative interval", Sampler{Interval: -time.Second}, t0, t0.Add(time.Minute), "interval"},
		{"sub-second interval", Sampler{Interval: 1500 * time.Millisecond}, t0, t0.Add(time.Minute), "interval"},
		{"non-UTC start", defaultSampler(), t0.In(cst), t0.Add(time.Minute), "start"},
		{"non-UTC end", defaultSampler(), t0, t0.Add(time.Minute).In(cst), "end"},
		{"fractional start", defaultSampler(), t0.Add(250 * time.Millisecond), t0.Add(time.Minute), "start"},
		{"window over default limit", defaultSampler(), t0, t0.Add(DefaultMaxWindow + time.Second), "end"},
		{"two centuries", defaultSampler(),
			time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC), "end"},
		{"window over configured limit", Sampler{Interval: time.Second, MaxWindow: time.Hour}, t0, t0.Add(time.Hour + time.Second), "end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			tr := trackerFunc(func(time.Time) (Look, error) { calls++; return Look{}, nil })

			samples, err := tt.sampler.Sample(context.Background(), tr, tt.start, tt.end)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, samples)
			assert.Zero(t, calls, "nothing may be tracked before validation passes")

			var ie *InputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestSampleWindowLimitIsInclusive(t *testing.T) {
	s := Sampler{Interval: time.Minute, Link: linkbudget.DefaultParams(), MaxWindow: time.Hour}
	samples, err := s.Sample(context.Background(), constant(10), t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, samples, 61)

	// A fractional end is fine; only the start anchors the tick grid.
	samples, err = defaultSampler().Sample(context.Background(), constant(10), t0, t0.Add(7500*time.Millisecond))
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestSampleVisibilityAndLink(t *testing.T) {
	tests := []struct {
		elevation float64
		visible   bool
		noSignal  bool
	}{
		{45, true, false},
		{0.01, true, false},
		{0, false, false}, // on the horizon: not visible but still estimated
		{-0.01, false, true},
		{-30, false, true},
	}

	for _, tt := range tests {
		samples, err := defaultSampler().Sample(context.Background(), constant(tt.elevation), t0, t0)
		require.NoError(t, err)
		require.Len(t, samples, 1)

		s := samples[0]
		assert.Equal(t, tt.visible, s.Visible, "elevation %v", tt.elevation)
		assert.Equal(t, tt.noSignal, s.Link.Signal == nil, "elevation %v", tt.elevation)
		if tt.noSignal {
			assert.Equal(t, linkbudget.NoSignal, s.Link.Quality)
		}
	}
}

func TestSampleAbortsOnTrackerError(t *testing.T) {
	boom := errors.New("decayed")
	tr := trackerFunc(func(at time.Time) (Look, error) {
		if at.After(t0.Add(20 * time.Second)) {
			return Look{}, boom
		}
		return Look{ElevationDeg: 10, RangeKm: 900}, nil
	})

	samples, err := defaultSampler().Sample(context.Background(), tr, t0, t0.Add(time.Minute))
	require.ErrorIs(t, err, boom)
	assert.Nil(t, samples, "no partial results")
	assert.Contains(t, err.Error(), "tick 5")
}

func TestSampleCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	tr := trackerFunc(func(time.Time) (Look, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		return Look{ElevationDeg: 10, RangeKm: 900}, nil
	})

	samples, err := defaultSampler().Sample(ctx, tr, t0, t0.Add(time.Hour))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, samples)
	assert.Equal(t, 3, calls)
}

func TestSampleDeterministic(t *testing.T) {
	tr := trackerFunc(func(at time.Time) (Look, error) {
		x := at.Sub(t0).Seconds()
		return Look{ElevationDeg: 40 * math.Sin(x/300), AzimuthDeg: math.Mod(x, 360), RangeKm: 500 + x}, nil
	})

	a, err := defaultSampler().Sample(context.Background(), tr, t0, t0.Add(30*time.Minute))
	require.NoError(t, err)
	b, err := defaultSampler().Sample(context.Background(), tr, t0, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
