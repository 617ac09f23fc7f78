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
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/propagation"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/tle"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/transform"
)

const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

func issTracker(t *testing.T) *Topocentric {
	t.Helper()
	prop, err := propagation.NewSGP4Propagator(tle.TLEEntry{NORADID: 25544, Name: "ISS", Line1: issLine1, Line2: issLine2})
	require.NoError(t, err)
	obs, err := NewObserver(31.8457, -102.3676, 895)
	require.NoError(t, err)
	tp, err := NewTopocentric(prop, obs)
	require.NoError(t, err)
	return tp
}

func TestTopocentricOverOneDay(t *testing.T) {
	tp := issTracker(t)
	start := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	s := Sampler{Interval: 30 * time.Second, Link: linkbudget.DefaultParams()}
	samples, err := s.Sample(context.Background(), tp, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, samples, 2881)

	visible := 0
	for _, smp := range samples {
		assert.GreaterOrEqual(t, smp.AzimuthDeg, 0.0)
		assert.Less(t, smp.AzimuthDeg, 360.0)
		assert.Greater(t, smp.RangeKm, 0.0)
		assert.InDelta(t, 420, smp.SubAltKm, 80, "ISS altitude at %s", smp.Time)
		assert.LessOrEqual(t, math.Abs(smp.SubLatDeg), 52.0, "ground track bounded by inclination")
		if smp.Visible {
			visible++
			assert.Less(t, smp.RangeKm, 2700.0, "visible LEO slant range")
		}
	}
	// A 51.6° orbit is seen from 31.8°N several times a day.
	assert.Greater(t, visible, 0)
	assert.Less(t, visible, len(samples)/4)
}

func TestTopocentricRejectsNonUTC(t *testing.T) {
	tp := issTracker(t)
	_, err := tp.Track(time.Date(2024, 4, 10, 6, 0, 0, 0, time.FixedZone("CST", -6*3600)))

	var ie *InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "time", ie.Field)
}

type failingPropagator struct{}

func (failingPropagator) CatalogID() int { return 61045 }

func (failingPropagator) Propagate(t time.Time) (transform.PositionTEME, error) {
	return transform.PositionTEME{}, &propagation.Error{CatalogID: 61045, Time: t, Err: errors.New("decayed")}
}

type insidePropagator struct{}

func (insidePropagator) CatalogID() int { return 61046 }

func (insidePropagator) Propagate(time.Time) (transform.PositionTEME, error) {
	return transform.PositionTEME{X: 100}, nil
}

func TestTopocentricPropagationFailure(t *testing.T) {
	obs, err := NewObserver(0, 0, 0)
	require.NoError(t, err)

	for _, prop := range []propagation.Propagator{failingPropagator{}, insidePropagator{}} {
		tp, err := NewTopocentric(prop, obs)
		require.NoError(t, err)

		_, err = tp.Track(time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC))
		require.ErrorIs(t, err, propagation.ErrPropagation)
	}
}

func TestNewTopocentricValidation(t *testing.T) {
	_, err := NewTopocentric(nil, transform.Observer{})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewTopocentric(failingPropagator{}, transform.Observer{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewObserverInvalidInput(t *testing.T) {
	_, err := NewObserver(95, 0, 0)
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "latitude", ie.Field)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewObserver(0, -181, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}
