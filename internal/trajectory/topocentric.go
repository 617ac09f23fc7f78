// Package trajectory samples a satellite's path as seen from a ground site
// and attaches a link estimate to every sample.
package trajectory

import (
	"errors"
	"fmt"
	"time"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/propagation"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/transform"
)

// Look is the observer-relative geometry of one satellite at one instant,
// together with the point on the ground beneath it.
type Look struct {
	ElevationDeg float64 `json:"elevation_deg"`
	AzimuthDeg   float64 `json:"azimuth_deg"`
	RangeKm      float64 `json:"range_km"`
	SubLatDeg    float64 `json:"satellite_lat"`
	SubLonDeg    float64 `json:"satellite_lon"`
	SubAltKm     float64 `json:"satellite_alt_km"`
}

// Tracker resolves the Look at an instant.
type Tracker interface {
	Track(t time.Time) (Look, error)
}

// Topocentric tracks one propagated satellite from one observer.
type Topocentric struct {
	prop propagation.Propagator
	obs  transform.Observer
}

var _ Tracker = (*Topocentric)(nil)

// NewTopocentric pairs a propagator with an observer built by NewObserver.
func NewTopocentric(prop propagation.Propagator, obs transform.Observer) (*Topocentric, error) {
	if prop == nil {
		return nil, invalid("elements", "no propagator")
	}
	if obs.IsZero() {
		return nil, invalid("observer", "observer not initialised")
	}
	return &Topocentric{prop: prop, obs: obs}, nil
}

// NewObserver validates geodetic coordinates and builds the observer.
func NewObserver(latDeg, lonDeg, elevationM float64) (transform.Observer, error) {
	obs, err := transform.NewObserver(latDeg, lonDeg, elevationM)
	if err != nil {
		var re *transform.RangeError
		if errors.As(err, &re) {
			return transform.Observer{}, invalid(re.Field, "%v outside [%v, %v]", re.Value, re.Min, re.Max)
		}
		return transform.Observer{}, err
	}
	return obs, nil
}

// Observer returns the site the tracker looks from.
func (tp *Topocentric) Observer() transform.Observer { return tp.obs }

// CatalogID returns the NORAD id of the tracked satellite.
func (tp *Topocentric) CatalogID() int { return tp.prop.CatalogID() }

// Track propagates to t and projects the state onto the observer's horizon.
// t must carry the UTC location.
func (tp *Topocentric) Track(t time.Time) (Look, error) {
	if t.Location() != time.UTC {
		return Look{}, invalid("time", "%s is not UTC", t.Format(time.RFC3339))
	}

	teme, err := tp.prop.Propagate(t)
	if err != nil {
		return Look{}, err
	}

	ecef := transform.TEMEToECEF(teme, t)
	if !transform.Plausible(ecef) {
		return Look{}, &propagation.Error{
			CatalogID: tp.prop.CatalogID(),
			Time:      t,
			Err:       fmt.Errorf("implausible ECEF radius %.1f km", ecef.Radius()),
		}
	}

	la := tp.obs.Look(ecef)
	sub := transform.SubPoint(ecef)

	return Look{
		ElevationDeg: la.ElevationDeg,
		AzimuthDeg:   la.AzimuthDeg,
		RangeKm:      la.RangeKm,
		SubLatDeg:    sub.LatDeg,
		SubLonDeg:    sub.LonDeg,
		SubAltKm:     sub.AltKm,
	}, nil
}
