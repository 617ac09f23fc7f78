package propagation

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/tle"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go, explicit TEME output, and ships GSTimeFromDate / ECIToECEF which the
// transform tests use as a reference.
//
// satellite.Propagate takes the Satellite by value, so SGP4 error codes raised
// during propagation never reach the caller. Failures are detected from the
// output instead: NaN/Inf components or a geocentric radius no satellite could
// have.

// SGP4Propagator wraps the go-satellite model for a single element set.
type SGP4Propagator struct {
	sat     satellite.Satellite
	noradID int
}

var _ Propagator = (*SGP4Propagator)(nil)

// NewSGP4Propagator initialises SGP4 from a TLE entry.
//
// The lines are pre-validated because go-satellite calls log.Fatal on
// malformed input.
func NewSGP4Propagator(entry tle.TLEEntry) (*SGP4Propagator, error) {
	if err := validateTLELines(entry.Line1, entry.Line2); err != nil {
		return nil, fmt.Errorf("NORAD %d: %w: %v", entry.NORADID, ErrInvalidElements, err)
	}

	sat := satellite.TLEToSat(strings.TrimSpace(entry.Line1), strings.TrimSpace(entry.Line2), satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("NORAD %d: %w: sgp4 init code=%d %s", entry.NORADID, ErrInvalidElements, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, noradID: entry.NORADID}, nil
}

func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// CatalogID returns the NORAD catalog number of the element set.
func (p *SGP4Propagator) CatalogID() int { return p.noradID }

// Propagate returns the TEME state (km, km/s) at t. The model is driven in
// whole UTC seconds; any sub-second part of t is dropped.
func (p *SGP4Propagator) Propagate(t time.Time) (transform.PositionTEME, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	for _, v := range []float64{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return transform.PositionTEME{}, &Error{CatalogID: p.noradID, Time: t, Err: errNonFinite}
		}
	}

	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return transform.PositionTEME{}, &Error{
			CatalogID: p.noradID,
			Time:      t,
			Err:       fmt.Errorf("unreasonable position magnitude %.1f km", mag),
		}
	}

	return transform.PositionTEME{
		X:  pos.X,
		Y:  pos.Y,
		Z:  pos.Z,
		VX: vel.X,
		VY: vel.Y,
		VZ: vel.Z,
	}, nil
}
