// Package propagation turns orbital element sets into satellite states.
package propagation

import (
	"errors"
	"fmt"
	"time"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/transform"
)

// Propagator yields the TEME state of one satellite at an instant.
type Propagator interface {
	CatalogID() int
	Propagate(t time.Time) (transform.PositionTEME, error)
}

var (
	// ErrPropagation is matched by every *Error.
	ErrPropagation = errors.New("propagation failed")
	// ErrInvalidElements is returned when an element set cannot initialise the model.
	ErrInvalidElements = errors.New("invalid element set")

	errNonFinite = errors.New("output is NaN/Inf")
)

// Error reports a propagation failure for one satellite at one instant.
type Error struct {
	CatalogID int
	Time      time.Time
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sgp4 propagation failed for NORAD %d at %s: %v",
		e.CatalogID, e.Time.UTC().Format(time.RFC3339), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPropagation) hold for any *Error.
func (e *Error) Is(target error) bool { return target == ErrPropagation }
