// Package transform holds the coordinate geometry behind the pass reports:
// sidereal time, the TEME to ECEF rotation, WGS-84 geodetic conversions and
// observer-relative (topocentric) look angles.
//
// TEME → ECEF uses the GMST-only rotation (TEME → PEF, treated as ECEF).
// Polar motion and the equation of the equinoxes are ignored; the resulting
// error is tens of metres, far below what the link budget can resolve.
//
// All distances are kilometres and all velocities km/s.
package transform

import (
	"math"
	"time"
)

// PositionTEME is a satellite state vector in the TEME frame (km, km/s).
type PositionTEME struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// PositionECEF is a satellite state vector in the Earth-fixed frame (km, km/s).
type PositionECEF struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// Radius returns the geocentric distance in km.
func (p PositionECEF) Radius() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// TEMEToECEF rotates a TEME state into the Earth-fixed frame at instant t.
func TEMEToECEF(teme PositionTEME, t time.Time) PositionECEF {
	return RotateTEME(teme, GMST(t))
}

// RotateTEME applies r_ECEF = R3(θ)·r_TEME and v_ECEF = R3(θ)·v_TEME − ω × r_ECEF
// for a precomputed sidereal angle θ (radians).
func RotateTEME(teme PositionTEME, gmst float64) PositionECEF {
	c, s := math.Cos(gmst), math.Sin(gmst)

	x := c*teme.X + s*teme.Y
	y := -s*teme.X + c*teme.Y

	vx := c*teme.VX + s*teme.VY + OmegaEarth*y
	vy := -s*teme.VX + c*teme.VY - OmegaEarth*x

	return PositionECEF{X: x, Y: y, Z: teme.Z, VX: vx, VY: vy, VZ: teme.VZ}
}

// Plausible reports whether p is finite and between 6200 km and 50000 km from
// the geocentre, i.e. somewhere an Earth satellite can actually be.
func Plausible(p PositionECEF) bool {
	for _, v := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	r := p.Radius()
	return r >= 6200 && r <= 50000
}
