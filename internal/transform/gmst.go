package transform

import (
	"math"
	"time"
)

const (
	// jdUnixEpoch is the Julian Date of 1970-01-01T00:00:00Z.
	jdUnixEpoch = 2440587.5
	// jdJ2000 is the Julian Date of the J2000.0 epoch.
	jdJ2000 = 2451545.0

	secondsPerDay = 86400.0
)

// OmegaEarth is Earth's rotation rate in rad/s.
const OmegaEarth = 7.292115146706979e-5

// JulianDate returns the Julian Date of t (interpreted in UTC).
func JulianDate(t time.Time) float64 {
	sec := t.Unix()
	frac := float64(t.Nanosecond()) / 1e9
	return jdUnixEpoch + (float64(sec)+frac)/secondsPerDay
}

// GMST returns Greenwich Mean Sidereal Time in radians, [0, 2π).
//
// IAU-82 model (Vallado eq. 3-47), the same one SGP4 assumes when it emits
// TEME coordinates:
//
//	θ = 67310.54841 + (876600h + 8640184.812866)·T + 0.093104·T² − 6.2e-6·T³   [s]
func GMST(t time.Time) float64 {
	tut1 := (JulianDate(t) - jdJ2000) / 36525.0

	sec := 67310.54841 +
		(876600.0*3600.0+8640184.812866)*tut1 +
		0.093104*tut1*tut1 -
		6.2e-6*tut1*tut1*tut1

	sec = math.Mod(sec, secondsPerDay)
	if sec < 0 {
		sec += secondsPerDay
	}
	return sec / secondsPerDay * 2 * math.Pi
}
