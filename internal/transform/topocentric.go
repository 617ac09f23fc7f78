package transform

import (
	"fmt"
	"math"
)

// WGS-84 ellipsoid.
const (
	wgs84A  = 6378.137              // semi-major axis, km
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// Observer is a fixed ground site. The Earth-fixed position is derived once so
// that a whole sampling run reuses it.
type Observer struct {
	LatDeg, LonDeg float64
	ElevationM     float64 // metres above the ellipsoid

	sinLat, cosLat float64
	sinLon, cosLon float64
	ecef           [3]float64 // km
}

// RangeError reports a geodetic coordinate outside its domain.
type RangeError struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %v outside [%v, %v]", e.Field, e.Value, e.Min, e.Max)
}

// NewObserver builds an Observer from geodetic degrees and metres.
func NewObserver(latDeg, lonDeg, elevationM float64) (Observer, error) {
	if math.IsNaN(latDeg) || latDeg < -90 || latDeg > 90 {
		return Observer{}, &RangeError{Field: "latitude", Value: latDeg, Min: -90, Max: 90}
	}
	if math.IsNaN(lonDeg) || lonDeg < -180 || lonDeg > 180 {
		return Observer{}, &RangeError{Field: "longitude", Value: lonDeg, Min: -180, Max: 180}
	}
	if math.IsNaN(elevationM) || math.IsInf(elevationM, 0) {
		return Observer{}, &RangeError{Field: "elevation", Value: elevationM, Min: math.Inf(-1), Max: math.Inf(1)}
	}

	lat, lon := latDeg*deg2rad, lonDeg*deg2rad
	o := Observer{
		LatDeg:     latDeg,
		LonDeg:     lonDeg,
		ElevationM: elevationM,
		sinLat:     math.Sin(lat),
		cosLat:     math.Cos(lat),
		sinLon:     math.Sin(lon),
		cosLon:     math.Cos(lon),
	}

	h := elevationM / 1000
	n := wgs84A / math.Sqrt(1-wgs84E2*o.sinLat*o.sinLat)
	o.ecef = [3]float64{
		(n + h) * o.cosLat * o.cosLon,
		(n + h) * o.cosLat * o.sinLon,
		(n*(1-wgs84E2) + h) * o.sinLat,
	}
	return o, nil
}

// ECEF returns the observer's Earth-fixed position in km.
func (o Observer) ECEF() (x, y, z float64) {
	return o.ecef[0], o.ecef[1], o.ecef[2]
}

// LookAngles is the observer-relative direction and distance to a target.
type LookAngles struct {
	AzimuthDeg   float64 // [0, 360), clockwise from north
	ElevationDeg float64 // negative below the horizon
	RangeKm      float64
}

// Look projects the observer→satellite vector onto the local
// South-East-Zenith frame (Vallado §4.4).
func (o Observer) Look(sat PositionECEF) LookAngles {
	rx := sat.X - o.ecef[0]
	ry := sat.Y - o.ecef[1]
	rz := sat.Z - o.ecef[2]

	south := o.sinLat*o.cosLon*rx + o.sinLat*o.sinLon*ry - o.cosLat*rz
	east := -o.sinLon*rx + o.cosLon*ry
	zenith := o.cosLat*o.cosLon*rx + o.cosLat*o.sinLon*ry + o.sinLat*rz

	rng := math.Sqrt(south*south + east*east + zenith*zenith)

	az := math.Atan2(east, -south) * rad2deg
	if az < 0 {
		az += 360
	}
	// Atan2 can round to exactly 360 for vanishing negative east components.
	if az >= 360 {
		az -= 360
	}

	return LookAngles{
		AzimuthDeg:   az,
		ElevationDeg: math.Asin(zenith/rng) * rad2deg,
		RangeKm:      rng,
	}
}

// Geodetic is a latitude/longitude in degrees and a height above the
// WGS-84 ellipsoid in km.
type Geodetic struct {
	LatDeg, LonDeg float64
	AltKm          float64
}

// SubPoint returns the geodetic point directly beneath an Earth-fixed
// position, iterating Bowring's latitude until it stops moving.
func SubPoint(p PositionECEF) Geodetic {
	rxy := math.Hypot(p.X, p.Y)
	lat := math.Atan2(p.Z, rxy*(1-wgs84E2))

	var n float64
	for i := 0; i < 10; i++ {
		sin := math.Sin(lat)
		n = wgs84A / math.Sqrt(1-wgs84E2*sin*sin)
		next := math.Atan2(p.Z+wgs84E2*n*sin, rxy)
		if math.Abs(next-lat) < 1e-12 {
			lat = next
			break
		}
		lat = next
	}

	sin, cos := math.Sin(lat), math.Cos(lat)
	n = wgs84A / math.Sqrt(1-wgs84E2*sin*sin)

	var alt float64
	if math.Abs(cos) > 1e-10 {
		alt = rxy/cos - n
	} else {
		alt = math.Abs(p.Z) - n*(1-wgs84E2)
	}

	return Geodetic{
		LatDeg: lat * rad2deg,
		LonDeg: math.Atan2(p.Y, p.X) * rad2deg,
		AltKm:  alt,
	}
}

// IsZero reports whether o was declared without NewObserver.
func (o Observer) IsZero() bool {
	return o.ecef == [3]float64{}
}
