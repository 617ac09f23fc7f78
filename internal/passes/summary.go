package passes

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
)

// groundTrackStep thins the ground track carried on a Summary.
const groundTrackStep = 10 * time.Second

// GroundTrackPoint is a sub-satellite position at a specific time during a pass.
type GroundTrackPoint struct {
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude_km"`
	Elevation float64   `json:"elevation"`
}

// Summary describes a single satellite pass over the observer.
type Summary struct {
	StartTime       time.Time `json:"start_time"`
	PeakTime        time.Time `json:"max_elevation_time"`
	EndTime         time.Time `json:"end_time"`
	SampleCount     int       `json:"sample_count"`
	DurationSeconds float64   `json:"duration_seconds"`

	MaxElevation float64 `json:"max_elevation"`
	MinElevation float64 `json:"min_elevation"`
	StartAzimuth float64 `json:"start_azimuth"`
	AzimuthAtMax float64 `json:"azimuth_at_max"`
	EndAzimuth   float64 `json:"end_azimuth"`
	MinRangeKm   float64 `json:"min_range_km"`
	MaxRangeKm   float64 `json:"max_range_km"`

	MaxPowerDBm float64 `json:"max_power_dbm"`
	MinPowerDBm float64 `json:"min_power_dbm"`
	AvgPowerDBm float64 `json:"avg_power_dbm"`
	PeakSNR     float64 `json:"peak_snr_db"`
	AvgSNR      float64 `json:"avg_snr_db"`

	// QualityAtPeak is classified from PeakSNR, not copied from a sample.
	QualityAtPeak linkbudget.Quality `json:"quality_at_peak"`

	GroundTrack []GroundTrackPoint `json:"ground_track"`
}

// Summarize derives the statistics of p. Duration counts every sample as a
// full interval. Samples without link figures are left out of the power and
// SNR aggregates; inside a pass there are none.
func Summarize(p Pass, interval time.Duration, th linkbudget.Thresholds) Summary {
	n := len(p.Samples)
	if n == 0 {
		return Summary{}
	}

	elev := make([]float64, n)
	rng := make([]float64, n)
	power := make([]float64, 0, n)
	snr := make([]float64, 0, n)
	for i, s := range p.Samples {
		elev[i] = s.ElevationDeg
		rng[i] = s.RangeKm
		if s.Link.Signal != nil {
			power = append(power, s.Link.Signal.ReceivedPowerDBm)
			snr = append(snr, s.Link.Signal.SNRdB)
		}
	}

	peak := p.Samples[floats.MaxIdx(elev)]
	first, last := p.Samples[0], p.Samples[n-1]

	sum := Summary{
		StartTime:       first.Time,
		PeakTime:        peak.Time,
		EndTime:         last.Time,
		SampleCount:     n,
		DurationSeconds: float64(n) * interval.Seconds(),
		MaxElevation:    peak.ElevationDeg,
		MinElevation:    floats.Min(elev),
		StartAzimuth:    first.AzimuthDeg,
		AzimuthAtMax:    peak.AzimuthDeg,
		EndAzimuth:      last.AzimuthDeg,
		MinRangeKm:      floats.Min(rng),
		MaxRangeKm:      floats.Max(rng),
		QualityAtPeak:   linkbudget.NoSignal,
	}

	if len(power) > 0 {
		sum.MaxPowerDBm = floats.Max(power)
		sum.MinPowerDBm = floats.Min(power)
		sum.AvgPowerDBm = stat.Mean(power, nil)
		sum.PeakSNR = floats.Max(snr)
		sum.AvgSNR = stat.Mean(snr, nil)
		sum.QualityAtPeak = th.Classify(sum.PeakSNR)
	}

	for i, s := range p.Samples {
		if s.Time.Sub(first.Time)%groundTrackStep == 0 || i == n-1 {
			sum.GroundTrack = append(sum.GroundTrack, GroundTrackPoint{
				Time:      s.Time,
				Latitude:  s.SubLatDeg,
				Longitude: s.SubLonDeg,
				Altitude:  s.SubAltKm,
				Elevation: s.ElevationDeg,
			})
		}
	}
	return sum
}

// SummarizeAll summarizes each pass in order.
func SummarizeAll(ps []Pass, interval time.Duration, th linkbudget.Thresholds) []Summary {
	out := make([]Summary, len(ps))
	for i, p := range ps {
		out[i] = Summarize(p, interval, th)
	}
	return out
}
