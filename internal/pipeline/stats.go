package pipeline

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/passes"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/trajectory"
)

// Stats summarizes one satellite over the whole window. The elevation and
// power aggregates cover visible samples only and are meaningful only when
// VisibleSamples > 0.
type Stats struct {
	TotalSamples        int     `json:"total_samples"`
	VisibleSamples      int     `json:"visible_samples"`
	VisibleMinutes      float64 `json:"visible_minutes"`
	Passes              int     `json:"passes"`
	MaxElevation        float64 `json:"max_elevation"`
	AvgElevationVisible float64 `json:"avg_elevation_visible"`
	AvgPowerDBm         float64 `json:"avg_power_dbm"`
	PeakPowerDBm        float64 `json:"peak_power_dbm"`
}

// FleetStats aggregates the satellites of a run.
type FleetStats struct {
	Satellites     int     `json:"satellites"`
	Failed         int     `json:"failed"`
	Passes         int     `json:"passes"`
	VisibleMinutes float64 `json:"visible_minutes"`
	// BestSatellite is the catalog id with the most visible time, 0 if none.
	BestSatellite int `json:"best_satellite"`
}

func satelliteStats(samples []trajectory.Sample, ps []passes.Pass, interval time.Duration) Stats {
	st := Stats{TotalSamples: len(samples), Passes: len(ps)}

	var elev, power []float64
	for _, s := range samples {
		if !s.Visible {
			continue
		}
		elev = append(elev, s.ElevationDeg)
		if s.Link.Signal != nil {
			power = append(power, s.Link.Signal.ReceivedPowerDBm)
		}
	}

	st.VisibleSamples = len(elev)
	st.VisibleMinutes = float64(len(elev)) * interval.Minutes()
	if len(elev) > 0 {
		st.MaxElevation = floats.Max(elev)
		st.AvgElevationVisible = stat.Mean(elev, nil)
	}
	if len(power) > 0 {
		st.AvgPowerDBm = stat.Mean(power, nil)
		st.PeakPowerDBm = floats.Max(power)
	}
	return st
}

func fleetStats(sats []SatelliteResult) FleetStats {
	fs := FleetStats{Satellites: len(sats)}
	best := -1.0
	for _, s := range sats {
		if s.Err != "" {
			fs.Failed++
			continue
		}
		fs.Passes += s.Stats.Passes
		fs.VisibleMinutes += s.Stats.VisibleMinutes
		if s.Stats.VisibleSamples > 0 && s.Stats.VisibleMinutes > best {
			best = s.Stats.VisibleMinutes
			fs.BestSatellite = s.Satellite.NORADID
		}
	}
	return fs
}
