package linkbudget

import "math"

// Signal holds the numeric link figures, all rounded to Params.Precision.
type Signal struct {
	ReceivedPowerDBm  float64 `json:"received_power_dbm"`
	SNRdB             float64 `json:"snr_db"`
	PathLossDB        float64 `json:"path_loss_db"` // FSPL + atmospheric + system
	AtmosphericLossDB float64 `json:"atmospheric_loss_db"`
}

// Metrics is the link estimate for one sample. Signal is nil when the
// satellite is below the horizon.
type Metrics struct {
	Quality Quality `json:"link_quality"`
	Signal  *Signal `json:"signal,omitempty"`
}

// FreeSpacePathLoss returns FSPL in dB for a range in km and a frequency in MHz.
func FreeSpacePathLoss(rangeKm, frequencyMHz float64) float64 {
	return 20*math.Log10(rangeKm) + 20*math.Log10(frequencyMHz) + 32.45
}

// AtmosphericLoss returns the elevation-dependent attenuation in dB: flat above
// the breakpoint, rising linearly below it.
func (p Params) AtmosphericLoss(elevationDeg float64) float64 {
	if elevationDeg < p.AtmosphericBreakpointDeg {
		return p.AtmosphericBaseDB + (p.AtmosphericBreakpointDeg-elevationDeg)*p.AtmosphericSlopeDBPerDeg
	}
	return p.AtmosphericBaseDB
}

// Estimate computes the link metrics at the given geometry. Only negative
// elevations yield NoSignal; a satellite exactly on the horizon still gets a
// full estimate.
func Estimate(p Params, elevationDeg, rangeKm float64) Metrics {
	if elevationDeg < 0 {
		return Metrics{Quality: NoSignal}
	}

	atm := p.AtmosphericLoss(elevationDeg)
	total := FreeSpacePathLoss(rangeKm, p.FrequencyMHz) + atm + p.SystemLossesDB
	rx := (p.SatelliteEIRPdBW + 30) - total + p.ReceiverGainDBi
	snr := rx - p.NoiseFloorDBm

	return Metrics{
		Quality: p.Thresholds.Classify(snr),
		Signal: &Signal{
			ReceivedPowerDBm:  Round(rx, p.Precision),
			SNRdB:             Round(snr, p.Precision),
			PathLossDB:        Round(total, p.Precision),
			AtmosphericLossDB: Round(atm, p.Precision),
		},
	}
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
