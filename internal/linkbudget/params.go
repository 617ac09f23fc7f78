// Package linkbudget estimates downlink quality from pass geometry with a
// free-space path loss model and a two-piece atmospheric term.
package linkbudget

// Thresholds are the minimum SNR (dB) for each quality class. Anything below
// Poor is VeryPoor.
type Thresholds struct {
	Excellent float64 `yaml:"excellent" json:"excellent"`
	Good      float64 `yaml:"good" json:"good"`
	Fair      float64 `yaml:"fair" json:"fair"`
	Poor      float64 `yaml:"poor" json:"poor"`
}

// Params describes the link. The value is never mutated once built.
type Params struct {
	FrequencyMHz     float64 `yaml:"frequency_mhz" json:"frequency_mhz"`
	SatelliteEIRPdBW float64 `yaml:"satellite_eirp_dbw" json:"satellite_eirp_dbw"`
	ReceiverGainDBi  float64 `yaml:"receiver_gain_dbi" json:"receiver_gain_dbi"`
	SystemLossesDB   float64 `yaml:"system_losses_db" json:"system_losses_db"`
	NoiseFloorDBm    float64 `yaml:"noise_floor_dbm" json:"noise_floor_dbm"`

	AtmosphericBaseDB        float64 `yaml:"atmospheric_base_db" json:"atmospheric_base_db"`
	AtmosphericBreakpointDeg float64 `yaml:"atmospheric_breakpoint_deg" json:"atmospheric_breakpoint_deg"`
	AtmosphericSlopeDBPerDeg float64 `yaml:"atmospheric_slope_db_per_deg" json:"atmospheric_slope_db_per_deg"`

	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`

	// Precision is the number of decimal places metrics are rounded to.
	Precision int `yaml:"precision" json:"precision"`
}

// DefaultThresholds returns the 20/15/10/5 dB classification.
func DefaultThresholds() Thresholds {
	return Thresholds{Excellent: 20, Good: 15, Fair: 10, Poor: 5}
}

// DefaultParams returns an S-band (2 GHz) direct-to-device link: 55 dBW EIRP,
// 15 dBi receive gain, 3 dB system losses and a -110 dBm noise floor.
func DefaultParams() Params {
	return Params{
		FrequencyMHz:             2000,
		SatelliteEIRPdBW:         55,
		ReceiverGainDBi:          15,
		SystemLossesDB:           3,
		NoiseFloorDBm:            -110,
		AtmosphericBaseDB:        2.0,
		AtmosphericBreakpointDeg: 10,
		AtmosphericSlopeDBPerDeg: 0.5,
		Thresholds:               DefaultThresholds(),
		Precision:                2,
	}
}
