package linkbudget

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateGolden(t *testing.T) {
	// 600 km slant range, 2 GHz, 45° elevation:
	// FSPL 154.0336 dB, total 159.0336 dB, Rx -59.0336 dBm, SNR 50.9664 dB.
	m := Estimate(DefaultParams(), 45, 600)

	require.NotNil(t, m.Signal)
	assert.Equal(t, Excellent, m.Quality)
	assert.Equal(t, -59.03, m.Signal.ReceivedPowerDBm)
	assert.Equal(t, 50.97, m.Signal.SNRdB)
	assert.Equal(t, 159.03, m.Signal.PathLossDB)
	assert.Equal(t, 2.0, m.Signal.AtmosphericLossDB)
}

func TestFreeSpacePathLoss(t *testing.T) {
	got := FreeSpacePathLoss(600, 2000)
	assert.InDelta(t, 154.033624921, got, 1e-8)

	// Doubling range adds ~6.02 dB.
	assert.InDelta(t, 20*math.Log10(2), FreeSpacePathLoss(1200, 2000)-got, 1e-9)
}

func TestAtmosphericLoss(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		elevation float64
		want      float64
	}{
		{90, 2.0},
		{45, 2.0},
		{10, 2.0},
		{9, 2.5},
		{5, 4.5},
		{0, 7.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, p.AtmosphericLoss(tt.elevation), 1e-12, "elevation %v", tt.elevation)
	}

	// Continuous at the breakpoint.
	assert.InDelta(t, p.AtmosphericLoss(10), p.AtmosphericLoss(10-1e-9), 1e-8)
}

func TestEstimateBelowHorizon(t *testing.T) {
	for _, el := range []float64{-0.001, -5, -90} {
		m := Estimate(DefaultParams(), el, 2500)
		assert.Equal(t, NoSignal, m.Quality, "elevation %v", el)
		assert.Nil(t, m.Signal, "elevation %v", el)
	}
}

func TestEstimateOnHorizonStillComputed(t *testing.T) {
	m := Estimate(DefaultParams(), 0, 2500)
	require.NotNil(t, m.Signal, "0° is not NoSignal")
	assert.Equal(t, 7.0, m.Signal.AtmosphericLossDB)
	assert.NotEqual(t, NoSignal, m.Quality)
}

func TestEstimatePathLossIsSum(t *testing.T) {
	p := DefaultParams()
	p.Precision = 9

	for _, tc := range []struct{ el, rng float64 }{{3, 2200}, {10, 1400}, {72, 560}} {
		m := Estimate(p, tc.el, tc.rng)
		require.NotNil(t, m.Signal)

		want := FreeSpacePathLoss(tc.rng, p.FrequencyMHz) + p.AtmosphericLoss(tc.el) + p.SystemLossesDB
		assert.InDelta(t, want, m.Signal.PathLossDB, 1e-8)
		assert.InDelta(t, m.Signal.ReceivedPowerDBm-p.NoiseFloorDBm, m.Signal.SNRdB, 1e-8)
	}
}

// rangeForSNR inverts the default model at 45° elevation.
func rangeForSNR(snr float64) float64 {
	p := DefaultParams()
	fsplAllowed := p.SatelliteEIRPdBW + 30 + p.ReceiverGainDBi - p.NoiseFloorDBm -
		p.SystemLossesDB - p.AtmosphericBaseDB - snr
	return math.Pow(10, (fsplAllowed-20*math.Log10(p.FrequencyMHz)-32.45)/20)
}

func TestEstimateQualityGrid(t *testing.T) {
	tests := []struct {
		snr  float64
		want Quality
	}{
		{25, Excellent},
		{20.5, Excellent},
		{17, Good},
		{12, Fair},
		{7, Poor},
		{2, VeryPoor},
	}
	for _, tt := range tests {
		m := Estimate(DefaultParams(), 45, rangeForSNR(tt.snr))
		require.NotNil(t, m.Signal)
		assert.InDelta(t, tt.snr, m.Signal.SNRdB, 0.01)
		assert.Equal(t, tt.want, m.Quality, "snr %v", tt.snr)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		snr  float64
		want Quality
	}{
		{20, Excellent},
		{19.99, Good},
		{15, Good},
		{10, Fair},
		{5, Poor},
		{4.99, VeryPoor},
		{-30, VeryPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Classify(tt.snr), "snr %v", tt.snr)
	}
}

func TestQualityText(t *testing.T) {
	assert.Equal(t, "Very Poor", VeryPoor.String())
	assert.Equal(t, "No Signal", NoSignal.String())
	assert.Equal(t, "Quality(42)", Quality(42).String())

	b, err := json.Marshal(Estimate(DefaultParams(), -1, 1000))
	require.NoError(t, err)
	assert.JSONEq(t, `{"link_quality":"No Signal"}`, string(b))

	var q Quality
	require.NoError(t, q.UnmarshalText([]byte("Fair")))
	assert.Equal(t, Fair, q)
	assert.Error(t, q.UnmarshalText([]byte("Superb")))
}

func TestRound(t *testing.T) {
	assert.Equal(t, -59.03, Round(-59.033624921, 2))
	assert.Equal(t, 50.97, Round(50.966375079, 2))
	assert.Equal(t, 31.8457, Round(31.84571234, 4))
	assert.Equal(t, 3.0, Round(2.5, 0))
}
