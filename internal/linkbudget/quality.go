package linkbudget

import "fmt"

// Quality is the qualitative link class.
type Quality int

const (
	NoSignal Quality = iota
	VeryPoor
	Poor
	Fair
	Good
	Excellent
)

var qualityNames = [...]string{
	NoSignal:  "No Signal",
	VeryPoor:  "Very Poor",
	Poor:      "Poor",
	Fair:      "Fair",
	Good:      "Good",
	Excellent: "Excellent",
}

func (q Quality) String() string {
	if q < 0 || int(q) >= len(qualityNames) {
		return fmt.Sprintf("Quality(%d)", int(q))
	}
	return qualityNames[q]
}

// MarshalText renders the label, so JSON and YAML carry "Very Poor" rather
// than an ordinal.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText accepts the labels produced by MarshalText.
func (q *Quality) UnmarshalText(b []byte) error {
	for i, name := range qualityNames {
		if name == string(b) {
			*q = Quality(i)
			return nil
		}
	}
	return fmt.Errorf("unknown link quality %q", b)
}

// Classify maps an SNR onto a quality, testing the thresholds from the highest
// down and taking the first one met.
func (th Thresholds) Classify(snrDB float64) Quality {
	switch {
	case snrDB >= th.Excellent:
		return Excellent
	case snrDB >= th.Good:
		return Good
	case snrDB >= th.Fair:
		return Fair
	case snrDB >= th.Poor:
		return Poor
	default:
		return VeryPoor
	}
}
