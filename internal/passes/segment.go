// Package passes splits a sampled trajectory into passes over the observer
// and derives per-pass statistics.
package passes

import (
	"time"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/trajectory"
)

// Pass is a maximal run of consecutive visible samples. It is a view over the
// sampled sequence and shares its backing array.
type Pass struct {
	Samples []trajectory.Sample
}

// Len returns the number of samples in the pass.
func (p Pass) Len() int { return len(p.Samples) }

// Start returns the time of the first visible sample.
func (p Pass) Start() time.Time {
	if len(p.Samples) == 0 {
		return time.Time{}
	}
	return p.Samples[0].Time
}

// End returns the time of the last visible sample.
func (p Pass) End() time.Time {
	if len(p.Samples) == 0 {
		return time.Time{}
	}
	return p.Samples[len(p.Samples)-1].Time
}

// Segment scans samples once, left to right, and returns every maximal run of
// visible samples. A run still open when the input ends is emitted as is.
func Segment(samples []trajectory.Sample) []Pass {
	var (
		out   []Pass
		start = -1
	)

	for i, s := range samples {
		switch {
		case s.Visible && start < 0:
			start = i
		case !s.Visible && start >= 0:
			out = append(out, Pass{Samples: samples[start:i:i]})
			start = -1
		}
	}
	if start >= 0 {
		n := len(samples)
		out = append(out, Pass{Samples: samples[start:n:n]})
	}
	return out
}
