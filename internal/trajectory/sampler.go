package trajectory

import (
	"context"
	"fmt"
	"time"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
)

// Sample is the state of one satellite at one tick. Geometry keeps full
// precision; only the link figures are rounded.
type Sample struct {
	Time time.Time `json:"timestamp"`
	Look
	Visible bool               `json:"visible"`
	Link    linkbudget.Metrics `json:"link"`
}

// DefaultMaxWindow bounds a window when Sampler.MaxWindow is zero.
const DefaultMaxWindow = 31 * 24 * time.Hour

// preallocTicks caps the up-front sample buffer; longer windows grow it.
const preallocTicks = 1 << 16

// Sampler walks a time window at a fixed step.
type Sampler struct {
	Interval time.Duration
	Link     linkbudget.Params
	// MaxWindow is the longest end-start accepted; zero means DefaultMaxWindow.
	MaxWindow time.Duration
}

func (s Sampler) maxWindow() time.Duration {
	if s.MaxWindow > 0 {
		return s.MaxWindow
	}
	return DefaultMaxWindow
}

// Ticks returns how many samples a window produces: floor((end-start)/interval)+1.
func Ticks(start, end time.Time, interval time.Duration) int {
	if interval <= 0 || end.Before(start) {
		return 0
	}
	return int(end.Sub(start)/interval) + 1
}

// Validate checks the window and interval without tracking anything.
func (s Sampler) Validate(start, end time.Time) error {
	switch {
	case s.Interval <= 0:
		return invalid("interval", "%s must be positive", s.Interval)
	case s.Interval%time.Second != 0:
		return invalid("interval", "%s is not a whole number of seconds", s.Interval)
	case start.Location() != time.UTC:
		return invalid("start", "%s is not UTC", start.Format(time.RFC3339))
	case start.Nanosecond() != 0:
		return invalid("start", "%s is not a whole second", start.Format(time.RFC3339Nano))
	case end.Location() != time.UTC:
		return invalid("end", "%s is not UTC", end.Format(time.RFC3339))
	case end.Before(start):
		return invalid("end", "%s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	case end.Sub(start) > s.maxWindow():
		return invalid("end", "window of %s exceeds the %s limit", end.Sub(start), s.maxWindow())
	}
	return nil
}

// Sample produces one Sample per tick start + i·Interval up to and including
// end. A tracker failure at any tick discards the whole run.
func (s Sampler) Sample(ctx context.Context, tracker Tracker, start, end time.Time) ([]Sample, error) {
	if err := s.Validate(start, end); err != nil {
		return nil, err
	}

	n := Ticks(start, end, s.Interval)
	out := make([]Sample, 0, min(n, preallocTicks))

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t := start.Add(time.Duration(i) * s.Interval)
		look, err := tracker.Track(t)
		if err != nil {
			return nil, fmt.Errorf("tick %d at %s: %w", i, t.Format(time.RFC3339), err)
		}

		out = append(out, Sample{
			Time:    t,
			Look:    look,
			Visible: look.ElevationDeg > 0,
			Link:    linkbudget.Estimate(s.Link, look.ElevationDeg, look.RangeKm),
		})
	}
	return out, nil
}
