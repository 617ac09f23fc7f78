// Package pipeline runs one analysis: resolve element sets, sample every
// satellite over the window in parallel, then segment and summarize passes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/config"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/fleet"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/metrics"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/passes"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/propagation"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/tle"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/trajectory"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/transform"
)

// ElementSource resolves a satellite's element set; tle.Resolver is the
// production implementation.
type ElementSource interface {
	Resolve(ctx context.Context, catalogID int, name string) (tle.Resolved, error)
}

// Request describes one run.
type Request struct {
	Observer   config.ObserverConfig
	Satellites []config.Satellite
	Start, End time.Time
	Interval   time.Duration
	Link       linkbudget.Params
	MaxWindow  time.Duration // zero means trajectory.DefaultMaxWindow
}

// RequestFromConfig builds the run request described by cfg.
func RequestFromConfig(cfg *config.Config) Request {
	return Request{
		Observer:   cfg.Observer,
		Satellites: cfg.Satellites,
		Start:      cfg.Window.Start,
		End:        cfg.Window.End,
		Interval:   cfg.Sampling.Interval,
		Link:       cfg.Link,
		MaxWindow:  cfg.Sampling.MaxWindow,
	}
}

// Result is the complete output of a run.
type Result struct {
	RunID      uuid.UUID             `json:"run_id"`
	CreatedAt  time.Time             `json:"created_at"`
	Observer   config.ObserverConfig `json:"observer"`
	Start      time.Time             `json:"start"`
	End        time.Time             `json:"end"`
	Interval   time.Duration         `json:"interval_ns"`
	Link       linkbudget.Params     `json:"link"`
	Satellites []SatelliteResult     `json:"satellites"`
	Fleet      FleetStats            `json:"fleet"`
}

// SatelliteResult holds one satellite's samples and passes. Err is set, and
// the rest left empty, when the satellite could not be sampled.
type SatelliteResult struct {
	Satellite config.Satellite    `json:"satellite"`
	TLE       tle.Resolved        `json:"tle"`
	Samples   []trajectory.Sample `json:"-"`
	Passes    []passes.Pass       `json:"-"`
	Summaries []passes.Summary    `json:"passes"`
	Stats     Stats               `json:"stats"`
	Err       string              `json:"error,omitempty"`
}

// Satellite returns the result for catalogID.
func (r *Result) Satellite(catalogID int) (*SatelliteResult, bool) {
	for i := range r.Satellites {
		if r.Satellites[i].Satellite.NORADID == catalogID {
			return &r.Satellites[i], true
		}
	}
	return nil, false
}

// PropagatorFunc builds the propagator for an element set.
type PropagatorFunc func(tle.TLEEntry) (propagation.Propagator, error)

// Runner executes runs. It is safe for concurrent use.
type Runner struct {
	elements      ElementSource
	pool          *fleet.Pool
	logger        *slog.Logger
	newPropagator PropagatorFunc
	now           func() time.Time
}

// NewRunner creates a Runner backed by SGP4.
func NewRunner(elements ElementSource, pool *fleet.Pool, logger *slog.Logger) *Runner {
	return &Runner{
		elements: elements,
		pool:     pool,
		logger:   logger,
		newPropagator: func(e tle.TLEEntry) (propagation.Propagator, error) {
			return propagation.NewSGP4Propagator(e)
		},
		now: time.Now,
	}
}

// Run validates req, then samples every satellite. Per-satellite failures are
// recorded on the result; only invalid input and cancellation fail the run.
func (r *Runner) Run(ctx context.Context, req Request) (res *Result, err error) {
	defer func() { metrics.RecordRun(err) }()

	obs, err := trajectory.NewObserver(req.Observer.Latitude, req.Observer.Longitude, req.Observer.ElevationM)
	if err != nil {
		return nil, err
	}
	sampler := trajectory.Sampler{Interval: req.Interval, Link: req.Link, MaxWindow: req.MaxWindow}
	if err := sampler.Validate(req.Start, req.End); err != nil {
		return nil, err
	}
	if len(req.Satellites) == 0 {
		return nil, &trajectory.InputError{Field: "satellites", Reason: "empty fleet"}
	}

	res = &Result{
		RunID:     uuid.New(),
		CreatedAt: r.now().UTC(),
		Observer:  req.Observer,
		Start:     req.Start,
		End:       req.End,
		Interval:  req.Interval,
		Link:      req.Link,
	}
	logger := r.logger.With("run_id", res.RunID.String())
	logger.Info("run started",
		"satellites", len(req.Satellites),
		"start", req.Start.Format(time.RFC3339),
		"end", req.End.Format(time.RFC3339),
		"interval_seconds", req.Interval.Seconds(),
		"ticks", trajectory.Ticks(req.Start, req.End, req.Interval),
	)

	start := time.Now()
	results := fleet.Map(ctx, r.pool, req.Satellites, func(ctx context.Context, sat config.Satellite) (SatelliteResult, error) {
		return r.runSatellite(ctx, logger, sampler, obs, req, sat)
	})

	res.Satellites = make([]SatelliteResult, len(results))
	for i, fr := range results {
		sr := fr.Value
		sr.Satellite = req.Satellites[i]
		if fr.Err != nil {
			sr.Err = fr.Err.Error()
		}
		res.Satellites[i] = sr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Fleet = fleetStats(res.Satellites)
	logger.Info("run complete",
		"duration_ms", time.Since(start).Milliseconds(),
		"passes", res.Fleet.Passes,
		"failed_satellites", res.Fleet.Failed,
	)
	return res, nil
}

func (r *Runner) runSatellite(ctx context.Context, logger *slog.Logger, sampler trajectory.Sampler, obs transform.Observer, req Request, sat config.Satellite) (SatelliteResult, error) {
	out := SatelliteResult{Satellite: sat}

	resolved, err := r.elements.Resolve(ctx, sat.NORADID, sat.Name)
	if err != nil {
		return out, fmt.Errorf("resolving elements: %w", err)
	}
	out.TLE = resolved

	prop, err := r.newPropagator(resolved.Entry)
	if err != nil {
		return out, err
	}
	tracker, err := trajectory.NewTopocentric(prop, obs)
	if err != nil {
		return out, err
	}

	began := time.Now()
	samples, err := sampler.Sample(ctx, tracker, req.Start, req.End)
	metrics.RecordSampling(time.Since(began), len(samples), err != nil && !errors.Is(err, context.Canceled))
	if err != nil {
		return out, err
	}

	out.Samples = samples
	out.Passes = passes.Segment(samples)
	out.Summaries = passes.SummarizeAll(out.Passes, req.Interval, req.Link.Thresholds)
	out.Stats = satelliteStats(samples, out.Passes, req.Interval)
	metrics.RecordPasses(len(out.Passes))

	logger.Info("satellite sampled",
		"norad_id", sat.NORADID,
		"name", sat.Name,
		"tle_source", string(resolved.Source),
		"samples", len(samples),
		"passes", len(out.Passes),
		"duration_ms", time.Since(began).Milliseconds(),
	)
	return out, nil
}
