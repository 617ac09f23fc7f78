package api

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/pipeline"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/store"
)

// ErrRunInProgress is returned by Refresh while another run is executing.
var ErrRunInProgress = errors.New("a run is already in progress")

// Runner executes pipeline runs; *pipeline.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Archive persists completed runs and reads them back; *store.Store
// satisfies it.
type Archive interface {
	SaveRun(ctx context.Context, res *pipeline.Result) error
	ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error)
	LoadPasses(ctx context.Context, runID uuid.UUID, noradID int) ([]store.StoredPass, error)
	CountSamples(ctx context.Context, runID uuid.UUID, noradID int) (int, error)
}

// Service owns the most recent run result served by the API. Readers never
// block: the result is swapped in atomically once a run completes.
type Service struct {
	runner  Runner
	base    pipeline.Request
	archive Archive
	logger  *slog.Logger

	latest  atomic.Pointer[pipeline.Result]
	running atomic.Bool
}

// NewService creates a Service that runs base, with its window optionally
// overridden per call. archive may be nil.
func NewService(runner Runner, base pipeline.Request, archive Archive, logger *slog.Logger) *Service {
	return &Service{
		runner:  runner,
		base:    base,
		archive: archive,
		logger:  logger,
	}
}

// Latest returns the last successful run, or nil before the first one.
func (s *Service) Latest() *pipeline.Result {
	return s.latest.Load()
}

// Ready reports whether a run result is available.
func (s *Service) Ready() bool {
	return s.latest.Load() != nil
}

// Refresh runs the pipeline and publishes the result. Zero start or end
// keep the configured window bound. Only one run executes at a time.
// An archive failure is logged; the result is still published.
func (s *Service) Refresh(ctx context.Context, start, end time.Time) (*pipeline.Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	req := s.base
	if !start.IsZero() {
		req.Start = start.UTC()
	}
	if !end.IsZero() {
		req.End = end.UTC()
	}

	res, err := s.runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.SaveRun(ctx, res); err != nil {
			s.logger.Error("archiving run failed", "component", "api", "run_id", res.RunID.String(), "error", err)
		}
	}

	s.latest.Store(res)
	return res, nil
}
