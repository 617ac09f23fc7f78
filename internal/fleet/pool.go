// Package fleet fans independent per-satellite work out over a bounded set of
// goroutines.
package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Pool manages a fixed number of goroutines.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a pool; workers <= 0 means one per CPU.
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers, logger: logger}
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Result is the outcome of one job. Index is the job's position in the input.
type Result[T any] struct {
	Index    int
	Value    T
	Err      error
	Duration time.Duration
}

type job[In any] struct {
	index int
	in    In
}

// Map runs fn over every element of in and returns the results in input
// order. A failed job only records its error. Once ctx is cancelled no new
// jobs are started and the unstarted ones report ctx.Err().
func Map[In, Out any](ctx context.Context, p *Pool, in []In, fn func(context.Context, In) (Out, error)) []Result[Out] {
	out := make([]Result[Out], len(in))
	if len(in) == 0 {
		return out
	}

	jobs := make(chan job[In], p.workers*2)
	results := make(chan Result[Out], len(in))

	var wg sync.WaitGroup
	for i := 0; i < min(p.workers, len(in)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- runOne(ctx, j, fn)
			}
		}()
	}

	fed := 0
feed:
	for i, v := range in {
		select {
		case jobs <- job[In]{index: i, in: v}:
			fed++
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make([]bool, len(in))
	var failed int
	for r := range results {
		out[r.Index] = r
		seen[r.Index] = true
		if r.Err != nil {
			failed++
			p.logger.Warn("fleet job failed", "index", r.Index, "error", r.Err, "duration_ms", r.Duration.Milliseconds())
		}
	}
	for i := range out {
		if !seen[i] {
			out[i] = Result[Out]{Index: i, Err: ctx.Err()}
		}
	}

	p.logger.Debug("fleet batch complete",
		"jobs", len(in),
		"started", fed,
		"failed", failed,
		"workers", p.workers,
	)
	return out
}

func runOne[In, Out any](ctx context.Context, j job[In], fn func(context.Context, In) (Out, error)) (r Result[Out]) {
	start := time.Now()
	r.Index = j.index
	defer func() {
		if rec := recover(); rec != nil {
			r.Err = fmt.Errorf("job %d panicked: %v", j.index, rec)
		}
		r.Duration = time.Since(start)
	}()

	r.Value, r.Err = fn(ctx, j.in)
	return r
}
