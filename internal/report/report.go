// Package report renders a pipeline result to disk: per-satellite CSV, a JSON
// dataset, Markdown trajectory and pass reports, PNG pass graphs and HTML
// charts. Each format is an independent sink; Write runs the selected ones
// concurrently.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/pipeline"
)

type sinkFunc func(ctx context.Context, w *writer) error

var sinks = map[string]sinkFunc{
	"csv":      writeCSV,
	"json":     writeJSON,
	"markdown": writeMarkdown,
	"png":      writePNG,
	"html":     writeHTML,
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(sinks))
	for f := range sinks {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// writer is the state shared by the sinks of one Write call.
type writer struct {
	dir     string
	res     *pipeline.Result
	loc     *time.Location
	formats []string
	suffix  string

	mu    sync.Mutex
	files []string
}

// Write renders res into dir in each of formats. Local-time columns use loc.
// It returns the paths written, sorted; on error the files already written
// are left in place.
func Write(ctx context.Context, dir string, formats []string, res *pipeline.Result, loc *time.Location) ([]string, error) {
	if res == nil {
		return nil, fmt.Errorf("no result to write")
	}
	for _, f := range formats {
		if _, ok := sinks[f]; !ok {
			return nil, fmt.Errorf("unknown report format %q", f)
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	w := &writer{
		dir:     dir,
		res:     res,
		loc:     loc,
		formats: slices.Compact(slices.Sorted(slices.Values(formats))),
		suffix:  DateSuffix(res.Start, res.End),
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range w.formats {
		sink := sinks[f]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sink(ctx, w); err != nil {
				return fmt.Errorf("%s report: %w", f, err)
			}
			return nil
		})
	}
	err := g.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	sort.Strings(w.files)
	return w.files, err
}

func (w *writer) wants(format string) bool {
	return slices.Contains(w.formats, format)
}

// create writes one file below the report directory through fn.
func (w *writer) create(name string, fn func(io.Writer) error) error {
	path := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	w.mu.Lock()
	w.files = append(w.files, path)
	w.mu.Unlock()
	return nil
}

// sampled returns the satellites that produced samples, in run order.
func (w *writer) sampled() []*pipeline.SatelliteResult {
	var out []*pipeline.SatelliteResult
	for i := range w.res.Satellites {
		if w.res.Satellites[i].Err == "" {
			out = append(out, &w.res.Satellites[i])
		}
	}
	return out
}

func graphName(satName string, pass int) string {
	return fmt.Sprintf("pass_graphs/%s_pass_%02d.png", Slug(satName), pass)
}
