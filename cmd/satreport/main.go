// Command satreport computes AST SpaceMobile satellite trajectories, link
// budgets and passes over a ground observer, then writes reports (report) or
// serves the latest run over HTTP (serve).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/api"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/config"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/fleet"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/pipeline"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/report"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/store"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/tle"
)

func main() {
	command, args := "report", os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "report", "serve":
			command, args = args[0], args[1:]
		case "help", "-h", "-help", "--help":
			printUsage(os.Stdout)
			return
		}
	}

	var err error
	switch command {
	case "report":
		err = runReport(args)
	case "serve":
		err = runServe(args)
	}
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: satreport [report|serve] [flags]

Commands:
  report   run the analysis once and write report files (default)
  serve    run the analysis at startup and serve results over HTTP

Flags:
  -config   YAML configuration file
  -start    window start date, YYYY-MM-DD (UTC midnight)
  -end      window end date, YYYY-MM-DD (through 23:59:59 UTC)
  -out      report output directory
  -formats  comma-separated report formats (csv,json,markdown,png,html)
  -addr     listen address (serve only)

Environment variables prefixed SATREPORT_ override the file.`)
}

// options are the flags shared by both commands.
type options struct {
	configPath string
	start, end string
	out        string
	formats    string
	addr       string
}

func (o *options) register(fs *flag.FlagSet, serve bool) {
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&o.start, "start", "", "window start date (YYYY-MM-DD)")
	fs.StringVar(&o.end, "end", "", "window end date (YYYY-MM-DD), inclusive")
	fs.StringVar(&o.out, "out", "", "report output directory")
	fs.StringVar(&o.formats, "formats", "", "comma-separated report formats")
	if serve {
		fs.StringVar(&o.addr, "addr", "", "HTTP listen address")
	}
}

// apply layers the flags over cfg and revalidates it.
func (o *options) apply(cfg *config.Config) error {
	if o.start != "" {
		d, err := time.Parse(time.DateOnly, o.start)
		if err != nil {
			return fmt.Errorf("invalid -start %q, want YYYY-MM-DD", o.start)
		}
		cfg.Window.Start = d
	}
	if o.end != "" {
		d, err := time.Parse(time.DateOnly, o.end)
		if err != nil {
			return fmt.Errorf("invalid -end %q, want YYYY-MM-DD", o.end)
		}
		cfg.Window.End = d.Add(24*time.Hour - time.Second)
	}
	if o.out != "" {
		cfg.Output.Dir = o.out
	}
	if o.formats != "" {
		cfg.Output.Formats = config.SplitList(o.formats)
	}
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	return cfg.Validate()
}

// setup parses args and loads the configuration. Logs go to logOut.
func setup(name string, args []string, logOut io.Writer) (*config.Config, *slog.Logger, error) {
	var o options
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	o.register(fs, name == "serve")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	boot := slog.New(slog.NewJSONHandler(logOut, nil))
	cfg, err := config.Load(o.configPath, boot)
	if err != nil {
		return nil, nil, err
	}
	if err := o.apply(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return cfg, logger, nil
}

func newRunner(cfg *config.Config, logger *slog.Logger) *pipeline.Runner {
	var live tle.Provider
	if cfg.TLE.FetchEnabled {
		live = tle.NewFetcher(tle.FetcherConfig{
			BaseURL:           cfg.TLE.BaseURL,
			Group:             cfg.TLE.Group,
			Timeout:           cfg.TLE.Timeout,
			RequestsPerSecond: cfg.TLE.RequestsPerSecond,
		}, logger)
	}
	var cache *tle.Cache
	if cfg.TLE.CacheDir != "" {
		cache = tle.NewCache(cfg.TLE.CacheDir, cfg.TLE.MaxCacheFiles)
	}
	pool := fleet.NewPool(cfg.Sampling.Workers, logger)

	logger.Info("pipeline config",
		"observer", cfg.Observer.Name,
		"satellites", len(cfg.Satellites),
		"start", cfg.Window.Start.Format(time.RFC3339),
		"end", cfg.Window.End.Format(time.RFC3339),
		"interval_seconds", cfg.Sampling.Interval.Seconds(),
		"workers", pool.Workers(),
		"tle_fetch_enabled", cfg.TLE.FetchEnabled,
		"tle_cache_dir", cfg.TLE.CacheDir,
	)
	return pipeline.NewRunner(tle.NewResolver(live, cache, logger), pool, logger)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}
	return store.Open(ctx, cfg.Store.Path, logger.With("component", "store"))
}

func runReport(args []string) error {
	cfg, logger, err := setup("report", args, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := newRunner(cfg, logger).Run(ctx, pipeline.RequestFromConfig(cfg))
	if err != nil {
		return err
	}

	files, err := report.Write(ctx, cfg.Output.Dir, cfg.Output.Formats, res, cfg.LocalZone())
	if err != nil {
		return fmt.Errorf("writing reports: %w", err)
	}
	logger.Info("reports written", "dir", cfg.Output.Dir, "files", len(files))

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
		if err := st.SaveRun(ctx, res); err != nil {
			return fmt.Errorf("archiving run: %w", err)
		}
	}

	printSummary(os.Stdout, res, files)
	return nil
}

func printSummary(w io.Writer, res *pipeline.Result, files []string) {
	fmt.Fprintf(w, "Run %s: %s, %s to %s UTC\n\n", res.RunID, res.Observer.Name,
		res.Start.Format("2006-01-02 15:04:05"), res.End.Format("2006-01-02 15:04:05"))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SATELLITE\tNORAD\tTLE\tPASSES\tVISIBLE MIN\tMAX EL\tPEAK POWER")
	for _, sr := range res.Satellites {
		if sr.Err != "" {
			fmt.Fprintf(tw, "%s\t%d\t-\t-\t-\t-\terror: %s\n", sr.Satellite.Name, sr.Satellite.NORADID, sr.Err)
			continue
		}
		st := sr.Stats
		if st.VisibleSamples == 0 {
			fmt.Fprintf(tw, "%s\t%d\t%s\t0\t0.0\t-\t-\n", sr.Satellite.Name, sr.Satellite.NORADID, sr.TLE.Source)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%.1f\t%.1f°\t%.2f dBm\n", sr.Satellite.Name, sr.Satellite.NORADID,
			sr.TLE.Source, st.Passes, st.VisibleMinutes, st.MaxElevation, linkbudget.Round(st.PeakPowerDBm, 2))
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d passes, %.1f visible minutes across %d satellites (%d failed)\n",
		res.Fleet.Passes, res.Fleet.VisibleMinutes, res.Fleet.Satellites, res.Fleet.Failed)
	if best, ok := res.Satellite(res.Fleet.BestSatellite); ok {
		fmt.Fprintf(w, "Best coverage: %s\n", best.Satellite.Name)
	}
	if len(files) > 0 {
		fmt.Fprintln(w, "\nFiles:")
		for _, f := range files {
			fmt.Fprintln(w, "  "+f)
		}
	}
}

func runServe(args []string) error {
	cfg, logger, err := setup("serve", args, os.Stdout)
	if err != nil {
		return err
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	var archive api.Archive
	if st != nil {
		defer st.Close()
		archive = st
	}

	svc := api.NewService(newRunner(cfg, logger), pipeline.RequestFromConfig(cfg), archive, logger)
	srv := api.NewServer(cfg.Server, svc, cfg.LocalZone(), logger)

	// The first run fills the service; /readyz reports 503 until it lands.
	go func() {
		if _, err := svc.Refresh(ctx, time.Time{}, time.Time{}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("initial run failed", "error", err)
		}
	}()

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr, "auth_enabled", cfg.Server.AuthEnabled, "store", cfg.Store.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
