// Command passdiag samples one satellite from a local TLE file over the next
// few hours and prints its passes. It never touches the network.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/config"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/passes"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/propagation"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/report"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/tle"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/trajectory"
)

func main() {
	def := config.Default()
	tlePath := flag.String("tle", "", "TLE file (2- or 3-line format)")
	norad := flag.Int("norad", 0, "catalog id to track (default: first entry in the file)")
	hours := flag.Float64("hours", 24, "hours to sample from now")
	interval := flag.Duration("interval", 5*time.Second, "sampling interval (whole seconds)")
	lat := flag.Float64("lat", def.Observer.Latitude, "observer latitude")
	lon := flag.Float64("lon", def.Observer.Longitude, "observer longitude")
	elev := flag.Float64("elev", def.Observer.ElevationM, "observer elevation in metres")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if *tlePath == "" {
		fmt.Fprintln(os.Stderr, "ERROR: -tle is required")
		flag.Usage()
		os.Exit(2)
	}
	data, err := os.ReadFile(*tlePath)
	if err != nil {
		fmt.Println("ERROR reading TLE file:", err)
		os.Exit(1)
	}
	entries, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		fmt.Println("ERROR parsing TLE:", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("ERROR: no element sets in", *tlePath)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d TLE entries\n", len(entries))

	entry := entries[0]
	if *norad != 0 {
		var ok bool
		if entry, ok = tle.Find(entries, *norad); !ok {
			fmt.Printf("ERROR: NORAD %d not in %s\n", *norad, *tlePath)
			os.Exit(1)
		}
	}
	fmt.Printf("Tracking %s (NORAD %d) epoch %s\n", entry.Name, entry.NORADID, entry.Epoch.Format(time.RFC3339))

	obs, err := trajectory.NewObserver(*lat, *lon, *elev)
	if err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
	prop, err := propagation.NewSGP4Propagator(entry)
	if err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
	tracker, err := trajectory.NewTopocentric(prop, obs)
	if err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}

	link := linkbudget.DefaultParams()
	start := time.Now().UTC().Truncate(time.Second)
	end := start.Add(time.Duration(*hours * float64(time.Hour)))
	sampler := trajectory.Sampler{Interval: *interval, Link: link}
	samples, err := sampler.Sample(context.Background(), tracker, start, end)
	if err != nil {
		fmt.Println("ERROR sampling:", err)
		os.Exit(1)
	}
	fmt.Printf("Sampled %d positions from %s to %s\n\n", len(samples), start.Format(time.RFC3339), end.Format(time.RFC3339))

	found := passes.Segment(samples)
	sums := passes.SummarizeAll(found, *interval, link.Thresholds)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PASS\tSTART (UTC)\tDURATION\tMAX EL\tAZ RISE/MAX/SET\tPEAK SNR\tQUALITY")
	for i, s := range sums {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f°\t%.0f/%.0f/%.0f\t%.1f dB\t%s\n",
			i+1, s.StartTime.Format("2006-01-02 15:04:05"), report.FormatDuration(s.DurationSeconds),
			s.MaxElevation, s.StartAzimuth, s.AzimuthAtMax, s.EndAzimuth, s.PeakSNR, s.QualityAtPeak)
	}
	tw.Flush()
	fmt.Printf("\nTotal passes found: %d\n", len(found))
}
