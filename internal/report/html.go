package report

import (
	"context"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/passes"
)

// writeHTML writes a fleet overview page and one interactive page per
// sampled satellite with a chart for each pass.
func writeHTML(ctx context.Context, w *writer) error {
	err := w.create(fmt.Sprintf("ast_fleet_%s.html", w.suffix), func(out io.Writer) error {
		page := components.NewPage()
		page.PageTitle = "AST SpaceMobile fleet"
		page.AddCharts(fleetChart(w))
		return page.Render(out)
	})
	if err != nil {
		return err
	}

	for _, sr := range w.sampled() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(sr.Passes) == 0 {
			continue
		}
		err := w.create(fmt.Sprintf("ast_%s_passes_%s.html", Slug(sr.Satellite.Name), w.suffix), func(out io.Writer) error {
			page := components.NewPage()
			page.PageTitle = sr.Satellite.Name + " passes"
			for i, p := range sr.Passes {
				page.AddCharts(passChart(w, sr.Satellite.Name, i+1, p, sr.Summaries[i]))
			}
			return page.Render(out)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func fleetChart(w *writer) *charts.Bar {
	names := make([]string, 0, len(w.res.Satellites))
	passCounts := make([]opts.BarData, 0, len(w.res.Satellites))
	minutes := make([]opts.BarData, 0, len(w.res.Satellites))
	for _, sr := range w.res.Satellites {
		names = append(names, sr.Satellite.Name)
		passCounts = append(passCounts, opts.BarData{Value: sr.Stats.Passes})
		minutes = append(minutes, opts.BarData{Value: linkbudget.Round(sr.Stats.VisibleMinutes, 1)})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "AST SpaceMobile fleet", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Passes and visible time",
			Subtitle: fmt.Sprintf("%s, %s to %s UTC", w.res.Observer.Name, w.res.Start.Format("2006-01-02 15:04"), w.res.End.Format("2006-01-02 15:04")),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "5%"}),
	)
	bar.SetXAxis(names).
		AddSeries("Passes", passCounts).
		AddSeries("Visible minutes", minutes,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func passChart(w *writer, name string, n int, p passes.Pass, s passes.Summary) *charts.Line {
	labels := make([]string, 0, p.Len())
	power := make([]opts.LineData, 0, p.Len())
	snr := make([]opts.LineData, 0, p.Len())
	elev := make([]opts.LineData, 0, p.Len())
	for _, smp := range p.Samples {
		labels = append(labels, smp.Time.In(w.loc).Format("15:04:05"))
		elev = append(elev, opts.LineData{Value: linkbudget.Round(smp.ElevationDeg, 2)})
		if sig := smp.Link.Signal; sig != nil {
			power = append(power, opts.LineData{Value: sig.ReceivedPowerDBm})
			snr = append(snr, opts.LineData{Value: sig.SNRdB})
		} else {
			power = append(power, opts.LineData{Value: "-"})
			snr = append(snr, opts.LineData{Value: "-"})
		}
	}

	th := w.res.Link.Thresholds
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%s - Pass #%d", name, n),
			Subtitle: fmt.Sprintf("Start %s | Duration %s | Max elevation %.1f° | Peak quality %s",
				s.StartTime.In(w.loc).Format("2006-01-02 15:04 MST"), FormatDuration(s.DurationSeconds), s.MaxElevation, s.QualityAtPeak),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "5%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (" + w.loc.String() + ")"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "dBm / dB"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "Elevation (°)", Min: 0, Max: 90})

	line.SetXAxis(labels).
		AddSeries("Received power (dBm)", power).
		AddSeries("SNR (dB)", snr,
			charts.WithMarkLineNameYAxisItemOpts(
				opts.MarkLineNameYAxisItem{Name: "Excellent", YAxis: th.Excellent},
				opts.MarkLineNameYAxisItem{Name: "Good", YAxis: th.Good},
				opts.MarkLineNameYAxisItem{Name: "Fair", YAxis: th.Fair},
				opts.MarkLineNameYAxisItem{Name: "Poor", YAxis: th.Poor},
			),
		).
		AddSeries("Elevation (°)", elev,
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
		)
	return line
}
