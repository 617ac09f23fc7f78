package report

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/passes"
)

var (
	powerColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	elevationColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	snrColor       = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

const graphDPI = 150

// writePNG draws one graph per pass: received power, elevation and SNR
// against local time, with the SNR quality thresholds marked.
func writePNG(ctx context.Context, w *writer) error {
	for _, sr := range w.sampled() {
		for i, p := range sr.Passes {
			if err := ctx.Err(); err != nil {
				return err
			}
			title := passTitle(sr.Satellite.Name, i+1, sr.Summaries[i], w.loc)
			err := w.create(graphName(sr.Satellite.Name, i+1), func(out io.Writer) error {
				return drawPass(out, title, p, w.loc, w.res.Link.Thresholds)
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func passTitle(name string, n int, s passes.Summary, loc *time.Location) string {
	return fmt.Sprintf("%s - Pass #%d\nStart: %s | Duration: %s | Max Elevation: %.1f°",
		name, n, s.StartTime.In(loc).Format("2006-01-02 15:04 MST"), FormatDuration(s.DurationSeconds), s.MaxElevation)
}

func drawPass(out io.Writer, title string, p passes.Pass, loc *time.Location, th linkbudget.Thresholds) error {
	power := make(plotter.XYs, 0, p.Len())
	elev := make(plotter.XYs, 0, p.Len())
	snr := make(plotter.XYs, 0, p.Len())
	for _, s := range p.Samples {
		x := float64(s.Time.Unix())
		elev = append(elev, plotter.XY{X: x, Y: s.ElevationDeg})
		if s.Link.Signal != nil {
			power = append(power, plotter.XY{X: x, Y: s.Link.Signal.ReceivedPowerDBm})
			snr = append(snr, plotter.XY{X: x, Y: s.Link.Signal.SNRdB})
		}
	}

	xticks := plot.TimeTicks{Format: "15:04:05", Time: plot.UnixTimeIn(loc)}
	xlabel := fmt.Sprintf("Time (%s)", loc.String())

	pPower := plot.New()
	pPower.Title.Text = title
	pPower.Y.Label.Text = "Received Power (dBm)"
	pPower.X.Tick.Marker = xticks
	pPower.Add(plotter.NewGrid())
	if err := addLine(pPower, "Signal Power", power, powerColor, nil); err != nil {
		return err
	}

	pElev := plot.New()
	pElev.Y.Label.Text = "Elevation (degrees)"
	pElev.X.Tick.Marker = xticks
	pElev.Add(plotter.NewGrid())
	if err := addLine(pElev, "Elevation", elev, elevationColor, []vg.Length{vg.Points(6), vg.Points(3)}); err != nil {
		return err
	}

	pSNR := plot.New()
	pSNR.Y.Label.Text = "SNR (dB)"
	pSNR.X.Label.Text = xlabel
	pSNR.X.Tick.Marker = xticks
	pSNR.Add(plotter.NewGrid())
	if err := addLine(pSNR, "SNR", snr, snrColor, nil); err != nil {
		return err
	}
	for _, ref := range []struct {
		label string
		value float64
		c     color.Color
	}{
		{"Excellent", th.Excellent, color.RGBA{G: 128, A: 255}},
		{"Good", th.Good, color.RGBA{R: 154, G: 205, B: 50, A: 255}},
		{"Fair", th.Fair, color.RGBA{R: 230, G: 200, A: 255}},
		{"Poor", th.Poor, color.RGBA{R: 255, G: 165, A: 255}},
	} {
		v := ref.value
		fn := plotter.NewFunction(func(float64) float64 { return v })
		fn.Color = ref.c
		fn.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		pSNR.Add(fn)
		pSNR.Legend.Add(ref.label, fn)
	}
	// Keep every threshold line inside the axis.
	pSNR.Y.Min = math.Min(pSNR.Y.Min, th.Poor-2)
	pSNR.Y.Max = math.Max(pSNR.Y.Max, th.Excellent+2)

	for _, pl := range []*plot.Plot{pPower, pElev, pSNR} {
		pl.Legend.Top = true
		pl.Legend.Left = true
		pl.Legend.XOffs = vg.Points(10)
	}

	img := vgimg.NewWith(vgimg.UseWH(12*vg.Inch, 10*vg.Inch), vgimg.UseDPI(graphDPI))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      3,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter * 3,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{{pPower}, {pElev}, {pSNR}}, tiles, dc)
	pPower.Draw(canvases[0][0])
	pElev.Draw(canvases[1][0])
	pSNR.Draw(canvases[2][0])

	_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(out)
	return err
}

func addLine(p *plot.Plot, label string, pts plotter.XYs, c color.Color, dashes []vg.Length) error {
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(2)
	line.Dashes = dashes
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}
