package report

import (
	"context"
	"embed"
	"fmt"
	"io"
	"math"
	"text/template"
	"time"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/passes"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/pipeline"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/trajectory"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("report").Funcs(template.FuncMap{
	"lat":       formatLat,
	"lon":       formatLon,
	"duration":  FormatDuration,
	"thousands": thousands,
}).ParseFS(templateFS, "templates/*.md.tmpl"))

type markdownView struct {
	*pipeline.Result
	Location  *time.Location
	Zone      string
	Days      int
	DataFile  string
	Generated time.Time
	Sampled   []*pipeline.SatelliteResult
}

// Best returns the satellite with the most visible time, or nil.
func (v markdownView) Best() *pipeline.SatelliteResult {
	if v.Fleet.BestSatellite == 0 {
		return nil
	}
	sr, _ := v.Result.Satellite(v.Fleet.BestSatellite)
	return sr
}

type satellitePasses struct {
	Result *pipeline.SatelliteResult
	Passes []passView
}

type passView struct {
	N       int
	Summary passes.Summary
	Samples []localSample
	Graph   string
}

// localSample carries the sample time shifted into the report zone.
type localSample struct {
	trajectory.Sample
	Local time.Time
}

type passReportView struct {
	markdownView
	Satellites []satellitePasses
	Total      int
}

func writeMarkdown(ctx context.Context, w *writer) error {
	base := markdownView{
		Result:    w.res,
		Location:  w.loc,
		Zone:      w.loc.String(),
		Days:      int(w.res.End.Sub(w.res.Start).Hours()/24) + 1,
		DataFile:  fmt.Sprintf("ast_satellite_data_%s.json", w.suffix),
		Generated: w.res.CreatedAt,
		Sampled:   w.sampled(),
	}

	name := fmt.Sprintf("AST_SpaceMobile_Satellite_Report_%s-%s.md",
		w.res.Start.UTC().Format("Jan02"), w.res.End.UTC().Format("Jan02-2006"))
	err := w.create(name, func(out io.Writer) error {
		return templates.ExecuteTemplate(out, "trajectory.md.tmpl", base)
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	view := passReportView{markdownView: base}
	for _, sr := range base.Sampled {
		sp := satellitePasses{Result: sr}
		for i, p := range sr.Passes {
			pv := passView{N: i + 1, Summary: sr.Summaries[i], Samples: make([]localSample, len(p.Samples))}
			for j, s := range p.Samples {
				pv.Samples[j] = localSample{Sample: s, Local: s.Time.In(w.loc)}
			}
			if w.wants("png") {
				pv.Graph = graphName(sr.Satellite.Name, pv.N)
			}
			sp.Passes = append(sp.Passes, pv)
		}
		view.Total += len(sp.Passes)
		view.Satellites = append(view.Satellites, sp)
	}

	return w.create(fmt.Sprintf("AST_SpaceMobile_Detailed_Pass_Report_%s.md", w.suffix), func(out io.Writer) error {
		return templates.ExecuteTemplate(out, "passes.md.tmpl", view)
	})
}

func formatLat(deg float64) string {
	if deg < 0 {
		return fmt.Sprintf("%.4f°S", -deg)
	}
	return fmt.Sprintf("%.4f°N", deg)
}

func formatLon(deg float64) string {
	if deg < 0 {
		return fmt.Sprintf("%.4f°W", -deg)
	}
	return fmt.Sprintf("%.4f°E", deg)
}

// thousands renders n with comma grouping.
func thousands(n int) string {
	s := fmt.Sprint(int(math.Abs(float64(n))))
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if n < 0 {
		return "-" + s
	}
	return s
}
