package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

type datasetInfo struct {
	NORADID     int    `json:"norad_id"`
	Description string `json:"description"`
	TLESource   string `json:"tle_source"`
	Error       string `json:"error,omitempty"`
}

type datasetTLE struct {
	Name  string `json:"name"`
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

type datasetEntry struct {
	Info      datasetInfo      `json:"info"`
	TLE       datasetTLE       `json:"tle"`
	Positions []map[string]any `json:"positions"`
}

// writeJSON writes the whole run as {satellite name: {info, tle, positions}}.
func writeJSON(ctx context.Context, w *writer) error {
	data := make(map[string]datasetEntry, len(w.res.Satellites))
	for _, sr := range w.res.Satellites {
		if err := ctx.Err(); err != nil {
			return err
		}
		positions := make([]map[string]any, len(sr.Samples))
		for i, s := range sr.Samples {
			positions[i] = SampleRecord(s)
		}
		data[sr.Satellite.Name] = datasetEntry{
			Info: datasetInfo{
				NORADID:     sr.Satellite.NORADID,
				Description: sr.Satellite.Description,
				TLESource:   string(sr.TLE.Source),
				Error:       sr.Err,
			},
			TLE: datasetTLE{
				Name:  sr.TLE.Entry.Name,
				Line1: sr.TLE.Entry.Line1,
				Line2: sr.TLE.Entry.Line2,
			},
			Positions: positions,
		}
	}

	return w.create(fmt.Sprintf("ast_satellite_data_%s.json", w.suffix), func(out io.Writer) error {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	})
}
