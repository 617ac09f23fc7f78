package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/passes"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/trajectory"
)

// SampleColumns is the column order of a sample record.
var SampleColumns = []string{
	"timestamp",
	"unix_timestamp",
	"elevation_deg",
	"azimuth_deg",
	"range_km",
	"satellite_lat",
	"satellite_lon",
	"satellite_alt_km",
	"visible",
	"received_power_dbm",
	"snr_db",
	"link_quality",
	"path_loss_db",
	"atmospheric_loss_db",
}

// PassColumns is the column order of a pass record.
var PassColumns = []string{
	"pass",
	"start_time",
	"max_elevation_time",
	"end_time",
	"duration",
	"duration_seconds",
	"max_elevation_deg",
	"min_elevation_deg",
	"start_azimuth_deg",
	"azimuth_at_max_deg",
	"end_azimuth_deg",
	"min_range_km",
	"max_range_km",
	"max_power_dbm",
	"min_power_dbm",
	"avg_power_dbm",
	"peak_snr_db",
	"avg_snr_db",
	"quality_at_peak",
}

// SampleRecord flattens a sample into scalar fields keyed by SampleColumns.
// Geometry is rounded here; link fields are nil below the horizon.
func SampleRecord(s trajectory.Sample) map[string]any {
	rec := map[string]any{
		"timestamp":           s.Time.UTC().Format(time.RFC3339),
		"unix_timestamp":      s.Time.Unix(),
		"elevation_deg":       linkbudget.Round(s.ElevationDeg, 2),
		"azimuth_deg":         linkbudget.Round(s.AzimuthDeg, 2),
		"range_km":            linkbudget.Round(s.RangeKm, 2),
		"satellite_lat":       linkbudget.Round(s.SubLatDeg, 4),
		"satellite_lon":       linkbudget.Round(s.SubLonDeg, 4),
		"satellite_alt_km":    linkbudget.Round(s.SubAltKm, 2),
		"visible":             s.Visible,
		"link_quality":        s.Link.Quality.String(),
		"received_power_dbm":  nil,
		"snr_db":              nil,
		"path_loss_db":        nil,
		"atmospheric_loss_db": nil,
	}
	if sig := s.Link.Signal; sig != nil {
		rec["received_power_dbm"] = sig.ReceivedPowerDBm
		rec["snr_db"] = sig.SNRdB
		rec["path_loss_db"] = sig.PathLossDB
		rec["atmospheric_loss_db"] = sig.AtmosphericLossDB
	}
	return rec
}

// PassRecord flattens the summary of pass number n (1-based) into scalar
// fields keyed by PassColumns. Times are rendered in loc.
func PassRecord(n int, s passes.Summary, loc *time.Location) map[string]any {
	return map[string]any{
		"pass":               n,
		"start_time":         s.StartTime.In(loc).Format(time.RFC3339),
		"max_elevation_time": s.PeakTime.In(loc).Format(time.RFC3339),
		"end_time":           s.EndTime.In(loc).Format(time.RFC3339),
		"duration":           FormatDuration(s.DurationSeconds),
		"duration_seconds":   s.DurationSeconds,
		"max_elevation_deg":  linkbudget.Round(s.MaxElevation, 2),
		"min_elevation_deg":  linkbudget.Round(s.MinElevation, 2),
		"start_azimuth_deg":  linkbudget.Round(s.StartAzimuth, 2),
		"azimuth_at_max_deg": linkbudget.Round(s.AzimuthAtMax, 2),
		"end_azimuth_deg":    linkbudget.Round(s.EndAzimuth, 2),
		"min_range_km":       linkbudget.Round(s.MinRangeKm, 2),
		"max_range_km":       linkbudget.Round(s.MaxRangeKm, 2),
		"max_power_dbm":      linkbudget.Round(s.MaxPowerDBm, 2),
		"min_power_dbm":      linkbudget.Round(s.MinPowerDBm, 2),
		"avg_power_dbm":      linkbudget.Round(s.AvgPowerDBm, 2),
		"peak_snr_db":        linkbudget.Round(s.PeakSNR, 2),
		"avg_snr_db":         linkbudget.Round(s.AvgSNR, 2),
		"quality_at_peak":    s.QualityAtPeak.String(),
	}
}

// FormatDuration renders seconds as mm:ss. Minutes are not wrapped at 60.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

var slugReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// Slug turns a satellite name into a file name fragment: "BLUEBIRD-A" becomes
// "bluebird-a", "BLUEWALKER 3" becomes "bluewalker_3".
func Slug(name string) string {
	return strings.ToLower(slugReplacer.Replace(strings.TrimSpace(name)))
}

// DateSuffix names a window by its first and last day, e.g. "dec07-dec12".
func DateSuffix(start, end time.Time) string {
	return strings.ToLower(start.UTC().Format("Jan02") + "-" + end.UTC().Format("Jan02"))
}
