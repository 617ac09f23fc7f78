package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/trajectory"
)

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "satreport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("", discard())
	require.NoError(t, err)

	assert.Equal(t, 31.8457, cfg.Observer.Latitude)
	assert.Equal(t, -102.3676, cfg.Observer.Longitude)
	assert.Equal(t, 895.0, cfg.Observer.ElevationM)
	assert.Equal(t, 5*time.Second, cfg.Sampling.Interval)
	assert.Equal(t, 31*24*time.Hour, cfg.Sampling.MaxWindow)
	assert.Equal(t, linkbudget.DefaultParams(), cfg.Link)
	assert.Len(t, cfg.Satellites, 7)
	assert.Equal(t, 53807, cfg.Satellites[0].NORADID)
	assert.Equal(t, 67232, cfg.Satellites[6].NORADID)
	assert.True(t, cfg.Window.End.Equal(time.Date(2025, 12, 12, 23, 59, 59, 0, time.UTC)))
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
observer:
  name: Midland
  latitude: 31.9973
  longitude: -102.0779
  elevation_m: 871
window:
  start: 2025-12-08T00:00:00Z
  end: 2025-12-08T06:00:00Z
sampling:
  interval: 10s
  workers: 3
  max_window: 168h
link:
  frequency_mhz: 1900
  satellite_eirp_dbw: 55
  receiver_gain_dbi: 12
  system_losses_db: 3
  noise_floor_dbm: -110
  atmospheric_base_db: 2
  atmospheric_breakpoint_deg: 10
  atmospheric_slope_db_per_deg: 0.5
  thresholds: {excellent: 22, good: 16, fair: 10, poor: 4}
  precision: 3
satellites:
  - {name: BLUEBIRD-A, norad_id: 61045}
  - {name: BLUEBIRD-6, norad_id: 67232}
output:
  dir: out
  formats: [json, png, html]
logging:
  level: debug
`)

	cfg, err := Load(path, discard())
	require.NoError(t, err)

	assert.Equal(t, "Midland", cfg.Observer.Name)
	assert.Equal(t, 10*time.Second, cfg.Sampling.Interval)
	assert.Equal(t, 3, cfg.Sampling.Workers)
	assert.Equal(t, 7*24*time.Hour, cfg.Sampling.MaxWindow)
	assert.Equal(t, 1900.0, cfg.Link.FrequencyMHz)
	assert.Equal(t, 22.0, cfg.Link.Thresholds.Excellent)
	assert.Equal(t, 3, cfg.Link.Precision)
	require.Len(t, cfg.Satellites, 2, "a configured fleet replaces the default one")
	assert.Equal(t, 61045, cfg.Satellites[0].NORADID)
	assert.Equal(t, []string{"json", "png", "html"}, cfg.Output.Formats)
	assert.True(t, cfg.Window.Start.Equal(time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, cfg.Window.Start.Location())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	// Untouched sections keep their defaults.
	assert.Equal(t, "CST", cfg.Output.LocalZone)
	assert.True(t, cfg.TLE.FetchEnabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SATREPORT_OBSERVER_LAT", "40.7128")
	t.Setenv("SATREPORT_INTERVAL", "30")
	t.Setenv("SATREPORT_START", "2025-12-09T00:00:00Z")
	t.Setenv("SATREPORT_END", "2025-12-09T12:00:00Z")
	t.Setenv("SATREPORT_FORMATS", "csv, markdown ,")
	t.Setenv("SATREPORT_TLE_FETCH", "false")
	t.Setenv("SATREPORT_NOISE_FLOOR_DBM", "-105.5")
	t.Setenv("SATREPORT_LOG_LEVEL", "WARN")

	cfg, err := Load("", discard())
	require.NoError(t, err)

	assert.Equal(t, 40.7128, cfg.Observer.Latitude)
	assert.Equal(t, 30*time.Second, cfg.Sampling.Interval)
	assert.Equal(t, []string{"csv", "markdown"}, cfg.Output.Formats)
	assert.False(t, cfg.TLE.FetchEnabled)
	assert.Equal(t, -105.5, cfg.Link.NoiseFloorDBm)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
	assert.True(t, cfg.Window.End.Equal(time.Date(2025, 12, 9, 12, 0, 0, 0, time.UTC)))
}

func TestLoadEnvInvalidIsWarnedAndIgnored(t *testing.T) {
	t.Setenv("SATREPORT_INTERVAL", "fast")
	t.Setenv("SATREPORT_OBSERVER_LON", "west")
	t.Setenv("SATREPORT_AUTH_ENABLED", "maybe")
	t.Setenv("SATREPORT_MAX_WINDOW", "forever")

	var logs bytes.Buffer
	cfg, err := Load("", slog.New(slog.NewJSONHandler(&logs, nil)))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Sampling.Interval)
	assert.Equal(t, -102.3676, cfg.Observer.Longitude)
	assert.False(t, cfg.Server.AuthEnabled)
	assert.Contains(t, logs.String(), "invalid SATREPORT_INTERVAL value")
	assert.Contains(t, logs.String(), "invalid SATREPORT_OBSERVER_LON value")
	assert.Equal(t, 31*24*time.Hour, cfg.Sampling.MaxWindow)
	assert.Equal(t, 4, strings.Count(logs.String(), `"level":"WARN"`))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Config)
		invalidInput bool
		wantErr      string
	}{
		{"latitude out of range", func(c *Config) { c.Observer.Latitude = 91 }, true, "latitude"},
		{"longitude out of range", func(c *Config) { c.Observer.Longitude = -180.5 }, true, "longitude"},
		{"end before start", func(c *Config) { c.Window.End = c.Window.Start.Add(-time.Second) }, true, "window"},
		{"zero interval", func(c *Config) { c.Sampling.Interval = 0 }, true, "interval"},
		{"fractional interval", func(c *Config) { c.Sampling.Interval = 2500 * time.Millisecond }, true, "interval"},
		{"fractional start", func(c *Config) { c.Window.Start = c.Window.Start.Add(500 * time.Millisecond) }, true, "whole second"},
		{"window over max_window", func(c *Config) { c.Sampling.MaxWindow = 24 * time.Hour }, true, "exceeds max_window"},
		{"two century window", func(c *Config) {
			c.Window.Start = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
			c.Window.End = time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC)
		}, true, "exceeds max_window"},
		{"zero max_window", func(c *Config) { c.Sampling.MaxWindow = 0 }, false, "max_window must be positive"},
		{"no satellites", func(c *Config) { c.Satellites = nil }, false, "at least one satellite"},
		{"duplicate satellite", func(c *Config) { c.Satellites = append(c.Satellites, c.Satellites[0]) }, false, "listed twice"},
		{"bad norad id", func(c *Config) { c.Satellites[0].NORADID = 0 }, false, "norad_id"},
		{"unknown format", func(c *Config) { c.Output.Formats = []string{"pdf"} }, false, "unknown output format"},
		{"auth without token", func(c *Config) { c.Server.AuthEnabled = true }, false, "auth token"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false, "log level"},
		{"zero frequency", func(c *Config) { c.Link.FrequencyMHz = 0 }, false, "frequency"},
		{"inverted thresholds", func(c *Config) { c.Link.Thresholds.Poor = 30 }, false, "thresholds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
			assert.Equal(t, tt.invalidInput, errors.Is(err, trajectory.ErrInvalidInput))
		})
	}
}

func TestValidateNormalisesWindowToUTC(t *testing.T) {
	cfg := Default()
	cst := time.FixedZone("CST", -6*3600)
	cfg.Window.Start = time.Date(2025, 12, 7, 0, 0, 0, 0, cst)
	cfg.Window.End = time.Date(2025, 12, 7, 23, 59, 59, 0, cst)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.UTC, cfg.Window.Start.Location())
	assert.Equal(t, 6, cfg.Window.Start.Hour())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), discard())
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeFile(t, "observer: [not, a, map]\n"), discard())
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLocalZone(t *testing.T) {
	loc := Default().LocalZone()
	at := time.Date(2025, 12, 7, 12, 0, 0, 0, time.UTC).In(loc)
	assert.Equal(t, 6, at.Hour())
	name, offset := at.Zone()
	assert.Equal(t, "CST", name)
	assert.Equal(t, -6*3600, offset)
}
