// Package config loads the run configuration: defaults, then an optional YAML
// file, then SATREPORT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/tle"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/trajectory"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/transform"
)

// KnownFormats lists the report formats the output section accepts.
var KnownFormats = []string{"csv", "json", "markdown", "png", "html"}

type Config struct {
	Observer   ObserverConfig    `yaml:"observer"`
	Window     WindowConfig      `yaml:"window"`
	Sampling   SamplingConfig    `yaml:"sampling"`
	Link       linkbudget.Params `yaml:"link"`
	Satellites []Satellite       `yaml:"satellites"`
	TLE        TLEConfig         `yaml:"tle"`
	Output     OutputConfig      `yaml:"output"`
	Store      StoreConfig       `yaml:"store"`
	Server     ServerConfig      `yaml:"server"`
	Logging    LoggingConfig     `yaml:"logging"`
}

type ObserverConfig struct {
	Name       string  `yaml:"name" json:"name"`
	Address    string  `yaml:"address" json:"address"`
	Latitude   float64 `yaml:"latitude" json:"latitude"`
	Longitude  float64 `yaml:"longitude" json:"longitude"`
	ElevationM float64 `yaml:"elevation_m" json:"elevation_m"`
}

// WindowConfig is the UTC analysis window; End is inclusive.
type WindowConfig struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

type SamplingConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Workers   int           `yaml:"workers"`    // 0 means one per CPU
	MaxWindow time.Duration `yaml:"max_window"` // longest window a run may cover
}

type Satellite struct {
	Name        string `yaml:"name" json:"name"`
	NORADID     int    `yaml:"norad_id" json:"norad_id"`
	Description string `yaml:"description" json:"description"`
}

type TLEConfig struct {
	FetchEnabled      bool          `yaml:"fetch_enabled"`
	BaseURL           string        `yaml:"base_url"`
	Group             string        `yaml:"group"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	CacheDir          string        `yaml:"cache_dir"` // empty disables the disk cache
	MaxCacheFiles     int           `yaml:"max_cache_files"`
}

type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
	// LocalZone and LocalOffset label the local-time columns of the reports.
	LocalZone   string        `yaml:"local_zone"`
	LocalOffset time.Duration `yaml:"local_offset"`
}

// StoreConfig points at the SQLite run archive; an empty Path disables it.
type StoreConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	TrustProxy   bool          `yaml:"trust_proxy"`
	AuthEnabled  bool          `yaml:"auth_enabled"`
	AuthToken    string        `yaml:"auth_token"`
	PublicReads  bool          `yaml:"public_reads"` // GET /api/v1/* skips auth
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultSatellites is the AST SpaceMobile fleet.
func DefaultSatellites() []Satellite {
	return []Satellite{
		{Name: "BLUEWALKER 3", NORADID: 53807, Description: "Test satellite, largest commercial communications array in LEO"},
		{Name: "BLUEBIRD-A", NORADID: 61045, Description: "Block 1 BlueBird satellite (SPACEMOBILE-003), launched Sep 2024"},
		{Name: "BLUEBIRD-B", NORADID: 61046, Description: "Block 1 BlueBird satellite (SPACEMOBILE-005), launched Sep 2024"},
		{Name: "BLUEBIRD-C", NORADID: 61047, Description: "Block 1 BlueBird satellite (SPACEMOBILE-001), launched Sep 2024"},
		{Name: "BLUEBIRD-D", NORADID: 61048, Description: "Block 1 BlueBird satellite (SPACEMOBILE-002), launched Sep 2024"},
		{Name: "BLUEBIRD-E", NORADID: 61049, Description: "Block 1 BlueBird satellite (SPACEMOBILE-004), launched Sep 2024"},
		{Name: "BLUEBIRD-6", NORADID: 67232, Description: "Block 2 BlueBird satellite (FM1), launched Dec 2025, 10x capacity of Block 1"},
	}
}

// Default returns the configuration used when nothing is overridden: the
// Odessa, TX site over 7-12 December 2025 at a 5 s cadence.
func Default() *Config {
	return &Config{
		Observer: ObserverConfig{
			Name:       "Odessa, TX",
			Address:    "1 Fairway Dr, Odessa, TX 79765",
			Latitude:   31.8457,
			Longitude:  -102.3676,
			ElevationM: 895,
		},
		Window: WindowConfig{
			Start: time.Date(2025, 12, 7, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 12, 12, 23, 59, 59, 0, time.UTC),
		},
		Sampling:   SamplingConfig{Interval: 5 * time.Second, MaxWindow: trajectory.DefaultMaxWindow},
		Link:       linkbudget.DefaultParams(),
		Satellites: DefaultSatellites(),
		TLE: TLEConfig{
			FetchEnabled:      true,
			BaseURL:           tle.DefaultBaseURL,
			Group:             tle.DefaultGroup,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 2,
			CacheDir:          "cache/tle",
			MaxCacheFiles:     5,
		},
		Output: OutputConfig{
			Dir:         "reports",
			Formats:     []string{"csv", "json", "markdown"},
			LocalZone:   "CST",
			LocalOffset: -6 * time.Hour,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// any) and the environment, then validates it. Unparseable environment
// values are logged and ignored.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.loadFromEnv(logger)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromEnv(logger *slog.Logger) {
	envFloat(logger, "SATREPORT_OBSERVER_LAT", &c.Observer.Latitude)
	envFloat(logger, "SATREPORT_OBSERVER_LON", &c.Observer.Longitude)
	envFloat(logger, "SATREPORT_OBSERVER_ELEVATION_M", &c.Observer.ElevationM)
	envTime(logger, "SATREPORT_START", &c.Window.Start)
	envTime(logger, "SATREPORT_END", &c.Window.End)

	if v := os.Getenv("SATREPORT_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATREPORT_INTERVAL value, using default", "value", v, "default", c.Sampling.Interval.Seconds())
		} else {
			c.Sampling.Interval = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SATREPORT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Warn("invalid SATREPORT_WORKERS value, using default", "value", v, "default", c.Sampling.Workers)
		} else {
			c.Sampling.Workers = n
		}
	}

	if v := os.Getenv("SATREPORT_MAX_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			logger.Warn("invalid SATREPORT_MAX_WINDOW value, using default", "value", v, "default", c.Sampling.MaxWindow.String())
		} else {
			c.Sampling.MaxWindow = d
		}
	}

	envFloat(logger, "SATREPORT_FREQUENCY_MHZ", &c.Link.FrequencyMHz)
	envFloat(logger, "SATREPORT_EIRP_DBW", &c.Link.SatelliteEIRPdBW)
	envFloat(logger, "SATREPORT_RX_GAIN_DBI", &c.Link.ReceiverGainDBi)
	envFloat(logger, "SATREPORT_SYSTEM_LOSSES_DB", &c.Link.SystemLossesDB)
	envFloat(logger, "SATREPORT_NOISE_FLOOR_DBM", &c.Link.NoiseFloorDBm)

	envBool(logger, "SATREPORT_TLE_FETCH", &c.TLE.FetchEnabled)
	if v := os.Getenv("SATREPORT_TLE_BASE_URL"); v != "" {
		c.TLE.BaseURL = v
	}
	if v, ok := os.LookupEnv("SATREPORT_TLE_CACHE_DIR"); ok {
		c.TLE.CacheDir = v
	}

	if v := os.Getenv("SATREPORT_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("SATREPORT_FORMATS"); v != "" {
		c.Output.Formats = SplitList(v)
	}
	if v, ok := os.LookupEnv("SATREPORT_STORE_PATH"); ok {
		c.Store.Path = v
	}

	if v := os.Getenv("SATREPORT_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	envBool(logger, "SATREPORT_TRUST_PROXY", &c.Server.TrustProxy)
	envBool(logger, "SATREPORT_AUTH_ENABLED", &c.Server.AuthEnabled)
	envBool(logger, "SATREPORT_PUBLIC_READS", &c.Server.PublicReads)
	if v := os.Getenv("SATREPORT_AUTH_TOKEN"); v != "" {
		c.Server.AuthToken = v
	}

	if v := os.Getenv("SATREPORT_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

func envFloat(logger *slog.Logger, key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", *dst)
		return
	}
	*dst = f
}

func envBool(logger *slog.Logger, key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", *dst)
		return
	}
	*dst = b
}

func envTime(logger *slog.Logger, key string, dst *time.Time) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", dst.Format(time.RFC3339))
		return
	}
	*dst = t.UTC()
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration before any work starts. Observer and
// window problems are reported as trajectory.ErrInvalidInput.
func (c *Config) Validate() error {
	if _, err := c.ObserverLocation(); err != nil {
		return err
	}

	c.Window.Start = c.Window.Start.UTC()
	c.Window.End = c.Window.End.UTC()
	if c.Window.End.Before(c.Window.Start) {
		return &trajectory.InputError{Field: "window", Reason: fmt.Sprintf("end %s is before start %s",
			c.Window.End.Format(time.RFC3339), c.Window.Start.Format(time.RFC3339))}
	}
	if c.Window.Start.Nanosecond() != 0 {
		return &trajectory.InputError{Field: "window", Reason: fmt.Sprintf("start %s is not a whole second",
			c.Window.Start.Format(time.RFC3339Nano))}
	}
	if c.Sampling.MaxWindow <= 0 {
		return fmt.Errorf("sampling max_window must be positive, got %s", c.Sampling.MaxWindow)
	}
	if span := c.Window.End.Sub(c.Window.Start); span > c.Sampling.MaxWindow {
		return &trajectory.InputError{Field: "window", Reason: fmt.Sprintf("window of %s exceeds max_window %s", span, c.Sampling.MaxWindow)}
	}
	if c.Sampling.Interval <= 0 || c.Sampling.Interval%time.Second != 0 {
		return &trajectory.InputError{Field: "interval", Reason: fmt.Sprintf("%s must be a positive whole number of seconds", c.Sampling.Interval)}
	}
	if c.Sampling.Workers < 0 {
		return errors.New("sampling workers cannot be negative")
	}

	if err := validateLink(c.Link); err != nil {
		return err
	}

	if len(c.Satellites) == 0 {
		return errors.New("at least one satellite is required")
	}
	seen := make(map[int]bool, len(c.Satellites))
	for _, s := range c.Satellites {
		if s.NORADID < 1 || s.NORADID > 99999 {
			return fmt.Errorf("satellite %q: norad_id %d must be between 1 and 99999", s.Name, s.NORADID)
		}
		if seen[s.NORADID] {
			return fmt.Errorf("satellite norad_id %d listed twice", s.NORADID)
		}
		seen[s.NORADID] = true
	}

	for _, f := range c.Output.Formats {
		if !slices.Contains(KnownFormats, f) {
			return fmt.Errorf("unknown output format %q (want one of %s)", f, strings.Join(KnownFormats, ", "))
		}
	}

	if c.Server.AuthEnabled && c.Server.AuthToken == "" {
		return errors.New("auth token is required when auth is enabled")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be 'debug', 'info', 'warn', or 'error', got %q", c.Logging.Level)
	}
	return nil
}

func validateLink(p linkbudget.Params) error {
	if p.FrequencyMHz <= 0 {
		return fmt.Errorf("link frequency must be positive, got %v MHz", p.FrequencyMHz)
	}
	if p.Precision < 0 || p.Precision > 10 {
		return fmt.Errorf("link precision %d outside [0, 10]", p.Precision)
	}
	if p.AtmosphericSlopeDBPerDeg < 0 {
		return fmt.Errorf("atmospheric slope cannot be negative")
	}
	th := p.Thresholds
	if !(th.Excellent >= th.Good && th.Good >= th.Fair && th.Fair >= th.Poor) {
		return fmt.Errorf("link thresholds must not increase from excellent to poor: %+v", th)
	}
	return nil
}

// ObserverLocation builds the validated observer.
func (c *Config) ObserverLocation() (transform.Observer, error) {
	return trajectory.NewObserver(c.Observer.Latitude, c.Observer.Longitude, c.Observer.ElevationM)
}

// LocalZone returns the fixed zone used for local-time columns.
func (c *Config) LocalZone() *time.Location {
	return time.FixedZone(c.Output.LocalZone, int(c.Output.LocalOffset.Seconds()))
}

// SlogLevel maps the configured level name onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
