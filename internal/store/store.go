// Package store archives pipeline runs in SQLite: run metadata, per-satellite
// statistics, pass summaries and the samples inside each pass. The schema is
// managed with embedded migrations.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/linkbudget"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/passes"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/pipeline"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned when a run id is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// Store is a SQLite run archive. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates it to the
// latest schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	s := &Store{db: db, logger: logger}
	version, err := s.migrateUp()
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("run store ready", "path", path, "schema_version", version)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateUp applies pending migrations and returns the schema version. The
// migrate instance is not closed, since that would close s.db.
func (s *Store) migrateUp() (uint, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("creating sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return 0, fmt.Errorf("creating migrate instance: %w", err)
	}
	m.Log = migrateLogger{s.logger}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migration up failed: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug("migrate", "msg", fmt.Sprintf(format, v...))
}

func (l migrateLogger) Verbose() bool { return false }

// SaveRun stores res in a single transaction.
func (s *Store) SaveRun(ctx context.Context, res *pipeline.Result) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, observer_name, latitude, longitude, elevation_m,
			window_start, window_end, interval_seconds, satellites, failed, passes, visible_minutes, best_satellite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID.String(), res.CreatedAt.Unix(), res.Observer.Name,
		res.Observer.Latitude, res.Observer.Longitude, res.Observer.ElevationM,
		res.Start.Unix(), res.End.Unix(), int64(res.Interval/time.Second),
		res.Fleet.Satellites, res.Fleet.Failed, res.Fleet.Passes, res.Fleet.VisibleMinutes, res.Fleet.BestSatellite,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	satStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO satellites (run_id, norad_id, name, description, tle_source, tle_line1, tle_line2,
			total_samples, visible_samples, visible_minutes, max_elevation, avg_elevation_visible,
			avg_power_dbm, peak_power_dbm, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer satStmt.Close()

	sampleStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (run_id, norad_id, unix_time, elevation_deg, azimuth_deg, range_km,
			satellite_lat, satellite_lon, satellite_alt_km, received_power_dbm, snr_db, link_quality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer sampleStmt.Close()

	passStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO passes (run_id, norad_id, pass_index, start_time, peak_time, end_time, sample_count,
			duration_seconds, max_elevation, min_elevation, start_azimuth, azimuth_at_max, end_azimuth,
			min_range_km, max_range_km, max_power_dbm, min_power_dbm, avg_power_dbm, peak_snr_db, avg_snr_db,
			quality_at_peak)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer passStmt.Close()

	runID := res.RunID.String()
	stored := 0
	for _, sr := range res.Satellites {
		id := sr.Satellite.NORADID
		st := sr.Stats
		seen := st.VisibleSamples > 0
		_, err := satStmt.ExecContext(ctx, runID, id, sr.Satellite.Name, sr.Satellite.Description,
			string(sr.TLE.Source), sr.TLE.Entry.Line1, sr.TLE.Entry.Line2,
			st.TotalSamples, st.VisibleSamples, st.VisibleMinutes,
			nullable(seen, st.MaxElevation), nullable(seen, st.AvgElevationVisible),
			nullable(seen, st.AvgPowerDBm), nullable(seen, st.PeakPowerDBm), sr.Err)
		if err != nil {
			return fmt.Errorf("inserting satellite %d: %w", id, err)
		}

		for i, p := range sr.Passes {
			sum := sr.Summaries[i]
			_, err := passStmt.ExecContext(ctx, runID, id, i+1,
				sum.StartTime.Unix(), sum.PeakTime.Unix(), sum.EndTime.Unix(), sum.SampleCount, sum.DurationSeconds,
				sum.MaxElevation, sum.MinElevation, sum.StartAzimuth, sum.AzimuthAtMax, sum.EndAzimuth,
				sum.MinRangeKm, sum.MaxRangeKm, sum.MaxPowerDBm, sum.MinPowerDBm, sum.AvgPowerDBm,
				sum.PeakSNR, sum.AvgSNR, sum.QualityAtPeak.String())
			if err != nil {
				return fmt.Errorf("inserting pass %d of %d: %w", i+1, id, err)
			}

			for _, smp := range p.Samples {
				var power, snr sql.NullFloat64
				if sig := smp.Link.Signal; sig != nil {
					power = sql.NullFloat64{Float64: sig.ReceivedPowerDBm, Valid: true}
					snr = sql.NullFloat64{Float64: sig.SNRdB, Valid: true}
				}
				_, err := sampleStmt.ExecContext(ctx, runID, id, smp.Time.Unix(),
					smp.ElevationDeg, smp.AzimuthDeg, smp.RangeKm, smp.SubLatDeg, smp.SubLonDeg, smp.SubAltKm,
					power, snr, smp.Link.Quality.String())
				if err != nil {
					return fmt.Errorf("inserting sample of %d at %s: %w", id, smp.Time.Format(time.RFC3339), err)
				}
				stored++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	s.logger.Info("run archived",
		"run_id", runID,
		"satellites", len(res.Satellites),
		"samples", stored,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func nullable(valid bool, v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: valid}
}

// RunSummary is the archived header of one run.
type RunSummary struct {
	RunID          uuid.UUID     `json:"run_id"`
	CreatedAt      time.Time     `json:"created_at"`
	ObserverName   string        `json:"observer_name"`
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
	Interval       time.Duration `json:"interval_ns"`
	Satellites     int           `json:"satellites"`
	Failed         int           `json:"failed"`
	Passes         int           `json:"passes"`
	VisibleMinutes float64       `json:"visible_minutes"`
	BestSatellite  int           `json:"best_satellite"`
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, created_at, observer_name, window_start, window_end, interval_seconds,
			satellites, failed, passes, visible_minutes, best_satellite
		FROM runs
		ORDER BY created_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r                         RunSummary
			id                        string
			created, start, end, secs int64
		)
		if err := rows.Scan(&id, &created, &r.ObserverName, &start, &end, &secs,
			&r.Satellites, &r.Failed, &r.Passes, &r.VisibleMinutes, &r.BestSatellite); err != nil {
			return nil, err
		}
		if r.RunID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		r.CreatedAt = time.Unix(created, 0).UTC()
		r.Start = time.Unix(start, 0).UTC()
		r.End = time.Unix(end, 0).UTC()
		r.Interval = time.Duration(secs) * time.Second
		out = append(out, r)
	}
	return out, rows.Err()
}

// StoredPass is an archived pass summary. Ground tracks are not archived.
type StoredPass struct {
	NORADID int            `json:"norad_id"`
	Name    string         `json:"name"`
	Index   int            `json:"pass"`
	Summary passes.Summary `json:"summary"`
}

// LoadPasses returns the passes of a run ordered by satellite then pass
// number. noradID > 0 restricts the result to one satellite.
func (s *Store) LoadPasses(ctx context.Context, runID uuid.UUID, noradID int) ([]StoredPass, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE run_id = ?`, runID.String()).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.norad_id, s.name, p.pass_index, p.start_time, p.peak_time, p.end_time, p.sample_count,
			p.duration_seconds, p.max_elevation, p.min_elevation, p.start_azimuth, p.azimuth_at_max,
			p.end_azimuth, p.min_range_km, p.max_range_km, p.max_power_dbm, p.min_power_dbm,
			p.avg_power_dbm, p.peak_snr_db, p.avg_snr_db, p.quality_at_peak
		FROM passes p
		JOIN satellites s ON s.run_id = p.run_id AND s.norad_id = p.norad_id
		WHERE p.run_id = ? AND (? = 0 OR p.norad_id = ?)
		ORDER BY p.norad_id, p.pass_index`, runID.String(), noradID, noradID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredPass
	for rows.Next() {
		var (
			sp               StoredPass
			start, peak, end int64
			quality          string
		)
		sum := &sp.Summary
		if err := rows.Scan(&sp.NORADID, &sp.Name, &sp.Index, &start, &peak, &end, &sum.SampleCount,
			&sum.DurationSeconds, &sum.MaxElevation, &sum.MinElevation, &sum.StartAzimuth, &sum.AzimuthAtMax,
			&sum.EndAzimuth, &sum.MinRangeKm, &sum.MaxRangeKm, &sum.MaxPowerDBm, &sum.MinPowerDBm,
			&sum.AvgPowerDBm, &sum.PeakSNR, &sum.AvgSNR, &quality); err != nil {
			return nil, err
		}
		sum.StartTime = time.Unix(start, 0).UTC()
		sum.PeakTime = time.Unix(peak, 0).UTC()
		sum.EndTime = time.Unix(end, 0).UTC()
		var q linkbudget.Quality
		if err := q.UnmarshalText([]byte(quality)); err != nil {
			return nil, err
		}
		sum.QualityAtPeak = q
		out = append(out, sp)
	}
	return out, rows.Err()
}

// CountSamples returns how many in-pass samples are archived for a satellite
// of a run.
func (s *Store) CountSamples(ctx context.Context, runID uuid.UUID, noradID int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM samples WHERE run_id = ? AND norad_id = ?`, runID.String(), noradID).Scan(&n)
	return n, err
}
