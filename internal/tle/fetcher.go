package tle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/metrics"
)

const (
	DefaultBaseURL = "https://celestrak.org/NORAD/elements/gp.php"
	DefaultGroup   = "active"

	defaultMaxBodyBytes = 50 << 20
	groupTTL            = 30 * time.Minute
	// groupRetryAfter is how long a failed group fetch is reported without
	// contacting the server again.
	groupRetryAfter = time.Minute
)

// FetcherConfig configures a Fetcher. Zero values take the defaults.
type FetcherConfig struct {
	BaseURL           string
	Group             string // catalog scanned when a per-id lookup comes back empty
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables pacing
	MaxBodyBytes      int64
}

// Fetcher looks element sets up over HTTP: first by catalog number, then by
// scanning a group catalog.
type Fetcher struct {
	cfg        FetcherConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	now func() time.Time

	mu           sync.Mutex
	group        []TLEEntry
	groupTime    time.Time
	groupErr     error
	groupErrTime time.Time
}

var _ Provider = (*Fetcher)(nil)

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Group == "" {
		cfg.Group = DefaultGroup
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		now:        time.Now,
	}
}

// Lookup returns the element set for catalogID, or ErrNotFound when neither
// the per-id query nor the group catalog lists it.
func (f *Fetcher) Lookup(ctx context.Context, catalogID int) (TLEEntry, error) {
	entry, err := f.lookupCatalog(ctx, catalogID)
	if err == nil {
		metrics.RecordTLEFetch("catnr", "ok")
		return entry, nil
	}
	if ctx.Err() != nil {
		return TLEEntry{}, ctx.Err()
	}
	if errors.Is(err, ErrNotFound) {
		metrics.RecordTLEFetch("catnr", "not_found")
	} else {
		metrics.RecordTLEFetch("catnr", "error")
	}
	f.logger.Debug("catalog lookup failed, scanning group", "norad_id", catalogID, "group", f.cfg.Group, "error", err)

	group, gerr := f.groupEntries(ctx)
	if gerr != nil {
		metrics.RecordTLEFetch("group", "error")
		return TLEEntry{}, fmt.Errorf("NORAD %d: %w (group fallback: %v)", catalogID, err, gerr)
	}
	if e, ok := Find(group, catalogID); ok {
		metrics.RecordTLEFetch("group", "ok")
		return e, nil
	}
	metrics.RecordTLEFetch("group", "not_found")
	return TLEEntry{}, fmt.Errorf("NORAD %d: %w", catalogID, ErrNotFound)
}

func (f *Fetcher) lookupCatalog(ctx context.Context, catalogID int) (TLEEntry, error) {
	body, err := f.fetch(ctx, f.query("CATNR", strconv.Itoa(catalogID)))
	if err != nil {
		return TLEEntry{}, err
	}
	entries, err := Parse(bytes.NewReader(body), f.logger)
	if err != nil {
		return TLEEntry{}, err
	}
	if e, ok := Find(entries, catalogID); ok {
		return e, nil
	}
	return TLEEntry{}, ErrNotFound
}

// groupEntries returns the parsed group catalog, refetching it once it is
// older than groupTTL. A failed fetch is remembered for groupRetryAfter so
// the rest of the fleet does not wait out the same timeout.
func (f *Fetcher) groupEntries(ctx context.Context) ([]TLEEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if f.group != nil && now.Sub(f.groupTime) < groupTTL {
		return f.group, nil
	}
	if f.groupErr != nil && now.Sub(f.groupErrTime) < groupRetryAfter {
		return nil, f.groupErr
	}

	entries, body, err := f.fetchGroup(ctx)
	if err != nil {
		if ctx.Err() == nil {
			f.groupErr, f.groupErrTime = fmt.Errorf("group %s: %w", f.cfg.Group, err), now
			f.logger.Warn("group catalog fetch failed", "group", f.cfg.Group, "retry_after", groupRetryAfter.String(), "error", err)
			return nil, f.groupErr
		}
		return nil, err
	}
	f.groupErr = nil
	f.group, f.groupTime = entries, now
	f.logger.Info("group catalog fetched", "group", f.cfg.Group, "satellites", len(entries), "bytes", len(body))
	return entries, nil
}

func (f *Fetcher) fetchGroup(ctx context.Context) ([]TLEEntry, []byte, error) {
	body, err := f.fetch(ctx, f.query("GROUP", f.cfg.Group))
	if err != nil {
		return nil, nil, err
	}
	entries, err := Parse(bytes.NewReader(body), f.logger)
	if err != nil {
		return nil, nil, err
	}
	return entries, body, nil
}

func (f *Fetcher) query(key, value string) string {
	q := url.Values{}
	q.Set(key, value)
	q.Set("FORMAT", "TLE")
	return f.cfg.BaseURL + "?" + q.Encode()
}

// fetch performs one paced HTTP GET with a bounded body.
func (f *Fetcher) fetch(ctx context.Context, target string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("response from %s exceeds %d byte limit", target, f.cfg.MaxBodyBytes)
	}
	return body, nil
}
