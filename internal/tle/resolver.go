package tle

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/metrics"
)

// Resolver always produces elements for a satellite: from the live provider
// when it answers, else from the newest cached copy, else simulated.
type Resolver struct {
	live   Provider // nil disables network lookups
	cache  *Cache   // nil disables the disk fallback
	logger *slog.Logger
	now    func() time.Time
}

// NewResolver builds a Resolver; live and cache may each be nil.
func NewResolver(live Provider, cache *Cache, logger *slog.Logger) *Resolver {
	return &Resolver{live: live, cache: cache, logger: logger, now: time.Now}
}

// Resolve returns the element set for catalogID. The only error it reports
// is cancellation of ctx.
func (r *Resolver) Resolve(ctx context.Context, catalogID int, name string) (Resolved, error) {
	if r.live != nil {
		entry, err := r.live.Lookup(ctx, catalogID)
		if err == nil {
			r.store(entry)
			metrics.RecordTLEResolved(string(SourceLive))
			return Resolved{Entry: entry, Source: SourceLive}, nil
		}
		if ctx.Err() != nil {
			return Resolved{}, ctx.Err()
		}
		r.logger.Warn("live element lookup failed", "norad_id", catalogID, "name", name, "error", err)
	}

	if entry, ok := r.cached(catalogID); ok {
		metrics.RecordTLEResolved(string(SourceCache))
		return Resolved{Entry: entry, Source: SourceCache}, nil
	}

	r.logger.Warn("using simulated elements", "norad_id", catalogID, "name", name)
	metrics.RecordTLEResolved(string(SourceSimulated))
	return Resolved{Entry: Simulated(catalogID, name), Source: SourceSimulated}, nil
}

func (r *Resolver) store(entry TLEEntry) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Write(entry.NORADID, []byte(entry.Format()), r.now()); err != nil {
		r.logger.Warn("caching element set failed", "norad_id", entry.NORADID, "error", err)
	}
}

func (r *Resolver) cached(catalogID int) (TLEEntry, bool) {
	if r.cache == nil {
		return TLEEntry{}, false
	}
	data, ts, err := r.cache.LoadLatest(catalogID)
	if err != nil {
		r.logger.Debug("no usable cache entry", "norad_id", catalogID, "error", err)
		return TLEEntry{}, false
	}
	entries, err := Parse(bytes.NewReader(data), r.logger)
	if err != nil {
		r.logger.Warn("parsing cached element set failed", "norad_id", catalogID, "error", err)
		return TLEEntry{}, false
	}
	entry, ok := Find(entries, catalogID)
	if ok {
		r.logger.Info("using cached elements", "norad_id", catalogID, "cached_at", ts.Format(time.RFC3339))
	}
	return entry, ok
}
