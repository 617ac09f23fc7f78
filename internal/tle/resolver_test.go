package tle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	entries map[int]TLEEntry
	err     error
	calls   int
}

func (s *stubProvider) Lookup(ctx context.Context, id int) (TLEEntry, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return TLEEntry{}, err
	}
	if s.err != nil {
		return TLEEntry{}, s.err
	}
	if e, ok := s.entries[id]; ok {
		return e, nil
	}
	return TLEEntry{}, fmt.Errorf("NORAD %d: %w", id, ErrNotFound)
}

func mustEntry(t *testing.T, name, l1, l2 string) TLEEntry {
	t.Helper()
	e, err := ParseLines(name, l1, l2)
	require.NoError(t, err)
	return e
}

func TestResolverLiveWritesCache(t *testing.T) {
	bw3 := mustEntry(t, bw3Name, bw3Line1, bw3Line2)
	cache := NewCache(t.TempDir(), 5)
	r := NewResolver(&stubProvider{entries: map[int]TLEEntry{53807: bw3}}, cache, testLogger)

	got, err := r.Resolve(context.Background(), 53807, "BLUEWALKER 3")
	require.NoError(t, err)
	assert.Equal(t, SourceLive, got.Source)
	assert.Equal(t, bw3, got.Entry)

	data, _, err := cache.LoadLatest(53807)
	require.NoError(t, err)
	assert.Equal(t, bw3.Format(), string(data))
}

func TestResolverFallsBackToCache(t *testing.T) {
	bw3 := mustEntry(t, bw3Name, bw3Line1, bw3Line2)
	cache := NewCache(t.TempDir(), 5)
	require.NoError(t, cache.Write(53807, []byte(bw3.Format()), time.Now()))

	r := NewResolver(&stubProvider{err: errors.New("connection refused")}, cache, testLogger)
	got, err := r.Resolve(context.Background(), 53807, "BLUEWALKER 3")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, got.Source)
	assert.Equal(t, bw3, got.Entry)
}

func TestResolverFallsBackToSimulated(t *testing.T) {
	for _, r := range []*Resolver{
		NewResolver(&stubProvider{}, NewCache(t.TempDir(), 5), testLogger),
		NewResolver(nil, nil, testLogger),
	} {
		got, err := r.Resolve(context.Background(), 67232, "BLUEBIRD-6")
		require.NoError(t, err)
		assert.Equal(t, SourceSimulated, got.Source)
		assert.Equal(t, Simulated(67232, "BLUEBIRD-6"), got.Entry)
	}
}

func TestResolverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(&stubProvider{}, nil, testLogger)
	_, err := r.Resolve(ctx, 53807, "BLUEWALKER 3")
	assert.ErrorIs(t, err, context.Canceled)
}
