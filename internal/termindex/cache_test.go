package termindex

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takaryo1010/termlink/internal/ports"
)

// countingSource records how many times the whitelist was loaded.
type countingSource struct {
	mu      sync.Mutex
	entries []ports.Entry
	aliases []ports.Alias
	err     error
	loads   atomic.Int32
}

func (s *countingSource) LoadWhitelist(_ context.Context) ([]ports.Entry, []ports.Alias, error) {
	s.loads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries, s.aliases, s.err
}

func (s *countingSource) set(entries []ports.Entry, aliases []ports.Alias, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries, s.aliases, s.err = entries, aliases, err
}

func TestCache_GetReusesSnapshot(t *testing.T) {
	src := &countingSource{entries: testEntries()}
	c := NewCache(src)

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	second, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), src.loads.Load())
	assert.Equal(t, c.Version(), first.Version)
}

func TestCache_InvalidateRebuilds(t *testing.T) {
	src := &countingSource{entries: testEntries()}
	c := NewCache(src)

	first, err := c.Get(context.Background())
	require.NoError(t, err)

	src.set([]ports.Entry{{Term: "quantum", Title: "Quantum Mechanics"}}, nil, nil)
	c.Invalidate()

	second, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Greater(t, second.Version, first.Version)

	_, ok := second.Lookup("quantum")
	assert.True(t, ok)
	_, ok = first.Lookup("quantum")
	assert.False(t, ok, "published snapshots are immutable")
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	src := &countingSource{entries: testEntries()}
	c := NewCache(src, WithTTL(time.Minute), WithClock(clock))

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.loads.Load())

	now = now.Add(time.Minute)
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.loads.Load())
}

func TestCache_BuildErrorSurfaces(t *testing.T) {
	src := &countingSource{entries: []ports.Entry{
		{Term: "Go", Title: "Go"},
		{Term: "GO", Title: "Go again"},
	}}
	c := NewCache(src)

	snap, err := c.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Nil(t, snap)
}

func TestCache_LoadErrorSurfaces(t *testing.T) {
	boom := errors.New("connection refused")
	src := &countingSource{err: boom}
	c := NewCache(src)

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCache_ConcurrentGet(t *testing.T) {
	src := &countingSource{entries: testEntries()}
	c := NewCache(src, WithTTL(0))

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, 32)
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := c.Get(context.Background())
			assert.NoError(t, err)
			snaps[i] = snap
		}(i)
	}
	wg.Wait()

	for _, snap := range snaps {
		require.NotNil(t, snap)
		assert.Equal(t, 3, snap.Len())
	}
	assert.LessOrEqual(t, src.loads.Load(), int32(len(snaps)))
}

func TestStaticSource(t *testing.T) {
	c := NewCache(StaticSource{Entries: testEntries()})
	snap, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
}
