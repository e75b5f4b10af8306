// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cargomap/internal/geo"
	"github.com/tomtom215/cargomap/internal/models"
)

// stubFetcher returns a configurable payload and counts calls.
type stubFetcher struct {
	mu      sync.Mutex
	records []models.ContainerRecord
	err     error
	calls   atomic.Int32
}

func (f *stubFetcher) FetchAll(context.Context) ([]models.ContainerRecord, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, f.err
}

func (f *stubFetcher) set(records []models.ContainerRecord, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records, f.err = records, err
}

func recs(ids ...int64) []models.ContainerRecord {
	out := make([]models.ContainerRecord, len(ids))
	for i, id := range ids {
		out[i] = models.ContainerRecord{ID: id}
		out[i].Metadata.Number = "CONT" + string(rune('A'+i))
	}
	return out
}

func newFileCache(t *testing.T, f Fetcher) (*Cache, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := New(store, f, Options{Now: func() time.Time { return fixed }})
	return c, filepath.Join(dir, DefaultKey)
}

func TestRead_EmptyCache(t *testing.T) {
	t.Parallel()

	c, _ := newFileCache(t, &stubFetcher{})
	_, err := c.Read(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyCache))
	assert.Equal(t, StateEmpty, c.Status(context.Background()).State)
}

func TestRead_UnparseableIsEmpty(t *testing.T) {
	t.Parallel()

	c, path := newFileCache(t, &stubFetcher{})
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := c.Read(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyCache))
}

func TestRead_LegacyArrayFormat(t *testing.T) {
	t.Parallel()

	c, path := newFileCache(t, &stubFetcher{})
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 9}, {"id": 4}]`), 0o600))

	snap, err := c.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, int64(4), snap.Containers[0].ID)
	assert.True(t, snap.WrittenAt.IsZero())
}

func TestRefresh_Success(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{records: recs(30, 10, 20)}
	c, path := newFileCache(t, f)

	res := c.Refresh(context.Background())
	require.True(t, res.Success, "err: %v", res.Err)
	assert.Equal(t, 3, res.Count)

	snap, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, []int64{snap.Containers[0].ID, snap.Containers[1].ID, snap.Containers[2].ID})
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), snap.WrittenAt)
	assert.NotEmpty(t, snap.Generation)

	rec, ok := snap.Find(20)
	require.True(t, ok)
	assert.Equal(t, int64(20), rec.ID)
	_, ok = snap.Find(15)
	assert.False(t, ok)

	byNumber, ok := snap.FindByNumber(rec.Metadata.Number)
	require.True(t, ok)
	assert.Equal(t, int64(20), byNumber.ID)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"containers\"", "snapshot is written indented")

	st := c.Status(context.Background())
	assert.Equal(t, StateValid, st.State)
	assert.Equal(t, 3, st.RecordCount)
}

func TestRefresh_EmptyPayloadKeepsSnapshot(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{records: recs(1, 2)}
	c, path := newFileCache(t, f)
	require.True(t, c.Refresh(context.Background()).Success)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	f.set([]models.ContainerRecord{}, nil)
	res := c.Refresh(context.Background())
	assert.False(t, res.Success)
	assert.True(t, errors.Is(res.Err, ErrEmptyPayload))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "snapshot must be byte-identical after a failed refresh")
}

func TestRefresh_UpstreamFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{records: recs(1, 2)}
	c, path := newFileCache(t, f)
	require.True(t, c.Refresh(context.Background()).Success)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	f.set(nil, errors.New("request failed with status 503"))
	res := c.Refresh(context.Background())
	assert.True(t, errors.Is(res.Err, ErrUpstreamUnavailable))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	snap, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())

	st := c.Status(context.Background())
	assert.Equal(t, StateValidWithError, st.State)
	assert.Contains(t, st.LastError, "503")

	f.set(recs(1, 2, 3), nil)
	require.True(t, c.Refresh(context.Background()).Success)
	assert.Equal(t, StateValid, c.Status(context.Background()).State)
}

func TestRefresh_FailureOnEmptyCacheStaysEmpty(t *testing.T) {
	t.Parallel()

	c, _ := newFileCache(t, &stubFetcher{err: errors.New("dial tcp: refused")})
	res := c.Refresh(context.Background())
	assert.True(t, errors.Is(res.Err, ErrUpstreamUnavailable))
	assert.Equal(t, StateEmpty, c.Status(context.Background()).State)
}

func TestReadOrRefresh(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{records: recs(5)}
	c, _ := newFileCache(t, f)

	snap, err := c.ReadOrRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, int32(1), f.calls.Load())

	_, err = c.ReadOrRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load(), "a populated cache must not refetch")

	empty, _ := newFileCache(t, &stubFetcher{records: []models.ContainerRecord{}})
	_, err = empty.ReadOrRefresh(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyCache))
	assert.True(t, errors.Is(err, ErrEmptyPayload))
}

func TestRead_MemoizesByGeneration(t *testing.T) {
	t.Parallel()

	c, _ := newFileCache(t, &stubFetcher{records: recs(1)})
	require.True(t, c.Refresh(context.Background()).Success)

	a, err := c.Read(context.Background())
	require.NoError(t, err)
	b, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.Same(t, a, b)
}

// blockingFetcher parks inside FetchAll until released.
type blockingFetcher struct {
	entered chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) FetchAll(ctx context.Context) ([]models.ContainerRecord, error) {
	close(f.entered)
	select {
	case <-f.release:
		return recs(1), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestStatus_Refreshing(t *testing.T) {
	t.Parallel()

	f := &blockingFetcher{entered: make(chan struct{}), release: make(chan struct{})}
	c, _ := newFileCache(t, f)

	done := make(chan Result, 1)
	go func() { done <- c.Refresh(context.Background()) }()

	<-f.entered
	assert.Equal(t, StateRefreshing, c.Status(context.Background()).State)
	close(f.release)

	res := <-done
	require.True(t, res.Success)
	assert.Equal(t, StateValid, c.Status(context.Background()).State)
}

func TestConcurrentReadsNeverSeePartialSnapshot(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{records: recs(1, 2, 3)}
	c, _ := newFileCache(t, f)
	require.True(t, c.Refresh(context.Background()).Success)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				ids := make([]int64, 0, n+i%5+1)
				for j := 0; j < cap(ids); j++ {
					ids = append(ids, int64(j+1))
				}
				f.set(recs(ids...), nil)
				c.Refresh(ctx)
			}
		}(w)
	}

	var readErrs atomic.Int32
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap, err := c.Read(ctx)
				if err != nil || snap.Len() == 0 {
					readErrs.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, readErrs.Load())
}

func TestCache_BadgerBackend(t *testing.T) {
	t.Parallel()

	store, err := NewInMemoryBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := New(store, &stubFetcher{records: recs(2, 1)}, Options{})
	require.True(t, c.Refresh(context.Background()).Success)

	snap, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Containers[0].ID)
}

func TestJourneyCache(t *testing.T) {
	t.Parallel()

	jc := NewJourneyCache(2)
	j := geo.Journey{LegIndex: 1}

	_, ok := jc.Get("g1", 1)
	assert.False(t, ok)

	jc.Add("g1", 1, j)
	jc.Add("g1", 2, j)
	_, ok = jc.Get("g1", 1) // 1 becomes most recent
	assert.True(t, ok)

	jc.Add("g1", 3, j) // evicts 2
	_, ok = jc.Get("g1", 2)
	assert.False(t, ok)
	assert.Equal(t, 2, jc.Len())

	_, ok = jc.Get("g2", 1)
	assert.False(t, ok, "entries are scoped to a generation")

	computed := 0
	got := jc.GetOrCompute("g2", 7, func() geo.Journey { computed++; return geo.Journey{LegIndex: 4} })
	assert.Equal(t, 4, got.LegIndex)
	jc.GetOrCompute("g2", 7, func() geo.Journey { computed++; return geo.Journey{} })
	assert.Equal(t, 1, computed)

	hits, misses := jc.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(4), misses)
}
