package analysis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanda/askfin/internal/models"
)

func TestComputeOrFetchSingleFlight(t *testing.T) {
	c := NewResultCache()

	var calls int32
	fn := func() (*CacheEntry, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return &CacheEntry{Status: models.StatusOK, Subject: "x"}, nil
	}

	var wg sync.WaitGroup
	entries := make([]*CacheEntry, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := c.ComputeOrFetch(context.Background(), "fp", 0, fn)
			assert.NoError(t, err)
			entries[i] = entry
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, e := range entries {
		assert.Same(t, entries[0], e)
	}
}

func TestComputeOrFetchCachesAcrossCalls(t *testing.T) {
	c := NewResultCache()

	var calls int
	fn := func() (*CacheEntry, error) {
		calls++
		return &CacheEntry{Status: models.StatusOK}, nil
	}

	_, err := c.ComputeOrFetch(context.Background(), "fp", 0, fn)
	require.NoError(t, err)
	_, err = c.ComputeOrFetch(context.Background(), "fp", 0, fn)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Len())
}

func TestComputeOrFetchTTLExpiry(t *testing.T) {
	c := NewResultCache()
	now := time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	var calls int
	fn := func() (*CacheEntry, error) {
		calls++
		return &CacheEntry{Status: models.StatusOK}, nil
	}

	_, err := c.ComputeOrFetch(context.Background(), "fp", time.Hour, fn)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = c.ComputeOrFetch(context.Background(), "fp", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	now = now.Add(31 * time.Minute)
	_, err = c.ComputeOrFetch(context.Background(), "fp", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestComputeOrFetchDoesNotCacheErrors(t *testing.T) {
	c := NewResultCache()

	var calls int
	fn := func() (*CacheEntry, error) {
		calls++
		return &CacheEntry{Status: models.StatusError, Message: "down"}, nil
	}

	entry, err := c.ComputeOrFetch(context.Background(), "fp", 0, fn)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, entry.Status)

	_, err = c.ComputeOrFetch(context.Background(), "fp", 0, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func makeRecords(n int) []models.AnalysisRecord {
	records := make([]models.AnalysisRecord, n)
	for i := range records {
		records[i] = models.AnalysisRecord{Code: fmt.Sprintf("%06d", i), Value: float64(n - i)}
	}
	return records
}

func TestPaginate(t *testing.T) {
	records := makeRecords(45)

	page1, p := Paginate(records, 1, 20)
	assert.Len(t, page1, 20)
	assert.Equal(t, models.Pagination{Page: 1, TotalPages: 3, TotalItems: 45}, p)
	assert.Equal(t, "000000", page1[0].Code)

	page3, p := Paginate(records, 3, 20)
	assert.Len(t, page3, 5)
	assert.Equal(t, 3, p.Page)

	page4, p := Paginate(records, 4, 20)
	assert.Empty(t, page4)
	assert.Equal(t, models.Pagination{Page: 4, TotalPages: 3, TotalItems: 45}, p)
}

func TestPaginateDefaults(t *testing.T) {
	records := makeRecords(5)

	items, p := Paginate(records, 0, 0)
	assert.Len(t, items, 5)
	assert.Equal(t, models.Pagination{Page: 1, TotalPages: 1, TotalItems: 5}, p)

	items, p = Paginate(nil, 1, 20)
	assert.Empty(t, items)
	assert.Equal(t, models.Pagination{Page: 1, TotalPages: 0, TotalItems: 0}, p)
}
