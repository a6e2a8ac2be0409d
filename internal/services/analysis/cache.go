package analysis

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/humanda/askfin/internal/models"
)

// CacheEntry is one computed result set, cached before pagination so every
// page of the same query is served from one computation.
type CacheEntry struct {
	Fingerprint string
	Status      models.ResultStatus
	Subject     string
	Message     string
	Records     []models.AnalysisRecord
	Ambiguous   []models.InstrumentRef
	CreatedAt   time.Time
	TTL         time.Duration // 0 = no expiry within the process lifetime
}

func (e *CacheEntry) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CreatedAt) >= e.TTL
}

// ResultCache stores computed result sets keyed by intent fingerprint.
// Concurrent callers with the same fingerprint share one computation.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	group   singleflight.Group
	now     func() time.Time
}

// NewResultCache creates an empty cache
func NewResultCache() *ResultCache {
	return &ResultCache{
		entries: make(map[string]*CacheEntry),
		now:     time.Now,
	}
}

// ComputeOrFetch returns the cached entry for a fingerprint, or runs fn
// exactly once across concurrent callers and caches the outcome. Only ok
// and empty outcomes are cached; errors and error-status entries are
// recomputed on the next call.
func (c *ResultCache) ComputeOrFetch(ctx context.Context, fingerprint string, ttl time.Duration, fn func() (*CacheEntry, error)) (*CacheEntry, error) {
	if entry := c.lookup(fingerprint); entry != nil {
		return entry, nil
	}

	v, err, _ := c.group.Do(fingerprint, func() (interface{}, error) {
		// A concurrent caller may have populated the cache while this
		// caller was queued behind the flight.
		if entry := c.lookup(fingerprint); entry != nil {
			return entry, nil
		}

		entry, err := fn()
		if err != nil {
			return nil, err
		}

		entry.Fingerprint = fingerprint
		entry.CreatedAt = c.now()
		entry.TTL = ttl

		if entry.Status == models.StatusOK || entry.Status == models.StatusEmpty {
			c.store(entry)
		}
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CacheEntry), nil
}

func (c *ResultCache) lookup(fingerprint string) *CacheEntry {
	c.mu.RLock()
	entry, ok := c.entries[fingerprint]
	c.mu.RUnlock()

	if !ok {
		return nil
	}
	if entry.expired(c.now()) {
		c.mu.Lock()
		delete(c.entries, fingerprint)
		c.mu.Unlock()
		return nil
	}
	return entry
}

func (c *ResultCache) store(entry *CacheEntry) {
	c.mu.Lock()
	c.entries[entry.Fingerprint] = entry
	c.mu.Unlock()
}

// Len returns the number of cached entries
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Paginate slices records for one page. Page numbering starts at 1;
// out-of-range pages return no items but accurate totals.
func Paginate(records []models.AnalysisRecord, page, pageSize int) ([]models.AnalysisRecord, models.Pagination) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}

	total := len(records)
	totalPages := (total + pageSize - 1) / pageSize

	p := models.Pagination{
		Page:       page,
		TotalPages: totalPages,
		TotalItems: total,
	}

	start := (page - 1) * pageSize
	if start >= total {
		return nil, p
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return records[start:end], p
}
