package ledger

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// DefaultPageSize is the number of records fetched per page.
const DefaultPageSize = 20

// Feeder loads further pages into the cache on demand. At most one page
// request is in flight at a time.
type Feeder struct {
	api      service.LedgerAPI
	cache    *Cache
	pageSize int
	loading  atomic.Bool
}

// NewFeeder creates a feeder for cache.
func NewFeeder(api service.LedgerAPI, cache *Cache, pageSize int) *Feeder {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Feeder{api: api, cache: cache, pageSize: pageSize}
}

// Loading reports whether a page request is in flight.
func (f *Feeder) Loading() bool {
	return f.loading.Load()
}

// LoadMore fetches the next page and appends it to the window. It reports
// whether a page was appended. Calls made while a request is in flight, before
// the first page has loaded, or after the last page are dropped.
func (f *Feeder) LoadMore(ctx context.Context) (bool, error) {
	offset, hasMore, gen := f.cache.cursor()
	if !hasMore || offset == 0 {
		return false, nil
	}
	if !f.loading.CompareAndSwap(false, true) {
		return false, nil
	}
	defer f.loading.Store(false)

	// the cursor may have moved while we waited for the guard
	offset, hasMore, gen = f.cache.cursor()
	if !hasMore || offset == 0 {
		return false, nil
	}

	page, err := f.api.ListTransactions(ctx, f.pageSize, offset)
	if err != nil {
		common.LogWarn("Failed to load page", common.Fields{
			"offset": offset,
			"error":  err.Error(),
		})
		return false, fmt.Errorf("failed to load page at offset %d: %w", offset, err)
	}

	if !f.cache.appendPage(gen, f.pageSize, page) {
		common.LogDebug("Discarded stale page", common.Fields{"offset": offset})
		return false, nil
	}

	common.LogDebug("Loaded page", common.Fields{
		"offset":   offset,
		"count":    len(page.Transactions),
		"has_more": page.HasMore,
	})
	return true, nil
}
