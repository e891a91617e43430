// Package cache maintains a sparse, paginated in-memory view of the
// local transcription records for the current search scope. The UI's
// virtualized list asks for pages by absolute offset; pages are fetched
// lazily and at most once per scope.
package cache

import (
	"context"
	"sync"

	apperrors "github.com/voxnote/voxnote/backend/internal/errors"
	"github.com/voxnote/voxnote/backend/internal/models"
	"github.com/voxnote/voxnote/backend/internal/store"
)

// DefaultPageSize is the number of records materialized per page fetch.
const DefaultPageSize = 50

// Cache is the paginated record view. All methods are safe for
// concurrent use; page fetches for distinct offsets run concurrently.
type Cache struct {
	store    store.Pager
	pageSize int

	mu       sync.Mutex
	query    string
	scope    uint64 // bumped on every reset; stale fetches compare against it
	items    map[int]*models.TranscriptionRecord
	total    int
	loaded   map[int]struct{}
	inFlight map[int]struct{}
}

// New creates an empty cache over the given pager. pageSize <= 0 selects
// DefaultPageSize.
func New(pager store.Pager, pageSize int) *Cache {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Cache{
		store:    pager,
		pageSize: pageSize,
		items:    make(map[int]*models.TranscriptionRecord),
		loaded:   make(map[int]struct{}),
		inFlight: make(map[int]struct{}),
	}
}

// SetSearchQuery replaces the search scope. All cached state is dropped
// atomically; the total count and first page are re-fetched for the new
// scope. In-flight fetches for the old scope discard their results when
// they complete.
func (c *Cache) SetSearchQuery(ctx context.Context, query string) error {
	c.mu.Lock()
	c.scope++
	token := c.scope
	c.query = query
	c.items = make(map[int]*models.TranscriptionRecord)
	c.total = 0
	c.loaded = make(map[int]struct{})
	c.inFlight = make(map[int]struct{})
	c.mu.Unlock()

	count, err := c.store.Count(ctx, query)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCacheFetch, "count fetch failed", err)
	}

	c.mu.Lock()
	if c.scope != token {
		// A newer scope replaced this one while counting; drop the result.
		c.mu.Unlock()
		return nil
	}
	c.total = count
	c.mu.Unlock()

	return c.EnsurePage(ctx, 0)
}

// EnsurePage materializes the page starting at the given absolute offset.
// It is a no-op when the page is already loaded or in flight, or when the
// offset lies past the known end of the scope. A fetch failure leaves the
// offset eligible for a later retry.
func (c *Cache) EnsurePage(ctx context.Context, offset int) error {
	c.mu.Lock()
	if offset < 0 {
		c.mu.Unlock()
		return nil
	}
	if _, ok := c.loaded[offset]; ok {
		c.mu.Unlock()
		return nil
	}
	if _, ok := c.inFlight[offset]; ok {
		c.mu.Unlock()
		return nil
	}
	// total == 0 also covers the bootstrap state where the count is not
	// known yet; only a known, positive total guards the upper bound.
	if c.total > 0 && offset >= c.total {
		c.mu.Unlock()
		return nil
	}
	token := c.scope
	query := c.query
	c.inFlight[offset] = struct{}{}
	c.mu.Unlock()

	records, err := c.store.ListPage(ctx, c.pageSize, offset, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scope != token {
		// The scope was reset while fetching; the reset already replaced
		// the bookkeeping sets, so nothing to clean up.
		return nil
	}

	delete(c.inFlight, offset)

	if err != nil {
		return apperrors.Wrap(apperrors.ErrCacheFetch, "page fetch failed", err)
	}

	for i, rec := range records {
		c.items[offset+i] = rec
	}
	c.loaded[offset] = struct{}{}
	return nil
}

// Invalidate drops all cached pages and reloads the current scope. Used
// after mutations (delete, import) that can shift offsets.
func (c *Cache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	query := c.query
	c.mu.Unlock()
	return c.SetSearchQuery(ctx, query)
}

// Item returns the record at the given absolute offset, if materialized.
func (c *Cache) Item(offset int) (*models.TranscriptionRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.items[offset]
	return rec, ok
}

// Total returns the record count for the current scope.
func (c *Cache) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Query returns the current search scope.
func (c *Cache) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// PageSize returns the configured page size.
func (c *Cache) PageSize() int {
	return c.pageSize
}

// PageLoaded reports whether the page at offset has been materialized.
func (c *Cache) PageLoaded(offset int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.loaded[offset]
	return ok
}
