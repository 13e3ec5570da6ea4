// Package cache holds the authoritative map from directory path to listing
// state. It is the only structure shared between the UI loop and the load
// workers.
package cache

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/kk-code-lab/millr/internal/fs"
	"github.com/kk-code-lab/millr/internal/logging"
	"github.com/kk-code-lab/millr/internal/pool"
)

// DefaultCapacity is used when no positive capacity is configured.
const DefaultCapacity = 256

// Dispatcher schedules background loads. Submit is called with the cache
// lock held and must not call back into the cache synchronously; Cancel is
// called without the lock.
type Dispatcher interface {
	Submit(path string, token uint64)
	Cancel(path string)
}

// Stats describes the cache and its worker pool.
type Stats struct {
	Listings int
	Pinned   int
	Workers  int // 0 when loads go through an external dispatcher
	Pending  int
}

// Options configures a Cache with its own worker pool.
type Options struct {
	Capacity int
	Workers  int
	Load     pool.LoadFunc
}

type record struct {
	listing  *Listing
	loadGen  uint64 // token of the newest dispatched load
	inflight bool
	tick     uint64 // last access, for LRU
	// lastGood keeps the entries of a listing that later failed so a
	// successful retry can put the cursor back where it was.
	lastGood *Listing
}

// Cache maps directory paths to Listing snapshots.
type Cache struct {
	mu         sync.Mutex
	records    map[string]*record
	pins       map[string]map[string]struct{} // owner -> paths
	capacity   int
	tick       uint64
	nextToken  uint64
	dispatcher Dispatcher
	owned      *pool.Pool
	notify     chan struct{}
	now        func() time.Time
}

// New creates a cache backed by a fresh worker pool.
func New(opts Options) *Cache {
	c := newCache(opts.Capacity)
	p := pool.New(opts.Workers, opts.Load, c)
	c.dispatcher = p
	c.owned = p
	return c
}

// NewWithDispatcher creates a cache that schedules loads through d.
func NewWithDispatcher(capacity int, d Dispatcher) *Cache {
	c := newCache(capacity)
	c.dispatcher = d
	return c
}

func newCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		records:  make(map[string]*record),
		pins:     make(map[string]map[string]struct{}),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Close stops the owned worker pool, if any.
func (c *Cache) Close() error {
	if c.owned == nil {
		return nil
	}
	return c.owned.Close()
}

// Notify returns a channel that receives a value whenever a listing changed
// in a way the UI should redraw. Wake-ups coalesce.
func (c *Cache) Notify() <-chan struct{} {
	return c.notify
}

// GetOrLoad returns the current snapshot for path without blocking on I/O.
// A path seen for the first time is inserted as Loading and a load is
// dispatched; a Loading or Stale path with no load in flight (for example
// after an abandoned load) is dispatched again.
func (c *Cache) GetOrLoad(path string) *Listing {
	path = filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[path]
	if !ok {
		rec = &record{listing: &Listing{Path: path, Status: StatusLoading}}
		c.records[path] = rec
		c.dispatchLocked(path, rec)
		c.touchLocked(rec)
		c.evictLocked()
		return rec.listing
	}

	if !rec.inflight && (rec.listing.Status == StatusLoading || rec.listing.Status == StatusStale) {
		c.dispatchLocked(path, rec)
	}
	c.touchLocked(rec)
	return rec.listing
}

// Invalidate marks a cached path Stale and dispatches a refresh. Unknown
// paths are ignored. It is safe to call from any goroutine.
func (c *Cache) Invalidate(path string) bool {
	path = filepath.Clean(path)

	c.mu.Lock()
	rec, ok := c.records[path]
	if !ok {
		c.mu.Unlock()
		return false
	}

	switch rec.listing.Status {
	case StatusReady, StatusFailed:
		next := rec.listing.clone()
		next.Status = StatusStale
		next.Err = nil
		rec.listing = next
	}
	c.dispatchLocked(path, rec)
	c.mu.Unlock()

	logging.Debug("listing invalidated", logging.String("path", path))
	c.wake()
	return true
}

// ApplyResult publishes the outcome of a load. Results stamped with any
// token other than the newest dispatched one are obsolete and dropped.
func (c *Cache) ApplyResult(path string, token uint64, outcome pool.Outcome) bool {
	c.mu.Lock()
	rec, ok := c.records[path]
	if !ok {
		c.mu.Unlock()
		logging.Debug("result for evicted path dropped", logging.String("path", path))
		return false
	}
	if token != rec.loadGen {
		current := rec.loadGen
		c.mu.Unlock()
		logging.Debug("obsolete result dropped",
			logging.String("path", path),
			logging.Uint64("token", token),
			logging.Uint64("current", current),
		)
		return false
	}

	rec.inflight = false
	if outcome.Canceled {
		c.mu.Unlock()
		return false
	}

	prev := rec.listing
	next := &Listing{
		Path:       path,
		Generation: prev.Generation + 1,
		LoadedAt:   c.now(),
	}
	if outcome.Err != nil {
		next.Status = StatusFailed
		next.Err = asLoadError(path, outcome.Err)
		if len(prev.Entries) > 0 {
			rec.lastGood = prev
		}
	} else {
		base := prev
		if rec.lastGood != nil {
			base = rec.lastGood
		}
		next.Status = StatusReady
		next.Entries = outcome.Entries
		next.Selected = remapSelection(base.Entries, base.Selected, outcome.Entries)
		rec.lastGood = nil
	}
	rec.listing = next
	c.mu.Unlock()

	if next.Err != nil {
		logging.Info("directory load failed", logging.String("path", path), logging.Err(next.Err))
	}
	c.wake()
	return true
}

// SetSelected records the cursor position for path, clamped to its entries.
func (c *Cache) SetSelected(path string, index int) (*Listing, bool) {
	path = filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[path]
	if !ok {
		return nil, false
	}
	index = clampIndex(index, len(rec.listing.Entries))
	if index != rec.listing.Selected {
		next := rec.listing.clone()
		next.Selected = index
		rec.listing = next
	}
	c.touchLocked(rec)
	return rec.listing, true
}

// SelectName moves the cursor of path onto the entry called name.
func (c *Cache) SelectName(path, name string) (*Listing, bool) {
	path = filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[path]
	if !ok {
		return nil, false
	}
	idx := rec.listing.IndexOf(name)
	if idx < 0 {
		return rec.listing, false
	}
	if idx != rec.listing.Selected {
		next := rec.listing.clone()
		next.Selected = idx
		rec.listing = next
	}
	return rec.listing, true
}

// Pin replaces the set of paths owner needs kept. Eviction keeps the union
// of every owner's paths.
func (c *Cache) Pin(owner string, paths []string) {
	pinned := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		pinned[filepath.Clean(p)] = struct{}{}
	}

	c.mu.Lock()
	c.pins[owner] = pinned
	c.mu.Unlock()
}

// Unpin forgets owner's pinned paths.
func (c *Cache) Unpin(owner string) {
	c.mu.Lock()
	delete(c.pins, owner)
	c.mu.Unlock()
}

// Abandon tells the cache one viewer no longer waits for path's first load.
// The in-flight load is cancelled on a best-effort basis unless some owner
// still pins path; refreshes of listings that already have entries are left
// running.
func (c *Cache) Abandon(path string) {
	path = filepath.Clean(path)

	c.mu.Lock()
	rec, ok := c.records[path]
	cancel := ok && rec.inflight && rec.listing.Status == StatusLoading && !c.pinnedLocked(path)
	c.mu.Unlock()

	if cancel {
		c.dispatcher.Cancel(path)
	}
}

// EvictIfNeeded drops least recently used listings above capacity and
// returns how many were removed. Pinned paths and paths with a load in
// flight are never evicted.
func (c *Cache) EvictIfNeeded() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictLocked()
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Stats reports cache occupancy and, for an owned pool, its load backlog.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	st := Stats{Listings: len(c.records)}
	seen := make(map[string]struct{})
	for _, paths := range c.pins {
		for p := range paths {
			seen[p] = struct{}{}
		}
	}
	st.Pinned = len(seen)
	c.mu.Unlock()

	if c.owned != nil {
		st.Workers = c.owned.Workers()
		st.Pending = c.owned.Pending()
	}
	return st
}

func (c *Cache) dispatchLocked(path string, rec *record) {
	c.nextToken++
	rec.loadGen = c.nextToken
	rec.inflight = true
	logging.Debug("load dispatched", logging.String("path", path), logging.Uint64("token", rec.loadGen))
	c.dispatcher.Submit(path, rec.loadGen)
}

func (c *Cache) touchLocked(rec *record) {
	c.tick++
	rec.tick = c.tick
}

func (c *Cache) evictLocked() int {
	removed := 0
	for len(c.records) > c.capacity {
		victim := ""
		var oldest uint64
		for path, rec := range c.records {
			if rec.inflight {
				continue
			}
			if c.pinnedLocked(path) {
				continue
			}
			if victim == "" || rec.tick < oldest {
				victim = path
				oldest = rec.tick
			}
		}
		if victim == "" {
			break
		}
		delete(c.records, victim)
		removed++
		logging.Debug("listing evicted", logging.String("path", victim))
	}
	return removed
}

func (c *Cache) pinnedLocked(path string) bool {
	for _, paths := range c.pins {
		if _, ok := paths[path]; ok {
			return true
		}
	}
	return false
}

func (c *Cache) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func asLoadError(path string, err error) error {
	var loadErr *fs.LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	return &fs.LoadError{Path: path, Reason: fs.ReasonOf(err), Err: err}
}
