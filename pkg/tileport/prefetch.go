package tileport

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TileKey identifies one tile by its slippy-map index.
type TileKey struct {
	Z, X, Y int
}

// Prefetcher runs background, best-effort tile fetches ahead of a render
// call that will likely need them soon (e.g. tiles just outside the current
// viewport). It never returns an error: a failed prefetch just means the
// tile gets fetched synchronously later, on the render path that actually
// needs it. Request does block while every worker is busy (see Request).
type Prefetcher struct {
	fetch func(ctx context.Context, key TileKey)
	log   *slog.Logger

	mu      sync.Mutex
	pending map[TileKey]bool

	group   *errgroup.Group
	groupCtx context.Context
}

// NewPrefetcher builds a Prefetcher with the given worker concurrency. fetch
// is called once per distinct key and should itself store the result
// wherever the renderer will look for it (the tile store's cache).
func NewPrefetcher(ctx context.Context, workers int, fetch func(ctx context.Context, key TileKey), log *slog.Logger) *Prefetcher {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	if log == nil {
		log = slog.Default()
	}
	return &Prefetcher{
		fetch:    fetch,
		log:      log,
		pending:  make(map[TileKey]bool),
		group:    group,
		groupCtx: groupCtx,
	}
}

// Request schedules a background fetch for key if one isn't already pending.
// It returns at once for an already-pending key or when a worker slot is
// free; when all workers are busy it blocks until one of them finishes.
func (p *Prefetcher) Request(key TileKey) {
	p.mu.Lock()
	if p.pending[key] {
		p.mu.Unlock()
		return
	}
	p.pending[key] = true
	p.mu.Unlock()

	p.group.Go(func() error {
		defer func() {
			p.mu.Lock()
			delete(p.pending, key)
			p.mu.Unlock()
		}()

		defer func() {
			if r := recover(); r != nil {
				p.log.Error("prefetch worker panicked", "key", key, "recover", r)
			}
		}()

		p.fetch(p.groupCtx, key)
		return nil
	})
}

// RequestAll schedules a batch of tiles, e.g. the ring just outside the
// current viewport.
func (p *Prefetcher) RequestAll(keys []TileKey) {
	for _, k := range keys {
		p.Request(k)
	}
}

// Pending reports whether key currently has an in-flight fetch.
func (p *Prefetcher) Pending(key TileKey) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending[key]
}

// Wait blocks until all currently scheduled prefetches complete. Tests and
// graceful shutdown use this; the render path never does. Request must not
// be called again after Wait returns.
func (p *Prefetcher) Wait() {
	_ = p.group.Wait()
}
