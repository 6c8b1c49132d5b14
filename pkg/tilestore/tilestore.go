// Package tilestore composes the disk tile cache and an in-memory LRU of
// decoded tiles in front of a tileport.Fetcher, deduplicating concurrent
// requests for the same tile. The disk cache is checked first, with
// zero-byte files treated as invalid, falling back to the fetcher; results
// are decoded and held in a capacity-bounded, recency-ordered LRU.
package tilestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/asciimaps/asciimap/pkg/monitoring"
	"github.com/asciimaps/asciimap/pkg/tileport"
	"github.com/asciimaps/asciimap/pkg/tracing"
	"github.com/asciimaps/asciimap/pkg/vectortile"
)

// DefaultCapacity is the number of decoded tiles kept in memory.
const DefaultCapacity = 512

// Key identifies a tile by its slippy-map index.
type Key struct {
	Z, X, Y int
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Z, k.X, k.Y)
}

// Store is the tile cache: in-memory LRU of decoded tiles, backed by an
// on-disk cache of raw bytes, backed by a Fetcher.
type Store struct {
	fetcher    tileport.Fetcher
	diskDir    string
	decodeOpts vectortile.Options
	log        *slog.Logger

	lru   *lru.Cache[Key, vectortile.Tile]
	group singleflight.Group

	hits, misses int64
}

// Option configures a Store at construction.
type Option func(*Store)

// WithDecodeOptions overrides the vectortile.Options passed to Decode.
func WithDecodeOptions(opts vectortile.Options) Option {
	return func(s *Store) { s.decodeOpts = opts }
}

// WithLogger overrides the store's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New builds a Store. diskDir is the root of the on-disk cache
// (e.g. "$HOME/.asciimaps/cache"); capacity bounds the in-memory LRU.
func New(fetcher tileport.Fetcher, diskDir string, capacity int, opts ...Option) (*Store, error) {
	cache, err := lru.New[Key, vectortile.Tile](capacity)
	if err != nil {
		return nil, fmt.Errorf("tilestore: building LRU: %w", err)
	}
	s := &Store{
		fetcher:    fetcher,
		diskDir:    diskDir,
		decodeOpts: vectortile.DefaultOptions(),
		log:        slog.Default(),
		lru:        cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetDecodedTile returns the decoded tile for (z,x,y), fetching and caching
// it if necessary. A tile absent at the source decodes to an empty Tile
// with no error: missing map data is not a failure (spec §7).
func (s *Store) GetDecodedTile(ctx context.Context, z, x, y int) (vectortile.Tile, error) {
	ctx, span := tracing.StartTileFetchSpan(ctx, z, x, y)
	defer span.End()
	key := Key{Z: z, X: x, Y: y}

	if tile, ok := s.lru.Get(key); ok {
		s.hits++
		monitoring.RecordCacheHit(monitoring.CacheTypeTile)
		monitoring.UpdateCacheSize(monitoring.CacheTypeTile, s.lru.Len())
		tracing.SetAttributes(ctx, tracing.CacheAttributes(tracing.CacheTypeTile, true, key.String())...)
		return tile, nil
	}
	monitoring.RecordCacheMiss(monitoring.CacheTypeTile)
	tracing.SetAttributes(ctx, tracing.CacheAttributes(tracing.CacheTypeTile, false, key.String())...)

	tile, err, _ := s.group.Do(key.String(), func() (any, error) {
		raw, err := s.loadOrFetch(ctx, key)
		if err != nil {
			return nil, err
		}
		decoded := vectortile.Decode(raw, s.decodeOpts)
		s.lru.Add(key, decoded)
		return decoded, nil
	})
	monitoring.UpdateCacheSize(monitoring.CacheTypeTile, s.lru.Len())
	if err != nil {
		s.misses++
		tracing.RecordError(ctx, err)
		return nil, err
	}
	s.misses++
	return tile.(vectortile.Tile), nil
}

// loadOrFetch returns a tile's raw bytes, preferring the disk cache. A
// zero-byte cache file (a previous failed write) is treated as absent and
// refetched.
func (s *Store) loadOrFetch(ctx context.Context, key Key) ([]byte, error) {
	path := s.diskPath(key)

	if info, err := os.Stat(path); err == nil {
		if info.Size() == 0 {
			os.Remove(path)
		} else if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
	}

	data, ok, err := s.fetcher.Fetch(ctx, key.Z, key.X, key.Y)
	if err != nil {
		s.log.Warn("tile fetch failed", "tile", key, "error", err)
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	s.writeDiskCache(path, data)
	return data, nil
}

// writeDiskCache is best-effort: a failed write (e.g. read-only filesystem)
// only costs a future disk-cache hit, never aborts the render.
func (s *Store) writeDiskCache(path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.log.Warn("tile cache mkdir failed", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Warn("tile cache write failed", "path", path, "error", err)
	}
}

// diskPath lays out the cache as {z}/{x}/{y}.mvt under the store's disk
// directory.
func (s *Store) diskPath(key Key) string {
	return filepath.Join(s.diskDir, fmt.Sprint(key.Z), fmt.Sprint(key.X), fmt.Sprintf("%d.mvt", key.Y))
}

// Size returns the number of tiles currently held in the in-memory LRU.
func (s *Store) Size() int {
	return s.lru.Len()
}

// HitRatio returns the fraction of GetDecodedTile calls served from the
// in-memory LRU since the store was created.
func (s *Store) HitRatio() float64 {
	total := s.hits + s.misses
	if total == 0 {
		return 0
	}
	return float64(s.hits) / float64(total)
}

// DefaultCacheDir returns the default on-disk cache root under the user's
// home directory, matching the original project's layout.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".asciimaps", "cache")
	}
	return filepath.Join(home, ".asciimaps", "cache")
}
