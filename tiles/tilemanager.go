package tiles

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/olablt/gio-maps/tiles/worker"
	"github.com/sirupsen/logrus"
)

type TileProvider interface {
	GetTile(ctx context.Context, tile Tile) (image.Image, error)
}

// TileManager serves tiles without blocking the caller: cached tiles are
// returned directly, missing ones are fetched on the worker pool while the
// fallback provider fills the gap.
type TileManager struct {
	mu        sync.Mutex
	provider  TileProvider
	fallback  TileProvider
	cache     *ImageCache
	fallbacks *ImageCache
	loading   map[string]bool
	failed    map[string]bool
	gen       uint64

	pool   *worker.Pool
	onLoad func()
	track  func() (done func())
	log    logrus.FieldLogger
}

func NewTileManager(provider, fallback TileProvider, pool *worker.Pool, cacheSize int, log logrus.FieldLogger) (*TileManager, error) {
	cache, err := NewImageCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("tile cache: %w", err)
	}
	fallbacks, err := NewImageCache(cacheSize / 4)
	if err != nil {
		return nil, fmt.Errorf("fallback cache: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TileManager{
		provider:  provider,
		fallback:  fallback,
		cache:     cache,
		fallbacks: fallbacks,
		loading:   make(map[string]bool),
		failed:    make(map[string]bool),
		pool:      pool,
		log:       log.WithField("component", "tiles"),
	}, nil
}

// SetOnLoadCallback registers fn to run after each tile arrives.
func (tm *TileManager) SetOnLoadCallback(fn func()) {
	tm.mu.Lock()
	tm.onLoad = fn
	tm.mu.Unlock()
}

// SetActivityHook registers a hook called when a fetch starts; the func it
// returns is called when that fetch ends.
func (tm *TileManager) SetActivityHook(fn func() (done func())) {
	tm.mu.Lock()
	tm.track = fn
	tm.mu.Unlock()
}

// SetProvider swaps the tile source and drops everything loaded from the old one.
func (tm *TileManager) SetProvider(provider, fallback TileProvider) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.provider = provider
	tm.fallback = fallback
	tm.gen++
	tm.loading = make(map[string]bool)
	tm.failed = make(map[string]bool)
	tm.cache.Clear()
	tm.fallbacks.Clear()
}

// GetTileKey returns a unique string key for a tile
func GetTileKey(tile Tile) string {
	return fmt.Sprintf("%d/%d/%d", tile.Zoom, tile.X, tile.Y)
}

// GetTile returns the tile image if cached (ok is true), otherwise schedules
// a fetch and returns the fallback tile. img is nil if neither is available.
func (tm *TileManager) GetTile(ctx context.Context, tile Tile) (img image.Image, ok bool) {
	key := GetTileKey(tile)

	if img, ok := tm.cache.Get(key); ok {
		return img, true
	}
	tm.schedule(ctx, tile, key)
	return tm.fallbackTile(ctx, tile, key), false
}

// Prefetch schedules fetches for tiles that are not cached yet.
func (tm *TileManager) Prefetch(ctx context.Context, tiles []Tile) {
	for _, tile := range tiles {
		key := GetTileKey(tile)
		if _, ok := tm.cache.Get(key); !ok {
			tm.schedule(ctx, tile, key)
		}
	}
}

// Loading returns the number of fetches in flight.
func (tm *TileManager) Loading() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.loading)
}

func (tm *TileManager) schedule(ctx context.Context, tile Tile, key string) {
	tm.mu.Lock()
	if tm.loading[key] || tm.failed[key] || tm.provider == nil || tm.pool == nil {
		tm.mu.Unlock()
		return
	}
	tm.loading[key] = true
	gen := tm.gen
	provider := tm.provider
	done := func() {}
	if tm.track != nil {
		done = tm.track()
	}
	tm.mu.Unlock()

	var img image.Image
	submitted := tm.pool.Submit(worker.Task{
		Ctx: ctx,
		Work: func(ctx context.Context) (err error) {
			img, err = provider.GetTile(ctx, tile)
			return err
		},
		Done: func(err error) {
			tm.finish(gen, key, img, err)
			done()
		},
	})
	if !submitted {
		tm.mu.Lock()
		if tm.gen == gen {
			delete(tm.loading, key)
		}
		tm.mu.Unlock()
		done()
	}
}

func (tm *TileManager) finish(gen uint64, key string, img image.Image, err error) {
	tm.mu.Lock()
	if tm.gen != gen {
		tm.mu.Unlock()
		return
	}
	delete(tm.loading, key)
	switch {
	case err == nil && img != nil:
		tm.cache.Set(key, img)
	case err != nil && !errors.Is(err, context.Canceled):
		tm.failed[key] = true
		tm.log.Debugf("tile %s failed: %v", key, err)
	}
	onLoad := tm.onLoad
	tm.mu.Unlock()

	if err == nil && onLoad != nil {
		onLoad()
	}
}

func (tm *TileManager) fallbackTile(ctx context.Context, tile Tile, key string) image.Image {
	if img, ok := tm.fallbacks.Get(key); ok {
		return img
	}
	tm.mu.Lock()
	fallback := tm.fallback
	tm.mu.Unlock()
	if fallback == nil {
		return nil
	}
	img, err := fallback.GetTile(ctx, tile)
	if err != nil {
		return nil
	}
	tm.fallbacks.Set(key, img)
	return img
}
