package tiles

import (
	"image"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 512

// ImageCache is a bounded cache of decoded tiles keyed by GetTileKey.
type ImageCache struct {
	cache *lru.Cache[string, image.Image]
}

func NewImageCache(size int) (*ImageCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, image.Image](size)
	if err != nil {
		return nil, err
	}
	return &ImageCache{cache: c}, nil
}

func (c *ImageCache) Get(key string) (image.Image, bool) {
	return c.cache.Get(key)
}

func (c *ImageCache) Set(key string, img image.Image) {
	c.cache.Add(key, img)
}

func (c *ImageCache) Clear() {
	c.cache.Purge()
}

func (c *ImageCache) Len() int {
	return c.cache.Len()
}
