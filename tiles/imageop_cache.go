package tiles

import (
	"image"

	"gioui.org/op/paint"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ImageOpCache keeps GPU image ops for painted tiles so a tile is uploaded
// once rather than every frame. Entries are keyed by the image itself, so a
// placeholder replaced by the real tile gets a fresh op.
type ImageOpCache struct {
	cache *lru.Cache[image.Image, paint.ImageOp]
}

func NewImageOpCache(size int) (*ImageOpCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[image.Image, paint.ImageOp](size)
	if err != nil {
		return nil, err
	}
	return &ImageOpCache{cache: c}, nil
}

// Op returns the cached op for img, creating it on first use.
func (c *ImageOpCache) Op(img image.Image) paint.ImageOp {
	if op, ok := c.cache.Get(img); ok {
		return op
	}
	op := paint.NewImageOp(img)
	c.cache.Add(img, op)
	return op
}

func (c *ImageOpCache) Clear() {
	c.cache.Purge()
}
