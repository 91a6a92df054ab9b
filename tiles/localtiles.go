package tiles

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LocalTileProvider draws labelled placeholder tiles. It stands in for the
// basemap while real tiles load, or when the tile service is unreachable.
type LocalTileProvider struct {
	background color.RGBA
	border     color.RGBA
	text       color.RGBA
	label      color.RGBA
}

func NewLocalTileProvider(dark bool) *LocalTileProvider {
	if dark {
		return &LocalTileProvider{
			background: color.RGBA{36, 36, 40, 255},
			border:     color.RGBA{60, 60, 66, 255},
			text:       color.RGBA{200, 200, 200, 255},
			label:      color.RGBA{20, 20, 24, 200},
		}
	}
	return &LocalTileProvider{
		background: color.RGBA{200, 220, 255, 255},
		border:     color.RGBA{100, 100, 100, 255},
		text:       color.RGBA{40, 40, 40, 255},
		label:      color.RGBA{255, 255, 255, 220},
	}
}

func (p *LocalTileProvider) GetTile(_ context.Context, tile Tile) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{p.background}, image.Point{}, draw.Src)

	p.drawText(img, tile)

	borders := []image.Rectangle{
		image.Rect(0, 0, TileSize, 1),                 // Top
		image.Rect(0, TileSize-1, TileSize, TileSize), // Bottom
		image.Rect(0, 0, 1, TileSize),                 // Left
		image.Rect(TileSize-1, 0, TileSize, TileSize), // Right
	}
	for _, rect := range borders {
		draw.Draw(img, rect, &image.Uniform{p.border}, image.Point{}, draw.Src)
	}
	return img, nil
}

func (p *LocalTileProvider) drawText(img *image.RGBA, tile Tile) {
	text := fmt.Sprintf("%d/%d/%d", tile.Zoom, tile.X, tile.Y)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(p.text),
		Face: face,
	}

	textWidth := d.MeasureString(text).Round()
	textHeight := face.Metrics().Height.Round()

	mid := TileSize / 2
	padding := 10
	bg := image.Rect(
		(TileSize-textWidth)/2-padding,
		mid-textHeight/2-padding,
		(TileSize+textWidth)/2+padding,
		mid+textHeight/2+padding,
	)
	draw.Draw(img, bg, &image.Uniform{p.label}, image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{
		X: fixed.I((TileSize - textWidth) / 2),
		Y: fixed.I(mid + textHeight/2),
	}
	d.DrawString(text)
}
