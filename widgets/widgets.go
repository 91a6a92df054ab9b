// Package widgets holds the map tools docked into the view UI: search,
// sketch, editor, basemap gallery, layer list, coordinate overlay, and the
// collapsible expand wrapper around them.
package widgets

import (
	"errors"
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"

	"github.com/olablt/gio-maps/mapview"
	"github.com/olablt/gio-maps/tiles"
)

// Kind names a widget type.
type Kind string

const (
	KindSearch         Kind = "search"
	KindSketch         Kind = "sketch"
	KindEditor         Kind = "editor"
	KindBasemapGallery Kind = "basemap-gallery"
	KindLayerList      Kind = "layer-list"
	KindExpand         Kind = "expand"
	KindCoordinates    Kind = "coordinates"
)

var (
	ErrNoGraphicsLayer = errors.New("sketch needs a graphics layer")
	ErrIncomplete      = errors.New("sketch is incomplete")
	ErrNothingToEdit   = errors.New("no editable feature selected")
)

// Navigator moves the camera.
type Navigator interface {
	Center() tiles.LatLng
	Zoom() int
	GoTo(ll tiles.LatLng, zoom int)
}

type BasemapSwitcher interface {
	Basemap() string
	SetBasemap(id string) error
}

// ToolHost routes map clicks to an installed tool.
type ToolHost interface {
	SetTool(t mapview.Tool)
	Invalidate()
}

type SelectionSource interface {
	Selected() *mapview.Selection
}

var (
	panelColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 245}
	activeColor = color.NRGBA{R: 0x2a, G: 0x59, B: 0x7e, A: 255}
	mutedColor  = color.NRGBA{R: 0x60, G: 0x60, B: 0x60, A: 255}
	errorColor  = color.NRGBA{R: 0xb0, G: 0x20, B: 0x20, A: 255}
)

// panel draws w on a rounded background of colour bg.
func panel(gtx layout.Context, bg color.NRGBA, inset unit.Dp, w layout.Widget) layout.Dimensions {
	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			rr := gtx.Dp(unit.Dp(3))
			defer clip.UniformRRect(image.Rectangle{Max: gtx.Constraints.Min}, rr).Push(gtx.Ops).Pop()
			paint.Fill(gtx.Ops, bg)
			return layout.Dimensions{Size: gtx.Constraints.Min}
		},
		func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(inset).Layout(gtx, w)
		},
	)
}

func maxWidth(gtx layout.Context, dp unit.Dp) layout.Context {
	gtx.Constraints.Max.X = min(gtx.Constraints.Max.X, gtx.Dp(dp))
	gtx.Constraints.Min.X = min(gtx.Constraints.Min.X, gtx.Constraints.Max.X)
	return gtx
}
