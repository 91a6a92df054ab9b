package mapview

import (
	"image"
	"image/color"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"github.com/paulmach/orb"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/tiles"
)

var (
	highlight = layers.Symbology{
		Point:    layers.PointSymbol{Color: color.NRGBA{R: 0, G: 255, B: 255, A: 255}, Outline: layers.Stroke{Color: color.NRGBA{A: 255}, Width: 1}, Size: 12},
		Polyline: layers.LineSymbol{Color: color.NRGBA{R: 0, G: 255, B: 255, A: 255}, Width: 3},
		Polygon:  layers.FillSymbol{Color: color.NRGBA{R: 0, G: 255, B: 255, A: 0x40}, Outline: layers.Stroke{Color: color.NRGBA{R: 0, G: 255, B: 255, A: 255}, Width: 2}},
	}
	pendingColor = color.NRGBA{R: 255, A: 255}
)

type projector struct {
	cam camera
}

func (p projector) point(pt orb.Point) f32.Point {
	x, y := tiles.LatLngToScreen(p.cam.center, p.cam.zoom, p.cam.size, tiles.FromPoint(pt))
	return f32.Pt(float32(x), float32(y))
}

func (p projector) points(pts []orb.Point) []f32.Point {
	out := make([]f32.Point, len(pts))
	for i, pt := range pts {
		out[i] = p.point(pt)
	}
	return out
}

// bound is the geographical extent of the screen.
func (p projector) bound() orb.Bound {
	nw := tiles.ScreenToLatLng(p.cam.center, p.cam.zoom, p.cam.size, 0, 0)
	se := tiles.ScreenToLatLng(p.cam.center, p.cam.zoom, p.cam.size, float64(p.cam.size.X), float64(p.cam.size.Y))
	return orb.Bound{Min: orb.Point{nw.Lng, se.Lat}, Max: orb.Point{se.Lng, nw.Lat}}
}

func (v *View) drawTiles(gtx layout.Context, cam camera) {
	if v.TileManager == nil {
		return
	}
	if cam != v.tilesFor {
		v.tilesFor = cam
		v.visibleTiles = tiles.CalculateVisibleTiles(cam.center, cam.zoom, cam.size)
		v.TileManager.Prefetch(v.ctx, v.visibleTiles)
	}

	// Calculate Center position in pixels at current zoom level
	centerWorldPx, centerWorldPy := tiles.CalculateWorldCoordinates(cam.center, cam.zoom)
	screenCenterX := cam.size.X >> 1
	screenCenterY := cam.size.Y >> 1

	for _, tile := range v.visibleTiles {
		img, _ := v.TileManager.GetTile(v.ctx, tile)
		if img == nil {
			continue
		}

		tileWorldPx := float64(tile.X * tiles.TileSize)
		tileWorldPy := float64(tile.Y * tiles.TileSize)
		finalX := screenCenterX + int(tileWorldPx-centerWorldPx)
		finalY := screenCenterY + int(tileWorldPy-centerWorldPy)

		transform := op.Offset(image.Point{X: finalX, Y: finalY}).Push(gtx.Ops)
		v.imageOps.Op(img).Add(gtx.Ops)
		paint.PaintOp{}.Add(gtx.Ops)
		transform.Pop()
	}
}

func (v *View) drawLayers(gtx layout.Context, cam camera) {
	p := projector{cam: cam}
	view := p.bound()
	for _, l := range v.Map.Layers.Layers() {
		if !l.Visible() {
			continue
		}
		sym := l.Symbology()
		for _, f := range l.Features() {
			if f.Geometry == nil || !f.Geometry.Bound().Intersects(view) {
				continue
			}
			drawGeometry(gtx, p, f.Geometry, sym)
		}
	}
}

func (v *View) drawPending(gtx layout.Context, cam camera) {
	t := v.Tool()
	if t == nil {
		return
	}
	pending := t.Pending()
	if len(pending) == 0 {
		return
	}
	p := projector{cam: cam}
	pts := make([]f32.Point, len(pending))
	for i, ll := range pending {
		pts[i] = p.point(ll.Point())
	}
	if len(pts) > 1 {
		stroke(gtx, pts, false, pendingColor, 1.5)
	}
	r := float32(gtx.Dp(unit.Dp(3)))
	for _, pt := range pts {
		circle(gtx, pt, r, pendingColor)
	}
}

func (v *View) drawSelection(gtx layout.Context, cam camera) {
	sel := v.Selected()
	if sel == nil || sel.Feature.Geometry == nil {
		return
	}
	drawGeometry(gtx, projector{cam: cam}, sel.Feature.Geometry, highlight)
}

func drawGeometry(gtx layout.Context, p projector, g orb.Geometry, sym layers.Symbology) {
	switch g := g.(type) {
	case orb.Point:
		drawPoint(gtx, p.point(g), sym.Point)
	case orb.MultiPoint:
		for _, pt := range g {
			drawPoint(gtx, p.point(pt), sym.Point)
		}
	case orb.LineString:
		stroke(gtx, p.points(g), false, sym.Polyline.Color, sym.Polyline.Width)
	case orb.MultiLineString:
		for _, ls := range g {
			stroke(gtx, p.points(ls), false, sym.Polyline.Color, sym.Polyline.Width)
		}
	case orb.Ring:
		drawPolygon(gtx, p, orb.Polygon{g}, sym.Polygon)
	case orb.Polygon:
		drawPolygon(gtx, p, g, sym.Polygon)
	case orb.MultiPolygon:
		for _, poly := range g {
			drawPolygon(gtx, p, poly, sym.Polygon)
		}
	case orb.Collection:
		for _, c := range g {
			drawGeometry(gtx, p, c, sym)
		}
	}
}

func drawPoint(gtx layout.Context, at f32.Point, sym layers.PointSymbol) {
	r := float32(gtx.Dp(unit.Dp(sym.Size))) / 2
	if sym.Outline.Width > 0 {
		circle(gtx, at, r+float32(gtx.Dp(unit.Dp(sym.Outline.Width))), sym.Outline.Color)
	}
	circle(gtx, at, r, sym.Color)
}

func drawPolygon(gtx layout.Context, p projector, poly orb.Polygon, sym layers.FillSymbol) {
	if len(poly) == 0 || len(poly[0]) < 3 {
		return
	}
	fill(gtx, p.points(poly[0]), sym.Color)
	if sym.Outline.Width <= 0 {
		return
	}
	for _, ring := range poly {
		stroke(gtx, p.points(ring), true, sym.Outline.Color, sym.Outline.Width)
	}
}

func path(gtx layout.Context, pts []f32.Point, closed bool) clip.PathSpec {
	var p clip.Path
	p.Begin(gtx.Ops)
	p.MoveTo(pts[0])
	for _, pt := range pts[1:] {
		p.LineTo(pt)
	}
	if closed {
		p.Close()
	}
	return p.End()
}

func stroke(gtx layout.Context, pts []f32.Point, closed bool, c color.NRGBA, width float32) {
	if len(pts) < 2 || width <= 0 {
		return
	}
	paint.FillShape(gtx.Ops, c, clip.Stroke{
		Path:  path(gtx, pts, closed),
		Width: float32(gtx.Dp(unit.Dp(width))),
	}.Op())
}

func fill(gtx layout.Context, pts []f32.Point, c color.NRGBA) {
	if len(pts) < 3 || c.A == 0 {
		return
	}
	paint.FillShape(gtx.Ops, c, clip.Outline{Path: path(gtx, pts, true)}.Op())
}

func circle(gtx layout.Context, at f32.Point, r float32, c color.NRGBA) {
	if r <= 0 {
		return
	}
	rect := image.Rect(int(at.X-r), int(at.Y-r), int(at.X+r), int(at.Y+r))
	paint.FillShape(gtx.Ops, c, clip.Ellipse(rect).Op(gtx.Ops))
}
