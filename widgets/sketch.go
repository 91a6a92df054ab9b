package widgets

import (
	"fmt"
	"image/color"
	"sync"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/observe"
	"github.com/olablt/gio-maps/tiles"
)

type SketchMode int

const (
	SketchNone SketchMode = iota
	SketchPoint
	SketchPolyline
	SketchPolygon
)

func (m SketchMode) String() string {
	switch m {
	case SketchPoint:
		return "point"
	case SketchPolyline:
		return "polyline"
	case SketchPolygon:
		return "polygon"
	}
	return "none"
}

// minimum vertex count per mode
var minVertices = map[SketchMode]int{
	SketchPoint:    1,
	SketchPolyline: 2,
	SketchPolygon:  3,
}

// DefaultSketchSymbology is the look of sketched graphics: translucent white
// fill with a thin red outline.
func DefaultSketchSymbology() layers.Symbology {
	red := color.NRGBA{R: 255, A: 255}
	fill := color.NRGBA{R: 255, G: 255, B: 255, A: 128}
	return layers.Symbology{
		Point:    layers.PointSymbol{Color: fill, Outline: layers.Stroke{Color: red, Width: 1}, Size: 8},
		Polyline: layers.LineSymbol{Color: red, Width: 1},
		Polygon:  layers.FillSymbol{Color: fill, Outline: layers.Stroke{Color: red, Width: 1}},
	}
}

// Sketch draws points, polylines and polygons into a graphics layer.
// While a mode is active it is installed as the view's click tool.
type Sketch struct {
	th    *material.Theme
	host  ToolHost
	layer *layers.Layer

	created observe.Event[*geojson.Feature]

	mu       sync.Mutex
	mode     SketchMode
	vertices []tiles.LatLng

	point, polyline, polygon widget.Clickable
	done, cancel, clear      widget.Clickable
}

func NewSketch(th *material.Theme, host ToolHost, layer *layers.Layer) (*Sketch, error) {
	if layer == nil || layer.Kind() != layers.KindGraphics {
		return nil, ErrNoGraphicsLayer
	}
	s := &Sketch{th: th, host: host, layer: layer}
	s.SetSymbology(DefaultSketchSymbology())
	return s, nil
}

func (s *Sketch) Kind() Kind { return KindSketch }

func (s *Sketch) Layer() *layers.Layer { return s.layer }

// SetSymbology sets how sketched graphics are painted.
func (s *Sketch) SetSymbology(sym layers.Symbology) {
	s.layer.SetSymbology(sym)
}

func (s *Sketch) Symbology() layers.Symbology {
	return s.layer.Symbology()
}

// OnCreate calls fn with every completed graphic.
func (s *Sketch) OnCreate(fn func(*geojson.Feature)) (cancel func()) {
	return s.created.Subscribe(fn)
}

func (s *Sketch) Mode() SketchMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Start begins a new shape, discarding any unfinished one.
func (s *Sketch) Start(m SketchMode) {
	if m == SketchNone {
		s.Cancel()
		return
	}
	s.mu.Lock()
	s.mode = m
	s.vertices = nil
	s.mu.Unlock()
	s.host.SetTool(s)
}

// Click adds a vertex. A point completes immediately.
func (s *Sketch) Click(ll tiles.LatLng) {
	s.mu.Lock()
	if s.mode == SketchNone {
		s.mu.Unlock()
		return
	}
	s.vertices = append(s.vertices, ll)
	point := s.mode == SketchPoint
	s.mu.Unlock()

	if point {
		s.Complete()
		return
	}
	s.host.Invalidate()
}

// Pending returns the vertices of the shape in progress.
func (s *Sketch) Pending() []tiles.LatLng {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tiles.LatLng(nil), s.vertices...)
}

// Complete adds the shape in progress to the graphics layer and leaves the
// sketch mode.
func (s *Sketch) Complete() (*geojson.Feature, error) {
	s.mu.Lock()
	mode, vs := s.mode, s.vertices
	if mode == SketchNone {
		s.mu.Unlock()
		return nil, ErrIncomplete
	}
	if len(vs) < minVertices[mode] {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s needs %d vertices, has %d", ErrIncomplete, mode, minVertices[mode], len(vs))
	}
	s.mode = SketchNone
	s.vertices = nil
	s.mu.Unlock()
	s.host.SetTool(nil)

	f, err := s.layer.Add(geometry(mode, vs), geojson.Properties{"sketch": mode.String()})
	if err != nil {
		return nil, err
	}
	s.created.Emit(f)
	return f, nil
}

// Cancel drops the shape in progress.
func (s *Sketch) Cancel() {
	s.mu.Lock()
	active := s.mode != SketchNone
	s.mode = SketchNone
	s.vertices = nil
	s.mu.Unlock()
	if active {
		s.host.SetTool(nil)
	}
}

// Clear removes every sketched graphic.
func (s *Sketch) Clear() {
	s.Cancel()
	s.layer.Clear()
	s.host.Invalidate()
}

func geometry(m SketchMode, vs []tiles.LatLng) orb.Geometry {
	pts := make([]orb.Point, len(vs))
	for i, v := range vs {
		pts[i] = v.Point()
	}
	switch m {
	case SketchPoint:
		return pts[0]
	case SketchPolyline:
		return orb.LineString(pts)
	default:
		ring := orb.Ring(append(pts, pts[0]))
		return orb.Polygon{ring}
	}
}

func (s *Sketch) Layout(gtx layout.Context) layout.Dimensions {
	switch {
	case s.point.Clicked(gtx):
		s.Start(SketchPoint)
	case s.polyline.Clicked(gtx):
		s.Start(SketchPolyline)
	case s.polygon.Clicked(gtx):
		s.Start(SketchPolygon)
	case s.done.Clicked(gtx):
		s.Complete()
	case s.cancel.Clicked(gtx):
		s.Cancel()
	case s.clear.Clicked(gtx):
		s.Clear()
	}
	mode := s.Mode()

	button := func(c *widget.Clickable, label string, active bool) layout.FlexChild {
		return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Right: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				b := material.Button(s.th, c, label)
				if active {
					b.Background = activeColor
				}
				return b.Layout(gtx)
			})
		})
	}

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{}.Layout(gtx,
				button(&s.point, "Point", mode == SketchPoint),
				button(&s.polyline, "Line", mode == SketchPolyline),
				button(&s.polygon, "Polygon", mode == SketchPolygon),
			)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if mode == SketchNone {
				return layout.Flex{}.Layout(gtx, button(&s.clear, "Clear", false))
			}
			return layout.Flex{}.Layout(gtx,
				button(&s.done, "Done", false),
				button(&s.cancel, "Cancel", false),
			)
		}),
	)
}
