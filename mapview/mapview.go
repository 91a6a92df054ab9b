// Package mapview implements the interactive map surface: basemap tiles,
// data layers, pointer handling and the UI regions widgets dock into.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/widget/material"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/observe"
	"github.com/olablt/gio-maps/tiles"
)

var (
	ErrNoContainer   = errors.New("view has no container")
	ErrInvalidCenter = errors.New("invalid center")
	ErrInvalidZoom   = errors.New("invalid zoom")
	ErrDetached      = errors.New("view detached")
)

const (
	DefaultMinZoom = 0
	DefaultMaxZoom = 19

	// pointer travel, in pixels, before a press becomes a drag
	dragThreshold = 4
	// hit tolerance in pixels
	hitTolerance = 6
)

// Container hosts the view. The view asks it for a new frame whenever
// something it shows changes.
type Container interface {
	Invalidate()
}

// Tool captures map clicks while installed with SetTool.
type Tool interface {
	Click(ll tiles.LatLng)
	// Pending returns the vertices of the shape being drawn, if any.
	Pending() []tiles.LatLng
}

// Selection is the feature picked by the last click.
type Selection struct {
	Layer   *layers.Layer
	Feature *geojson.Feature
}

// TileSource builds the tile providers for a basemap.
type TileSource func(b tiles.Basemap) (primary, fallback tiles.TileProvider)

type Options struct {
	Container   Container
	Map         *Map
	Center      tiles.LatLng
	Zoom        int
	MinZoom     int
	MaxZoom     int
	TileManager *tiles.TileManager
	TileSource  TileSource
	Theme       *material.Theme
	Log         logrus.FieldLogger
}

type View struct {
	Map         *Map
	TileManager *tiles.TileManager
	MinZoom     int
	MaxZoom     int
	Theme       *material.Theme

	log        logrus.FieldLogger
	tileSource TileSource
	ctx        context.Context
	cancel     context.CancelFunc

	mu        sync.Mutex
	center    tiles.LatLng
	zoom      int
	size      image.Point
	container Container
	tool      Tool
	selected  *Selection

	// touched by Layout only
	visibleTiles []tiles.Tile
	tilesFor     camera
	imageOps     *tiles.ImageOpCache
	pressPos     f32.Point
	lastPos      f32.Point
	pressed      bool
	dragged      bool
	popup        popupState

	ready      observe.Value[bool]
	readyCh    chan struct{}
	readyOnce  sync.Once
	detached   chan struct{}
	detachOnce sync.Once
	activity   *observe.Activity
	moves      observe.Event[image.Point]
	selects    observe.Event[Selection]
	ui         *UI
}

type camera struct {
	center tiles.LatLng
	zoom   int
	size   image.Point
}

// New validates opts and builds a view. It is not ready until it has been
// laid out once with a non-zero size.
func New(opts Options) (*View, error) {
	if opts.Container == nil {
		return nil, ErrNoContainer
	}
	if !opts.Center.Valid() {
		return nil, fmt.Errorf("%w: lon %v lat %v", ErrInvalidCenter, opts.Center.Lng, opts.Center.Lat)
	}
	if opts.MaxZoom == 0 {
		opts.MaxZoom = DefaultMaxZoom
	}
	if opts.MinZoom < 0 || opts.MinZoom > opts.MaxZoom {
		return nil, fmt.Errorf("%w: range %d-%d", ErrInvalidZoom, opts.MinZoom, opts.MaxZoom)
	}
	if opts.Zoom < opts.MinZoom || opts.Zoom > opts.MaxZoom {
		return nil, fmt.Errorf("%w: %d not in %d-%d", ErrInvalidZoom, opts.Zoom, opts.MinZoom, opts.MaxZoom)
	}
	if opts.Map == nil {
		return nil, errors.New("view has no map")
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	imageOps, err := tiles.NewImageOpCache(tiles.DefaultCacheSize)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		Map:         opts.Map,
		TileManager: opts.TileManager,
		MinZoom:     opts.MinZoom,
		MaxZoom:     opts.MaxZoom,
		Theme:       opts.Theme,
		log:         opts.Log.WithField("component", "mapview"),
		tileSource:  opts.TileSource,
		ctx:         ctx,
		cancel:      cancel,
		center:      opts.Center,
		zoom:        opts.Zoom,
		container:   opts.Container,
		imageOps:    imageOps,
		readyCh:     make(chan struct{}),
		detached:    make(chan struct{}),
		activity:    observe.NewActivity(),
		ui:          NewUI(),
	}
	if v.TileManager != nil {
		v.TileManager.SetOnLoadCallback(v.Invalidate)
		v.TileManager.SetActivityHook(v.activity.Begin)
	}
	return v, nil
}

func (v *View) Center() tiles.LatLng {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.center
}

func (v *View) Zoom() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

func (v *View) Size() image.Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size
}

// GoTo recentres the view. A zoom outside MinZoom..MaxZoom is clamped.
func (v *View) GoTo(ll tiles.LatLng, zoom int) {
	v.mu.Lock()
	v.center = ll
	v.zoom = max(v.MinZoom, min(zoom, v.MaxZoom))
	v.mu.Unlock()
	v.Invalidate()
}

// Basemap returns the id of the current basemap.
func (v *View) Basemap() string {
	return v.Map.Basemap().ID
}

// SetBasemap switches the background tiles to the catalog entry id.
func (v *View) SetBasemap(id string) error {
	b, err := tiles.LookupBasemap(id)
	if err != nil {
		return err
	}
	v.Map.SetBasemap(b)
	if v.TileManager != nil && v.tileSource != nil {
		primary, fallback := v.tileSource(b)
		v.TileManager.SetProvider(primary, fallback)
	}
	v.imageOps.Clear()
	v.log.Infof("basemap switched to %s", id)
	v.Invalidate()
	return nil
}

// ToMap converts a screen position to geographical coordinates.
func (v *View) ToMap(pt image.Point) tiles.LatLng {
	v.mu.Lock()
	defer v.mu.Unlock()
	return tiles.ScreenToLatLng(v.center, v.zoom, v.size, float64(pt.X), float64(pt.Y))
}

// When blocks until the view is ready, detached, or ctx is done.
func (v *View) When(ctx context.Context) error {
	select {
	case <-v.readyCh:
		return nil
	case <-v.detached:
		return ErrDetached
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *View) Ready() bool {
	return v.ready.Get()
}

// Updating reports whether layers or tiles are loading.
func (v *View) Updating() bool {
	return v.activity.Busy().Get()
}

// WatchUpdating calls fn on every change of the updating flag.
func (v *View) WatchUpdating(fn func(bool)) (cancel func()) {
	return v.activity.Busy().Watch(fn)
}

// Activity is the counter behind the updating flag. Layer loads register
// with it.
func (v *View) Activity() *observe.Activity {
	return v.activity
}

// OnPointerMove calls fn with the screen position of every pointer move.
func (v *View) OnPointerMove(fn func(image.Point)) (cancel func()) {
	return v.moves.Subscribe(fn)
}

// OnSelect calls fn whenever a click selects a feature.
func (v *View) OnSelect(fn func(Selection)) (cancel func()) {
	return v.selects.Subscribe(fn)
}

func (v *View) Selected() *Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// Select makes sel the current selection and notifies OnSelect watchers.
func (v *View) Select(sel Selection) {
	v.mu.Lock()
	v.selected = &sel
	v.mu.Unlock()
	v.selects.Emit(sel)
	v.Invalidate()
}

func (v *View) ClearSelection() {
	v.mu.Lock()
	v.selected = nil
	v.mu.Unlock()
	v.Invalidate()
}

// SetTool installs t as the click handler; nil restores feature picking.
func (v *View) SetTool(t Tool) {
	v.mu.Lock()
	v.tool = t
	v.mu.Unlock()
	v.Invalidate()
}

func (v *View) Tool() Tool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tool
}

func (v *View) UI() *UI {
	return v.ui
}

// Invalidate asks the container for a new frame.
func (v *View) Invalidate() {
	v.mu.Lock()
	c := v.container
	v.mu.Unlock()
	if c != nil {
		c.Invalidate()
	}
}

// Detach releases the container and stops tile loading. Pending When calls
// return ErrDetached.
func (v *View) Detach() {
	v.detachOnce.Do(func() {
		v.mu.Lock()
		v.container = nil
		v.mu.Unlock()
		v.cancel()
		close(v.detached)
		v.log.Debug("view detached")
	})
}

func (v *View) Detached() bool {
	select {
	case <-v.detached:
		return true
	default:
		return false
	}
}

func (v *View) camera() camera {
	v.mu.Lock()
	defer v.mu.Unlock()
	return camera{center: v.center, zoom: v.zoom, size: v.size}
}

func (v *View) Layout(gtx layout.Context) layout.Dimensions {
	tag := v

	v.mu.Lock()
	if v.size != gtx.Constraints.Max {
		v.size = gtx.Constraints.Max
	}
	attached := v.container != nil
	v.mu.Unlock()

	v.processEvents(gtx, tag)
	cam := v.camera()

	if attached && cam.size.X > 0 && cam.size.Y > 0 {
		v.readyOnce.Do(func() {
			v.ready.Set(true)
			close(v.readyCh)
			v.log.Debugf("view ready at %dx%d", cam.size.X, cam.size.Y)
		})
	}

	// Confine the area of interest to a gtx Max
	defer clip.Rect{Max: cam.size}.Push(gtx.Ops).Pop()
	// Declare `tag` as being one of the targets.
	event.Op(gtx.Ops, tag)

	v.drawTiles(gtx, cam)
	v.drawLayers(gtx, cam)
	v.drawPending(gtx, cam)
	v.drawSelection(gtx, cam)
	v.layoutPopup(gtx)
	v.ui.Layout(gtx)

	return layout.Dimensions{Size: cam.size}
}

func (v *View) processEvents(gtx layout.Context, tag event.Tag) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  tag,
			Kinds:   pointer.Move | pointer.Scroll | pointer.Drag | pointer.Press | pointer.Release | pointer.Cancel,
			ScrollY: pointer.ScrollRange{Min: -10, Max: 10},
		})
		if !ok {
			break
		}
		x, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch x.Kind {
		case pointer.Move:
			v.moves.Emit(x.Position.Round())
		case pointer.Press:
			v.pressed = true
			v.dragged = false
			v.pressPos = x.Position
			v.lastPos = x.Position
		case pointer.Drag:
			if !v.pressed {
				break
			}
			if !v.dragged {
				d := x.Position.Sub(v.pressPos)
				v.dragged = math.Hypot(float64(d.X), float64(d.Y)) > dragThreshold
			}
			if v.dragged {
				v.pan(x.Position.Sub(v.lastPos))
				v.lastPos = x.Position
			}
			v.moves.Emit(x.Position.Round())
		case pointer.Release:
			if v.pressed && !v.dragged {
				v.click(x.Position)
			}
			v.pressed = false
		case pointer.Cancel:
			v.pressed = false
		case pointer.Scroll:
			v.scrollZoom(x.Position, x.Scroll.Y)
		}
	}
}

// pan moves the map with the pointer.
func (v *View) pan(delta f32.Point) {
	v.mu.Lock()
	worldX, worldY := tiles.CalculateWorldCoordinates(v.center, v.zoom)
	v.center = tiles.WorldToLatLng(worldX-float64(delta.X), worldY-float64(delta.Y), v.zoom)
	v.mu.Unlock()
}

// scrollZoom zooms one level keeping the geographical point under the
// pointer fixed on screen.
func (v *View) scrollZoom(pos f32.Point, scroll float32) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Get mouse position relative to screen center
	mouseOffsetX := float64(pos.X) - float64(v.size.X>>1)
	mouseOffsetY := float64(pos.Y) - float64(v.size.Y>>1)

	// Convert screen coordinates to world coordinates at current zoom
	worldX, worldY := tiles.CalculateWorldCoordinates(v.center, v.zoom)
	mouseWorldX := worldX + mouseOffsetX
	mouseWorldY := worldY + mouseOffsetY

	oldZoom := v.zoom
	switch {
	case scroll < 0:
		v.zoom = min(v.zoom+1, v.MaxZoom)
	case scroll > 0:
		v.zoom = max(v.zoom-1, v.MinZoom)
	}
	if oldZoom == v.zoom {
		return
	}

	zoomFactor := math.Pow(2, float64(v.zoom-oldZoom))
	newWorldCenterX := mouseWorldX*zoomFactor - mouseOffsetX
	newWorldCenterY := mouseWorldY*zoomFactor - mouseOffsetY
	v.center = tiles.WorldToLatLng(newWorldCenterX, newWorldCenterY, v.zoom)
}

func (v *View) click(pos f32.Point) {
	cam := v.camera()
	ll := tiles.ScreenToLatLng(cam.center, cam.zoom, cam.size, float64(pos.X), float64(pos.Y))

	if t := v.Tool(); t != nil {
		t.Click(ll)
		return
	}

	tolerance := hitTolerance * tiles.DegreesPerPixel(cam.zoom)
	l, f := v.Map.Layers.HitTest(orb.Point{ll.Lng, ll.Lat}, tolerance)
	if f == nil {
		v.ClearSelection()
		return
	}
	v.Select(Selection{Layer: l, Feature: f})
}
