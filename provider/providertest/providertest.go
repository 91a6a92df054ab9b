// Package providertest provides an in-memory MapProvider for tests. Views
// never become ready on their own; drive them with SetReady, SetUpdating and
// MovePointer.
package providertest

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gioui.org/layout"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/mapview"
	"github.com/olablt/gio-maps/observe"
	"github.com/olablt/gio-maps/provider"
	"github.com/olablt/gio-maps/tiles"
)

// Provider records every call. Set the *Err fields to inject failures.
type Provider struct {
	LoadErr   error
	ViewErr   error
	WidgetErr map[provider.WidgetKind]error
	// AutoReady makes created views ready immediately.
	AutoReady bool

	mu      sync.Mutex
	loads   int
	views   []*View
	widgets []*Widget
}

func New() *Provider {
	return &Provider{WidgetErr: make(map[provider.WidgetKind]error)}
}

func (p *Provider) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads++
	return p.LoadErr
}

func (p *Provider) CreateMap(stack *layers.Stack, basemap string) (*mapview.Map, error) {
	b, err := tiles.LookupBasemap(basemap)
	if err != nil {
		return nil, err
	}
	return mapview.NewMap(b, stack), nil
}

func (p *Provider) CreateView(c provider.Container, m *mapview.Map, center tiles.LatLng, zoom int) (provider.View, error) {
	if p.ViewErr != nil {
		return nil, p.ViewErr
	}
	switch {
	case c == nil:
		return nil, mapview.ErrNoContainer
	case !center.Valid():
		return nil, fmt.Errorf("%w: lon %v lat %v", mapview.ErrInvalidCenter, center.Lng, center.Lat)
	case zoom < mapview.DefaultMinZoom || zoom > mapview.DefaultMaxZoom:
		return nil, fmt.Errorf("%w: %d", mapview.ErrInvalidZoom, zoom)
	}
	v := NewView(c, m, center, zoom)
	if p.AutoReady {
		v.SetReady()
	}
	p.mu.Lock()
	p.views = append(p.views, v)
	p.mu.Unlock()
	return v, nil
}

func (p *Provider) CreateWidget(kind provider.WidgetKind, opts provider.WidgetOptions) (provider.Widget, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.WidgetErr[kind]; err != nil {
		return nil, err
	}
	w := &Widget{kind: kind, Opts: opts}
	p.widgets = append(p.widgets, w)
	return w, nil
}

func (p *Provider) Loads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads
}

// LastView returns the most recently created view, or nil.
func (p *Provider) LastView() *View {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.views) == 0 {
		return nil
	}
	return p.views[len(p.views)-1]
}

func (p *Provider) Views() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.views)
}

// Widgets returns the created widgets in creation order.
func (p *Provider) Widgets() []*Widget {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Widget(nil), p.widgets...)
}

// Widget is a stand-in for every widget kind. It also serves as a text
// overlay.
type Widget struct {
	kind provider.WidgetKind
	Opts provider.WidgetOptions

	mu   sync.Mutex
	text string
}

func (w *Widget) Kind() provider.WidgetKind { return w.kind }

func (w *Widget) Layout(gtx layout.Context) layout.Dimensions {
	return layout.Dimensions{}
}

func (w *Widget) SetText(s string) {
	w.mu.Lock()
	w.text = s
	w.mu.Unlock()
}

func (w *Widget) Text() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.text
}

// View is an in-memory provider.View. ToMap maps one pixel to 0.001 degrees
// around the center, with the origin at the center.
type View struct {
	Map *mapview.Map

	mu        sync.Mutex
	container provider.Container
	center    tiles.LatLng
	zoom      int
	updating  func()

	readyOnce  sync.Once
	readyCh    chan struct{}
	ready      observe.Value[bool]
	detachOnce sync.Once
	detached   chan struct{}
	activity   *observe.Activity
	moves      observe.Event[image.Point]
	ui         *mapview.UI
}

func NewView(c provider.Container, m *mapview.Map, center tiles.LatLng, zoom int) *View {
	return &View{
		Map:       m,
		container: c,
		center:    center,
		zoom:      zoom,
		readyCh:   make(chan struct{}),
		detached:  make(chan struct{}),
		activity:  observe.NewActivity(),
		ui:        mapview.NewUI(),
	}
}

func (v *View) SetReady() {
	v.readyOnce.Do(func() {
		v.ready.Set(true)
		close(v.readyCh)
	})
}

// SetUpdating holds or releases one unit of activity.
func (v *View) SetUpdating(b bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case b && v.updating == nil:
		v.updating = v.activity.Begin()
	case !b && v.updating != nil:
		v.updating()
		v.updating = nil
	}
}

// MovePointer simulates a pointer move to pt.
func (v *View) MovePointer(pt image.Point) {
	v.moves.Emit(pt)
}

func (v *View) When(ctx context.Context) error {
	select {
	case <-v.readyCh:
		return nil
	case <-v.detached:
		return mapview.ErrDetached
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *View) Ready() bool    { return v.ready.Get() }
func (v *View) Updating() bool { return v.activity.Busy().Get() }

func (v *View) WatchUpdating(fn func(bool)) (cancel func()) {
	return v.activity.Busy().Watch(fn)
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

func (v *View) ToMap(pt image.Point) tiles.LatLng {
	c := v.Center()
	return tiles.LatLng{Lat: c.Lat - float64(pt.Y)*0.001, Lng: c.Lng + float64(pt.X)*0.001}
}

func (v *View) OnPointerMove(fn func(image.Point)) (cancel func()) {
	return v.moves.Subscribe(fn)
}

// PointerWatchers returns the number of pointer-move subscriptions.
func (v *View) PointerWatchers() int { return v.moves.Subscribers() }

// UpdatingWatchers returns the number of updating subscriptions.
func (v *View) UpdatingWatchers() int { return v.activity.Busy().Watchers() }

func (v *View) Activity() *observe.Activity { return v.activity }
func (v *View) UI() *mapview.UI             { return v.ui }

func (v *View) Layout(gtx layout.Context) layout.Dimensions {
	return layout.Dimensions{Size: gtx.Constraints.Max}
}

func (v *View) Detach() {
	v.detachOnce.Do(func() {
		v.mu.Lock()
		v.container = nil
		v.mu.Unlock()
		close(v.detached)
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

// Container returns the hosting container; nil once detached.
func (v *View) Container() provider.Container {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.container
}
