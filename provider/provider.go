// Package provider abstracts the mapping engine behind the capabilities the
// application needs: load the engine, create a map, a view and widgets.
package provider

import (
	"context"
	"errors"
	"image"

	"gioui.org/layout"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/mapview"
	"github.com/olablt/gio-maps/observe"
	"github.com/olablt/gio-maps/tiles"
	"github.com/olablt/gio-maps/widgets"
)

var (
	ErrUnsupportedWidget = errors.New("unsupported widget")
	ErrNotLoaded         = errors.New("map provider not loaded")
)

// Container hosts a view, typically an *app.Window.
type Container = mapview.Container

type WidgetKind = widgets.Kind

const (
	WidgetSearch         = widgets.KindSearch
	WidgetSketch         = widgets.KindSketch
	WidgetEditor         = widgets.KindEditor
	WidgetBasemapGallery = widgets.KindBasemapGallery
	WidgetLayerList      = widgets.KindLayerList
	WidgetExpand         = widgets.KindExpand
	WidgetCoordinates    = widgets.KindCoordinates
)

// View is what the application needs from a created view.
type View interface {
	// When blocks until the view is ready to be interacted with.
	When(ctx context.Context) error
	Ready() bool
	Updating() bool
	WatchUpdating(fn func(bool)) (cancel func())
	Center() tiles.LatLng
	Zoom() int
	ToMap(pt image.Point) tiles.LatLng
	OnPointerMove(fn func(image.Point)) (cancel func())
	// Activity is the counter behind Updating.
	Activity() *observe.Activity
	UI() *mapview.UI
	Layout(gtx layout.Context) layout.Dimensions
	Detach()
}

type Widget interface {
	mapview.Component
	Kind() WidgetKind
}

// WidgetOptions carries what a widget kind needs. Unused fields are ignored.
type WidgetOptions struct {
	View  View
	Stack *layers.Stack

	// sketch
	Layer     *layers.Layer
	Symbology *layers.Symbology

	// editor
	LayerInfos []widgets.LayerInfo

	// expand
	Title   string
	Content Widget
	Group   *widgets.ExpandGroup
}

type MapProvider interface {
	Load(ctx context.Context) error
	CreateMap(stack *layers.Stack, basemap string) (*mapview.Map, error)
	CreateView(c Container, m *mapview.Map, center tiles.LatLng, zoom int) (View, error)
	CreateWidget(kind WidgetKind, opts WidgetOptions) (Widget, error)
}
