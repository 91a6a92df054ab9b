// Package bootstrap builds a ready map view: it loads the engine, creates
// the map, its layers and view, assembles the widgets, and waits for the
// view to become ready.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/mapview"
	"github.com/olablt/gio-maps/provider"
	"github.com/olablt/gio-maps/tiles"
	"github.com/olablt/gio-maps/widgets"
)

var ErrNoOverlay = errors.New("coordinates widget cannot show text")

// Overlay displays a line of text over the map.
type Overlay interface {
	SetText(s string)
}

type Config struct {
	Center  tiles.LatLng
	Zoom    int
	Basemap string
	// Layers, bottom to top.
	Layers []layers.Descriptor
	// Sketch overrides the sketch widget's default symbology.
	Sketch *layers.Symbology
	Client *http.Client
	Log    logrus.FieldLogger
	// OnView, if set, receives the view once its widgets are docked and
	// before readiness is awaited. The view only becomes ready after it has
	// been laid out, so the host must start drawing it from here.
	OnView func(v provider.View)
}

type Result struct {
	View    provider.View
	Map     *mapview.Map
	Stack   *layers.Stack
	Overlay Overlay
	Widgets []provider.Widget

	stopLoading context.CancelFunc
}

// Close stops layer loading and detaches the view.
func (r *Result) Close() {
	r.stopLoading()
	r.View.Detach()
}

// Initialize runs every bootstrap step in order. On success the returned
// view is ready. Failures are logged here and returned wrapped; after the
// view exists it is detached before returning an error.
func Initialize(ctx context.Context, p provider.MapProvider, cfg Config, c provider.Container) (*Result, error) {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	log := cfg.Log.WithField("component", "bootstrap")

	res, err := initialize(ctx, p, cfg, c, log)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Debugf("map initialisation cancelled: %v", err)
		} else {
			log.Errorf("map initialisation failed: %v", err)
		}
		return nil, err
	}
	return res, nil
}

func initialize(ctx context.Context, p provider.MapProvider, cfg Config, c provider.Container, log logrus.FieldLogger) (*Result, error) {
	if err := p.Load(ctx); err != nil {
		return nil, fmt.Errorf("load map engine: %w", err)
	}
	log.Debug("map engine loaded")

	stack, err := layers.Build(cfg.Layers, cfg.Client, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build layers: %w", err)
	}
	m, err := p.CreateMap(stack, cfg.Basemap)
	if err != nil {
		return nil, fmt.Errorf("create map: %w", err)
	}
	view, err := p.CreateView(c, m, cfg.Center, cfg.Zoom)
	if err != nil {
		return nil, fmt.Errorf("create view: %w", err)
	}

	a, err := AssembleWidgets(p, view, stack, cfg.Sketch)
	if err != nil {
		view.Detach()
		return nil, fmt.Errorf("assemble widgets: %w", err)
	}

	loadCtx, stopLoading := context.WithCancel(ctx)
	go func() {
		if err := stack.LoadAll(loadCtx, view.Activity()); err != nil {
			log.Debugf("layer loading stopped: %v", err)
		}
	}()

	if cfg.OnView != nil {
		cfg.OnView(view)
	}
	if err := view.When(ctx); err != nil {
		stopLoading()
		view.Detach()
		return nil, fmt.Errorf("wait for view: %w", err)
	}
	log.Infof("map ready at %.4f,%.4f zoom %d", cfg.Center.Lat, cfg.Center.Lng, cfg.Zoom)

	return &Result{
		View:    view,
		Map:     m,
		Stack:   stack,
		Overlay: a.Overlay,
		Widgets: a.Widgets,

		stopLoading: stopLoading,
	}, nil
}

// Assembly is the outcome of AssembleWidgets.
type Assembly struct {
	Overlay Overlay
	// Widgets in docking order: the expands of the top-right region, then
	// the coordinates overlay.
	Widgets []provider.Widget
}

var tools = []struct {
	kind  provider.WidgetKind
	title string
}{
	{provider.WidgetSearch, "Search"},
	{provider.WidgetBasemapGallery, "Basemaps"},
	{provider.WidgetLayerList, "Layers"},
	{provider.WidgetEditor, "Edit"},
	{provider.WidgetSketch, "Sketch"},
}

// AssembleWidgets creates the map tools, wraps each in a collapsible expand
// and docks them top-right; the coordinates overlay goes bottom-left. Any
// creation failure aborts the assembly before anything is docked.
func AssembleWidgets(p provider.MapProvider, view provider.View, stack *layers.Stack, sketch *layers.Symbology) (*Assembly, error) {
	group := &widgets.ExpandGroup{}
	opts := provider.WidgetOptions{
		View:       view,
		Stack:      stack,
		Layer:      stack.FirstOfKind(layers.KindGraphics),
		Symbology:  sketch,
		LayerInfos: widgets.LayerInfos(stack),
	}

	expands := make([]mapview.Component, 0, len(tools))
	a := &Assembly{}
	for _, t := range tools {
		w, err := p.CreateWidget(t.kind, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.kind, err)
		}
		e, err := p.CreateWidget(provider.WidgetExpand, provider.WidgetOptions{
			View:    view,
			Title:   t.title,
			Content: w,
			Group:   group,
		})
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", t.kind, err)
		}
		expands = append(expands, e)
		a.Widgets = append(a.Widgets, e)
	}

	coords, err := p.CreateWidget(provider.WidgetCoordinates, provider.WidgetOptions{View: view})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider.WidgetCoordinates, err)
	}
	overlay, ok := coords.(Overlay)
	if !ok {
		return nil, ErrNoOverlay
	}
	a.Overlay = overlay
	a.Widgets = append(a.Widgets, coords)

	view.UI().Add(mapview.TopRight, expands...)
	view.UI().Add(mapview.BottomLeft, coords)
	return a, nil
}
