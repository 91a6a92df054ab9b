package provider

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"gioui.org/font/gofont"
	"gioui.org/text"
	"gioui.org/widget/material"
	"github.com/sirupsen/logrus"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/mapview"
	"github.com/olablt/gio-maps/tiles"
	"github.com/olablt/gio-maps/tiles/worker"
	"github.com/olablt/gio-maps/widgets"
)

type GioOptions struct {
	Client    *http.Client
	Log       logrus.FieldLogger
	Theme     *material.Theme
	UserAgent string
	Workers   int
	CacheSize int
	MinZoom   int
	MaxZoom   int
	// Offline draws placeholder tiles instead of fetching the basemap.
	Offline bool
}

// Gio renders maps natively with the tiles, mapview and widgets packages.
type Gio struct {
	opts GioOptions
	log  logrus.FieldLogger

	mu     sync.Mutex
	loaded bool
	theme  *material.Theme
	pool   *worker.Pool
}

func NewGio(opts GioOptions) *Gio {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxZoom == 0 {
		opts.MaxZoom = mapview.DefaultMaxZoom
	}
	return &Gio{opts: opts, log: opts.Log.WithField("component", "provider")}
}

// Load prepares fonts and the tile worker pool. It is safe to call more than
// once.
func (g *Gio) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loaded {
		return nil
	}
	g.theme = g.opts.Theme
	if g.theme == nil {
		g.theme = material.NewTheme()
		g.theme.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	}
	g.pool = worker.NewPool(g.opts.Workers, 0)
	g.loaded = true
	g.log.Debugf("loaded with %d tile workers", g.opts.Workers)
	return nil
}

// Close stops the tile workers.
func (g *Gio) Close() {
	g.mu.Lock()
	pool := g.pool
	g.mu.Unlock()
	if pool != nil {
		pool.Shutdown()
	}
}

func (g *Gio) Theme() *material.Theme {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.theme
}

func (g *Gio) CreateMap(stack *layers.Stack, basemap string) (*mapview.Map, error) {
	b, err := tiles.LookupBasemap(basemap)
	if err != nil {
		return nil, err
	}
	return mapview.NewMap(b, stack), nil
}

func (g *Gio) tileSource(b tiles.Basemap) (primary, fallback tiles.TileProvider) {
	fallback = tiles.NewLocalTileProvider(b.Dark)
	if g.opts.Offline || b.URL == "" {
		return fallback, nil
	}
	return tiles.NewHTTPTileProvider(g.opts.Client, b.URL, g.opts.Log).WithUserAgent(g.opts.UserAgent), fallback
}

func (g *Gio) CreateView(c Container, m *mapview.Map, center tiles.LatLng, zoom int) (View, error) {
	g.mu.Lock()
	loaded, pool, theme := g.loaded, g.pool, g.theme
	g.mu.Unlock()
	if !loaded {
		return nil, ErrNotLoaded
	}
	if m == nil {
		return nil, fmt.Errorf("create view: no map")
	}

	primary, fallback := g.tileSource(m.Basemap())
	tm, err := tiles.NewTileManager(primary, fallback, pool, g.opts.CacheSize, g.opts.Log)
	if err != nil {
		return nil, err
	}
	v, err := mapview.New(mapview.Options{
		Container:   c,
		Map:         m,
		Center:      center,
		Zoom:        zoom,
		MinZoom:     g.opts.MinZoom,
		MaxZoom:     g.opts.MaxZoom,
		TileManager: tm,
		TileSource:  g.tileSource,
		Theme:       theme,
		Log:         g.opts.Log,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (g *Gio) CreateWidget(kind WidgetKind, opts WidgetOptions) (Widget, error) {
	th := g.Theme()
	if th == nil {
		return nil, ErrNotLoaded
	}
	unsupported := func(need string) error {
		return fmt.Errorf("%w: %s needs %s", ErrUnsupportedWidget, kind, need)
	}

	switch kind {
	case WidgetSearch:
		nav, ok := opts.View.(widgets.Navigator)
		if !ok {
			return nil, unsupported("a navigable view")
		}
		return widgets.NewSearch(th, nav, opts.Stack), nil
	case WidgetSketch:
		host, ok := opts.View.(widgets.ToolHost)
		if !ok {
			return nil, unsupported("a view that accepts tools")
		}
		s, err := widgets.NewSketch(th, host, opts.Layer)
		if err != nil {
			return nil, err
		}
		if opts.Symbology != nil {
			s.SetSymbology(*opts.Symbology)
		}
		return s, nil
	case WidgetEditor:
		sel, ok := opts.View.(widgets.SelectionSource)
		if !ok {
			return nil, unsupported("a view with selection")
		}
		return widgets.NewEditor(th, sel, opts.LayerInfos), nil
	case WidgetBasemapGallery:
		sw, ok := opts.View.(widgets.BasemapSwitcher)
		if !ok {
			return nil, unsupported("a view with basemaps")
		}
		return widgets.NewBasemapGallery(th, sw, g.opts.Log), nil
	case WidgetLayerList:
		if opts.Stack == nil {
			return nil, unsupported("a layer stack")
		}
		return widgets.NewLayerList(th, opts.Stack), nil
	case WidgetExpand:
		if opts.Content == nil {
			return nil, unsupported("content")
		}
		return widgets.NewExpand(th, opts.Title, opts.Content, opts.Group), nil
	case WidgetCoordinates:
		return widgets.NewCoordinates(th), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedWidget, kind)
}
