// Package component is the embeddable map: configuration inputs, lifecycle
// and outbound events around bootstrap and bridge.
package component

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"gioui.org/layout"
	"github.com/sirupsen/logrus"

	"github.com/olablt/gio-maps/bootstrap"
	"github.com/olablt/gio-maps/bridge"
	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/provider"
	"github.com/olablt/gio-maps/tiles"
)

const (
	DefaultZoom    = 10
	DefaultBasemap = "streets"
)

// DefaultCenter is London, as [lon, lat].
var DefaultCenter = [2]float64{0.1278, 51.5074}

var ErrAlreadyInitialized = errors.New("map already initialized")

type Options struct {
	Provider provider.MapProvider
	// Layers, bottom to top. Nil means layers.DefaultDescriptors.
	Layers []layers.Descriptor
	Sketch *layers.Symbology
	Client *http.Client
	Log    logrus.FieldLogger
}

// Map owns one view for its whole life: Init builds it at most once and
// Destroy releases it.
type Map struct {
	opts Options
	log  logrus.FieldLogger

	mu      sync.Mutex
	zoom    int
	center  [2]float64
	basemap string
	started bool
	cancel  context.CancelFunc
	view    provider.View
	bridge  *bridge.Bridge
	done    chan struct{}

	cbMu           sync.RWMutex
	onMapLoaded    func(bool)
	onLayersLoaded func(bool)
	onFailed       func(error)
}

func New(opts Options) *Map {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Layers == nil {
		opts.Layers = layers.DefaultDescriptors()
	}
	return &Map{
		opts:    opts,
		log:     opts.Log.WithField("component", "map"),
		zoom:    DefaultZoom,
		center:  DefaultCenter,
		basemap: DefaultBasemap,
		done:    make(chan struct{}),
	}
}

// SetZoom, SetCenter and SetBasemap only affect a later Init.
func (m *Map) SetZoom(z int) {
	m.mu.Lock()
	m.zoom = z
	m.mu.Unlock()
}

func (m *Map) Zoom() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zoom
}

// SetCenter takes [lon, lat].
func (m *Map) SetCenter(c [2]float64) {
	m.mu.Lock()
	m.center = c
	m.mu.Unlock()
}

func (m *Map) Center() [2]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center
}

func (m *Map) SetBasemap(id string) {
	m.mu.Lock()
	m.basemap = id
	m.mu.Unlock()
}

func (m *Map) Basemap() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.basemap
}

func (m *Map) OnMapLoaded(fn func(bool)) {
	m.cbMu.Lock()
	m.onMapLoaded = fn
	m.cbMu.Unlock()
}

func (m *Map) OnLayersLoaded(fn func(bool)) {
	m.cbMu.Lock()
	m.onLayersLoaded = fn
	m.cbMu.Unlock()
}

// OnFailed is called once if the map cannot be initialized.
func (m *Map) OnFailed(fn func(error)) {
	m.cbMu.Lock()
	m.onFailed = fn
	m.cbMu.Unlock()
}

// Init starts building the view in the background.
func (m *Map) Init(ctx context.Context, c provider.Container) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	cfg := bootstrap.Config{
		Center:  tiles.LatLng{Lat: m.center[1], Lng: m.center[0]},
		Zoom:    m.zoom,
		Basemap: m.basemap,
		Layers:  m.opts.Layers,
		Sketch:  m.opts.Sketch,
		Client:  m.opts.Client,
		Log:     m.opts.Log,
	}
	m.mu.Unlock()

	cfg.OnView = func(v provider.View) {
		m.mu.Lock()
		m.view = v
		m.mu.Unlock()
		// the view becomes ready on its first frame
		if c != nil {
			c.Invalidate()
		}
	}
	go m.run(ctx, cfg, c)
	return nil
}

func (m *Map) run(ctx context.Context, cfg bootstrap.Config, c provider.Container) {
	defer close(m.done)

	res, err := bootstrap.Initialize(ctx, m.opts.Provider, cfg, c)
	if err != nil {
		m.mu.Lock()
		m.view = nil
		m.mu.Unlock()
		if ctx.Err() == nil {
			m.emitFailed(err)
		}
		return
	}

	m.mu.Lock()
	if ctx.Err() != nil {
		m.view = nil
		m.mu.Unlock()
		res.Close()
		return
	}
	m.view = res.View
	m.mu.Unlock()

	b := bridge.Start(ctx, res.View, res.Overlay, bridge.Events{
		MapLoaded:    m.emitMapLoaded,
		LayersLoaded: m.emitLayersLoaded,
	})

	m.mu.Lock()
	m.bridge = b
	destroyed := ctx.Err() != nil
	m.mu.Unlock()
	if destroyed {
		b.Close()
		res.Close()
		return
	}
	if c != nil {
		c.Invalidate()
	}
}

func (m *Map) emitMapLoaded(v bool) {
	m.cbMu.RLock()
	fn := m.onMapLoaded
	m.cbMu.RUnlock()
	if fn != nil {
		fn(v)
	}
}

func (m *Map) emitLayersLoaded(v bool) {
	m.cbMu.RLock()
	fn := m.onLayersLoaded
	m.cbMu.RUnlock()
	if fn != nil {
		fn(v)
	}
}

func (m *Map) emitFailed(err error) {
	m.cbMu.RLock()
	fn := m.onFailed
	m.cbMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// View returns the view from the moment bootstrap has created it, so it
// can be drawn while readiness is awaited. It is nil before that and after
// a failed or cancelled bootstrap.
func (m *Map) View() provider.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Wait blocks until the background bootstrap has finished. It returns
// immediately if Init was never called.
func (m *Map) Wait() {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if started {
		<-m.done
	}
}

// Destroy cancels a running bootstrap, stops the bridge and detaches the
// view. Callbacks are not called afterwards.
func (m *Map) Destroy() {
	m.mu.Lock()
	cancel, b, v := m.cancel, m.bridge, m.view
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if b != nil {
		b.Close()
	}
	if v != nil {
		v.Detach()
	}
	m.log.Debug("map destroyed")
}

func (m *Map) Layout(gtx layout.Context) layout.Dimensions {
	if v := m.View(); v != nil {
		return v.Layout(gtx)
	}
	return layout.Dimensions{Size: gtx.Constraints.Max}
}
