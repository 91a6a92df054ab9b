// Package bridge turns view state into the application's outbound events
// and keeps the coordinate overlay in sync with the pointer.
package bridge

import (
	"context"
	"image"
	"sync"

	"github.com/olablt/gio-maps/tiles"
	"github.com/olablt/gio-maps/widgets"
)

// View is the part of a map view the bridge observes.
type View interface {
	When(ctx context.Context) error
	Updating() bool
	WatchUpdating(fn func(bool)) (cancel func())
	Center() tiles.LatLng
	ToMap(pt image.Point) tiles.LatLng
	OnPointerMove(fn func(image.Point)) (cancel func())
}

type Overlay interface {
	SetText(s string)
}

// Events receives the bridged notifications. Nil fields are skipped.
type Events struct {
	// MapLoaded fires once, with true, when the view is ready.
	MapLoaded func(bool)
	// LayersLoaded mirrors every change of the view's updating flag.
	LayersLoaded func(bool)
}

type Bridge struct {
	ctx    context.Context
	cancel context.CancelFunc
	events Events

	mapLoaded sync.Once
	wg        sync.WaitGroup

	mu      sync.Mutex
	cancels []func()
	closed  bool
}

// Start wires view to events and overlay. Nothing is emitted once ctx is
// done or Close has been called.
func Start(ctx context.Context, view View, overlay Overlay, events Events) *Bridge {
	ctx, cancel := context.WithCancel(ctx)
	b := &Bridge{ctx: ctx, cancel: cancel, events: events}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := view.When(ctx); err == nil {
			b.emitMapLoaded()
		}
	}()

	b.track(view.WatchUpdating(b.emitLayersLoaded))
	if view.Updating() {
		b.emitLayersLoaded(true)
	}

	if overlay != nil {
		overlay.SetText(widgets.FormatCoordinates(view.Center()))
		b.track(view.OnPointerMove(func(pt image.Point) {
			if b.ctx.Err() != nil {
				return
			}
			overlay.SetText(widgets.FormatCoordinates(view.ToMap(pt)))
		}))
	}
	return b
}

func (b *Bridge) track(cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		cancel()
		return
	}
	b.cancels = append(b.cancels, cancel)
}

func (b *Bridge) emitMapLoaded() {
	if b.ctx.Err() != nil || b.events.MapLoaded == nil {
		return
	}
	b.mapLoaded.Do(func() { b.events.MapLoaded(true) })
}

func (b *Bridge) emitLayersLoaded(v bool) {
	if b.ctx.Err() != nil || b.events.LayersLoaded == nil {
		return
	}
	b.events.LayersLoaded(v)
}

// Close unregisters every subscription. It is safe to call more than once.
func (b *Bridge) Close() {
	b.cancel()
	b.mu.Lock()
	cancels := b.cancels
	b.cancels = nil
	b.closed = true
	b.mu.Unlock()
	for _, c := range cancels {
		c()
	}
	b.wg.Wait()
}
