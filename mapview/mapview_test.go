package mapview

import (
	"context"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/tiles"
)

type container struct{ n atomic.Int32 }

func (c *container) Invalidate() { c.n.Add(1) }

var santaMonica = tiles.LatLng{Lat: 34.09, Lng: -118.65}

func newView(t *testing.T, stack *layers.Stack) (*View, *container) {
	t.Helper()
	b, err := tiles.LookupBasemap("dark-gray-vector")
	require.NoError(t, err)
	c := &container{}
	v, err := New(Options{
		Container: c,
		Map:       NewMap(b, stack),
		Center:    santaMonica,
		Zoom:      10,
	})
	require.NoError(t, err)
	return v, c
}

func frame(v *View, size image.Point) {
	gtx := layout.Context{
		Ops:         new(op.Ops),
		Constraints: layout.Exact(size),
	}
	v.Layout(gtx)
}

func TestNew_Validation(t *testing.T) {
	b, _ := tiles.LookupBasemap("streets")
	m := NewMap(b, nil)

	_, err := New(Options{Map: m, Center: santaMonica, Zoom: 10})
	assert.ErrorIs(t, err, ErrNoContainer)

	_, err = New(Options{Container: &container{}, Map: m, Center: tiles.LatLng{Lat: 100}, Zoom: 10})
	assert.ErrorIs(t, err, ErrInvalidCenter)

	_, err = New(Options{Container: &container{}, Map: m, Center: santaMonica, Zoom: 30})
	assert.ErrorIs(t, err, ErrInvalidZoom)
}

func TestView_ReadyAfterFirstFrame(t *testing.T) {
	v, _ := newView(t, nil)
	assert.False(t, v.Ready())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, v.When(ctx), context.DeadlineExceeded)

	frame(v, image.Pt(800, 600))
	assert.True(t, v.Ready())
	require.NoError(t, v.When(context.Background()))
	assert.Equal(t, image.Pt(800, 600), v.Size())
}

func TestView_NotReadyWithoutSize(t *testing.T) {
	v, _ := newView(t, nil)
	frame(v, image.Point{})
	assert.False(t, v.Ready())
}

func TestView_DetachUnblocksWhen(t *testing.T) {
	v, c := newView(t, nil)
	errc := make(chan error, 1)
	go func() { errc <- v.When(context.Background()) }()

	v.Detach()
	v.Detach()
	assert.ErrorIs(t, <-errc, ErrDetached)
	assert.True(t, v.Detached())

	// a detached view never becomes ready
	frame(v, image.Pt(800, 600))
	assert.False(t, v.Ready())

	before := c.n.Load()
	v.Invalidate()
	assert.Equal(t, before, c.n.Load())
}

func TestView_ToMapAtScreenCenter(t *testing.T) {
	v, _ := newView(t, nil)
	frame(v, image.Pt(800, 600))

	ll := v.ToMap(image.Pt(400, 300))
	assert.InDelta(t, santaMonica.Lat, ll.Lat, 1e-9)
	assert.InDelta(t, santaMonica.Lng, ll.Lng, 1e-9)
}

func TestView_GoToClampsZoom(t *testing.T) {
	v, c := newView(t, nil)
	v.GoTo(tiles.LatLng{Lat: 34, Lng: -118}, 40)
	assert.Equal(t, DefaultMaxZoom, v.Zoom())
	assert.Equal(t, tiles.LatLng{Lat: 34, Lng: -118}, v.Center())
	assert.Positive(t, c.n.Load())
}

func TestView_SetBasemap(t *testing.T) {
	v, _ := newView(t, nil)
	assert.ErrorIs(t, v.SetBasemap("nope"), tiles.ErrUnknownBasemap)
	assert.Equal(t, "dark-gray-vector", v.Basemap())

	require.NoError(t, v.SetBasemap("topo"))
	assert.Equal(t, "topo", v.Basemap())
}

func TestView_UpdatingFollowsActivity(t *testing.T) {
	v, _ := newView(t, nil)
	var seen []bool
	cancel := v.WatchUpdating(func(b bool) { seen = append(seen, b) })

	done := v.Activity().Begin()
	assert.True(t, v.Updating())
	done()
	cancel()
	v.Activity().Begin()

	assert.Equal(t, []bool{true, false}, seen)
}

func TestView_ScrollZoomKeepsPointerFixed(t *testing.T) {
	v, _ := newView(t, nil)
	frame(v, image.Pt(800, 600))

	pos := f32.Pt(600, 150)
	before := v.ToMap(image.Pt(600, 150))
	v.scrollZoom(pos, -1)
	assert.Equal(t, 11, v.Zoom())
	after := v.ToMap(image.Pt(600, 150))
	assert.InDelta(t, before.Lat, after.Lat, 1e-3)
	assert.InDelta(t, before.Lng, after.Lng, 1e-3)
}

func TestView_PanMovesCenter(t *testing.T) {
	v, _ := newView(t, nil)
	frame(v, image.Pt(800, 600))

	target := v.ToMap(image.Pt(300, 300))
	v.pan(f32.Pt(100, 0))
	c := v.Center()
	assert.InDelta(t, target.Lng, c.Lng, 1e-9)
	assert.InDelta(t, target.Lat, c.Lat, 1e-9)
}

func TestView_ClickSelectsFeature(t *testing.T) {
	l, err := layers.New(layers.Descriptor{ID: "g", Kind: layers.KindGraphics})
	require.NoError(t, err)
	f, err := l.Add(orb.Point{santaMonica.Lng, santaMonica.Lat}, nil)
	require.NoError(t, err)
	stack := layers.NewStack(nil, nil)
	stack.Add(l)

	v, _ := newView(t, stack)
	frame(v, image.Pt(800, 600))

	var got []Selection
	v.OnSelect(func(s Selection) { got = append(got, s) })

	v.click(f32.Pt(401, 300))
	require.Len(t, got, 1)
	assert.Equal(t, f, got[0].Feature)
	assert.Equal(t, l, v.Selected().Layer)

	v.click(f32.Pt(10, 10))
	assert.Nil(t, v.Selected())
	assert.Len(t, got, 1)
}

type recordingTool struct{ clicks []tiles.LatLng }

func (r *recordingTool) Click(ll tiles.LatLng)   { r.clicks = append(r.clicks, ll) }
func (r *recordingTool) Pending() []tiles.LatLng { return r.clicks }

func TestView_ToolCapturesClicks(t *testing.T) {
	v, _ := newView(t, nil)
	frame(v, image.Pt(800, 600))

	tool := &recordingTool{}
	v.SetTool(tool)
	v.click(f32.Pt(400, 300))
	frame(v, image.Pt(800, 600))
	require.Len(t, tool.clicks, 1)
	assert.InDelta(t, santaMonica.Lat, tool.clicks[0].Lat, 1e-9)

	v.SetTool(nil)
	v.click(f32.Pt(400, 300))
	assert.Len(t, tool.clicks, 1)
}

type stubComponent struct{ name string }

func (stubComponent) Layout(gtx layout.Context) layout.Dimensions {
	return layout.Dimensions{Size: image.Pt(20, 20)}
}

func TestUI_KeepsInsertionOrder(t *testing.T) {
	ui := NewUI()
	ui.Add(TopRight, stubComponent{"search"}, stubComponent{"gallery"})
	ui.Add(TopRight, stubComponent{"sketch"})
	ui.Add(BottomLeft, stubComponent{"coords"})

	var names []string
	for _, c := range ui.Components(TopRight) {
		names = append(names, c.(stubComponent).name)
	}
	assert.Equal(t, []string{"search", "gallery", "sketch"}, names)
	assert.Len(t, ui.Components(BottomLeft), 1)
	assert.Empty(t, ui.Components(TopLeft))
}
