package shell

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/widget/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/olablt/gio-maps/component"
	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/provider"
	"github.com/olablt/gio-maps/provider/providertest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type window struct{ frames atomic.Int32 }

func (w *window) Invalidate() { w.frames.Add(1) }

func theme() *material.Theme {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	return th
}

func newShell(p *providertest.Provider) (*Shell, *component.Map) {
	m := component.New(component.Options{
		Provider: p,
		Layers: []layers.Descriptor{
			{ID: "graphics", Kind: layers.KindGraphics, ListMode: layers.ListHide},
		},
	})
	m.SetZoom(10)
	m.SetCenter([2]float64{-118.65, 34.09})
	m.SetBasemap("dark-gray-vector")
	return New(theme(), "Trail Map", m, nil), m
}

func TestShell_InitialState(t *testing.T) {
	s, _ := newShell(providertest.New())
	assert.Equal(t, State{Loading: true}, s.State())
}

func TestShell_LoadingClearsWhenMapLoads(t *testing.T) {
	p := providertest.New()
	p.AutoReady = true
	s, m := newShell(p)
	w := &window{}

	require.NoError(t, s.Start(context.Background(), w))
	defer s.Close()
	m.Wait()

	require.Eventually(t, func() bool { return !s.State().Loading }, time.Second, time.Millisecond)
	assert.NoError(t, s.State().Err)
	assert.Positive(t, w.frames.Load())

	// loading never comes back
	s.LayersLoaded(true)
	assert.Equal(t, State{LayersLoading: true}, s.State())
	s.LayersLoaded(true)
	assert.Equal(t, State{LayersLoading: true}, s.State())
	s.LayersLoaded(false)
	assert.Equal(t, State{}, s.State())
	s.LayersLoaded(false)
	assert.Equal(t, State{}, s.State())
}

func TestShell_NativeMapLoadsAfterFrames(t *testing.T) {
	engine := provider.NewGio(provider.GioOptions{Offline: true})
	defer engine.Close()
	m := component.New(component.Options{
		Provider: engine,
		Layers: []layers.Descriptor{
			{ID: "graphics", Kind: layers.KindGraphics, ListMode: layers.ListHide},
		},
	})
	m.SetCenter([2]float64{-118.65, 34.09})
	m.SetBasemap("dark-gray-vector")
	s := New(theme(), "Trail Map", m, nil)
	w := &window{}

	require.NoError(t, s.Start(context.Background(), w))
	defer s.Close()
	assert.True(t, s.State().Loading)

	size := image.Pt(1024, 768)
	require.Eventually(t, func() bool {
		gtx := layout.Context{Ops: new(op.Ops), Constraints: layout.Exact(size)}
		s.Layout(gtx)
		return !s.State().Loading
	}, 2*time.Second, 10*time.Millisecond)
	m.Wait()

	assert.NoError(t, s.State().Err)
	require.NotNil(t, m.View())
	assert.True(t, m.View().Ready())
}

func TestShell_FailureKeepsBackdrop(t *testing.T) {
	p := providertest.New()
	p.LoadErr = errors.New("engine unavailable")
	s, m := newShell(p)

	require.NoError(t, s.Start(context.Background(), &window{}))
	defer s.Close()
	m.Wait()

	st := s.State()
	assert.True(t, st.Loading)
	assert.ErrorIs(t, st.Err, p.LoadErr)
}

func TestShell_Layout(t *testing.T) {
	s, _ := newShell(providertest.New())
	size := image.Pt(1024, 768)

	for _, st := range []State{
		{Loading: true},
		{Loading: true, Err: errors.New("boom")},
		{LayersLoading: true},
		{},
	} {
		s.update(func(have *State) { *have = st })
		gtx := layout.Context{Ops: new(op.Ops), Constraints: layout.Exact(size)}
		dims := s.Layout(gtx)
		assert.Equal(t, size, dims.Size)
	}
}
