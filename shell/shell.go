// Package shell is the application frame around the map: a title bar, the
// loading backdrop shown until the map is ready, and the layer loading
// indicator.
package shell

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"github.com/sirupsen/logrus"

	"github.com/olablt/gio-maps/component"
	"github.com/olablt/gio-maps/provider"
)

var (
	// Primary is the accent colour of the title bar and spinner.
	Primary  = color.NRGBA{R: 0x2a, G: 0x59, B: 0x7e, A: 0xff}
	backdrop = color.NRGBA{A: 230}
	white    = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	failure  = color.NRGBA{R: 0xff, G: 0x8a, B: 0x80, A: 0xff}
)

// State is what the shell shows besides the map.
type State struct {
	Loading       bool
	LayersLoading bool
	Err           error
}

type Shell struct {
	Title string

	th  *material.Theme
	m   *component.Map
	log logrus.FieldLogger

	mu        sync.Mutex
	state     State
	container provider.Container

	// pointer target of the backdrop
	blocker int
}

// New wires the shell to m's events. The map is not started until Start.
func New(th *material.Theme, title string, m *component.Map, log logrus.FieldLogger) *Shell {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Shell{
		Title: title,
		th:    th,
		m:     m,
		log:   log.WithField("component", "shell"),
		state: State{Loading: true},
	}
	m.OnMapLoaded(s.MapLoaded)
	m.OnLayersLoaded(s.LayersLoaded)
	m.OnFailed(s.Failed)
	return s
}

func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MapLoaded hides the loading backdrop for good.
func (s *Shell) MapLoaded(bool) {
	s.update(func(st *State) { st.Loading = false })
	s.log.Info("map loaded")
}

func (s *Shell) LayersLoaded(v bool) {
	s.update(func(st *State) { st.LayersLoading = v })
}

// Failed shows err in place of the spinner. The backdrop stays up.
func (s *Shell) Failed(err error) {
	s.update(func(st *State) { st.Err = err })
	s.log.Errorf("map failed: %v", err)
}

func (s *Shell) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	c := s.container
	s.mu.Unlock()
	if c != nil {
		c.Invalidate()
	}
}

// Start initializes the map inside c.
func (s *Shell) Start(ctx context.Context, c provider.Container) error {
	s.mu.Lock()
	s.container = c
	s.mu.Unlock()
	return s.m.Init(ctx, c)
}

// Close destroys the map.
func (s *Shell) Close() {
	s.m.Destroy()
	s.mu.Lock()
	s.container = nil
	s.mu.Unlock()
}

func (s *Shell) Layout(gtx layout.Context) layout.Dimensions {
	st := s.State()
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(s.layoutToolbar),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Stack{}.Layout(gtx,
				layout.Expanded(s.m.Layout),
				layout.Expanded(func(gtx layout.Context) layout.Dimensions {
					if st.Loading {
						return s.layoutBackdrop(gtx, st.Err)
					}
					if st.LayersLoading {
						return s.layoutLayersLoading(gtx)
					}
					return layout.Dimensions{}
				}),
			)
		}),
	)
}

func (s *Shell) layoutToolbar(gtx layout.Context) layout.Dimensions {
	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			defer clip.Rect{Max: gtx.Constraints.Min}.Push(gtx.Ops).Pop()
			paint.Fill(gtx.Ops, Primary)
			return layout.Dimensions{Size: gtx.Constraints.Min}
		},
		func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min.X = gtx.Constraints.Max.X
			return layout.Inset{Top: unit.Dp(10), Bottom: unit.Dp(10), Left: unit.Dp(16), Right: unit.Dp(16)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				l := material.H6(s.th, s.Title)
				l.Color = white
				return l.Layout(gtx)
			})
		},
	)
}

// layoutBackdrop covers the map and swallows pointer input.
func (s *Shell) layoutBackdrop(gtx layout.Context, err error) layout.Dimensions {
	size := gtx.Constraints.Max
	for {
		_, ok := gtx.Event(pointer.Filter{
			Target:  &s.blocker,
			Kinds:   pointer.Press | pointer.Release | pointer.Drag | pointer.Move | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -10, Max: 10},
		})
		if !ok {
			break
		}
	}

	area := clip.Rect{Max: size}.Push(gtx.Ops)
	event.Op(gtx.Ops, &s.blocker)
	paint.Fill(gtx.Ops, backdrop)
	area.Pop()

	gtx.Constraints.Min = size
	layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		if err != nil {
			return s.layoutFailure(gtx, err)
		}
		gtx.Constraints.Max = image.Pt(gtx.Dp(unit.Dp(48)), gtx.Dp(unit.Dp(48)))
		gtx.Constraints.Min = gtx.Constraints.Max
		loader := material.Loader(s.th)
		loader.Color = Primary
		return loader.Layout(gtx)
	})
	return layout.Dimensions{Size: size}
}

func (s *Shell) layoutFailure(gtx layout.Context, err error) layout.Dimensions {
	gtx.Constraints.Max.X = min(gtx.Constraints.Max.X, gtx.Dp(unit.Dp(420)))
	return layout.Flex{Axis: layout.Vertical, Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			l := material.H6(s.th, "The map could not be loaded")
			l.Color = failure
			return l.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			l := material.Body2(s.th, fmt.Sprint(err))
			l.Color = white
			return l.Layout(gtx)
		}),
	)
}

func (s *Shell) layoutLayersLoading(gtx layout.Context) layout.Dimensions {
	size := gtx.Constraints.Max
	strip := clip.Rect{Max: image.Pt(size.X, gtx.Dp(unit.Dp(3)))}.Push(gtx.Ops)
	paint.Fill(gtx.Ops, Primary)
	strip.Pop()

	gtx.Constraints.Min = size
	layout.S.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			c := material.Caption(s.th, "Loading layers…")
			c.Color = Primary
			return c.Layout(gtx)
		})
	})
	return layout.Dimensions{Size: size}
}
