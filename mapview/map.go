package mapview

import (
	"sync"

	"gioui.org/layout"
	"gioui.org/unit"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/tiles"
)

// Map pairs a basemap with the ordered data layers drawn over it.
type Map struct {
	mu      sync.RWMutex
	basemap tiles.Basemap
	Layers  *layers.Stack
}

func NewMap(basemap tiles.Basemap, stack *layers.Stack) *Map {
	if stack == nil {
		stack = layers.NewStack(nil, nil)
	}
	return &Map{basemap: basemap, Layers: stack}
}

func (m *Map) Basemap() tiles.Basemap {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.basemap
}

func (m *Map) SetBasemap(b tiles.Basemap) {
	m.mu.Lock()
	m.basemap = b
	m.mu.Unlock()
}

// Position names a UI region of the view.
type Position string

const (
	TopLeft     Position = "top-left"
	TopRight    Position = "top-right"
	BottomLeft  Position = "bottom-left"
	BottomRight Position = "bottom-right"
)

var regions = []struct {
	pos Position
	dir layout.Direction
}{
	{TopLeft, layout.NW},
	{TopRight, layout.NE},
	{BottomLeft, layout.SW},
	{BottomRight, layout.SE},
}

// Component is anything that can be docked into a UI region.
type Component interface {
	Layout(gtx layout.Context) layout.Dimensions
}

// UI holds the components docked into each region, in insertion order.
type UI struct {
	mu      sync.Mutex
	docked  map[Position][]Component
	Margin  unit.Dp
	Spacing unit.Dp
}

func NewUI() *UI {
	return &UI{
		docked:  make(map[Position][]Component),
		Margin:  unit.Dp(12),
		Spacing: unit.Dp(6),
	}
}

// Add appends components to a region; they are laid out left to right.
func (u *UI) Add(pos Position, cs ...Component) {
	u.mu.Lock()
	u.docked[pos] = append(u.docked[pos], cs...)
	u.mu.Unlock()
}

// Components returns the components docked at pos.
func (u *UI) Components(pos Position) []Component {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Component, len(u.docked[pos]))
	copy(out, u.docked[pos])
	return out
}

func (u *UI) Layout(gtx layout.Context) layout.Dimensions {
	for _, r := range regions {
		cs := u.Components(r.pos)
		if len(cs) == 0 {
			continue
		}
		r.dir.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(u.Margin).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return u.row(gtx, cs)
			})
		})
	}
	return layout.Dimensions{Size: gtx.Constraints.Max}
}

func (u *UI) row(gtx layout.Context, cs []Component) layout.Dimensions {
	children := make([]layout.FlexChild, 0, len(cs))
	for i, c := range cs {
		c := c
		inset := layout.Inset{}
		if i < len(cs)-1 {
			inset.Right = u.Spacing
		}
		children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return inset.Layout(gtx, c.Layout)
		}))
	}
	return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Start}.Layout(gtx, children...)
}
