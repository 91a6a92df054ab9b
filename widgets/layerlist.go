package widgets

import (
	"sync"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/olablt/gio-maps/layers"
)

// LayerList shows the listed layers, top-most first, with a visibility
// toggle each.
type LayerList struct {
	th    *material.Theme
	stack *layers.Stack

	mu      sync.Mutex
	toggles map[string]*widget.Bool
	list    widget.List
}

func NewLayerList(th *material.Theme, stack *layers.Stack) *LayerList {
	l := &LayerList{th: th, stack: stack, toggles: make(map[string]*widget.Bool)}
	l.list.Axis = layout.Vertical
	return l
}

func (l *LayerList) Kind() Kind { return KindLayerList }

// Items returns the layers shown in the list.
func (l *LayerList) Items() []*layers.Layer {
	all := l.stack.Layers()
	out := make([]*layers.Layer, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].ListMode() != layers.ListHide {
			out = append(out, all[i])
		}
	}
	return out
}

func (l *LayerList) toggle(layer *layers.Layer) *widget.Bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.toggles[layer.ID()]
	if !ok {
		b = &widget.Bool{}
		l.toggles[layer.ID()] = b
	}
	return b
}

func (l *LayerList) Layout(gtx layout.Context) layout.Dimensions {
	items := l.Items()

	gtx = maxWidth(gtx, unit.Dp(240))
	gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, gtx.Dp(unit.Dp(300)))
	return material.List(l.th, &l.list).Layout(gtx, len(items), func(gtx layout.Context, i int) layout.Dimensions {
		layer := items[i]
		b := l.toggle(layer)
		if b.Update(gtx) {
			layer.SetVisible(b.Value)
			gtx.Execute(op.InvalidateCmd{})
		}
		b.Value = layer.Visible()

		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(material.CheckBox(l.th, b, layer.Title()).Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				switch layer.Status() {
				case layers.StatusLoading:
					c := material.Caption(l.th, "Loading…")
					c.Color = mutedColor
					return layout.Inset{Left: unit.Dp(32)}.Layout(gtx, c.Layout)
				case layers.StatusFailed:
					c := material.Caption(l.th, "Failed to load")
					c.Color = errorColor
					return layout.Inset{Left: unit.Dp(32)}.Layout(gtx, c.Layout)
				}
				return layout.Dimensions{}
			}),
		)
	})
}
