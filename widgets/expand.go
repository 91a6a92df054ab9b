package widgets

import (
	"sync"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/olablt/gio-maps/mapview"
)

// ExpandGroup lets at most one of its members be expanded.
type ExpandGroup struct {
	mu      sync.Mutex
	members []*Expand
}

func (g *ExpandGroup) add(e *Expand) {
	g.mu.Lock()
	g.members = append(g.members, e)
	g.mu.Unlock()
}

func (g *ExpandGroup) collapseOthers(e *Expand) {
	g.mu.Lock()
	members := append([]*Expand(nil), g.members...)
	g.mu.Unlock()
	for _, m := range members {
		if m != e {
			m.set(false)
		}
	}
}

// Expand is a button that shows or hides its content below it.
type Expand struct {
	Title   string
	Content mapview.Component

	th    *material.Theme
	group *ExpandGroup
	btn   widget.Clickable

	mu       sync.Mutex
	expanded bool
}

// NewExpand wraps content. group may be nil.
func NewExpand(th *material.Theme, title string, content mapview.Component, group *ExpandGroup) *Expand {
	e := &Expand{Title: title, Content: content, th: th, group: group}
	if group != nil {
		group.add(e)
	}
	return e
}

func (e *Expand) Kind() Kind { return KindExpand }

func (e *Expand) Expanded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded
}

func (e *Expand) SetExpanded(v bool) {
	if v && e.group != nil {
		e.group.collapseOthers(e)
	}
	e.set(v)
}

func (e *Expand) Toggle() {
	e.SetExpanded(!e.Expanded())
}

func (e *Expand) set(v bool) {
	e.mu.Lock()
	e.expanded = v
	e.mu.Unlock()
}

func (e *Expand) Layout(gtx layout.Context) layout.Dimensions {
	if e.btn.Clicked(gtx) {
		e.Toggle()
	}
	expanded := e.Expanded()

	return layout.Flex{Axis: layout.Vertical, Alignment: layout.End}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			b := material.Button(e.th, &e.btn, e.Title)
			if expanded {
				b.Background = activeColor
			}
			return b.Layout(gtx)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if !expanded || e.Content == nil {
				return layout.Dimensions{}
			}
			return layout.Inset{Top: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return panel(gtx, panelColor, unit.Dp(8), e.Content.Layout)
			})
		}),
	)
}
