package widgets

import (
	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/sirupsen/logrus"

	"github.com/olablt/gio-maps/tiles"
)

// BasemapGallery lists the basemap catalog and switches the view's basemap.
type BasemapGallery struct {
	th    *material.Theme
	sw    BasemapSwitcher
	log   logrus.FieldLogger
	items []tiles.Basemap

	clicks []widget.Clickable
	list   widget.List
}

func NewBasemapGallery(th *material.Theme, sw BasemapSwitcher, log logrus.FieldLogger) *BasemapGallery {
	if log == nil {
		log = logrus.StandardLogger()
	}
	items := tiles.Basemaps()
	g := &BasemapGallery{
		th:     th,
		sw:     sw,
		log:    log.WithField("component", "basemap-gallery"),
		items:  items,
		clicks: make([]widget.Clickable, len(items)),
	}
	g.list.Axis = layout.Vertical
	return g
}

func (g *BasemapGallery) Kind() Kind { return KindBasemapGallery }

func (g *BasemapGallery) Items() []tiles.Basemap { return g.items }

func (g *BasemapGallery) Select(id string) error {
	return g.sw.SetBasemap(id)
}

func (g *BasemapGallery) Layout(gtx layout.Context) layout.Dimensions {
	for i := range g.clicks {
		if g.clicks[i].Clicked(gtx) {
			if err := g.Select(g.items[i].ID); err != nil {
				g.log.Errorf("switch basemap: %v", err)
			}
		}
	}
	active := g.sw.Basemap()

	gtx = maxWidth(gtx, unit.Dp(220))
	gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, gtx.Dp(unit.Dp(280)))
	return material.List(g.th, &g.list).Layout(gtx, len(g.items), func(gtx layout.Context, i int) layout.Dimensions {
		b := g.items[i]
		return material.Clickable(gtx, &g.clicks[i], func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(4)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				l := material.Body2(g.th, b.Title)
				if b.ID == active {
					l.Color = activeColor
					l.Font.Weight = font.Bold
				}
				return l.Layout(gtx)
			})
		})
	})
}
