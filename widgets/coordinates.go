package widgets

import (
	"fmt"
	"image/color"
	"sync"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/olablt/gio-maps/tiles"
)

// FormatCoordinates renders ll the way the coordinate overlay shows it.
func FormatCoordinates(ll tiles.LatLng) string {
	return fmt.Sprintf("Lat: %.3f | Long: %.3f", ll.Lat, ll.Lng)
}

// Coordinates is a small white box showing a line of text.
type Coordinates struct {
	th *material.Theme

	mu   sync.Mutex
	text string
}

func NewCoordinates(th *material.Theme) *Coordinates {
	return &Coordinates{th: th}
}

func (c *Coordinates) Kind() Kind { return KindCoordinates }

func (c *Coordinates) SetText(s string) {
	c.mu.Lock()
	c.text = s
	c.mu.Unlock()
}

func (c *Coordinates) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func (c *Coordinates) Layout(gtx layout.Context) layout.Dimensions {
	txt := c.Text()
	if txt == "" {
		return layout.Dimensions{}
	}
	return panel(gtx, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, unit.Dp(6), func(gtx layout.Context) layout.Dimensions {
		l := material.Body2(c.th, txt)
		l.Color = color.NRGBA{A: 255}
		return l.Layout(gtx)
	})
}
