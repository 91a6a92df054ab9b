package widgets

import (
	"strconv"
	"strings"
	"sync"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/paulmach/orb/geojson"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/mapview"
	"github.com/olablt/gio-maps/tiles"
)

const (
	DefaultSearchLimit = 6
	// zoom used when jumping to a result
	SearchZoom = 15
)

// Result is one search hit.
type Result struct {
	Layer    *layers.Layer
	Feature  *geojson.Feature
	Label    string
	Location tiles.LatLng
}

// Find matches query case-insensitively against the display field of every
// layer that has one. Top-most layers come first.
func Find(stack *layers.Stack, query string, limit int) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || stack == nil {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	ls := stack.Layers()
	var out []Result
	for i := len(ls) - 1; i >= 0; i-- {
		l := ls[i]
		field := l.DisplayField()
		if field == "" {
			continue
		}
		for _, f := range l.Features() {
			if f.Geometry == nil {
				continue
			}
			label := layers.FormatValue(f.Properties[field])
			if label == "" || !strings.Contains(strings.ToLower(label), q) {
				continue
			}
			out = append(out, Result{
				Layer:    l,
				Feature:  f,
				Label:    label,
				Location: tiles.FromPoint(f.Geometry.Bound().Center()),
			})
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// ParseLatLon reads "lat, lon" or "lat lon".
func ParseLatLon(s string) (tiles.LatLng, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(parts) != 2 {
		return tiles.LatLng{}, false
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return tiles.LatLng{}, false
	}
	lng, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return tiles.LatLng{}, false
	}
	ll := tiles.LatLng{Lat: lat, Lng: lng}
	return ll, ll.Valid()
}

// Search finds features by name or jumps to typed coordinates.
type Search struct {
	Limit int

	th     *material.Theme
	nav    Navigator
	stack  *layers.Stack
	editor widget.Editor

	mu      sync.Mutex
	results []Result
	picks   []widget.Clickable
}

func NewSearch(th *material.Theme, nav Navigator, stack *layers.Stack) *Search {
	s := &Search{th: th, nav: nav, stack: stack, Limit: DefaultSearchLimit}
	s.editor.SingleLine = true
	s.editor.Submit = true
	return s
}

func (s *Search) Kind() Kind { return KindSearch }

// Submit runs a query. Coordinates recentre the view directly and yield no
// results.
func (s *Search) Submit(query string) []Result {
	if ll, ok := ParseLatLon(query); ok {
		s.nav.GoTo(ll, SearchZoom)
		s.setResults(nil)
		return nil
	}
	res := Find(s.stack, query, s.Limit)
	s.setResults(res)
	return res
}

func (s *Search) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

// Pick recentres the view on result i and selects its feature when the
// navigator supports selection.
func (s *Search) Pick(i int) bool {
	s.mu.Lock()
	if i < 0 || i >= len(s.results) {
		s.mu.Unlock()
		return false
	}
	r := s.results[i]
	s.mu.Unlock()

	s.nav.GoTo(r.Location, SearchZoom)
	if sel, ok := s.nav.(interface{ Select(mapview.Selection) }); ok {
		sel.Select(mapview.Selection{Layer: r.Layer, Feature: r.Feature})
	}
	s.setResults(nil)
	return true
}

func (s *Search) setResults(res []Result) {
	s.mu.Lock()
	s.results = res
	s.picks = make([]widget.Clickable, len(res))
	s.mu.Unlock()
}

func (s *Search) Layout(gtx layout.Context) layout.Dimensions {
	for {
		ev, ok := s.editor.Update(gtx)
		if !ok {
			break
		}
		if e, ok := ev.(widget.SubmitEvent); ok {
			s.Submit(e.Text)
		}
	}

	s.mu.Lock()
	picked := -1
	for i := range s.picks {
		if s.picks[i].Clicked(gtx) {
			picked = i
			break
		}
	}
	s.mu.Unlock()
	if picked >= 0 {
		s.Pick(picked)
	}

	gtx = maxWidth(gtx, unit.Dp(260))
	gtx.Constraints.Min.X = gtx.Constraints.Max.X

	s.mu.Lock()
	defer s.mu.Unlock()
	children := []layout.FlexChild{
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.Editor(s.th, &s.editor, "Find trails, parks or lat, lon").Layout(gtx)
		}),
	}
	for i := range s.results {
		r := s.results[i]
		click := &s.picks[i]
		children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.Clickable(gtx, click, func(gtx layout.Context) layout.Dimensions {
				return layout.Inset{Top: unit.Dp(6), Bottom: unit.Dp(2)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(material.Body2(s.th, r.Label).Layout),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							c := material.Caption(s.th, r.Layer.Title())
							c.Color = mutedColor
							return c.Layout(gtx)
						}),
					)
				})
			})
		}))
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
}
