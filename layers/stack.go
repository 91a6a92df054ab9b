package layers

import (
	"context"
	"net/http"
	"sync"

	"github.com/olablt/gio-maps/observe"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// Stack is the ordered set of layers of a map. Index 0 is painted first.
type Stack struct {
	mu     sync.RWMutex
	layers []*Layer

	client      *http.Client
	concurrency int
	log         logrus.FieldLogger
}

func NewStack(client *http.Client, log logrus.FieldLogger) *Stack {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Stack{
		client:      client,
		concurrency: DefaultConcurrency,
		log:         log.WithField("component", "layers"),
	}
}

// Build creates a stack from descriptors, keeping their order.
func Build(descs []Descriptor, client *http.Client, log logrus.FieldLogger) (*Stack, error) {
	s := NewStack(client, log)
	for i, d := range descs {
		if d.Symbology == nil && d.Kind != KindGraphics {
			sym := DefaultSymbology(i)
			d.Symbology = &sym
		}
		l, err := New(d)
		if err != nil {
			return nil, err
		}
		s.Add(l)
	}
	return s, nil
}

func (s *Stack) Add(l ...*Layer) {
	s.mu.Lock()
	s.layers = append(s.layers, l...)
	s.mu.Unlock()
}

// Layers returns the layers bottom to top.
func (s *Stack) Layers() []*Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

func (s *Stack) Find(id string) *Layer {
	for _, l := range s.Layers() {
		if l.ID() == id {
			return l
		}
	}
	return nil
}

// FirstOfKind returns the lowest layer of kind k.
func (s *Stack) FirstOfKind(k Kind) *Layer {
	for _, l := range s.Layers() {
		if l.Kind() == k {
			return l
		}
	}
	return nil
}

// LoadAll loads every fetchable layer concurrently. All jobs are registered
// with activity before the first one starts, so activity stays busy until
// the last layer settles. A failing layer is logged and keeps its error; it
// does not stop the others.
func (s *Stack) LoadAll(ctx context.Context, activity *observe.Activity) error {
	var pending []*Layer
	for _, l := range s.Layers() {
		if l.Fetchable() && l.Status() == StatusNotLoaded {
			pending = append(pending, l)
		}
	}

	dones := make([]func(), len(pending))
	for i := range pending {
		dones[i] = func() {}
		if activity != nil {
			dones[i] = activity.Begin()
		}
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, l := range pending {
		i, l := i, l
		g.Go(func() error {
			defer dones[i]()
			if err := l.Load(ctx, s.client); err != nil {
				s.log.WithError(err).Warnf("layer %s failed to load", l.Title())
				return nil
			}
			s.log.Debugf("layer %s loaded %d features", l.Title(), len(l.Features()))
			return nil
		})
	}
	g.Wait()
	return ctx.Err()
}

// HitTest returns the top-most visible feature within tolerance (in
// degrees) of p.
func (s *Stack) HitTest(p orb.Point, tolerance float64) (*Layer, *geojson.Feature) {
	layers := s.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if !l.Visible() {
			continue
		}
		fs := l.Features()
		for j := len(fs) - 1; j >= 0; j-- {
			if hit(fs[j].Geometry, p, tolerance) {
				return l, fs[j]
			}
		}
	}
	return nil, nil
}

func hit(g orb.Geometry, p orb.Point, tolerance float64) bool {
	if g == nil || !g.Bound().Pad(tolerance).Contains(p) {
		return false
	}
	switch g := g.(type) {
	case orb.Polygon:
		if planar.PolygonContains(g, p) {
			return true
		}
	case orb.MultiPolygon:
		if planar.MultiPolygonContains(g, p) {
			return true
		}
	case orb.Collection:
		for _, c := range g {
			if hit(c, p, tolerance) {
				return true
			}
		}
		return false
	}
	return planar.DistanceFrom(g, p) <= tolerance
}
