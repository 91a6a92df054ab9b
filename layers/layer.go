// Package layers holds the data layers drawn over the basemap: remote
// feature services, GeoJSON sources and the in-memory graphics layer the
// sketch tool draws into.
package layers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/teris-io/shortid"
)

type Kind string

const (
	KindFeature  Kind = "feature"
	KindGeoJSON  Kind = "geojson"
	KindGraphics Kind = "graphics"
)

type ListMode string

const (
	ListShow ListMode = "show"
	ListHide ListMode = "hide"
)

type Status int

const (
	StatusNotLoaded Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "not-loaded"
	}
}

var (
	ErrNoSource      = errors.New("layer has no source")
	ErrUnknownKind   = errors.New("unknown layer kind")
	ErrNotEditable   = errors.New("feature does not belong to layer")
	maxResponseBytes = int64(64 << 20)
)

// FieldConfig names an editable attribute and its label.
type FieldConfig struct {
	Name  string
	Label string
}

// Descriptor is the static definition of a layer.
type Descriptor struct {
	ID           string
	Title        string
	Kind         Kind
	URL          string
	Inline       []byte
	DisplayField string
	Popup        *PopupTemplate
	ListMode     ListMode
	// Fields are the attributes the editor may change.
	Fields    []FieldConfig
	Symbology *Symbology
}

// Layer is a loaded (or loading) Descriptor.
type Layer struct {
	desc Descriptor

	mu        sync.RWMutex
	features  []*geojson.Feature
	status    Status
	err       error
	visible   bool
	symbology Symbology
}

func New(d Descriptor) (*Layer, error) {
	switch d.Kind {
	case KindFeature:
		if d.URL == "" {
			return nil, fmt.Errorf("feature layer %q: %w", d.Title, ErrNoSource)
		}
	case KindGeoJSON:
		if d.URL == "" && len(d.Inline) == 0 {
			return nil, fmt.Errorf("geojson layer %q: %w", d.Title, ErrNoSource)
		}
	case KindGraphics:
	default:
		return nil, fmt.Errorf("layer %q: %w: %q", d.Title, ErrUnknownKind, d.Kind)
	}
	if d.ID == "" {
		id, err := shortid.Generate()
		if err != nil {
			return nil, fmt.Errorf("layer id: %w", err)
		}
		d.ID = id
	}
	if d.ListMode == "" {
		d.ListMode = ListShow
	}
	l := &Layer{desc: d, visible: true}
	if d.Symbology != nil {
		l.symbology = *d.Symbology
	} else {
		l.symbology = DefaultSymbology(0)
	}
	if d.Kind == KindGraphics {
		l.status = StatusLoaded
	}
	return l, nil
}

func (l *Layer) ID() string             { return l.desc.ID }
func (l *Layer) Title() string          { return l.desc.Title }
func (l *Layer) Kind() Kind             { return l.desc.Kind }
func (l *Layer) DisplayField() string   { return l.desc.DisplayField }
func (l *Layer) Popup() *PopupTemplate  { return l.desc.Popup }
func (l *Layer) ListMode() ListMode     { return l.desc.ListMode }
func (l *Layer) Fields() []FieldConfig  { return l.desc.Fields }
func (l *Layer) Descriptor() Descriptor { return l.desc }
func (l *Layer) Fetchable() bool        { return l.desc.Kind != KindGraphics }

func (l *Layer) Visible() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.visible
}

func (l *Layer) SetVisible(v bool) {
	l.mu.Lock()
	l.visible = v
	l.mu.Unlock()
}

func (l *Layer) Symbology() Symbology {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.symbology
}

func (l *Layer) SetSymbology(s Symbology) {
	l.mu.Lock()
	l.symbology = s
	l.mu.Unlock()
}

func (l *Layer) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Err returns the last load error.
func (l *Layer) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Features returns a snapshot of the layer's features.
func (l *Layer) Features() []*geojson.Feature {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*geojson.Feature, len(l.features))
	copy(out, l.features)
	return out
}

// Add appends a feature built from g and returns it.
func (l *Layer) Add(g orb.Geometry, props geojson.Properties) (*geojson.Feature, error) {
	f := geojson.NewFeature(g)
	id, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("graphic id: %w", err)
	}
	f.ID = id
	for k, v := range props {
		f.Properties[k] = v
	}
	l.mu.Lock()
	l.features = append(l.features, f)
	l.mu.Unlock()
	return f, nil
}

// Clear removes all features.
func (l *Layer) Clear() {
	l.mu.Lock()
	l.features = nil
	l.mu.Unlock()
}

// Contains reports whether f belongs to the layer.
func (l *Layer) Contains(f *geojson.Feature) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, have := range l.features {
		if have == f {
			return true
		}
	}
	return false
}

// UpdateAttributes writes values into f's properties. Only fields listed in
// the descriptor are written.
func (l *Layer) UpdateAttributes(f *geojson.Feature, values map[string]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	found := false
	for _, have := range l.features {
		if have == f {
			found = true
			break
		}
	}
	if !found {
		return ErrNotEditable
	}
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}
	for _, fc := range l.desc.Fields {
		if v, ok := values[fc.Name]; ok {
			f.Properties[fc.Name] = v
		}
	}
	return nil
}

// Load fetches or decodes the layer's features.
func (l *Layer) Load(ctx context.Context, client *http.Client) error {
	if !l.Fetchable() {
		return nil
	}
	l.setStatus(StatusLoading, nil)

	var (
		fc  *geojson.FeatureCollection
		err error
	)
	switch {
	case len(l.desc.Inline) > 0:
		fc, err = geojson.UnmarshalFeatureCollection(l.desc.Inline)
	case l.desc.Kind == KindFeature:
		fc, err = fetch(ctx, client, QueryURL(l.desc.URL))
	default:
		fc, err = fetch(ctx, client, l.desc.URL)
	}
	if err != nil {
		err = fmt.Errorf("load layer %q: %w", l.desc.Title, err)
		l.setStatus(StatusFailed, err)
		return err
	}

	l.mu.Lock()
	l.features = fc.Features
	l.status = StatusLoaded
	l.err = nil
	l.mu.Unlock()
	return nil
}

func (l *Layer) setStatus(s Status, err error) {
	l.mu.Lock()
	l.status = s
	l.err = err
	l.mu.Unlock()
}

// QueryURL turns a feature service URL into a GeoJSON query for all
// features. URLs that already address a query endpoint are used as is.
func QueryURL(service string) string {
	u, err := url.Parse(service)
	if err != nil {
		return service
	}
	if strings.Contains(strings.ToLower(u.Path), "/query") {
		return service
	}
	u.Path = strings.TrimRight(u.Path, "/")
	if strings.HasSuffix(strings.ToLower(u.Path), "/featureserver") {
		u.Path += "/0"
	}
	u.Path += "/query"
	q := u.Query()
	q.Set("where", "1=1")
	q.Set("outFields", "*")
	q.Set("returnGeometry", "true")
	q.Set("outSR", "4326")
	q.Set("f", "geojson")
	u.RawQuery = q.Encode()
	return u.String()
}

func fetch(ctx context.Context, client *http.Client, rawURL string) (*geojson.FeatureCollection, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	return geojson.UnmarshalFeatureCollection(body)
}
