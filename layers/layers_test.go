package layers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olablt/gio-maps/observe"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trailheadsJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": 1, "geometry": {"type": "Point", "coordinates": [-118.65, 34.09]},
     "properties": {"TRL_NAME": "Backbone Trail", "CITY_JUR": "Malibu", "ELEV_FT": 1200}},
    {"type": "Feature", "id": 2, "geometry": {"type": "Point", "coordinates": [-118.80, 34.10]},
     "properties": {"TRL_NAME": "Mishe Mokwa", "CITY_JUR": "Agoura Hills", "ELEV_FT": 2100}}
  ]
}`

func TestPopupTemplate_Render(t *testing.T) {
	f := geojson.NewFeature(orb.Point{-118.65, 34.09})
	f.Properties["TRL_NAME"] = "Backbone Trail"
	f.Properties["ELEV_GAIN"] = 1500.0
	f.Properties["CITY_JUR"] = "Malibu"

	tmpl := &PopupTemplate{
		Title:     "{TRL_NAME}",
		Content:   "City: {CITY_JUR}, parking: {PARKING}",
		OutFields: []string{"TRL_NAME", "ELEV_GAIN"},
	}
	p := tmpl.Render(f)
	assert.Equal(t, "Backbone Trail", p.Title)
	assert.Equal(t, "City: Malibu, parking: ", p.Content)
	assert.Equal(t, []Field{{"TRL_NAME", "Backbone Trail"}, {"ELEV_GAIN", "1500"}}, p.Fields)
}

func TestPopupTemplate_ContentFuncIsInterpolated(t *testing.T) {
	f := geojson.NewFeature(orb.Point{})
	f.Properties["TRL_NAME"] = "Sandstone Peak"
	f.Properties["ELEV_GAIN"] = 1100.0

	tmpl := &PopupTemplate{
		Title: "Trail Information",
		ContentFunc: func(*geojson.Feature) string {
			return "This is {TRL_NAME} with {ELEV_GAIN} ft of climbing."
		},
		OutFields: []string{"*"},
	}
	p := tmpl.Render(f)
	assert.Equal(t, "This is Sandstone Peak with 1100 ft of climbing.", p.Content)
	assert.Equal(t, []Field{{"ELEV_GAIN", "1100"}, {"TRL_NAME", "Sandstone Peak"}}, p.Fields)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Descriptor{Title: "x", Kind: KindFeature})
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = New(Descriptor{Title: "x", Kind: "tiles"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	l, err := New(Descriptor{Title: "g", Kind: KindGraphics})
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID())
	assert.Equal(t, ListShow, l.ListMode())
	assert.Equal(t, StatusLoaded, l.Status())
}

func TestQueryURL(t *testing.T) {
	got := QueryURL("https://example.com/arcgis/rest/services/Trails/FeatureServer")
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "/arcgis/rest/services/Trails/FeatureServer/0/query", u.Path)
	assert.Equal(t, "1=1", u.Query().Get("where"))
	assert.Equal(t, "*", u.Query().Get("outFields"))
	assert.Equal(t, "geojson", u.Query().Get("f"))

	got = QueryURL("https://example.com/Trails/FeatureServer/2/")
	u, _ = url.Parse(got)
	assert.Equal(t, "/Trails/FeatureServer/2/query", u.Path)

	verbatim := "https://example.com/x/FeatureServer/0/query?where=OBJECTID%3C10&f=pgeojson"
	assert.Equal(t, verbatim, QueryURL(verbatim))
}

func TestLayer_LoadFeatureService(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(trailheadsJSON))
	}))
	defer srv.Close()

	l, err := New(Descriptor{Title: "Trailheads", Kind: KindFeature, URL: srv.URL + "/trailheads/FeatureServer"})
	require.NoError(t, err)
	require.NoError(t, l.Load(context.Background(), srv.Client()))

	assert.Equal(t, "/trailheads/FeatureServer/0/query", gotPath)
	assert.Equal(t, StatusLoaded, l.Status())
	assert.Len(t, l.Features(), 2)
}

func TestLayer_LoadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	l, err := New(Descriptor{Title: "Parks", Kind: KindGeoJSON, URL: srv.URL})
	require.NoError(t, err)
	assert.Error(t, l.Load(context.Background(), srv.Client()))
	assert.Equal(t, StatusFailed, l.Status())
	assert.Error(t, l.Err())
}

func TestLayer_LoadInline(t *testing.T) {
	l, err := New(Descriptor{Title: "inline", Kind: KindGeoJSON, Inline: []byte(trailheadsJSON)})
	require.NoError(t, err)
	require.NoError(t, l.Load(context.Background(), nil))
	assert.Len(t, l.Features(), 2)
}

func TestLayer_UpdateAttributes(t *testing.T) {
	l, err := New(Descriptor{
		Title:  "Trailheads",
		Kind:   KindGeoJSON,
		Inline: []byte(trailheadsJSON),
		Fields: []FieldConfig{{Name: "TRL_NAME", Label: "Trail Name"}},
	})
	require.NoError(t, err)
	require.NoError(t, l.Load(context.Background(), nil))

	f := l.Features()[0]
	require.NoError(t, l.UpdateAttributes(f, map[string]string{"TRL_NAME": "Renamed", "CITY_JUR": "ignored"}))
	assert.Equal(t, "Renamed", f.Properties["TRL_NAME"])
	assert.Equal(t, "Malibu", f.Properties["CITY_JUR"])

	stranger := geojson.NewFeature(orb.Point{})
	assert.ErrorIs(t, l.UpdateAttributes(stranger, nil), ErrNotEditable)
}

func TestStack_OrderAndLookup(t *testing.T) {
	s, err := Build(DefaultDescriptors(), nil, nil)
	require.NoError(t, err)

	var ids []string
	for _, l := range s.Layers() {
		ids = append(ids, l.ID())
	}
	assert.Equal(t, []string{"graphics", "parks", "trails", "parcels", "trailheads"}, ids)
	assert.Equal(t, "graphics", s.FirstOfKind(KindGraphics).ID())
	assert.Equal(t, "Trails", s.Find("trails").Title())
	assert.Nil(t, s.Find("missing"))
}

func TestDefaultDescriptors_ComputedPopups(t *testing.T) {
	popups := map[string]*PopupTemplate{}
	for _, d := range DefaultDescriptors() {
		popups[d.ID] = d.Popup
	}

	park := geojson.NewFeature(orb.Point{-118.7, 34.1})
	park.Properties["PARK_NAME"] = "Malibu Creek"
	park.Properties["ACCESS_TYP"] = "Open"
	require.NotNil(t, popups["parks"].ContentFunc)
	p := popups["parks"].Render(park)
	assert.Equal(t, "Malibu Creek", p.Title)
	assert.Equal(t, "Access Type: Open", p.Content)

	trail := geojson.NewFeature(orb.LineString{{-118.7, 34.1}, {-118.6, 34.2}})
	trail.Properties["TRL_NAME"] = "Backbone"
	require.NotNil(t, popups["trails"].ContentFunc)
	assert.Equal(t, "This is Backbone.", popups["trails"].Render(trail).Content)

	trail.Properties["ELEV_GAIN"] = 1200
	assert.Equal(t, "This is Backbone with 1200 ft of climbing.", popups["trails"].Render(trail).Content)
}

func TestStack_LoadAllAggregatesUpdating(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(trailheadsJSON))
	}))
	defer srv.Close()

	s, err := Build([]Descriptor{
		{Title: "Graphics", Kind: KindGraphics},
		{Title: "A", Kind: KindGeoJSON, URL: srv.URL + "/a"},
		{Title: "B", Kind: KindGeoJSON, URL: srv.URL + "/b"},
		{Title: "Broken", Kind: KindGeoJSON, URL: srv.URL + "/broken"},
	}, srv.Client(), nil)
	require.NoError(t, err)

	activity := observe.NewActivity()
	var mu sync.Mutex
	var seen []bool
	activity.Busy().Watch(func(b bool) {
		mu.Lock()
		seen = append(seen, b)
		mu.Unlock()
	})

	errc := make(chan error, 1)
	go func() { errc <- s.LoadAll(context.Background(), activity) }()

	require.Eventually(t, func() bool { return hits.Load() == 3 }, 5*time.Second, 10*time.Millisecond)
	assert.True(t, activity.Busy().Get())
	close(release)
	require.NoError(t, <-errc)

	mu.Lock()
	assert.Equal(t, []bool{true, false}, seen)
	mu.Unlock()

	layers := s.Layers()
	assert.Equal(t, StatusLoaded, layers[1].Status())
	assert.Equal(t, StatusLoaded, layers[2].Status())
	assert.Equal(t, StatusFailed, layers[3].Status())
}

func TestStack_HitTest(t *testing.T) {
	square := orb.Polygon{{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}}
	below, _ := New(Descriptor{ID: "below", Kind: KindGraphics})
	above, _ := New(Descriptor{ID: "above", Kind: KindGraphics})
	poly, _ := below.Add(square, nil)
	pt, _ := above.Add(orb.Point{0.5, 0.5}, nil)
	line, _ := above.Add(orb.LineString{{5, 5}, {6, 6}}, nil)

	s := NewStack(nil, nil)
	s.Add(below, above)

	l, f := s.HitTest(orb.Point{0.5, 0.51}, 0.05)
	assert.Equal(t, above, l)
	assert.Equal(t, pt, f)

	l, f = s.HitTest(orb.Point{-0.5, -0.5}, 0.05)
	assert.Equal(t, below, l)
	assert.Equal(t, poly, f)

	_, f = s.HitTest(orb.Point{5.5, 5.52}, 0.05)
	assert.Equal(t, line, f)

	above.SetVisible(false)
	l, _ = s.HitTest(orb.Point{0.5, 0.51}, 0.05)
	assert.Equal(t, below, l)

	l, f = s.HitTest(orb.Point{10, 10}, 0.05)
	assert.Nil(t, l)
	assert.Nil(t, f)
}
