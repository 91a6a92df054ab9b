package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/mapview"
	"github.com/olablt/gio-maps/provider"
	"github.com/olablt/gio-maps/provider/providertest"
	"github.com/olablt/gio-maps/tiles"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type window struct{}

func (window) Invalidate() {}

const trailheads = `{"type":"FeatureCollection","features":[
	{"type":"Feature","geometry":{"type":"Point","coordinates":[-118.65,34.09]},
	 "properties":{"TRL_NAME":"Backbone","CITY_JUR":"Malibu"}}]}`

func config() Config {
	return Config{
		Center:  tiles.LatLng{Lat: 34.09, Lng: -118.65},
		Zoom:    10,
		Basemap: "dark-gray-vector",
		Layers: []layers.Descriptor{
			{ID: "graphics", Kind: layers.KindGraphics, ListMode: layers.ListHide},
			{
				ID:           "trailheads",
				Title:        "Trailheads",
				Kind:         layers.KindGeoJSON,
				Inline:       []byte(trailheads),
				DisplayField: "TRL_NAME",
				Fields: []layers.FieldConfig{
					{Name: "TRL_NAME", Label: "Trail Name"},
					{Name: "CITY_JUR", Label: "City"},
				},
			},
		},
	}
}

func TestInitialize(t *testing.T) {
	p := providertest.New()
	p.AutoReady = true

	res, err := Initialize(context.Background(), p, config(), window{})
	require.NoError(t, err)
	assert.True(t, res.View.Ready())
	assert.Equal(t, 1, p.Loads())
	assert.Equal(t, "dark-gray-vector", res.Map.Basemap().ID)
	assert.Equal(t, 2, res.Stack.Len())

	th := res.Stack.Find("trailheads")
	require.NotNil(t, th)
	require.Eventually(t, func() bool {
		return th.Status() == layers.StatusLoaded && !res.View.Updating()
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, th.Features(), 1)
}

func TestInitialize_WidgetAssembly(t *testing.T) {
	p := providertest.New()
	p.AutoReady = true

	res, err := Initialize(context.Background(), p, config(), window{})
	require.NoError(t, err)

	var kinds []provider.WidgetKind
	for _, w := range p.Widgets() {
		kinds = append(kinds, w.Kind())
	}
	assert.Equal(t, []provider.WidgetKind{
		provider.WidgetSearch, provider.WidgetExpand,
		provider.WidgetBasemapGallery, provider.WidgetExpand,
		provider.WidgetLayerList, provider.WidgetExpand,
		provider.WidgetEditor, provider.WidgetExpand,
		provider.WidgetSketch, provider.WidgetExpand,
		provider.WidgetCoordinates,
	}, kinds)

	ws := p.Widgets()
	sketch := ws[8]
	assert.Equal(t, res.Stack.Find("graphics"), sketch.Opts.Layer)
	editor := ws[6]
	require.Len(t, editor.Opts.LayerInfos, 1)
	assert.Equal(t, "City", editor.Opts.LayerInfos[0].Fields[1].Label)

	var titles []string
	for i := 1; i < 10; i += 2 {
		titles = append(titles, ws[i].Opts.Title)
		assert.Equal(t, ws[i-1], ws[i].Opts.Content)
		assert.Same(t, ws[1].Opts.Group, ws[i].Opts.Group)
	}
	assert.Equal(t, []string{"Search", "Basemaps", "Layers", "Edit", "Sketch"}, titles)

	ui := res.View.UI()
	require.Len(t, ui.Components(mapview.TopRight), 5)
	assert.Equal(t, ws[1], ui.Components(mapview.TopRight)[0])
	assert.Equal(t, []mapview.Component{ws[10]}, ui.Components(mapview.BottomLeft))
	assert.Equal(t, ws[10], res.Overlay)

	require.Eventually(t, func() bool { return !res.View.Updating() }, time.Second, 5*time.Millisecond)
}

func TestInitialize_LoadFailure(t *testing.T) {
	p := providertest.New()
	p.LoadErr = errors.New("network down")

	_, err := Initialize(context.Background(), p, config(), window{})
	assert.ErrorIs(t, err, p.LoadErr)
	assert.Zero(t, p.Views())
}

func TestInitialize_InvalidInputs(t *testing.T) {
	for _, tt := range []struct {
		name   string
		mutate func(*Config)
		c      provider.Container
		want   error
	}{
		{"unknown basemap", func(c *Config) { c.Basemap = "moon" }, window{}, tiles.ErrUnknownBasemap},
		{"bad center", func(c *Config) { c.Center = tiles.LatLng{Lat: 95, Lng: 0} }, window{}, mapview.ErrInvalidCenter},
		{"bad zoom", func(c *Config) { c.Zoom = 42 }, window{}, mapview.ErrInvalidZoom},
		{"no container", func(*Config) {}, nil, mapview.ErrNoContainer},
		{"bad layer", func(c *Config) { c.Layers = append(c.Layers, layers.Descriptor{Kind: "wms"}) }, window{}, layers.ErrUnknownKind},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := providertest.New()
			p.AutoReady = true
			cfg := config()
			tt.mutate(&cfg)

			_, err := Initialize(context.Background(), p, cfg, tt.c)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, p.Views())
		})
	}
}

func TestInitialize_WidgetFailure(t *testing.T) {
	p := providertest.New()
	p.AutoReady = true
	boom := errors.New("boom")
	p.WidgetErr[provider.WidgetEditor] = boom

	_, err := Initialize(context.Background(), p, config(), window{})
	assert.ErrorIs(t, err, boom)

	v := p.LastView()
	require.NotNil(t, v)
	assert.True(t, v.Detached())
	assert.Empty(t, v.UI().Components(mapview.TopRight))
}

func TestInitialize_WaitsForReady(t *testing.T) {
	p := providertest.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := Initialize(ctx, p, config(), window{})
		done <- outcome{res, err}
	}()

	require.Eventually(t, func() bool { return p.LastView() != nil }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("initialize returned before the view was ready")
	case <-time.After(20 * time.Millisecond):
	}

	p.LastView().SetReady()
	out := <-done
	require.NoError(t, out.err)
	assert.True(t, out.res.View.Ready())
	require.Eventually(t, func() bool { return !out.res.View.Updating() }, time.Second, 5*time.Millisecond)
}

func TestInitialize_Cancelled(t *testing.T) {
	p := providertest.New()
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := Initialize(ctx, p, config(), window{})
		errc <- err
	}()
	require.Eventually(t, func() bool { return p.LastView() != nil }, time.Second, time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.True(t, p.LastView().Detached())
	assert.Nil(t, p.LastView().Container())
}

func TestInitialize_HandsOutViewBeforeReady(t *testing.T) {
	p := providertest.New()
	cfg := config()
	var handed provider.View
	cfg.OnView = func(v provider.View) {
		handed = v
		assert.False(t, v.Ready())
		assert.Len(t, v.UI().Components(mapview.TopRight), 5)
		// first frame drawn by the host
		p.LastView().SetReady()
	}

	res, err := Initialize(context.Background(), p, cfg, window{})
	require.NoError(t, err)
	assert.Equal(t, res.View, handed)
	require.Eventually(t, func() bool { return !res.View.Updating() }, time.Second, 5*time.Millisecond)

	res.Close()
	assert.True(t, p.LastView().Detached())
}

func TestInitialize_DetachStopsLayerLoading(t *testing.T) {
	fetching := make(chan struct{})
	stopped := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(fetching)
		<-r.Context().Done()
		close(stopped)
	}))
	defer srv.Close()

	cfg := config()
	cfg.Client = srv.Client()
	cfg.Layers = append(cfg.Layers, layers.Descriptor{
		ID:   "parcels",
		Kind: layers.KindGeoJSON,
		URL:  srv.URL + "/parcels",
	})

	p := providertest.New()
	errc := make(chan error, 1)
	go func() {
		_, err := Initialize(context.Background(), p, cfg, window{})
		errc <- err
	}()

	<-fetching
	p.LastView().Detach()
	assert.ErrorIs(t, <-errc, mapview.ErrDetached)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("layer fetch still running after the view was detached")
	}
}
