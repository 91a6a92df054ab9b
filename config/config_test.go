package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olablt/gio-maps/layers"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trailmap.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	conf, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Trail Map", conf.App.Title)
	assert.Equal(t, 10, conf.Map.Zoom)
	assert.Equal(t, [2]float64{-118.65, 34.09}, conf.Center())
	assert.Equal(t, "dark-gray-vector", conf.Map.Basemap)
	assert.Equal(t, "info", conf.Log.Level)
	assert.Equal(t, 4, conf.Tiles.Workers)
	assert.Equal(t, 30*time.Second, conf.HTTP.Timeout)
	assert.Len(t, conf.LayerDescriptors(), len(layers.DefaultDescriptors()))

	sym, err := conf.SketchSymbology()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 128}, sym.Point.Color)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, sym.Point.Outline.Color)
	assert.Equal(t, float32(1), sym.Polyline.Width)
	assert.Equal(t, float32(8), sym.Point.Size)
}

func TestLoad_File(t *testing.T) {
	path := writeConf(t, `
[app]
title = "Santa Monica Trails"

[map]
zoom = 12
center = [-118.5, 34.1]
basemap = "topo"

[http]
timeout = "5s"

[sketch]
outline = "#0000ff"

[[layers]]
id = "trailheads"
title = "Trailheads"
kind = "feature"
url = "https://example.com/arcgis/rest/services/Trailheads/FeatureServer/0"
displayField = "TRL_NAME"
popupTitle = "{TRL_NAME}"
popupContent = "City: {CITY_JUR}"

  [[layers.fields]]
  name = "TRL_NAME"
  label = "Trail Name"
`)
	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Santa Monica Trails", conf.App.Title)
	assert.Equal(t, 12, conf.Map.Zoom)
	assert.Equal(t, [2]float64{-118.5, 34.1}, conf.Center())
	assert.Equal(t, "topo", conf.Map.Basemap)
	assert.Equal(t, 5*time.Second, conf.HTTP.Timeout)

	descs := conf.LayerDescriptors()
	require.Len(t, descs, 1)
	d := descs[0]
	assert.Equal(t, layers.KindFeature, d.Kind)
	assert.Equal(t, "TRL_NAME", d.DisplayField)
	require.NotNil(t, d.Popup)
	assert.Equal(t, "City: {CITY_JUR}", d.Popup.Content)
	assert.Equal(t, []layers.FieldConfig{{Name: "TRL_NAME", Label: "Trail Name"}}, d.Fields)

	sym, err := conf.SketchSymbology()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, sym.Polyline.Color)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TRAILMAP_MAP_ZOOM", "14")
	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 14, conf.Map.Zoom)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConf(t, "[map]\nbasemap = \"moon\"\n"))
	assert.Error(t, err)

	_, err = Load(writeConf(t, "[map]\ncenter = [1.0]\n"))
	assert.Error(t, err)

	_, err = Load(writeConf(t, "[sketch]\nfill = \"white\"\n"))
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#2a597e")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x2a, G: 0x59, B: 0x7e, A: 0xff}, c)

	c, err = ParseColor("ffffff80")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x80), c.A)

	_, err = ParseColor("#12345")
	assert.ErrorIs(t, err, ErrInvalidColor)
}
