// Package config loads the application configuration from a TOML file,
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/tiles"
)

const (
	DefaultPath = "./conf/trailmap.toml"
	EnvPrefix   = "TRAILMAP"
)

var ErrInvalidColor = errors.New("invalid colour")

type Config struct {
	App struct {
		Title string `mapstructure:"title"`
	} `mapstructure:"app"`
	Map struct {
		Zoom    int       `mapstructure:"zoom"`
		Center  []float64 `mapstructure:"center"`
		Basemap string    `mapstructure:"basemap"`
	} `mapstructure:"map"`
	Log struct {
		Level    string `mapstructure:"level"`
		Dir      string `mapstructure:"dir"`
		Terminal bool   `mapstructure:"terminal"`
	} `mapstructure:"log"`
	Tiles struct {
		Workers   int    `mapstructure:"workers"`
		CacheSize int    `mapstructure:"cacheSize"`
		UserAgent string `mapstructure:"userAgent"`
		MinZoom   int    `mapstructure:"minZoom"`
		MaxZoom   int    `mapstructure:"maxZoom"`
		Offline   bool   `mapstructure:"offline"`
	} `mapstructure:"tiles"`
	HTTP struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"http"`
	Sketch Sketch  `mapstructure:"sketch"`
	Layers []Layer `mapstructure:"layers"`
}

// Sketch colours are #rrggbb or #rrggbbaa.
type Sketch struct {
	Fill         string  `mapstructure:"fill"`
	Outline      string  `mapstructure:"outline"`
	OutlineWidth float32 `mapstructure:"outlineWidth"`
	PointSize    float32 `mapstructure:"pointSize"`
}

type Layer struct {
	ID           string   `mapstructure:"id"`
	Title        string   `mapstructure:"title"`
	Kind         string   `mapstructure:"kind"`
	URL          string   `mapstructure:"url"`
	DisplayField string   `mapstructure:"displayField"`
	ListMode     string   `mapstructure:"listMode"`
	PopupTitle   string   `mapstructure:"popupTitle"`
	PopupContent string   `mapstructure:"popupContent"`
	OutFields    []string `mapstructure:"outFields"`
	Fields       []Field  `mapstructure:"fields"`
}

type Field struct {
	Name  string `mapstructure:"name"`
	Label string `mapstructure:"label"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.title", "Trail Map")
	v.SetDefault("map.zoom", 10)
	v.SetDefault("map.center", []float64{-118.65, 34.09})
	v.SetDefault("map.basemap", "dark-gray-vector")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.terminal", true)
	v.SetDefault("tiles.workers", 4)
	v.SetDefault("tiles.cacheSize", tiles.DefaultCacheSize)
	v.SetDefault("tiles.userAgent", tiles.DefaultUserAgent)
	v.SetDefault("tiles.minZoom", 0)
	v.SetDefault("tiles.maxZoom", 19)
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("sketch.fill", "#ffffff80")
	v.SetDefault("sketch.outline", "#ff0000ff")
	v.SetDefault("sketch.outlineWidth", 1)
	v.SetDefault("sketch.pointSize", 8)
}

// Load reads path. An empty path yields the defaults; a path that does not
// exist is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		v.SetConfigType("toml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	if len(c.Map.Center) != 2 {
		return fmt.Errorf("map.center must be [lon, lat], got %v", c.Map.Center)
	}
	if _, err := tiles.LookupBasemap(c.Map.Basemap); err != nil {
		return fmt.Errorf("map.basemap: %w", err)
	}
	if _, err := c.SketchSymbology(); err != nil {
		return fmt.Errorf("sketch: %w", err)
	}
	return nil
}

// Center returns map.center as [lon, lat].
func (c *Config) Center() [2]float64 {
	return [2]float64{c.Map.Center[0], c.Map.Center[1]}
}

// LayerDescriptors returns the configured layers, or the built-in trail
// layers when none are configured.
func (c *Config) LayerDescriptors() []layers.Descriptor {
	if len(c.Layers) == 0 {
		return layers.DefaultDescriptors()
	}
	out := make([]layers.Descriptor, 0, len(c.Layers))
	for _, l := range c.Layers {
		d := layers.Descriptor{
			ID:           l.ID,
			Title:        l.Title,
			Kind:         layers.Kind(l.Kind),
			URL:          l.URL,
			DisplayField: l.DisplayField,
			ListMode:     layers.ListMode(l.ListMode),
		}
		if l.PopupTitle != "" || l.PopupContent != "" {
			d.Popup = &layers.PopupTemplate{Title: l.PopupTitle, Content: l.PopupContent, OutFields: l.OutFields}
		}
		for _, f := range l.Fields {
			d.Fields = append(d.Fields, layers.FieldConfig{Name: f.Name, Label: f.Label})
		}
		out = append(out, d)
	}
	return out
}

// SketchSymbology builds the sketch widget's symbology from the [sketch]
// section.
func (c *Config) SketchSymbology() (layers.Symbology, error) {
	fill, err := ParseColor(c.Sketch.Fill)
	if err != nil {
		return layers.Symbology{}, err
	}
	outline, err := ParseColor(c.Sketch.Outline)
	if err != nil {
		return layers.Symbology{}, err
	}
	stroke := layers.Stroke{Color: outline, Width: c.Sketch.OutlineWidth}
	return layers.Symbology{
		Point:    layers.PointSymbol{Color: fill, Outline: stroke, Size: c.Sketch.PointSize},
		Polyline: layers.LineSymbol{Color: outline, Width: c.Sketch.OutlineWidth},
		Polygon:  layers.FillSymbol{Color: fill, Outline: stroke},
	}, nil
}

// ParseColor reads #rrggbb or #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}
