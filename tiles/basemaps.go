package tiles

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownBasemap = errors.New("unknown basemap")

const arcgisTiles = "https://server.arcgisonline.com/ArcGIS/rest/services/"

// Basemap describes a background tile service.
type Basemap struct {
	ID          string
	Title       string
	URL         string // template with {z}, {x} and {y}
	Dark        bool
	Attribution string
}

var esri = "Esri, HERE, Garmin, FAO, NOAA, USGS"

// vector ids are served from the raster equivalent
var catalog = map[string]Basemap{
	"streets":             {Title: "Streets", URL: arcgisTiles + "World_Street_Map/MapServer/tile/{z}/{y}/{x}", Attribution: esri},
	"streets-vector":      {Title: "Streets (Vector)", URL: arcgisTiles + "World_Street_Map/MapServer/tile/{z}/{y}/{x}", Attribution: esri},
	"topo":                {Title: "Topographic", URL: arcgisTiles + "World_Topo_Map/MapServer/tile/{z}/{y}/{x}", Attribution: esri},
	"topo-vector":         {Title: "Topographic (Vector)", URL: arcgisTiles + "World_Topo_Map/MapServer/tile/{z}/{y}/{x}", Attribution: esri},
	"gray":                {Title: "Light Gray Canvas", URL: arcgisTiles + "Canvas/World_Light_Gray_Base/MapServer/tile/{z}/{y}/{x}", Attribution: esri},
	"gray-vector":         {Title: "Light Gray Canvas (Vector)", URL: arcgisTiles + "Canvas/World_Light_Gray_Base/MapServer/tile/{z}/{y}/{x}", Attribution: esri},
	"dark-gray":           {Title: "Dark Gray Canvas", URL: arcgisTiles + "Canvas/World_Dark_Gray_Base/MapServer/tile/{z}/{y}/{x}", Dark: true, Attribution: esri},
	"dark-gray-vector":    {Title: "Dark Gray Canvas (Vector)", URL: arcgisTiles + "Canvas/World_Dark_Gray_Base/MapServer/tile/{z}/{y}/{x}", Dark: true, Attribution: esri},
	"satellite":           {Title: "Imagery", URL: arcgisTiles + "World_Imagery/MapServer/tile/{z}/{y}/{x}", Dark: true, Attribution: "Esri, Maxar, Earthstar Geographics"},
	"hybrid":              {Title: "Imagery Hybrid", URL: arcgisTiles + "World_Imagery/MapServer/tile/{z}/{y}/{x}", Dark: true, Attribution: "Esri, Maxar, Earthstar Geographics"},
	"oceans":              {Title: "Oceans", URL: arcgisTiles + "Ocean/World_Ocean_Base/MapServer/tile/{z}/{y}/{x}", Attribution: esri},
	"terrain":             {Title: "Terrain with Labels", URL: arcgisTiles + "World_Terrain_Base/MapServer/tile/{z}/{y}/{x}", Attribution: esri},
	"national-geographic": {Title: "National Geographic", URL: arcgisTiles + "NatGeo_World_Map/MapServer/tile/{z}/{y}/{x}", Attribution: "National Geographic, Esri"},
	"osm":                 {Title: "OpenStreetMap", URL: "https://tile.openstreetmap.org/{z}/{x}/{y}.png", Attribution: "OpenStreetMap contributors"},
}

// LookupBasemap returns the catalog entry for id.
func LookupBasemap(id string) (Basemap, error) {
	b, ok := catalog[id]
	if !ok {
		return Basemap{}, fmt.Errorf("%w: %q", ErrUnknownBasemap, id)
	}
	b.ID = id
	return b, nil
}

// Basemaps returns the whole catalog sorted by title.
func Basemaps() []Basemap {
	out := make([]Basemap, 0, len(catalog))
	for id, b := range catalog {
		b.ID = id
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}
