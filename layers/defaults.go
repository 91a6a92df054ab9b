package layers

import "github.com/paulmach/orb/geojson"

const services = "https://services6.arcgis.com/708LZoWlLL5mAZXZ/arcgis/rest/services/"

// DefaultDescriptors is the Santa Monica Mountains trail map: a sketch
// layer at the bottom, then parks, trails, parcels and trailheads.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			ID:       "graphics",
			Title:    "Graphics",
			Kind:     KindGraphics,
			ListMode: ListHide,
		},
		{
			ID:           "parks",
			Title:        "Parks and Open Space",
			Kind:         KindFeature,
			URL:          services + "parks_and_open_space/FeatureServer",
			DisplayField: "PARK_NAME",
			Popup: &PopupTemplate{
				Title:       "{PARK_NAME}",
				ContentFunc: parkContent,
				OutFields:   []string{"*"},
			},
		},
		{
			ID:           "trails",
			Title:        "Trails",
			Kind:         KindFeature,
			URL:          services + "Trails/FeatureServer",
			DisplayField: "TRL_NAME",
			Popup: &PopupTemplate{
				Title:       "Trail Information",
				ContentFunc: trailContent,
				OutFields:   []string{"*"},
			},
			Fields: []FieldConfig{
				{Name: "TRL_NAME", Label: "Trail Name"},
			},
		},
		{
			ID:           "parcels",
			Title:        "Malibu Parcels",
			Kind:         KindGeoJSON,
			URL:          "https://services6.arcgis.com/708LZoWlLL5mAZXZ/ArcGIS/rest/services/malibu_parcels/FeatureServer/0/query?where=OBJECTID%3C1000&outFields=*&returnGeometry=true&outSR=4326&f=pgeojson",
			DisplayField: "AIN",
			Popup: &PopupTemplate{
				Title:     "{AIN}",
				Content:   "Address: {SitusConcatenated}\nCity: {SitusCity}\nZip: {SitusZIP}",
				OutFields: []string{"*"},
			},
		},
		{
			ID:           "trailheads",
			Title:        "Trailheads",
			Kind:         KindFeature,
			URL:          services + "trailheads/FeatureServer",
			DisplayField: "TRL_NAME",
			Popup: &PopupTemplate{
				Title:     "{TRL_NAME}",
				Content:   "City: {CITY_JUR}\nCross Street: {X_STREET}\nParking: {PARKING}\nElevation: {ELEV_FT} ft",
				OutFields: []string{"*"},
			},
			Fields: []FieldConfig{
				{Name: "TRL_NAME", Label: "Trail Name"},
				{Name: "CITY_JUR", Label: "City"},
			},
		},
	}
}

func parkContent(*geojson.Feature) string {
	return "Access Type: {ACCESS_TYP}"
}

// trailContent leaves out the climb for trails without an elevation gain.
func trailContent(f *geojson.Feature) string {
	if f.Properties["ELEV_GAIN"] == nil {
		return "This is {TRL_NAME}."
	}
	return "This is {TRL_NAME} with {ELEV_GAIN} ft of climbing."
}
