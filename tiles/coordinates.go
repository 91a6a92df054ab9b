package tiles

import (
	"image"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

const (
	TileSize           = 256
	earthCircumference = 40075016.686 // meters at equator

	// web mercator latitude limit
	MaxLatitude = 85.05112878
)

// Tile represents a map tile coordinates
type Tile struct {
	X, Y, Zoom int
}

// LatLng represents a geographical point
type LatLng struct {
	Lat, Lng float64
}

// Point returns ll as an orb point (lon, lat).
func (ll LatLng) Point() orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

// FromPoint converts an orb point (lon, lat) to LatLng.
func FromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// Valid reports whether ll is a usable longitude/latitude pair.
func (ll LatLng) Valid() bool {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) {
		return false
	}
	return ll.Lat >= -90 && ll.Lat <= 90 && ll.Lng >= -180 && ll.Lng <= 180
}

// LatLngToTile converts geographical coordinates to tile coordinates
func LatLngToTile(ll LatLng, zoom int) Tile {
	t := maptile.At(ll.Point(), maptile.Zoom(zoom))
	return Tile{X: int(t.X), Y: int(t.Y), Zoom: zoom}
}

// TileToLatLng returns the geographical center of a tile
func TileToLatLng(tile Tile) LatLng {
	t := maptile.New(uint32(tile.X), uint32(tile.Y), maptile.Zoom(tile.Zoom))
	return FromPoint(t.Center())
}

// CalculateWorldCoordinates converts geographical coordinates to world pixel coordinates at given zoom level
func CalculateWorldCoordinates(ll LatLng, zoom int) (float64, float64) {
	n := math.Pow(2, float64(zoom))
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, ll.Lat))
	latRad := lat * math.Pi / 180.0
	worldX := float64(TileSize) * n * (ll.Lng + 180) / 360
	worldY := float64(TileSize) * n * (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2
	return worldX, worldY
}

// WorldToLatLng converts world pixel coordinates back to geographical coordinates
func WorldToLatLng(worldX, worldY float64, zoom int) LatLng {
	n := math.Pow(2, float64(zoom))
	lng := (worldX/(float64(TileSize)*n))*360 - 180
	latRad := math.Pi * (1 - 2*worldY/(float64(TileSize)*n))
	lat := 180 / math.Pi * math.Atan(math.Sinh(latRad))
	return LatLng{Lat: lat, Lng: lng}
}

// ScreenToLatLng converts a position on a screen of the given size, centered
// on center, to geographical coordinates.
func ScreenToLatLng(center LatLng, zoom int, size image.Point, x, y float64) LatLng {
	cx, cy := CalculateWorldCoordinates(center, zoom)
	wx := cx + x - float64(size.X)/2
	wy := cy + y - float64(size.Y)/2
	return WorldToLatLng(wx, wy, zoom)
}

// LatLngToScreen is the inverse of ScreenToLatLng.
func LatLngToScreen(center LatLng, zoom int, size image.Point, ll LatLng) (float64, float64) {
	cx, cy := CalculateWorldCoordinates(center, zoom)
	wx, wy := CalculateWorldCoordinates(ll, zoom)
	return wx - cx + float64(size.X)/2, wy - cy + float64(size.Y)/2
}

// DegreesPerPixel is the longitude span of one screen pixel at zoom.
func DegreesPerPixel(zoom int) float64 {
	return 360 / (float64(TileSize) * math.Pow(2, float64(zoom)))
}

// CalculateMetersPerPixel calculates the meters per pixel at a given latitude and zoom level
func CalculateMetersPerPixel(latitude float64, zoom int) float64 {
	return earthCircumference * math.Cos(latitude*math.Pi/180) / (math.Pow(2, float64(zoom)) * TileSize)
}

// ConstrainTile ensures tile coordinates are within valid bounds for the zoom level
func ConstrainTile(tile Tile) Tile {
	maxTile := int(math.Pow(2, float64(tile.Zoom))) - 1
	tile.X = max(0, min(tile.X, maxTile))
	tile.Y = max(0, min(tile.Y, maxTile))
	return tile
}

// CalculateVisibleTiles calculates which tiles are visible given a center point and screen size
func CalculateVisibleTiles(center LatLng, zoom int, screenSize image.Point) []Tile {
	centerTile := LatLngToTile(center, zoom)
	tilesX := (screenSize.X / TileSize) + 2 // Add buffer tiles
	tilesY := (screenSize.Y / TileSize) + 2

	startX := centerTile.X - tilesX/2
	startY := centerTile.Y - tilesY/2

	seen := make(map[Tile]bool, tilesX*tilesY)
	visibleTiles := make([]Tile, 0, tilesX*tilesY)
	for x := startX; x < startX+tilesX; x++ {
		for y := startY; y < startY+tilesY; y++ {
			tile := ConstrainTile(Tile{
				X:    x,
				Y:    y,
				Zoom: zoom,
			})
			if seen[tile] {
				continue
			}
			seen[tile] = true
			visibleTiles = append(visibleTiles, tile)
		}
	}
	return visibleTiles
}
