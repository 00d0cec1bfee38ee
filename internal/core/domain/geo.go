package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Coordinates is a WGS 84 position in GeoJSON order: [longitude, latitude].
type Coordinates [2]float64

// Lon returns the longitude component.
func (c Coordinates) Lon() float64 { return c[0] }

// Lat returns the latitude component.
func (c Coordinates) Lat() float64 { return c[1] }

// Valid reports whether the pair lies within [-180..180, -90..90].
func (c Coordinates) Valid() bool {
	return c[0] >= -180 && c[0] <= 180 && c[1] >= -90 && c[1] <= 90
}

// Offset returns a copy shifted by the given deltas in degrees.
func (c Coordinates) Offset(dLon, dLat float64) Coordinates {
	return Coordinates{c[0] + dLon, c[1] + dLat}
}

// UnmarshalJSON reads a [longitude, latitude] pair. null leaves c unchanged.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("coordinates: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("coordinates: expected [longitude, latitude], got %d values", len(raw))
	}
	*c = Coordinates{raw[0], raw[1]}
	return nil
}

// MapViewport is the map hint shown next to an itinerary.
type MapViewport struct {
	Center Coordinates `json:"center"`
	Zoom   float64     `json:"zoom"`
}

// CityZoom is the smallest zoom level that points at a concrete place
// rather than a whole region or the world map.
const CityZoom = 10

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Extend grows the box so it contains c.
func (b Bounds) Extend(c Coordinates) Bounds {
	b.MinLat = min(b.MinLat, c.Lat())
	b.MinLon = min(b.MinLon, c.Lon())
	b.MaxLat = max(b.MaxLat, c.Lat())
	b.MaxLon = max(b.MaxLon, c.Lon())
	return b
}
