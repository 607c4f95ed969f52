package domain

import "math"

// metersPerDegreeLat is the approximate length of one degree of latitude
const metersPerDegreeLat = 111_320.0

// Coordinate is a WGS84 position.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Placemark is a geocoding result.
type Placemark struct {
	Name       string     `json:"name"`
	Coordinate Coordinate `json:"coordinate"`
	Source     string     `json:"source,omitempty"` // e.g. "OpenStreetMap"
}

// MapRegion is a rectangular map area centered on a coordinate.
type MapRegion struct {
	Center             Coordinate
	LatitudinalMeters  float64
	LongitudinalMeters float64
}

// NewRegion returns a region of the given extent around center.
func NewRegion(center Coordinate, latMeters, lonMeters float64) MapRegion {
	return MapRegion{
		Center:             center,
		LatitudinalMeters:  latMeters,
		LongitudinalMeters: lonMeters,
	}
}

// Span returns the region size in degrees (latitude delta, longitude delta).
func (r MapRegion) Span() (latDelta, lonDelta float64) {
	latDelta = r.LatitudinalMeters / metersPerDegreeLat
	cos := math.Cos(r.Center.Latitude * math.Pi / 180)
	if cos < 1e-6 {
		// Poles: longitude is degenerate
		return latDelta, 360
	}
	lonDelta = r.LongitudinalMeters / (metersPerDegreeLat * cos)
	return latDelta, lonDelta
}
