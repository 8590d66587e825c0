package spatial

import (
	"github.com/jengzang/restroom-map/internal/models"
	"github.com/paulmach/orb"
)

// ToBound converts a viewport to an orb.Bound (x = longitude, y = latitude)
func ToBound(b models.Bounds) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// FilterViewport returns the points lying inside bounds, edges included.
// The input slice is not modified and the relative order is kept.
func FilterViewport(points []models.Point, bounds models.Bounds) []models.Point {
	bound := ToBound(bounds)

	visible := make([]models.Point, 0, len(points))
	for _, p := range points {
		if bound.Contains(orb.Point{p.Longitude, p.Latitude}) {
			visible = append(visible, p)
		}
	}
	return visible
}
