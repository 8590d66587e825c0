package spatial

import (
	"github.com/jengzang/restroom-map/internal/models"
)

// Centroid calculates the arithmetic mean of the points' latitudes and
// longitudes. Not meant for sets spanning the antimeridian.
func Centroid(points []models.Point) models.LatLng {
	if len(points) == 0 {
		return models.LatLng{}
	}

	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Latitude
		sumLng += p.Longitude
	}

	n := float64(len(points))
	return models.LatLng{
		Lat: sumLat / n,
		Lng: sumLng / n,
	}
}

// MaxDistance returns the largest great-circle distance in meters from
// center to any of the points
func MaxDistance(center models.LatLng, points []models.Point) float64 {
	var max float64
	for _, p := range points {
		d := HaversineDistance(center.Lat, center.Lng, p.Latitude, p.Longitude)
		if d > max {
			max = d
		}
	}
	return max
}

// BoundingBox calculates the bounding box of a set of points
func BoundingBox(points []models.Point) models.Bounds {
	if len(points) == 0 {
		return models.Bounds{}
	}

	b := models.Bounds{
		MinLat: points[0].Latitude, MaxLat: points[0].Latitude,
		MinLng: points[0].Longitude, MaxLng: points[0].Longitude,
	}
	for _, p := range points[1:] {
		if p.Latitude < b.MinLat {
			b.MinLat = p.Latitude
		}
		if p.Latitude > b.MaxLat {
			b.MaxLat = p.Latitude
		}
		if p.Longitude < b.MinLng {
			b.MinLng = p.Longitude
		}
		if p.Longitude > b.MaxLng {
			b.MaxLng = p.Longitude
		}
	}
	return b
}
