package spatial

import (
	"fmt"

	"github.com/jengzang/restroom-map/internal/models"
)

// MarkerID returns the stable identity of a cluster's marker. A lone point
// keeps its own id so it survives a change of cell size; a group is keyed by
// its cell.
func MarkerID(c models.Cluster) string {
	if c.Size() == 1 {
		return fmt.Sprintf("p:%d", c.Members[0].ID)
	}
	return fmt.Sprintf("c:%d:%d", c.Key.X, c.Key.Y)
}

// ToMarker builds the display marker for a cluster
func ToMarker(c models.Cluster) models.Marker {
	m := models.Marker{
		ID:       MarkerID(c),
		Position: c.Center,
		Caption:  c.Label(),
		Count:    c.Size(),
	}
	if c.Size() == 1 {
		m.PointID = c.Members[0].ID
	} else {
		m.RadiusMeters = MaxDistance(c.Center, c.Members)
	}
	return m
}

// ToMarkers builds display markers for clusters, in the same order
func ToMarkers(clusters []models.Cluster) []models.Marker {
	markers := make([]models.Marker, 0, len(clusters))
	for _, c := range clusters {
		markers = append(markers, ToMarker(c))
	}
	return markers
}
