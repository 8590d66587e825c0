package models

import "strconv"

// CellKey identifies one grid cell
type CellKey struct {
	X int64 `json:"x"` // Latitude bucket
	Y int64 `json:"y"` // Longitude bucket
}

// Cluster groups the points that fall into the same grid cell.
// Clusters are recomputed on every refresh and never persisted.
type Cluster struct {
	Key     CellKey `json:"key"`
	Center  LatLng  `json:"center"`
	Members []Point `json:"members"`
}

// Size returns the number of member points
func (c Cluster) Size() int {
	return len(c.Members)
}

// Label returns the caption shown on the map: the member's own name for a
// single point, the member count otherwise.
func (c Cluster) Label() string {
	if len(c.Members) == 1 {
		return c.Members[0].Name
	}
	return strconv.Itoa(len(c.Members))
}

// ClusterResult represents the response of one viewport clustering request
type ClusterResult struct {
	Visible  bool      `json:"visible"` // false when zoomed out past the threshold
	Zoom     float64   `json:"zoom"`
	Clusters []Cluster `json:"clusters"`
	Markers  []Marker  `json:"markers"`
}
