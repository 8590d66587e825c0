package models

// Marker is one rendered map marker, either a single point or a cluster
type Marker struct {
	ID           string  `json:"id"` // "p:<pointID>" or "c:<x>:<y>"
	Position     LatLng  `json:"position"`
	Caption      string  `json:"caption"`
	Count        int     `json:"count"`
	PointID      int64   `json:"pointId,omitempty"` // Set for single-point markers
	RadiusMeters float64 `json:"radiusMeters,omitempty"`
}

// MarkerDiff describes how to move the displayed marker set to a new state
type MarkerDiff struct {
	Added   []Marker `json:"added"`
	Updated []Marker `json:"updated"`
	Removed []string `json:"removed"`
}

// Empty reports whether the diff changes nothing
func (d MarkerDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// MarkersResponse represents a session's current marker snapshot
type MarkersResponse struct {
	Sequence        uint64     `json:"sequence"`
	Visible         bool       `json:"visible"`
	Markers         []Marker   `json:"markers"`
	LastDiff        MarkerDiff `json:"lastDiff"`
	Messages        []string   `json:"messages,omitempty"`
	LocationOverlay bool       `json:"locationOverlay"`
}
