package models

// NoSecret is the stored secret value meaning no password was set
const NoSecret = "0"

// Point represents one restroom location in the point store
type Point struct {
	ID        int64   `json:"id" db:"num"`
	Name      string  `json:"name" db:"toiletName"`
	Latitude  float64 `json:"latitude" db:"latitude"`   // Stored as TEXT
	Longitude float64 `json:"longitude" db:"longitude"` // Stored as TEXT
	Secret    string  `json:"-" db:"pw"`
}

// HasSecret reports whether a password was set for the point
func (p Point) HasSecret() bool {
	return p.Secret != "" && p.Secret != NoSecret
}

// LatLng returns the point position
func (p Point) LatLng() LatLng {
	return LatLng{Lat: p.Latitude, Lng: p.Longitude}
}

// LatLng is a position in decimal degrees
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewPointRequest represents the body of POST /api/v1/points
type NewPointRequest struct {
	Name      string   `json:"name" binding:"required"`
	Secret    string   `json:"secret" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// Location returns the requested position, or false when the client sent none
func (r NewPointRequest) Location() (LatLng, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *r.Latitude, Lng: *r.Longitude}, true
}

// PointsResponse represents the list response for points
type PointsResponse struct {
	Data   []Point `json:"data"`
	Count  int     `json:"count"`
	Extent *Bounds `json:"extent,omitempty"` // Smallest box holding every point
}
