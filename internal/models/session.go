package models

import "time"

// SessionResponse represents a newly created map session
type SessionResponse struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	Center        LatLng    `json:"center"` // Initial camera position
	ZoomThreshold float64   `json:"zoomThreshold"`
}

// EventRequest represents the body of POST /api/v1/sessions/:id/events.
// Which fields are read depends on Type.
type EventRequest struct {
	Type     string  `json:"type" binding:"required,oneof=map_ready camera_idle location_changed permission_result add_point"`
	Camera   *Camera `json:"camera"`
	Location *LatLng `json:"location"`
	Granted  bool    `json:"granted"`
	Name     string  `json:"name"`
	Secret   string  `json:"secret"`
}
