package models

// Bounds is a rectangular viewport in decimal degrees
type Bounds struct {
	MinLat float64 `form:"minLat" json:"minLat" binding:"min=-90,max=90"`
	MinLng float64 `form:"minLng" json:"minLng" binding:"min=-180,max=180"`
	MaxLat float64 `form:"maxLat" json:"maxLat" binding:"min=-90,max=90"`
	MaxLng float64 `form:"maxLng" json:"maxLng" binding:"min=-180,max=180"`
}

// Valid reports whether min corners do not exceed max corners
func (b Bounds) Valid() bool {
	return b.MinLat <= b.MaxLat && b.MinLng <= b.MaxLng
}

// Camera represents one settled map view: the visible region and zoom level
type Camera struct {
	Bounds
	Zoom float64 `form:"zoom" json:"zoom" binding:"min=0,max=22"`
}
