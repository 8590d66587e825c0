package mapview

import "github.com/jengzang/restroom-map/internal/models"

// EventKind identifies a map notification
type EventKind int

const (
	EventMapReady EventKind = iota
	EventCameraIdle
	EventLocationChanged
	EventPermissionResult
	EventAddPoint
)

var eventNames = map[string]EventKind{
	"map_ready":         EventMapReady,
	"camera_idle":       EventCameraIdle,
	"location_changed":  EventLocationChanged,
	"permission_result": EventPermissionResult,
	"add_point":         EventAddPoint,
}

// ParseEventKind maps the wire name of an event to its kind
func ParseEventKind(name string) (EventKind, bool) {
	k, ok := eventNames[name]
	return k, ok
}

// Event is one notification from the map client
type Event struct {
	Kind     EventKind
	Camera   models.Camera // MapReady, CameraIdle
	Location models.LatLng // LocationChanged
	Granted  bool          // PermissionResult
	Name     string        // AddPoint
	Secret   string        // AddPoint
}

// MapReady is sent once when the map is first shown
func MapReady(cam models.Camera) Event {
	return Event{Kind: EventMapReady, Camera: cam}
}

// CameraIdle is sent when the view stops moving
func CameraIdle(cam models.Camera) Event {
	return Event{Kind: EventCameraIdle, Camera: cam}
}

// LocationChanged reports the device's current position
func LocationChanged(at models.LatLng) Event {
	return Event{Kind: EventLocationChanged, Location: at}
}

// PermissionResult reports whether location access was granted
func PermissionResult(granted bool) Event {
	return Event{Kind: EventPermissionResult, Granted: granted}
}

// AddPoint asks to store a new point at the current location
func AddPoint(name, secret string) Event {
	return Event{Kind: EventAddPoint, Name: name, Secret: secret}
}
