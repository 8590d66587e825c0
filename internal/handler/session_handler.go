package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/restroom-map/internal/mapview"
	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/session"
	"github.com/jengzang/restroom-map/internal/spatial"
	"github.com/jengzang/restroom-map/pkg/response"
)

var errInvalidLocation = errors.New("location out of range")

// SessionHandler exposes per-client map controllers over HTTP
type SessionHandler struct {
	registry      *session.Registry
	center        models.LatLng
	zoomThreshold float64
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(registry *session.Registry, center models.LatLng, zoomThreshold float64) *SessionHandler {
	return &SessionHandler{
		registry:      registry,
		center:        center,
		zoomThreshold: zoomThreshold,
	}
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	s, err := h.registry.Create()
	if errors.Is(err, session.ErrTooManySessions) {
		response.Error(c, http.StatusServiceUnavailable, "Too many open sessions. Please try again later.", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to create session", err)
		return
	}
	response.Created(c, models.SessionResponse{
		ID:            s.ID,
		CreatedAt:     s.CreatedAt,
		Center:        h.center,
		ZoomThreshold: h.zoomThreshold,
	})
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.registry.Delete(c.Param("id")); err != nil {
		response.NotFound(c, "Session not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// PostEvent handles POST /api/v1/sessions/:id/events
func (h *SessionHandler) PostEvent(c *gin.Context) {
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Session not found")
		return
	}

	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	ev, err := toEvent(req)
	if err != nil {
		response.BadRequest(c, err.Error(), err)
		return
	}

	if err := s.Submit(c.Request.Context(), ev); err != nil {
		if errors.Is(err, mapview.ErrControllerStopped) {
			response.NotFound(c, "Session not found")
			return
		}
		response.InternalError(c, "Failed to submit event", err)
		return
	}

	c.JSON(http.StatusAccepted, response.Response{Code: 0, Message: "accepted"})
}

// GetMarkers handles GET /api/v1/sessions/:id/markers
func (h *SessionHandler) GetMarkers(c *gin.Context) {
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Session not found")
		return
	}

	response.Success(c, s.Markers())
}

func toEvent(req models.EventRequest) (mapview.Event, error) {
	kind, ok := mapview.ParseEventKind(req.Type)
	if !ok {
		return mapview.Event{}, fmt.Errorf("unknown event type %q", req.Type)
	}

	switch kind {
	case mapview.EventMapReady, mapview.EventCameraIdle:
		if req.Camera == nil {
			return mapview.Event{}, fmt.Errorf("%s requires camera", req.Type)
		}
		if !req.Camera.Valid() {
			return mapview.Event{}, errInvertedBounds
		}
		if kind == mapview.EventMapReady {
			return mapview.MapReady(*req.Camera), nil
		}
		return mapview.CameraIdle(*req.Camera), nil

	case mapview.EventLocationChanged:
		if req.Location == nil {
			return mapview.Event{}, fmt.Errorf("%s requires location", req.Type)
		}
		if !spatial.ValidLatLng(req.Location.Lat, req.Location.Lng) {
			return mapview.Event{}, errInvalidLocation
		}
		return mapview.LocationChanged(*req.Location), nil

	case mapview.EventPermissionResult:
		return mapview.PermissionResult(req.Granted), nil

	default:
		return mapview.AddPoint(req.Name, req.Secret), nil
	}
}
