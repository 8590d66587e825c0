package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/repository"
	"github.com/jengzang/restroom-map/internal/service"
	"github.com/jengzang/restroom-map/pkg/response"
)

// PointHandler handles HTTP requests for restroom points
type PointHandler struct {
	service *service.PointService
}

// NewPointHandler creates a new point handler
func NewPointHandler(service *service.PointService) *PointHandler {
	return &PointHandler{service: service}
}

// GetPoints handles GET /api/v1/points
func (h *PointHandler) GetPoints(c *gin.Context) {
	resp, err := h.service.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to get points", err)
		return
	}

	response.Success(c, resp)
}

// GetPointByID handles GET /api/v1/points/:id
func (h *PointHandler) GetPointByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid point ID", err)
		return
	}

	point, err := h.service.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrPointNotFound) {
		response.NotFound(c, "Point not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to get point", err)
		return
	}

	response.Success(c, point)
}

// CreatePoint handles POST /api/v1/points
func (h *PointHandler) CreatePoint(c *gin.Context) {
	var req models.NewPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	point, err := h.service.Add(c.Request.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidPoint), errors.Is(err, models.ErrLocationUnavailable):
		response.BadRequest(c, err.Error(), err)
		return
	case err != nil:
		response.InternalError(c, "Failed to add point", err)
		return
	}

	response.Created(c, point)
}
