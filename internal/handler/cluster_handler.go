package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/service"
	"github.com/jengzang/restroom-map/pkg/response"
)

var errInvertedBounds = errors.New("min corner exceeds max corner")

// ClusterHandler handles one-shot viewport clustering
type ClusterHandler struct {
	service *service.ClusterService
}

// NewClusterHandler creates a new cluster handler
func NewClusterHandler(service *service.ClusterService) *ClusterHandler {
	return &ClusterHandler{service: service}
}

// GetClusters handles GET /api/v1/clusters?minLat=&minLng=&maxLat=&maxLng=&zoom=
func (h *ClusterHandler) GetClusters(c *gin.Context) {
	var cam models.Camera
	if err := c.ShouldBindQuery(&cam); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	if !cam.Valid() {
		response.BadRequest(c, "Invalid viewport", errInvertedBounds)
		return
	}

	result, err := h.service.Clusters(c.Request.Context(), cam)
	if err != nil {
		response.InternalError(c, "Failed to cluster points", err)
		return
	}

	response.Success(c, result)
}
