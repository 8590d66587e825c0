package service

import (
	"context"
	"fmt"

	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/spatial"
	"go.uber.org/zap"
)

// PointLister reads the whole point store
type PointLister interface {
	ListAll(ctx context.Context) ([]models.Point, error)
}

// ClusterService answers one-shot viewport requests. It keeps no display
// state; per-client marker diffs live in the session controllers.
type ClusterService struct {
	points    PointLister
	clusterer *spatial.GridClusterer
	threshold float64
	log       *zap.Logger
}

// NewClusterService creates a new cluster service
func NewClusterService(points PointLister, clusterer *spatial.GridClusterer, zoomThreshold float64, log *zap.Logger) *ClusterService {
	return &ClusterService{
		points:    points,
		clusterer: clusterer,
		threshold: zoomThreshold,
		log:       log,
	}
}

// Clusters filters the store to the camera bounds and groups the result.
// Below the zoom threshold nothing is read and Visible is false.
func (s *ClusterService) Clusters(ctx context.Context, cam models.Camera) (*models.ClusterResult, error) {
	result := &models.ClusterResult{
		Zoom:     cam.Zoom,
		Clusters: []models.Cluster{},
		Markers:  []models.Marker{},
	}
	if cam.Zoom < s.threshold {
		return result, nil
	}

	all, err := s.points.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load points: %w", err)
	}

	visible := spatial.FilterViewport(all, cam.Bounds)
	result.Visible = true
	result.Clusters = s.clusterer.Cluster(visible)
	result.Markers = spatial.ToMarkers(result.Clusters)

	s.log.Debug("Clustered viewport",
		zap.Int("points", len(all)),
		zap.Int("visible", len(visible)),
		zap.Int("clusters", len(result.Clusters)),
	)
	return result, nil
}
