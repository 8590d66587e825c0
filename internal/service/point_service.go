package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/spatial"
	"go.uber.org/zap"
)

// ErrInvalidPoint is returned by Add when the name or secret is blank
var ErrInvalidPoint = errors.New("name and password are required")

// PointStore is the storage the point service needs
type PointStore interface {
	ListAll(ctx context.Context) ([]models.Point, error)
	GetByID(ctx context.Context, id int64) (*models.Point, error)
	Insert(ctx context.Context, name string, lat, lng float64, secret string) (*models.Point, error)
}

// PointService handles business logic for restroom points
type PointService struct {
	store PointStore
	log   *zap.Logger
}

// NewPointService creates a new point service
func NewPointService(store PointStore, log *zap.Logger) *PointService {
	return &PointService{store: store, log: log}
}

// List retrieves every stored point
func (s *PointService) List(ctx context.Context) (*models.PointsResponse, error) {
	points, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}

	resp := &models.PointsResponse{
		Data:  points,
		Count: len(points),
	}
	if len(points) > 0 {
		extent := spatial.BoundingBox(points)
		resp.Extent = &extent
	}
	return resp, nil
}

// Get retrieves a single point by ID
func (s *PointService) Get(ctx context.Context, id int64) (*models.Point, error) {
	return s.store.GetByID(ctx, id)
}

// Add stores a point at the requested location
func (s *PointService) Add(ctx context.Context, req models.NewPointRequest) (*models.Point, error) {
	name, secret := strings.TrimSpace(req.Name), strings.TrimSpace(req.Secret)
	if name == "" || secret == "" {
		return nil, ErrInvalidPoint
	}

	at, ok := req.Location()
	if !ok {
		return nil, models.ErrLocationUnavailable
	}

	p, err := s.store.Insert(ctx, name, at.Lat, at.Lng, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to add point: %w", err)
	}

	s.log.Info("Point added",
		zap.Int64("id", p.ID),
		zap.String("name", p.Name),
		zap.Float64("lat", p.Latitude),
		zap.Float64("lng", p.Longitude),
	)
	return p, nil
}
