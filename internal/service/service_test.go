package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/repository"
	"github.com/jengzang/restroom-map/internal/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	points  []models.Point
	reads   int
	listErr error
}

func (m *memStore) ListAll(context.Context) ([]models.Point, error) {
	m.reads++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.Point(nil), m.points...), nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*models.Point, error) {
	for _, p := range m.points {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrPointNotFound
}

func (m *memStore) Insert(_ context.Context, name string, lat, lng float64, secret string) (*models.Point, error) {
	p := models.Point{ID: int64(len(m.points) + 1), Name: name, Latitude: lat, Longitude: lng, Secret: secret}
	m.points = append(m.points, p)
	return &p, nil
}

func ptr(v float64) *float64 { return &v }

func TestPointServiceAdd(t *testing.T) {
	tests := []struct {
		name    string
		req     models.NewPointRequest
		wantErr error
	}{
		{
			name: "valid",
			req:  models.NewPointRequest{Name: "Station A", Secret: "1234", Latitude: ptr(37.5), Longitude: ptr(127.0)},
		},
		{
			name:    "blank name",
			req:     models.NewPointRequest{Name: "  ", Secret: "1234", Latitude: ptr(37.5), Longitude: ptr(127.0)},
			wantErr: ErrInvalidPoint,
		},
		{
			name:    "blank secret",
			req:     models.NewPointRequest{Name: "Station A", Secret: "", Latitude: ptr(37.5), Longitude: ptr(127.0)},
			wantErr: ErrInvalidPoint,
		},
		{
			name:    "no location",
			req:     models.NewPointRequest{Name: "Station A", Secret: "1234", Latitude: ptr(37.5)},
			wantErr: models.ErrLocationUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			svc := NewPointService(store, zap.NewNop())

			p, err := svc.Add(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, store.points)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), p.ID)
			assert.Equal(t, "Station A", p.Name)
			assert.Len(t, store.points, 1)
		})
	}
}

func TestPointServiceListAndGet(t *testing.T) {
	store := &memStore{points: []models.Point{
		{ID: 1, Name: "A", Latitude: 37.5, Longitude: 127.1},
		{ID: 2, Name: "B", Latitude: 37.4, Longitude: 127.2},
	}}
	svc := NewPointService(store, zap.NewNop())
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	require.NotNil(t, list.Extent)
	assert.Equal(t, models.Bounds{MinLat: 37.4, MinLng: 127.1, MaxLat: 37.5, MaxLng: 127.2}, *list.Extent)

	empty, err := NewPointService(&memStore{}, zap.NewNop()).List(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty.Extent)

	p, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", p.Name)

	_, err = svc.Get(ctx, 3)
	assert.ErrorIs(t, err, repository.ErrPointNotFound)

	store.listErr = errors.New("disk gone")
	_, err = svc.List(ctx)
	assert.Error(t, err)
}

func TestClusterServiceBelowThreshold(t *testing.T) {
	store := &memStore{points: []models.Point{{ID: 1, Name: "A", Latitude: 37.5, Longitude: 127.0}}}
	svc := NewClusterService(store, spatial.NewGridClusterer(0.01, spatial.BucketFloor), 10, zap.NewNop())

	res, err := svc.Clusters(context.Background(), models.Camera{
		Bounds: models.Bounds{MinLat: 37, MinLng: 126, MaxLat: 38, MaxLng: 128},
		Zoom:   9,
	})
	require.NoError(t, err)
	assert.False(t, res.Visible)
	assert.Empty(t, res.Clusters)
	assert.Empty(t, res.Markers)
	assert.Zero(t, store.reads, "store must not be read below the threshold")
}

func TestClusterServiceGroupsVisiblePoints(t *testing.T) {
	store := &memStore{points: []models.Point{
		{ID: 1, Name: "A", Latitude: 37.5000, Longitude: 127.0000},
		{ID: 2, Name: "B", Latitude: 37.5001, Longitude: 127.0001},
		{ID: 3, Name: "C", Latitude: 37.5200, Longitude: 127.0000},
		{ID: 4, Name: "far", Latitude: 35.0, Longitude: 129.0},
	}}
	svc := NewClusterService(store, spatial.NewGridClusterer(0.01, spatial.BucketFloor), 10, zap.NewNop())

	res, err := svc.Clusters(context.Background(), models.Camera{
		Bounds: models.Bounds{MinLat: 37, MinLng: 126, MaxLat: 38, MaxLng: 128},
		Zoom:   10,
	})
	require.NoError(t, err)
	assert.True(t, res.Visible)
	require.Len(t, res.Clusters, 2)
	assert.Equal(t, 2, res.Clusters[0].Size())
	assert.Equal(t, "2", res.Markers[0].Caption)
	assert.Equal(t, "C", res.Markers[1].Caption)
	assert.Equal(t, int64(3), res.Markers[1].PointID)
	assert.Equal(t, 1, store.reads)
}
