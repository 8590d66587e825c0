package spatial

import (
	"math"
	"sort"

	"github.com/jengzang/restroom-map/internal/models"
)

// Bucketing maps a coordinate divided by the cell size to a cell index
type Bucketing int

const (
	// BucketFloor uses math.Floor, giving equal-sized cells on both sides of 0
	BucketFloor Bucketing = iota
	// BucketTruncate truncates toward zero like an integer cast, so the cells
	// touching 0 are twice as wide
	BucketTruncate
)

// ParseBucketing maps a config value ("floor" or "truncate") to a Bucketing.
// Anything else is floor.
func ParseBucketing(name string) Bucketing {
	if name == "truncate" {
		return BucketTruncate
	}
	return BucketFloor
}

func (b Bucketing) index(v float64) int64 {
	if b == BucketTruncate {
		return int64(v)
	}
	return int64(math.Floor(v))
}

// GridClusterer groups points that fall into the same fixed-size lat/lng cell
type GridClusterer struct {
	CellSize  float64 // Degrees, not zoom-adaptive
	Bucketing Bucketing
}

// NewGridClusterer creates a clusterer with the given cell size in degrees
func NewGridClusterer(cellSize float64, bucketing Bucketing) *GridClusterer {
	return &GridClusterer{CellSize: cellSize, Bucketing: bucketing}
}

// CellOf returns the grid cell containing (lat, lng)
func (g *GridClusterer) CellOf(lat, lng float64) models.CellKey {
	return models.CellKey{
		X: g.Bucketing.index(lat / g.CellSize),
		Y: g.Bucketing.index(lng / g.CellSize),
	}
}

// Cluster partitions points by grid cell. Every input point lands in exactly
// one cluster; each cluster's center is the mean of its members. Clusters
// come back sorted by cell key, members in input order.
func (g *GridClusterer) Cluster(points []models.Point) []models.Cluster {
	if len(points) == 0 {
		return []models.Cluster{}
	}

	cells := make(map[models.CellKey][]models.Point)
	for _, p := range points {
		key := g.CellOf(p.Latitude, p.Longitude)
		cells[key] = append(cells[key], p)
	}

	clusters := make([]models.Cluster, 0, len(cells))
	for key, members := range cells {
		clusters = append(clusters, models.Cluster{
			Key:     key,
			Center:  Centroid(members),
			Members: members,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Key.X != clusters[j].Key.X {
			return clusters[i].Key.X < clusters[j].Key.X
		}
		return clusters[i].Key.Y < clusters[j].Key.Y
	})

	return clusters
}
