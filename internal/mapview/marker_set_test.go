package mapview

import (
	"testing"

	"github.com/jengzang/restroom-map/internal/models"
	"github.com/stretchr/testify/assert"
)

func marker(id, caption string, count int) models.Marker {
	return models.Marker{ID: id, Caption: caption, Count: count}
}

func TestMarkerSetApply(t *testing.T) {
	s := NewMarkerSet()

	diff := s.Apply([]models.Marker{marker("p:1", "A", 1), marker("c:1:1", "3", 3)})
	assert.Len(t, diff.Added, 2)
	assert.Empty(t, diff.Updated)
	assert.Empty(t, diff.Removed)
	assert.Equal(t, 2, s.Len())

	// Same markers again: nothing to do.
	diff = s.Apply([]models.Marker{marker("c:1:1", "3", 3), marker("p:1", "A", 1)})
	assert.True(t, diff.Empty())

	diff = s.Apply([]models.Marker{marker("c:1:1", "4", 4), marker("p:2", "B", 1)})
	assert.Equal(t, []models.Marker{marker("p:2", "B", 1)}, diff.Added)
	assert.Equal(t, []models.Marker{marker("c:1:1", "4", 4)}, diff.Updated)
	assert.Equal(t, []string{"p:1"}, diff.Removed)

	assert.Equal(t, []models.Marker{marker("c:1:1", "4", 4), marker("p:2", "B", 1)}, s.Markers())
}

func TestMarkerSetClear(t *testing.T) {
	s := NewMarkerSet()
	s.Apply([]models.Marker{marker("p:2", "B", 1), marker("p:1", "A", 1)})

	diff := s.Clear()
	assert.Equal(t, []string{"p:1", "p:2"}, diff.Removed)
	assert.Empty(t, diff.Added)
	assert.Zero(t, s.Len())

	assert.True(t, s.Clear().Empty())
}
