package session

import (
	"testing"

	"github.com/jengzang/restroom-map/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenterAppliesDiffs(t *testing.T) {
	p := NewPresenter()

	p.Present(1, true, models.MarkerDiff{Added: []models.Marker{
		{ID: "p:2", Caption: "B", Count: 1},
		{ID: "c:1:1", Caption: "3", Count: 3},
	}})
	snap := p.Snapshot()
	require.Len(t, snap.Markers, 2)
	assert.Equal(t, "c:1:1", snap.Markers[0].ID)
	assert.Equal(t, uint64(1), snap.Sequence)

	p.Present(2, true, models.MarkerDiff{
		Updated: []models.Marker{{ID: "c:1:1", Caption: "4", Count: 4}},
		Removed: []string{"p:2"},
	})
	snap = p.Snapshot()
	require.Len(t, snap.Markers, 1)
	assert.Equal(t, "4", snap.Markers[0].Caption)
	assert.Equal(t, []string{"p:2"}, snap.LastDiff.Removed)

	p.Present(3, false, models.MarkerDiff{Removed: []string{"c:1:1"}})
	snap = p.Snapshot()
	assert.False(t, snap.Visible)
	assert.Empty(t, snap.Markers)
}

func TestPresenterMessagesDrainOnce(t *testing.T) {
	p := NewPresenter()
	assert.True(t, p.Snapshot().LocationOverlay)

	p.ShowMessage("current location is not available yet")
	p.SetLocationOverlayVisible(false)

	snap := p.Snapshot()
	assert.Equal(t, []string{"current location is not available yet"}, snap.Messages)
	assert.False(t, snap.LocationOverlay)

	assert.Empty(t, p.Snapshot().Messages)
}
