package mapview

import (
	"sort"

	"github.com/jengzang/restroom-map/internal/models"
)

// MarkerSet is the set of markers currently on the map, keyed by marker id.
// It is owned by one goroutine and not safe for concurrent use.
type MarkerSet struct {
	markers map[string]models.Marker
}

// NewMarkerSet creates an empty marker set
func NewMarkerSet() *MarkerSet {
	return &MarkerSet{markers: make(map[string]models.Marker)}
}

// Len returns the number of displayed markers
func (s *MarkerSet) Len() int {
	return len(s.markers)
}

// Markers returns the displayed markers sorted by id
func (s *MarkerSet) Markers() []models.Marker {
	out := make([]models.Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Apply replaces the displayed markers with next and returns what changed.
// Markers that are identical in both sets appear nowhere in the diff.
func (s *MarkerSet) Apply(next []models.Marker) models.MarkerDiff {
	diff := models.MarkerDiff{
		Added:   []models.Marker{},
		Updated: []models.Marker{},
		Removed: []string{},
	}

	incoming := make(map[string]models.Marker, len(next))
	for _, m := range next {
		incoming[m.ID] = m

		old, ok := s.markers[m.ID]
		switch {
		case !ok:
			diff.Added = append(diff.Added, m)
		case old != m:
			diff.Updated = append(diff.Updated, m)
		}
	}

	for id := range s.markers {
		if _, ok := incoming[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	sort.Strings(diff.Removed)

	s.markers = incoming
	return diff
}

// Clear removes every marker and returns the removal diff
func (s *MarkerSet) Clear() models.MarkerDiff {
	return s.Apply(nil)
}
