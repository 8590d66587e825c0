package session

import (
	"sort"
	"sync"

	"github.com/jengzang/restroom-map/internal/models"
)

// Presenter keeps what a polling client should currently see. The
// controller writes to it from its loop, HTTP handlers read snapshots.
type Presenter struct {
	mu       sync.Mutex
	seq      uint64
	visible  bool
	markers  map[string]models.Marker
	lastDiff models.MarkerDiff
	messages []string
	overlay  bool
}

// NewPresenter creates an empty presenter with the location overlay shown
func NewPresenter() *Presenter {
	return &Presenter{
		markers: make(map[string]models.Marker),
		overlay: true,
	}
}

// Present applies a marker diff
func (p *Presenter) Present(seq uint64, visible bool, diff models.MarkerDiff) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range diff.Removed {
		delete(p.markers, id)
	}
	for _, m := range diff.Added {
		p.markers[m.ID] = m
	}
	for _, m := range diff.Updated {
		p.markers[m.ID] = m
	}

	p.seq = seq
	p.visible = visible
	p.lastDiff = diff
}

// ShowMessage queues a user-facing message until the next snapshot
func (p *Presenter) ShowMessage(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

// SetLocationOverlayVisible records whether the location overlay is shown
func (p *Presenter) SetLocationOverlayVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overlay = visible
}

// Snapshot returns the current markers sorted by id. Queued messages are
// handed out once.
func (p *Presenter) Snapshot() models.MarkersResponse {
	p.mu.Lock()
	defer p.mu.Unlock()

	markers := make([]models.Marker, 0, len(p.markers))
	for _, m := range p.markers {
		markers = append(markers, m)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].ID < markers[j].ID })

	resp := models.MarkersResponse{
		Sequence:        p.seq,
		Visible:         p.visible,
		Markers:         markers,
		LastDiff:        p.lastDiff,
		Messages:        p.messages,
		LocationOverlay: p.overlay,
	}
	p.messages = nil
	return resp
}
