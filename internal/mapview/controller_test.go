package mapview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeSource struct {
	mu      sync.Mutex
	points  []models.Point
	calls   int
	inserts int
	added   []models.Point
	gates   map[int]chan struct{} // ListAll call number -> release gate
}

func (f *fakeSource) ListAll(ctx context.Context) ([]models.Point, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gates[f.calls]
	points := append([]models.Point(nil), f.points...)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return points, nil
}

func (f *fakeSource) Insert(_ context.Context, name string, lat, lng float64, secret string) (*models.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var max int64
	for _, p := range f.points {
		if p.ID > max {
			max = p.ID
		}
	}
	p := models.Point{ID: max + 1, Name: name, Latitude: lat, Longitude: lng, Secret: secret}
	f.points = append(f.points, p)
	f.inserts++
	f.added = append(f.added, p)
	return &p, nil
}

func (f *fakeSource) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) insertCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

func (f *fakeSource) addedPoints() []models.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Point(nil), f.added...)
}

type presented struct {
	seq     uint64
	visible bool
	diff    models.MarkerDiff
}

type recorder struct {
	mu       sync.Mutex
	presents []presented
	messages []string
	overlay  []bool
}

func (r *recorder) Present(seq uint64, visible bool, diff models.MarkerDiff) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presents = append(r.presents, presented{seq: seq, visible: visible, diff: diff})
}

func (r *recorder) ShowMessage(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) SetLocationOverlayVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlay = append(r.overlay, visible)
}

func (r *recorder) snapshot() ([]presented, []string, []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]presented(nil), r.presents...),
		append([]string(nil), r.messages...),
		append([]bool(nil), r.overlay...)
}

func (r *recorder) presentCount() int {
	p, _, _ := r.snapshot()
	return len(p)
}

func startController(t *testing.T, source PointSource) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	c := NewController(source, rec, Options{
		CellSize:      0.01,
		Bucketing:     spatial.BucketFloor,
		ZoomThreshold: 10,
		Workers:       2,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c, rec
}

func seoul(zoom float64) models.Camera {
	return models.Camera{
		Bounds: models.Bounds{MinLat: 37.0, MinLng: 126.5, MaxLat: 38.5, MaxLng: 128.5},
		Zoom:   zoom,
	}
}

func submit(t *testing.T, c *Controller, ev Event) {
	t.Helper()
	require.NoError(t, c.Submit(context.Background(), ev))
}

func TestZoomedOutSkipsPipeline(t *testing.T) {
	source := &fakeSource{points: []models.Point{{ID: 1, Name: "A", Latitude: 37.5, Longitude: 127}}}
	c, rec := startController(t, source)

	submit(t, c, MapReady(seoul(9)))

	require.Eventually(t, func() bool { return rec.presentCount() == 1 }, waitFor, tick)
	presents, _, _ := rec.snapshot()
	assert.Equal(t, uint64(1), presents[0].seq)
	assert.False(t, presents[0].visible)
	assert.True(t, presents[0].diff.Empty())
	assert.Zero(t, source.listCalls())
}

func TestRefreshClustersVisiblePoints(t *testing.T) {
	source := &fakeSource{points: []models.Point{
		{ID: 1, Name: "A", Latitude: 37.50, Longitude: 127.00},
		{ID: 2, Name: "B", Latitude: 37.50, Longitude: 127.00001},
		{ID: 3, Name: "C", Latitude: 38.00, Longitude: 128.00},
		{ID: 4, Name: "Busan", Latitude: 35.18, Longitude: 129.07},
	}}
	c, rec := startController(t, source)

	submit(t, c, MapReady(seoul(12)))

	require.Eventually(t, func() bool { return rec.presentCount() == 1 }, waitFor, tick)
	presents, _, _ := rec.snapshot()
	assert.True(t, presents[0].visible)

	added := presents[0].diff.Added
	require.Len(t, added, 2)
	assert.Equal(t, "c:3750:12700", added[0].ID)
	assert.Equal(t, "2", added[0].Caption)
	assert.Equal(t, "p:3", added[1].ID)
	assert.Equal(t, "C", added[1].Caption)

	// Zooming out removes what was shown.
	submit(t, c, CameraIdle(seoul(9)))
	require.Eventually(t, func() bool { return rec.presentCount() == 2 }, waitFor, tick)
	presents, _, _ = rec.snapshot()
	assert.False(t, presents[1].visible)
	assert.Equal(t, []string{"c:3750:12700", "p:3"}, presents[1].diff.Removed)
}

func TestSupersededRefreshIsDropped(t *testing.T) {
	slow := make(chan struct{})
	source := &fakeSource{
		points: []models.Point{{ID: 1, Name: "A", Latitude: 37.5, Longitude: 127}},
		gates:  map[int]chan struct{}{1: slow},
	}
	c, rec := startController(t, source)

	submit(t, c, CameraIdle(seoul(12)))
	require.Eventually(t, func() bool { return source.listCalls() == 1 }, waitFor, tick)

	submit(t, c, CameraIdle(seoul(13)))
	require.Eventually(t, func() bool { return rec.presentCount() == 1 }, waitFor, tick)

	close(slow)
	assert.Never(t, func() bool { return rec.presentCount() > 1 }, 100*time.Millisecond, tick)

	presents, _, _ := rec.snapshot()
	assert.Equal(t, uint64(2), presents[0].seq)
}

func TestZoomOutSupersedesInFlightRefresh(t *testing.T) {
	slow := make(chan struct{})
	source := &fakeSource{
		points: []models.Point{{ID: 1, Name: "A", Latitude: 37.5, Longitude: 127}},
		gates:  map[int]chan struct{}{1: slow},
	}
	c, rec := startController(t, source)

	submit(t, c, CameraIdle(seoul(12)))
	require.Eventually(t, func() bool { return source.listCalls() == 1 }, waitFor, tick)
	submit(t, c, CameraIdle(seoul(5)))
	require.Eventually(t, func() bool { return rec.presentCount() == 1 }, waitFor, tick)

	close(slow)
	assert.Never(t, func() bool { return rec.presentCount() > 1 }, 100*time.Millisecond, tick)

	presents, _, _ := rec.snapshot()
	assert.False(t, presents[0].visible)
}

func TestAddPointWithoutLocation(t *testing.T) {
	source := &fakeSource{}
	c, rec := startController(t, source)

	submit(t, c, AddPoint("Station A", "1234"))

	require.Eventually(t, func() bool {
		_, msgs, _ := rec.snapshot()
		return len(msgs) == 1
	}, waitFor, tick)
	_, msgs, _ := rec.snapshot()
	assert.Equal(t, models.ErrLocationUnavailable.Error(), msgs[0])
	assert.Zero(t, source.insertCalls())
}

func TestAddPointRefreshesMarkers(t *testing.T) {
	source := &fakeSource{}
	c, rec := startController(t, source)

	submit(t, c, MapReady(seoul(12)))
	require.Eventually(t, func() bool { return rec.presentCount() == 1 }, waitFor, tick)

	submit(t, c, LocationChanged(models.LatLng{Lat: 37.1, Lng: 127.1}))
	submit(t, c, AddPoint("Station A", "1234"))

	require.Eventually(t, func() bool { return rec.presentCount() == 2 }, waitFor, tick)
	presents, _, _ := rec.snapshot()
	require.Len(t, presents[1].diff.Added, 1)
	assert.Equal(t, "p:1", presents[1].diff.Added[0].ID)
	assert.Equal(t, "Station A", presents[1].diff.Added[0].Caption)
	assert.Equal(t, 1, source.insertCalls())
}

func TestAddPointRequiresNameAndSecret(t *testing.T) {
	source := &fakeSource{}
	c, rec := startController(t, source)

	submit(t, c, LocationChanged(models.LatLng{Lat: 37.1, Lng: 127.1}))
	submit(t, c, AddPoint("  ", "1234"))

	require.Eventually(t, func() bool {
		_, msgs, _ := rec.snapshot()
		return len(msgs) == 1
	}, waitFor, tick)
	assert.Zero(t, source.insertCalls())
}

func TestOutOfRangeLocationIsIgnored(t *testing.T) {
	source := &fakeSource{}
	c, rec := startController(t, source)

	submit(t, c, LocationChanged(models.LatLng{Lat: 500, Lng: -900}))
	submit(t, c, AddPoint("Bad", "1"))

	require.Eventually(t, func() bool {
		_, msgs, _ := rec.snapshot()
		return len(msgs) == 2
	}, waitFor, tick)
	_, msgs, _ := rec.snapshot()
	assert.Equal(t, []string{errInvalidLocation.Error(), models.ErrLocationUnavailable.Error()}, msgs)
	assert.Zero(t, source.insertCalls())

	// A bad fix does not replace the last good one.
	submit(t, c, LocationChanged(models.LatLng{Lat: 37.1, Lng: 127.1}))
	submit(t, c, LocationChanged(models.LatLng{Lat: 91, Lng: 127.1}))
	submit(t, c, AddPoint("Good", "1"))

	require.Eventually(t, func() bool { return source.insertCalls() == 1 }, waitFor, tick)
	added := source.addedPoints()
	assert.Equal(t, "Good", added[0].Name)
	assert.Equal(t, 37.1, added[0].Latitude)
	assert.Equal(t, 127.1, added[0].Longitude)
}

func TestInsertsFollowSubmitOrder(t *testing.T) {
	source := &fakeSource{}
	c, _ := startController(t, source)

	submit(t, c, LocationChanged(models.LatLng{Lat: 37.1, Lng: 127.1}))
	names := []string{"A", "B", "C", "D", "E", "F"}
	for _, name := range names {
		submit(t, c, AddPoint(name, "1"))
	}

	require.Eventually(t, func() bool { return source.insertCalls() == len(names) }, waitFor, tick)
	for i, p := range source.addedPoints() {
		assert.Equal(t, names[i], p.Name)
		assert.Equal(t, int64(i+1), p.ID)
	}
}

func TestUnchangedRefreshIsNotPresented(t *testing.T) {
	source := &fakeSource{points: []models.Point{{ID: 1, Name: "A", Latitude: 37.5, Longitude: 127}}}
	c, rec := startController(t, source)

	submit(t, c, MapReady(seoul(12)))
	require.Eventually(t, func() bool { return rec.presentCount() == 1 }, waitFor, tick)

	submit(t, c, CameraIdle(seoul(12)))
	require.Eventually(t, func() bool { return source.listCalls() == 2 }, waitFor, tick)
	assert.Never(t, func() bool { return rec.presentCount() > 1 }, 100*time.Millisecond, tick)

	// Hiding still reaches the presenter, and hiding again does not.
	submit(t, c, CameraIdle(seoul(5)))
	require.Eventually(t, func() bool { return rec.presentCount() == 2 }, waitFor, tick)
	submit(t, c, CameraIdle(seoul(4)))
	assert.Never(t, func() bool { return rec.presentCount() > 2 }, 100*time.Millisecond, tick)

	presents, _, _ := rec.snapshot()
	assert.False(t, presents[1].visible)
	assert.Equal(t, []string{"p:1"}, presents[1].diff.Removed)
}

func TestPermissionDeniedHidesOverlay(t *testing.T) {
	source := &fakeSource{}
	c, rec := startController(t, source)

	submit(t, c, LocationChanged(models.LatLng{Lat: 37.1, Lng: 127.1}))
	submit(t, c, PermissionResult(false))
	submit(t, c, AddPoint("Station A", "1234"))

	require.Eventually(t, func() bool {
		_, msgs, overlay := rec.snapshot()
		return len(msgs) == 1 && len(overlay) == 1
	}, waitFor, tick)

	_, msgs, overlay := rec.snapshot()
	assert.Equal(t, []bool{false}, overlay)
	assert.Equal(t, models.ErrLocationUnavailable.Error(), msgs[0])
	assert.Zero(t, source.insertCalls())
}

func TestSubmitAfterStop(t *testing.T) {
	c := NewController(&fakeSource{}, &recorder{}, Options{CellSize: 0.01, ZoomThreshold: 10}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- c.Run(ctx) }()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// Fill the buffer so only the stopped branch can be taken.
	for i := 0; i < cap(c.events); i++ {
		c.events <- CameraIdle(seoul(1))
	}
	assert.ErrorIs(t, c.Submit(context.Background(), CameraIdle(seoul(1))), ErrControllerStopped)
}

func TestParseEventKind(t *testing.T) {
	k, ok := ParseEventKind("camera_idle")
	assert.True(t, ok)
	assert.Equal(t, EventCameraIdle, k)

	_, ok = ParseEventKind("zoom")
	assert.False(t, ok)
}
