package mapview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jengzang/restroom-map/internal/concurrent"
	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/spatial"
	"go.uber.org/zap"
)

// ErrControllerStopped is returned by Submit after Run has returned
var ErrControllerStopped = errors.New("map controller stopped")

var errInvalidLocation = errors.New("location out of range")

// PointSource is the store the controller reads and appends to
type PointSource interface {
	ListAll(ctx context.Context) ([]models.Point, error)
	Insert(ctx context.Context, name string, lat, lng float64, secret string) (*models.Point, error)
}

// Presenter renders marker changes and user messages. Calls are made from
// the controller's loop goroutine only.
type Presenter interface {
	Present(seq uint64, visible bool, diff models.MarkerDiff)
	ShowMessage(msg string)
	SetLocationOverlayVisible(visible bool)
}

// State of the zoom gate
type State int

const (
	StateHidden State = iota
	StateVisible
)

func (s State) String() string {
	if s == StateVisible {
		return "markers-visible"
	}
	return "markers-hidden"
}

// Options configures a Controller
type Options struct {
	CellSize      float64
	Bucketing     spatial.Bucketing
	ZoomThreshold float64
	Workers       int
}

type jobKind int

const (
	jobRefresh jobKind = iota
	jobInsert
)

type job struct {
	kind   jobKind
	seq    uint64
	camera models.Camera
	name   string
	secret string
	at     models.LatLng
}

type result struct {
	job    job
	points []models.Point
	point  *models.Point
	err    error
}

// Controller drives the marker pipeline for one map. Events are handled one
// at a time on the goroutine running Run; store reads and inserts run on a
// background worker and their results come back to that goroutine. Every
// refresh gets a sequence number and only the latest one is presented.
type Controller struct {
	source    PointSource
	presenter Presenter
	clusterer *spatial.GridClusterer
	threshold float64
	workers   int
	log       *zap.Logger

	events  chan Event
	results chan result
	stopped chan struct{}

	// owned by the Run goroutine
	state     State
	markers   *MarkerSet
	seq       uint64
	presented bool
	camera    *models.Camera
	location  *models.LatLng

	// inserts run one at a time in submit order
	inserts   []job
	inserting bool
}

// NewController creates a controller. Call Run to start processing events.
func NewController(source PointSource, presenter Presenter, opts Options, log *zap.Logger) *Controller {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Controller{
		source:    source,
		presenter: presenter,
		clusterer: spatial.NewGridClusterer(opts.CellSize, opts.Bucketing),
		threshold: opts.ZoomThreshold,
		workers:   opts.Workers,
		log:       log,
		events:    make(chan Event, 64),
		results:   make(chan result, 16),
		stopped:   make(chan struct{}),
		state:     StateHidden,
		markers:   NewMarkerSet(),
	}
}

// Submit queues an event for the loop
func (c *Controller) Submit(ctx context.Context, ev Event) error {
	select {
	case c.events <- ev:
		return nil
	case <-c.stopped:
		return ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled
func (c *Controller) Run(ctx context.Context) error {
	worker := concurrent.NewBackgroundWorker[job](c.workers, 16, func(j job) {
		r := c.execute(ctx, j)
		select {
		case c.results <- r:
		case <-c.stopped:
		}
	})
	worker.Start()

	defer func() {
		close(c.stopped)
		worker.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			c.handleEvent(ctx, worker, ev)
		case r := <-c.results:
			c.handleResult(ctx, worker, r)
		}
	}
}

// execute runs on a worker goroutine
func (c *Controller) execute(ctx context.Context, j job) result {
	switch j.kind {
	case jobInsert:
		p, err := c.source.Insert(ctx, j.name, j.at.Lat, j.at.Lng, j.secret)
		return result{job: j, point: p, err: err}
	default:
		points, err := c.source.ListAll(ctx)
		return result{job: j, points: points, err: err}
	}
}

// dispatch hands a job to the worker without blocking the loop
func (c *Controller) dispatch(ctx context.Context, worker *concurrent.BackgroundWorker[job], j job) {
	go func() {
		if err := worker.TriggerProcessing(ctx, j); err != nil {
			c.log.Debug("Job not dispatched", zap.Uint64("seq", j.seq), zap.Error(err))
		}
	}()
}

func (c *Controller) handleEvent(ctx context.Context, worker *concurrent.BackgroundWorker[job], ev Event) {
	switch ev.Kind {
	case EventMapReady, EventCameraIdle:
		cam := ev.Camera
		c.camera = &cam
		c.refresh(ctx, worker)

	case EventLocationChanged:
		loc := ev.Location
		if !spatial.ValidLatLng(loc.Lat, loc.Lng) {
			c.log.Warn("Ignoring out of range location", zap.Float64("lat", loc.Lat), zap.Float64("lng", loc.Lng))
			c.presenter.ShowMessage(errInvalidLocation.Error())
			return
		}
		c.location = &loc

	case EventPermissionResult:
		if !ev.Granted {
			c.location = nil
		}
		c.presenter.SetLocationOverlayVisible(ev.Granted)

	case EventAddPoint:
		name, secret := strings.TrimSpace(ev.Name), strings.TrimSpace(ev.Secret)
		if name == "" || secret == "" {
			c.presenter.ShowMessage("name and password are required")
			return
		}
		if c.location == nil {
			c.presenter.ShowMessage(models.ErrLocationUnavailable.Error())
			return
		}
		c.inserts = append(c.inserts, job{kind: jobInsert, name: name, secret: secret, at: *c.location})
		c.nextInsert(ctx, worker)

	default:
		c.log.Warn("Unknown map event", zap.Int("kind", int(ev.Kind)))
	}
}

// nextInsert dispatches the oldest queued insert unless one is in flight
func (c *Controller) nextInsert(ctx context.Context, worker *concurrent.BackgroundWorker[job]) {
	if c.inserting || len(c.inserts) == 0 {
		return
	}
	j := c.inserts[0]
	c.inserts = c.inserts[1:]
	c.inserting = true
	c.dispatch(ctx, worker, j)
}

// present forwards a change to the presenter. A run that changes neither the
// markers nor their visibility is not presented again.
func (c *Controller) present(seq uint64, visible bool, diff models.MarkerDiff) {
	if c.presented && diff.Empty() && visible == (c.state == StateVisible) {
		c.log.Debug("Markers unchanged", zap.Uint64("seq", seq))
		return
	}
	c.presented = true
	if visible {
		c.state = StateVisible
	} else {
		c.state = StateHidden
	}
	c.log.Debug("Presenting markers", zap.Uint64("seq", seq), zap.Stringer("state", c.state))
	c.presenter.Present(seq, visible, diff)
}

// refresh applies the zoom gate and starts a new pipeline run if needed.
// Bumping the sequence first makes any in-flight read stale.
func (c *Controller) refresh(ctx context.Context, worker *concurrent.BackgroundWorker[job]) {
	if c.camera == nil {
		return
	}

	c.seq++
	seq := c.seq

	if c.camera.Zoom < c.threshold {
		diff := c.markers.Clear()
		c.log.Debug("Zoomed out, hiding markers",
			zap.Uint64("seq", seq),
			zap.Float64("zoom", c.camera.Zoom),
		)
		c.present(seq, false, diff)
		return
	}

	c.dispatch(ctx, worker, job{kind: jobRefresh, seq: seq, camera: *c.camera})
}

func (c *Controller) handleResult(ctx context.Context, worker *concurrent.BackgroundWorker[job], r result) {
	switch r.job.kind {
	case jobInsert:
		c.inserting = false
		defer c.nextInsert(ctx, worker)

		if r.err != nil {
			c.log.Error("Failed to add point", zap.String("name", r.job.name), zap.Error(r.err))
			c.presenter.ShowMessage(fmt.Sprintf("failed to add %s", r.job.name))
			return
		}
		c.log.Info("Point added", zap.Int64("id", r.point.ID), zap.String("name", r.point.Name))
		c.refresh(ctx, worker)

	case jobRefresh:
		if r.job.seq != c.seq {
			c.log.Debug("Dropping superseded refresh", zap.Uint64("seq", r.job.seq), zap.Uint64("latest", c.seq))
			return
		}
		if r.err != nil {
			c.log.Error("Failed to load points", zap.Uint64("seq", r.job.seq), zap.Error(r.err))
			return
		}

		visible := spatial.FilterViewport(r.points, r.job.camera.Bounds)
		clusters := c.clusterer.Cluster(visible)
		diff := c.markers.Apply(spatial.ToMarkers(clusters))

		c.log.Debug("Markers refreshed",
			zap.Uint64("seq", r.job.seq),
			zap.Int("points", len(visible)),
			zap.Int("clusters", len(clusters)),
		)
		c.present(r.job.seq, true, diff)
	}
}
