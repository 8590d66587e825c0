package concurrent

import (
	"context"
	"errors"
	"sync"
)

// ErrWorkerClosed is returned when a job is submitted after Close
var ErrWorkerClosed = errors.New("background worker closed")

// JobFunc processes one job
type JobFunc[T any] func(job T)

// BackgroundWorker runs jobs on a fixed number of goroutines, off the
// caller's goroutine
type BackgroundWorker[T any] struct {
	workers   int
	msgC      chan T
	waitGroup sync.WaitGroup
	jobFunc   JobFunc[T]

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewBackgroundWorker creates a pool with the given number of workers and
// queue buffer
func NewBackgroundWorker[T any](workers, buffer int, jobFunc JobFunc[T]) *BackgroundWorker[T] {
	if workers < 1 {
		workers = 1
	}
	return &BackgroundWorker[T]{
		workers: workers,
		msgC:    make(chan T, buffer),
		jobFunc: jobFunc,
	}
}

// TriggerProcessing queues a job, blocking while the queue is full
func (bw *BackgroundWorker[T]) TriggerProcessing(ctx context.Context, job T) error {
	bw.mu.RLock()
	defer bw.mu.RUnlock()
	if bw.closed {
		return ErrWorkerClosed
	}

	select {
	case bw.msgC <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the workers
func (bw *BackgroundWorker[T]) Start() {
	bw.waitGroup.Add(bw.workers)
	for i := 0; i < bw.workers; i++ {
		go func() {
			defer bw.waitGroup.Done()
			for job := range bw.msgC {
				bw.jobFunc(job)
			}
		}()
	}
}

// Close stops accepting jobs, drains the queue and waits for the workers
func (bw *BackgroundWorker[T]) Close() {
	bw.closeOnce.Do(func() {
		bw.mu.Lock()
		bw.closed = true
		close(bw.msgC)
		bw.mu.Unlock()
	})
	bw.waitGroup.Wait()
}
