// Package jobs runs pull request reviews in the background.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/sevigo/pr-warden/internal/core"
)

var (
	// ErrQueueFull is returned by Dispatch when no queue slot is free.
	ErrQueueFull = errors.New("job queue is full")
	// ErrStopped is returned by Dispatch after Stop.
	ErrStopped = errors.New("dispatcher is stopped")
)

const defaultQueueSize = 100

// dispatcher implements core.JobDispatcher and manages a pool of worker goroutines
// for processing pull request events.
type dispatcher struct {
	job        core.Job
	queue      chan *core.PullRequestEvent
	maxWorkers int
	wg         sync.WaitGroup
	logger     *slog.Logger

	mu      sync.RWMutex // guards stopped and the close of queue
	stopped bool
}

// NewDispatcher initializes a dispatcher with a worker pool.
// Non-positive maxWorkers and queueSize fall back to 1 and 100.
func NewDispatcher(job core.Job, maxWorkers, queueSize int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &dispatcher{
		job:        job,
		maxWorkers: maxWorkers,
		queue:      make(chan *core.PullRequestEvent, queueSize),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes events from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Debug("starting review worker", "id", workerID)

	for event := range d.queue {
		d.processEvent(workerID, event)
	}

	d.logger.Debug("shutting down review worker", "id", workerID)
}

// processEvent runs the job for one event. Errors and panics end here.
func (d *dispatcher) processEvent(workerID int, event *core.PullRequestEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("review job panicked",
				"worker_id", workerID,
				"key", event.NaturalKey(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	d.logger.Info("worker processing job",
		"worker_id", workerID,
		"key", event.NaturalKey(),
		"action", event.Action,
		"delivery", event.DeliveryID,
	)

	if err := d.job.Run(context.Background(), event); err != nil {
		d.logger.Error("review job failed",
			"repo", event.RepoFullName,
			"pr", event.PRNumber,
			"error", err,
		)
	}
}

// Dispatch queues an event without blocking.
func (d *dispatcher) Dispatch(_ context.Context, event *core.PullRequestEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queue <- event:
		d.logger.Info("queued review job", "repo", event.RepoFullName, "pr", event.PRNumber)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued and running jobs to finish.
// It is safe to call more than once.
func (d *dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	d.wg.Wait()
	d.logger.Info("all review jobs have finished")
}
