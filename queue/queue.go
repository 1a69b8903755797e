// Package queue is a bounded task queue with a fixed worker pool. The
// analysis runner uses a single worker over a single-slot queue, which
// makes a full queue mean "a run is already pending" and lets callers
// coalesce triggers by treating a refused enqueue as success.
package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"
)

// Task encapsulates a unit of work processed by the worker pool.
type Task struct {
	ID       string
	Source   string
	Work     func(context.Context) error
	OnFinish func(error)
}

// Stats exposes current queue metrics.
type Stats struct {
	Length    int    `json:"length"`
	Capacity  int    `json:"capacity"`
	Workers   int    `json:"workers"`
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
}

// Queue is a bounded task queue with a fixed worker pool.
type Queue struct {
	tasks     chan Task
	workers   int
	timeout   time.Duration
	started   bool
	mu        sync.RWMutex
	wg        sync.WaitGroup
	processed uint64
	failed    uint64
}

// New creates a Queue with the provided capacity, worker count, and
// per-task timeout. A zero timeout leaves tasks bounded only by the
// queue's context.
func New(capacity, workers int, timeout time.Duration) *Queue {
	return &Queue{
		tasks:   make(chan Task, capacity),
		workers: workers,
		timeout: timeout,
	}
}

// Start launches the worker pool.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Enqueue attempts to queue a task without blocking. Returns false when
// the queue is full or not started.
func (q *Queue) Enqueue(t Task) bool {
	q.mu.RLock()
	started := q.started
	q.mu.RUnlock()
	if !started {
		log.Warnf("enqueue before start for task %s", t.ID)
		return false
	}
	select {
	case q.tasks <- t:
		return true
	default:
		log.Debugf("queue full, refusing task %s", t.ID)
		return false
	}
}

// Stop stops accepting new tasks and waits for workers to drain until the
// context is done.
func (q *Queue) Stop(ctx context.Context) {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Stats returns current queue metrics.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return Stats{
		Length:    len(q.tasks),
		Capacity:  cap(q.tasks),
		Workers:   q.workers,
		Processed: atomic.LoadUint64(&q.processed),
		Failed:    atomic.LoadUint64(&q.failed),
	}
}

// Healthy reports whether the queue has been started.
func (q *Queue) Healthy() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.started
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-q.tasks:
			if !ok {
				return
			}
			q.handle(ctx, t)
		}
	}
}

func (q *Queue) handle(ctx context.Context, t Task) {
	start := time.Now()
	taskCtx := ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	err := runTask(taskCtx, t)
	if t.OnFinish != nil {
		t.OnFinish(err)
	}
	atomic.AddUint64(&q.processed, 1)
	status := "success"
	if err != nil {
		atomic.AddUint64(&q.failed, 1)
		status = err.Error()
	}
	log.WithFields(log.Fields{
		"source":      t.Source,
		"task":        t.ID,
		"duration_ms": time.Since(start).Milliseconds(),
		"status":      status,
	}).Debug("task finished")
}

// runTask converts a panic into an error so OnFinish always fires and the
// failure counters stay truthful.
func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return t.Work(ctx)
}
