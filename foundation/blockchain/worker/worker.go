// Package worker runs the background work of a context: interval jobs like
// the auction monitor and the sync loop, and keyed one-shot timers like
// auction expiry. A job that fails or panics is logged and never stops the
// jobs that follow it.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// EventHandler defines a function that is called when events
// occur in the processing of jobs.
type EventHandler func(v string, args ...any)

// Func is the work run by a job.
type Func func(ctx context.Context) error

// Worker manages the goroutines running jobs.
type Worker struct {
	mu        sync.Mutex
	wg        sync.WaitGroup
	shut      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	timers    map[string]chan struct{}
	evHandler EventHandler
}

// New constructs a worker ready to accept jobs.
func New(evHandler EventHandler) *Worker {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		shut:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		timers:    make(map[string]chan struct{}),
		evHandler: ev,
	}
}

// Every runs the job on the interval until the returned function is called
// or the worker shuts down. The returned function does not wait for a run
// in progress, so a job may stop itself.
func (w *Worker) Every(name string, interval time.Duration, fn func(ctx context.Context) error) (stop func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isShutdown() {
		return func() {}
	}

	done := make(chan struct{})
	var once sync.Once

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		hasStarted <- true

		w.evHandler("worker: %s: every[%s]: started", name, interval)
		defer w.evHandler("worker: %s: completed", name)

		for {
			select {
			case <-ticker.C:
				if !w.isShutdown() {
					w.run(name, fn)
				}
			case <-done:
				return
			case <-w.shut:
				return
			}
		}
	}()

	<-hasStarted

	return func() { once.Do(func() { close(done) }) }
}

// After runs the job once after the delay. Scheduling a key that is
// already pending replaces the pending job.
func (w *Worker) After(key string, delay time.Duration, fn func(ctx context.Context) error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isShutdown() {
		return
	}

	if pending, exists := w.timers[key]; exists {
		close(pending)
	}

	cancel := make(chan struct{})
	w.timers[key] = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-cancel:
			return
		case <-w.shut:
			return
		}

		w.mu.Lock()
		if w.timers[key] == cancel {
			delete(w.timers, key)
		}
		w.mu.Unlock()

		w.run(key, fn)
	}()
}

// Cancel drops the pending job for the key, if any.
func (w *Worker) Cancel(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, exists := w.timers[key]; exists {
		close(pending)
		delete(w.timers, key)
	}
}

// Pending reports if a job is waiting to run for the key.
func (w *Worker) Pending(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, exists := w.timers[key]
	return exists
}

// Shutdown terminates the goroutines running jobs and waits for them.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.mu.Lock()
	if w.isShutdown() {
		w.mu.Unlock()
		return
	}

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.timers = make(map[string]chan struct{})
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
}

// =============================================================================

// run executes one job, logging a returned error or a panic.
func (w *Worker) run(name string, fn Func) {
	defer func() {
		if r := recover(); r != nil {
			w.evHandler("worker: %s: PANIC: %s", name, fmt.Sprint(r))
		}
	}()

	if err := fn(w.ctx); err != nil {
		w.evHandler("worker: %s: ERROR: %s", name, err)
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
