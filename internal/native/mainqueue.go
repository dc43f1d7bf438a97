package native

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned when work is submitted after Close.
var ErrQueueClosed = errors.New("main queue is closed")

// MainQueue runs submitted funcs one at a time, in submission order, on a
// single goroutine. All badge and notification OS calls go through it.
type MainQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
	logger *slog.Logger
}

// NewMainQueue starts the queue goroutine.
func NewMainQueue(logger *slog.Logger) *MainQueue {
	q := &MainQueue{
		done:   make(chan struct{}),
		logger: logger.With("component", "MainQueue"),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Async enqueues fn without waiting for it to run.
func (q *MainQueue) Async(fn func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.tasks = append(q.tasks, fn)
	q.cond.Signal()
	return nil
}

// Do enqueues fn and waits until it has run or ctx is done. If ctx ends first
// fn may still run later.
func (q *MainQueue) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	err := q.Async(func() {
		defer close(finished)
		fn()
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued work and stops the goroutine. It must not be called
// from a func running on the queue.
func (q *MainQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
	<-q.done
}

func (q *MainQueue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		q.run(fn)
	}
}

func (q *MainQueue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Main queue task panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
