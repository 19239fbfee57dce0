package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// EventLoop binds a dedicated goroutine to execute tasks sequentially.
// Every piece of navigation state is owned by exactly one EventLoop, so tasks
// posted to it may read and write that state without locks.
//
// It plays the role of the browser's main thread: blocking work (Action.Enter,
// Page.Enter) never runs on the loop; it runs on its own goroutine and posts
// its outcome back with PostBlockingTaskAndReply.
type EventLoop struct {
	// Task queue: Buffered channel for tasks
	workQueue chan Task

	// Lifecycle control
	ctx    context.Context
	cancel context.CancelFunc

	stopped chan struct{}
	once    sync.Once
	closed  atomic.Bool

	name         string
	panicHandler PanicHandler
}

// NewEventLoop creates and starts a new EventLoop.
// It immediately spawns a dedicated goroutine for task execution.
func NewEventLoop(name string, panicHandler PanicHandler) *EventLoop {
	if panicHandler == nil {
		panicHandler = &DefaultPanicHandler{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &EventLoop{
		workQueue:    make(chan Task, 256),
		ctx:          ctx,
		cancel:       cancel,
		stopped:      make(chan struct{}),
		name:         name,
		panicHandler: panicHandler,
	}

	go l.runLoop()

	return l
}

// Name returns the name of the loop
func (l *EventLoop) Name() string {
	return l.name
}

// Context returns the loop lifetime context. It is cancelled by Stop.
func (l *EventLoop) Context() context.Context {
	return l.ctx
}

// PostTask submits a task for execution. Tasks posted after Stop are dropped.
func (l *EventLoop) PostTask(task Task) {
	if l.closed.Load() {
		return
	}

	select {
	case <-l.ctx.Done():
		return
	case l.workQueue <- task:
	}
}

// PostDelayedTask submits a task that runs on the loop after delay.
// The returned handle cancels it; cancelling from a loop task is exact,
// the task is guaranteed not to run afterwards.
func (l *EventLoop) PostDelayedTask(task Task, delay time.Duration) *DelayedTaskHandle {
	h := &DelayedTaskHandle{}
	if l.closed.Load() {
		h.cancelled.Store(true)
		return h
	}

	// time.AfterFunc fires on its own goroutine; the task is injected back
	// into the loop and re-checks the cancel flag there.
	h.timer = time.AfterFunc(delay, func() {
		l.PostTask(func(ctx context.Context) {
			if !h.cancelled.CompareAndSwap(false, true) {
				return
			}
			h.fired.Store(true)
			task(ctx)
		})
	})
	return h
}

// IsClosed returns true if the loop has been stopped
func (l *EventLoop) IsClosed() bool {
	return l.closed.Load()
}

// Stop stops the loop, cancels its context and waits for the current task
// to complete. Queued tasks are dropped.
func (l *EventLoop) Stop() {
	l.once.Do(func() {
		l.closed.Store(true)
		l.cancel()
		<-l.stopped
	})
}

// WaitIdle blocks until all currently queued tasks have completed execution.
// Tasks posted by those tasks (including replies of blocking work that is
// still running) are not waited for.
func (l *EventLoop) WaitIdle(ctx context.Context) error {
	if l.IsClosed() {
		return fmt.Errorf("event loop %s is closed", l.name)
	}

	done := make(chan struct{})
	l.PostTask(func(taskCtx context.Context) {
		close(done)
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return fmt.Errorf("event loop %s is closed", l.name)
	}
}

// runLoop is the core of this loop, it occupies a dedicated goroutine
func (l *EventLoop) runLoop() {
	defer close(l.stopped)

	runCtx := context.WithValue(l.ctx, eventLoopKey, l)

	for {
		select {
		case task := <-l.workQueue:
			l.execute(runCtx, task)
		case <-l.ctx.Done():
			return
		}
	}
}

func (l *EventLoop) execute(ctx context.Context, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			l.panicHandler.HandlePanic(ctx, l.name, rec, debug.Stack())
		}
	}()
	task(ctx)
}

// =============================================================================
// DelayedTaskHandle
// =============================================================================

// DelayedTaskHandle controls a task posted with PostDelayedTask.
type DelayedTaskHandle struct {
	timer     *time.Timer
	cancelled atomic.Bool
	fired     atomic.Bool
}

// Cancel prevents the task from running. It reports whether this call
// disarmed a pending task; it returns false if the task already ran or was
// already cancelled.
func (h *DelayedTaskHandle) Cancel() bool {
	if h == nil {
		return false
	}
	if !h.cancelled.CompareAndSwap(false, true) {
		return false
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	return true
}

// Fired reports whether the task has run.
func (h *DelayedTaskHandle) Fired() bool {
	return h != nil && h.fired.Load()
}
