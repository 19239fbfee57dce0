package core

import (
	"context"
	"fmt"
	"runtime/debug"
)

// BlockingTask is work that must not run on the EventLoop goroutine.
type BlockingTask[T any] func(ctx context.Context) (T, error)

// Reply receives the outcome of a BlockingTask on the EventLoop goroutine.
type Reply[T any] func(ctx context.Context, result T, err error)

// ErrTaskPanicked wraps a panic raised by a BlockingTask.
type ErrTaskPanicked struct {
	Value any
	Stack []byte
}

func (e *ErrTaskPanicked) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// PostBlockingTaskAndReply runs task on a fresh goroutine and posts reply,
// with the task's result, back to loop.
//
// Execution guarantee (Happens-Before):
// - The task ALWAYS completes before the reply starts
// - A panicking task is reported to reply as *ErrTaskPanicked; the reply
//   always runs
// - If the loop is stopped before the task returns, the reply is dropped
//
// Example:
//
//	PostBlockingTaskAndReply(
//	    loop,
//	    func(ctx context.Context) (struct{}, error) {
//	        return struct{}{}, action.Enter(ctx, path, query, page.Main(), opts)
//	    },
//	    func(ctx context.Context, _ struct{}, err error) {
//	        coordinator.entered(nav, err)
//	    },
//	)
func PostBlockingTaskAndReply[T any](loop *EventLoop, task BlockingTask[T], reply Reply[T]) {
	ctx := loop.Context()

	go func() {
		var result T
		var err error

		func() {
			defer func() {
				if rec := recover(); rec != nil {
					err = &ErrTaskPanicked{Value: rec, Stack: debug.Stack()}
				}
			}()
			result, err = task(ctx)
		}()

		loop.PostTask(func(ctx context.Context) {
			reply(ctx, result, err)
		})
	}()
}
