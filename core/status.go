package core

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// Status is the state of the navigation gate.
type Status int32

const (
	StatusIdle Status = iota
	StatusLoading
)

func (s Status) String() string {
	if s == StatusLoading {
		return "loading"
	}
	return "idle"
}

// StatusRegister is the global Idle/Loading gate. A navigation acquires it
// when it leaves the pending slot; an armed recovery timer forces it back to
// Idle if the navigation's Action takes too long to enter, so newer
// navigations are not blocked forever.
//
// All methods except Status must be called on the event loop.
type StatusRegister struct {
	loop    *EventLoop
	status  atomic.Int32
	timeout atomic.Duration
	timer   *DelayedTaskHandle
	holder  uint64

	onRecover func(ctx context.Context, seq uint64)
}

// NewStatusRegister creates an Idle register. onRecover runs on the loop
// after the recovery timer reopened the gate held by seq.
func NewStatusRegister(loop *EventLoop, timeout time.Duration, onRecover func(ctx context.Context, seq uint64)) *StatusRegister {
	r := &StatusRegister{loop: loop, onRecover: onRecover}
	r.timeout.Store(timeout)
	return r
}

// Status returns the current state. Safe from any goroutine.
func (r *StatusRegister) Status() Status {
	return Status(r.status.Load())
}

// Holder returns the sequence number of the navigation that last acquired
// or held the gate.
func (r *StatusRegister) Holder() uint64 {
	return r.holder
}

// SetTimeout changes the recovery timeout for future acquisitions.
func (r *StatusRegister) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		r.timeout.Store(timeout)
	}
}

// Timeout returns the recovery timeout.
func (r *StatusRegister) Timeout() time.Duration {
	return r.timeout.Load()
}

// Acquire closes the gate for seq and arms the recovery timer.
func (r *StatusRegister) Acquire(seq uint64) {
	r.disarm()
	r.holder = seq
	r.status.Store(int32(StatusLoading))
	r.timer = r.loop.PostDelayedTask(func(ctx context.Context) {
		r.timer = nil
		r.status.Store(int32(StatusIdle))
		if r.onRecover != nil {
			r.onRecover(ctx, seq)
		}
	}, r.timeout.Load())
}

// Hold keeps the gate closed for seq without a recovery timer, for the
// duration of a visual transition that must not be interrupted.
func (r *StatusRegister) Hold(seq uint64) {
	r.disarm()
	r.holder = seq
	r.status.Store(int32(StatusLoading))
}

// Release reopens the gate if seq still holds it. It reports whether the
// state changed; a stale release after recovery or hand-over is a no-op.
func (r *StatusRegister) Release(seq uint64) bool {
	if r.holder != seq || r.Status() != StatusLoading {
		return false
	}
	r.disarm()
	r.status.Store(int32(StatusIdle))
	return true
}

// Armed reports whether a recovery timer is pending.
func (r *StatusRegister) Armed() bool {
	return r.timer != nil
}

func (r *StatusRegister) disarm() {
	if r.timer != nil {
		r.timer.Cancel()
		r.timer = nil
	}
}
