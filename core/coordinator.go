package core

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// The transition coordinator drives one navigation through its stages:
//
//	begin -> (enter | wakeup) -> startTransition -> transitioned -> finish
//
// with fail (enter rejected) and discard (superseded) as the only side
// branches. Every stage runs on the event loop; Enter and Page.Enter run
// off-loop and re-enter the pipeline through their replies.

// begin releases the outgoing Action, resolves the incoming one and starts
// entering it.
func (n *Navigator) begin(ctx context.Context, route Route, seq uint64) {
	cur := &n.nav.current
	nv := &navigation{
		id:        uuid.NewString(),
		seq:       seq,
		route:     route,
		startedAt: time.Now(),
		prevRoute: cur.route,
		prev:      cur.refs(),
	}
	n.inflight.Inc()
	n.started.Inc()
	n.logger.Debug("Navigation started",
		F("id", nv.id),
		F("seq", seq),
		F("path", route.Path),
		F("from", cur.path()),
	)

	// Outgoing Action: sleep when the current route may be cached, else leave.
	if cur.action != nil && !cur.released {
		outgoing := cur.action
		if cur.route.Cached {
			n.invoke(ctx, "action.sleep", outgoing.Sleep)
			cur.slept = true
		} else {
			n.invoke(ctx, "action.leave", outgoing.Leave)
			n.invoke(ctx, "action.dispose", outgoing.Dispose)
		}
		cur.released = true
	}

	// Incoming Action: reuse the cached instance or build a fresh one.
	if route.Cached {
		cached, hit := n.nav.cache.Get(route.Path)
		n.metrics.RecordActionCache(route.Path, hit)
		if hit {
			nv.action = cached
			nv.resumed = !route.Options.NoCache
		}
	}
	if nv.action == nil {
		nv.action = route.Action.New()
	}

	nv.transition = n.resolveTransition(ctx, nv)

	nv.page = n.viewport.Load(route.Path, LoadOptions{Cached: route.Cached})

	nv.page.On(SignalAfterEnter, func() {
		nv.afterOnce.Do(func() {
			n.loop.PostTask(func(ctx context.Context) {
				n.publish(ctx, EventAfterLoad, nv, nil)
			})
		})
	})
	n.publish(ctx, EventBeforeLoad, nv, nil)

	if nv.resumed {
		n.invoke(ctx, "action.wakeup", func() {
			nv.action.Wakeup(route.Path, route.Query, route.Options)
		})
		n.startTransition(ctx, nv)
		return
	}

	action, main := nv.action, nv.page.Main()
	PostBlockingTaskAndReply(n.loop,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, action.Enter(ctx, route.Path, route.Query, main, route.Options)
		},
		func(ctx context.Context, _ struct{}, err error) {
			n.entered(ctx, nv, err)
		},
	)
}

// resolveTransition merges the route transition with the processor output.
// A query-only change never animates.
func (n *Navigator) resolveTransition(ctx context.Context, nv *navigation) Transition {
	t := Transition{}.merge(&nv.route.Transition)
	if n.cfg.TransitionProcessor != nil {
		var extra *Transition
		n.invoke(ctx, "processor.transition", func() {
			extra = n.cfg.TransitionProcessor(&nv.route, nv.prevRoute)
		})
		t = t.merge(extra)
	}
	if nv.prevRoute != nil && nv.prevRoute.Path == nv.route.Path {
		t.Type = TransitionNone
	}
	return t
}

// entered is the reply of Action.Enter.
func (n *Navigator) entered(ctx context.Context, nv *navigation, err error) {
	if err != nil {
		n.fail(ctx, nv, err)
		return
	}
	n.startTransition(ctx, nv)
}

// startTransition commits nv as current and runs the page transition.
func (n *Navigator) startTransition(ctx context.Context, nv *navigation) {
	if !n.nav.latest(nv.seq) {
		n.discard(ctx, nv)
		return
	}

	// The visual transition must not be cut short by the recovery timer.
	n.nav.status.Hold(nv.seq)
	n.publish(ctx, EventBeforeTransition, nv, nil)

	cur := &n.nav.current
	if nv.route.Cached {
		n.nav.cache.Put(nv.route.Path, nv.action)
	}
	if cur.route != nil && cur.route.Cached && cur.action != nil {
		n.nav.cache.Put(cur.route.Path, cur.action)
	}
	route := nv.route
	n.nav.current = committed{route: &route, page: nv.page, action: nv.action}
	n.updateSnapshot()
	n.logger.Debug("Navigation committed", F("id", nv.id), F("path", route.Path))

	page, t := nv.page, nv.transition
	PostBlockingTaskAndReply(n.loop,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, page.Enter(ctx, t.Type, t)
		},
		func(ctx context.Context, _ struct{}, err error) {
			n.transitioned(ctx, nv, err)
		},
	)
}

// transitioned is the reply of Page.Enter.
func (n *Navigator) transitioned(ctx context.Context, nv *navigation, err error) {
	if err != nil {
		terr := newNavigationError("transition", nv.route.Path, ErrTransitionFailed, err)
		n.logger.Error("Page transition failed", F("id", nv.id), F("path", nv.route.Path), F("error", err))
		n.publish(ctx, EventError, nv, terr)
		n.finish(ctx, nv, OutcomeFailed, terr)
		return
	}

	if !nv.resumed {
		n.invoke(ctx, "action.ready", nv.action.Ready)
	}
	n.invoke(ctx, "action.complete", nv.action.Complete)
	n.finish(ctx, nv, OutcomeCompleted, nil)
}

// fail rolls back a navigation whose Action failed to enter.
func (n *Navigator) fail(ctx context.Context, nv *navigation, cause error) {
	err := newNavigationError("enter", nv.route.Path, ErrEnterFailed, cause)
	latest := n.nav.latest(nv.seq)
	n.logger.Error("Action enter failed, rolling back",
		F("id", nv.id),
		F("path", nv.route.Path),
		F("error", cause),
	)

	n.publish(ctx, EventError, nv, err)
	n.invoke(ctx, "page.remove", func() { nv.page.Remove(true) })

	// A stale navigation must not tear down an Action a newer one now owns.
	if latest || !n.nav.owned(nv.action) {
		n.nav.cache.Delete(nv.route.Path, nv.action)
		n.invoke(ctx, "action.dispose", nv.action.Dispose)
	}

	cur := &n.nav.current
	if latest && cur.route != nil {
		n.router.Reset(cur.route.Path)
		// The slept Action may have been released by an older, superseded
		// navigation; it is current again either way.
		if cur.slept && cur.action != nv.action {
			prev := cur.route
			n.invoke(ctx, "action.wakeup", func() {
				cur.action.Wakeup(prev.Path, prev.Query, prev.Options)
			})
			cur.released = false
			cur.slept = false
		}
	}

	n.finish(ctx, nv, OutcomeFailed, err)
}

// discard drops a navigation that reached its commit point after a newer
// one had started. The newer navigation's commit is authoritative.
func (n *Navigator) discard(ctx context.Context, nv *navigation) {
	n.logger.Debug("Stale navigation discarded",
		F("id", nv.id),
		F("seq", nv.seq),
		F("latest", n.nav.seq),
		F("path", nv.route.Path),
	)
	n.invoke(ctx, "page.remove", func() { nv.page.Remove(true) })
	if !n.nav.owned(nv.action) {
		n.invoke(ctx, "action.dispose", nv.action.Dispose)
	}
	n.finish(ctx, nv, OutcomeSuperseded, newNavigationError("commit", nv.route.Path, ErrSuperseded, nil))
}

// finish records the outcome and reopens the gate.
func (n *Navigator) finish(ctx context.Context, nv *navigation, outcome Outcome, err error) {
	finishedAt := time.Now()
	duration := finishedAt.Sub(nv.startedAt)

	switch outcome {
	case OutcomeCompleted:
		n.completed.Inc()
	case OutcomeFailed:
		n.failed.Inc()
	case OutcomeSuperseded:
		n.superseded.Inc()
	}
	n.metrics.RecordNavigation(nv.route.Path, outcome, duration)
	n.history.Add(NavigationRecord{
		ID:         nv.id,
		Seq:        nv.seq,
		Path:       nv.route.Path,
		Outcome:    outcome,
		Resumed:    nv.resumed,
		StartedAt:  nv.startedAt,
		FinishedAt: finishedAt,
		Duration:   duration,
		Err:        err,
	})
	n.inflight.Dec()
	n.updateSnapshot()

	n.markIdle(ctx, nv.seq)
}

func (n *Navigator) publish(ctx context.Context, typ EventType, nv *navigation, err error) {
	route := nv.route
	n.bus.Publish(ctx, Event{
		Type:         typ,
		NavigationID: nv.id,
		Route:        &route,
		Current:      Refs{Action: nv.action, Page: nv.page},
		Previous:     nv.prev,
		Err:          err,
	})
}

// invoke runs a synchronous collaborator hook, recovering panics so the
// pipeline always reaches finish.
func (n *Navigator) invoke(ctx context.Context, source string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			n.metrics.RecordHandlerPanic(source)
			n.logger.Error("Hook panicked", F("source", source), F("panic", rec))
			n.panicHandler.HandlePanic(ctx, source, rec, debug.Stack())
		}
	}()
	fn()
}
