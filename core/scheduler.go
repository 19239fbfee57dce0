package core

import (
	"context"
)

// requestLoad stores route in the pending slot and tries to start it.
// Runs on the event loop.
func (n *Navigator) requestLoad(ctx context.Context, route Route) {
	if n.nav.pending.Put(route) {
		n.replaced.Inc()
		n.metrics.RecordPendingReplaced()
		n.logger.Debug("Pending route replaced", F("path", route.Path))
	} else {
		n.logger.Debug("Route accepted", F("path", route.Path))
	}
	n.updateSnapshot()
	n.tryAdvance(ctx)
}

// tryAdvance hands the pending route to the coordinator when the gate is open.
func (n *Navigator) tryAdvance(ctx context.Context) {
	if n.nav.pending.Empty() || n.nav.status.Status() != StatusIdle {
		return
	}

	route, _ := n.nav.pending.Take()
	n.nav.seq++
	seq := n.nav.seq
	n.nav.status.Acquire(seq)
	n.updateSnapshot()

	n.begin(ctx, route, seq)
}

// markIdle reopens the gate held by seq and serves any waiting route.
func (n *Navigator) markIdle(ctx context.Context, seq uint64) {
	n.nav.status.Release(seq)
	n.tryAdvance(ctx)
}

// recovered runs when the recovery timer of seq fired. The in-flight
// navigation keeps going; only scheduling is unblocked.
func (n *Navigator) recovered(ctx context.Context, seq uint64) {
	n.recoveries.Inc()
	n.metrics.RecordStatusRecovery()
	n.logger.Warn("Navigation is taking too long, gate reopened",
		F("seq", seq),
		F("timeout", n.nav.status.Timeout()),
	)
	n.tryAdvance(ctx)
}
