package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-nav-runner/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// NavigatorSnapshotProvider provides current navigator stats snapshots.
type NavigatorSnapshotProvider interface {
	Stats() core.NavigatorStats
}

// SnapshotPoller periodically exports navigator Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	navigatorsMu sync.RWMutex
	navigators   map[string]NavigatorSnapshotProvider

	loading       *prom.GaugeVec
	pending       *prom.GaugeVec
	cachedActions *prom.GaugeVec
	navigations   *prom.GaugeVec
	recoveries    *prom.GaugeVec
	replaced      *prom.GaugeVec
	closed        *prom.GaugeVec
	lastNavigated *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauge := func(name, help string, labels ...string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "navrunner",
			Name:      name,
			Help:      help,
		}, append([]string{"navigator"}, labels...))
	}

	loading := gauge("navigator_loading", "Gate state (1=loading, 0=idle).")
	pending := gauge("navigator_pending", "Whether a route waits in the pending slot (1=yes, 0=no).")
	cachedActions := gauge("navigator_cached_actions", "Number of cached Actions.")
	navigations := gauge("navigator_navigations", "Navigation count snapshot by outcome.", "outcome")
	recoveries := gauge("navigator_recoveries", "Forced gate recovery count snapshot.")
	replaced := gauge("navigator_pending_replaced", "Overwritten pending route count snapshot.")
	closed := gauge("navigator_closed", "Navigator closed state (1=closed, 0=open).")
	lastNavigated := gauge("navigator_last_navigation_timestamp_seconds", "Unix time of the last finished navigation.")

	var err error
	for _, g := range []**prom.GaugeVec{&loading, &pending, &cachedActions, &navigations, &recoveries, &replaced, &closed, &lastNavigated} {
		if *g, err = registerCollector(reg, *g); err != nil {
			return nil, err
		}
	}

	return &SnapshotPoller{
		interval:      interval,
		navigators:    make(map[string]NavigatorSnapshotProvider),
		loading:       loading,
		pending:       pending,
		cachedActions: cachedActions,
		navigations:   navigations,
		recoveries:    recoveries,
		replaced:      replaced,
		closed:        closed,
		lastNavigated: lastNavigated,
	}, nil
}

// AddNavigator adds or replaces a navigator snapshot provider by name.
func (p *SnapshotPoller) AddNavigator(name string, provider NavigatorSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "navigator")
	p.navigatorsMu.Lock()
	p.navigators[name] = provider
	p.navigatorsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.navigatorsMu.RLock()
	defer p.navigatorsMu.RUnlock()

	for name, provider := range p.navigators {
		stats := provider.Stats()
		p.loading.WithLabelValues(name).Set(boolGauge(stats.Status == core.StatusLoading))
		p.pending.WithLabelValues(name).Set(boolGauge(stats.Pending))
		p.cachedActions.WithLabelValues(name).Set(float64(stats.CachedActions))
		p.navigations.WithLabelValues(name, "started").Set(float64(stats.Started))
		p.navigations.WithLabelValues(name, string(core.OutcomeCompleted)).Set(float64(stats.Completed))
		p.navigations.WithLabelValues(name, string(core.OutcomeFailed)).Set(float64(stats.Failed))
		p.navigations.WithLabelValues(name, string(core.OutcomeSuperseded)).Set(float64(stats.Superseded))
		p.recoveries.WithLabelValues(name).Set(float64(stats.Recoveries))
		p.replaced.WithLabelValues(name).Set(float64(stats.Replaced))
		p.closed.WithLabelValues(name).Set(boolGauge(stats.Closed))
		if !stats.LastAt.IsZero() {
			p.lastNavigated.WithLabelValues(name).Set(float64(stats.LastAt.UnixNano()) / 1e9)
		}
	}
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
