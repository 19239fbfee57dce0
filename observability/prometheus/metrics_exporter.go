package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-nav-runner/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	navigationDurationSeconds *prom.HistogramVec
	navigationTotal           *prom.CounterVec
	statusRecoveryTotal       prom.Counter
	pendingReplacedTotal      prom.Counter
	actionCacheTotal          *prom.CounterVec
	hookPanicTotal            *prom.CounterVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "navrunner"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "navigation_duration_seconds",
		Help:      "Time from leaving the pending slot to settling, in seconds.",
		Buckets:   buckets,
	}, []string{"path", "outcome"})
	totalVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "navigation_total",
		Help:      "Total number of finished navigations.",
	}, []string{"path", "outcome"})
	recovery := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "status_recovery_total",
		Help:      "Total number of times the recovery timer reopened the gate.",
	})
	replaced := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "pending_replaced_total",
		Help:      "Total number of pending routes overwritten by a newer request.",
	})
	cacheVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "action_cache_total",
		Help:      "Action cache lookups for cache-eligible routes.",
	}, []string{"path", "result"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "hook_panic_total",
		Help:      "Total number of panics in Action hooks and event handlers.",
	}, []string{"source"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if totalVec, err = registerCollector(reg, totalVec); err != nil {
		return nil, err
	}
	if recovery, err = registerCollector(reg, recovery); err != nil {
		return nil, err
	}
	if replaced, err = registerCollector(reg, replaced); err != nil {
		return nil, err
	}
	if cacheVec, err = registerCollector(reg, cacheVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		navigationDurationSeconds: durationVec,
		navigationTotal:           totalVec,
		statusRecoveryTotal:       recovery,
		pendingReplacedTotal:      replaced,
		actionCacheTotal:          cacheVec,
		hookPanicTotal:            panicVec,
	}, nil
}

// RecordNavigation records a finished navigation.
func (m *MetricsExporter) RecordNavigation(path string, outcome core.Outcome, duration time.Duration) {
	if m == nil {
		return
	}
	p, o := normalizeLabel(path, "unknown"), normalizeLabel(string(outcome), "unknown")
	m.navigationDurationSeconds.WithLabelValues(p, o).Observe(duration.Seconds())
	m.navigationTotal.WithLabelValues(p, o).Inc()
}

// RecordStatusRecovery records a forced gate recovery.
func (m *MetricsExporter) RecordStatusRecovery() {
	if m == nil {
		return
	}
	m.statusRecoveryTotal.Inc()
}

// RecordPendingReplaced records an overwritten pending route.
func (m *MetricsExporter) RecordPendingReplaced() {
	if m == nil {
		return
	}
	m.pendingReplacedTotal.Inc()
}

// RecordActionCache records an Action cache lookup.
func (m *MetricsExporter) RecordActionCache(path string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.actionCacheTotal.WithLabelValues(normalizeLabel(path, "unknown"), result).Inc()
}

// RecordHandlerPanic records a recovered hook or handler panic.
func (m *MetricsExporter) RecordHandlerPanic(source string) {
	if m == nil {
		return
	}
	m.hookPanicTotal.WithLabelValues(normalizeLabel(source, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
