package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bar_stream"

// Metrics holds the collectors reported by the aggregation pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ticksTotal         *prometheus.CounterVec
	lateTicksTotal     *prometheus.CounterVec
	skippedTicksTotal  *prometheus.CounterVec
	finalizedBarsTotal *prometheus.CounterVec
	gapBarsTotal       *prometheus.CounterVec
	persistErrorsTotal *prometheus.CounterVec
	sourceErrorsTotal  *prometheus.CounterVec
	subscribers        *prometheus.GaugeVec
	droppedSubscribers *prometheus.CounterVec
	units              prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	labels := []string{"symbol", "interval"}

	m := &Metrics{
		ticksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Ticks applied to an aggregation unit.",
		}, labels),
		lateTicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "late_ticks_total",
			Help:      "Ticks dropped because their bucket was already closed.",
		}, labels),
		skippedTicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_ticks_total",
			Help:      "Ticks without a usable price.",
		}, labels),
		finalizedBarsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalized_bars_total",
			Help:      "Bars closed, gap bars included.",
		}, labels),
		gapBarsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gap_bars_total",
			Help:      "Flat bars synthesized for idle buckets.",
		}, labels),
		persistErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Finalized bars that failed to persist.",
		}, labels),
		sourceErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Transient tick source failures.",
		}, labels),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Live subscribers per aggregation unit.",
		}, labels),
		droppedSubscribers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_subscribers_total",
			Help:      "Subscribers removed because their buffer was full.",
		}, labels),
		units: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "units",
			Help:      "Running aggregation units.",
		}),
	}

	reg.MustRegister(
		m.ticksTotal,
		m.lateTicksTotal,
		m.skippedTicksTotal,
		m.finalizedBarsTotal,
		m.gapBarsTotal,
		m.persistErrorsTotal,
		m.sourceErrorsTotal,
		m.subscribers,
		m.droppedSubscribers,
		m.units,
	)

	return m
}

// Tick counts an applied tick.
func (m *Metrics) Tick(symbol, interval string) {
	if m == nil {
		return
	}
	m.ticksTotal.WithLabelValues(symbol, interval).Inc()
}

// LateTick counts a dropped late tick.
func (m *Metrics) LateTick(symbol, interval string) {
	if m == nil {
		return
	}
	m.lateTicksTotal.WithLabelValues(symbol, interval).Inc()
}

// SkippedTick counts a tick without a price.
func (m *Metrics) SkippedTick(symbol, interval string) {
	if m == nil {
		return
	}
	m.skippedTicksTotal.WithLabelValues(symbol, interval).Inc()
}

// Finalized counts closed bars; gaps of them were synthesized.
func (m *Metrics) Finalized(symbol, interval string, total, gaps int) {
	if m == nil {
		return
	}
	m.finalizedBarsTotal.WithLabelValues(symbol, interval).Add(float64(total))
	m.gapBarsTotal.WithLabelValues(symbol, interval).Add(float64(gaps))
}

// PersistError counts a failed upsert.
func (m *Metrics) PersistError(symbol, interval string) {
	if m == nil {
		return
	}
	m.persistErrorsTotal.WithLabelValues(symbol, interval).Inc()
}

// SourceError counts a transient source failure.
func (m *Metrics) SourceError(symbol, interval string) {
	if m == nil {
		return
	}
	m.sourceErrorsTotal.WithLabelValues(symbol, interval).Inc()
}

// Subscribers sets the live subscriber count of a unit.
func (m *Metrics) Subscribers(symbol, interval string, n int) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(symbol, interval).Set(float64(n))
}

// DroppedSubscribers counts subscribers removed for overflow.
func (m *Metrics) DroppedSubscribers(symbol, interval string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.droppedSubscribers.WithLabelValues(symbol, interval).Add(float64(n))
}

// UnitStarted increments the running unit gauge.
func (m *Metrics) UnitStarted() {
	if m == nil {
		return
	}
	m.units.Inc()
}

// UnitStopped decrements the running unit gauge and forgets the unit's series.
func (m *Metrics) UnitStopped(symbol, interval string) {
	if m == nil {
		return
	}
	m.units.Dec()
	m.subscribers.DeleteLabelValues(symbol, interval)
}
