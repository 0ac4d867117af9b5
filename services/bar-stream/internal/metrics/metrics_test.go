package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Tick("EURUSD", "1m")
	m.Tick("EURUSD", "1m")
	m.LateTick("EURUSD", "1m")
	m.Finalized("EURUSD", "1m", 4, 3)
	m.Subscribers("EURUSD", "1m", 2)
	m.DroppedSubscribers("EURUSD", "1m", 0)
	m.UnitStarted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticksTotal.WithLabelValues("EURUSD", "1m")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lateTicksTotal.WithLabelValues("EURUSD", "1m")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.finalizedBarsTotal.WithLabelValues("EURUSD", "1m")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.gapBarsTotal.WithLabelValues("EURUSD", "1m")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.subscribers.WithLabelValues("EURUSD", "1m")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.droppedSubscribers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.units))

	m.UnitStopped("EURUSD", "1m")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.units))
	assert.Equal(t, 0, testutil.CollectAndCount(m.subscribers))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Tick("EURUSD", "1m")
		m.Finalized("EURUSD", "1m", 1, 0)
		m.UnitStarted()
		m.UnitStopped("EURUSD", "1m")
	})
}
