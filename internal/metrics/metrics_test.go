package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/tinywideclouds/go-gcm-service/internal/metrics"
)

func TestMetrics(t *testing.T) {
	t.Run("Records outcomes and healing", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())

		m.ObserveSend("success", 10*time.Millisecond)
		m.ObserveSend("success", 20*time.Millisecond)
		m.ObserveSend("not_registered", 5*time.Millisecond)
		m.ObserveHealed("unregister")

		assert.Equal(t, 2.0, testutil.ToFloat64(m.SendOutcomes.WithLabelValues("success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.SendOutcomes.WithLabelValues("not_registered")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationsHealed.WithLabelValues("unregister")))
		assert.Equal(t, 1, testutil.CollectAndCount(m.SendDuration))
	})

	t.Run("Nil metrics are a no-op", func(t *testing.T) {
		var m *metrics.Metrics
		assert.NotPanics(t, func() {
			m.ObserveSend("success", time.Millisecond)
			m.ObserveHealed("replace")
		})
	})
}
