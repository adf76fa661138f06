package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHubMetrics(reg)

	m.Inbound("update")
	m.Inbound("update")
	m.Outbound("gameState", 3)
	m.Outbound("gameState", 0)
	m.Malformed()
	m.RateLimited()
	m.SetPopulation(2, 40)
	m.ObserveTick(time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.inbound.WithLabelValues("update")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.outbound.WithLabelValues("gameState")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.malformed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.players))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.bodies))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestHubMetrics_NilSafe(t *testing.T) {
	var m *HubMetrics
	assert.NotPanics(t, func() {
		m.Inbound("x")
		m.Outbound("x", 1)
		m.Malformed()
		m.RateLimited()
		m.SendDropped()
		m.SetPopulation(1, 1)
		m.ObserveTick(time.Now())
	})
}
