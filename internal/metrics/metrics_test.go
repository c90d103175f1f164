package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRegisterAddsAllCollectorsOnce(t *testing.T) {
	c := New("ilpstream_test")
	reg := prometheus.NewRegistry()
	require.NoError(t, c.Register(reg))
	require.Error(t, c.Register(reg)) // duplicate registration fails
}

func TestObserveInFlightSetsGauges(t *testing.T) {
	c := New("ilpstream_test2")
	c.ObserveInFlight(42, 100)
	require.Equal(t, float64(42), gaugeValue(t, c.inFlightAmount))
	require.Equal(t, float64(100), gaugeValue(t, c.congestionWindow))
}

func TestIncFulfilledAndRejectedCountUp(t *testing.T) {
	c := New("ilpstream_test3")
	c.IncFulfilled()
	c.IncFulfilled()
	c.IncRejected("F08")

	require.Equal(t, float64(2), counterValue(t, c.fulfilledPackets))
	require.Equal(t, float64(1), counterValue(t, c.rejectedPackets))
}
