package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	client, err := NewPrometheusMetricsClient(registry)
	require.NoError(t, err)

	client.TokenExchange("refresh_token", ResultFailure)
	client.TokenExchange("google", ResultSuccess)
	client.PollCycle(ResultFailure)
	client.PollCycle(ResultFailure)
	client.Command("add_item", ResultSuccess)

	assert.Equal(t, float64(1), testutil.ToFloat64(client.tokenExchanges.WithLabelValues("refresh_token", ResultFailure)))
	assert.Equal(t, float64(2), testutil.ToFloat64(client.pollCycles.WithLabelValues(ResultFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(client.commands.WithLabelValues("add_item", ResultSuccess)))
}

func TestDoubleRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewPrometheusMetricsClient(registry)
	require.NoError(t, err)
	_, err = NewPrometheusMetricsClient(registry)
	assert.Error(t, err)
}

func TestNilClient(t *testing.T) {
	var client *PrometheusMetricsClient
	assert.NotPanics(t, func() {
		client.TokenExchange("google", ResultSuccess)
		client.PollCycle(ResultSuccess)
		client.Command("get_lists", ResultFailure)
	})
}
