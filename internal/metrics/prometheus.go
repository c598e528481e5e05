package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace string = "listonic_bridge"

const (
	ResultSuccess string = "success"
	ResultFailure string = "failure"
)

// PrometheusMetricsClient records the bridge specific metrics. A nil client records nothing.
type PrometheusMetricsClient struct {
	tokenExchanges *prometheus.CounterVec
	pollCycles     *prometheus.CounterVec
	commands       *prometheus.CounterVec
}

// TokenExchange counts a listonic login exchange, path is "refresh_token" or "google".
func (p *PrometheusMetricsClient) TokenExchange(path string, result string) {
	if p == nil {
		return
	}
	p.tokenExchanges.WithLabelValues(path, result).Inc()
}

func (p *PrometheusMetricsClient) PollCycle(result string) {
	if p == nil {
		return
	}
	p.pollCycles.WithLabelValues(result).Inc()
}

func (p *PrometheusMetricsClient) Command(name string, result string) {
	if p == nil {
		return
	}
	p.commands.WithLabelValues(name, result).Inc()
}

func NewPrometheusMetricsClient(registerer prometheus.Registerer) (*PrometheusMetricsClient, error) {
	client := PrometheusMetricsClient{
		tokenExchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_exchanges_total",
				Help:      "Number of listonic login exchanges by path and result.",
			},
			[]string{"path", "result"},
		),
		pollCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_cycles_total",
				Help:      "Number of snapshot poll cycles by result.",
			},
			[]string{"result"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Number of executed commands by name and result.",
			},
			[]string{"command", "result"},
		),
	}
	for _, collector := range []prometheus.Collector{client.tokenExchanges, client.pollCycles, client.commands} {
		if err := registerer.Register(collector); err != nil {
			return &PrometheusMetricsClient{}, err
		}
	}
	return &client, nil
}
