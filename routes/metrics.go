package routes

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripplanner/proposal"
)

// Metrics are the planner's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	llmRequests   *prometheus.CounterVec
	proposalCalls *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		llmRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripplanner",
			Name:      "llm_requests_total",
			Help:      "Completion requests by flow and result.",
		}, []string{"flow", "result"}),
		proposalCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripplanner",
			Name:      "proposal_calls_total",
			Help:      "Dispatched proposal calls by kind and status code.",
		}, []string{"kind", "status"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeLLM(flow, result string) {
	m.llmRequests.WithLabelValues(flow, result).Inc()
}

func (m *Metrics) observeOutcome(o proposal.Outcome) {
	m.proposalCalls.WithLabelValues(string(o.Kind), strconv.Itoa(o.Status)).Inc()
}
