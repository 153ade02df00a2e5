package gateway

import "github.com/prometheus/client_golang/prometheus"

// metrics are the counters a Worker updates during dispatch; each
// Worker registers its own set, labelled with the gateway name, on
// Config.Registry when one is given, so an external /metrics adapter
// (outside this module) can scrape dispatch health.
type metrics struct {
	requestsTotal prometheus.Counter
	retriesTotal  prometheus.Counter
	failuresTotal *prometheus.CounterVec
	reopensTotal  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, gatewayName string) *metrics {
	m := &metrics{
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "opennetty",
			Subsystem:   "gateway",
			Name:        "requests_total",
			Help:        "Transactions dispatched on this gateway's command session.",
			ConstLabels: prometheus.Labels{"gateway": gatewayName},
		}),
		retriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "opennetty",
			Subsystem:   "gateway",
			Name:        "retries_total",
			Help:        "Retry attempts issued for this gateway.",
			ConstLabels: prometheus.Labels{"gateway": gatewayName},
		}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "opennetty",
			Subsystem:   "gateway",
			Name:        "failures_total",
			Help:        "Terminal transaction failures by kind.",
			ConstLabels: prometheus.Labels{"gateway": gatewayName},
		}, []string{"kind"}),
		reopensTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "opennetty",
			Subsystem:   "gateway",
			Name:        "session_reopens_total",
			Help:        "Failed Command session open attempts for this gateway.",
			ConstLabels: prometheus.Labels{"gateway": gatewayName},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requestsTotal, m.retriesTotal, m.failuresTotal, m.reopensTotal)
	}
	return m
}
