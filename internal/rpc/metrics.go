package rpc

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors for RPC traffic.
type Metrics struct {
	Requests         *prometheus.CounterVec
	Duration         *prometheus.HistogramVec
	SessionRefreshes prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trx_rpc_requests_total",
				Help: "RPC calls by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trx_rpc_request_duration_seconds",
				Help:    "RPC call duration including session renegotiation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		SessionRefreshes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trx_rpc_session_refreshes_total",
				Help: "Session ids received on 409 responses",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.Duration, m.SessionRefreshes)
	}
	return m
}

func (m *Metrics) sessionRefreshed() {
	if m == nil {
		return
	}
	m.SessionRefreshes.Inc()
}
