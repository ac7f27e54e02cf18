package rest

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records dispatched requests.
type Metrics struct {
	// RequestsTotal counts requests by method and status code. Requests without response have status "none".
	RequestsTotal *prometheus.CounterVec
	// RequestDuration records the request duration in seconds by method.
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates request metrics and registers them, using the given registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camunda_client_requests_total",
				Help: "Total requests",
			},
			[]string{"method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "camunda_client_request_duration_seconds",
				Help:    "Request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	if reg != nil {
		if err := reg.Register(m.RequestsTotal); err != nil {
			return nil, err
		}
		if err := reg.Register(m.RequestDuration); err != nil {
			return nil, err
		}
	}

	return &m, nil
}

func (m *Metrics) observe(method string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}

	status := "none"
	if statusCode != 0 {
		status = strconv.Itoa(statusCode)
	}

	m.RequestsTotal.WithLabelValues(method, status).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}
