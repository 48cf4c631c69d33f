package papareo

import (
	"github.com/prometheus/client_golang/prometheus"
)

type clientMetrics struct {
	RequestSeconds *prometheus.HistogramVec
	Errors         *prometheus.CounterVec
}

var metrics = &clientMetrics{
	RequestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "papareo",
		Name:      "request_seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"}),
	Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "papareo",
		Name:      "transport_errors_total",
	}, []string{"op"}),
}

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(metrics.RequestSeconds)
	reg.MustRegister(metrics.Errors)
}
