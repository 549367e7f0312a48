package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests *prometheus.CounterVec
	files    prometheus.Counter
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crudgen_generate_requests_total",
			Help: "Number of generation requests, by outcome category",
		}, []string{"category"}),
		files: f.NewCounter(prometheus.CounterOpts{
			Name: "crudgen_files_generated_total",
			Help: "Number of files written by successful generation requests",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "crudgen_generate_duration_seconds",
			Help:    "Duration of generation runs",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
