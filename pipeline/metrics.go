package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	operationCheckCompatibility = "check_compatibility"
	operationRegisterSchema     = "register_schema"
	operationCreateTopic        = "create_topic"
)

type metrics struct {
	itemsTotal      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	runSuccess      prometheus.Gauge
}

func newMetrics(registerer prometheus.Registerer, namespace string) *metrics {
	factory := promauto.With(registerer)

	makeCounterVec := func(name string, labelNames []string, help string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      name,
			Help:      help,
		}, labelNames)
	}
	makeHistogramVec := func(name string, labelNames []string, help string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      name,
			Help:      help,
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, labelNames)
	}

	return &metrics{
		itemsTotal:      makeCounterVec("items_total", []string{"phase", "outcome"}, "Number of processed topics and schema files by phase and outcome"),
		requestDuration: makeHistogramVec("request_duration_seconds", []string{"operation"}, "Duration of requests against the schema registry and the kafka cluster"),
		runSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_success",
			Help:      "1 if the last run finished without errors, otherwise 0",
		}),
	}
}
