package logger

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// MetricsNamespace prefixes the logger metrics.
const MetricsNamespace = "mealdesk"

var (
	metricsOnce sync.Once

	// statements counts log events per service and level.
	statements *prometheus.CounterVec

	// writeFailures counts events zerolog could not write.
	writeFailures prometheus.Counter
)

func registerMetrics() {
	metricsOnce.Do(func() {
		statements = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: "log",
				Name:      "statements_total",
				Help:      "Log statements of the MealDesk web front end by level.",
			},
			[]string{"service", "level"},
		)

		writeFailures = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "log",
			Name:      "write_failures_total",
			Help:      "Log events that could not be written.",
		})
	})
}

// PrometheusHook counts the log statements of one service per level.
type PrometheusHook struct {
	service string
}

// Run implements zerolog.Hook.
func (h PrometheusHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}

	statements.WithLabelValues(h.service, level.String()).Inc()
}

// NewPrometheusHook returns the hook counting the log statements of service.
func NewPrometheusHook(service string) PrometheusHook {
	registerMetrics()

	return PrometheusHook{service: service}
}
