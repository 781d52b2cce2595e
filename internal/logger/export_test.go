package logger

import "github.com/prometheus/client_golang/prometheus"

func Statements() *prometheus.CounterVec {
	registerMetrics()

	return statements
}

func WriteFailures() prometheus.Counter {
	registerMetrics()

	return writeFailures
}
