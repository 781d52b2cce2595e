package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_decisions_total",
			Help: "Navigation decisions of the session guard.",
		},
		[]string{"decision"},
	)

	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_resolutions_total",
			Help: "Settled session resolutions by result.",
		},
		[]string{"result"},
	)
)
