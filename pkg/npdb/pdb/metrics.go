package pdb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "npdb",
		Subsystem: "pdb",
		Name:      "build_duration_seconds",
		Help:      "Time spent building a pattern database.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"kind"})

	abstractStates = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "npdb",
		Subsystem: "pdb",
		Name:      "abstract_states",
		Help:      "Number of abstract states stored per pattern database.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
	}, []string{"kind"})

	partialBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "npdb",
		Subsystem: "pdb",
		Name:      "partial_builds_total",
		Help:      "Pattern databases whose search stopped at the state budget.",
	})
)
