package heuristic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "npdb",
		Subsystem: "heuristic",
		Name:      "evaluations_total",
		Help:      "States evaluated by pattern database heuristics.",
	})

	lookupMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "npdb",
		Subsystem: "heuristic",
		Name:      "lookup_misses_total",
		Help:      "Evaluations of states missing from a partially built pattern database.",
	})

	deadEnds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "npdb",
		Subsystem: "heuristic",
		Name:      "dead_ends_total",
		Help:      "Evaluations that recognized a dead end.",
	})
)
