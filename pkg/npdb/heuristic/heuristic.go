// Package heuristic turns pattern databases into heuristic evaluators
// for an outer search.
package heuristic

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/operator-framework/npdb/pkg/npdb"
	"github.com/operator-framework/npdb/pkg/npdb/pdb"
	"github.com/operator-framework/npdb/pkg/npdb/task"
)

// Evaluator estimates the cost to reach a goal from a state. It returns
// npdb.DeadEnd if no goal is reachable.
type Evaluator interface {
	Evaluate(state task.State) float64
}

// Statistics summarizes the lookups of an evaluator.
type Statistics struct {
	Evaluations  int64
	LookupMisses int64
	DeadEnds     int64
}

func (s Statistics) String() string {
	return fmt.Sprintf("Number of failed heuristic lookups: %d", s.LookupMisses)
}

func (s Statistics) add(o Statistics) Statistics {
	return Statistics{
		Evaluations:  s.Evaluations + o.Evaluations,
		LookupMisses: s.LookupMisses + o.LookupMisses,
		DeadEnds:     s.DeadEnds + o.DeadEnds,
	}
}

// PDBHeuristic evaluates states by a single pattern database. It is safe
// for concurrent use.
type PDBHeuristic struct {
	db         *pdb.PatternDatabase
	zeroOnMiss bool

	evaluations  atomic.Int64
	lookupMisses atomic.Int64
	deadEnds     atomic.Int64
}

type Option func(h *PDBHeuristic) error

// ZeroOnMiss makes states that were never registered during a partial
// search evaluate to 0 instead of npdb.DeadEnd. This keeps the
// heuristic admissible for such states at the price of information.
func ZeroOnMiss() Option {
	return func(h *PDBHeuristic) error {
		h.zeroOnMiss = true
		return nil
	}
}

func NewPDBHeuristic(db *pdb.PatternDatabase, options ...Option) (*PDBHeuristic, error) {
	if db == nil {
		return nil, fmt.Errorf("pattern database must not be nil")
	}
	h := &PDBHeuristic{db: db}
	for _, option := range options {
		if err := option(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *PDBHeuristic) Evaluate(state task.State) float64 {
	h.evaluations.Add(1)
	evaluations.Inc()
	found, d := h.db.Lookup(state)
	if !found {
		h.lookupMisses.Add(1)
		lookupMisses.Inc()
		if h.zeroOnMiss {
			return 0
		}
		return npdb.DeadEnd
	}
	if math.IsInf(d, 1) {
		h.deadEnds.Add(1)
		deadEnds.Inc()
		return npdb.DeadEnd
	}
	return d
}

func (h *PDBHeuristic) PatternDatabase() *pdb.PatternDatabase {
	return h.db
}

func (h *PDBHeuristic) LookupMisses() int64 {
	return h.lookupMisses.Load()
}

func (h *PDBHeuristic) Statistics() Statistics {
	return Statistics{
		Evaluations:  h.evaluations.Load(),
		LookupMisses: h.lookupMisses.Load(),
		DeadEnds:     h.deadEnds.Load(),
	}
}
