package pdb

import (
	"math"

	"github.com/operator-framework/npdb/internal/abstraction"
	"github.com/operator-framework/npdb/pkg/npdb"
	"github.com/operator-framework/npdb/pkg/npdb/task"
)

// Lookup returns the abstract goal distance of a concrete state. found
// is false if the abstract state was never registered, which can only
// happen for numeric patterns; the distance is then npdb.DeadEnd and
// carries no information.
func (p *PatternDatabase) Lookup(state task.State) (found bool, distance float64) {
	index := p.rank(state.Values)
	if p.index == nil {
		return true, p.distances[index]
	}
	// stack scratch space; lookups run concurrently and must not write
	// to the database
	var values [8]float64
	var key [72]byte
	projected := p.appendNumericValues(values[:0], state.NumericValues)
	id, ok := p.index[string(abstraction.AppendKey(key[:0], index, projected))]
	if !ok {
		return false, npdb.DeadEnd
	}
	return true, p.distances[id]
}

func (p *PatternDatabase) rank(values []int) int {
	index := 0
	for pos, v := range p.pattern.Propositional {
		index += p.hash.Multiplier(pos) * values[v]
	}
	return index
}

func (p *PatternDatabase) appendNumericValues(dst, values []float64) []float64 {
	for _, id := range p.pattern.Numeric {
		dst = append(dst, values[id])
	}
	return dst
}

func (p *PatternDatabase) Pattern() npdb.Pattern {
	return p.pattern
}

// Size is the number of stored abstract states.
func (p *PatternDatabase) Size() int {
	return len(p.distances)
}

// Exhausted reports whether the whole reachable abstract space was
// searched within the state budget.
func (p *PatternDatabase) Exhausted() bool {
	return p.exhausted
}

// MinOperatorCost is the cheapest cost of a relevant operator, or +Inf
// if no operator affects the pattern.
func (p *PatternDatabase) MinOperatorCost() float64 {
	return p.minOperatorCost
}

// MeanFiniteDistance averages all stored distances that are not dead
// ends. It is +Inf if there are none.
func (p *PatternDatabase) MeanFiniteDistance() float64 {
	sum, n := 0.0, 0
	for _, d := range p.distances {
		if !math.IsInf(d, 1) {
			sum += d
			n++
		}
	}
	if n == 0 {
		return math.Inf(1)
	}
	return sum / float64(n)
}
