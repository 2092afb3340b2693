package abstraction

import (
	"encoding/binary"
	"math"
)

// State is an abstract state: the rank of the propositional part and
// the values of the numeric pattern variables in pattern order.
type State struct {
	Index   int
	Numeric []float64
}

// Key encodes an abstract state for use as a map key. Negative zero is
// folded into zero so that both reach the same entry.
func Key(index int, values []float64) string {
	return string(AppendKey(make([]byte, 0, 8*(len(values)+1)), index, values))
}

// AppendKey appends the encoding used by Key to dst.
func AppendKey(dst []byte, index int, values []float64) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(index))
	for _, v := range values {
		if v == 0 {
			v = 0
		}
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	return dst
}

// NumericModel evaluates the numeric part of abstract operators.
type NumericModel interface {
	// Applicable reports whether the numeric preconditions of op hold.
	Applicable(op *Operator, values []float64) bool
	// Apply appends the numeric successor of values under op to dst.
	Apply(op *Operator, values []float64, dst []float64) []float64
}

type edge struct {
	from int
	cost float64
}

// Space is the part of an abstract state space reached by Explore.
type Space struct {
	States    []State
	Expanded  int
	Exhausted bool

	ids map[string]int
	// incoming transitions per state
	in [][]edge
	// cheapest transition into a state that was dropped for the budget
	bound []float64
}

func (s *Space) register(st State, key string) int {
	id := len(s.States)
	s.States = append(s.States, st)
	s.ids[key] = id
	s.in = append(s.in, nil)
	s.bound = append(s.bound, math.Inf(1))
	return id
}

// ID returns the id of a registered state.
func (s *Space) ID(key string) (int, bool) {
	id, ok := s.ids[key]
	return id, ok
}

// IDs hands over the state index of the space. The space must not be
// used for further searches afterwards.
func (s *Space) IDs() map[string]int {
	return s.ids
}

// Transitions calls fn for every recorded transition.
func (s *Space) Transitions(fn func(from, to int, cost float64)) {
	for to, edges := range s.in {
		for _, e := range edges {
			fn(e.from, to, e.cost)
		}
	}
}

// Explore runs a uniform-cost search from initial and registers at most
// limit states. Registered states are always expanded; successors that
// would exceed the budget are dropped and the space is marked as not
// exhausted.
func Explore(hash *PerfectHash, operators []Operator, model NumericModel, initial State, limit int) *Space {
	s := &Space{ids: make(map[string]int), Exhausted: true}
	s.register(initial, Key(initial.Index, initial.Numeric))
	g := []float64{0}

	open := newOpenList()
	open.Push(0, 0)
	var buf []float64
	for open.Len() > 0 {
		u, cost := open.Pop()
		s.Expanded++
		current := s.States[u]
		for i := range operators {
			op := &operators[i]
			if !op.Applicable(hash, current.Index) || !model.Applicable(op, current.Numeric) {
				continue
			}
			buf = model.Apply(op, current.Numeric, buf[:0])
			next := op.Apply(current.Index)
			key := Key(next, buf)
			v, ok := s.ids[key]
			if !ok {
				if len(s.States) >= limit {
					s.Exhausted = false
					s.bound[u] = math.Min(s.bound[u], op.Cost)
					continue
				}
				v = s.register(State{Index: next, Numeric: append([]float64(nil), buf...)}, key)
				g = append(g, math.Inf(1))
			}
			s.in[v] = append(s.in[v], edge{from: u, cost: op.Cost})
			if c := cost + op.Cost; c < g[v] {
				g[v] = c
				open.Push(v, c)
			}
		}
	}
	return s
}

// Distances computes the cost to reach a goal state from every
// registered state, searching backwards over the recorded transitions.
// States with a dropped successor start from the cost of that
// transition, a lower bound on their true distance.
func (s *Space) Distances(isGoal func(State) bool) []float64 {
	dist := make([]float64, len(s.States))
	open := newOpenList()
	for id, st := range s.States {
		dist[id] = s.bound[id]
		if isGoal(st) {
			dist[id] = 0
		}
		if !math.IsInf(dist[id], 1) {
			open.Push(id, dist[id])
		}
	}
	for open.Len() > 0 {
		u, d := open.Pop()
		for _, e := range s.in[u] {
			if c := d + e.cost; c < dist[e.from] {
				dist[e.from] = c
				open.Push(e.from, c)
			}
		}
	}
	return dist
}

// Regress computes goal distances for all hash.Size() propositional
// states with a uniform-cost search from the goal states over
// regression operators. It returns the distances and the number of
// expanded states.
func Regress(hash *PerfectHash, operators []Operator, isGoal func(index int) bool) ([]float64, int) {
	dist := make([]float64, hash.Size())
	open := newOpenList()
	for index := range dist {
		dist[index] = math.Inf(1)
		if isGoal(index) {
			dist[index] = 0
			open.Push(index, 0)
		}
	}
	expanded := 0
	for open.Len() > 0 {
		u, d := open.Pop()
		expanded++
		for i := range operators {
			op := &operators[i]
			if !op.Applicable(hash, u) {
				continue
			}
			v := op.Apply(u)
			if c := d + op.Cost; c < dist[v] {
				dist[v] = c
				open.Push(v, c)
			}
		}
	}
	return dist, expanded
}
