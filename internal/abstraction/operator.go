package abstraction

import (
	"errors"
	"fmt"
	"sort"
)

// ErrTooManyOperators is returned when expanding wildcards would create
// more abstract operators than allowed.
var ErrTooManyOperators = errors.New("too many abstract operators")

type Direction int

const (
	Progression Direction = iota
	Regression
)

func (d Direction) String() string {
	if d == Regression {
		return "regression"
	}
	return "progression"
}

// Fact requires the pattern variable at Position to have Value.
type Fact struct {
	Position int
	Value    int
}

// PrePost is an effect on the pattern variable at Position that also
// has a precondition on it.
type PrePost struct {
	Position int
	Pre      int
	Post     int
}

// Projection is a concrete operator restricted to the propositional
// part of a pattern, named in progression terms.
type Projection struct {
	// Prevail are preconditions on variables the operator does not change.
	Prevail []Fact
	PrePost []PrePost
	// Wildcards are effects on variables without a precondition; Value
	// is the value after the effect.
	Wildcards []Fact
	// Numeric marks operators with an effect on a numeric pattern
	// variable; they are kept even without a propositional effect.
	Numeric bool
}

// Operator is an operator of the abstract state space. Its effect on a
// state is the change HashEffect of the state's index.
type Operator struct {
	OperatorID    int
	Cost          float64
	Preconditions []Fact
	HashEffect    int64
}

// Applicable reports whether all preconditions hold in the state ranked
// as index.
func (o *Operator) Applicable(h *PerfectHash, index int) bool {
	for _, f := range o.Preconditions {
		if h.Value(index, f.Position) != f.Value {
			return false
		}
	}
	return true
}

func (o *Operator) Apply(index int) int {
	return int(int64(index) + o.HashEffect)
}

// Builder collects the abstract operators of all relevant concrete
// operators of a pattern.
type Builder struct {
	hash      *PerfectHash
	direction Direction
	limit     int
	operators []Operator
}

// NewBuilder returns a Builder that fails once more than limit abstract
// operators would exist.
func NewBuilder(hash *PerfectHash, direction Direction, limit int) *Builder {
	return &Builder{hash: hash, direction: direction, limit: limit}
}

// Add expands the concrete operator opID into one abstract operator per
// combination of values of its wildcard variables. For a wildcard whose
// value already equals the effect, the combination keeps it as a
// prevail condition.
func (b *Builder) Add(opID int, cost float64, p Projection) error {
	combinations := 1
	remaining := b.limit - len(b.operators)
	for _, w := range p.Wildcards {
		d := b.hash.Domain(w.Position)
		if combinations > remaining/d {
			return fmt.Errorf("%w: operator %d expands into more than %d", ErrTooManyOperators, opID, remaining)
		}
		combinations *= d
	}
	if combinations > remaining {
		return fmt.Errorf("%w: limit %d reached", ErrTooManyOperators, b.limit)
	}

	digits := make([]int, len(p.Wildcards))
	for {
		b.emit(opID, cost, p, digits)

		// advance the odometer over wildcard values
		i := 0
		for ; i < len(digits); i++ {
			digits[i]++
			if digits[i] < b.hash.Domain(p.Wildcards[i].Position) {
				break
			}
			digits[i] = 0
		}
		if i == len(digits) {
			return nil
		}
	}
}

func (b *Builder) emit(opID int, cost float64, p Projection, digits []int) {
	pre := make([]Fact, 0, len(p.Prevail)+len(p.PrePost)+len(p.Wildcards))
	pre = append(pre, p.Prevail...)
	var effect int64
	changes := 0
	change := func(pos, from, to int) {
		m := int64(b.hash.Multiplier(pos))
		if b.direction == Regression {
			pre = append(pre, Fact{Position: pos, Value: to})
			effect += int64(from-to) * m
		} else {
			pre = append(pre, Fact{Position: pos, Value: from})
			effect += int64(to-from) * m
		}
		changes++
	}
	for _, pp := range p.PrePost {
		change(pp.Position, pp.Pre, pp.Post)
	}
	for i, w := range p.Wildcards {
		if digits[i] == w.Value {
			pre = append(pre, Fact{Position: w.Position, Value: w.Value})
			continue
		}
		change(w.Position, digits[i], w.Value)
	}
	if changes == 0 && !p.Numeric {
		return
	}
	sort.Slice(pre, func(i, j int) bool { return pre[i].Position < pre[j].Position })
	b.operators = append(b.operators, Operator{
		OperatorID:    opID,
		Cost:          cost,
		Preconditions: pre,
		HashEffect:    effect,
	})
}

func (b *Builder) Operators() []Operator {
	return b.operators
}
