// Package expression implements arithmetic expressions over at most one
// numeric variable.
//
// Nodes live in an Arena and are addressed by Ref. Subtrees are shared
// by reusing their Ref; nodes are never modified once added. Adding
// nodes (including through Simplify) must not race with evaluation.
package expression

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/operator-framework/npdb/pkg/npdb/task"
)

// ErrMultipleVariables is returned when a binary node would combine
// subtrees over two distinct variables.
var ErrMultipleVariables = errors.New("expression references more than one variable")

type Kind uint8

const (
	KindVariable Kind = iota
	KindConstant
	KindBinary
)

type Operator uint8

const (
	Add Operator = iota
	Sub
	Mul
	Div
)

func (o Operator) String() string {
	switch o {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	}
	return "?"
}

// Ref addresses a node inside an Arena.
type Ref int32

type node struct {
	kind  Kind
	op    Operator
	varID int // reachable variable, -1 if none
	value float64
	left  Ref
	right Ref
}

type Arena struct {
	nodes []node
}

func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) add(n node) Ref {
	a.nodes = append(a.nodes, n)
	return Ref(len(a.nodes) - 1)
}

// Len returns the number of nodes allocated in the arena.
func (a *Arena) Len() int {
	return len(a.nodes)
}

func (a *Arena) Kind(r Ref) Kind {
	return a.nodes[r].kind
}

func (a *Arena) Variable(id int) Ref {
	if id < 0 {
		panic(fmt.Sprintf("expression: negative variable id %d", id))
	}
	return a.add(node{kind: KindVariable, varID: id})
}

func (a *Arena) Constant(value float64) Ref {
	return a.add(node{kind: KindConstant, varID: -1, value: value})
}

func (a *Arena) Binary(left Ref, op Operator, right Ref) (Ref, error) {
	lv, rv := a.nodes[left].varID, a.nodes[right].varID
	varID := lv
	if lv == -1 {
		varID = rv
	} else if rv != -1 && rv != lv {
		return 0, fmt.Errorf("%w: var%d and var%d", ErrMultipleVariables, lv, rv)
	}
	return a.add(node{kind: KindBinary, op: op, varID: varID, left: left, right: right}), nil
}

// VariableID returns the variable referenced by the tree rooted at r,
// or -1 if the tree is constant.
func (a *Arena) VariableID(r Ref) int {
	return a.nodes[r].varID
}

func (a *Arena) IsConstant(r Ref) bool {
	return a.nodes[r].varID == -1
}

// IsAffine reports whether the tree rooted at r has the form a*x+b.
func (a *Arena) IsAffine(r Ref) bool {
	n := a.nodes[r]
	if n.kind != KindBinary || n.varID == -1 {
		return true
	}
	if !a.IsAffine(n.left) || !a.IsAffine(n.right) {
		return false
	}
	switch n.op {
	case Mul:
		return a.IsConstant(n.left) || a.IsConstant(n.right)
	case Div:
		return a.IsConstant(n.right)
	}
	return true
}

// Evaluate substitutes x for the variable of the tree rooted at r.
func (a *Arena) Evaluate(r Ref, x float64) float64 {
	n := a.nodes[r]
	switch n.kind {
	case KindVariable:
		return x
	case KindConstant:
		return n.value
	}
	return apply(a.Evaluate(n.left, x), n.op, a.Evaluate(n.right, x))
}

// EvaluateVector resolves the variable by indexing values, which holds
// one entry per numeric variable of the task.
func (a *Arena) EvaluateVector(r Ref, values []float64) float64 {
	id := a.nodes[r].varID
	if id == -1 {
		return a.Evaluate(r, 0)
	}
	return a.Evaluate(r, values[id])
}

func (a *Arena) EvaluateState(r Ref, state task.State) float64 {
	return a.EvaluateVector(r, state.NumericValues)
}

// EvaluateIgnoringAdditiveConstants evaluates the variable-dependent
// part of the tree. Constant operands of + and - are dropped when the
// other operand depends on the variable; * and / combine both operands
// under the same rule. A constant tree evaluates to its value.
func (a *Arena) EvaluateIgnoringAdditiveConstants(r Ref, values []float64) float64 {
	n := a.nodes[r]
	switch {
	case n.kind == KindVariable:
		return values[n.varID]
	case n.varID == -1:
		return a.Evaluate(r, 0)
	}
	left, right := a.nodes[n.left], a.nodes[n.right]
	switch n.op {
	case Add, Sub:
		if right.varID == -1 {
			return a.EvaluateIgnoringAdditiveConstants(n.left, values)
		}
		rv := a.EvaluateIgnoringAdditiveConstants(n.right, values)
		if n.op == Sub {
			rv = -rv
		}
		if left.varID == -1 {
			return rv
		}
		return a.EvaluateIgnoringAdditiveConstants(n.left, values) + rv
	}
	return apply(a.EvaluateIgnoringAdditiveConstants(n.left, values), n.op,
		a.EvaluateIgnoringAdditiveConstants(n.right, values))
}

// Simplify returns a tree in which every constant subtree is replaced by
// a single constant node. Subtrees that do not change are shared.
func (a *Arena) Simplify(r Ref) Ref {
	n := a.nodes[r]
	switch {
	case n.kind != KindBinary:
		return r
	case n.varID == -1:
		return a.Constant(a.Evaluate(r, 0))
	}
	left, right := a.Simplify(n.left), a.Simplify(n.right)
	if left == n.left && right == n.right {
		return r
	}
	s, err := a.Binary(left, n.op, right)
	if err != nil {
		// simplification never introduces variables
		panic(err)
	}
	return s
}

// Multiplier returns a for a tree of the form a*x+b. The result is NaN
// for trees that are not affine.
func (a *Arena) Multiplier(r Ref) float64 {
	m, _ := a.affine(r)
	return m
}

// Summand returns b for a tree of the form a*x+b. The result is NaN
// for trees that are not affine.
func (a *Arena) Summand(r Ref) float64 {
	_, s := a.affine(r)
	return s
}

func (a *Arena) affine(r Ref) (float64, float64) {
	n := a.nodes[r]
	switch n.kind {
	case KindVariable:
		return 1, 0
	case KindConstant:
		return 0, n.value
	}
	if n.varID == -1 {
		return 0, a.Evaluate(r, 0)
	}
	lm, ls := a.affine(n.left)
	rm, rs := a.affine(n.right)
	switch n.op {
	case Add:
		return lm + rm, ls + rs
	case Sub:
		return lm - rm, ls - rs
	case Mul:
		switch {
		case a.IsConstant(n.left):
			return ls * rm, ls * rs
		case a.IsConstant(n.right):
			return lm * rs, ls * rs
		}
	case Div:
		if a.IsConstant(n.right) {
			return lm / rs, ls / rs
		}
	}
	return math.NaN(), math.NaN()
}

func (a *Arena) String(r Ref) string {
	n := a.nodes[r]
	switch n.kind {
	case KindVariable:
		return "var" + strconv.Itoa(n.varID)
	case KindConstant:
		return strconv.FormatFloat(n.value, 'g', -1, 64)
	}
	return fmt.Sprintf("(%s %s %s)", a.String(n.left), n.op, a.String(n.right))
}

func apply(l float64, op Operator, r float64) float64 {
	switch op {
	case Add:
		return l + r
	case Sub:
		return l - r
	case Mul:
		return l * r
	case Div:
		return l / r
	}
	panic(fmt.Sprintf("expression: unknown operator %d", op))
}
