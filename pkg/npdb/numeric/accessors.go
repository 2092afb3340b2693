package numeric

import (
	"fmt"
	"math"

	"github.com/operator-framework/npdb/pkg/npdb/condition"
	"github.com/operator-framework/npdb/pkg/npdb/expression"
	"github.com/operator-framework/npdb/pkg/npdb/task"
)

// MaxApproximateDomainSize caps ApproximateDomainSize for variables
// whose values are not bounded by any condition of the task.
const MaxApproximateDomainSize = math.MaxInt32

func (t *Task) NumVariables() int {
	return len(t.task.Variables)
}

func (t *Task) DomainSize(v int) int {
	return t.task.Variables[v].DomainSize
}

func (t *Task) VariableName(v int) string {
	return t.task.Variables[v].Name
}

func (t *Task) NumNumericVariables() int {
	return len(t.task.NumericVariables)
}

func (t *Task) NumRegularNumericVariables() int {
	return len(t.globalIDs)
}

func (t *Task) NumericVariableName(id int) string {
	return t.numericName(id)
}

// IsRegular reports whether the numeric variable id has a regular index.
func (t *Task) IsRegular(id int) bool {
	return id >= 0 && id < len(t.regularIndex) && t.regularIndex[id] != -1
}

// IsDerivedNumericVariable is true for numeric variables that operators
// cannot assign: derived, constant and instrumentation variables.
func (t *Task) IsDerivedNumericVariable(id int) bool {
	return !t.IsRegular(id)
}

// RegularIndex maps a global numeric id to its regular index. It panics
// if id has no regular slot.
func (t *Task) RegularIndex(id int) int {
	if !t.IsRegular(id) {
		panic(fmt.Sprintf("numeric: variable %d is not a regular numeric variable", id))
	}
	return t.regularIndex[id]
}

// GlobalID maps a regular index back to the global numeric id. It
// panics if the index is out of range.
func (t *Task) GlobalID(regular int) int {
	if regular < 0 || regular >= len(t.globalIDs) {
		panic(fmt.Sprintf("numeric: regular index %d out of range [0, %d)", regular, len(t.globalIDs)))
	}
	return t.globalIDs[regular]
}

// IsDerivedVariable reports whether the propositional variable v
// encodes the truth value of a numeric comparison.
func (t *Task) IsDerivedVariable(v int) bool {
	return t.derived[v]
}

// Condition returns the linear condition encoded by value 0 of the
// comparison variable v.
func (t *Task) Condition(v int) (condition.Linear, bool) {
	c, ok := t.conditions[v]
	return c, ok
}

// Expressions returns the arena holding the expression of every
// non-instrumentation numeric variable. Callers must not add nodes.
func (t *Task) Expressions() *expression.Arena {
	return t.arena
}

// Expression returns the simplified expression defining numeric
// variable id.
func (t *Task) Expression(id int) expression.Ref {
	return t.expressions[id]
}

// Artificial returns the linear form of numeric variable id over the
// regular numeric variables.
func (t *Task) Artificial(id int) condition.LinearForm {
	return t.artificial[id]
}

func (t *Task) NumOperators() int {
	return len(t.task.Operators)
}

func (t *Task) Operator(op int) task.Operator {
	return t.task.Operators[op]
}

func (t *Task) Action(op int) Action {
	return t.actions[op]
}

func (t *Task) PropositionalPreconditions(op int) []task.Fact {
	return t.propPre[op]
}

func (t *Task) NumericPreconditions(op int) []condition.Linear {
	return t.numPre[op]
}

func (t *Task) PropositionalGoals() []task.Fact {
	return t.propGoals
}

func (t *Task) NumericGoals() []condition.Linear {
	return t.numGoals
}

func (t *Task) InitialState() task.State {
	return t.task.Initial
}

// ApproximateDomainSize returns an upper bound on the number of values
// the regular numeric variable id takes in states that matter for the
// task. The bound assumes values change in steps of the smallest
// additive effect between the extreme initial, assigned and threshold
// values; it is never exact.
func (t *Task) ApproximateDomainSize(id int) int {
	if !t.IsRegular(id) {
		return 1
	}
	reg := t.regularIndex[id]

	values := map[float64]struct{}{t.task.Initial.NumericValues[id]: {}}
	step := 0.0
	for _, a := range t.actions {
		for _, asg := range a.Assignments {
			if asg.Var == id {
				values[asg.Value] = struct{}{}
			}
		}
		if d := math.Abs(a.Effects[reg]); d != 0 && (step == 0 || d < step) {
			step = d
		}
	}
	if step == 0 {
		return len(values)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	bounded := false
	extend := func(x float64) {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	threshold := func(c condition.Linear) {
		vars := c.Variables()
		if len(vars) == 1 && vars[0] == reg {
			bounded = true
			extend(-c.Constant / c.Coefficients[reg])
		}
	}
	for _, pre := range t.numPre {
		for _, c := range pre {
			threshold(c)
		}
	}
	for _, c := range t.numGoals {
		threshold(c)
	}
	if !bounded {
		return MaxApproximateDomainSize
	}
	for x := range values {
		extend(x)
	}

	n := math.Floor((hi-lo)/step) + 1 + float64(len(values))
	if n >= MaxApproximateDomainSize {
		return MaxApproximateDomainSize
	}
	return int(n)
}
