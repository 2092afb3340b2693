// Package task holds the read-only description of a numeric planning
// task as handed over by a front end. It performs only structural
// validation; interpreting numeric structure is left to package numeric.
package task

import (
	"errors"
	"fmt"
)

type NumericType int

const (
	Regular NumericType = iota
	Constant
	Derived
	Instrumentation
)

func (t NumericType) String() string {
	switch t {
	case Regular:
		return "regular"
	case Constant:
		return "constant"
	case Derived:
		return "derived"
	case Instrumentation:
		return "instrumentation"
	}
	return fmt.Sprintf("NumericType(%d)", int(t))
}

// CalcOperator combines the two operands of an assignment axiom.
type CalcOperator int

const (
	Sum CalcOperator = iota
	Difference
	Product
	Quotient
)

// Comparator relates the two operands of a comparison axiom.
type Comparator int

const (
	Less Comparator = iota
	LessEqual
	Equal
	GreaterEqual
	Greater
	Unequal
)

type AssignOperator int

const (
	Assign AssignOperator = iota
	Increase
	Decrease
	ScaleUp
	ScaleDown
)

type Variable struct {
	Name       string
	DomainSize int
}

type NumericVariable struct {
	Name string
	Type NumericType
}

// Fact is a variable/value pair over a propositional variable.
type Fact struct {
	Var   int
	Value int
}

// AssignmentAxiom defines the derived numeric variable Affected as
// Left Op Right.
type AssignmentAxiom struct {
	Affected int
	Left     int
	Op       CalcOperator
	Right    int
}

// ComparisonAxiom defines the propositional variable Affected: it takes
// value 0 iff Left Comparator Right holds and value 1 otherwise.
type ComparisonAxiom struct {
	Affected   int
	Left       int
	Comparator Comparator
	Right      int
}

// NumericEffect changes Var by the value of the numeric variable Value.
type NumericEffect struct {
	Var   int
	Op    AssignOperator
	Value int
}

type Operator struct {
	Name           string
	Cost           float64
	Preconditions  []Fact
	Effects        []Fact
	NumericEffects []NumericEffect
}

// State is a complete assignment to propositional and numeric
// variables. NumericValues has one entry per numeric variable,
// including derived and constant ones.
type State struct {
	Values        []int
	NumericValues []float64
}

type Task struct {
	Variables        []Variable
	NumericVariables []NumericVariable
	AssignmentAxioms []AssignmentAxiom
	ComparisonAxioms []ComparisonAxiom
	Operators        []Operator
	Initial          State
	Goals            []Fact
}

// Validate checks that all ids referenced by the task are in range and
// that the initial state is complete.
func (t *Task) Validate() error {
	var errs []error
	fact := func(where string, f Fact) {
		if f.Var < 0 || f.Var >= len(t.Variables) {
			errs = append(errs, fmt.Errorf("%s: variable %d out of range", where, f.Var))
			return
		}
		if f.Value < 0 || f.Value >= t.Variables[f.Var].DomainSize {
			errs = append(errs, fmt.Errorf("%s: value %d out of domain of %s", where, f.Value, t.Variables[f.Var].Name))
		}
	}
	numeric := func(where string, id int) {
		if id < 0 || id >= len(t.NumericVariables) {
			errs = append(errs, fmt.Errorf("%s: numeric variable %d out of range", where, id))
		}
	}

	for i, v := range t.Variables {
		if v.DomainSize < 1 {
			errs = append(errs, fmt.Errorf("variable %d (%s) has empty domain", i, v.Name))
		}
	}
	for i, ax := range t.AssignmentAxioms {
		where := fmt.Sprintf("assignment axiom %d", i)
		numeric(where, ax.Affected)
		numeric(where, ax.Left)
		numeric(where, ax.Right)
	}
	for i, ax := range t.ComparisonAxioms {
		where := fmt.Sprintf("comparison axiom %d", i)
		fact(where, Fact{Var: ax.Affected})
		numeric(where, ax.Left)
		numeric(where, ax.Right)
	}
	for i, op := range t.Operators {
		where := fmt.Sprintf("operator %d (%s)", i, op.Name)
		if op.Cost < 0 {
			errs = append(errs, fmt.Errorf("%s: negative cost %v", where, op.Cost))
		}
		for _, f := range op.Preconditions {
			fact(where, f)
		}
		for _, f := range op.Effects {
			fact(where, f)
		}
		for _, eff := range op.NumericEffects {
			numeric(where, eff.Var)
			numeric(where, eff.Value)
		}
	}
	for i, g := range t.Goals {
		fact(fmt.Sprintf("goal %d", i), g)
	}
	if len(t.Initial.Values) != len(t.Variables) {
		errs = append(errs, fmt.Errorf("initial state has %d values for %d variables", len(t.Initial.Values), len(t.Variables)))
	} else {
		for v, val := range t.Initial.Values {
			fact("initial state", Fact{Var: v, Value: val})
		}
	}
	if len(t.Initial.NumericValues) != len(t.NumericVariables) {
		errs = append(errs, fmt.Errorf("initial state has %d numeric values for %d numeric variables", len(t.Initial.NumericValues), len(t.NumericVariables)))
	}
	return errors.Join(errs...)
}
