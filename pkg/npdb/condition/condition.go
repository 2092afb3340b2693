// Package condition implements linear numeric conditions over the
// regular numeric variables of a task.
package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/operator-framework/npdb/pkg/npdb/task"
)

// Comparator relates a linear term to zero.
type Comparator int

const (
	Less Comparator = iota
	LessEqual
	Equal
	GreaterEqual
	Greater
	Unequal
)

// FromTask converts the comparator of a comparison axiom.
func FromTask(c task.Comparator) (Comparator, error) {
	switch c {
	case task.Less:
		return Less, nil
	case task.LessEqual:
		return LessEqual, nil
	case task.Equal:
		return Equal, nil
	case task.GreaterEqual:
		return GreaterEqual, nil
	case task.Greater:
		return Greater, nil
	case task.Unequal:
		return Unequal, nil
	}
	return 0, fmt.Errorf("unknown comparator %d", int(c))
}

// Holds reports whether lhs <c> 0.
func (c Comparator) Holds(lhs float64) bool {
	switch c {
	case Less:
		return lhs < 0
	case LessEqual:
		return lhs <= 0
	case Equal:
		return lhs == 0
	case GreaterEqual:
		return lhs >= 0
	case Greater:
		return lhs > 0
	case Unequal:
		return lhs != 0
	}
	panic(fmt.Sprintf("condition: unknown comparator %d", int(c)))
}

func (c Comparator) Negate() Comparator {
	switch c {
	case Less:
		return GreaterEqual
	case LessEqual:
		return Greater
	case Equal:
		return Unequal
	case GreaterEqual:
		return Less
	case Greater:
		return LessEqual
	}
	return Equal
}

func (c Comparator) String() string {
	switch c {
	case Less:
		return "<"
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	case Greater:
		return ">"
	case Unequal:
		return "!="
	}
	return "?"
}

// LinearForm is the affine term sum(Coefficients[i]*x_i) + Constant over
// regular numeric variables.
type LinearForm struct {
	Coefficients []float64
	Constant     float64
}

func NewLinearForm(size int) LinearForm {
	return LinearForm{Coefficients: make([]float64, size)}
}

func (f LinearForm) Value(values []float64) float64 {
	v := f.Constant
	for i, c := range f.Coefficients {
		if c != 0 {
			v += c * values[i]
		}
	}
	return v
}

// Minus returns f - g. Both forms must have the same size.
func (f LinearForm) Minus(g LinearForm) LinearForm {
	out := NewLinearForm(len(f.Coefficients))
	for i := range f.Coefficients {
		out.Coefficients[i] = f.Coefficients[i] - g.Coefficients[i]
	}
	out.Constant = f.Constant - g.Constant
	return out
}

// Compare returns the condition f <c> 0.
func (f LinearForm) Compare(c Comparator) Linear {
	return Linear{
		Coefficients: append([]float64(nil), f.Coefficients...),
		Constant:     f.Constant,
		Comparator:   c,
	}
}

// Linear holds when sum(Coefficients[i]*x_i) + Constant <Comparator> 0.
type Linear struct {
	Coefficients []float64
	Constant     float64
	Comparator   Comparator
}

// Value returns the left-hand side for values, one entry per regular
// numeric variable.
func (l Linear) Value(values []float64) float64 {
	return LinearForm{Coefficients: l.Coefficients, Constant: l.Constant}.Value(values)
}

func (l Linear) Satisfied(values []float64) bool {
	return l.Comparator.Holds(l.Value(values))
}

// SatisfiedBy evaluates the condition against a projected vector. index
// maps a regular variable to its position in values; it is only called
// for variables with a non-zero coefficient.
func (l Linear) SatisfiedBy(values []float64, index func(regular int) int) bool {
	v := l.Constant
	for i, c := range l.Coefficients {
		if c != 0 {
			v += c * values[index(i)]
		}
	}
	return l.Comparator.Holds(v)
}

// Variables returns the regular variables with a non-zero coefficient.
func (l Linear) Variables() []int {
	var vars []int
	for i, c := range l.Coefficients {
		if c != 0 {
			vars = append(vars, i)
		}
	}
	return vars
}

func (l Linear) Negate() Linear {
	return Linear{
		Coefficients: append([]float64(nil), l.Coefficients...),
		Constant:     l.Constant,
		Comparator:   l.Comparator.Negate(),
	}
}

func (l Linear) String() string {
	var terms []string
	for i, c := range l.Coefficients {
		if c != 0 {
			terms = append(terms, fmt.Sprintf("%s*x%d", strconv.FormatFloat(c, 'g', -1, 64), i))
		}
	}
	terms = append(terms, strconv.FormatFloat(l.Constant, 'g', -1, 64))
	return fmt.Sprintf("%s %s 0", strings.Join(terms, " + "), l.Comparator)
}
