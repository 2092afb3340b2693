package npdb

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DeadEnd is the heuristic value reported for states from which no
// goal state can be reached.
var DeadEnd = math.Inf(1)

// UnsupportedTaskError is returned when a task falls outside the
// linear, single-variable numeric fragment handled by this module.
type UnsupportedTaskError struct {
	Reason string
}

func (e *UnsupportedTaskError) Error() string {
	return fmt.Sprintf("unsupported numeric task: %s", e.Reason)
}

// Unsupported returns an UnsupportedTaskError with a formatted reason.
func Unsupported(format string, args ...interface{}) error {
	return &UnsupportedTaskError{Reason: fmt.Sprintf(format, args...)}
}

// PatternTooLargeError is returned when the propositional projection of
// a pattern has more abstract states than the caller's budget allows.
type PatternTooLargeError struct {
	Limit int
}

func (e *PatternTooLargeError) Error() string {
	return fmt.Sprintf("pattern exceeds the state budget of %d abstract states", e.Limit)
}

// InvalidPatternError is returned for patterns that are not sorted,
// contain duplicates or reference variables that cannot be abstracted.
type InvalidPatternError struct {
	Reason string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern: %s", e.Reason)
}

// Pattern is the set of variables an abstraction keeps. Propositional
// holds propositional variable ids, Numeric holds global ids of
// regular numeric variables. Both are sorted and duplicate-free.
type Pattern struct {
	Propositional []int
	Numeric       []int
}

// NewPattern returns a Pattern over the given variables, sorted and
// with duplicates removed.
func NewPattern(propositional, numeric []int) Pattern {
	return Pattern{
		Propositional: normalize(propositional),
		Numeric:       normalize(numeric),
	}
}

func normalize(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	out := append([]int(nil), ids...)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

// Validate checks that both halves of the pattern are sorted and
// duplicate-free and that all ids are within the given bounds.
func (p Pattern) Validate(numVariables, numNumericVariables int) error {
	if err := checkIDs("propositional", p.Propositional, numVariables); err != nil {
		return err
	}
	return checkIDs("numeric", p.Numeric, numNumericVariables)
}

func checkIDs(kind string, ids []int, bound int) error {
	for i, id := range ids {
		if id < 0 || id >= bound {
			return &InvalidPatternError{Reason: fmt.Sprintf("%s variable %d out of range [0, %d)", kind, id, bound)}
		}
		if i > 0 && ids[i-1] >= id {
			return &InvalidPatternError{Reason: fmt.Sprintf("%s variables must be sorted and unique, got %v", kind, ids)}
		}
	}
	return nil
}

// Empty is true if the pattern contains no variables at all.
func (p Pattern) Empty() bool {
	return len(p.Propositional) == 0 && len(p.Numeric) == 0
}

func (p Pattern) String() string {
	s := make([]string, 0, len(p.Propositional)+len(p.Numeric))
	for _, v := range p.Propositional {
		s = append(s, fmt.Sprintf("var%d", v))
	}
	for _, v := range p.Numeric {
		s = append(s, fmt.Sprintf("num%d", v))
	}
	return "[" + strings.Join(s, ", ") + "]"
}
