package build

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/operator-framework/npdb/pkg/npdb"
	"github.com/operator-framework/npdb/pkg/npdb/task"
)

var validate = validator.New()

// Fixture is a planning task written in YAML. Variables are referenced
// by name; facts are maps from variable name to value.
type Fixture struct {
	Variables   []Variable         `yaml:"variables" validate:"dive"`
	Numeric     []NumericVariable  `yaml:"numeric" validate:"dive"`
	Assignments []Assignment       `yaml:"assignments" validate:"dive"`
	Comparisons []Comparison       `yaml:"comparisons" validate:"dive"`
	Operators   []Operator         `yaml:"operators" validate:"dive"`
	Initial     map[string]int     `yaml:"initial"`
	Goal        map[string]int     `yaml:"goal" validate:"required,min=1"`
	PatternList []PatternVariables `yaml:"patterns" validate:"dive"`
}

type Variable struct {
	Name   string `yaml:"name" validate:"required"`
	Domain int    `yaml:"domain" validate:"min=1"`
}

type NumericVariable struct {
	Name    string  `yaml:"name" validate:"required"`
	Type    string  `yaml:"type" validate:"oneof=regular constant derived instrumentation"`
	Initial float64 `yaml:"initial"`
}

type Assignment struct {
	Affected string `yaml:"affected" validate:"required"`
	Left     string `yaml:"left" validate:"required"`
	Op       string `yaml:"op" validate:"oneof=+ - * /"`
	Right    string `yaml:"right" validate:"required"`
}

type Comparison struct {
	Affected   string `yaml:"affected" validate:"required"`
	Left       string `yaml:"left" validate:"required"`
	Comparator string `yaml:"comparator" validate:"oneof=< <= = >= > !="`
	Right      string `yaml:"right" validate:"required"`
}

type Operator struct {
	Name    string          `yaml:"name" validate:"required"`
	Cost    float64         `yaml:"cost" validate:"gte=0"`
	Pre     map[string]int  `yaml:"pre"`
	Eff     map[string]int  `yaml:"eff"`
	Numeric []NumericEffect `yaml:"numeric" validate:"dive"`
}

type NumericEffect struct {
	Var   string `yaml:"var" validate:"required"`
	Op    string `yaml:"op" validate:"oneof=assign increase decrease scale-up scale-down"`
	Value string `yaml:"value" validate:"required"`
}

type PatternVariables struct {
	Variables []string `yaml:"variables" validate:"required,min=1"`
}

// Load decodes and validates a fixture.
func Load(r io.Reader) (*Fixture, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var f Fixture
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("error decoding task: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}
	return &f, nil
}

type names struct {
	variables map[string]int
	numeric   map[string]int
}

func (f *Fixture) names() (names, error) {
	n := names{variables: make(map[string]int), numeric: make(map[string]int)}
	for i, v := range f.Variables {
		if _, ok := n.variables[v.Name]; ok {
			return n, fmt.Errorf("duplicate variable %s", v.Name)
		}
		n.variables[v.Name] = i
	}
	for i, v := range f.Numeric {
		if _, ok := n.numeric[v.Name]; ok {
			return n, fmt.Errorf("duplicate numeric variable %s", v.Name)
		}
		if _, ok := n.variables[v.Name]; ok {
			return n, fmt.Errorf("%s names both a variable and a numeric variable", v.Name)
		}
		n.numeric[v.Name] = i
	}
	return n, nil
}

// resolver collects lookup errors so that a fixture reports all of its
// unknown names at once.
type resolver struct {
	names
	errs []error
}

func (r *resolver) variable(name string) int {
	v, ok := r.variables[name]
	if !ok {
		r.errs = append(r.errs, fmt.Errorf("unknown variable %s", name))
	}
	return v
}

func (r *resolver) numericVariable(name string) int {
	v, ok := r.numeric[name]
	if !ok {
		r.errs = append(r.errs, fmt.Errorf("unknown numeric variable %s", name))
	}
	return v
}

func (r *resolver) facts(m map[string]int) []task.Fact {
	facts := make([]task.Fact, 0, len(m))
	for name, value := range m {
		facts = append(facts, task.Fact{Var: r.variable(name), Value: value})
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Var < facts[j].Var })
	return facts
}

var (
	numericTypes = map[string]task.NumericType{
		"regular":         task.Regular,
		"constant":        task.Constant,
		"derived":         task.Derived,
		"instrumentation": task.Instrumentation,
	}
	calcOperators = map[string]task.CalcOperator{
		"+": task.Sum,
		"-": task.Difference,
		"*": task.Product,
		"/": task.Quotient,
	}
	comparators = map[string]task.Comparator{
		"<":  task.Less,
		"<=": task.LessEqual,
		"=":  task.Equal,
		">=": task.GreaterEqual,
		">":  task.Greater,
		"!=": task.Unequal,
	}
	assignOperators = map[string]task.AssignOperator{
		"assign":     task.Assign,
		"increase":   task.Increase,
		"decrease":   task.Decrease,
		"scale-up":   task.ScaleUp,
		"scale-down": task.ScaleDown,
	}
)

// Task resolves all names of the fixture. Variables missing from the
// initial section start at value 0.
func (f *Fixture) Task() (*task.Task, error) {
	n, err := f.names()
	if err != nil {
		return nil, err
	}
	r := &resolver{names: n}
	t := &task.Task{
		Initial: task.State{
			Values:        make([]int, len(f.Variables)),
			NumericValues: make([]float64, len(f.Numeric)),
		},
	}
	for _, v := range f.Variables {
		t.Variables = append(t.Variables, task.Variable{Name: v.Name, DomainSize: v.Domain})
	}
	for i, v := range f.Numeric {
		t.NumericVariables = append(t.NumericVariables, task.NumericVariable{Name: v.Name, Type: numericTypes[v.Type]})
		t.Initial.NumericValues[i] = v.Initial
	}
	for _, a := range f.Assignments {
		t.AssignmentAxioms = append(t.AssignmentAxioms, task.AssignmentAxiom{
			Affected: r.numericVariable(a.Affected),
			Left:     r.numericVariable(a.Left),
			Op:       calcOperators[a.Op],
			Right:    r.numericVariable(a.Right),
		})
	}
	for _, c := range f.Comparisons {
		t.ComparisonAxioms = append(t.ComparisonAxioms, task.ComparisonAxiom{
			Affected:   r.variable(c.Affected),
			Left:       r.numericVariable(c.Left),
			Comparator: comparators[c.Comparator],
			Right:      r.numericVariable(c.Right),
		})
	}
	for _, o := range f.Operators {
		op := task.Operator{
			Name:          o.Name,
			Cost:          o.Cost,
			Preconditions: r.facts(o.Pre),
			Effects:       r.facts(o.Eff),
		}
		for _, e := range o.Numeric {
			op.NumericEffects = append(op.NumericEffects, task.NumericEffect{
				Var:   r.numericVariable(e.Var),
				Op:    assignOperators[e.Op],
				Value: r.numericVariable(e.Value),
			})
		}
		t.Operators = append(t.Operators, op)
	}
	for _, fact := range r.facts(f.Initial) {
		t.Initial.Values[fact.Var] = fact.Value
	}
	t.Goals = r.facts(f.Goal)
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Pattern resolves variable names, propositional or numeric, into a
// pattern.
func (f *Fixture) Pattern(variables []string) (npdb.Pattern, error) {
	n, err := f.names()
	if err != nil {
		return npdb.Pattern{}, err
	}
	var propositional, numeric []int
	for _, name := range variables {
		if v, ok := n.variables[name]; ok {
			propositional = append(propositional, v)
			continue
		}
		if v, ok := n.numeric[name]; ok {
			numeric = append(numeric, v)
			continue
		}
		return npdb.Pattern{}, fmt.Errorf("unknown variable %s in pattern", name)
	}
	return npdb.NewPattern(propositional, numeric), nil
}

// Patterns resolves the patterns listed in the fixture.
func (f *Fixture) Patterns() ([]npdb.Pattern, error) {
	patterns := make([]npdb.Pattern, 0, len(f.PatternList))
	for i, p := range f.PatternList {
		pattern, err := f.Pattern(p.Variables)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}

// PatternNames returns the variable names of a pattern, propositional
// variables first.
func (f *Fixture) PatternNames(p npdb.Pattern) []string {
	names := make([]string, 0, len(p.Propositional)+len(p.Numeric))
	for _, v := range p.Propositional {
		names = append(names, f.Variables[v].Name)
	}
	for _, v := range p.Numeric {
		names = append(names, f.Numeric[v].Name)
	}
	return names
}
