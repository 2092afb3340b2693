// Package numeric builds the numeric view of a planning task that
// pattern databases are computed over.
//
// A Task separates regular numeric variables, which operators assign
// directly, from derived ones, which are expressions over a single
// regular variable. Propositional variables that encode the truth of a
// numeric comparison are turned back into linear conditions. Operator
// effects are evaluated once into an Action.
//
// A Task is immutable after New returns and may be shared by any
// number of pattern databases and goroutines.
package numeric

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/operator-framework/npdb/pkg/npdb"
	"github.com/operator-framework/npdb/pkg/npdb/condition"
	"github.com/operator-framework/npdb/pkg/npdb/expression"
	"github.com/operator-framework/npdb/pkg/npdb/task"
)

// Assignment overwrites the numeric variable Var (global id) with Value.
type Assignment struct {
	Var   int
	Value float64
}

// Action is the numeric effect of an operator. Effects has one slot per
// regular numeric variable and is added to the current values;
// Assignments are applied afterwards and overwrite.
type Action struct {
	Effects     []float64
	Assignments []Assignment
}

type Task struct {
	task *task.Task
	log  logr.Logger

	// regular index -> global numeric id, and back (-1 if not regular)
	globalIDs    []int
	regularIndex []int

	arena       *expression.Arena
	expressions []expression.Ref
	artificial  []condition.LinearForm

	derived    []bool
	conditions map[int]condition.Linear

	actions   []Action
	propPre   [][]task.Fact
	numPre    [][]condition.Linear
	propGoals []task.Fact
	numGoals  []condition.Linear
}

type Option func(t *Task) error

func WithLogger(log logr.Logger) Option {
	return func(t *Task) error {
		t.log = log
		return nil
	}
}

var defaults = []Option{
	func(t *Task) error {
		if t.log.GetSink() == nil {
			t.log = logr.Discard()
		}
		return nil
	},
}

// New builds the numeric view of t. It fails with an
// *npdb.UnsupportedTaskError if t is outside the linear,
// single-variable fragment.
func New(t *task.Task, options ...Option) (*Task, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}
	nt := &Task{task: t, arena: expression.NewArena()}
	for _, option := range append(options, defaults...) {
		if err := option(nt); err != nil {
			return nil, err
		}
	}

	nt.buildNumericVariables()
	if err := nt.buildArtificialVariables(); err != nil {
		return nil, err
	}
	if err := nt.findDerivedVariables(); err != nil {
		return nil, err
	}
	if err := nt.buildActions(); err != nil {
		return nil, err
	}
	if err := nt.buildPreconditions(); err != nil {
		return nil, err
	}
	nt.buildGoals()

	nt.log.V(1).Info("built numeric task",
		"variables", len(t.Variables),
		"numericVariables", len(t.NumericVariables),
		"regularNumericVariables", len(nt.globalIDs),
		"numericConditions", len(nt.conditions),
		"operators", len(t.Operators))
	return nt, nil
}

func (t *Task) buildNumericVariables() {
	t.regularIndex = make([]int, len(t.task.NumericVariables))
	for id, v := range t.task.NumericVariables {
		t.regularIndex[id] = -1
		if v.Type == task.Regular {
			t.regularIndex[id] = len(t.globalIDs)
			t.globalIDs = append(t.globalIDs, id)
		}
	}
}

func (t *Task) buildArtificialVariables() error {
	definitions := make(map[int]task.AssignmentAxiom, len(t.task.AssignmentAxioms))
	for _, ax := range t.task.AssignmentAxioms {
		if _, ok := definitions[ax.Affected]; ok {
			return npdb.Unsupported("numeric variable %s is defined by more than one axiom", t.numericName(ax.Affected))
		}
		definitions[ax.Affected] = ax
	}

	p := parser{task: t, definitions: definitions, refs: make(map[int]expression.Ref), active: make(map[int]bool)}
	t.expressions = make([]expression.Ref, len(t.task.NumericVariables))
	t.artificial = make([]condition.LinearForm, len(t.task.NumericVariables))
	for id, v := range t.task.NumericVariables {
		if v.Type == task.Instrumentation {
			continue
		}
		ref, err := p.parse(id)
		if err != nil {
			return err
		}
		ref = t.arena.Simplify(ref)
		t.expressions[id] = ref
		if !t.arena.IsAffine(ref) {
			return npdb.Unsupported("numeric variable %s = %s is not linear", v.Name, t.arena.String(ref))
		}

		form := condition.NewLinearForm(len(t.globalIDs))
		form.Constant = t.arena.Summand(ref)
		if x := t.arena.VariableID(ref); x != -1 {
			form.Coefficients[t.regularIndex[x]] = t.arena.Multiplier(ref)
		}
		t.artificial[id] = form
	}
	return nil
}

type parser struct {
	task        *Task
	definitions map[int]task.AssignmentAxiom
	refs        map[int]expression.Ref
	active      map[int]bool
}

func (p *parser) parse(id int) (expression.Ref, error) {
	if ref, ok := p.refs[id]; ok {
		return ref, nil
	}
	t := p.task
	v := t.task.NumericVariables[id]
	var ref expression.Ref
	switch v.Type {
	case task.Regular:
		ref = t.arena.Variable(id)
	case task.Constant:
		ref = t.arena.Constant(t.task.Initial.NumericValues[id])
	case task.Derived:
		ax, ok := p.definitions[id]
		if !ok {
			return 0, npdb.Unsupported("derived numeric variable %s has no defining axiom", v.Name)
		}
		if p.active[id] {
			return 0, npdb.Unsupported("cyclic definition of numeric variable %s", v.Name)
		}
		p.active[id] = true
		left, err := p.parse(ax.Left)
		if err != nil {
			return 0, err
		}
		right, err := p.parse(ax.Right)
		if err != nil {
			return 0, err
		}
		delete(p.active, id)
		op, err := calcOperator(ax.Op)
		if err != nil {
			return 0, err
		}
		ref, err = t.arena.Binary(left, op, right)
		if err != nil {
			return 0, &npdb.UnsupportedTaskError{Reason: fmt.Sprintf("numeric variable %s: %v", v.Name, err)}
		}
	default:
		return 0, npdb.Unsupported("numeric variable %s of type %s used in an expression", v.Name, v.Type)
	}
	p.refs[id] = ref
	return ref, nil
}

func calcOperator(op task.CalcOperator) (expression.Operator, error) {
	switch op {
	case task.Sum:
		return expression.Add, nil
	case task.Difference:
		return expression.Sub, nil
	case task.Product:
		return expression.Mul, nil
	case task.Quotient:
		return expression.Div, nil
	}
	return 0, npdb.Unsupported("unknown arithmetic operator %d", int(op))
}

func (t *Task) findDerivedVariables() error {
	t.derived = make([]bool, len(t.task.Variables))
	t.conditions = make(map[int]condition.Linear, len(t.task.ComparisonAxioms))
	for _, ax := range t.task.ComparisonAxioms {
		v := t.task.Variables[ax.Affected]
		if t.derived[ax.Affected] {
			return npdb.Unsupported("variable %s is defined by more than one comparison", v.Name)
		}
		if v.DomainSize != 2 {
			return npdb.Unsupported("comparison variable %s must be binary, has %d values", v.Name, v.DomainSize)
		}
		for _, side := range []int{ax.Left, ax.Right} {
			if t.task.NumericVariables[side].Type == task.Instrumentation {
				return npdb.Unsupported("comparison %s refers to instrumentation variable %s", v.Name, t.numericName(side))
			}
		}
		cmp, err := condition.FromTask(ax.Comparator)
		if err != nil {
			return &npdb.UnsupportedTaskError{Reason: err.Error()}
		}
		t.derived[ax.Affected] = true
		t.conditions[ax.Affected] = t.artificial[ax.Left].Minus(t.artificial[ax.Right]).Compare(cmp)
	}
	return nil
}

func (t *Task) buildActions() error {
	t.actions = make([]Action, len(t.task.Operators))
	for i := range t.task.Operators {
		if err := t.buildAction(i); err != nil {
			return err
		}
	}
	return nil
}

func (t *Task) buildAction(opID int) error {
	op := t.task.Operators[opID]
	action := Action{Effects: make([]float64, len(t.globalIDs))}
	assigned := make(map[int]bool)
	effects := make(map[int]bool, len(op.Effects))
	for _, f := range op.Effects {
		if t.derived[f.Var] {
			return npdb.Unsupported("operator %s assigns derived variable %s", op.Name, t.task.Variables[f.Var].Name)
		}
		// one effect per variable, abstract operators assume it
		if effects[f.Var] {
			return npdb.Unsupported("operator %s has more than one effect on %s", op.Name, t.task.Variables[f.Var].Name)
		}
		effects[f.Var] = true
	}
	for _, eff := range op.NumericEffects {
		switch t.task.NumericVariables[eff.Var].Type {
		case task.Instrumentation:
			// total-cost bookkeeping, costs are taken from the operator
			continue
		case task.Regular:
		default:
			return npdb.Unsupported("operator %s changes non-regular numeric variable %s", op.Name, t.numericName(eff.Var))
		}
		if t.task.NumericVariables[eff.Value].Type == task.Instrumentation {
			return npdb.Unsupported("operator %s uses instrumentation variable %s as effect value", op.Name, t.numericName(eff.Value))
		}
		ref := t.expressions[eff.Value]
		if !t.arena.IsConstant(ref) {
			return npdb.Unsupported("operator %s has state-dependent effect %s on %s", op.Name, t.arena.String(ref), t.numericName(eff.Var))
		}
		value := t.arena.Evaluate(ref, 0)
		reg := t.regularIndex[eff.Var]
		switch eff.Op {
		case task.Increase:
			action.Effects[reg] += value
		case task.Decrease:
			action.Effects[reg] -= value
		case task.Assign:
			if assigned[eff.Var] {
				return npdb.Unsupported("operator %s assigns %s twice", op.Name, t.numericName(eff.Var))
			}
			assigned[eff.Var] = true
			action.Assignments = append(action.Assignments, Assignment{Var: eff.Var, Value: value})
		default:
			return npdb.Unsupported("operator %s has a non-linear effect on %s", op.Name, t.numericName(eff.Var))
		}
	}
	t.actions[opID] = action
	t.log.V(2).Info("built action", "operator", op.Name, "effects", action.Effects, "assignments", len(action.Assignments))
	return nil
}

// numericCondition translates a fact over a comparison variable.
func (t *Task) numericCondition(f task.Fact) condition.Linear {
	c := t.conditions[f.Var]
	if f.Value == 1 {
		return c.Negate()
	}
	return c
}

func (t *Task) buildPreconditions() error {
	t.propPre = make([][]task.Fact, len(t.task.Operators))
	t.numPre = make([][]condition.Linear, len(t.task.Operators))
	for i, op := range t.task.Operators {
		seen := make(map[int]int, len(op.Preconditions))
		for _, f := range op.Preconditions {
			if v, ok := seen[f.Var]; ok {
				if v != f.Value {
					return npdb.Unsupported("operator %s has contradicting preconditions on %s", op.Name, t.task.Variables[f.Var].Name)
				}
				continue
			}
			seen[f.Var] = f.Value
			if t.derived[f.Var] {
				t.numPre[i] = append(t.numPre[i], t.numericCondition(f))
				continue
			}
			t.propPre[i] = append(t.propPre[i], f)
		}
	}
	return nil
}

func (t *Task) buildGoals() {
	for _, g := range t.task.Goals {
		if t.derived[g.Var] {
			t.numGoals = append(t.numGoals, t.numericCondition(g))
			continue
		}
		t.propGoals = append(t.propGoals, g)
	}
}

func (t *Task) numericName(id int) string {
	return t.task.NumericVariables[id].Name
}
