package pdb

import (
	"math"

	"github.com/operator-framework/npdb/internal/abstraction"
	"github.com/operator-framework/npdb/pkg/npdb/condition"
)

type projected int

const (
	// the condition mentions pattern variables only
	kept projected = iota
	// the condition mentions a variable outside the pattern and is relaxed away
	dropped
	alwaysTrue
	alwaysFalse
)

// project classifies a numeric condition for the pattern. Conditions
// without variables are decided once here.
func (p *PatternDatabase) project(c condition.Linear) projected {
	vars := c.Variables()
	if len(vars) == 0 {
		if c.Comparator.Holds(c.Constant) {
			return alwaysTrue
		}
		return alwaysFalse
	}
	for _, v := range vars {
		if p.regularPosition[v] == -1 {
			return dropped
		}
	}
	return kept
}

func (p *PatternDatabase) buildGoals() {
	for _, g := range p.task.PropositionalGoals() {
		if pos := p.variablePosition[g.Var]; pos != -1 {
			p.propositionalGoals = append(p.propositionalGoals, abstraction.Fact{Position: pos, Value: g.Value})
		}
	}
	for _, c := range p.task.NumericGoals() {
		switch p.project(c) {
		case kept:
			p.numericGoals = append(p.numericGoals, c)
		case alwaysFalse:
			p.goalUnreachable = true
		}
	}
}

func (p *PatternDatabase) isPropositionalGoal(index int) bool {
	if p.goalUnreachable {
		return false
	}
	for _, g := range p.propositionalGoals {
		if p.hash.Value(index, g.Position) != g.Value {
			return false
		}
	}
	return true
}

func (p *PatternDatabase) isGoal(s abstraction.State) bool {
	if !p.isPropositionalGoal(s.Index) {
		return false
	}
	for _, c := range p.numericGoals {
		if !c.SatisfiedBy(s.Numeric, p.position) {
			return false
		}
	}
	return true
}

func (p *PatternDatabase) position(regular int) int {
	return p.regularPosition[regular]
}

// IsOperatorRelevant reports whether op changes a pattern variable.
func (p *PatternDatabase) IsOperatorRelevant(op int) bool {
	for _, f := range p.task.Operator(op).Effects {
		if p.variablePosition[f.Var] != -1 {
			return true
		}
	}
	return p.changesNumericPattern(op)
}

func (p *PatternDatabase) changesNumericPattern(op int) bool {
	action := p.task.Action(op)
	for _, id := range p.pattern.Numeric {
		if action.Effects[p.task.RegularIndex(id)] != 0 {
			return true
		}
	}
	for _, a := range action.Assignments {
		if p.regularPosition[p.task.RegularIndex(a.Var)] != -1 {
			return true
		}
	}
	return false
}

// projectOperator restricts the propositional part of op to the
// pattern. It returns false if a numeric precondition can never hold.
func (p *PatternDatabase) projectOperator(op int) (abstraction.Projection, []condition.Linear, bool) {
	var numeric []condition.Linear
	for _, c := range p.task.NumericPreconditions(op) {
		switch p.project(c) {
		case kept:
			numeric = append(numeric, c)
		case alwaysFalse:
			return abstraction.Projection{}, nil, false
		}
	}

	pre := make(map[int]int)
	for _, f := range p.task.PropositionalPreconditions(op) {
		if pos := p.variablePosition[f.Var]; pos != -1 {
			pre[pos] = f.Value
		}
	}
	var proj abstraction.Projection
	for _, f := range p.task.Operator(op).Effects {
		pos := p.variablePosition[f.Var]
		if pos == -1 {
			continue
		}
		from, ok := pre[pos]
		switch {
		case !ok:
			proj.Wildcards = append(proj.Wildcards, abstraction.Fact{Position: pos, Value: f.Value})
		case from != f.Value:
			proj.PrePost = append(proj.PrePost, abstraction.PrePost{Position: pos, Pre: from, Post: f.Value})
			delete(pre, pos)
		}
	}
	for pos, value := range pre {
		proj.Prevail = append(proj.Prevail, abstraction.Fact{Position: pos, Value: value})
	}
	proj.Numeric = p.changesNumericPattern(op)
	return proj, numeric, true
}

func (p *PatternDatabase) buildOperators(o *options, direction abstraction.Direction) ([]abstraction.Operator, map[int][]condition.Linear, error) {
	b := abstraction.NewBuilder(p.hash, direction, o.maxOperators)
	preconditions := make(map[int][]condition.Linear)
	for op := 0; op < p.task.NumOperators(); op++ {
		if !p.IsOperatorRelevant(op) {
			continue
		}
		proj, numeric, ok := p.projectOperator(op)
		if !ok {
			o.log.V(2).Info("operator can never be applied", "operator", p.task.Operator(op).Name)
			continue
		}
		cost := p.task.Operator(op).Cost
		if o.costs != nil {
			cost = o.costs[op]
		}
		if err := b.Add(op, cost, proj); err != nil {
			return nil, nil, err
		}
		p.minOperatorCost = math.Min(p.minOperatorCost, cost)
		if len(numeric) > 0 {
			preconditions[op] = numeric
		}
	}
	return b.Operators(), preconditions, nil
}

func (p *PatternDatabase) createPropositional(o *options) error {
	operators, _, err := p.buildOperators(o, abstraction.Regression)
	if err != nil {
		return err
	}
	o.log.V(2).Info("built abstract operators", "operators", len(operators))

	dist, expanded := abstraction.Regress(p.hash, operators, p.isPropositionalGoal)
	p.distances = dist
	p.exhausted = true
	o.tracer.Trace(position{phase: "regression", registered: len(dist), expanded: expanded, exhausted: true})
	return nil
}

func (p *PatternDatabase) createNumeric(o *options, maxStates int) error {
	operators, preconditions, err := p.buildOperators(o, abstraction.Progression)
	if err != nil {
		return err
	}
	o.log.V(2).Info("built abstract operators", "operators", len(operators))

	model := &numericModel{db: p, preconditions: preconditions}
	space := abstraction.Explore(p.hash, operators, model, p.abstractInitialState(), maxStates)
	o.tracer.Trace(position{phase: "exploration", registered: len(space.States), expanded: space.Expanded, exhausted: space.Exhausted})

	p.distances = space.Distances(p.isGoal)
	p.index = space.IDs()
	p.exhausted = space.Exhausted
	o.tracer.Trace(position{phase: "distances", registered: len(space.States), expanded: len(space.States), exhausted: space.Exhausted})
	return nil
}

func (p *PatternDatabase) abstractInitialState() abstraction.State {
	initial := p.task.InitialState()
	return abstraction.State{
		Index:   p.rank(initial.Values),
		Numeric: p.appendNumericValues(make([]float64, 0, len(p.pattern.Numeric)), initial.NumericValues),
	}
}

// numericModel evaluates the numeric pattern variables under the
// projected operators.
type numericModel struct {
	db            *PatternDatabase
	preconditions map[int][]condition.Linear
}

func (m *numericModel) Applicable(op *abstraction.Operator, values []float64) bool {
	for _, c := range m.preconditions[op.OperatorID] {
		if !c.SatisfiedBy(values, m.db.position) {
			return false
		}
	}
	return true
}

func (m *numericModel) Apply(op *abstraction.Operator, values []float64, dst []float64) []float64 {
	base := len(dst)
	dst = append(dst, values...)
	action := m.db.task.Action(op.OperatorID)
	for i, id := range m.db.pattern.Numeric {
		dst[base+i] += action.Effects[m.db.task.RegularIndex(id)]
	}
	for _, a := range action.Assignments {
		if pos := m.db.regularPosition[m.db.task.RegularIndex(a.Var)]; pos != -1 {
			dst[base+pos] = a.Value
		}
	}
	return dst
}
