package pdb_test

import (
	"fmt"
	"math"

	"github.com/operator-framework/npdb/pkg/npdb"
	"github.com/operator-framework/npdb/pkg/npdb/numeric"
	"github.com/operator-framework/npdb/pkg/npdb/task"
)

// Counter: a regular variable x starts at 10 and can be decremented
// while positive. The goal is x = 0. A switch and a lamp can be turned
// on at any time but do not matter for the goal.
const (
	switchVar = iota
	positiveVar
	emptyVar
	lampVar
)

const (
	xVar = iota
	zeroVar
	oneVar
)

const (
	decrementOp = iota
	flipOp
	lampOp
)

func counterTask() *task.Task {
	return &task.Task{
		Variables: []task.Variable{
			switchVar:   {Name: "switch", DomainSize: 2},
			positiveVar: {Name: "positive", DomainSize: 2},
			emptyVar:    {Name: "empty", DomainSize: 2},
			lampVar:     {Name: "lamp", DomainSize: 2},
		},
		NumericVariables: []task.NumericVariable{
			xVar:    {Name: "x", Type: task.Regular},
			zeroVar: {Name: "zero", Type: task.Constant},
			oneVar:  {Name: "one", Type: task.Constant},
		},
		ComparisonAxioms: []task.ComparisonAxiom{
			{Affected: positiveVar, Left: xVar, Comparator: task.Greater, Right: zeroVar},
			{Affected: emptyVar, Left: xVar, Comparator: task.Equal, Right: zeroVar},
		},
		Operators: []task.Operator{
			decrementOp: {
				Name:           "decrement",
				Cost:           1,
				Preconditions:  []task.Fact{{Var: positiveVar, Value: 0}},
				NumericEffects: []task.NumericEffect{{Var: xVar, Op: task.Decrease, Value: oneVar}},
			},
			flipOp: {
				Name:    "flip",
				Cost:    1,
				Effects: []task.Fact{{Var: switchVar, Value: 1}},
			},
			lampOp: {
				Name:    "lamp-on",
				Cost:    1,
				Effects: []task.Fact{{Var: lampVar, Value: 1}},
			},
		},
		Initial: task.State{
			Values:        []int{0, 0, 1, 0},
			NumericValues: []float64{10, 0, 1},
		},
		Goals: []task.Fact{{Var: emptyVar, Value: 0}},
	}
}

// counterState is a counter state with the switch and x set.
func counterState(on int, x float64) task.State {
	return task.State{
		Values:        []int{on, 0, 1, 0},
		NumericValues: []float64{x, 0, 1},
	}
}

// Truck: a truck moves between locations A, B and C for one unit of
// fuel per move and can only refuel to three units at A. It starts at A
// with one unit and has to reach C with fuel left.
const (
	atVar = iota
	canMoveVar
)

const (
	fuelVar = iota
	unitVar
	fullVar
)

func truckTask() *task.Task {
	move := func(from, to int) task.Operator {
		return task.Operator{
			Name:           fmt.Sprintf("move-%d-%d", from, to),
			Cost:           1,
			Preconditions:  []task.Fact{{Var: atVar, Value: from}, {Var: canMoveVar, Value: 0}},
			Effects:        []task.Fact{{Var: atVar, Value: to}},
			NumericEffects: []task.NumericEffect{{Var: fuelVar, Op: task.Decrease, Value: unitVar}},
		}
	}
	return &task.Task{
		Variables: []task.Variable{
			atVar:      {Name: "at", DomainSize: 3},
			canMoveVar: {Name: "can-move", DomainSize: 2},
		},
		NumericVariables: []task.NumericVariable{
			fuelVar: {Name: "fuel", Type: task.Regular},
			unitVar: {Name: "unit", Type: task.Constant},
			fullVar: {Name: "full", Type: task.Constant},
		},
		ComparisonAxioms: []task.ComparisonAxiom{
			{Affected: canMoveVar, Left: fuelVar, Comparator: task.GreaterEqual, Right: unitVar},
		},
		Operators: []task.Operator{
			move(0, 1),
			move(1, 2),
			move(1, 0),
			move(2, 1),
			{
				Name:           "refuel",
				Cost:           1,
				Preconditions:  []task.Fact{{Var: atVar, Value: 0}},
				NumericEffects: []task.NumericEffect{{Var: fuelVar, Op: task.Assign, Value: fullVar}},
			},
		},
		Initial: task.State{
			Values:        []int{0, 0},
			NumericValues: []float64{1, 1, 3},
		},
		Goals: []task.Fact{{Var: atVar, Value: 2}, {Var: canMoveVar, Value: 0}},
	}
}

type transition struct {
	from, to int
	cost     float64
}

// concreteSpace enumerates the reachable states of nt and returns them
// with their optimal goal distances and all transitions between them.
// Variables that encode numeric conditions keep their initial values.
func concreteSpace(nt *numeric.Task) ([]task.State, []float64, []transition) {
	initial := nt.InitialState()
	states := []task.State{initial}
	ids := map[string]int{fmt.Sprint(initial): 0}
	var transitions []transition
	for u := 0; u < len(states); u++ {
		for op := 0; op < nt.NumOperators(); op++ {
			if !concreteApplicable(nt, states[u], op) {
				continue
			}
			next := concreteApply(nt, states[u], op)
			v, ok := ids[fmt.Sprint(next)]
			if !ok {
				v = len(states)
				ids[fmt.Sprint(next)] = v
				states = append(states, next)
			}
			transitions = append(transitions, transition{from: u, to: v, cost: nt.Operator(op).Cost})
		}
	}

	dist := make([]float64, len(states))
	for i, s := range states {
		dist[i] = math.Inf(1)
		if concreteGoal(nt, s) {
			dist[i] = 0
		}
	}
	for changed := true; changed; {
		changed = false
		for _, t := range transitions {
			if c := dist[t.to] + t.cost; c < dist[t.from] {
				dist[t.from] = c
				changed = true
			}
		}
	}
	return states, dist, transitions
}

func regularValues(nt *numeric.Task, s task.State) []float64 {
	values := make([]float64, nt.NumRegularNumericVariables())
	for i := range values {
		values[i] = s.NumericValues[nt.GlobalID(i)]
	}
	return values
}

func concreteApplicable(nt *numeric.Task, s task.State, op int) bool {
	for _, f := range nt.PropositionalPreconditions(op) {
		if s.Values[f.Var] != f.Value {
			return false
		}
	}
	values := regularValues(nt, s)
	for _, c := range nt.NumericPreconditions(op) {
		if !c.Satisfied(values) {
			return false
		}
	}
	return true
}

func concreteApply(nt *numeric.Task, s task.State, op int) task.State {
	next := task.State{
		Values:        append([]int(nil), s.Values...),
		NumericValues: append([]float64(nil), s.NumericValues...),
	}
	for _, f := range nt.Operator(op).Effects {
		next.Values[f.Var] = f.Value
	}
	action := nt.Action(op)
	for i, e := range action.Effects {
		next.NumericValues[nt.GlobalID(i)] += e
	}
	for _, a := range action.Assignments {
		next.NumericValues[a.Var] = a.Value
	}
	return next
}

func concreteGoal(nt *numeric.Task, s task.State) bool {
	for _, g := range nt.PropositionalGoals() {
		if s.Values[g.Var] != g.Value {
			return false
		}
	}
	values := regularValues(nt, s)
	for _, c := range nt.NumericGoals() {
		if !c.Satisfied(values) {
			return false
		}
	}
	return true
}

type recordingTracer struct {
	phases    []string
	exhausted []bool
}

func (r *recordingTracer) Trace(p npdb.SearchPosition) {
	r.phases = append(r.phases, p.Phase())
	r.exhausted = append(r.exhausted, p.Exhausted())
}
