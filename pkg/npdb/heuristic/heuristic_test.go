package heuristic_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/npdb/pkg/npdb"
	"github.com/operator-framework/npdb/pkg/npdb/heuristic"
	"github.com/operator-framework/npdb/pkg/npdb/numeric"
	"github.com/operator-framework/npdb/pkg/npdb/pdb"
	"github.com/operator-framework/npdb/pkg/npdb/task"
)

func TestHeuristic(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Heuristic Suite")
}

const (
	x = iota
	y
	zero
	one
)

// counters decrements x and y independently until both are zero.
func counters(x0, y0 float64) *numeric.Task {
	decrement := func(name string, positive, v int) task.Operator {
		return task.Operator{
			Name:           name,
			Cost:           1,
			Preconditions:  []task.Fact{{Var: positive, Value: 0}},
			NumericEffects: []task.NumericEffect{{Var: v, Op: task.Decrease, Value: one}},
		}
	}
	nt, err := numeric.New(&task.Task{
		Variables: []task.Variable{
			{Name: "x-empty", DomainSize: 2},
			{Name: "y-empty", DomainSize: 2},
			{Name: "x-positive", DomainSize: 2},
			{Name: "y-positive", DomainSize: 2},
		},
		NumericVariables: []task.NumericVariable{
			x:    {Name: "x", Type: task.Regular},
			y:    {Name: "y", Type: task.Regular},
			zero: {Name: "zero", Type: task.Constant},
			one:  {Name: "one", Type: task.Constant},
		},
		ComparisonAxioms: []task.ComparisonAxiom{
			{Affected: 0, Left: x, Comparator: task.Equal, Right: zero},
			{Affected: 1, Left: y, Comparator: task.Equal, Right: zero},
			{Affected: 2, Left: x, Comparator: task.Greater, Right: zero},
			{Affected: 3, Left: y, Comparator: task.Greater, Right: zero},
		},
		Operators: []task.Operator{
			decrement("decrement-x", 2, x),
			decrement("decrement-y", 3, y),
		},
		Initial: task.State{
			Values:        []int{1, 1, 0, 0},
			NumericValues: []float64{x0, y0, 0, 1},
		},
		Goals: []task.Fact{{Var: 0, Value: 0}, {Var: 1, Value: 0}},
	})
	Expect(err).ToNot(HaveOccurred())
	return nt
}

func state(xv, yv float64) task.State {
	return task.State{Values: []int{1, 1, 0, 0}, NumericValues: []float64{xv, yv, 0, 1}}
}

func pdbHeuristic(nt *numeric.Task, pattern npdb.Pattern, maxStates int, options ...heuristic.Option) *heuristic.PDBHeuristic {
	db, err := pdb.New(context.Background(), nt, pattern, maxStates)
	Expect(err).ToNot(HaveOccurred())
	h, err := heuristic.NewPDBHeuristic(db, options...)
	Expect(err).ToNot(HaveOccurred())
	return h
}

var _ = Describe("PDBHeuristic", func() {
	var nt *numeric.Task

	BeforeEach(func() {
		nt = counters(3, 5)
	})

	It("should return the abstract distance", func() {
		h := pdbHeuristic(nt, npdb.NewPattern(nil, []int{x}), 100)
		Expect(h.Evaluate(state(2, 4))).To(Equal(2.0))
		Expect(h.Evaluate(state(0, 4))).To(BeZero())
		Expect(h.Statistics()).To(Equal(heuristic.Statistics{Evaluations: 2}))
	})

	It("should recognize dead ends", func() {
		nt = counters(2.5, 5)
		h := pdbHeuristic(nt, npdb.NewPattern(nil, []int{x}), 100)
		Expect(h.Evaluate(state(2.5, 5))).To(Equal(npdb.DeadEnd))
		Expect(h.Statistics().DeadEnds).To(Equal(int64(1)))
		Expect(h.LookupMisses()).To(BeZero())
	})

	It("should count lookup misses", func() {
		h := pdbHeuristic(nt, npdb.NewPattern(nil, []int{x}), 2)
		Expect(h.PatternDatabase().Exhausted()).To(BeFalse())
		Expect(h.Evaluate(state(3, 5))).To(BeNumerically("<=", 3))
		Expect(h.Evaluate(state(0, 5))).To(Equal(npdb.DeadEnd))
		Expect(h.LookupMisses()).To(Equal(int64(1)))
		Expect(h.Statistics().String()).To(Equal("Number of failed heuristic lookups: 1"))
	})

	It("should evaluate misses to zero if asked to", func() {
		h := pdbHeuristic(nt, npdb.NewPattern(nil, []int{x}), 2, heuristic.ZeroOnMiss())
		Expect(h.Evaluate(state(0, 5))).To(BeZero())
		Expect(h.LookupMisses()).To(Equal(int64(1)))
	})

	It("should count misses from concurrent evaluations", func() {
		h := pdbHeuristic(nt, npdb.NewPattern(nil, []int{x}), 2)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					h.Evaluate(state(0, 5))
				}
			}()
		}
		wg.Wait()
		Expect(h.LookupMisses()).To(Equal(int64(800)))
	})

	It("should reject a missing pattern database", func() {
		_, err := heuristic.NewPDBHeuristic(nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Collection", func() {
	var nt *numeric.Task

	BeforeEach(func() {
		nt = counters(3, 5)
	})

	It("should take the maximum over its members", func() {
		c, err := heuristic.BuildCollection(context.Background(), nt, []npdb.Pattern{
			npdb.NewPattern(nil, []int{x}),
			npdb.NewPattern(nil, []int{y}),
		}, 100, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(c.Members()).To(HaveLen(2))
		Expect(c.Evaluate(state(2, 4))).To(Equal(4.0))
		Expect(c.Evaluate(state(3, 1))).To(Equal(3.0))
		Expect(c.Statistics().Evaluations).To(Equal(int64(4)))
	})

	It("should stop at the first dead end", func() {
		x0 := counters(2.5, 5)
		c, err := heuristic.BuildCollection(context.Background(), x0, []npdb.Pattern{
			npdb.NewPattern(nil, []int{x}),
			npdb.NewPattern(nil, []int{y}),
		}, 100, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(c.Evaluate(state(2.5, 5))).To(Equal(npdb.DeadEnd))
		Expect(c.Members()[1].Statistics().Evaluations).To(BeZero())
	})

	It("should configure its members", func() {
		c, err := heuristic.BuildCollection(context.Background(), nt, []npdb.Pattern{
			npdb.NewPattern(nil, []int{x}),
			npdb.NewPattern(nil, []int{y}),
		}, 2, []pdb.Option{pdb.WithLogger(GinkgoLogr)}, heuristic.ZeroOnMiss())
		Expect(err).ToNot(HaveOccurred())
		Expect(c.Evaluate(state(0, 0))).To(BeZero())
		for _, h := range c.Members() {
			Expect(h.PatternDatabase().Exhausted()).To(BeFalse())
			Expect(h.LookupMisses()).To(Equal(int64(1)))
		}
	})

	It("should evaluate to zero without members", func() {
		Expect(heuristic.NewCollection().Evaluate(state(3, 5))).To(BeZero())
	})

	It("should fail if any pattern database fails", func() {
		_, err := heuristic.BuildCollection(context.Background(), nt, []npdb.Pattern{
			npdb.NewPattern(nil, []int{x}),
			npdb.NewPattern(nil, []int{zero}),
		}, 100, nil)
		var invalid *npdb.InvalidPatternError
		Expect(errors.As(err, &invalid)).To(BeTrue())
	})
})
