// Package pdb implements pattern databases for numeric planning tasks.
//
// A PatternDatabase is built once from a numeric.Task and a pattern by
// exhaustively searching the abstract state space induced by the
// pattern. Afterwards it is immutable and can serve lookups from any
// number of goroutines.
package pdb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/operator-framework/npdb/internal/abstraction"
	"github.com/operator-framework/npdb/pkg/npdb"
	"github.com/operator-framework/npdb/pkg/npdb/condition"
	"github.com/operator-framework/npdb/pkg/npdb/numeric"
)

// DefaultMaxAbstractOperators bounds the number of abstract operators
// created by wildcard expansion unless WithMaxAbstractOperators is given.
const DefaultMaxAbstractOperators = 1 << 20

var tracer = otel.Tracer("github.com/operator-framework/npdb/pkg/npdb/pdb")

type PatternDatabase struct {
	task    *numeric.Task
	pattern npdb.Pattern
	hash    *abstraction.PerfectHash

	// pattern position of every propositional variable, -1 outside
	variablePosition []int
	// pattern position of every regular numeric variable, -1 outside
	regularPosition []int

	propositionalGoals []abstraction.Fact
	numericGoals       []condition.Linear
	goalUnreachable    bool

	// distances is indexed by the propositional index if index is nil
	// and by the registered state id otherwise
	distances []float64
	index     map[string]int

	minOperatorCost float64
	exhausted       bool
}

type options struct {
	costs        []float64
	tracer       npdb.Tracer
	log          logr.Logger
	maxOperators int
}

type Option func(o *options) error

// WithOperatorCosts replaces the cost of every operator, e.g. for cost
// partitioning. costs must have one entry per operator.
func WithOperatorCosts(costs []float64) Option {
	return func(o *options) error {
		for i, c := range costs {
			if c < 0 || math.IsNaN(c) {
				return fmt.Errorf("invalid cost %v for operator %d", c, i)
			}
		}
		o.costs = costs
		return nil
	}
}

func WithTracer(t npdb.Tracer) Option {
	return func(o *options) error {
		o.tracer = t
		return nil
	}
}

func WithLogger(log logr.Logger) Option {
	return func(o *options) error {
		o.log = log
		return nil
	}
}

// WithMaxAbstractOperators bounds the number of abstract operators. The
// bound is checked before wildcards are expanded.
func WithMaxAbstractOperators(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return fmt.Errorf("abstract operator limit must be positive, got %d", n)
		}
		o.maxOperators = n
		return nil
	}
}

var defaults = []Option{
	func(o *options) error {
		if o.tracer == nil {
			o.tracer = npdb.DefaultTracer{}
		}
		return nil
	},
	func(o *options) error {
		if o.log.GetSink() == nil {
			o.log = logr.Discard()
		}
		return nil
	},
	func(o *options) error {
		if o.maxOperators == 0 {
			o.maxOperators = DefaultMaxAbstractOperators
		}
		return nil
	},
}

// New builds the pattern database of t for pattern. maxStates bounds
// both the propositional projection, which must fit entirely, and the
// number of abstract states registered during the search. If the
// search hits the bound, the result is usable but Exhausted reports
// false.
func New(ctx context.Context, t *numeric.Task, pattern npdb.Pattern, maxStates int, opts ...Option) (*PatternDatabase, error) {
	_, span := tracer.Start(ctx, "pdb.New", trace.WithAttributes(
		attribute.String("pattern", pattern.String()),
		attribute.Int("max_states", maxStates),
	))
	defer span.End()

	p, err := build(t, pattern, maxStates, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("size", p.Size()),
		attribute.Bool("exhausted", p.exhausted),
	)
	return p, nil
}

func build(t *numeric.Task, pattern npdb.Pattern, maxStates int, opts []Option) (*PatternDatabase, error) {
	start := time.Now()
	o := &options{}
	for _, option := range append(opts, defaults...) {
		if err := option(o); err != nil {
			return nil, err
		}
	}
	if o.costs != nil && len(o.costs) != t.NumOperators() {
		return nil, fmt.Errorf("got %d operator costs for %d operators", len(o.costs), t.NumOperators())
	}
	if err := validatePattern(t, pattern); err != nil {
		return nil, err
	}

	domains := make([]int, len(pattern.Propositional))
	for i, v := range pattern.Propositional {
		domains[i] = t.DomainSize(v)
	}
	hash, err := abstraction.NewPerfectHash(domains, maxStates)
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", pattern, err)
	}

	p := &PatternDatabase{
		task:             t,
		pattern:          pattern,
		hash:             hash,
		variablePosition: positions(t.NumVariables(), pattern.Propositional, func(v int) int { return v }),
		regularPosition:  positions(t.NumRegularNumericVariables(), pattern.Numeric, t.RegularIndex),
		minOperatorCost:  math.Inf(1),
	}
	p.buildGoals()

	kind := "propositional"
	if len(pattern.Numeric) == 0 {
		err = p.createPropositional(o)
	} else {
		kind = "numeric"
		err = p.createNumeric(o, maxStates)
	}
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", pattern, err)
	}

	buildDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	abstractStates.WithLabelValues(kind).Observe(float64(p.Size()))
	if !p.exhausted {
		partialBuilds.Inc()
	}
	o.log.V(1).Info("built pattern database",
		"pattern", pattern.String(),
		"size", p.Size(),
		"exhausted", p.exhausted,
		"duration", time.Since(start))
	return p, nil
}

func validatePattern(t *numeric.Task, pattern npdb.Pattern) error {
	if err := pattern.Validate(t.NumVariables(), t.NumNumericVariables()); err != nil {
		return err
	}
	var errs []error
	for _, v := range pattern.Propositional {
		if t.IsDerivedVariable(v) {
			errs = append(errs, &npdb.InvalidPatternError{Reason: fmt.Sprintf("variable %s encodes a numeric condition", t.VariableName(v))})
		}
	}
	for _, id := range pattern.Numeric {
		if !t.IsRegular(id) {
			errs = append(errs, &npdb.InvalidPatternError{Reason: fmt.Sprintf("numeric variable %s is not regular", t.NumericVariableName(id))})
		}
	}
	return errors.Join(errs...)
}

// positions returns, for n ids, the position in members of the id that
// key maps each member to, or -1.
func positions(n int, members []int, key func(int) int) []int {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}
	for i, m := range members {
		pos[key(m)] = i
	}
	return pos
}

type position struct {
	phase      string
	registered int
	expanded   int
	exhausted  bool
}

func (p position) Phase() string   { return p.phase }
func (p position) Registered() int { return p.registered }
func (p position) Expanded() int   { return p.expanded }
func (p position) Exhausted() bool { return p.exhausted }
