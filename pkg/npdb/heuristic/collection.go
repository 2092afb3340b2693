package heuristic

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/operator-framework/npdb/pkg/npdb"
	"github.com/operator-framework/npdb/pkg/npdb/numeric"
	"github.com/operator-framework/npdb/pkg/npdb/pdb"
	"github.com/operator-framework/npdb/pkg/npdb/task"
)

// Collection evaluates a state as the maximum over its members.
type Collection struct {
	members []*PDBHeuristic
}

func NewCollection(members ...*PDBHeuristic) *Collection {
	return &Collection{members: members}
}

// BuildCollection builds one pattern database per pattern. The
// databases are built concurrently and share t, which is read-only.
// pdbOptions are passed to every build, so a tracer given there must
// tolerate concurrent calls. opts configure every member heuristic.
func BuildCollection(ctx context.Context, t *numeric.Task, patterns []npdb.Pattern, maxStates int, pdbOptions []pdb.Option, opts ...Option) (*Collection, error) {
	dbs := make([]*pdb.PatternDatabase, len(patterns))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, pattern := range patterns {
		i, pattern := i, pattern
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			db, err := pdb.New(ctx, t, pattern, maxStates, pdbOptions...)
			if err != nil {
				return err
			}
			dbs[i] = db
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Collection{members: make([]*PDBHeuristic, len(dbs))}
	for i, db := range dbs {
		h, err := NewPDBHeuristic(db, opts...)
		if err != nil {
			return nil, err
		}
		c.members[i] = h
	}
	return c, nil
}

func (c *Collection) Evaluate(state task.State) float64 {
	best := 0.0
	for _, h := range c.members {
		d := h.Evaluate(state)
		if d == npdb.DeadEnd {
			return d
		}
		if d > best {
			best = d
		}
	}
	return best
}

func (c *Collection) Members() []*PDBHeuristic {
	return c.members
}

// Statistics sums the statistics of all members.
func (c *Collection) Statistics() Statistics {
	var s Statistics
	for _, h := range c.members {
		s = s.add(h.Statistics())
	}
	return s
}
