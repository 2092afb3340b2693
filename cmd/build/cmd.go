package build

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/operator-framework/npdb/pkg/npdb"
	"github.com/operator-framework/npdb/pkg/npdb/heuristic"
	"github.com/operator-framework/npdb/pkg/npdb/numeric"
	"github.com/operator-framework/npdb/pkg/npdb/pdb"
)

type options struct {
	patterns     []string
	maxStates    int
	maxOperators int
	trace        bool
	markdown     bool
	zeroOnMiss   bool
}

// NewBuildCommand returns the build command. log is called once the
// command runs so that it picks up the parsed verbosity.
func NewBuildCommand(log func() logr.Logger) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "build <path>",
		Short: "Builds pattern databases for a task given in YAML",
		Long: `Builds one pattern database per pattern and prints their statistics.
Patterns are taken from --pattern, or from the patterns section of the task.
For instance:

variables:
  - {name: at, domain: 2}
  - {name: can-move, domain: 2}
numeric:
  - {name: fuel, type: regular, initial: 2}
  - {name: one, type: constant, initial: 1}
comparisons:
  - {affected: can-move, left: fuel, comparator: ">=", right: one}
operators:
  - name: move
    cost: 1
    pre: {at: 0, can-move: 0}
    eff: {at: 1}
    numeric:
      - {var: fuel, op: decrease, value: one}
goal: {at: 1}
patterns:
  - variables: [at, fuel]
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], o, log())
		},
	}
	cmd.Flags().StringArrayVarP(&o.patterns, "pattern", "p", nil, "comma separated variable names of a pattern, may be repeated")
	cmd.Flags().IntVar(&o.maxStates, "max-states", 1_000_000, "maximum number of abstract states per pattern database")
	cmd.Flags().IntVar(&o.maxOperators, "max-operators", pdb.DefaultMaxAbstractOperators, "maximum number of abstract operators per pattern database")
	cmd.Flags().BoolVar(&o.trace, "trace", false, "print search progress to stderr")
	cmd.Flags().BoolVar(&o.zeroOnMiss, "zero-on-miss", false, "estimate 0 instead of a dead end for abstract states missing from a partial database")
	cmd.Flags().BoolVar(&o.markdown, "markdown", false, "print statistics as a markdown table")
	return cmd
}

func run(cmd *cobra.Command, path string, o *options, log logr.Logger) error {
	taskFile, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening task file (%s): %w", path, err)
	}
	defer taskFile.Close()

	fixture, err := Load(taskFile)
	if err != nil {
		return fmt.Errorf("error parsing task file (%s): %w", path, err)
	}
	t, err := fixture.Task()
	if err != nil {
		return fmt.Errorf("error parsing task file (%s): %w", path, err)
	}
	nt, err := numeric.New(t, numeric.WithLogger(log))
	if err != nil {
		return err
	}

	patterns, err := selectPatterns(fixture, o.patterns)
	if err != nil {
		return err
	}

	pdbOptions := []pdb.Option{
		pdb.WithLogger(log),
		pdb.WithMaxAbstractOperators(o.maxOperators),
	}
	if o.trace {
		pdbOptions = append(pdbOptions, pdb.WithTracer(&npdb.LoggingTracer{Writer: cmd.ErrOrStderr()}))
	}
	var heuristicOptions []heuristic.Option
	if o.zeroOnMiss {
		heuristicOptions = append(heuristicOptions, heuristic.ZeroOnMiss())
	}
	collection, err := heuristic.BuildCollection(cmd.Context(), nt, patterns, o.maxStates, pdbOptions, heuristicOptions...)
	if err != nil {
		return err
	}

	report := newReport(fixture, collection, nt.InitialState())
	if o.markdown {
		fmt.Fprintln(cmd.OutOrStdout(), report.RenderMarkdown())
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), report.Render())
	}
	return nil
}

func selectPatterns(fixture *Fixture, flags []string) ([]npdb.Pattern, error) {
	if len(flags) == 0 {
		patterns, err := fixture.Patterns()
		if err != nil {
			return nil, err
		}
		if len(patterns) == 0 {
			return nil, fmt.Errorf("no patterns given")
		}
		return patterns, nil
	}
	patterns := make([]npdb.Pattern, 0, len(flags))
	for _, flag := range flags {
		pattern, err := fixture.Pattern(strings.Split(flag, ","))
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}
