package root

import (
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"github.com/operator-framework/npdb/cmd/build"
)

func NewRootCmd() *cobra.Command {
	var verbosity int
	rootCmd := &cobra.Command{
		Use:   "npdb",
		Short: "npdb builds pattern database heuristics for numeric planning tasks",
		Long: `Builds pattern databases for planning tasks with finite-domain and
numeric variables and reports the heuristic estimates they provide.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 0, "log verbosity, 1 for construction phases and 2 for operator details")

	logger := func() logr.Logger {
		stdr.SetVerbosity(verbosity)
		return stdr.New(log.New(os.Stderr, "", log.LstdFlags))
	}

	// add sub-commands
	rootCmd.AddCommand(build.NewBuildCommand(logger))

	return rootCmd
}
