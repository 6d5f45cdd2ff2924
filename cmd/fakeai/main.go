// Command fakeai fabricates OpenAI-wire-compatible chat completions,
// embeddings, and observability endpoints without any real inference
// backend.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "fakeai",
		Short:         "Fabricates OpenAI-compatible completions without real inference",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServerCmd(),
		newMetricsCmd(),
		newStatusCmd(),
		newCacheStatsCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fakeai version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("fakeai", version)
			return nil
		},
	}
}

// configError marks an error as a configuration problem (exit code 2),
// distinguishing it from a runtime error (exit code 1).
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	var ce configError
	if errors.As(err, &ce) {
		return 2
	}
	return 1
}
