package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/notedir/internal/docgen"
)

const defaultCLIDoc = "docs/reference/cli.md"

// newGenDocCmd creates the hidden "nd gen-doc" subcommand, which writes
// the CLI reference from the real command tree.
func newGenDocCmd(stdout, stderr io.Writer, root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "gen-doc [path]",
		Short:  "Generate the CLI reference",
		Hidden: true,
		Args:   cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			out := defaultCLIDoc
			if len(args) == 1 {
				out = args[0]
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				fmt.Fprintf(stderr, "nd gen-doc: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			if err := docgen.WriteCLIMarkdown(out, root); err != nil {
				fmt.Fprintf(stderr, "nd gen-doc: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			fmt.Fprintf(stdout, "Generated: %s\n", out) //nolint:errcheck // best-effort stdout
			return nil
		},
	}
}
