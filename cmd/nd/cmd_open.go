package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newOpenCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a directory",
		Long: `Open a directory. The open directory is remembered in
.notedir/state.toml and is where "nd pwd" points.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openWorkspace(cmd.Context(), stderr, false)
			if err != nil {
				fmt.Fprintf(stderr, "nd open: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			defer a.Close() //nolint:errcheck // best-effort close
			if err := a.Select(absPath(args[0])); err != nil {
				fmt.Fprintf(stderr, "nd open: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			fmt.Fprintln(stdout, a.SelectedPath()) //nolint:errcheck // best-effort stdout
			return nil
		},
	}
}

func newPwdCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "pwd",
		Short: "Print the open directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openWorkspace(cmd.Context(), stderr, true)
			if err != nil {
				fmt.Fprintf(stderr, "nd pwd: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			defer a.Close() //nolint:errcheck // best-effort close
			d, ok := a.Selection()
			if !ok {
				msg := a.Translator().Trans("cli.selection.none")
				if p := a.SelectedPath(); p != "" {
					msg = fmt.Sprintf("%s no longer exists", p)
				}
				fmt.Fprintf(stderr, "nd pwd: %s\n", msg) //nolint:errcheck // best-effort stderr
				return errExit
			}
			fmt.Fprintln(stdout, d.Path()) //nolint:errcheck // best-effort stdout
			return nil
		},
	}
}
