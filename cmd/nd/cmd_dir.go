package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/steveyegge/notedir/internal/command"
)

func newDirCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir",
		Short: "Create, rename and remove directories",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(
		newDirNewCmd(stdout, stderr),
		newDirRenameCmd(stdout, stderr),
		newDirRmCmd(stdout, stderr),
	)
	return cmd
}

func newDirNewCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "new <parent> [name]",
		Short: "Create a directory",
		Long: `Create a directory inside parent and open it.

The name is sanitized first: path separators and characters that are not
portable become the configured replacement. Without a name the localized
default ("New directory") is used.`,
		Example: `  nd dir new notes ideas
  nd dir new notes`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := command.DirNewRequest{SourcePath: absPath(args[0])}
			if len(args) == 2 {
				req.Name = &args[1]
			}
			if doDirNew(cmd, req, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func doDirNew(cmd *cobra.Command, req command.DirNewRequest, stdout, stderr io.Writer) int {
	ctx := cmd.Context()
	a, err := openWorkspace(ctx, stderr, false)
	if err != nil {
		fmt.Fprintf(stderr, "nd dir new: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer a.Close() //nolint:errcheck // best-effort close

	res, err := command.NewDirNew(a, commandDeps(a)).Execute(ctx, req)
	if err != nil {
		return 1
	}
	fmt.Fprintf(stdout, "%s %s\n", a.Translator().Trans("cli.dir_new.done"), res.Path) //nolint:errcheck // best-effort stdout
	return 0
}

func newDirRenameCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "rename <path> <name>",
		Aliases: []string{"mv"},
		Short:   "Rename a directory in place",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := command.DirRenameRequest{Path: absPath(args[0]), Name: args[1]}
			if doDirRename(cmd, req, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func doDirRename(cmd *cobra.Command, req command.DirRenameRequest, stdout, stderr io.Writer) int {
	ctx := cmd.Context()
	a, err := openWorkspace(ctx, stderr, false)
	if err != nil {
		fmt.Fprintf(stderr, "nd dir rename: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer a.Close() //nolint:errcheck // best-effort close

	res, err := command.NewDirRename(a, commandDeps(a)).Execute(ctx, req)
	if err != nil {
		return 1
	}
	fmt.Fprintf(stdout, "%s %s\n", a.Translator().Trans("cli.dir_rename.done"), res.Path) //nolint:errcheck // best-effort stdout
	return 0
}

func newDirRmCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a directory and everything in it",
		Long: `Remove a directory and everything in it. Workspace roots cannot be
removed. If the open directory is inside the removed one, its parent is
opened instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := command.DirDeleteRequest{Path: absPath(args[0])}
			if doDirRm(cmd, req, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func doDirRm(cmd *cobra.Command, req command.DirDeleteRequest, stdout, stderr io.Writer) int {
	ctx := cmd.Context()
	a, err := openWorkspace(ctx, stderr, false)
	if err != nil {
		fmt.Fprintf(stderr, "nd dir rm: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer a.Close() //nolint:errcheck // best-effort close

	res, err := command.NewDirDelete(a, commandDeps(a)).Execute(ctx, req)
	if err != nil {
		return 1
	}
	fmt.Fprintf(stdout, "%s %s\n", a.Translator().Trans("cli.dir_remove.done"), res.Path) //nolint:errcheck // best-effort stdout
	return 0
}
