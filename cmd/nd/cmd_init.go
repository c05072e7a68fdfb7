package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/notedir/internal/config"
	"github.com/steveyegge/notedir/internal/fsys"
)

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a workspace",
		Long: `Create a notedir workspace in dir (default: the current directory).

Writes notedir.toml with a single "notes" root, creates the root and the
.notedir state directory. Fails if the directory is already a workspace.`,
		Example: `  nd init
  nd init ~/journal --name journal`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if doInit(fsys.OSFS{}, dir, name, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "workspace name (default: the directory name)")
	return cmd
}

// doInit writes a default workspace into dir. Accepts the filesystem for
// testability.
func doInit(disk fsys.FS, dir, name string, stdout, stderr io.Writer) int {
	dir, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(stderr, "nd init: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	tomlPath := filepath.Join(dir, config.FileName)
	if _, err := disk.Stat(tomlPath); err == nil {
		fmt.Fprintf(stderr, "nd init: %s already exists\n", tomlPath) //nolint:errcheck // best-effort stderr
		return 1
	}
	if name == "" {
		name = filepath.Base(dir)
	}

	cfg := config.Default(name)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "nd init: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	data, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintf(stderr, "nd init: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	for _, p := range append(cfg.RootPaths(dir), config.StatePath(dir)) {
		if err := disk.MkdirAll(p, 0o755); err != nil {
			fmt.Fprintf(stderr, "nd init: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
	}
	if err := disk.WriteFile(tomlPath, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "nd init: writing %s: %v\n", config.FileName, err) //nolint:errcheck // best-effort stderr
		return 1
	}
	fmt.Fprintf(stdout, "Initialized notedir workspace %q in %s\n", name, dir) //nolint:errcheck // best-effort stdout
	return 0
}
