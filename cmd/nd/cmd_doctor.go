package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/notedir/internal/config"
	"github.com/steveyegge/notedir/internal/doctor"
	"github.com/steveyegge/notedir/internal/fsys"
)

func newDoctorCmd(stdout, stderr io.Writer) *cobra.Command {
	var fix, verbose bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check workspace health",
		Long: `Run diagnostic checks on the workspace.

Checks the workspace layout, notedir.toml, the configured roots, the loaded
tree against the disk, the change journal, the open directory and the
process lock. Use --fix to create missing directories and forget an open
directory that no longer exists.`,
		Example: `  nd doctor
  nd doctor --fix
  nd doctor -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if doDoctor(cmd.Context(), fix, verbose, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "attempt to fix issues automatically")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show extra diagnostic details")
	return cmd
}

// doDoctor runs all health checks and prints results.
func doDoctor(ctx context.Context, fix, verbose bool, stdout, stderr io.Writer) int {
	dir, err := resolveWorkspace()
	if err != nil {
		fmt.Fprintf(stderr, "nd doctor: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	d := &doctor.Doctor{}
	cctx := &doctor.CheckContext{WorkspacePath: dir, FS: fsys.OSFS{}, Context: ctx, Verbose: verbose}

	d.Register(&doctor.WorkspaceStructureCheck{})
	d.Register(&doctor.WorkspaceConfigCheck{})

	// Deeper checks need a valid config. The config check above reports
	// why when there is none.
	cfg, err := config.Load(fsys.OSFS{}, filepath.Join(dir, config.FileName))
	if err == nil && cfg.Validate() == nil {
		d.Register(doctor.NewRootsExistCheck(cfg))
		if a, err := openWorkspace(ctx, stderr, true); err == nil {
			defer a.Close() //nolint:errcheck // best-effort close
			d.Register(doctor.NewTreeConsistencyCheck(a.FSAL()))
			d.Register(doctor.NewSelectionCheck(a))
		} else {
			fmt.Fprintf(stderr, "nd doctor: skipping tree checks: %v\n", err) //nolint:errcheck // best-effort stderr
		}
	}
	d.Register(&doctor.EventJournalCheck{})
	d.Register(&doctor.LockCheck{})

	report := d.Run(cctx, stdout, fix)
	doctor.PrintSummary(stdout, report)
	if !report.OK() {
		return 1
	}
	return 0
}
