// nd manages the directory tree of a notedir workspace.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/notedir/internal/app"
	"github.com/steveyegge/notedir/internal/command"
	"github.com/steveyegge/notedir/internal/config"
	"github.com/steveyegge/notedir/internal/fsys"
	"github.com/steveyegge/notedir/internal/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit is returned by RunE functions to signal a non-zero exit. The
// command has already written its own error to stderr.
var errExit = errors.New("exit")

// Global flags. Empty values mean "use notedir.toml" or, for
// workspaceFlag, "walk up from cwd".
var (
	workspaceFlag string
	localeFlag    string
	logLevelFlag  string
	memfsFlag     bool
)

// run executes nd with args and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	shutdown, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(""))
	if err != nil {
		fmt.Fprintf(stderr, "nd: telemetry disabled: %v\n", err) //nolint:errcheck // best-effort stderr
	}
	defer shutdown(context.Background()) //nolint:errcheck // best-effort flush

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "nd: %v\n", err) //nolint:errcheck // best-effort stderr
		}
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "nd",
		Short:         "Manage the directory tree of a notedir workspace",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(stderr, "nd: unknown command %q\n", args[0]) //nolint:errcheck // best-effort stderr
			return errExit
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&workspaceFlag, "workspace", "w", "",
		"path to the workspace directory (default: walk up from cwd)")
	pf.StringVar(&localeFlag, "locale", "", "message locale, e.g. en or de (default: names.locale)")
	pf.StringVar(&logLevelFlag, "log-level", "", "diagnostic log level: debug, info, warn or error (default: log.level)")
	pf.BoolVar(&memfsFlag, "memfs", false, "work on an in-memory copy of the workspace; nothing is written to disk")
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		newInitCmd(stdout, stderr),
		newDirCmd(stdout, stderr),
		newTreeCmd(stdout, stderr),
		newOpenCmd(stdout, stderr),
		newPwdCmd(stdout, stderr),
		newEventsCmd(stdout, stderr),
		newDoctorCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	root.AddCommand(newGenDocCmd(stdout, stderr, root))
	return root
}

// resolveWorkspace returns the workspace directory from --workspace or
// by walking up from cwd.
func resolveWorkspace() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return config.Resolve(fsys.OSFS{}, workspaceFlag, cwd)
}

// openWorkspace resolves and opens the workspace. Read-only opens skip
// the lock and the journal.
func openWorkspace(ctx context.Context, stderr io.Writer, readOnly bool) (*app.App, error) {
	dir, err := resolveWorkspace()
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, dir, app.Options{
		MemFS:    memfsFlag,
		ReadOnly: readOnly,
		Locale:   localeFlag,
		LogLevel: logLevelFlag,
		Actor:    os.Getenv(telemetry.EnvActor),
		Stderr:   stderr,
	})
}

// commandDeps wires the collaborators commands share from an open
// workspace.
func commandDeps(a *app.App) command.Deps {
	return command.Deps{
		Translator: a.Translator(),
		Logger:     a.Logger(),
		Sanitizer:  a.Policy(),
	}
}

// absPath makes a user-supplied path absolute against cwd.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
