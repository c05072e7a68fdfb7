package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/notedir/internal/events"
	"github.com/steveyegge/notedir/internal/fsal"
	"github.com/steveyegge/notedir/internal/treeview"
)

func newTreeCmd(stdout, stderr io.Writer) *cobra.Command {
	var watch bool
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print the workspace tree",
		Long: `Print the tree under path (default: every root) as an outline.

With --watch, nd keeps following the change journal and prints each change
under path as it happens, then the final tree once the timeout expires.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = absPath(args[0])
			}
			if doTree(cmd.Context(), path, watch, timeout, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "follow changes until the timeout expires")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long --watch follows changes")
	return cmd
}

func doTree(ctx context.Context, path string, watch bool, timeout time.Duration, stdout, stderr io.Writer) int {
	a, err := openWorkspace(ctx, stderr, true)
	if err != nil {
		fmt.Fprintf(stderr, "nd tree: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer a.Close() //nolint:errcheck // best-effort close

	v := treeview.New(a.FSAL())
	if path != "" {
		if _, ok := a.FindDir(path); !ok {
			fmt.Fprintf(stderr, "nd tree: no directory at %s\n", path) //nolint:errcheck // best-effort stderr
			return 1
		}
		v.Seed(path)
	} else {
		for _, r := range a.FSAL().Roots() {
			v.Seed(r.Path())
		}
	}

	if watch {
		seq, err := a.Events().LatestSeq()
		if err != nil {
			fmt.Fprintf(stderr, "nd tree: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		wctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		w, err := a.Events().Watch(wctx, seq)
		if err != nil {
			fmt.Fprintf(stderr, "nd tree: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		defer w.Close() //nolint:errcheck // best-effort close
		rw := &reloadingWatcher{Watcher: w, ctx: wctx, fsal: a.FSAL()}
		err = v.Follow(wctx, rw, func(e events.Event) {
			fmt.Fprintf(stdout, "%s %s\n", e.Type, e.Subject) //nolint:errcheck // best-effort stdout
		})
		if err != nil {
			fmt.Fprintf(stderr, "nd tree: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
	}

	if err := v.Render(stdout); err != nil {
		fmt.Fprintf(stderr, "nd tree: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	return 0
}

// reloadingWatcher rescans the disk before handing out each event, so the
// view resolves changes made by other nd processes.
type reloadingWatcher struct {
	events.Watcher
	ctx  context.Context
	fsal *fsal.FSAL
}

func (w *reloadingWatcher) Next() (events.Event, error) {
	e, err := w.Watcher.Next()
	if err != nil {
		return e, err
	}
	if e.Type == events.SelectionChanged {
		return e, nil
	}
	return e, w.fsal.Reload(w.ctx)
}
