package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/notedir/internal/app"
	"github.com/steveyegge/notedir/internal/events"
)

func newEventsCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		filter    events.Filter
		sinceFlag string
		watchFlag bool
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the change journal",
		Long: `Show the change journal (.notedir/events.jsonl) as a table.

With --watch, block until a matching event is recorded after --after (default:
the current head) and print it as a JSON line. Empty output means the
timeout expired.`,
		Example: `  nd events --type dir.created
  nd events --since 1h
  nd events --watch --after 12 --timeout 5s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := resolveWorkspace()
			if err != nil {
				fmt.Fprintf(stderr, "nd events: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			if filter.Subject != "" {
				filter.Subject = absPath(filter.Subject)
			}
			path := app.JournalPath(dir)
			if watchFlag {
				if doEventsWatch(cmd.Context(), path, filter, timeout, stdout, stderr) != 0 {
					return errExit
				}
				return nil
			}
			if doEvents(path, filter, sinceFlag, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Type, "type", "", "filter by event type (e.g. dir.created)")
	cmd.Flags().StringVar(&filter.Subject, "subject", "", "filter by path, including everything below it")
	cmd.Flags().StringVar(&sinceFlag, "since", "", "show events since duration ago (e.g. 1h, 30m)")
	cmd.Flags().BoolVar(&watchFlag, "watch", false, "block until a matching event arrives")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "max wait for --watch")
	cmd.Flags().Uint64Var(&filter.AfterSeq, "after", 0, "watch from this sequence number (0 = current head)")
	return cmd
}

// doEvents prints the journal at path as a table. Accepts the path
// directly for testability.
func doEvents(path string, filter events.Filter, sinceFlag string, stdout, stderr io.Writer) int {
	if sinceFlag != "" {
		d, err := time.ParseDuration(sinceFlag)
		if err != nil {
			fmt.Fprintf(stderr, "nd events: invalid --since %q: %v\n", sinceFlag, err) //nolint:errcheck // best-effort stderr
			return 1
		}
		filter.Since = time.Now().Add(-d)
	}
	evts, err := events.ReadFiltered(path, filter)
	if err != nil {
		fmt.Fprintf(stderr, "nd events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if len(evts) == 0 {
		fmt.Fprintln(stdout, "No events.") //nolint:errcheck // best-effort stdout
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTYPE\tACTOR\tSUBJECT\tPREVIOUS\tTIME") //nolint:errcheck // best-effort stdout
	for _, e := range evts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", //nolint:errcheck // best-effort stdout
			e.Seq, e.Type, e.Actor, e.Subject, e.Previous,
			e.Ts.Format("2006-01-02 15:04:05"),
		)
	}
	tw.Flush() //nolint:errcheck // best-effort stdout
	return 0
}

// doEventsWatch follows the journal until an event matching filter
// arrives or timeout expires. It prints the match as a JSON line.
func doEventsWatch(ctx context.Context, path string, filter events.Filter, timeout time.Duration, stdout, stderr io.Writer) int {
	rec, err := events.NewFileRecorder(path, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "nd events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer rec.Close() //nolint:errcheck // best-effort close

	after := filter.AfterSeq
	if after == 0 {
		if after, err = rec.LatestSeq(); err != nil {
			fmt.Fprintf(stderr, "nd events: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
	}
	filter.AfterSeq = after

	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	w, err := rec.Watch(wctx, after)
	if err != nil {
		fmt.Fprintf(stderr, "nd events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer w.Close() //nolint:errcheck // best-effort close

	for {
		e, err := w.Next()
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, events.ErrClosed):
			return 0
		case err != nil:
			fmt.Fprintf(stderr, "nd events: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		if !filter.Match(e) {
			continue
		}
		data, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(stderr, "nd events: marshal: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		fmt.Fprintln(stdout, string(data)) //nolint:errcheck // best-effort stdout
		return 0
	}
}
