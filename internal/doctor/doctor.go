package doctor

import (
	"fmt"
	"io"
	"strings"

	"github.com/steveyegge/notedir/internal/telemetry"
)

// Report collects the results of a doctor run. A fixed check counts as
// both passed and fixed.
type Report struct {
	Results []*CheckResult
	Passed  int
	Warned  int
	Failed  int
	Fixed   int
}

// OK reports whether no check failed. Warnings do not count.
func (r *Report) OK() bool { return r.Failed == 0 }

func (r *Report) add(res *CheckResult) {
	r.Results = append(r.Results, res)
	switch {
	case res.Fixed:
		r.Fixed++
		r.Passed++
	case res.Status == StatusOK:
		r.Passed++
	case res.Status == StatusWarning:
		r.Warned++
	default:
		r.Failed++
	}
}

// Doctor runs registered checks in registration order.
type Doctor struct {
	checks []Check
}

// Register appends c to the checks Run executes.
func (d *Doctor) Register(c Check) {
	d.checks = append(d.checks, c)
}

// Run executes every check and streams each result line to w. With fix, a
// check that fails and can fix itself gets one Fix attempt followed by a
// second Run; a failed Fix is reported in place of the hint.
func (d *Doctor) Run(ctx *CheckContext, w io.Writer, fix bool) *Report {
	rep := &Report{}
	for _, c := range d.checks {
		res := c.Run(ctx)
		if fix && res.Status != StatusOK && c.CanFix() {
			res = attemptFix(ctx, c, res)
		}
		printResult(w, res, ctx.Verbose)
		rep.add(res)
	}
	telemetry.RecordDoctorRun(ctx.ctx(), rep.Passed, rep.Warned, rep.Failed, rep.Fixed)
	return rep
}

func attemptFix(ctx *CheckContext, c Check, before *CheckResult) *CheckResult {
	if err := c.Fix(ctx); err != nil {
		before.FixHint = "fix failed: " + err.Error()
		return before
	}
	after := c.Run(ctx)
	after.Fixed = after.Status == StatusOK
	return after
}

var icons = map[CheckStatus]string{
	StatusOK:      "✓",
	StatusWarning: "⚠",
	StatusError:   "✗",
}

func printResult(w io.Writer, r *CheckResult, verbose bool) {
	line := fmt.Sprintf("  %s %s: %s", icons[r.Status], r.Name, r.Message)
	if r.Fixed {
		line += " (fixed)"
	}
	fmt.Fprintln(w, line) //nolint:errcheck // best-effort output
	if verbose {
		for _, d := range r.Details {
			fmt.Fprintf(w, "      %s\n", d) //nolint:errcheck // best-effort output
		}
	}
	if r.FixHint != "" && r.Status != StatusOK {
		fmt.Fprintf(w, "      hint: %s\n", r.FixHint) //nolint:errcheck // best-effort output
	}
}

// PrintSummary writes the closing count line, e.g. "3 passed, 1 warnings".
func PrintSummary(w io.Writer, r *Report) {
	var parts []string
	for _, p := range []struct {
		n     int
		label string
	}{
		{r.Passed, "passed"},
		{r.Warned, "warnings"},
		{r.Failed, "failed"},
		{r.Fixed, "fixed"},
	} {
		if p.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", p.n, p.label))
		}
	}
	if len(parts) == 0 {
		fmt.Fprintln(w, "\nNo checks ran.") //nolint:errcheck // best-effort output
		return
	}
	fmt.Fprintf(w, "\n%s\n", strings.Join(parts, ", ")) //nolint:errcheck // best-effort output
}
