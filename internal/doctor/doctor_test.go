package doctor

import (
	"errors"
	"strings"
	"testing"
)

// stubCheck returns a fixed result until Fix succeeds.
type stubCheck struct {
	name    string
	status  CheckStatus
	details []string
	hint    string
	canFix  bool
	fixErr  error
	fixes   int
}

func (s *stubCheck) Name() string { return s.name }

func (s *stubCheck) Run(_ *CheckContext) *CheckResult {
	st := s.status
	if s.fixes > 0 && s.fixErr == nil {
		st = StatusOK
	}
	return &CheckResult{Name: s.name, Status: st, Message: "msg", Details: s.details, FixHint: s.hint}
}

func (s *stubCheck) CanFix() bool { return s.canFix }

func (s *stubCheck) Fix(_ *CheckContext) error {
	s.fixes++
	return s.fixErr
}

func runChecks(fix, verbose bool, checks ...Check) (*Report, string) {
	d := &Doctor{}
	for _, c := range checks {
		d.Register(c)
	}
	var buf strings.Builder
	r := d.Run(&CheckContext{WorkspacePath: "/ws", Verbose: verbose}, &buf, fix)
	return r, buf.String()
}

func TestDoctorCounts(t *testing.T) {
	r, out := runChecks(false, false,
		&stubCheck{name: "a", status: StatusOK},
		&stubCheck{name: "b", status: StatusWarning},
		&stubCheck{name: "c", status: StatusError},
		&stubCheck{name: "d", status: StatusOK},
	)
	if r.Passed != 2 || r.Warned != 1 || r.Failed != 1 || r.Fixed != 0 {
		t.Errorf("report = %+v", r)
	}
	if len(r.Results) != 4 || r.Results[2].Name != "c" {
		t.Errorf("results out of order: %+v", r.Results)
	}
	for _, want := range []string{"✓ a: msg", "⚠ b: msg", "✗ c: msg", "✓ d: msg"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctorNoChecks(t *testing.T) {
	r, out := runChecks(false, false)
	if len(r.Results) != 0 || r.Passed+r.Warned+r.Failed+r.Fixed != 0 || out != "" {
		t.Errorf("report = %+v, out = %q", r, out)
	}
}

func TestDoctorFix(t *testing.T) {
	tests := []struct {
		name      string
		fix       bool
		check     *stubCheck
		wantFixes int
		wantFixed int
		wantOut   string
	}{
		{"fixed", true, &stubCheck{name: "x", status: StatusWarning, canFix: true}, 1, 1, "✓ x: msg (fixed)"},
		{"not requested", false, &stubCheck{name: "x", status: StatusWarning, canFix: true}, 0, 0, "⚠ x: msg"},
		{"cannot fix", true, &stubCheck{name: "x", status: StatusError}, 0, 0, "✗ x: msg"},
		{"passing check untouched", true, &stubCheck{name: "x", status: StatusOK, canFix: true}, 0, 0, "✓ x: msg\n"},
		{"fix error", true, &stubCheck{name: "x", status: StatusError, canFix: true, fixErr: errors.New("read-only disk")}, 1, 0, "hint: fix failed: read-only disk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out := runChecks(tt.fix, false, tt.check)
			if tt.check.fixes != tt.wantFixes {
				t.Errorf("Fix calls = %d, want %d", tt.check.fixes, tt.wantFixes)
			}
			if r.Fixed != tt.wantFixed {
				t.Errorf("Fixed = %d, want %d", r.Fixed, tt.wantFixed)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output = %q, want it to contain %q", out, tt.wantOut)
			}
		})
	}
}

func TestDoctorDetailsAndHints(t *testing.T) {
	c := &stubCheck{name: "x", status: StatusError, details: []string{"missing: /ws/notes"}, hint: "run nd init"}

	_, quiet := runChecks(false, false, c)
	if strings.Contains(quiet, "missing: /ws/notes") {
		t.Errorf("details shown without verbose: %q", quiet)
	}
	if !strings.Contains(quiet, "hint: run nd init") {
		t.Errorf("hint missing: %q", quiet)
	}

	_, loud := runChecks(false, true, c)
	if !strings.Contains(loud, "      missing: /ws/notes") {
		t.Errorf("details missing with verbose: %q", loud)
	}
}

func TestPrintSummary(t *testing.T) {
	tests := []struct {
		name   string
		report *Report
		want   string
	}{
		{"all pass", &Report{Passed: 3}, "\n3 passed\n"},
		{"mixed", &Report{Passed: 2, Warned: 1, Failed: 1}, "\n2 passed, 1 warnings, 1 failed\n"},
		{"with fixes", &Report{Passed: 2, Fixed: 1}, "\n2 passed, 1 fixed\n"},
		{"empty", &Report{}, "\nNo checks ran.\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			PrintSummary(&buf, tt.report)
			if buf.String() != tt.want {
				t.Errorf("summary = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestReportOK(t *testing.T) {
	if !(&Report{Passed: 1, Warned: 2}).OK() {
		t.Error("warnings should not fail the report")
	}
	if (&Report{Passed: 1, Failed: 1}).OK() {
		t.Error("a failed check should fail the report")
	}
}
