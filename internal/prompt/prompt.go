// Package prompt presents failures and notices to the user.
package prompt

import (
	"fmt"
	"io"
	"sync"
)

// Type classifies a prompt.
type Type string

// Prompt types.
const (
	Error   Type = "error"
	Warning Type = "warning"
	Info    Type = "info"
)

// Options describes one prompt. Title and Message are already localized.
type Options struct {
	Type    Type
	Title   string
	Message string
}

// Prompter shows prompts. Implementations must not block on user input;
// a prompt is a notice, not a question.
type Prompter interface {
	Prompt(opts Options)
}

// Writer renders prompts as single lines on an io.Writer:
//
//	error: Could not create directory: permission denied
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Prompt writes opts as one line. An empty Type renders as "error".
func (p *Writer) Prompt(opts Options) {
	t := opts.Type
	if t == "" {
		t = Error
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case opts.Message == "" || opts.Message == opts.Title:
		fmt.Fprintf(p.w, "%s: %s\n", t, opts.Title) //nolint:errcheck // best-effort stderr
	case opts.Title == "":
		fmt.Fprintf(p.w, "%s: %s\n", t, opts.Message) //nolint:errcheck // best-effort stderr
	default:
		fmt.Fprintf(p.w, "%s: %s: %s\n", t, opts.Title, opts.Message) //nolint:errcheck // best-effort stderr
	}
}

// Fake records prompts for tests.
type Fake struct {
	mu    sync.Mutex
	Calls []Options
}

// Prompt records opts.
func (f *Fake) Prompt(opts Options) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, opts)
}

// Count returns how many prompts were shown.
func (f *Fake) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// Last returns the most recent prompt, or false if none.
func (f *Fake) Last() (Options, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return Options{}, false
	}
	return f.Calls[len(f.Calls)-1], true
}

// Discard drops every prompt.
var Discard Prompter = discard{}

type discard struct{}

func (discard) Prompt(Options) {}

var (
	_ Prompter = (*Writer)(nil)
	_ Prompter = (*Fake)(nil)
)
