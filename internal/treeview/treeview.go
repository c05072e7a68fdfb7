// Package treeview keeps a read-only picture of the workspace tree built
// from change events and FSAL lookups alone. It never walks the FSAL or
// the disk: each event names a path, and the view re-resolves what it
// needs around that path.
package treeview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/steveyegge/notedir/internal/events"
	"github.com/steveyegge/notedir/internal/fsal"
)

// Resolver looks entities up by path. *fsal.FSAL implements it.
type Resolver interface {
	Resolve(path string) (fsal.Entity, bool)
}

type entry struct {
	name     string
	dir      bool
	children []string
}

// View is a snapshot of part of the tree kept current by [View.Apply].
// Safe for concurrent use.
type View struct {
	mu    sync.Mutex
	src   Resolver
	roots []string
	nodes map[string]*entry
	seq   uint64
}

// New returns an empty view reading from src.
func New(src Resolver) *View {
	return &View{src: src, nodes: make(map[string]*entry)}
}

// Seed adds the subtrees under roots to the view.
func (v *View) Seed(roots ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range roots {
		r = filepath.Clean(r)
		if !contains(v.roots, r) {
			v.roots = append(v.roots, r)
		}
		v.load(r)
	}
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}

// load replaces whatever the view holds at p with what p resolves to now.
// Callers hold v.mu.
func (v *View) load(p string) {
	v.drop(p)
	e, ok := v.src.Resolve(p)
	if !ok {
		return
	}
	n := &entry{name: e.Name(), dir: e.IsDir()}
	v.nodes[p] = n
	if d, ok := e.(*fsal.Directory); ok {
		n.children = d.Children()
		for _, c := range n.children {
			v.load(c)
		}
	}
}

// drop removes p and everything below it. Callers hold v.mu.
func (v *View) drop(p string) {
	n, ok := v.nodes[p]
	if !ok {
		return
	}
	for _, c := range n.children {
		v.drop(c)
	}
	delete(v.nodes, p)
}

// Apply folds one event into the view and reports whether the view
// covered the event's paths.
func (v *View) Apply(e events.Event) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if e.Seq > v.seq {
		v.seq = e.Seq
	}
	switch e.Type {
	case events.DirCreated, events.DirRemoved:
		return v.reloadParent(e.Subject)
	case events.DirRenamed:
		a := v.reloadParent(e.Previous)
		b := v.reloadParent(e.Subject)
		return a || b
	case events.TreeLoaded:
		for _, r := range v.roots {
			v.load(r)
		}
		return true
	}
	return false
}

// reloadParent reloads the parent of p if the view holds it. Callers hold
// v.mu.
func (v *View) reloadParent(p string) bool {
	if p == "" {
		return false
	}
	parent := filepath.Dir(p)
	if _, ok := v.nodes[parent]; !ok {
		return false
	}
	v.load(parent)
	return true
}

// Follow applies every event from w until w fails. A done context or a
// closed provider ends the loop without error. onApply, if non-nil, runs
// after each event the view covered.
func (v *View) Follow(ctx context.Context, w events.Watcher, onApply func(events.Event)) error {
	for {
		e, err := w.Next()
		if err != nil {
			if errors.Is(err, events.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if v.Apply(e) && onApply != nil {
			onApply(e)
		}
	}
}

// Seq returns the sequence number of the last applied event.
func (v *View) Seq() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seq
}

// Paths returns every path in the view, sorted.
func (v *View) Paths() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.nodes))
	for p := range v.nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Has reports whether the view holds p.
func (v *View) Has(p string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.nodes[filepath.Clean(p)]
	return ok
}

// Render writes the view as an indented outline, roots first, children
// in tree order. Directories end in a slash.
func (v *View) Render(w io.Writer) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	var b strings.Builder
	for _, r := range v.roots {
		if _, ok := v.nodes[r]; !ok {
			continue
		}
		v.render(&b, r, r, 0)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (v *View) render(b *strings.Builder, p, label string, depth int) {
	n := v.nodes[p]
	suffix := ""
	if n.dir {
		suffix = "/"
	}
	fmt.Fprintf(b, "%s%s%s\n", strings.Repeat("  ", depth), label, suffix)
	for _, c := range n.children {
		if cn, ok := v.nodes[c]; ok {
			v.render(b, c, cn.name, depth+1)
		}
	}
}
