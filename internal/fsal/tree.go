package fsal

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// node is the tree's private, mutable representation of an entity. Only
// the FSAL touches nodes, always under its lock.
type node struct {
	path     string
	name     string
	parent   *node // nil for roots
	dir      bool
	children []*node // display order
	size     int64
	mod      time.Time
}

// tree is a forest indexed by path key. Keys are NFC-normalized cleaned
// paths, case-folded when the host filesystem is case-insensitive, so
// "Notes" and "notes" collide exactly when the disk would make them
// collide.
type tree struct {
	roots           []*node
	index           map[string]*node
	caseInsensitive bool
	coll            *collate.Collator
}

func newTree(caseInsensitive bool) *tree {
	return &tree{
		index:           make(map[string]*node),
		caseInsensitive: caseInsensitive,
		coll:            collate.New(language.Und, collate.IgnoreCase, collate.Numeric),
	}
}

func (t *tree) key(p string) string {
	k := norm.NFC.String(filepath.Clean(p))
	if t.caseInsensitive {
		// A Caser is stateful; make one per call so readers can share t.
		k = cases.Fold().String(k)
	}
	return k
}

func (t *tree) lookup(p string) *node {
	if p == "" {
		return nil
	}
	return t.index[t.key(p)]
}

// less orders siblings the way people expect ("note 2" before "note 10",
// case ignored), breaking ties bytewise so the order is total.
func (t *tree) less(a, b *node) bool {
	if c := t.coll.CompareString(a.name, b.name); c != 0 {
		return c < 0
	}
	return a.name < b.name
}

func (t *tree) addRoot(n *node) {
	i := sort.Search(len(t.roots), func(i int) bool { return t.roots[i].path >= n.path })
	t.roots = slices.Insert(t.roots, i, n)
	t.indexSubtree(n)
}

// insert links n (and anything below it) under parent.
func (t *tree) insert(parent, n *node) {
	n.parent = parent
	i := sort.Search(len(parent.children), func(i int) bool {
		return !t.less(parent.children[i], n)
	})
	parent.children = slices.Insert(parent.children, i, n)
	t.indexSubtree(n)
}

// detach unlinks n from its parent and drops n's subtree from the index.
func (t *tree) detach(n *node) {
	if p := n.parent; p != nil {
		if i := slices.Index(p.children, n); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
	}
	t.unindexSubtree(n)
}

func (t *tree) indexSubtree(n *node) {
	t.index[t.key(n.path)] = n
	for _, c := range n.children {
		t.indexSubtree(c)
	}
}

func (t *tree) unindexSubtree(n *node) {
	delete(t.index, t.key(n.path))
	for _, c := range n.children {
		t.unindexSubtree(c)
	}
}

// repath moves n's subtree to p. n must be detached.
func (t *tree) repath(n *node, p string) {
	n.path = p
	n.name = filepath.Base(p)
	for _, c := range n.children {
		t.repath(c, filepath.Join(p, c.name))
	}
}

func (t *tree) len() int { return len(t.index) }

func count(n *node) int {
	c := 1
	for _, ch := range n.children {
		c += count(ch)
	}
	return c
}

// snapshot copies n into an immutable Entity.
func snapshot(n *node) Entity {
	parent := ""
	if n.parent != nil {
		parent = n.parent.path
	}
	if !n.dir {
		return &File{path: n.path, parent: parent, size: n.size, mod: n.mod}
	}
	return dirSnapshot(n)
}

func dirSnapshot(n *node) *Directory {
	d := &Directory{path: n.path, mod: n.mod, children: make([]string, len(n.children))}
	if n.parent != nil {
		d.parent = n.parent.path
	}
	for i, c := range n.children {
		d.children[i] = c.path
	}
	return d
}

// walk visits n's subtree in display order, parents first.
func walk(n *node, fn func(*node)) {
	fn(n)
	for _, c := range n.children {
		walk(c, fn)
	}
}

// within reports whether key p is key root or lies below it.
func within(p, root string) bool {
	return p == root || strings.HasPrefix(p, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator))
}

// check verifies the structural invariants: every path is the join of its
// parent's path and its name, siblings are unique and ordered, and the
// index holds exactly the linked nodes.
func (t *tree) check() error {
	seen := 0
	for _, r := range t.roots {
		if r.parent != nil {
			return fmt.Errorf("root %s has a parent", r.path)
		}
		var err error
		walk(r, func(n *node) {
			if err != nil {
				return
			}
			seen++
			if t.index[t.key(n.path)] != n {
				err = fmt.Errorf("%s is not indexed", n.path)
				return
			}
			names := make(map[string]bool, len(n.children))
			for i, c := range n.children {
				if c.parent != n {
					err = fmt.Errorf("%s has the wrong parent", c.path)
					return
				}
				if c.path != filepath.Join(n.path, c.name) {
					err = fmt.Errorf("%s is not under %s", c.path, n.path)
					return
				}
				k := t.key(c.name)
				if names[k] {
					err = fmt.Errorf("duplicate sibling %s", c.path)
					return
				}
				names[k] = true
				if i > 0 && t.less(c, n.children[i-1]) {
					err = fmt.Errorf("%s is out of order", c.path)
					return
				}
			}
		})
		if err != nil {
			return err
		}
	}
	if seen != len(t.index) {
		return fmt.Errorf("index holds %d entries, tree links %d", len(t.index), seen)
	}
	return nil
}
