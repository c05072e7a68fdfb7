package fsal

import (
	"context"
	"fmt"
	"sort"

	"github.com/steveyegge/notedir/internal/telemetry"
)

// DriftKind classifies a difference between the tree and the disk.
type DriftKind string

// Drift kinds reported by [FSAL.Verify].
const (
	// MissingOnDisk: the tree holds an entity the disk no longer has.
	MissingOnDisk DriftKind = "missing-on-disk"
	// MissingInTree: the disk has an entity the tree does not.
	MissingInTree DriftKind = "missing-in-tree"
	// KindMismatch: one side has a directory where the other has a file.
	KindMismatch DriftKind = "kind-mismatch"
)

// Drift is one difference found by Verify.
type Drift struct {
	Path string
	Kind DriftKind
}

func (d Drift) String() string { return fmt.Sprintf("%s: %s", d.Kind, d.Path) }

// Verify rescans the disk and reports every path where the tree and the
// disk disagree, sorted by path. The tree is not modified. Changes made by
// other processes since Open show up here.
func (f *FSAL) Verify(ctx context.Context) ([]Drift, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	disk, err := f.scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	var drift []Drift
	for k, n := range f.tree.index {
		d, ok := disk.index[k]
		switch {
		case !ok:
			drift = append(drift, Drift{Path: n.path, Kind: MissingOnDisk})
		case d.dir != n.dir:
			drift = append(drift, Drift{Path: n.path, Kind: KindMismatch})
		}
	}
	for k, d := range disk.index {
		if _, ok := f.tree.index[k]; !ok {
			drift = append(drift, Drift{Path: d.path, Kind: MissingInTree})
		}
	}
	sort.Slice(drift, func(i, j int) bool {
		if drift[i].Path != drift[j].Path {
			return drift[i].Path < drift[j].Path
		}
		return drift[i].Kind < drift[j].Kind
	})
	return drift, nil
}

// Reload replaces the tree with a fresh scan of the disk. It records no
// event: the changes it picks up were journaled by whoever made them. On
// error the old tree is kept.
func (f *FSAL) Reload(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.scan(ctx)
	telemetry.RecordTreeLoad(ctx, len(f.opts.Roots), lenOf(t), err)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	f.tree = t
	return nil
}
