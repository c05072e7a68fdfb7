package config

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/steveyegge/notedir/internal/fsys"
)

// Revision hashes the given config files in a stable order. Unreadable
// files are skipped. Two loads with the same revision saw the same
// configuration.
func Revision(fs fsys.FS, paths ...string) string {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	h := sha256.New()
	for _, path := range sorted {
		data, err := fs.ReadFile(path)
		if err != nil {
			continue
		}
		h.Write([]byte(path)) //nolint:errcheck // hash.Write never errors
		h.Write([]byte{0})    //nolint:errcheck // hash.Write never errors
		h.Write(data)         //nolint:errcheck // hash.Write never errors
		h.Write([]byte{0})    //nolint:errcheck // hash.Write never errors
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
