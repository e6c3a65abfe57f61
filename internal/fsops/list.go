package fsops

import (
	"os"
	"sort"

	"github.com/petasbytes/pr-agent/internal/safety"
)

// ListFiles lists non-recursive directory entries for a relative directory
// path. Directories are suffixed by "/" and the result is sorted so listings
// are stable across filesystems.
func (r *Root) ListFiles(relDir string) ([]string, error) {
	if relDir == "" {
		relDir = "."
	}
	absDir, err := safety.ValidateRelPath(r.read, relDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == ".git" {
			continue
		}
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
