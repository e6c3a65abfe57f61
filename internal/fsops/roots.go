// Package fsops performs file operations confined to one sandbox directory.
package fsops

import (
	"github.com/petasbytes/pr-agent/internal/safety"
)

// Root is a pair of resolved read/write roots for a single sandbox checkout.
type Root struct {
	read  string
	write string
}

// NewRoot resolves the roots once so every later path check compares against
// the same absolute, symlink-free prefix. An empty write root mirrors read.
func NewRoot(readRoot, writeRoot string) (*Root, error) {
	r, w, err := safety.InitSandboxRoot(readRoot, writeRoot)
	if err != nil {
		return nil, err
	}
	return &Root{read: r, write: w}, nil
}

// Dir returns the absolute read root.
func (r *Root) Dir() string { return r.read }
