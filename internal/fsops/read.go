package fsops

import (
	"errors"
	"io/fs"
	"os"

	"github.com/petasbytes/pr-agent/internal/safety"
)

// ReadFile reads a file addressed by a relative path under the read root.
// Policy violations come back as safety.ToolError.
func (r *Root) ReadFile(relPath string) (string, error) {
	absPath, err := safety.ValidateRelPath(r.read, relPath)
	if err != nil {
		return "", err
	}

	fi, err := os.Stat(absPath)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", safety.ToolError{Code: "ERR_NOT_A_FILE", Message: "path is a directory"}
	}

	b, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Exists reports whether relPath names an existing regular file.
func (r *Root) Exists(relPath string) (bool, error) {
	absPath, err := safety.ValidateRelPath(r.read, relPath)
	if err != nil {
		return false, err
	}
	fi, err := os.Stat(absPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if fi.IsDir() {
		return false, safety.ToolError{Code: "ERR_NOT_A_FILE", Message: "path is a directory"}
	}
	return true, nil
}
