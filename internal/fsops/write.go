package fsops

import (
	"os"
	"path/filepath"

	"github.com/petasbytes/pr-agent/internal/safety"
)

// WriteFile writes content to a file addressed by a relative path under the
// write root, creating parent directories as needed.
func (r *Root) WriteFile(relPath, content string) error {
	absPath, err := safety.ValidateWritePath(r.write, relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return err
	}

	return os.WriteFile(absPath, []byte(content), 0o644)
}
