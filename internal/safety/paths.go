// Package safety provides path policy checks for sandboxed file access.
package safety

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ToolError is a machine-readable policy violation surfaced back to the model.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error keeps the code up front so tool_result payloads stay greppable.
func (e ToolError) Error() string {
	return e.Code + ": " + e.Message
}

// restrictedListPaths may never be listed: VCS internals and dependency trees
// would flood the model context.
var restrictedListPaths = map[string]struct{}{
	".git":         {},
	"node_modules": {},
}

// CheckListPath rejects listing requests for restricted top-level paths.
// Surrounding whitespace and a trailing slash are ignored.
func CheckListPath(p string) error {
	target := strings.TrimSpace(p)
	if target == "" {
		return nil
	}
	cleaned := path.Clean(filepath.ToSlash(target))
	if _, denied := restrictedListPaths[cleaned]; denied {
		return ToolError{Code: "ERR_DENIED_LIST", Message: fmt.Sprintf("You cannot read the path: %s", target)}
	}
	return nil
}

// InitSandboxRoot resolves absolute sandbox roots for read and write operations.
func InitSandboxRoot(readRoot, writeRoot string) (absRead string, absWrite string, err error) {
	if readRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("getwd: %w", err)
		}
		readRoot = cwd
	}

	if writeRoot == "" {
		writeRoot = readRoot
	}

	readRoot, err = filepath.Abs(readRoot)
	if err != nil {
		return "", "", fmt.Errorf("abs(readRoot): %w", err)
	}
	writeRoot, err = filepath.Abs(writeRoot)
	if err != nil {
		return "", "", fmt.Errorf("abs(writeRoot): %w", err)
	}

	// Resolve symlinks where possible so boundary checks are reliable.
	if r, err := filepath.EvalSymlinks(readRoot); err == nil {
		readRoot = r
	}
	if w, err := filepath.EvalSymlinks(writeRoot); err == nil {
		writeRoot = w
	}

	return readRoot, writeRoot, nil
}

// ValidateRelPath resolves relPath against absRoot and returns an absolute path
// inside the sandbox. It rejects absolute inputs, parent traversal, symlink
// escapes and reads under .git/.
func ValidateRelPath(absRoot, relPath string) (string, error) {
	rel, candidate, err := resolve(absRoot, relPath)
	if err != nil {
		return "", err
	}
	if underGit(rel) {
		return "", ToolError{Code: "ERR_DENIED_READ", Message: "reads under .git/ are not allowed"}
	}
	return candidate, nil
}

// ValidateWritePath is ValidateRelPath for writes. The sandbox root itself is
// never a valid write target.
func ValidateWritePath(absRoot, relPath string) (string, error) {
	rel, candidate, err := resolve(absRoot, relPath)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", ToolError{Code: "ERR_NOT_A_FILE", Message: "path is the sandbox root"}
	}
	if underGit(rel) {
		return "", ToolError{Code: "ERR_DENIED_WRITE", Message: "writes under .git/ are not allowed"}
	}
	return candidate, nil
}

func resolve(absRoot, relPath string) (rel string, candidate string, err error) {
	if filepath.IsAbs(relPath) {
		return "", "", ToolError{Code: "ERR_PATH_OUTSIDE_SANDBOX", Message: "absolute paths are not allowed"}
	}

	cleaned := filepath.Clean(relPath)
	if cleaned == "" {
		cleaned = "."
	}
	candidate = filepath.Join(absRoot, cleaned)

	// Resolve the whole candidate if it exists, otherwise its parent, so a
	// symlinked parent directory cannot smuggle a new file outside the root.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else {
		parent := filepath.Dir(candidate)
		if resolvedParent, err2 := filepath.EvalSymlinks(parent); err2 == nil {
			candidate = filepath.Join(resolvedParent, filepath.Base(candidate))
		}
	}

	rel, err = filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", "", ToolError{Code: "ERR_PATH_OUTSIDE_SANDBOX", Message: "requested path resolves outside the sandbox root"}
	}
	return rel, candidate, nil
}

func underGit(rel string) bool {
	r := filepath.ToSlash(rel)
	return r == ".git" || strings.HasPrefix(r, ".git/")
}
