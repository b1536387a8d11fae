// Package safety confines file access to a configured root directory.
//
// It guards two callers: the course document loader (reads under the docs
// root) and the file-backed session store (reads and writes under the
// sessions root, where file names derive from caller-supplied session ids).
package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathError is a machine-readable policy violation.
type PathError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string.
func (e PathError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

const (
	CodeOutsideRoot = "ERR_PATH_OUTSIDE_ROOT"
	CodeDeniedRead  = "ERR_DENIED_READ"
	CodeDeniedWrite = "ERR_DENIED_WRITE"
	CodeNotAFile    = "ERR_NOT_A_FILE"
)

// InitRoot resolves dir to an absolute, symlink-free path. An empty dir means the CWD.
func InitRoot(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs(%s): %w", dir, err)
	}
	// EvalSymlinks fails for roots that don't exist yet; keep the absolute form then.
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return abs, nil
}

// ValidateRelPath resolves relPath against absRoot and returns an absolute path
// inside the root. It rejects absolute inputs, parent traversal and symlink
// escapes, and denies reads under .git/ and .agent/.
func ValidateRelPath(absRoot, relPath string) (string, error) {
	candidate, rel, err := resolve(absRoot, relPath)
	if err != nil {
		return "", err
	}
	if underDir(rel, ".git") || underDir(rel, ".agent") {
		return "", PathError{Code: CodeDeniedRead, Message: "reads under .git/ or .agent/ are not allowed"}
	}
	return candidate, nil
}

// ValidateWritePath is ValidateRelPath for writes: the same boundary checks,
// plus a denylist for VCS metadata and the root itself.
func ValidateWritePath(absRoot, relPath string) (string, error) {
	candidate, rel, err := resolve(absRoot, relPath)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", PathError{Code: CodeDeniedWrite, Message: "cannot write to the root directory"}
	}
	if underDir(rel, ".git") {
		return "", PathError{Code: CodeDeniedWrite, Message: "writes under .git/ are not allowed"}
	}
	return candidate, nil
}

func resolve(absRoot, relPath string) (candidate, rel string, err error) {
	if filepath.IsAbs(relPath) {
		return "", "", PathError{Code: CodeOutsideRoot, Message: "absolute paths are not allowed"}
	}
	cleaned := filepath.Clean(relPath)
	candidate = filepath.Join(absRoot, cleaned)

	// Resolve the whole candidate if it exists, otherwise its parent, so a
	// symlinked ancestor can't smuggle the leaf outside the root.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if resolvedParent, err2 := filepath.EvalSymlinks(filepath.Dir(candidate)); err2 == nil {
		candidate = filepath.Join(resolvedParent, filepath.Base(candidate))
	}

	rel, err = filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", "", PathError{Code: CodeOutsideRoot, Message: "requested path resolves outside the root"}
	}
	return candidate, filepath.ToSlash(rel), nil
}

func underDir(rel, dir string) bool {
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}
