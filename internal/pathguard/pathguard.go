// Package pathguard confines filesystem access to a configured set of root
// directories. Every candidate path is resolved through symlinks before the
// containment check so a link cannot escape the sandbox.
package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

type Validator struct {
	roots []string
}

// New resolves each allowed root to an absolute, symlink-free path. Roots
// that do not exist are rejected up front so a typo fails at startup rather
// than silently allowing nothing.
func New(allowedRoots []string) (*Validator, error) {
	if len(allowedRoots) == 0 {
		return nil, fmt.Errorf("no allowed roots configured")
	}
	roots := make([]string, 0, len(allowedRoots))
	for _, root := range allowedRoots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}
		roots = append(roots, resolved)
	}
	return &Validator{roots: roots}, nil
}

// Validate returns the resolved absolute path when it falls under an allowed
// root, and ErrPathNotAllowed otherwise. Nonexistent paths fail closed.
func (v *Validator) Validate(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.ErrPathNotAllowed
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.ErrPathNotAllowed
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.ErrPathNotAllowed
	}
	for _, root := range v.roots {
		if resolved == root || strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
			return resolved, nil
		}
	}
	return "", errors.ErrPathNotAllowed
}
