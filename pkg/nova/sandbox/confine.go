// Package sandbox – confine.go implements the project-root path guard.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jholhewres/nova/pkg/nova/outcome"
)

// Root is the fixed directory that bounds every file operation. It is
// canonicalized once and never mutated.
type Root struct {
	path string
}

// NewRoot canonicalizes dir (absolute, cleaned, symlinks resolved) and
// returns it as a Root. dir must exist and be a directory.
func NewRoot(dir string) (*Root, error) {
	if dir == "" {
		return nil, fmt.Errorf("project root is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %q is not a directory", dir)
	}
	return &Root{path: filepath.Clean(resolved)}, nil
}

// Path returns the canonical absolute root.
func (r *Root) Path() string { return r.path }

// Resolve confines rel to the root. See Confine.
func (r *Root) Resolve(rel string) (string, error) {
	return confine(r.path, rel)
}

// Confine resolves rel against root and returns the canonical absolute
// path, or a PathEscape error if the result is not root itself or nested
// under it. Absolute rel values are taken as-is and must still land inside
// root. Symlinks in the existing part of the path are followed, so a link
// pointing outside the tree is rejected too.
func Confine(root, rel string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return confine(filepath.Clean(abs), rel)
}

func confine(root, rel string) (string, error) {
	var candidate string
	if filepath.IsAbs(rel) {
		candidate = filepath.Clean(rel)
	} else {
		candidate = filepath.Join(root, rel)
	}

	if !within(root, candidate) {
		return "", outcome.Errorf(outcome.PathEscape, "File path must be within project directory: %s", rel)
	}

	resolved, err := resolveExisting(candidate)
	if err != nil {
		return "", outcome.Wrap(outcome.ExecutionError, err, "resolving %s", rel)
	}
	if !within(root, resolved) {
		return "", outcome.Errorf(outcome.PathEscape, "File path must be within project directory: %s", rel)
	}
	return resolved, nil
}

// within reports whether candidate equals root or is nested under it.
func within(root, candidate string) bool {
	relPath, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if relPath == "." {
		return true
	}
	return relPath != ".." && !strings.HasPrefix(relPath, ".."+string(filepath.Separator)) && !filepath.IsAbs(relPath)
}

// maxLinkHops bounds how many dangling links resolveExisting follows.
const maxLinkHops = 40

// resolveExisting follows symlinks on the longest existing prefix of p and
// re-appends the not-yet-existing remainder. A dangling link is replaced by
// its target so the caller checks where a write would actually land.
func resolveExisting(p string) (string, error) {
	var tail []string
	cur := p
	for hops := 0; ; {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return joinTail(resolved, tail), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		if info, lerr := os.Lstat(cur); lerr == nil && info.Mode()&fs.ModeSymlink != 0 {
			hops++
			if hops > maxLinkHops {
				return "", fmt.Errorf("too many levels of symbolic links: %s", p)
			}
			target, err := os.Readlink(cur)
			if err != nil {
				return "", err
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(cur), target)
			}
			cur = filepath.Clean(target)
			continue
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return joinTail(cur, tail), nil
		}
		tail = append(tail, filepath.Base(cur))
		cur = parent
	}
}

func joinTail(base string, tail []string) string {
	for i := len(tail) - 1; i >= 0; i-- {
		base = filepath.Join(base, tail[i])
	}
	return base
}
