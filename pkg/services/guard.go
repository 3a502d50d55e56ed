package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const markdownExt = ".md"

// PathGuard confines caller supplied paths to the content root.
type PathGuard struct {
	root string
}

func NewPathGuard(root string) (*PathGuard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content root: %w", err)
	}
	return &PathGuard{root: filepath.Clean(abs)}, nil
}

func (g *PathGuard) Root() string {
	return g.root
}

// Resolve maps a content relative path to an absolute path inside the root.
// Anything that does not stay strictly below the root is AccessDenied and
// anything that is not a markdown file is UnsupportedType.
func (g *PathGuard) Resolve(relativePath string) (string, error) {
	if strings.TrimSpace(relativePath) == "" || strings.ContainsRune(relativePath, 0) {
		return "", pathErr("resolve", relativePath, ErrInvalidRequest, nil)
	}

	// Join cleans the result, so ".." segments are applied before the check.
	full := filepath.Join(g.root, filepath.FromSlash(relativePath))
	if !within(g.root, full) {
		return "", pathErr("resolve", relativePath, ErrAccessDenied, nil)
	}

	if err := g.checkSymlinks(full); err != nil {
		return "", pathErr("resolve", relativePath, ErrAccessDenied, err)
	}

	if !isMarkdown(full) {
		return "", pathErr("resolve", relativePath, ErrUnsupportedType, nil)
	}
	return full, nil
}

// Rel returns the forward slash path of abs relative to the root.
func (g *PathGuard) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(g.root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// checkSymlinks evaluates the deepest existing ancestor of full (full itself
// included) and makes sure it still lies below the evaluated root.
func (g *PathGuard) checkSymlinks(full string) error {
	root, err := filepath.EvalSymlinks(g.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	existing := full
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing || !within(g.root, parent) {
			return nil
		}
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return err
	}
	if resolved != root && !within(root, resolved) {
		return fmt.Errorf("%s resolves outside the content root", existing)
	}
	return nil
}

// within reports whether target is strictly below root, comparing whole
// path components so that /content never contains /content-other.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

func isMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), markdownExt)
}
