package services

import (
	"cmp"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"knowhow-editor/pkg/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultTreeConcurrency = 16

// TreeBuilder walks the content root and produces the navigation tree.
type TreeBuilder struct {
	guard       *PathGuard
	concurrency int
	ignore      map[string]bool
}

func NewTreeBuilder(guard *PathGuard, concurrency int, ignore []string) *TreeBuilder {
	if concurrency < 1 {
		concurrency = defaultTreeConcurrency
	}
	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		if name = strings.TrimSpace(name); name != "" {
			skip[name] = true
		}
	}
	return &TreeBuilder{guard: guard, concurrency: concurrency, ignore: skip}
}

type treeEntry struct {
	name  string
	path  string
	isDir bool
	skip  bool
}

// Build returns the tree rooted at the content directory. Only a failure to
// read the root itself fails the build; broken subtrees are logged.
func (b *TreeBuilder) Build(ctx context.Context) (*models.TreeNode, error) {
	root := b.guard.Root()
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat content root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content root %s is not a directory", root)
	}

	node := &models.TreeNode{
		Name:     filepath.Base(root),
		Path:     "",
		Type:     models.NodeDirectory,
		Children: []*models.TreeNode{},
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read content root: %w", err)
	}
	if err := b.fill(ctx, node, root, entries); err != nil {
		return nil, err
	}
	return node, nil
}

func (b *TreeBuilder) buildDir(ctx context.Context, dir string) (*models.TreeNode, error) {
	rel, err := b.guard.Rel(dir)
	if err != nil {
		return nil, err
	}
	node := &models.TreeNode{
		Name:     filepath.Base(dir),
		Path:     rel,
		Type:     models.NodeDirectory,
		Children: []*models.TreeNode{},
	}

	// ReadDir returns the entries read before an error, keep them.
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", rel).Msg("failed to read directory, subtree truncated")
	}
	if err := b.fill(ctx, node, dir, entries); err != nil {
		return nil, err
	}
	return node, nil
}

func (b *TreeBuilder) fill(ctx context.Context, node *models.TreeNode, dir string, entries []os.DirEntry) error {
	stats, err := b.classify(ctx, dir, entries)
	if err != nil {
		return err
	}

	var dirs, files []*models.TreeNode
	for _, e := range stats {
		if e.skip {
			continue
		}
		if e.isDir {
			child, err := b.buildDir(ctx, e.path)
			if err != nil {
				return err
			}
			dirs = append(dirs, child)
			continue
		}
		if !isMarkdown(e.name) {
			continue
		}
		rel, err := b.guard.Rel(e.path)
		if err != nil {
			return err
		}
		files = append(files, &models.TreeNode{
			Name: strings.TrimSuffix(e.name, filepath.Ext(e.name)),
			Path: rel,
			Type: models.NodeFile,
		})
	}

	sortNodes(dirs)
	sortNodes(files)
	node.Children = append(node.Children, dirs...)
	node.Children = append(node.Children, files...)
	return nil
}

// classify stats every entry of dir concurrently. Results land in their own
// slot so the order never depends on goroutine timing.
func (b *TreeBuilder) classify(ctx context.Context, dir string, entries []os.DirEntry) ([]treeEntry, error) {
	out := make([]treeEntry, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = b.stat(dir, entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *TreeBuilder) stat(dir string, entry os.DirEntry) treeEntry {
	e := treeEntry{name: entry.Name(), path: filepath.Join(dir, entry.Name())}

	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(e.path)
		if err != nil {
			log.Warn().Err(err).Str("entry", e.path).Msg("failed to stat entry, skipping")
			e.skip = true
			return e
		}
		if info.IsDir() {
			log.Debug().Str("entry", e.path).Msg("not following symlinked directory")
			e.skip = true
			return e
		}
		if !info.Mode().IsRegular() {
			e.skip = true
			return e
		}
		// Same containment rule the guard applies on open.
		if err := b.guard.checkSymlinks(e.path); err != nil {
			log.Debug().Err(err).Str("entry", e.path).Msg("symlink leaves the content root, skipping")
			e.skip = true
		}
		return e
	}

	if entry.IsDir() {
		e.isDir = true
		e.skip = b.ignore[e.name]
		return e
	}
	if !entry.Type().IsRegular() {
		e.skip = true
	}
	return e
}

func sortNodes(nodes []*models.TreeNode) {
	slices.SortFunc(nodes, func(a, b *models.TreeNode) int {
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
}

// Flatten lists the file nodes of tree in display order.
func Flatten(node *models.TreeNode) []*models.TreeNode {
	if node == nil {
		return nil
	}
	if !node.IsDir() {
		return []*models.TreeNode{node}
	}
	var items []*models.TreeNode
	for _, child := range node.Children {
		items = append(items, Flatten(child)...)
	}
	return items
}
