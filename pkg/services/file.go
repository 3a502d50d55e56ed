package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"knowhow-editor/pkg/models"

	"github.com/rs/zerolog/log"
)

// Syncer publishes a written file to the repository.
type Syncer interface {
	Sync(ctx context.Context, repoRelPath string) models.SyncEvent
}

// FileStore reads and writes markdown files below the content root.
type FileStore struct {
	guard       *PathGuard
	repoRoot    string
	syncer      Syncer
	syncTimeout time.Duration
}

func NewFileStore(guard *PathGuard, repoRoot string, syncer Syncer, syncTimeout time.Duration) (*FileStore, error) {
	abs, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}
	return &FileStore{
		guard:       guard,
		repoRoot:    filepath.Clean(abs),
		syncer:      syncer,
		syncTimeout: syncTimeout,
	}, nil
}

func (s *FileStore) Read(ctx context.Context, relativePath string) (*models.ContentFile, error) {
	fullPath, err := s.guard.Resolve(relativePath)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pathErr("read", relativePath, ErrNotFound, err)
		}
		return nil, pathErr("read", relativePath, ErrIO, err)
	}

	file := &models.ContentFile{
		Path:    relativePath,
		Content: string(content),
	}
	if fm, _, err := ParseFrontMatter(content); err == nil {
		file.FrontMatter = fm
	} else {
		log.Debug().Err(err).Str("path", relativePath).Msg("ignoring unparsable front matter")
	}
	return file, nil
}

// Write persists content and then syncs it. When the sync fails the file
// stays written and the event is returned together with ErrSyncFailed.
func (s *FileStore) Write(ctx context.Context, relativePath, content string) (*models.SyncEvent, error) {
	fullPath, err := s.guard.Resolve(relativePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, pathErr("write", relativePath, ErrIO, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return nil, pathErr("write", relativePath, ErrIO, err)
	}

	if s.syncer == nil {
		return nil, nil
	}

	repoRelPath, err := s.repoPath(fullPath)
	if err != nil {
		return nil, pathErr("sync", relativePath, ErrSyncFailed, err)
	}

	if s.syncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.syncTimeout)
		defer cancel()
	}

	ev := s.syncer.Sync(ctx, repoRelPath)
	if ev.Failed() {
		return &ev, pathErr("sync", relativePath, ErrSyncFailed, errors.New(ev.Error))
	}
	return &ev, nil
}

// repoPath returns the repository relative path git has to stage for
// fullPath. A symlinked leaf is resolved to its target, since staging the
// link itself would leave the edited file uncommitted.
func (s *FileStore) repoPath(fullPath string) (string, error) {
	target, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		return "", err
	}
	root, err := filepath.EvalSymlinks(s.repoRoot)
	if err != nil {
		return "", err
	}
	if !within(root, target) {
		return "", fmt.Errorf("%s is outside the repository %s", target, s.repoRoot)
	}
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
