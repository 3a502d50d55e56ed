package services_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"knowhow-editor/pkg/models"
	"knowhow-editor/pkg/services"

	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	mu      sync.Mutex
	paths   []string
	outcome models.SyncOutcome
	err     string
}

func (f *fakeSyncer) Sync(ctx context.Context, repoRelPath string) models.SyncEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, repoRelPath)
	outcome := f.outcome
	if outcome == "" {
		outcome = models.SyncPushed
	}
	return models.SyncEvent{Path: repoRelPath, Message: "Update " + filepath.Base(repoRelPath), Outcome: outcome, Error: f.err}
}

func newStore(t *testing.T, syncer services.Syncer) (string, *services.FileStore) {
	t.Helper()
	r := require.New(t)

	repo := t.TempDir()
	content := filepath.Join(repo, "content")
	r.NoError(os.MkdirAll(content, 0755))

	guard, err := services.NewPathGuard(content)
	r.NoError(err)
	store, err := services.NewFileStore(guard, repo, syncer, time.Second)
	r.NoError(err)
	return content, store
}

func TestWriteThenRead(t *testing.T) {
	r := require.New(t)
	syncer := &fakeSyncer{}
	content, store := newStore(t, syncer)

	ev, err := store.Write(context.Background(), "docs/intro.md", "# Intro")
	r.NoError(err)
	r.Equal(models.SyncPushed, ev.Outcome)
	r.Equal([]string{"content/docs/intro.md"}, syncer.paths)

	data, err := os.ReadFile(filepath.Join(content, "docs", "intro.md"))
	r.NoError(err)
	r.Equal("# Intro", string(data))

	file, err := store.Read(context.Background(), "docs/intro.md")
	r.NoError(err)
	r.Equal(&models.ContentFile{Path: "docs/intro.md", Content: "# Intro"}, file)
}

func TestWriteRejectedPathsNeverSync(t *testing.T) {
	r := require.New(t)
	syncer := &fakeSyncer{}
	_, store := newStore(t, syncer)

	_, err := store.Write(context.Background(), "../escape.md", "x")
	r.ErrorIs(err, services.ErrAccessDenied)

	_, err = store.Write(context.Background(), "script.sh", "x")
	r.ErrorIs(err, services.ErrUnsupportedType)

	r.Empty(syncer.paths)
}

func TestWriteReportsSyncFailure(t *testing.T) {
	r := require.New(t)
	syncer := &fakeSyncer{outcome: models.SyncFailed, err: "push: rejected"}
	content, store := newStore(t, syncer)

	ev, err := store.Write(context.Background(), "page.md", "body")
	r.ErrorIs(err, services.ErrSyncFailed)
	r.ErrorContains(err, "push: rejected")
	r.NotNil(ev)
	r.Equal(models.SyncFailed, ev.Outcome)

	// the file itself is kept
	data, err := os.ReadFile(filepath.Join(content, "page.md"))
	r.NoError(err)
	r.Equal("body", string(data))
}

func TestWriteSkipOutcomesAreSuccess(t *testing.T) {
	r := require.New(t)
	for _, outcome := range []models.SyncOutcome{models.SyncSkippedNoChanges, models.SyncSkippedNoRemote} {
		_, store := newStore(t, &fakeSyncer{outcome: outcome})
		ev, err := store.Write(context.Background(), "page.md", "body")
		r.NoError(err)
		r.Equal(outcome, ev.Outcome)
	}
}

func TestWriteWithoutSyncer(t *testing.T) {
	r := require.New(t)
	_, store := newStore(t, nil)

	ev, err := store.Write(context.Background(), "page.md", "body")
	r.NoError(err)
	r.Nil(ev)
}

func TestWriteOutsideRepository(t *testing.T) {
	r := require.New(t)

	guard, err := services.NewPathGuard(t.TempDir())
	r.NoError(err)
	syncer := &fakeSyncer{}
	store, err := services.NewFileStore(guard, t.TempDir(), syncer, 0)
	r.NoError(err)

	_, err = store.Write(context.Background(), "page.md", "body")
	r.ErrorIs(err, services.ErrSyncFailed)
	r.Empty(syncer.paths)
}

func TestReadErrors(t *testing.T) {
	r := require.New(t)
	content, store := newStore(t, nil)
	r.NoError(os.MkdirAll(filepath.Join(content, "folder.md"), 0755))

	_, err := store.Read(context.Background(), "missing.md")
	r.ErrorIs(err, services.ErrNotFound)

	_, err = store.Read(context.Background(), "folder.md")
	r.ErrorIs(err, services.ErrIO)

	_, err = store.Read(context.Background(), "../../etc/passwd")
	r.ErrorIs(err, services.ErrAccessDenied)
}

func TestReadFrontMatter(t *testing.T) {
	r := require.New(t)
	content, store := newStore(t, nil)
	body := "---\ntitle: Intro\ntags:\n  - a\n  - b\n---\n# Intro\n"
	r.NoError(os.WriteFile(filepath.Join(content, "intro.md"), []byte(body), 0644))

	file, err := store.Read(context.Background(), "intro.md")
	r.NoError(err)
	r.Equal(body, file.Content)
	r.Equal("Intro", file.FrontMatter["title"])
	r.Equal([]interface{}{"a", "b"}, file.FrontMatter["tags"])
}

func TestWriteThroughSymlinkSyncsTarget(t *testing.T) {
	r := require.New(t)
	syncer := &fakeSyncer{}
	content, store := newStore(t, syncer)

	r.NoError(os.MkdirAll(filepath.Join(content, "docs"), 0755))
	r.NoError(os.WriteFile(filepath.Join(content, "docs", "intro.md"), []byte("v1"), 0644))
	if err := os.Symlink(filepath.Join("docs", "intro.md"), filepath.Join(content, "linked.md")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := store.Write(context.Background(), "linked.md", "v2")
	r.NoError(err)
	r.Equal([]string{"content/docs/intro.md"}, syncer.paths)

	data, err := os.ReadFile(filepath.Join(content, "docs", "intro.md"))
	r.NoError(err)
	r.Equal("v2", string(data))
}
