package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"knowhow-editor/pkg/config"
	"knowhow-editor/pkg/handlers"
	"knowhow-editor/pkg/monitoring"
	"knowhow-editor/pkg/services"

	"github.com/rs/zerolog/log"
)

// App holds the process scoped state of the editor server.
type App struct {
	Config  *config.Config
	Guard   *services.PathGuard
	Tree    *services.TreeBuilder
	Files   *services.FileStore
	Git     *services.GitSync
	Metrics *monitoring.Metrics
}

func NewApp(cfg *config.Config) (*App, error) {
	guard, err := services.NewPathGuard(cfg.ContentPath)
	if err != nil {
		return nil, err
	}

	metrics := monitoring.NewMetrics()
	git := services.NewGitSync(services.GitSyncConfig{
		RepoPath:  cfg.RepoPath,
		UserName:  cfg.GitUserName,
		UserEmail: cfg.GitUserEmail,
		Username:  cfg.GitUsername,
		Token:     cfg.GitToken,
		Remote:    cfg.GitRemote,
		ToolName:  cfg.ToolName,
	}, services.ExecRunner{}, metrics)

	files, err := services.NewFileStore(guard, cfg.RepoPath, git, cfg.SyncTimeout)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Guard:   guard,
		Tree:    services.NewTreeBuilder(guard, cfg.TreeConcurrency, cfg.TreeIgnore),
		Files:   files,
		Git:     git,
		Metrics: metrics,
	}, nil
}

func (a *App) Handler() http.Handler {
	return handlers.NewRouter(a.Config, handlers.Deps{
		Tree:    a.Tree,
		Files:   a.Files,
		Preview: services.NewPreviewer(),
		Metrics: a.Metrics,
		Counter: handlers.NewCounter(a.Metrics),
	})
}

// Serve blocks until ctx is cancelled, then shuts the server down.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("content", a.Guard.Root()).Str("repo", a.Config.RepoPath).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down server")
	return srv.Shutdown(shutdownCtx)
}
