package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"strings"
	"sync"

	"knowhow-editor/pkg/models"

	"github.com/rs/zerolog/log"
)

// Runner executes a git subcommand inside dir and returns its trimmed
// combined output.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs the git binary found on PATH.
type ExecRunner struct {
	Binary string
}

func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	// Never block on a credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
		}
		if output != "" {
			return output, fmt.Errorf("git %s: %w: %s", args[0], err, output)
		}
		return output, fmt.Errorf("git %s: %w", args[0], err)
	}
	return output, nil
}

type GitSyncConfig struct {
	RepoPath  string
	UserName  string
	UserEmail string
	Username  string // push credential
	Token     string // push credential
	Remote    string
	ToolName  string
}

// SyncObserver is notified of every finished sync.
type SyncObserver interface {
	ObserveSync(ev models.SyncEvent)
}

// GitSync commits and pushes a single changed file. Runs are serialized:
// git does not tolerate concurrent index updates on one working tree.
type GitSync struct {
	cfg      GitSyncConfig
	runner   Runner
	observer SyncObserver
	mu       sync.Mutex
}

func NewGitSync(cfg GitSyncConfig, runner Runner, observer SyncObserver) *GitSync {
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Remote == "" {
		cfg.Remote = "origin"
	}
	return &GitSync{cfg: cfg, runner: runner, observer: observer}
}

type stepKind int

const (
	stepFatal stepKind = iota
	stepBestEffort
)

// syncStep returns a non-empty outcome to end the run early.
type syncStep struct {
	name string
	kind stepKind
	run  func(ctx context.Context, ev *models.SyncEvent) (models.SyncOutcome, error)
}

func (g *GitSync) steps() []syncStep {
	return []syncStep{
		{"verify-repo", stepFatal, g.verifyRepo},
		{"ensure-identity", stepBestEffort, g.ensureIdentity},
		{"stage", stepFatal, g.stage},
		{"check-dirty", stepFatal, g.checkDirty},
		{"commit", stepFatal, g.commit},
		{"check-remote", stepFatal, g.checkRemote},
		{"configure-auth", stepBestEffort, g.configureAuth},
		{"push", stepFatal, g.push},
	}
}

// Sync stages, commits and pushes repoRelPath. Failures are reported through
// the event's Outcome and Error.
func (g *GitSync) Sync(ctx context.Context, repoRelPath string) models.SyncEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	ev := models.SyncEvent{
		Path:    repoRelPath,
		Message: g.commitMessage(repoRelPath),
	}

	for _, step := range g.steps() {
		if err := ctx.Err(); err != nil {
			ev.Outcome = models.SyncFailed
			ev.Error = fmt.Sprintf("%s: %v", step.name, err)
			break
		}

		outcome, err := step.run(ctx, &ev)
		if err != nil {
			msg := g.scrub(err.Error())
			if step.kind == stepFatal {
				ev.Outcome = models.SyncFailed
				ev.Error = fmt.Sprintf("%s: %s", step.name, msg)
				break
			}
			log.Warn().Str("step", step.name).Str("path", repoRelPath).Str("error", msg).Msg("git sync step failed, continuing")
			continue
		}
		if outcome != "" {
			ev.Outcome = outcome
			break
		}
	}
	if ev.Outcome == "" {
		ev.Outcome = models.SyncPushed
	}

	g.report(ev)
	return ev
}

func (g *GitSync) report(ev models.SyncEvent) {
	entry := log.Info()
	if ev.Failed() {
		entry = log.Error().Str("error", ev.Error)
	}
	entry.Str("path", ev.Path).Str("outcome", string(ev.Outcome)).Str("commit_message", ev.Message).Msg("git sync finished")

	if g.observer != nil {
		g.observer.ObserveSync(ev)
	}
}

func (g *GitSync) commitMessage(repoRelPath string) string {
	return fmt.Sprintf("Update %s via %s", path.Base(repoRelPath), g.cfg.ToolName)
}

func (g *GitSync) git(ctx context.Context, args ...string) (string, error) {
	log.Debug().Strs("args", g.scrubArgs(args)).Msg("running git")
	return g.runner.Run(ctx, g.cfg.RepoPath, args...)
}

func (g *GitSync) verifyRepo(ctx context.Context, _ *models.SyncEvent) (models.SyncOutcome, error) {
	out, err := g.git(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return "", err
	}
	if out != "true" {
		return "", fmt.Errorf("%s is not a git working tree", g.cfg.RepoPath)
	}
	return "", nil
}

func (g *GitSync) ensureIdentity(ctx context.Context, _ *models.SyncEvent) (models.SyncOutcome, error) {
	var errs []error
	for _, kv := range [][2]string{
		{"user.name", g.cfg.UserName},
		{"user.email", g.cfg.UserEmail},
	} {
		// git config exits 1 for unset keys
		if current, err := g.git(ctx, "config", kv[0]); err == nil && current != "" {
			continue
		}
		if kv[1] == "" {
			errs = append(errs, fmt.Errorf("%s is unset and no default is configured", kv[0]))
			continue
		}
		if _, err := g.git(ctx, "config", kv[0], kv[1]); err != nil {
			errs = append(errs, err)
		}
	}
	return "", errors.Join(errs...)
}

func (g *GitSync) stage(ctx context.Context, ev *models.SyncEvent) (models.SyncOutcome, error) {
	_, err := g.git(ctx, "add", "--", ev.Path)
	return "", err
}

func (g *GitSync) checkDirty(ctx context.Context, ev *models.SyncEvent) (models.SyncOutcome, error) {
	out, err := g.git(ctx, "diff", "--cached", "--name-only", "--", ev.Path)
	if err != nil {
		return "", err
	}
	if out == "" {
		return models.SyncSkippedNoChanges, nil
	}
	return "", nil
}

func (g *GitSync) commit(ctx context.Context, ev *models.SyncEvent) (models.SyncOutcome, error) {
	_, err := g.git(ctx, "commit", "-m", ev.Message, "--", ev.Path)
	return "", err
}

func (g *GitSync) checkRemote(ctx context.Context, _ *models.SyncEvent) (models.SyncOutcome, error) {
	out, err := g.git(ctx, "remote")
	if err != nil {
		return "", err
	}
	for _, name := range strings.Fields(out) {
		if name == g.cfg.Remote {
			return "", nil
		}
	}
	return models.SyncSkippedNoRemote, nil
}

func (g *GitSync) configureAuth(ctx context.Context, _ *models.SyncEvent) (models.SyncOutcome, error) {
	if g.cfg.Username == "" || g.cfg.Token == "" {
		return "", nil
	}
	remoteUrl, err := g.git(ctx, "remote", "get-url", "--push", g.cfg.Remote)
	if err != nil {
		return "", err
	}
	authenticatedUrl, ok := authenticatedGithubURL(remoteUrl, g.cfg.Username, g.cfg.Token)
	if !ok {
		return "", nil
	}
	_, err = g.git(ctx, "remote", "set-url", "--push", g.cfg.Remote, authenticatedUrl)
	return "", err
}

func (g *GitSync) push(ctx context.Context, _ *models.SyncEvent) (models.SyncOutcome, error) {
	_, err := g.git(ctx, "push", g.cfg.Remote, "HEAD")
	return "", err
}

// authenticatedGithubURL embeds the credential into an https GitHub URL that
// carries none yet.
func authenticatedGithubURL(remoteUrl, username, token string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(remoteUrl))
	if err != nil {
		return "", false
	}
	if u.Scheme != "https" || u.User != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return "", false
	}
	u.User = url.UserPassword(username, token)
	return u.String(), true
}

func (g *GitSync) scrub(s string) string {
	if g.cfg.Token == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(g.cfg.Token), "***")
	return strings.ReplaceAll(s, g.cfg.Token, "***")
}

func (g *GitSync) scrubArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = g.scrub(a)
	}
	return out
}
