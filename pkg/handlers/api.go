package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"knowhow-editor/pkg/models"
	"knowhow-editor/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type TreeBuilder interface {
	Build(ctx context.Context) (*models.TreeNode, error)
}

type FileStore interface {
	Read(ctx context.Context, relativePath string) (*models.ContentFile, error)
	Write(ctx context.Context, relativePath, content string) (*models.SyncEvent, error)
}

type Renderer interface {
	Render(content string) (string, error)
}

type Observer interface {
	ObserveTreeBuild(d time.Duration)
	IncCounter()
}

func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello from KnowHowPagesEditor server!"})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func GetTree(builder TreeBuilder, obs Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		tree, err := builder.Build(c.Request.Context())
		if obs != nil {
			obs.ObserveTreeBuild(time.Since(start))
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to build content tree")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build content tree"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tree": tree})
	}
}

func GetFile(store FileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetPath := c.Query("path")
		if targetPath == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'path' is required"})
			return
		}

		file, err := store.Read(c.Request.Context(), targetPath)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, file)
	}
}

type saveRequest struct {
	Path    string  `json:"path" binding:"required"`
	Content *string `json:"content" binding:"required"`
}

func SaveFile(store FileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req saveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: 'path' and 'content' are required"})
			return
		}

		ev, err := store.Write(c.Request.Context(), req.Path, *req.Content)
		if err != nil {
			if ev != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "File saved but git sync failed: " + ev.Error,
					"path":    req.Path,
					"outcome": ev.Outcome,
				})
				return
			}
			respondError(c, err)
			return
		}

		resp := gin.H{
			"success": true,
			"path":    req.Path,
			"message": saveMessage(ev),
		}
		if ev != nil {
			resp["outcome"] = ev.Outcome
		}
		c.JSON(http.StatusOK, resp)
	}
}

func saveMessage(ev *models.SyncEvent) string {
	if ev == nil {
		return "File saved"
	}
	switch ev.Outcome {
	case models.SyncPushed:
		return "File saved, committed and pushed"
	case models.SyncSkippedNoRemote:
		return "File saved and committed locally (no remote configured)"
	case models.SyncSkippedNoChanges:
		return "File saved (no changes to commit)"
	}
	return "File saved"
}

func Preview(r Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		html, err := r.Render(req.Content)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render preview"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"html": html})
	}
}

// Counter is a process scoped counter behind the demo endpoint.
type Counter struct {
	n   atomic.Int64
	obs Observer
}

func NewCounter(obs Observer) *Counter {
	return &Counter{obs: obs}
}

func (ct *Counter) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": ct.n.Load()})
}

func (ct *Counter) Increment(c *gin.Context) {
	n := ct.n.Add(1)
	if ct.obs != nil {
		ct.obs.IncCounter()
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.RequestURI()).Msg("request failed")
	}
	body := gin.H{"error": err.Error()}
	if code := errorCode(err); code != "" {
		body["code"] = code
	}
	c.JSON(status, body)
}

// statusFor keeps guard and read failures on 500; only malformed input is a
// client error. The failure kind travels in the "code" field instead.
func statusFor(err error) int {
	if errors.Is(err, services.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, services.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, services.ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, services.ErrNotFound):
		return "not_found"
	case errors.Is(err, services.ErrSyncFailed):
		return "sync_failed"
	case errors.Is(err, services.ErrIO):
		return "io"
	}
	return ""
}
