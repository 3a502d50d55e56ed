package handlers

import (
	"net/http"
	"os"

	"knowhow-editor/pkg/config"
	"knowhow-editor/pkg/monitoring"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Tree    TreeBuilder
	Files   FileStore
	Preview Renderer
	Metrics *monitoring.Metrics
	Counter *Counter
}

// NewRouter registers every route and wraps the engine with a permissive
// CORS handler that reflects the request origin.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	secret := cfg.SessionSecret
	if secret == "" {
		// Sessions do not survive a restart without a configured secret.
		secret = uuid.NewString()
		log.Warn().Msg("SESSION_SECRET not set, using a random session key")
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("knowhow-editor", store))

	r.GET("/", Hello)
	r.GET("/healthz", Health)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	if cfg.UIPath != "" {
		if info, err := os.Stat(cfg.UIPath); err == nil && info.IsDir() {
			r.Static(config.UIPrefix, cfg.UIPath)
		} else {
			log.Warn().Str("ui_path", cfg.UIPath).Msg("UI path is not a directory, not serving UI")
		}
	}

	api := r.Group(config.APIPrefix)
	api.POST("/login", Login(cfg.AuthToken))
	api.POST("/logout", Logout)

	authorized := api.Group("/")
	authorized.Use(AuthRequired(cfg.AuthToken))
	{
		authorized.GET("/tree", GetTree(deps.Tree, deps.Metrics))
		authorized.GET("/file", GetFile(deps.Files))
		authorized.PUT("/file", SaveFile(deps.Files))
		authorized.POST("/preview", Preview(deps.Preview))
		authorized.GET("/counter", deps.Counter.Get)
		authorized.POST("/counter", deps.Counter.Increment)
	}

	return cors.New(cors.Options{
		AllowOriginFunc:  func(string) bool { return true },
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(r)
}
