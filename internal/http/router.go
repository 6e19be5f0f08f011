package http

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/geocoder89/authportal/internal/config"
	"github.com/geocoder89/authportal/internal/http/handlers"
	"github.com/geocoder89/authportal/internal/http/middlewares"
	"github.com/geocoder89/authportal/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type AuthService interface {
	handlers.Authenticator
	middlewares.TokenVerifier
}

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth     AuthService
	Profiles handlers.ProfileManager
	Ping     func(ctx context.Context) error
	Prom     *observability.Prom
	Static   fs.FS
}

func NewRouter(log *slog.Logger, deps Deps, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(cfg.OTelServiceName))
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// Routes
	health := handlers.NewHealthHandler(deps.Ping)
	authHandler := handlers.NewAuthHandler(deps.Auth)
	profileHandler := handlers.NewProfileHandler(deps.Profiles)
	authMW := middlewares.NewAuthMiddleware(deps.Auth)

	api := r.Group("/api")
	api.Use(middlewares.RequireJSON())
	{
		api.GET("/health", health.Health)
		api.GET("/ready", health.Ready)

		api.POST("/auth/signup", authHandler.SignUp)
		api.POST("/auth/signin", authHandler.SignIn)
		api.GET("/auth/verify", authMW.RequireAuth(), authHandler.Verify)

		protected := api.Group("/profile", authMW.RequireAuth())
		protected.GET("", profileHandler.Get)
		protected.PUT("", profileHandler.Update)
	}

	if deps.Prom != nil {
		r.GET("/metrics", deps.Prom.Handler())
	}

	// the browser shell and unmatched /api paths
	r.NoRoute(handlers.NewStaticHandler(deps.Static).Fallback)

	return r
}
