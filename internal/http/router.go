package http

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/moleboard/moleboard/internal/blob"
	"github.com/moleboard/moleboard/internal/config"
	"github.com/moleboard/moleboard/internal/domain/user"
	"github.com/moleboard/moleboard/internal/http/handlers"
	"github.com/moleboard/moleboard/internal/http/middlewares"
	"github.com/moleboard/moleboard/internal/ingest"
	"github.com/moleboard/moleboard/internal/notifications"
	"github.com/moleboard/moleboard/internal/observability"
	"github.com/moleboard/moleboard/internal/profile"
	"github.com/moleboard/moleboard/internal/repo/memory"
	"github.com/moleboard/moleboard/internal/session"
)

// Deps is everything the router wires into handlers. main constructs the
// real set; tests swap in what they need.
type Deps struct {
	Users    *memory.UsersRepo
	Images   *memory.ImagesRepo
	Sessions *session.Manager
	Pipeline *ingest.Pipeline
	Blobs    blob.Store
	Prom     *observability.Prom
	Notifier notifications.Notifier
	Ping     func() error
}

func NewRouter(log *slog.Logger, cfg config.Config, d Deps) *gin.Engine {
	cfgEnv := os.Getenv("APP_ENV")

	if cfgEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	}

	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("moleboard"))
	}

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(d.Sessions, d.Prom, cfg.Env, cfg.SessionTTL())
	patientHandler := handlers.NewPatientHandler(d.Images, d.Pipeline, d.Notifier, log)
	doctorHandler := handlers.NewDoctorHandler(d.Images)
	adminHandler := handlers.NewAdminHandler(d.Users)
	profileHandler := handlers.NewProfileHandler(profileEditorFor(d))
	filesHandler := handlers.NewFilesHandler(d.Blobs, d.Images)

	authMw := middlewares.NewAuthMiddleware(d.Sessions)

	loginLimiter := middlewares.NewRateLimiter(
		cfg.LoginRateLimit,
		time.Duration(cfg.LoginRateWindowSeconds)*time.Second,
	)

	// auth
	r.POST("/auth/login",
		middlewares.RequireJSON(),
		loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		authHandler.Login,
	)
	r.POST("/auth/logout", authMw.RequireSession(), authHandler.Logout)
	r.GET("/auth/me", authMw.RequireSession(), authHandler.Me)

	// patient dashboard
	patient := r.Group("/patient", authMw.RequireSession(), authMw.RequireRole(user.RolePatient))
	patient.GET("/images", patientHandler.ListImages)
	patient.POST("/images", middlewares.MaxBodyBytes(cfg.MaxUploadBytes), patientHandler.Upload)

	// doctor dashboard
	doctor := r.Group("/doctor", authMw.RequireSession(), authMw.RequireRole(user.RoleDoctor))
	doctor.GET("/review", doctorHandler.ReviewList)

	// admin dashboard
	admin := r.Group("/admin", authMw.RequireSession(), authMw.RequireRole(user.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", middlewares.RequireJSON(), adminHandler.CreateUser)

	// settings
	r.PUT("/profile", authMw.RequireSession(), middlewares.RequireJSON(), profileHandler.Save)

	// uploaded bytes, any authenticated role
	r.GET("/files/:key", authMw.RequireSession(), filesHandler.Get)

	return r
}

func profileEditorFor(d Deps) *profile.Editor {
	return profile.NewEditor(d.Users, d.Sessions)
}
