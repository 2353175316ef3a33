package routes

import (
	"log/slog"
	"time"

	"github.com/BradenHooton/prospectiva/internal/auth"
	"github.com/BradenHooton/prospectiva/internal/handlers"
	"github.com/BradenHooton/prospectiva/internal/middleware"
	"github.com/BradenHooton/prospectiva/internal/models"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	Techniques *handlers.TechniqueHandler
	AccessLogs *handlers.AccessLogHandler
	Health     *handlers.HealthHandler
}

// RouterConfig holds the ambient middleware settings
type RouterConfig struct {
	Env            string
	AllowedOrigins []string
	IPConfig       *pkghttp.IPConfig
	AuthRateLimit  middleware.RateLimitConfig
	RequestTimeout time.Duration
}

// NewRouter builds the application router with the shared middleware stack
func NewRouter(cfg RouterConfig, h Handlers, sessions auth.SessionChecker, userRepo auth.UserRepository, logger *slog.Logger) chi.Router {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.RequestInfo(cfg.IPConfig))
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Env}))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	router.Use(middleware.SecureLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	RegisterRoutes(router, h, sessions, userRepo, cfg.AuthRateLimit)
	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	sessions auth.SessionChecker,
	userRepo auth.UserRepository,
	authRateLimit middleware.RateLimitConfig,
) {
	throttled := middleware.RateLimitByIP(authRateLimit)

	// Public routes - no authentication required
	router.Get("/health", h.Health.Health)
	router.With(throttled).Post("/auth/login", h.Auth.Login)
	router.With(throttled).Post("/auth/register", h.Auth.Register)
	router.Post("/auth/password-strength", h.Auth.PasswordStrength)

	router.Get("/techniques", h.Techniques.ListTechniques)
	router.Get("/techniques/stats", h.Techniques.GetStats)
	router.Get("/techniques/{id}", h.Techniques.GetTechnique)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(sessions))

		r.Get("/auth/session", h.Auth.Session)
		r.Post("/auth/logout", h.Auth.Logout)

		r.With(auth.RequirePermission(userRepo, models.PermTechniquesCreate)).
			Post("/techniques", h.Techniques.CreateTechnique)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequirePermission(userRepo, models.PermUsersManage))
			r.Get("/users", h.Users.ListUsers)
			r.Get("/users/{id}", h.Users.GetUser)
			r.Put("/users/{id}", h.Users.UpdateUser)
			r.Delete("/users/{id}", h.Users.DeleteUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequirePermission(userRepo, models.PermAccessLogsRead))
			r.Get("/admin/access-logs", h.AccessLogs.ListAccessLogs)
			r.Get("/admin/access-logs/stats", h.AccessLogs.GetAccessLogStats)
		})
	})
}
