package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/pos-backoffice/internal/auth"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	"github.com/frahmantamala/pos-backoffice/internal/observability"
	"github.com/frahmantamala/pos-backoffice/internal/permission"
	"github.com/frahmantamala/pos-backoffice/internal/transport/middleware"
	"github.com/frahmantamala/pos-backoffice/internal/user"
)

// Menu codes guarding the administrative API.
const (
	MenuSystemPermission = "SYSTEM_PERMISSION"
	MenuSystemMenu       = "SYSTEM_MENU"
)

type Dependencies struct {
	Health            *HealthHandler
	UserHandler       *user.Handler
	MenuHandler       *menu.Handler
	PermissionHandler *permission.Handler
	TokenValidator    auth.TokenValidator
	RBAC              *auth.RBACAuthorization
	Metrics           *observability.Metrics
	MetricsHandler    http.Handler
	MetricsPath       string
	RequestTimeout    time.Duration
	Logger            *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}
	if deps.RequestTimeout > 0 {
		router.Use(chiMiddleware.Timeout(deps.RequestTimeout))
	}

	if deps.MetricsHandler != nil && deps.MetricsPath != "" {
		router.Method(http.MethodGet, deps.MetricsPath, deps.MetricsHandler)
	}

	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", deps.Health.healthCheckHandler)
		r.Get("/ping", deps.Health.pingHandler)

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(middleware.Authenticate(deps.TokenValidator, deps.Logger))

			// Current user
			pr.Route("/me", func(mr chi.Router) {
				mr.Get("/", deps.UserHandler.GetCurrentUser)
				mr.Get("/menus", deps.PermissionHandler.GetMyMenus)
				mr.Get("/permissions", deps.PermissionHandler.GetMyPermissions)
				mr.Get("/permissions/check", deps.PermissionHandler.CheckMyPermission)
			})

			pr.Route("/permissions", func(ar chi.Router) {
				ar.Use(deps.RBAC.RequireMenuPermission(MenuSystemPermission, permission.LevelAdmin))
				ar.Get("/grants", deps.PermissionHandler.ListGrants)
				ar.Post("/grants", deps.PermissionHandler.CreateGrant)
				ar.Delete("/grants", deps.PermissionHandler.RevokeGrant)
				ar.Post("/cache/refresh", deps.PermissionHandler.RefreshCache)
			})

			pr.Route("/menus", func(mr chi.Router) {
				mr.With(deps.RBAC.RequireMenuPermission(MenuSystemMenu, permission.LevelRead)).
					Get("/", deps.MenuHandler.ListMenus)
				mr.With(deps.RBAC.RequireMenuPermission(MenuSystemMenu, permission.LevelWrite)).
					Post("/", deps.MenuHandler.CreateMenu)
				mr.With(deps.RBAC.RequireMenuPermission(MenuSystemMenu, permission.LevelWrite)).
					Put("/{code}", deps.MenuHandler.UpdateMenu)
				mr.With(deps.RBAC.RequireMenuPermission(MenuSystemMenu, permission.LevelDelete)).
					Delete("/{code}", deps.MenuHandler.DeleteMenu)
			})
		})
	})
}
