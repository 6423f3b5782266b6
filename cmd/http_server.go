package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal/auth"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	"github.com/frahmantamala/pos-backoffice/internal/observability"
	"github.com/frahmantamala/pos-backoffice/internal/permission"
	"github.com/frahmantamala/pos-backoffice/internal/transport"
	"github.com/frahmantamala/pos-backoffice/internal/transport/rest"
	"github.com/frahmantamala/pos-backoffice/internal/user"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := bootstrapConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	app, err := newApplication(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	router := chi.NewRouter()
	setupRoutes(router, app)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	app.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		app.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			app.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			app.Logger.Error("Server failed to start", "error", err)
			return
		}
	}

	app.Logger.Info("Server stopped")
}

func setupRoutes(router *chi.Mux, app *application) {
	base := transport.NewBaseHandler(app.Logger)

	deps := rest.Dependencies{
		Health:            rest.NewHealthHandler(base, rest.PingerFunc(app.DB.PingContext), app.Cache),
		UserHandler:       user.NewHandler(base, app.Users),
		MenuHandler:       menu.NewHandler(base, app.Menus),
		PermissionHandler: permission.NewHandler(base, app.Permissions),
		TokenValidator:    auth.NewJWTTokenValidator(app.Config.Security.JWTSecret, app.Config.Security.TokenIssuer),
		RBAC:              auth.NewRBACAuthorization(app.Permissions, app.Logger),
		RequestTimeout:    app.Config.Server.RequestTimeout,
		Logger:            app.Logger,
	}
	if app.Config.Observability.Metrics.Enabled {
		deps.Metrics = app.Metrics
		deps.MetricsHandler = observability.Handler(app.Registry)
		deps.MetricsPath = app.Config.Observability.Metrics.Path
	}

	rest.RegisterAllRoutes(router, deps)
}
