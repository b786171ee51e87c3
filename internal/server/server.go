// Пакет server: HTTP-сервер консоли с graceful shutdown.
// Только HTTP; TLS терминируется перед консолью.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apihandlers "github.com/bigkaa/asset-console/internal/api/handlers"
	"github.com/bigkaa/asset-console/internal/api/middleware"
	"github.com/bigkaa/asset-console/internal/config"
	"github.com/bigkaa/asset-console/internal/domain/rbac"
	uihandlers "github.com/bigkaa/asset-console/internal/ui/handlers"
	"github.com/bigkaa/asset-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/asset-console/internal/ui/middleware"
	"github.com/bigkaa/asset-console/internal/ui/static"
)

// Components: всё, что монтирует роутер.
type Components struct {
	Health       *apihandlers.HealthHandler
	Depreciation *apihandlers.DepreciationHandler
	OpenAPI      *middleware.OpenAPIValidator // nil отключает валидацию запросов

	SessionAuth *uimiddleware.SessionAuth
	Auth        *uihandlers.AuthHandler
	Dashboard   *uihandlers.DashboardHandler
	Assets      *uihandlers.AssetsHandler
	Reports     *uihandlers.ReportsHandler
	Users       *uihandlers.UsersHandler
	Requests    *uihandlers.RequestsHandler
}

// Server: HTTP-сервер консоли.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт сервер на основе Routes.
func New(cfg *config.Config, logger *slog.Logger, c *Components) *Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           Routes(logger, c),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
		cfg:        cfg,
	}
}

// Routes возвращает полную таблицу маршрутов.
func Routes(logger *slog.Logger, c *Components) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// служебные endpoints опрашиваются напрямую и работают вне сессий
	router.Get("/health/live", c.Health.HealthLive)
	router.Get("/health/ready", c.Health.HealthReady)
	router.Get("/metrics", c.Health.GetMetrics)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	sa := c.SessionAuth
	admins := []string{rbac.RoleAdmin, rbac.RoleSuperadmin}

	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware())
		r.Use(sa.Load())

		r.Get("/", c.Auth.HandleRoot)
		r.Get("/login", c.Auth.HandleLoginPage)
		r.Post("/login", c.Auth.HandleLogin)
		r.Post("/logout", c.Auth.HandleLogout)
		r.Get("/unauthorized", c.Auth.HandleUnauthorized)
		r.Post("/set-language", uihandlers.HandleSetLanguage)
		r.With(sa.Require()).Get("/dashboard", c.Auth.HandleDashboard)
		r.With(sa.RequireAPI()).Post("/session/ping", c.Auth.HandlePing)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(sa.RequireAPI())
			if c.OpenAPI != nil {
				r.Use(c.OpenAPI.Middleware())
			}
			r.Get("/categories", c.Depreciation.ListCategories)
			r.Post("/depreciation", c.Depreciation.Compute)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(sa.Require(admins...))
			r.Get("/", c.Dashboard.HandleAdmin)
			r.Get("/assetForm", c.Assets.HandleForm)
			r.Post("/assetForm", c.Assets.HandleCreate)
			r.Get("/viewAsset", c.Assets.HandleList)
			r.Get("/assets/{id}/edit", c.Assets.HandleEditForm)
			r.Post("/assets/{id}/edit", c.Assets.HandleUpdate)
			r.Post("/assets/{id}/delete", c.Assets.HandleDelete)
			r.Get("/reportPage", c.Reports.HandlePage)
			r.Get("/reportPage/export.csv", c.Reports.HandleCSV)
			r.Get("/reportPage/export.pdf", c.Reports.HandlePDF)
			r.Get("/viewUsers", c.Users.HandleList)
			r.Post("/users", c.Users.HandleCreate)
			r.Get("/roles", c.Users.HandleRoles)
			r.Post("/roles/{id}", c.Users.HandleUpdateRole)
			r.Post("/roles/{id}/unassign", c.Users.HandleUnassign)
			r.Get("/requests", c.Requests.HandleAdminList)
			r.Post("/requests/{id}/status", c.Requests.HandleDecide)
		})

		r.With(sa.Require(rbac.RoleSuperadmin)).Get("/superadmin", c.Dashboard.HandleSuperadmin)

		r.Group(func(r chi.Router) {
			r.Use(sa.Require(rbac.RoleUser))
			r.Get("/user", c.Requests.HandleUserHome)
			r.Post("/user/requests", c.Requests.HandleCreate)
		})
	})

	return router
}

// Run запускает сервер и ждёт SIGINT или SIGTERM, затем завершает работу
// в пределах настроенного таймаута.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server started", slog.String("addr", s.httpServer.Addr))

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("graceful shutdown")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}
