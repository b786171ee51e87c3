// Точка входа Asset Console: серверный веб-интерфейс поверх внешнего
// API активов. Загружает конфигурацию, создаёт хранилище сессий,
// сервисный слой и handlers, запускает мониторинг зависимостей и очистку
// сессий, затем обслуживает HTTP до SIGINT или SIGTERM.
package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	apihandlers "github.com/bigkaa/asset-console/internal/api/handlers"
	"github.com/bigkaa/asset-console/internal/api/middleware"
	"github.com/bigkaa/asset-console/internal/api/openapi"
	"github.com/bigkaa/asset-console/internal/assetapi"
	"github.com/bigkaa/asset-console/internal/config"
	"github.com/bigkaa/asset-console/internal/database"
	"github.com/bigkaa/asset-console/internal/repository"
	"github.com/bigkaa/asset-console/internal/server"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/auth"
	uihandlers "github.com/bigkaa/asset-console/internal/ui/handlers"
	"github.com/bigkaa/asset-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/asset-console/internal/ui/middleware"
)

func main() {
	// 0. Необязательный .env; переменные окружения имеют приоритет
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("cannot read .env", slog.String("error", err.Error()))
	}

	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("asset console starting",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("session_store", cfg.SessionStore),
	)

	// 3. Переводы интерфейса
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		logger.Error("cannot load translations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Клиент API активов
	api, err := assetapi.New(assetapi.Options{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.APITimeout,
		CACertPath:        cfg.APICACertPath,
		HealthPath:        cfg.APIHealthPath,
		RoleUpdateURL:     cfg.RoleUpdateURL,
		RoleUpdateMethod:  cfg.RoleUpdateMethod,
		RequestStatusPath: cfg.RequestStatusPath,
	}, logger)
	if err != nil {
		logger.Error("cannot create asset API client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Декодер токенов
	decoder, err := auth.NewTokenDecoder(auth.TokenDecoderConfig{
		JWKSURL:         cfg.JWTJWKSURL,
		Secret:          cfg.JWTSecret,
		CACertPath:      cfg.APICACertPath,
		ClientTimeout:   cfg.APITimeout,
		RefreshInterval: cfg.JWKSRefreshInterval,
		Leeway:          cfg.JWTLeeway,
	}, logger)
	if err != nil {
		logger.Error("cannot create token decoder", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("token decoder ready", slog.String("mode", decoder.Mode()))

	// 6. Хранилище сессий: LRU в памяти или PostgreSQL
	var (
		store     service.SessionStore
		pgDB      *sql.DB
		dbChecker apihandlers.ReadinessChecker
	)
	if cfg.DatabaseEnabled() {
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("migrations failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("cannot connect to PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		// Адаптер pgxpool → *sql.DB: dephealth проверяет через тот же пул
		pgDB = stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()

		store = repository.NewSessionRepository(pool)
		dbChecker = database.NewReadinessChecker(pool)
	} else {
		store = service.NewMemorySessionStore(cfg.SessionCacheSize, cfg.SessionIdleTimeout)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("AC_SESSION_SECRET is not set, sessions do not survive a restart")
	}

	// 7. Services
	sessions := service.NewSessionService(store, cfg.SessionIdleTimeout, logger)
	authSvc := service.NewAuthService(api, decoder, sessions, logger)
	assetSvc := service.NewAssetService(api, logger)
	userSvc := service.NewUserService(api, logger)
	requestSvc := service.NewRequestService(api, logger)
	dashboardSvc := service.NewDashboardService(api, cfg.Currency, logger)

	// 8. UI handlers
	cookies, err := auth.NewCookieManager(cfg.SessionSecret, cfg.SessionSecureCookie)
	if err != nil {
		logger.Error("cannot create cookie manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	rs := uihandlers.NewResponder(cookies, sessions, logger)

	// 9. Валидация запросов JSON API по OpenAPI
	doc, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("cannot load OpenAPI document", slog.String("error", err.Error()))
		os.Exit(1)
	}
	validator, err := middleware.NewOpenAPIValidator(doc, "/api/v1/", logger)
	if err != nil {
		logger.Error("cannot build request validator", slog.String("error", err.Error()))
		os.Exit(1)
	}

	components := &server.Components{
		Health:       apihandlers.NewHealthHandler(api, dbChecker),
		Depreciation: apihandlers.NewDepreciationHandler(logger),
		OpenAPI:      validator,
		SessionAuth:  uimiddleware.NewSessionAuth(cookies, sessions, logger),
		Auth:         uihandlers.NewAuthHandler(authSvc, cookies, rs, logger),
		Dashboard:    uihandlers.NewDashboardHandler(dashboardSvc, userSvc, rs, logger),
		Assets:       uihandlers.NewAssetsHandler(assetSvc, userSvc, rs, logger),
		Reports:      uihandlers.NewReportsHandler(assetSvc, rs, logger),
		Users:        uihandlers.NewUsersHandler(userSvc, rs, logger),
		Requests:     uihandlers.NewRequestsHandler(requestSvc, rs, logger),
	}

	// 10. Мониторинг зависимостей (API активов, PostgreSQL если включён)
	if cfg.APICACertPath != "" {
		logger.Info("dependency probe verifies the asset API against the system trust store",
			slog.String("hint", "add the CA via SSL_CERT_FILE or SSL_CERT_DIR"),
		)
	}
	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "asset-console",
		Group:         cfg.DephealthGroup,
		APIHealthURL:  cfg.APIHealthURL(),
		DB:            pgDB,
		DBURL:         cfg.DatabaseDSN(),
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		logger.Warn("dependency monitoring unavailable", slog.String("error", err.Error()))
		dephealthSvc = nil
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("dependency monitoring failed to start", slog.String("error", err.Error()))
	}

	// 11. Фоновая очистка истёкших сессий
	sessions.StartSweeper(ctx, cfg.SessionSweepInterval)

	// 12. HTTP-сервер
	srv := server.New(cfg, logger, components)
	if err := srv.Run(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. Остановка фоновых задач
	cancel()
	sessions.Stop()
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("asset console stopped")
}
