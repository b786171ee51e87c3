// dephealth.go: мониторинг зависимостей через SDK topologymetrics.
//
// Консоль проверяет:
//   - asset-api: HTTP-проверка health-пути внешнего API (critical)
//   - postgresql: SQL-проверка через общий pgxpool, только когда сессии
//     хранятся в PostgreSQL (critical)
//
// Метрики экспортируются на /metrics вместе с метриками консоли:
//   - app_dependency_health
//   - app_dependency_latency_seconds
//   - app_dependency_status
//   - app_dependency_status_detail
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// Имена зависимостей в метриках и ключах Health().
const (
	DepAssetAPI   = "asset-api"
	DepPostgreSQL = "postgresql"
)

// DephealthConfig: что проверять.
type DephealthConfig struct {
	ServiceID string
	Group     string
	// APIHealthURL: полный URL проверки внешнего API. Сертификаты всегда
	// проверяются по системному хранилищу CA.
	APIHealthURL string
	// DB и DBURL задаются, только когда сессии хранятся в PostgreSQL.
	DB            *sql.DB
	DBURL         string
	CheckInterval time.Duration
}

// DephealthService периодически проверяет зависимости консоли.
type DephealthService struct {
	dh     *dephealth.DepHealth
	deps   []string
	logger *slog.Logger
}

// NewDephealthService регистрирует метрики в стандартном реестре Prometheus.
func NewDephealthService(cfg DephealthConfig, logger *slog.Logger) (*DephealthService, error) {
	return newDephealthService(cfg, logger)
}

// NewDephealthServiceWithRegisterer использует переданный registerer (для тестов).
func NewDephealthServiceWithRegisterer(cfg DephealthConfig, logger *slog.Logger, registerer prometheus.Registerer) (*DephealthService, error) {
	return newDephealthService(cfg, logger, dephealth.WithRegisterer(registerer))
}

func newDephealthService(cfg DephealthConfig, logger *slog.Logger, extraOpts ...dephealth.Option) (*DephealthService, error) {
	healthPath := "/"
	if u, err := url.Parse(cfg.APIHealthURL); err == nil && u.Path != "" {
		healthPath = u.Path
	}

	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.HTTP(DepAssetAPI,
			dephealth.FromURL(cfg.APIHealthURL),
			dephealth.WithHTTPHealthPath(healthPath),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
			dephealth.WithHTTPTLSSkipVerify(false),
		),
	}
	deps := []string{DepAssetAPI}

	if cfg.DB != nil {
		// pool mode: проверка идёт через тот же пул, что и сессии
		opts = append(opts, dephealth.AddDependency(DepPostgreSQL, dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(cfg.DB)),
			dephealth.FromURL(cfg.DBURL),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
		))
		deps = append(deps, DepPostgreSQL)
	}
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(cfg.ServiceID, cfg.Group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		deps:   deps,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодические проверки. Не блокирует.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("dependency monitoring started", slog.Any("dependencies", ds.deps))
	return ds.dh.Start(ctx)
}

func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("dependency monitoring stopped")
}

// Health возвращает последнее состояние по ключу "name:host:port".
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
