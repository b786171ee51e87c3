package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/report"
)

// DashboardService собирает показатели панели.
type DashboardService struct {
	api      AssetAPI
	currency string
	logger   *slog.Logger
}

func NewDashboardService(api AssetAPI, currency string, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		api:      api,
		currency: currency,
		logger:   logger.With(slog.String("component", "dashboard")),
	}
}

// Stats параллельно загружает активы и пользователей и сводит показатели.
func (s *DashboardService) Stats(ctx context.Context, sess *model.Session) (report.Stats, error) {
	var (
		assets []model.AssetRecord
		users  []model.UserRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assets, err = s.api.ListAssets(gctx, sess.Token)
		if err != nil {
			return classify("list assets", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = s.api.ListUsers(gctx, sess.Token)
		if err != nil {
			return classify("list users", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return report.Stats{}, err
	}

	stats := report.Summarize(assets, len(users), s.currency)
	s.logger.Debug("dashboard computed",
		slog.Int("assets", stats.TotalAssets),
		slog.Int("users", stats.TotalUsers),
	)
	return stats, nil
}
