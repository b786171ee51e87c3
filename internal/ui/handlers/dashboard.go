package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/report"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/pages"
)

// StatsSource вычисляет показатели панели. Реализуется
// *service.DashboardService.
type StatsSource interface {
	Stats(ctx context.Context, sess *model.Session) (report.Stats, error)
}

// DashboardHandler: стартовые страницы admin и superadmin.
type DashboardHandler struct {
	stats  StatsSource
	users  *service.UserService
	rs     *Responder
	logger *slog.Logger
}

func NewDashboardHandler(stats StatsSource, users *service.UserService, rs *Responder, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		stats:  stats,
		users:  users,
		rs:     rs,
		logger: logger.With(slog.String("component", "ui_dashboard")),
	}
}

// HandleAdmin: GET /admin.
func (h *DashboardHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	data, ok := h.load(w, r, "title.admin_dashboard")
	if !ok {
		return
	}
	h.rs.page(w, r, http.StatusOK, pages.Dashboard(data))
}

// HandleSuperadmin: GET /superadmin, статистика и менеджер ролей.
func (h *DashboardHandler) HandleSuperadmin(w http.ResponseWriter, r *http.Request) {
	data, ok := h.load(w, r, "title.superadmin_dashboard")
	if !ok {
		return
	}
	users, err := h.users.List(r.Context(), session(r))
	if err != nil && !errors.Is(err, service.ErrTransport) {
		h.rs.fail(w, r, err, "/dashboard")
		return
	}
	if err != nil && data.Notice == nil {
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(err), service.Detail(err))
	}
	roles := buildRoles(r, users, "/superadmin")
	data.Roles = &roles
	h.rs.page(w, r, http.StatusOK, pages.Dashboard(data))
}

// load загружает статистику. При транспортной ошибке страница всё равно
// выводится с пустыми показателями и уведомлением.
func (h *DashboardHandler) load(w http.ResponseWriter, r *http.Request, title string) (pages.DashboardData, bool) {
	stats, err := h.stats.Stats(r.Context(), session(r))
	if err != nil && !errors.Is(err, service.ErrTransport) {
		h.rs.fail(w, r, err, "/dashboard")
		return pages.DashboardData{}, false
	}

	data := pages.DashboardData{Layout: h.rs.layout(w, r, title, "dashboard"), Stats: stats}
	if err != nil {
		h.logger.Error("dashboard statistics unavailable", slog.String("error", err.Error()))
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(err), service.Detail(err))
		data.Stats = report.Summarize(nil, 0, "")
	}
	return data, true
}
