package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/domain/rbac"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/auth"
	"github.com/bigkaa/asset-console/internal/ui/pages"
)

// Authenticator: вход и выход пользователей. Реализуется *service.AuthService.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler: вход, выход и перенаправления по ролям.
type AuthHandler struct {
	auth    Authenticator
	cookies *auth.CookieManager
	rs      *Responder
	logger  *slog.Logger
}

func NewAuthHandler(a Authenticator, cookies *auth.CookieManager, rs *Responder, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    a,
		cookies: cookies,
		rs:      rs,
		logger:  logger.With(slog.String("component", "ui_auth")),
	}
}

// HandleRoot: GET /.
func (h *AuthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// HandleLoginPage: GET /login. Вошедшие пользователи идут на свою панель.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := session(r); sess != nil {
		http.Redirect(w, r, rbac.DashboardPath(sess.Principal.Role), http.StatusFound)
		return
	}
	data := pages.LoginData{Layout: h.rs.layout(w, r, "title.login", "")}
	h.rs.page(w, r, http.StatusOK, pages.Login(data))
}

// HandleLogin: POST /login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	sess, err := h.auth.Login(r.Context(), email, r.FormValue("password"))
	if err != nil {
		status, key := http.StatusBadGateway, service.MessageKey(err)
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			status, key = http.StatusUnauthorized, "error.invalid_credentials"
		case errors.Is(err, service.ErrValidation):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, service.ErrAuthenticationMissing):
			status = http.StatusUnauthorized
		default:
			h.logger.Error("login failed", slog.String("error", err.Error()))
		}
		data := pages.LoginData{Layout: h.rs.layout(w, r, "title.login", ""), Email: email}
		data.Notice = h.rs.notice(r.Context(), kindError, key, "")
		h.rs.page(w, r, status, pages.Login(data))
		return
	}

	if err := h.cookies.SetSession(w, sess.ID); err != nil {
		h.logger.Error("session cookie not set", slog.String("error", err.Error()))
		_ = h.auth.Logout(r.Context(), sess.ID)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.logger.Info("user signed in",
		slog.String("user_id", sess.Principal.UserID),
		slog.String("role", sess.Principal.Role),
	)
	http.Redirect(w, r, rbac.DashboardPath(sess.Principal.Role), http.StatusSeeOther)
}

// HandleLogout: POST /logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := session(r); sess != nil {
		if err := h.auth.Logout(r.Context(), sess.ID); err != nil {
			h.logger.Warn("logout failed", slog.String("error", err.Error()))
		}
	}
	h.cookies.ClearSession(w)
	h.rs.redirectWith(w, r, "/login", kindInfo, "auth.logged_out", "")
}

// HandleDashboard: GET /dashboard, ведёт на стартовую страницу роли.
func (h *AuthHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, rbac.DashboardPath(session(r).Principal.Role), http.StatusFound)
}

// HandleUnauthorized: GET /unauthorized.
func (h *AuthHandler) HandleUnauthorized(w http.ResponseWriter, r *http.Request) {
	data := pages.UnauthorizedData{Layout: h.rs.layout(w, r, "title.unauthorized", "")}
	h.rs.page(w, r, http.StatusForbidden, pages.Unauthorized(data))
}

// HandlePing: POST /session/ping. Разрешение сессии уже засчитано
// как активность.
func (h *AuthHandler) HandlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
