// Пакет handlers: страницы консоли.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/auth"
	"github.com/bigkaa/asset-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/asset-console/internal/ui/middleware"
	"github.com/bigkaa/asset-console/internal/ui/pages"
)

// Виды уведомлений.
const (
	kindSuccess = "success"
	kindError   = "error"
	kindInfo    = "info"
)

// SessionEnder завершает сессии. Реализуется *service.SessionService.
type SessionEnder interface {
	Destroy(ctx context.Context, id string) error
	IdleTimeout() time.Duration
}

// Responder содержит всё, что нужно handlers страниц: вывод страниц,
// уведомления и реакцию на ошибки.
type Responder struct {
	cookies  *auth.CookieManager
	sessions SessionEnder
	logger   *slog.Logger
}

func NewResponder(cookies *auth.CookieManager, sessions SessionEnder, logger *slog.Logger) *Responder {
	return &Responder{
		cookies:  cookies,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui")),
	}
}

// layout собирает общие данные страницы и забирает ожидающее уведомление.
func (rs *Responder) layout(w http.ResponseWriter, r *http.Request, title, nav string) pages.Layout {
	l := pages.Layout{Title: title, Nav: nav}
	if sess := uimiddleware.SessionFromContext(r.Context()); sess != nil {
		l.Role = sess.Principal.Role
		l.Email = sess.Principal.Email
		l.IdleSeconds = int(rs.sessions.IdleTimeout().Seconds())
	}
	if f, ok := rs.cookies.PopFlash(w, r); ok {
		l.Notice = rs.notice(r.Context(), f.Kind, f.Key, f.Detail)
	}
	return l
}

func (rs *Responder) notice(ctx context.Context, kind, key, detail string) *pages.Notice {
	text := i18n.T(ctx, key)
	if detail != "" {
		text += " (" + detail + ")"
	}
	return &pages.Notice{Kind: kind, Text: text}
}

// page записывает отрисованный компонент с заданным статусом.
func (rs *Responder) page(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		rs.logger.Error("page render failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// flash оставляет уведомление для следующей страницы.
func (rs *Responder) flash(w http.ResponseWriter, kind, key, detail string) {
	rs.cookies.SetFlash(w, auth.Flash{Kind: kind, Key: key, Detail: detail})
}

// redirectWith оставляет уведомление и перенаправляет с 303.
func (rs *Responder) redirectWith(w http.ResponseWriter, r *http.Request, to, kind, key, detail string) {
	rs.flash(w, kind, key, detail)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// fail обрабатывает классифицированную ошибку сервиса. Отклонённый токен
// завершает сессию и ведёт на страницу входа; запрещённое действие ведёт на
// /unauthorized; остальное возвращает на back с уведомлением.
// Ошибки валидации обрабатывают вызывающие, они заново выводят формы.
func (rs *Responder) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case errors.Is(err, service.ErrAuthenticationMissing):
		rs.endSession(w, r)
		rs.redirectWith(w, r, "/login", kindError, "auth.session_ended", "")
	case errors.Is(err, service.ErrAuthorizationDenied):
		http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
	case errors.Is(err, service.ErrValidation):
		rs.redirectWith(w, r, back, kindError, service.MessageKey(err), validationDetail(err))
	case errors.Is(err, service.ErrNotFound):
		rs.redirectWith(w, r, back, kindError, service.MessageKey(err), "")
	default:
		rs.logger.Error("operation failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		rs.redirectWith(w, r, back, kindError, service.MessageKey(err), service.Detail(err))
	}
}

// endSession завершает сессию запроса и очищает cookie.
func (rs *Responder) endSession(w http.ResponseWriter, r *http.Request) {
	if sess := uimiddleware.SessionFromContext(r.Context()); sess != nil {
		if err := rs.sessions.Destroy(r.Context(), sess.ID); err != nil {
			rs.logger.Warn("session destroy failed",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	rs.cookies.ClearSession(w)
}

// session возвращает сессию запроса. У маршрутов за Require
// она всегда есть.
func session(r *http.Request) *model.Session {
	return uimiddleware.SessionFromContext(r.Context())
}

// fieldErrors извлекает сообщения по полям из ошибки валидации.
func fieldErrors(err error) map[string]string {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// validationDetail объединяет сообщения полей ошибки валидации.
func validationDetail(err error) string {
	fields := fieldErrors(err)
	msgs := make([]string, 0, len(fields))
	for _, m := range fields {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// today возвращает дату по умолчанию для полей даты.
func today(now time.Time) string {
	return now.Format("2006-01-02")
}
