// Пакет middleware: middleware сессий и контроля доступа консоли.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apierrors "github.com/bigkaa/asset-console/internal/api/errors"
	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/domain/rbac"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/auth"
)

type contextKey string

const contextKeySession contextKey = "ui_session"

var accessDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ac_access_decisions_total",
		Help: "Route access decisions by outcome",
	},
	[]string{"decision"},
)

// SessionResolver находит действующую сессию и отмечает активность.
// Реализуется *service.SessionService.
type SessionResolver interface {
	Resolve(ctx context.Context, id string) (*model.Session, error)
}

// SessionAuth привязывает сессии к запросам и проверяет роли маршрутов.
type SessionAuth struct {
	cookies  *auth.CookieManager
	sessions SessionResolver
	logger   *slog.Logger
}

func NewSessionAuth(cookies *auth.CookieManager, sessions SessionResolver, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		cookies:  cookies,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Load разрешает cookie сессии, если она есть, и кладёт сессию в контекст
// запроса. Разрешение считается активностью. Нечитаемая cookie или
// завершённая сессия очищают cookie; для неактивной или истёкшей сессии
// также оставляется уведомление для страницы входа.
func (a *SessionAuth) Load() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.cookies.SessionID(r)
			if err != nil {
				a.logger.Debug("unreadable session cookie",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				a.cookies.ClearSession(w)
				next.ServeHTTP(w, r)
				return
			}
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := a.sessions.Resolve(r.Context(), id)
			if err != nil {
				a.cookies.ClearSession(w)
				if errors.Is(err, service.ErrAuthenticationMissing) {
					a.cookies.SetFlash(w, auth.Flash{Kind: "error", Key: "auth.session_ended"})
				} else {
					a.logger.Error("session lookup failed", slog.String("error", err.Error()))
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require пропускает пользователей с ролью из roles; без ролей проходит
// любой аутентифицированный. Остальные перенаправляются на /login или
// /unauthorized.
func (a *SessionAuth) Require(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := a.decide(r, roles)
			if d != rbac.Authorized {
				http.Redirect(w, r, d.Redirect(), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPI: Require для JSON endpoints, отвечает 401 или 403 вместо
// перенаправления.
func (a *SessionAuth) RequireAPI(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch a.decide(r, roles) {
			case rbac.Unauthenticated:
				apierrors.Unauthorized(w, "no active session")
			case rbac.Unauthorized:
				apierrors.Forbidden(w, "role not permitted")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func (a *SessionAuth) decide(r *http.Request, roles []string) rbac.Decision {
	var p *rbac.Principal
	if sess := SessionFromContext(r.Context()); sess != nil {
		p = &sess.Principal
	}
	d := rbac.Evaluate(p, roles...)
	accessDecisions.WithLabelValues(d.String()).Inc()
	if d == rbac.Unauthorized {
		a.logger.Info("access denied",
			slog.String("path", r.URL.Path),
			slog.String("user_id", p.UserID),
			slog.String("role", p.Role),
		)
	}
	return d
}

// SessionFromContext возвращает сессию запроса или nil.
func SessionFromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(contextKeySession).(*model.Session)
	return sess
}

// WithSession кладёт сессию в ctx (для тестов handlers).
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, contextKeySession, sess)
}
