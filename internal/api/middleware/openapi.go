// openapi.go: валидация запросов по документу OpenAPI.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	apierrors "github.com/bigkaa/asset-console/internal/api/errors"
)

// OpenAPIValidator отклоняет запросы JSON API, не соответствующие
// документу. Запросы вне prefix пропускаются без проверки.
type OpenAPIValidator struct {
	router routers.Router
	prefix string
	logger *slog.Logger
}

// NewOpenAPIValidator создаёт валидатор для операций doc.
func NewOpenAPIValidator(doc *openapi3.T, prefix string, logger *slog.Logger) (*OpenAPIValidator, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &OpenAPIValidator{
		router: router,
		prefix: prefix,
		logger: logger.With(slog.String("component", "openapi")),
	}, nil
}

// Middleware проверяет путь, query и тело. Сессию проверяет
// middleware сессий, поэтому security-требования здесь не проверяются.
func (v *OpenAPIValidator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, v.prefix) {
				next.ServeHTTP(w, r)
				return
			}

			route, params, err := v.router.FindRoute(r)
			if err != nil {
				if errors.Is(err, routers.ErrMethodNotAllowed) {
					apierrors.WriteError(w, http.StatusMethodNotAllowed, apierrors.CodeValidationError, "method not allowed")
					return
				}
				apierrors.NotFound(w, "unknown endpoint")
				return
			}

			in := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), in); err != nil {
				v.logger.Debug("request rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				apierrors.ValidationError(w, validationMessage(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// validationMessage оставляет первую строку ошибки валидации; остальное
// повторяет схему.
func validationMessage(err error) string {
	var re *openapi3filter.RequestError
	if errors.As(err, &re) {
		msg := re.Error()
		if i := strings.IndexByte(msg, '\n'); i > 0 {
			msg = msg[:i]
		}
		return msg
	}
	return "invalid request"
}
