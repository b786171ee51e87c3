// errors.go: классификация ошибок, общая для сервисов и UI handlers.
package service

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/bigkaa/asset-console/internal/assetapi"
)

var (
	// ErrAuthenticationMissing: нет действующей сессии или API отклонил токен.
	ErrAuthenticationMissing = errors.New("authentication missing")
	// ErrAuthorizationDenied: роли не разрешено действие.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrTransport: вызов API не удался; операция прерывается без повтора.
	ErrTransport = errors.New("transport failure")
	// ErrValidation: ввод отклонён локально до сетевого вызова.
	ErrValidation = errors.New("validation failure")
	// ErrNotFound: запись не существует.
	ErrNotFound = errors.New("record not found")
)

// ValidationError: ошибки по полям. Соответствует ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// validator собирает ошибки полей.
type validator struct {
	fields map[string]string
}

func (v *validator) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.fail(field, "required")
	}
}

func (v *validator) fail(field, msg string) {
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, ok := v.fields[field]; !ok {
		v.fields[field] = msg
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// classify относит ошибку клиента к классу, сохраняя причину.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *assetapi.StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w: %w", op, ErrAuthenticationMissing, err)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", op, ErrAuthorizationDenied, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

// MessageKey возвращает ключ перевода для классифицированной ошибки.
func MessageKey(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "error.validation"
	case errors.Is(err, ErrAuthenticationMissing):
		return "error.authentication"
	case errors.Is(err, ErrAuthorizationDenied):
		return "error.authorization"
	case errors.Is(err, ErrNotFound):
		return "error.not_found"
	default:
		return "error.transport"
	}
}

// Detail возвращает сообщение API об ошибке, если оно есть.
func Detail(err error) string {
	var se *assetapi.StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

// isClientError сообщает, отклонил ли API запрос с кодом 4xx.
func isClientError(err error) bool {
	var se *assetapi.StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}
