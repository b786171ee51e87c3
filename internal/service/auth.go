package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/asset-console/internal/domain/model"
)

// TokenDecoder превращает токен API в данные сессии.
type TokenDecoder interface {
	Decode(ctx context.Context, token string) (NewSession, error)
}

// ErrInvalidCredentials: API отклонил вход.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService: вход и выход пользователей.
type AuthService struct {
	api      AssetAPI
	decoder  TokenDecoder
	sessions *SessionService
	logger   *slog.Logger
}

func NewAuthService(api AssetAPI, decoder TokenDecoder, sessions *SessionService, logger *slog.Logger) *AuthService {
	return &AuthService{
		api:      api,
		decoder:  decoder,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "auth")),
	}
}

// Login обменивает учётные данные на токен и открывает сессию.
func (a *AuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	var v validator
	v.require("email", email)
	v.require("password", password)
	if err := v.err(); err != nil {
		return nil, err
	}

	token, err := a.api.Login(ctx, model.Credentials{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		err = classify("login", err)
		// на неверные учётные данные API отвечает 400/401
		if errors.Is(err, ErrAuthenticationMissing) || isClientError(err) {
			a.logger.Info("login rejected", slog.String("email", email))
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, err
	}

	in, err := a.decoder.Decode(ctx, token)
	if err != nil {
		a.logger.Warn("issued token rejected", slog.String("error", err.Error()))
		return nil, fmt.Errorf("decode token: %w: %w", ErrAuthenticationMissing, err)
	}
	in.Token = token

	return a.sessions.Create(ctx, in)
}

// Logout завершает сессию.
func (a *AuthService) Logout(ctx context.Context, sessionID string) error {
	return a.sessions.Destroy(ctx, sessionID)
}
