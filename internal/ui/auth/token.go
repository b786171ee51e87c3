package auth

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/asset-console/internal/domain/rbac"
	"github.com/bigkaa/asset-console/internal/service"
)

// Режимы проверки TokenDecoder.
const (
	ModeUnverified = "unverified"
	ModeSecret     = "hmac"
	ModeJWKS       = "jwks"
)

// ErrNoSubject: в токене нет id пользователя.
var ErrNoSubject = errors.New("token has no user id")

// apiClaims: payload токенов, выдаваемых API активов.
type apiClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"_id"`
	AltID  string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenDecoderConfig задаёт способ проверки токенов. JWKSURL и Secret
// взаимоисключающие; без обоих подпись не проверяется.
type TokenDecoderConfig struct {
	JWKSURL         string
	Secret          string
	CACertPath      string
	ClientTimeout   time.Duration
	RefreshInterval time.Duration
	Leeway          time.Duration
}

// TokenDecoder извлекает пользователя и срок жизни из токена API.
type TokenDecoder struct {
	mode    string
	keyfunc jwt.Keyfunc
	jwks    keyfunc.Keyfunc
	methods []string
	leeway  time.Duration
	logger  *slog.Logger
}

// NewTokenDecoder создаёт декодер для заданного режима.
func NewTokenDecoder(cfg TokenDecoderConfig, logger *slog.Logger) (*TokenDecoder, error) {
	logger = logger.With(slog.String("component", "token_decoder"))
	switch {
	case cfg.JWKSURL != "":
		kf, err := newJWKSKeyfunc(cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewTokenDecoderWithKeyfunc(kf, cfg.Leeway, logger), nil
	case cfg.Secret != "":
		secret := []byte(cfg.Secret)
		return &TokenDecoder{
			mode:    ModeSecret,
			keyfunc: func(*jwt.Token) (any, error) { return secret, nil },
			methods: []string{"HS256", "HS384", "HS512"},
			leeway:  cfg.Leeway,
			logger:  logger,
		}, nil
	default:
		logger.Warn("token signatures are not verified, set AC_JWT_JWKS_URL or AC_JWT_SECRET")
		return &TokenDecoder{mode: ModeUnverified, leeway: cfg.Leeway, logger: logger}, nil
	}
}

// NewTokenDecoderWithKeyfunc проверяет токены по готовому набору ключей.
// Используется в тестах с JWKS в памяти.
func NewTokenDecoderWithKeyfunc(kf keyfunc.Keyfunc, leeway time.Duration, logger *slog.Logger) *TokenDecoder {
	return &TokenDecoder{
		mode:    ModeJWKS,
		jwks:    kf,
		methods: []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512", "EdDSA"},
		leeway:  leeway,
		logger:  logger,
	}
}

// Mode возвращает режим проверки.
func (d *TokenDecoder) Mode() string {
	return d.mode
}

// Decode разбирает токен и переносит claims в новую сессию.
// Токены без exp сами не истекают.
func (d *TokenDecoder) Decode(ctx context.Context, token string) (service.NewSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return service.NewSession{}, errors.New("empty token")
	}

	claims := &apiClaims{}
	var err error
	switch d.mode {
	case ModeUnverified:
		_, _, err = jwt.NewParser().ParseUnverified(token, claims)
		if err == nil {
			err = d.validateTimes(claims)
		}
	case ModeJWKS:
		_, err = jwt.ParseWithClaims(token, claims, d.jwks.KeyfuncCtx(ctx),
			jwt.WithValidMethods(d.methods), jwt.WithLeeway(d.leeway))
	default:
		_, err = jwt.ParseWithClaims(token, claims, d.keyfunc,
			jwt.WithValidMethods(d.methods), jwt.WithLeeway(d.leeway))
	}
	if err != nil {
		d.logger.Debug("token rejected", slog.String("mode", d.mode), slog.String("error", err.Error()))
		return service.NewSession{}, fmt.Errorf("parse token: %w", err)
	}

	out := service.NewSession{
		Principal: rbac.Principal{
			UserID: firstNonEmpty(claims.UserID, claims.AltID, claims.Subject),
			Role:   rbac.NormalizeRole(claims.Role),
			Email:  claims.Email,
		},
	}
	if out.Principal.UserID == "" {
		return service.NewSession{}, ErrNoSubject
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// validateTimes проверяет exp/nbf у токена без проверки подписи.
func (d *TokenDecoder) validateTimes(claims *apiClaims) error {
	return jwt.NewValidator(jwt.WithLeeway(d.leeway)).Validate(claims)
}

func newJWKSKeyfunc(cfg TokenDecoderConfig, logger *slog.Logger) (keyfunc.Keyfunc, error) {
	httpClient := http.DefaultClient
	if cfg.CACertPath != "" {
		var err error
		httpClient, err = httpClientWithCA(cfg.CACertPath, cfg.ClientTimeout)
		if err != nil {
			return nil, fmt.Errorf("load CA certificate %s: %w", cfg.CACertPath, err)
		}
	}

	// стартуем, даже если endpoint ключей пока недоступен
	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Client:                    httpClient,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("JWKS refresh failed",
				slog.String("error", err.Error()),
				slog.String("url", cfg.JWKSURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("create keyfunc: %w", err)
	}
	return k, nil
}

func httpClientWithCA(caCertPath string, timeout time.Duration) (*http.Client, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, err
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("no certificates found")
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		},
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
