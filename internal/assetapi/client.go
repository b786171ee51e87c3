// Пакет assetapi: HTTP-клиент внешнего API активов, пользователей и
// заявок. Аутентифицированные вызовы передают токен сессии в заголовке
// x-auth-token. Повторных попыток нет.
package assetapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bigkaa/asset-console/internal/domain/model"
)

// TokenHeader: заголовок с токеном сессии для аутентифицированных вызовов.
const TokenHeader = "x-auth-token"

// maxErrorBody: сколько байт тела ответа с ошибкой сохраняется.
const maxErrorBody = 4 << 10

// Options: параметры клиента.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	CACertPath string
	// Путь для Ping относительно BaseURL.
	HealthPath string
	// Абсолютный URL или путь относительно BaseURL; ":id" и "{id}" подставляются.
	RoleUpdateURL    string
	RoleUpdateMethod string
	// Путь относительно BaseURL с "{id}".
	RequestStatusPath string
}

// Client: клиент внешнего API активов.
type Client struct {
	baseURL           string
	healthPath        string
	roleUpdateURL     string
	roleUpdateMethod  string
	requestStatusPath string
	httpClient        *http.Client
	logger            *slog.Logger
}

// StatusError возвращается, когда API ответил неожиданным статусом.
type StatusError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// ErrEmptyToken: вход прошёл успешно, но токен не вернулся.
var ErrEmptyToken = errors.New("login response carries no token")

// New создаёт клиент. Пустой CACertPath означает системный пул CA.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	if opts.CACertPath != "" {
		tlsConfig, err := buildTLSConfig(opts.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("load asset API CA certificate: %w", err)
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
		logger.Info("asset API CA certificate added to trust pool",
			slog.String("ca_cert", opts.CACertPath),
		)
	}

	method := strings.ToUpper(opts.RoleUpdateMethod)
	if method == "" {
		method = http.MethodPatch
	}
	statusPath := opts.RequestStatusPath
	if statusPath == "" {
		statusPath = "/api/request/{id}/status"
	}
	roleURL := opts.RoleUpdateURL
	if roleURL == "" {
		roleURL = "/api/users/updateRole"
	}

	return &Client{
		baseURL:           normalizeURL(opts.BaseURL),
		healthPath:        opts.HealthPath,
		roleUpdateURL:     roleURL,
		roleUpdateMethod:  method,
		requestStatusPath: statusPath,
		httpClient:        httpClient,
		logger:            logger.With(slog.String("component", "asset_api_client")),
	}, nil
}

func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("no PEM certificates in %s", caCertPath)
	}

	return &tls.Config{RootCAs: caCertPool}, nil
}

// --- Аутентификация ---

// Login обменивает учётные данные на токен. POST /api/auth.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, "login", http.MethodPost, c.baseURL+"/api/auth", "", creds, &resp, http.StatusOK, http.StatusCreated); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrEmptyToken
	}
	return resp.Token, nil
}

// --- Активы ---

// ListAssets возвращает все активы. GET /api/asset.
func (c *Client) ListAssets(ctx context.Context, token string) ([]model.AssetRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_assets", http.MethodGet, c.baseURL+"/api/asset", token, nil, &raw, http.StatusOK); err != nil {
		return nil, err
	}
	return decodeList[model.AssetRecord](raw, "data")
}

// CreateAsset создаёт актив. POST /api/asset.
func (c *Client) CreateAsset(ctx context.Context, token string, asset model.AssetRecord) error {
	return c.do(ctx, "create_asset", http.MethodPost, c.baseURL+"/api/asset", token, asset, nil,
		http.StatusOK, http.StatusCreated)
}

// UpdateAsset заменяет актив. PUT /api/asset/{id}.
func (c *Client) UpdateAsset(ctx context.Context, token, id string, asset model.AssetRecord) error {
	return c.do(ctx, "update_asset", http.MethodPut, c.baseURL+"/api/asset/"+url.PathEscape(id), token, asset, nil,
		http.StatusOK, http.StatusNoContent)
}

// DeleteAsset удаляет актив. DELETE /api/asset/{id}.
func (c *Client) DeleteAsset(ctx context.Context, token, id string) error {
	return c.do(ctx, "delete_asset", http.MethodDelete, c.baseURL+"/api/asset/"+url.PathEscape(id), token, nil, nil,
		http.StatusOK, http.StatusNoContent)
}

// --- Пользователи ---

// ListUsers возвращает всех пользователей. GET /api/users отвечает массивом
// или объектом {data: [...]}.
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.UserRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_users", http.MethodGet, c.baseURL+"/api/users", token, nil, &raw, http.StatusOK); err != nil {
		return nil, err
	}
	return decodeList[model.UserRecord](raw, "data")
}

// CreateUser регистрирует учётную запись. POST /api/users.
func (c *Client) CreateUser(ctx context.Context, token string, u model.NewUser) error {
	return c.do(ctx, "create_user", http.MethodPost, c.baseURL+"/api/users", token, u, nil,
		http.StatusOK, http.StatusCreated)
}

// UpdateRole меняет роль пользователя через настроенный endpoint.
func (c *Client) UpdateRole(ctx context.Context, token, userID, role string) error {
	body := map[string]string{
		"role":   strings.ToLower(role),
		"userId": userID,
		"id":     userID,
		"_id":    userID,
	}
	return c.do(ctx, "update_role", c.roleUpdateMethod, c.RoleUpdateURL(userID), token, body, nil,
		http.StatusOK, http.StatusCreated, http.StatusNoContent)
}

// RoleUpdateURL вычисляет URL смены роли для пользователя.
func (c *Client) RoleUpdateURL(userID string) string {
	u := c.roleUpdateURL
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = c.baseURL + "/" + strings.TrimLeft(u, "/")
	}
	id := url.PathEscape(userID)
	return strings.NewReplacer(":id", id, "{id}", id).Replace(u)
}

// --- Заявки ---

// ListRequests возвращает все заявки. GET /api/request отвечает массивом
// или объектом {requests: [...]}.
func (c *Client) ListRequests(ctx context.Context, token string) ([]model.RequestRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_requests", http.MethodGet, c.baseURL+"/api/request", token, nil, &raw, http.StatusOK); err != nil {
		return nil, err
	}
	return decodeList[model.RequestRecord](raw, "requests")
}

// ListMyRequests возвращает заявки вызывающего. GET /api/request/my-requests.
func (c *Client) ListMyRequests(ctx context.Context, token string) ([]model.RequestRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_my_requests", http.MethodGet, c.baseURL+"/api/request/my-requests", token, nil, &raw, http.StatusOK); err != nil {
		return nil, err
	}
	return decodeList[model.RequestRecord](raw, "requests")
}

// CreateRequest создаёт заявку на актив. POST /api/request.
func (c *Client) CreateRequest(ctx context.Context, token string, r model.NewRequest) error {
	return c.do(ctx, "create_request", http.MethodPost, c.baseURL+"/api/request", token, r, nil,
		http.StatusOK, http.StatusCreated)
}

// UpdateRequestStatus принимает решение по заявке. PUT на настроенный путь статуса.
func (c *Client) UpdateRequestStatus(ctx context.Context, token, id string, status model.RequestStatus) error {
	path := strings.ReplaceAll(c.requestStatusPath, "{id}", url.PathEscape(id))
	body := map[string]string{"status": string(status)}
	return c.do(ctx, "update_request_status", http.MethodPut, c.baseURL+"/"+strings.TrimLeft(path, "/"), token, body, nil,
		http.StatusOK, http.StatusNoContent)
}

// --- Здоровье ---

// Ping опрашивает health-путь. Любой ответ ниже 500 означает, что API доступен.
func (c *Client) Ping(ctx context.Context) error {
	path := c.healthPath
	if path == "" {
		path = "/"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+strings.TrimLeft(path, "/"), nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping asset API: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{Operation: "ping", StatusCode: resp.StatusCode}
	}
	return nil
}

// CheckReady сообщает готовность API активов для /health/ready.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		return "fail", err.Error()
	}
	return "ok", "asset API reachable"
}

// --- Транспорт ---

// do выполняет один вызов. body кодируется в JSON, если не nil; out
// декодируется, если не nil.
func (c *Client) do(ctx context.Context, op, method, reqURL, token string, body, out any, okCodes ...int) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		observe(op, status, err, time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if !containsCode(okCodes, resp.StatusCode) {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("asset API call failed",
			slog.String("operation", op),
			slog.String("method", method),
			slog.Int("status", resp.StatusCode),
		)
		return &StatusError{Operation: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// decodeList принимает JSON-массив или объект с массивом под ключом key.
// Отсутствующий ключ даёт пустой список.
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode list envelope: %w", err)
	}
	inner, ok := envelope[key]
	if !ok {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// errorMessage извлекает читаемое сообщение из тела ошибки.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if m := firstNonEmpty(body.Message, body.Msg, body.Error); m != "" {
			return m
		}
	}
	return strings.TrimSpace(string(raw))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func containsCode(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func normalizeURL(u string) string {
	return strings.TrimRight(u, "/")
}
