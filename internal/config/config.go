// Пакет config: загрузка и валидация конфигурации Asset Console
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Виды хранилища сессий.
const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
)

// Config содержит все параметры конфигурации Asset Console.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Внешний API активов ---

	// Базовый URL API активов, пользователей и заявок, без завершающего слэша
	APIBaseURL string
	// Таймаут одного запроса к API активов
	APITimeout time.Duration
	// Путь к CA-сертификату для TLS-соединений с API активов (опционально)
	APICACertPath string
	// Путь для проверок readiness и зависимостей
	APIHealthPath string
	// Endpoint смены роли, абсолютный или относительно APIBaseURL; ":id" и "{id}" подставляются
	RoleUpdateURL string
	// HTTP-метод endpoint смены роли (PATCH, PUT, POST)
	RoleUpdateMethod string
	// Путь смены статуса заявки относительно APIBaseURL; "{id}" подставляется
	RequestStatusPath string

	// --- Токены ---

	// URL JWKS для проверки подписи (опционально)
	JWTJWKSURL string
	// Общий HMAC-секрет для проверки подписи (опционально)
	JWTSecret string
	// Допустимое расхождение часов для exp/iat
	JWTLeeway time.Duration
	// Интервал обновления JWKS
	JWKSRefreshInterval time.Duration

	// --- Сессии ---

	// Скользящий таймаут неактивности
	SessionIdleTimeout time.Duration
	// Ключ шифрования cookie (base64 от 32 байт или произвольная строка)
	SessionSecret string
	// Выставлять Secure для cookie сессии
	SessionSecureCookie bool
	// Хранилище сессий: memory или postgres
	SessionStore string
	// Максимум сессий в хранилище в памяти
	SessionCacheSize int
	// Интервал очистки истёкших сессий (хранилище postgres)
	SessionSweepInterval time.Duration

	// --- PostgreSQL (только для хранилища сессий postgres) ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Мониторинг зависимостей ---

	// Метка group для dephealth
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Отображение ---

	// Код валюты для отображения сумм
	Currency string

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// AC_PORT: порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("AC_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("AC_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("AC_PORT: value %d out of range 1-65535", cfg.Port)
	}

	// AC_LOG_LEVEL: уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("AC_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("AC_LOG_LEVEL: %w", err)
	}

	// AC_LOG_FORMAT: формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("AC_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("AC_LOG_FORMAT: invalid value %q, allowed: json, text", cfg.LogFormat)
	}

	// --- Внешний API активов ---

	// AC_API_BASE_URL: обязательный
	cfg.APIBaseURL, err = getEnvRequired("AC_API_BASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	// AC_API_TIMEOUT: таймаут запроса (по умолчанию 30s)
	cfg.APITimeout, err = getEnvDuration("AC_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AC_API_TIMEOUT: %w", err)
	}

	// AC_API_CA_CERT_PATH: опционально
	cfg.APICACertPath = getEnvDefault("AC_API_CA_CERT_PATH", "")

	// AC_API_HEALTH_PATH: по умолчанию "/"
	cfg.APIHealthPath = getEnvDefault("AC_API_HEALTH_PATH", "/")

	// AC_ROLE_UPDATE_URL: по умолчанию /api/users/updateRole
	cfg.RoleUpdateURL = getEnvDefault("AC_ROLE_UPDATE_URL", "/api/users/updateRole")

	// AC_ROLE_UPDATE_METHOD: по умолчанию PATCH
	cfg.RoleUpdateMethod = strings.ToUpper(getEnvDefault("AC_ROLE_UPDATE_METHOD", http.MethodPatch))
	switch cfg.RoleUpdateMethod {
	case http.MethodPatch, http.MethodPut, http.MethodPost:
	default:
		return nil, fmt.Errorf("AC_ROLE_UPDATE_METHOD: invalid value %q, allowed: PATCH, PUT, POST", cfg.RoleUpdateMethod)
	}

	// AC_REQUEST_STATUS_PATH: по умолчанию /api/request/{id}/status
	cfg.RequestStatusPath = getEnvDefault("AC_REQUEST_STATUS_PATH", "/api/request/{id}/status")
	if !strings.Contains(cfg.RequestStatusPath, "{id}") {
		return nil, fmt.Errorf("AC_REQUEST_STATUS_PATH: %q must contain {id}", cfg.RequestStatusPath)
	}

	// --- Токены ---

	cfg.JWTJWKSURL = getEnvDefault("AC_JWT_JWKS_URL", "")
	cfg.JWTSecret = getEnvDefault("AC_JWT_SECRET", "")
	if cfg.JWTJWKSURL != "" && cfg.JWTSecret != "" {
		return nil, fmt.Errorf("AC_JWT_JWKS_URL and AC_JWT_SECRET are mutually exclusive")
	}

	// AC_JWT_LEEWAY: по умолчанию 30s
	cfg.JWTLeeway, err = getEnvDuration("AC_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AC_JWT_LEEWAY: %w", err)
	}

	// AC_JWKS_REFRESH_INTERVAL: по умолчанию 15m
	cfg.JWKSRefreshInterval, err = getEnvDuration("AC_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("AC_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// --- Сессии ---

	// AC_SESSION_IDLE_TIMEOUT: по умолчанию 240s
	cfg.SessionIdleTimeout, err = getEnvDuration("AC_SESSION_IDLE_TIMEOUT", 240*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AC_SESSION_IDLE_TIMEOUT: %w", err)
	}
	if cfg.SessionIdleTimeout <= 0 {
		return nil, fmt.Errorf("AC_SESSION_IDLE_TIMEOUT: must be positive")
	}

	// AC_SESSION_SECRET: пустое значение означает случайный ключ на процесс
	cfg.SessionSecret = getEnvDefault("AC_SESSION_SECRET", "")

	cfg.SessionSecureCookie, err = getEnvBool("AC_SESSION_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("AC_SESSION_SECURE_COOKIE: %w", err)
	}

	// AC_SESSION_STORE: memory (по умолчанию) или postgres
	cfg.SessionStore = strings.ToLower(getEnvDefault("AC_SESSION_STORE", SessionStoreMemory))
	if cfg.SessionStore != SessionStoreMemory && cfg.SessionStore != SessionStorePostgres {
		return nil, fmt.Errorf("AC_SESSION_STORE: invalid value %q, allowed: memory, postgres", cfg.SessionStore)
	}

	// AC_SESSION_CACHE_SIZE: по умолчанию 10000
	cfg.SessionCacheSize, err = getEnvInt("AC_SESSION_CACHE_SIZE", 10000)
	if err != nil {
		return nil, fmt.Errorf("AC_SESSION_CACHE_SIZE: %w", err)
	}
	if cfg.SessionCacheSize < 1 {
		return nil, fmt.Errorf("AC_SESSION_CACHE_SIZE: value %d must be at least 1", cfg.SessionCacheSize)
	}

	// AC_SESSION_SWEEP_INTERVAL: по умолчанию 1m
	cfg.SessionSweepInterval, err = getEnvDuration("AC_SESSION_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("AC_SESSION_SWEEP_INTERVAL: %w", err)
	}

	// --- PostgreSQL ---

	if err := loadDatabase(cfg); err != nil {
		return nil, err
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("AC_DEPHEALTH_GROUP", "asset-console")

	// AC_DEPHEALTH_CHECK_INTERVAL: по умолчанию 15s
	cfg.DephealthCheckInterval, err = getEnvDuration("AC_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AC_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Отображение ---

	cfg.Currency = strings.ToUpper(getEnvDefault("AC_CURRENCY", "TZS"))

	// --- Graceful shutdown ---

	// AC_SHUTDOWN_TIMEOUT: по умолчанию 5s
	cfg.ShutdownTimeout, err = getEnvDuration("AC_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AC_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase читает переменные AC_DB_*. Обязательны только когда
// сессии хранятся в PostgreSQL.
func loadDatabase(cfg *Config) error {
	var err error
	required := cfg.SessionStore == SessionStorePostgres

	read := func(key string) (string, error) {
		if required {
			return getEnvRequired(key)
		}
		return getEnvDefault(key, ""), nil
	}

	if cfg.DBHost, err = read("AC_DB_HOST"); err != nil {
		return err
	}
	cfg.DBPort, err = getEnvInt("AC_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("AC_DB_PORT: %w", err)
	}
	if cfg.DBName, err = read("AC_DB_NAME"); err != nil {
		return err
	}
	if cfg.DBUser, err = read("AC_DB_USER"); err != nil {
		return err
	}
	if cfg.DBPassword, err = read("AC_DB_PASSWORD"); err != nil {
		return err
	}

	cfg.DBSSLMode = getEnvDefault("AC_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("AC_DB_SSL_MODE: invalid value %q, allowed: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// DatabaseEnabled сообщает, нужен ли сервису PostgreSQL.
func (c *Config) DatabaseEnabled() bool {
	return c.SessionStore == SessionStorePostgres
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// APIHealthURL возвращает абсолютный URL проверки здоровья API активов.
func (c *Config) APIHealthURL() string {
	path := c.APIHealthPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.APIBaseURL + path
}

// SetupLogger настраивает глобальный slog-логгер.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: required environment variable is not set", key)
	}
	return val, nil
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %q", val)
	}
	return n, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid boolean: %q", val)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q (use Go format: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строковый уровень в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid level %q, allowed: debug, info, warn, error", level)
	}
}
