// health.go: health endpoints.
// /health/live: процесс жив
// /health/ready: API активов (и PostgreSQL, если сессии хранятся там) отвечают
// /metrics: метрики Prometheus
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/asset-console/internal/config"
)

const serviceName = "asset-console"

// ReadinessChecker сообщает состояние одной зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает "ok", "degraded" или "fail" и сообщение.
	CheckReady() (status string, message string)
}

// HealthHandler обслуживает health endpoints.
type HealthHandler struct {
	apiChecker  ReadinessChecker
	dbChecker   ReadinessChecker
	promHandler http.Handler
}

// NewHealthHandler создаёт handler. dbChecker равен nil, когда
// сессии хранятся в памяти; проверка postgresql тогда не выполняется.
func NewHealthHandler(apiChecker, dbChecker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		apiChecker:  apiChecker,
		dbChecker:   dbChecker,
		promHandler: promhttp.Handler(),
	}
}

type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		AssetAPI   healthCheckResult  `json:"assetApi"`
		PostgreSQL *healthCheckResult `json:"postgresql,omitempty"`
	} `json:"checks"`
}

// HealthLive всегда отвечает 200.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady отвечает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	resp.Checks.AssetAPI = check(h.apiChecker)
	statuses := []string{resp.Checks.AssetAPI.Status}
	if h.dbChecker != nil {
		pg := check(h.dbChecker)
		resp.Checks.PostgreSQL = &pg
		statuses = append(statuses, pg.Status)
	}
	resp.Status = overallStatus(statuses...)

	status := http.StatusOK
	if resp.Status == "fail" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GetMetrics отдаёт реестр Prometheus.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

func check(c ReadinessChecker) healthCheckResult {
	if c == nil {
		return healthCheckResult{Status: "fail", Message: "not initialised"}
	}
	status, msg := c.CheckReady()
	return healthCheckResult{Status: status, Message: msg}
}

// overallStatus: любой fail даёт fail, затем любой degraded даёт degraded.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == "fail" {
			return "fail"
		}
		if s == "degraded" {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return "degraded"
	}
	return "ok"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
