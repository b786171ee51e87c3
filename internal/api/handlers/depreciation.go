package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	apierrors "github.com/bigkaa/asset-console/internal/api/errors"
	"github.com/bigkaa/asset-console/internal/domain/depreciation"
)

// DepreciationHandler: таблица категорий и живой пересчёт
// для формы актива.
type DepreciationHandler struct {
	now    func() time.Time
	logger *slog.Logger
}

func NewDepreciationHandler(logger *slog.Logger) *DepreciationHandler {
	return &DepreciationHandler{
		now:    time.Now,
		logger: logger.With(slog.String("component", "api_depreciation")),
	}
}

type categoriesResponse struct {
	Categories []depreciation.Category `json:"categories"`
}

// Имена полей совпадают с полями формы актива. Field: поле,
// которое только что изменили; пусто означает полный пересчёт.
type depreciationRequest struct {
	CostPerItem    string `json:"costPerItem"`
	Quantity       string `json:"quantity"`
	Category       string `json:"category"`
	DateOfRegister string `json:"dateOfRegister"`
	Field          string `json:"field"`
}

// form восстанавливает состояние формы без изменённого поля и затем
// применяет правку, как это произошло на странице.
func (req depreciationRequest) form(now time.Time) *depreciation.Form {
	inputs := map[string]*string{
		depreciation.FieldCostPerItem:    &req.CostPerItem,
		depreciation.FieldQuantity:       &req.Quantity,
		depreciation.FieldCategory:       &req.Category,
		depreciation.FieldDateOfRegister: &req.DateOfRegister,
	}
	edited, ok := inputs[req.Field]
	if !ok {
		return depreciation.NewForm(req.CostPerItem, req.Quantity, req.Category, req.DateOfRegister, now)
	}
	value := *edited
	*edited = ""
	f := depreciation.NewForm(req.CostPerItem, req.Quantity, req.Category, req.DateOfRegister, now)
	f.Apply(req.Field, value, now)
	return f
}

type depreciationResponse struct {
	TotalAmount             string             `json:"totalAmount"`
	DepreciationRate        int                `json:"depreciationRate"`
	UsefulLifeMonths        int                `json:"usefulLifeMonths"`
	MonthlyDepreciation     *string            `json:"monthlyDepreciation"`
	NumberOfMonthsInUse     *int               `json:"numberOfMonthsInUse"`
	AccumulatedDepreciation *string            `json:"accumulatedDepreciation"`
	NumberOfRemainingMonths int                `json:"numberOfRemainingMonths"`
	AsOf                    openapi_types.Date `json:"asOf"`
}

// ListCategories: GET /api/v1/categories.
func (h *DepreciationHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: depreciation.Categories()})
}

// Compute: POST /api/v1/depreciation. Нечитаемые числа считаются нулём,
// поэтому частично заполненная форма тоже получает ответ.
func (h *DepreciationHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req depreciationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		apierrors.ValidationError(w, "invalid JSON body")
		return
	}

	now := h.now()
	f := req.form(now)
	writeJSON(w, http.StatusOK, depreciationResponse{
		TotalAmount:             f.TotalAmount.StringFixed(2),
		DepreciationRate:        f.DepreciationRate,
		UsefulLifeMonths:        f.UsefulLifeMonths,
		MonthlyDepreciation:     optional(f.MonthlyDisplay()),
		NumberOfMonthsInUse:     f.NumberOfMonthsInUse,
		AccumulatedDepreciation: optional(f.AccumulatedDisplay()),
		NumberOfRemainingMonths: f.NumberOfRemainingMonths,
		AsOf:                    openapi_types.Date{Time: now},
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
