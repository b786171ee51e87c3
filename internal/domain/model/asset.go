package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetRecord: основное средство в том виде, как его хранит внешний API.
type AssetRecord struct {
	ID                string
	TagNumber         string
	DateOfRegister    time.Time
	ItemDescription   string
	Department        string
	DepartmentManager PersonRef
	User              PersonRef
	PhysicalLocation  string
	AssetCondition    string
	Quantity          int64
	Category          string
	CostPerItem       decimal.Decimal
	InvoiceNumber     string

	TotalAmount             decimal.Decimal
	DepreciationRate        decimal.Decimal
	UsefulLifeMonths        int64
	MonthlyDepreciation     decimal.NullDecimal
	NumberOfMonthsInUse     int64
	AccumulatedDepreciation decimal.NullDecimal
	NumberOfRemainingMonths int64
}

type assetWire struct {
	ID                      string      `json:"_id"`
	AltID                   string      `json:"id"`
	TagNumber               string      `json:"tagNumber"`
	DateOfRegister          flexTime    `json:"dateOfRegister"`
	ItemDescription         string      `json:"itemDescription"`
	Department              string      `json:"department"`
	DepartmentManager       PersonRef   `json:"departmentManager"`
	User                    PersonRef   `json:"user"`
	PhysicalLocation        string      `json:"physicalLocation"`
	AssetCondition          string      `json:"assetCondition"`
	Quantity                flexDecimal `json:"quantity"`
	Category                string      `json:"category"`
	CostPerItem             flexDecimal `json:"costPerItem"`
	InvoiceNumber           string      `json:"invoiceNumber"`
	TotalAmount             flexDecimal `json:"totalAmount"`
	DepreciationRate        flexDecimal `json:"depreciationRate"`
	UsefulLifeMonths        flexDecimal `json:"usefulLifeMonths"`
	MonthlyDepreciation     flexDecimal `json:"monthlyDepreciation"`
	NumberOfMonthsInUse     flexDecimal `json:"numberOfMonthsInUse"`
	AccumulatedDepreciation flexDecimal `json:"accumulatedDepreciation"`
	NumberOfRemainingMonths flexDecimal `json:"numberOfRemainingMonths"`
}

func (a *AssetRecord) UnmarshalJSON(b []byte) error {
	var w assetWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode asset: %w", err)
	}
	*a = AssetRecord{
		ID:                      firstNonEmpty(w.ID, w.AltID),
		TagNumber:               w.TagNumber,
		DateOfRegister:          w.DateOfRegister.Time,
		ItemDescription:         w.ItemDescription,
		Department:              w.Department,
		DepartmentManager:       w.DepartmentManager,
		User:                    w.User,
		PhysicalLocation:        w.PhysicalLocation,
		AssetCondition:          w.AssetCondition,
		Quantity:                w.Quantity.int(),
		Category:                w.Category,
		CostPerItem:             w.CostPerItem.value(),
		InvoiceNumber:           w.InvoiceNumber,
		TotalAmount:             w.TotalAmount.value(),
		DepreciationRate:        w.DepreciationRate.value(),
		UsefulLifeMonths:        w.UsefulLifeMonths.int(),
		MonthlyDepreciation:     w.MonthlyDepreciation.NullDecimal,
		NumberOfMonthsInUse:     w.NumberOfMonthsInUse.int(),
		AccumulatedDepreciation: w.AccumulatedDepreciation.NullDecimal,
		NumberOfRemainingMonths: w.NumberOfRemainingMonths.int(),
	}
	return nil
}

// MarshalJSON формирует тело запроса создания и обновления.
// Ссылки на пользователей передаются как id, id записи не передаётся.
func (a AssetRecord) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"tagNumber":               a.TagNumber,
		"dateOfRegister":          formatDate(a.DateOfRegister),
		"itemDescription":         a.ItemDescription,
		"department":              a.Department,
		"departmentManager":       a.DepartmentManager.ID,
		"user":                    a.User.ID,
		"physicalLocation":        a.PhysicalLocation,
		"assetCondition":          a.AssetCondition,
		"quantity":                a.Quantity,
		"category":                a.Category,
		"costPerItem":             jsonNumber(a.CostPerItem),
		"invoiceNumber":           a.InvoiceNumber,
		"totalAmount":             jsonNumber(a.TotalAmount),
		"depreciationRate":        jsonNumber(a.DepreciationRate),
		"usefulLifeMonths":        a.UsefulLifeMonths,
		"numberOfMonthsInUse":     a.NumberOfMonthsInUse,
		"numberOfRemainingMonths": a.NumberOfRemainingMonths,
	}
	if a.MonthlyDepreciation.Valid {
		out["monthlyDepreciation"] = jsonNumber(a.MonthlyDepreciation.Decimal.Round(2))
	}
	if a.AccumulatedDepreciation.Valid {
		out["accumulatedDepreciation"] = jsonNumber(a.AccumulatedDepreciation.Decimal.Round(2))
	}
	return json.Marshal(out)
}

// RegisteredOn возвращает дату регистрации в формате YYYY-MM-DD.
func (a AssetRecord) RegisteredOn() string {
	return formatDate(a.DateOfRegister)
}

// InvoiceOrNA возвращает номер счёта или "N/A".
func (a AssetRecord) InvoiceOrNA() string {
	if strings.TrimSpace(a.InvoiceNumber) == "" {
		return "N/A"
	}
	return a.InvoiceNumber
}

// SearchText объединяет отображаемые поля для полнотекстового поиска.
func (a AssetRecord) SearchText() string {
	parts := []string{
		a.ID, a.TagNumber, a.RegisteredOn(), a.ItemDescription, a.Department,
		a.DepartmentManager.DisplayName(), a.User.DisplayName(),
		a.PhysicalLocation, a.AssetCondition, fmt.Sprint(a.Quantity), a.Category,
		a.CostPerItem.String(), a.InvoiceNumber, a.TotalAmount.String(),
		a.DepreciationRate.String(), fmt.Sprint(a.UsefulLifeMonths),
		fmt.Sprint(a.NumberOfMonthsInUse), fmt.Sprint(a.NumberOfRemainingMonths),
	}
	if a.MonthlyDepreciation.Valid {
		parts = append(parts, a.MonthlyDepreciation.Decimal.StringFixed(2))
	}
	if a.AccumulatedDepreciation.Valid {
		parts = append(parts, a.AccumulatedDepreciation.Decimal.StringFixed(2))
	}
	return strings.ToLower(strings.Join(parts, " "))
}
