package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RequestStatus: статус согласования заявки на актив.
type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusApproved RequestStatus = "Approved"
	StatusRejected RequestStatus = "Rejected"
)

// RequestStatuses: статусы в порядке отображения.
var RequestStatuses = []RequestStatus{StatusPending, StatusApproved, StatusRejected}

// ParseRequestStatus сопоставляет статус без учёта регистра.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	for _, st := range RequestStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// CanTransition сообщает, допустим ли переход заявки между статусами.
// Решение принимается только по заявкам в ожидании.
func CanTransition(from, to RequestStatus) bool {
	return from == StatusPending && (to == StatusApproved || to == StatusRejected)
}

// AssetTypes: типы активов, которые может запросить пользователь.
var AssetTypes = []string{"Laptop", "Desktop", "Printer", "Stationery", "Cartridge", "Furniture"}

// RequestRecord: заявка пользователя на актив.
type RequestRecord struct {
	ID                string
	FirstName         string
	LastName          string
	Date              time.Time
	Department        string
	DepartmentManager PersonRef
	AssetType         string
	Quantity          int64
	Description       string
	Status            RequestStatus
	CreatedAt         time.Time
}

func (r *RequestRecord) UnmarshalJSON(b []byte) error {
	var w struct {
		ID                string      `json:"_id"`
		AltID             string      `json:"id"`
		FirstName         string      `json:"firstName"`
		LastName          string      `json:"lastName"`
		Date              flexTime    `json:"date"`
		Department        string      `json:"department"`
		DepartmentManager PersonRef   `json:"departmentManager"`
		AssetType         string      `json:"assetType"`
		Quantity          flexDecimal `json:"quantity"`
		Description       string      `json:"description"`
		Status            string      `json:"status"`
		CreatedAt         flexTime    `json:"createdAt"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	status, ok := ParseRequestStatus(w.Status)
	if !ok {
		status = StatusPending
	}
	*r = RequestRecord{
		ID:                firstNonEmpty(w.ID, w.AltID),
		FirstName:         w.FirstName,
		LastName:          w.LastName,
		Date:              w.Date.Time,
		Department:        w.Department,
		DepartmentManager: w.DepartmentManager,
		AssetType:         w.AssetType,
		Quantity:          w.Quantity.int(),
		Description:       w.Description,
		Status:            status,
		CreatedAt:         w.CreatedAt.Time,
	}
	return nil
}

// RequestedOn возвращает дату заявки в формате YYYY-MM-DD.
func (r RequestRecord) RequestedOn() string {
	return formatDate(r.Date)
}

// SearchText: текст для поиска в списке согласования.
func (r RequestRecord) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		r.FirstName, r.LastName, r.Department, r.AssetType,
	}, " "))
}

// NewRequest: тело запроса создания заявки.
type NewRequest struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Date              string `json:"date"`
	Department        string `json:"department"`
	DepartmentManager string `json:"departmentManager"`
	AssetType         string `json:"assetType"`
	Quantity          int64  `json:"quantity"`
	Description       string `json:"description"`
}
