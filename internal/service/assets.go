package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bigkaa/asset-console/internal/domain/depreciation"
	"github.com/bigkaa/asset-console/internal/domain/model"
)

// AssetInput: форма актива в том виде, как отправлена. Пользователи,
// расположение и состояние необязательны.
type AssetInput struct {
	TagNumber         string
	DateOfRegister    string
	ItemDescription   string
	Department        string
	DepartmentManager string
	User              string
	PhysicalLocation  string
	AssetCondition    string
	Quantity          string
	Category          string
	CostPerItem       string
	InvoiceNumber     string
}

// InputFromRecord заполняет форму по сохранённому активу для редактирования.
func InputFromRecord(a model.AssetRecord) AssetInput {
	return AssetInput{
		TagNumber:         a.TagNumber,
		DateOfRegister:    a.RegisteredOn(),
		ItemDescription:   a.ItemDescription,
		Department:        a.Department,
		DepartmentManager: a.DepartmentManager.ID,
		User:              a.User.ID,
		PhysicalLocation:  a.PhysicalLocation,
		AssetCondition:    a.AssetCondition,
		Quantity:          fmt.Sprint(a.Quantity),
		Category:          a.Category,
		CostPerItem:       a.CostPerItem.String(),
		InvoiceNumber:     a.InvoiceNumber,
	}
}

// Validate отклоняет неполный или некорректный ввод без сетевых вызовов.
func (in AssetInput) Validate() error {
	var v validator
	v.require("tagNumber", in.TagNumber)
	v.require("dateOfRegister", in.DateOfRegister)
	v.require("itemDescription", in.ItemDescription)
	v.require("department", in.Department)
	v.require("quantity", in.Quantity)
	v.require("category", in.Category)
	v.require("costPerItem", in.CostPerItem)
	v.require("invoiceNumber", in.InvoiceNumber)

	if in.DateOfRegister != "" {
		if _, ok := depreciation.ParseDate(in.DateOfRegister); !ok {
			v.fail("dateOfRegister", "invalid date")
		}
	}
	if in.Quantity != "" && depreciation.ParseQuantity(in.Quantity) < 1 {
		v.fail("quantity", "must be at least 1")
	}
	if in.CostPerItem != "" && !depreciation.ParseAmount(in.CostPerItem).IsPositive() {
		v.fail("costPerItem", "must be greater than 0")
	}
	if in.Category != "" {
		if _, ok := depreciation.Lookup(in.Category); !ok {
			v.fail("category", "unknown category")
		}
	}
	return v.err()
}

// Form возвращает форму амортизации для ввода на момент now.
func (in AssetInput) Form(now time.Time) *depreciation.Form {
	return depreciation.NewForm(in.CostPerItem, in.Quantity, in.Category, in.DateOfRegister, now)
}

// Record строит запись для API с производными полями на момент now.
func (in AssetInput) Record(now time.Time) model.AssetRecord {
	f := in.Form(now)
	registered, _ := depreciation.ParseDate(in.DateOfRegister)

	rec := model.AssetRecord{
		TagNumber:               strings.TrimSpace(in.TagNumber),
		DateOfRegister:          registered,
		ItemDescription:         strings.TrimSpace(in.ItemDescription),
		Department:              strings.TrimSpace(in.Department),
		DepartmentManager:       model.PersonRef{ID: in.DepartmentManager},
		User:                    model.PersonRef{ID: in.User},
		PhysicalLocation:        strings.TrimSpace(in.PhysicalLocation),
		AssetCondition:          strings.TrimSpace(in.AssetCondition),
		Quantity:                depreciation.ParseQuantity(in.Quantity),
		Category:                in.Category,
		CostPerItem:             depreciation.ParseAmount(in.CostPerItem),
		InvoiceNumber:           strings.TrimSpace(in.InvoiceNumber),
		TotalAmount:             f.TotalAmount,
		DepreciationRate:        decimal.NewFromInt(int64(f.DepreciationRate)),
		UsefulLifeMonths:        int64(f.UsefulLifeMonths),
		MonthlyDepreciation:     f.MonthlyDepreciation,
		AccumulatedDepreciation: f.AccumulatedDepreciation,
		NumberOfRemainingMonths: int64(f.NumberOfRemainingMonths),
	}
	if f.NumberOfMonthsInUse != nil {
		rec.NumberOfMonthsInUse = int64(*f.NumberOfMonthsInUse)
	}
	return rec
}

// AssetService управляет активами через внешний API.
type AssetService struct {
	api    AssetAPI
	now    func() time.Time
	logger *slog.Logger
}

func NewAssetService(api AssetAPI, logger *slog.Logger) *AssetService {
	return &AssetService{
		api:    api,
		now:    time.Now,
		logger: logger.With(slog.String("component", "assets")),
	}
}

// Now возвращает текущее время сервиса.
func (s *AssetService) Now() time.Time {
	return s.now()
}

// WithClock заменяет источник времени для производных значений.
func (s *AssetService) WithClock(now func() time.Time) *AssetService {
	s.now = now
	return s
}

// List возвращает все активы.
func (s *AssetService) List(ctx context.Context, sess *model.Session) ([]model.AssetRecord, error) {
	assets, err := s.api.ListAssets(ctx, sess.Token)
	if err != nil {
		return nil, classify("list assets", err)
	}
	return assets, nil
}

// Get находит актив по id.
func (s *AssetService) Get(ctx context.Context, sess *model.Session, id string) (model.AssetRecord, error) {
	assets, err := s.List(ctx, sess)
	if err != nil {
		return model.AssetRecord{}, err
	}
	for _, a := range assets {
		if a.ID == id {
			return a, nil
		}
	}
	return model.AssetRecord{}, fmt.Errorf("asset %s: %w", id, ErrNotFound)
}

// Create валидирует ввод, вычисляет амортизацию и сохраняет актив.
// Повторные отправки не отсеиваются.
func (s *AssetService) Create(ctx context.Context, sess *model.Session, in AssetInput) (model.AssetRecord, error) {
	if err := in.Validate(); err != nil {
		return model.AssetRecord{}, err
	}
	rec := in.Record(s.now())
	if err := s.api.CreateAsset(ctx, sess.Token, rec); err != nil {
		return model.AssetRecord{}, classify("create asset", err)
	}
	s.logger.Info("asset created",
		slog.String("tag_number", rec.TagNumber),
		slog.String("category", rec.Category),
		slog.String("user_id", sess.Principal.UserID),
	)
	return rec, nil
}

// Update валидирует ввод, пересчитывает производные поля и заменяет актив.
func (s *AssetService) Update(ctx context.Context, sess *model.Session, id string, in AssetInput) (model.AssetRecord, error) {
	if strings.TrimSpace(id) == "" {
		return model.AssetRecord{}, &ValidationError{Fields: map[string]string{"id": "required"}}
	}
	if err := in.Validate(); err != nil {
		return model.AssetRecord{}, err
	}
	rec := in.Record(s.now())
	rec.ID = id
	if err := s.api.UpdateAsset(ctx, sess.Token, id, rec); err != nil {
		return model.AssetRecord{}, classify("update asset", err)
	}
	s.logger.Info("asset updated",
		slog.String("asset_id", id),
		slog.String("user_id", sess.Principal.UserID),
	)
	return rec, nil
}

// Delete удаляет актив.
func (s *AssetService) Delete(ctx context.Context, sess *model.Session, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Fields: map[string]string{"id": "required"}}
	}
	if err := s.api.DeleteAsset(ctx, sess.Token, id); err != nil {
		return classify("delete asset", err)
	}
	s.logger.Info("asset deleted",
		slog.String("asset_id", id),
		slog.String("user_id", sess.Principal.UserID),
	)
	return nil
}
