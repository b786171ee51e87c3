package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bigkaa/asset-console/internal/domain/depreciation"
	"github.com/bigkaa/asset-console/internal/domain/model"
)

// RequestInput: форма заявки на актив от пользователя.
type RequestInput struct {
	FirstName         string
	LastName          string
	Date              string
	Department        string
	DepartmentManager string
	AssetType         string
	Quantity          string
	Description       string
}

// Validate проверяет форму заявки. Необязательно только описание.
func (in RequestInput) Validate() error {
	var v validator
	v.require("firstName", in.FirstName)
	v.require("lastName", in.LastName)
	v.require("date", in.Date)
	v.require("department", in.Department)
	v.require("departmentManager", in.DepartmentManager)
	v.require("assetType", in.AssetType)
	v.require("quantity", in.Quantity)

	if in.Date != "" {
		if _, ok := depreciation.ParseDate(in.Date); !ok {
			v.fail("date", "invalid date")
		}
	}
	if in.AssetType != "" && !slices.Contains(model.AssetTypes, in.AssetType) {
		v.fail("assetType", "unknown asset type")
	}
	if in.Quantity != "" && depreciation.ParseQuantity(in.Quantity) < 1 {
		v.fail("quantity", "must be at least 1")
	}
	return v.err()
}

func (in RequestInput) toNew() model.NewRequest {
	d, _ := depreciation.ParseDate(in.Date)
	return model.NewRequest{
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Date:              d.Format(depreciation.DateLayout),
		Department:        strings.TrimSpace(in.Department),
		DepartmentManager: strings.TrimSpace(in.DepartmentManager),
		AssetType:         in.AssetType,
		Quantity:          depreciation.ParseQuantity(in.Quantity),
		Description:       strings.TrimSpace(in.Description),
	}
}

// RequestService создаёт заявки на активы и принимает по ним решения.
type RequestService struct {
	api    AssetAPI
	now    func() time.Time
	logger *slog.Logger
}

func NewRequestService(api AssetAPI, logger *slog.Logger) *RequestService {
	return &RequestService{
		api:    api,
		now:    time.Now,
		logger: logger.With(slog.String("component", "requests")),
	}
}

// Now возвращает время сервиса; формы берут из него дату по умолчанию.
func (s *RequestService) Now() time.Time {
	return s.now()
}

// WithClock заменяет источник времени.
func (s *RequestService) WithClock(now func() time.Time) *RequestService {
	s.now = now
	return s
}

// List возвращает все заявки для списка согласования.
func (s *RequestService) List(ctx context.Context, sess *model.Session) ([]model.RequestRecord, error) {
	reqs, err := s.api.ListRequests(ctx, sess.Token)
	if err != nil {
		return nil, classify("list requests", err)
	}
	return reqs, nil
}

// Mine возвращает заявки пользователя сессии.
func (s *RequestService) Mine(ctx context.Context, sess *model.Session) ([]model.RequestRecord, error) {
	reqs, err := s.api.ListMyRequests(ctx, sess.Token)
	if err != nil {
		return nil, classify("list my requests", err)
	}
	return reqs, nil
}

// Create создаёт заявку. Новые заявки находятся в ожидании.
func (s *RequestService) Create(ctx context.Context, sess *model.Session, in RequestInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	req := in.toNew()
	if err := s.api.CreateRequest(ctx, sess.Token, req); err != nil {
		return classify("create request", err)
	}
	s.logger.Info("request created",
		slog.String("asset_type", req.AssetType),
		slog.Int64("quantity", req.Quantity),
		slog.String("user_id", sess.Principal.UserID),
	)
	return nil
}

// Decide одобряет или отклоняет заявку в ожидании.
func (s *RequestService) Decide(ctx context.Context, sess *model.Session, id, status string) error {
	to, ok := model.ParseRequestStatus(status)
	if !ok || to == model.StatusPending {
		return &ValidationError{Fields: map[string]string{"status": "must be Approved or Rejected"}}
	}

	reqs, err := s.List(ctx, sess)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(reqs, func(r model.RequestRecord) bool { return r.ID == id })
	if i < 0 {
		return fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	from := reqs[i].Status
	if !model.CanTransition(from, to) {
		return &ValidationError{Fields: map[string]string{
			"status": fmt.Sprintf("request is already %s", from),
		}}
	}

	if err := s.api.UpdateRequestStatus(ctx, sess.Token, id, to); err != nil {
		return classify("update request status", err)
	}
	s.logger.Info("request decided",
		slog.String("request_id", id),
		slog.String("status", string(to)),
		slog.String("by", sess.Principal.UserID),
	)
	return nil
}
