package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/domain/rbac"
)

// UserService управляет учётными записями и ролями через внешний API.
type UserService struct {
	api    AssetAPI
	logger *slog.Logger
}

func NewUserService(api AssetAPI, logger *slog.Logger) *UserService {
	return &UserService{
		api:    api,
		logger: logger.With(slog.String("component", "users")),
	}
}

// List возвращает всех пользователей.
func (s *UserService) List(ctx context.Context, sess *model.Session) ([]model.UserRecord, error) {
	users, err := s.api.ListUsers(ctx, sess.Token)
	if err != nil {
		return nil, classify("list users", err)
	}
	return users, nil
}

// Create регистрирует учётную запись. Все поля обязательны.
func (s *UserService) Create(ctx context.Context, sess *model.Session, u model.NewUser) error {
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Email = strings.TrimSpace(u.Email)
	u.Role = rbac.NormalizeRole(u.Role)

	var v validator
	v.require("firstname", u.FirstName)
	v.require("lastname", u.LastName)
	v.require("email", u.Email)
	v.require("password", u.Password)
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		v.fail("email", "invalid email")
	}
	if !rbac.IsValidRole(u.Role) {
		v.fail("role", "unknown role")
	}
	if err := v.err(); err != nil {
		return err
	}

	if err := s.api.CreateUser(ctx, sess.Token, u); err != nil {
		return classify("create user", err)
	}
	s.logger.Info("user created",
		slog.String("email", u.Email),
		slog.String("role", u.Role),
		slog.String("by", sess.Principal.UserID),
	)
	return nil
}

// UpdateRole назначает роль. Нельзя понизить собственную учётную запись
// до user.
func (s *UserService) UpdateRole(ctx context.Context, sess *model.Session, userID, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))

	var v validator
	v.require("userId", userID)
	v.require("role", role)
	if userID != "" && userID == sess.Principal.UserID && role == rbac.RoleUser {
		v.fail("role", "cannot downgrade your own account")
	}
	if err := v.err(); err != nil {
		return err
	}

	if err := s.api.UpdateRole(ctx, sess.Token, userID, role); err != nil {
		return classify("update role", err)
	}
	s.logger.Info("role updated",
		slog.String("target_user_id", userID),
		slog.String("role", role),
		slog.String("by", sess.Principal.UserID),
	)
	return nil
}

// Unassign возвращает пользователю роль user.
func (s *UserService) Unassign(ctx context.Context, sess *model.Session, userID string) error {
	return s.UpdateRole(ctx, sess, userID, rbac.RoleUser)
}
