package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/asset-console/internal/domain/model"
)

// SessionRepository хранит сессии консоли в таблице sessions.
type SessionRepository interface {
	// Get возвращает сессию по id или ErrNotFound.
	Get(ctx context.Context, id string) (*model.Session, error)
	// Save вставляет или заменяет сессию.
	Save(ctx context.Context, s *model.Session) error
	// Delete удаляет сессию; удаление отсутствующей сессии не ошибка.
	Delete(ctx context.Context, id string) error
	// DeleteExpired удаляет сессии с прошедшим дедлайном или истёкшим токеном.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	db DBTX
}

// NewSessionRepository создаёт репозиторий сессий PostgreSQL.
func NewSessionRepository(db DBTX) SessionRepository {
	return &sessionRepo{db: db}
}

const sessionColumns = `id, user_id, role, email, token, token_issued_at, token_expires_at, idle_deadline, created_at`

func (r *sessionRepo) Get(ctx context.Context, id string) (*model.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns)

	var (
		s         model.Session
		issuedAt  *time.Time
		expiresAt *time.Time
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Principal.UserID, &s.Principal.Role, &s.Principal.Email, &s.Token,
		&issuedAt, &expiresAt, &s.IdleDeadline, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if issuedAt != nil {
		s.TokenIssuedAt = *issuedAt
	}
	if expiresAt != nil {
		s.TokenExpiresAt = *expiresAt
	}
	return &s, nil
}

func (r *sessionRepo) Save(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, role, email, token, token_issued_at, token_expires_at, idle_deadline, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			role = EXCLUDED.role,
			email = EXCLUDED.email,
			token = EXCLUDED.token,
			token_issued_at = EXCLUDED.token_issued_at,
			token_expires_at = EXCLUDED.token_expires_at,
			idle_deadline = EXCLUDED.idle_deadline`

	_, err := r.db.Exec(ctx, query,
		s.ID, s.Principal.UserID, s.Principal.Role, s.Principal.Email, s.Token,
		nullTime(s.TokenIssuedAt), nullTime(s.TokenExpiresAt), s.IdleDeadline, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM sessions
		WHERE idle_deadline <= $1
		   OR (token_expires_at IS NOT NULL AND token_expires_at <= $1)`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// nullTime отображает нулевое время в SQL NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
