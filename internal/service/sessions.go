// sessions.go: жизненный цикл сессии со скользящим дедлайном неактивности.
//
// Сессия создаётся при входе, продлевается при каждой активности и
// завершается при выходе, истечении токена, отказе API или неактивности.
// Хранилище в PostgreSQL очищается фоновой задачей.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/domain/rbac"
	"github.com/bigkaa/asset-console/internal/repository"
)

// SessionStore хранит сессии. Get возвращает repository.ErrNotFound для
// неизвестных id. Реализации должны быть безопасны для конкурентного доступа.
type SessionStore interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// NewSession: данные, полученные при входе из выданного токена.
type NewSession struct {
	Token     string
	Principal rbac.Principal
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionService владеет сессиями. Внедряется везде, где читается сессия.
type SessionService struct {
	store  SessionStore
	idle   time.Duration
	now    func() time.Time
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

// NewSessionService создаёт сервис. idle: таймаут неактивности.
func NewSessionService(store SessionStore, idle time.Duration, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:  store,
		idle:   idle,
		now:    time.Now,
		logger: logger.With(slog.String("component", "sessions")),
	}
}

// IdleTimeout возвращает таймаут неактивности.
func (s *SessionService) IdleTimeout() time.Duration {
	return s.idle
}

// Create открывает сессию для только что выданного токена.
func (s *SessionService) Create(ctx context.Context, in NewSession) (*model.Session, error) {
	now := s.now()
	sess := &model.Session{
		ID:             uuid.New().String(),
		Principal:      in.Principal,
		Token:          in.Token,
		TokenIssuedAt:  in.IssuedAt,
		TokenExpiresAt: in.ExpiresAt,
		CreatedAt:      now,
	}
	sess.Touch(now, s.idle)

	if sess.ExpiredAt(now) != "" {
		return nil, fmt.Errorf("create session: token already expired: %w", ErrAuthenticationMissing)
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session created",
		slog.String("session_id", sess.ID),
		slog.String("user_id", sess.Principal.UserID),
		slog.String("role", sess.Principal.Role),
	)
	return sess, nil
}

// Resolve возвращает действующую сессию и отмечает активность.
// Для неизвестных и истёкших сессий возвращается ErrAuthenticationMissing;
// истёкшие удаляются.
func (s *SessionService) Resolve(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return nil, ErrAuthenticationMissing
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthenticationMissing
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	now := s.now()
	if reason := sess.ExpiredAt(now); reason != "" {
		if err := s.store.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to delete expired session",
				slog.String("session_id", id),
				slog.String("error", err.Error()),
			)
		}
		s.logger.Info("session expired",
			slog.String("session_id", id),
			slog.String("reason", reason),
		)
		return nil, fmt.Errorf("session %s: %w", reason, ErrAuthenticationMissing)
	}

	sess.Touch(now, s.idle)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return sess, nil
}

// Destroy завершает сессию. Неизвестные id игнорируются.
func (s *SessionService) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	s.logger.Info("session destroyed", slog.String("session_id", id))
	return nil
}

// Sweep удаляет истёкшие сессии из хранилища.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if n > 0 {
		s.logger.Debug("expired sessions removed", slog.Int64("count", n))
	}
	return n, nil
}

// StartSweeper вызывает Sweep каждые interval до Stop или отмены ctx.
func (s *SessionService) StartSweeper(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || interval <= 0 {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	s.done = done

	go func() {
		defer close(done)
		s.logger.Info("session sweeper started", slog.Duration("interval", interval))

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("session sweeper stopped")
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.logger.Error("session sweep failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// Stop останавливает очистку и ждёт её завершения.
func (s *SessionService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
