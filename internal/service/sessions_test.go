package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/domain/rbac"
	"github.com/bigkaa/asset-console/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeClock: управляемый источник времени.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestSessions(t *testing.T, idle time.Duration) (*SessionService, *MemorySessionStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	// TTL в LRU идёт по реальным часам, держим его заметно выше сдвигов теста
	store := NewMemorySessionStore(100, time.Hour)
	svc := NewSessionService(store, idle, testLogger())
	svc.now = clock.Now
	return svc, store, clock
}

func TestSessionService_IdleTimeout(t *testing.T) {
	svc, _, clock := newTestSessions(t, 240*time.Second)
	ctx := context.Background()

	sess, err := svc.Create(ctx, NewSession{
		Token:     "tok",
		Principal: rbac.Principal{UserID: "u1", Role: rbac.RoleAdmin},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// активность внутри окна сохраняет сессию и сдвигает дедлайн
	clock.Advance(200 * time.Second)
	if _, err := svc.Resolve(ctx, sess.ID); err != nil {
		t.Fatalf("Resolve at 200s: %v", err)
	}
	clock.Advance(200 * time.Second)
	if _, err := svc.Resolve(ctx, sess.ID); err != nil {
		t.Fatalf("Resolve at 400s after activity: %v", err)
	}

	// нет активности всё окно
	clock.Advance(240 * time.Second)
	if _, err := svc.Resolve(ctx, sess.ID); !errors.Is(err, ErrAuthenticationMissing) {
		t.Fatalf("Resolve after idle = %v, want ErrAuthenticationMissing", err)
	}

	// сессия завершена: последующий поиск тоже неуспешен
	if _, err := svc.Resolve(ctx, sess.ID); !errors.Is(err, ErrAuthenticationMissing) {
		t.Errorf("Resolve after teardown = %v", err)
	}
}

func TestSessionService_TokenExpiry(t *testing.T) {
	svc, _, clock := newTestSessions(t, time.Hour)
	ctx := context.Background()

	sess, err := svc.Create(ctx, NewSession{
		Token:     "tok",
		Principal: rbac.Principal{UserID: "u1", Role: rbac.RoleUser},
		ExpiresAt: clock.Now().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	clock.Advance(61 * time.Second)
	if _, err := svc.Resolve(ctx, sess.ID); !errors.Is(err, ErrAuthenticationMissing) {
		t.Errorf("Resolve past token exp = %v, want ErrAuthenticationMissing", err)
	}
}

func TestSessionService_CreateWithExpiredToken(t *testing.T) {
	svc, _, clock := newTestSessions(t, time.Hour)

	_, err := svc.Create(context.Background(), NewSession{
		Token:     "tok",
		ExpiresAt: clock.Now().Add(-time.Second),
	})
	if !errors.Is(err, ErrAuthenticationMissing) {
		t.Errorf("Create with expired token = %v, want ErrAuthenticationMissing", err)
	}
}

func TestSessionService_Destroy(t *testing.T) {
	svc, store, _ := newTestSessions(t, time.Hour)
	ctx := context.Background()

	sess, _ := svc.Create(ctx, NewSession{Token: "tok", Principal: rbac.Principal{UserID: "u1"}})
	if err := svc.Destroy(ctx, sess.ID); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d sessions after Destroy", store.Len())
	}
	if _, err := svc.Resolve(ctx, sess.ID); !errors.Is(err, ErrAuthenticationMissing) {
		t.Errorf("Resolve after Destroy = %v", err)
	}
	if err := svc.Destroy(ctx, "unknown"); err != nil {
		t.Errorf("Destroy(unknown) = %v", err)
	}
}

func TestSessionService_Sweep(t *testing.T) {
	svc, store, clock := newTestSessions(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, NewSession{Token: "tok"}); err != nil {
			t.Fatal(err)
		}
	}
	clock.Advance(30 * time.Second)
	fresh, _ := svc.Create(ctx, NewSession{Token: "tok"})

	clock.Advance(45 * time.Second)
	n, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 3 {
		t.Errorf("Sweep removed %d sessions, want 3", n)
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Errorf("fresh session removed: %v", err)
	}
}

func TestSessionService_SweeperStops(t *testing.T) {
	svc, _, _ := newTestSessions(t, time.Minute)
	svc.StartSweeper(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	svc.Stop()
	// повторный Stop ничего не делает
	svc.Stop()
}

func TestMemorySessionStore_ReturnsCopies(t *testing.T) {
	store := NewMemorySessionStore(10, time.Hour)
	ctx := context.Background()

	s := &model.Session{ID: "s1", Token: "a"}
	_ = store.Save(ctx, s)
	s.Token = "mutated"

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Token != "a" {
		t.Errorf("stored session shares memory with the caller: %q", got.Token)
	}
	got.Token = "changed"
	again, _ := store.Get(ctx, "s1")
	if again.Token != "a" {
		t.Errorf("Get returned the stored pointer: %q", again.Token)
	}
}

func TestMemorySessionStore_TTLExpiration(t *testing.T) {
	store := NewMemorySessionStore(10, 50*time.Millisecond)
	ctx := context.Background()

	_ = store.Save(ctx, &model.Session{ID: "ttl"})
	if _, err := store.Get(ctx, "ttl"); err != nil {
		t.Fatalf("Get right after Save: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := store.Get(ctx, "ttl"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Get after TTL = %v, want ErrNotFound", err)
	}
}

func TestMemorySessionStore_Eviction(t *testing.T) {
	store := NewMemorySessionStore(2, time.Hour)
	ctx := context.Background()

	_ = store.Save(ctx, &model.Session{ID: "s1"})
	_ = store.Save(ctx, &model.Session{ID: "s2"})
	_ = store.Save(ctx, &model.Session{ID: "s3"})

	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
	if _, err := store.Get(ctx, "s3"); err != nil {
		t.Errorf("newest session evicted: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); err == nil {
		t.Error("oldest session survived eviction")
	}
}
