// session_cache.go: хранилище сессий в памяти на основе
// hashicorp/golang-lru/v2/expirable. Каждый экземпляр хранит свои сессии,
// поэтому перезапуск завершает все сессии.
package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/repository"
)

var (
	sessionCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ac_session_cache_hits_total",
		Help: "Session lookups served by the in-memory store.",
	})
	sessionCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ac_session_cache_misses_total",
		Help: "Session lookups that found nothing in the in-memory store.",
	})
)

// MemorySessionStore хранит сессии в LRU с TTL, равным таймауту
// неактивности. Каждый Save добавляет запись заново, TTL сдвигается с активностью.
type MemorySessionStore struct {
	cache *expirable.LRU[string, *model.Session]
}

// NewMemorySessionStore создаёт хранилище. maxSize ограничивает число
// одновременных сессий; первой вытесняется давно не использованная.
func NewMemorySessionStore(maxSize int, ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		cache: expirable.NewLRU[string, *model.Session](maxSize, nil, ttl),
	}
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*model.Session, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		sessionCacheMissesTotal.Inc()
		return nil, repository.ErrNotFound
	}
	sessionCacheHitsTotal.Inc()
	return s.Clone(), nil
}

func (m *MemorySessionStore) Save(_ context.Context, s *model.Session) error {
	m.cache.Add(s.ID, s.Clone())
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.cache.Remove(id)
	return nil
}

// DeleteExpired удаляет сессии с прошедшим дедлайном, запись которых
// в LRU ещё не устарела.
func (m *MemorySessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, id := range m.cache.Keys() {
		s, ok := m.cache.Peek(id)
		if ok && s.ExpiredAt(now) != "" {
			m.cache.Remove(id)
			n++
		}
	}
	return n, nil
}

// Len возвращает число сессий в хранилище.
func (m *MemorySessionStore) Len() int {
	return m.cache.Len()
}
