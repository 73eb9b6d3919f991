package leaderboard

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING CACHE
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultTopN - сколько записей хранится в снапшоте.
	DefaultTopN = 100

	// DefaultTTL - время жизни снапшота.
	DefaultTTL = 60 * time.Second
)

// RankingCache отдаёт страницы лидерборда из кешированного снапшота.
//
// Снапшот пересчитывается синхронно при чтении, если его нет, он устарел
// по TTL или был инвалидирован записью. Пересчёты не исключают друг друга:
// каждый строит свой снапшот и публикует его атомарной заменой указателя.
// Инвалидация увеличивает поколение, поэтому снапшот, построенный
// до записи, никогда не считается свежим после неё.
type RankingCache struct {
	store      Store
	topN       int
	ttl        time.Duration
	now        func() time.Time
	onFallback func(err error)

	snapshot   atomic.Pointer[RankingSnapshot]
	generation atomic.Uint64
	recomputes atomic.Int64
}

// CacheOption настраивает RankingCache.
type CacheOption func(*RankingCache)

// WithTopN задаёт размер обрезки.
func WithTopN(n int) CacheOption {
	return func(c *RankingCache) {
		if n > 0 {
			c.topN = n
		}
	}
}

// WithTTL задаёт время жизни снапшота.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *RankingCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func WithClock(now func() time.Time) CacheOption {
	return func(c *RankingCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFallbackHook задаёт обработчик ошибки пересчёта, когда отдаётся
// последний удачный снапшот. Обычно это WARN-лог.
func WithFallbackHook(fn func(err error)) CacheOption {
	return func(c *RankingCache) {
		c.onFallback = fn
	}
}

// NewRankingCache создаёт кеш поверх хранилища.
func NewRankingCache(store Store, opts ...CacheOption) *RankingCache {
	c := &RankingCache{
		store: store,
		topN:  DefaultTopN,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPage возвращает страницу page (с 1) размером pageSize.
// Границы page и pageSize проверяет вызывающая сторона; здесь
// недопустимые значения дают shared.ErrInvalidPage.
func (c *RankingCache) GetPage(ctx context.Context, page, pageSize int) (Page, error) {
	if page < 1 || pageSize < 1 {
		return Page{}, shared.ErrInvalidPage
	}

	snap, stale, err := c.current(ctx)
	if err != nil {
		return Page{}, err
	}

	result := Page{
		Entries:    []LeaderboardEntry{},
		Total:      snap.Total(),
		ComputedAt: snap.ComputedAt(),
		Stale:      stale,
	}

	// Сравнение до умножения: (page-1)*pageSize может переполниться.
	pages := snap.Total() / pageSize
	if snap.Total()%pageSize != 0 {
		pages++
	}
	if page-1 >= pages {
		return result, nil
	}

	from := (page - 1) * pageSize
	result.Entries = snap.Slice(from, from+pageSize)
	result.HasMore = page < pages
	return result, nil
}

// Snapshot возвращает текущий снапшот, пересчитывая его при необходимости.
func (c *RankingCache) Snapshot(ctx context.Context) (*RankingSnapshot, error) {
	snap, _, err := c.current(ctx)
	return snap, err
}

// Invalidate помечает текущий снапшот устаревшим.
// Следующее чтение пересчитает лидерборд.
func (c *RankingCache) Invalidate() {
	c.generation.Add(1)
}

// Recomputes возвращает количество выполненных пересчётов.
func (c *RankingCache) Recomputes() int64 {
	return c.recomputes.Load()
}

// current возвращает свежий снапшот или пересчитывает его.
// stale == true означает, что отдан последний удачный снапшот после ошибки.
func (c *RankingCache) current(ctx context.Context) (*RankingSnapshot, bool, error) {
	gen := c.generation.Load()
	cached := c.snapshot.Load()

	if cached != nil && cached.generation == gen && !cached.IsExpired(c.now(), c.ttl) {
		return cached, false, nil
	}

	fresh, err := c.recompute(ctx, gen)
	if err != nil {
		if cached != nil {
			if c.onFallback != nil {
				c.onFallback(err)
			}
			return cached, true, nil
		}
		return nil, false, err
	}

	return fresh, false, nil
}

// recompute строит новый снапшот и публикует его, если он не старше текущего.
func (c *RankingCache) recompute(ctx context.Context, gen uint64) (*RankingSnapshot, error) {
	users, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard users: %w", err)
	}

	c.recomputes.Add(1)
	fresh := newRankingSnapshot(users, c.topN, c.now(), gen)

	for {
		existing := c.snapshot.Load()
		if existing != nil && newer(existing, fresh) {
			// Другой пересчёт уже опубликовал более новый снапшот.
			return fresh, nil
		}
		if c.snapshot.CompareAndSwap(existing, fresh) {
			return fresh, nil
		}
	}
}

// newer сообщает, что a построен позже b.
func newer(a, b *RankingSnapshot) bool {
	if a.generation != b.generation {
		return a.generation > b.generation
	}
	return a.computedAt.After(b.computedAt)
}
