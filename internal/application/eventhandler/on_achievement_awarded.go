package eventhandler

import (
	"fmt"
	"sync"
	"time"

	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACHIEVEMENT AWARDED HANDLER
// Держит в памяти ленту последних выданных достижений.
// Лента ограничена по размеру: самые старые записи вытесняются.
// ═══════════════════════════════════════════════════════════════════════════

// DefaultRecentAwardsCapacity - размер ленты по умолчанию.
const DefaultRecentAwardsCapacity = 50

// RecentAward - одна запись ленты.
type RecentAward struct {
	AwardID       string    `json:"awardId"`
	PlayerID      string    `json:"playerId"`
	AchievementID string    `json:"achievementId"`
	EarnedAt      time.Time `json:"earnedAt"`
}

// OnAchievementAwardedHandler - подписчик на EventAchievementAwarded.
type OnAchievementAwardedHandler struct {
	mu     sync.RWMutex
	ring   []RecentAward
	next   int
	size   int
	logger *logger.Logger
}

// NewOnAchievementAwardedHandler создаёт ленту заданной ёмкости.
func NewOnAchievementAwardedHandler(capacity int, log *logger.Logger) *OnAchievementAwardedHandler {
	if capacity <= 0 {
		capacity = DefaultRecentAwardsCapacity
	}
	if log == nil {
		log = logger.Nop()
	}

	return &OnAchievementAwardedHandler{
		ring:   make([]RecentAward, capacity),
		logger: log.With(logger.F("handler", "on_achievement_awarded")),
	}
}

// Register подписывает обработчик на шину событий.
func (h *OnAchievementAwardedHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventAchievementAwarded, h.Handle)
}

// Handle добавляет событие в ленту.
func (h *OnAchievementAwardedHandler) Handle(event shared.Event) error {
	ev, ok := event.(shared.AchievementAwardedEvent)
	if !ok {
		return fmt.Errorf("on_achievement_awarded: unexpected event %T", event)
	}

	h.mu.Lock()
	h.ring[h.next] = RecentAward{
		AwardID:       ev.AwardID,
		PlayerID:      ev.PlayerID,
		AchievementID: ev.AchievementID,
		EarnedAt:      ev.EarnedAt,
	}
	h.next = (h.next + 1) % len(h.ring)
	if h.size < len(h.ring) {
		h.size++
	}
	h.mu.Unlock()

	h.logger.Info("achievement awarded",
		logger.PlayerID(ev.PlayerID),
		logger.AchievementID(ev.AchievementID),
	)
	return nil
}

// Recent возвращает до limit последних записей, новые первыми.
// limit <= 0 означает всю ленту.
func (h *OnAchievementAwardedHandler) Recent(limit int) []RecentAward {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > h.size {
		limit = h.size
	}

	out := make([]RecentAward, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (h.next - i + len(h.ring)) % len(h.ring)
		out = append(out, h.ring[idx])
	}
	return out
}
