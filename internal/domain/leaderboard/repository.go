package leaderboard

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD STORE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Store определяет контракт хранилища живых записей лидерборда.
// Реализации: in-memory (memory) и Redis (redis). Данные могут
// теряться при перезапуске.
type Store interface {
	// Get возвращает запись игрока.
	// Возвращает shared.ErrLeaderboardUserNotFound, если записи нет.
	Get(ctx context.Context, userID string) (*LeaderboardUser, error)

	// Upsert заменяет запись игрока или создаёт новую.
	Upsert(ctx context.Context, user LeaderboardUser) error

	// List возвращает все записи в произвольном порядке.
	List(ctx context.Context) ([]LeaderboardUser, error)
}

// Invalidator сбрасывает кешированное представление лидерборда.
type Invalidator interface {
	Invalidate()
}
