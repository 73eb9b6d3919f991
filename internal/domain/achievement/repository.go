package achievement

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// DefinitionRepository определяет контракт хранения определений достижений.
// Реализации: in-memory (memory) и PostgreSQL (postgres).
type DefinitionRepository interface {
	// List возвращает все определения, упорядоченные по ID.
	List(ctx context.Context) ([]Achievement, error)

	// Get возвращает определение по ID.
	// Возвращает shared.ErrAchievementNotFound, если определения нет.
	Get(ctx context.Context, id string) (*Achievement, error)

	// Upsert создаёт или заменяет определение.
	Upsert(ctx context.Context, def Achievement) error
}

// AwardRepository определяет контракт хранения выданных достижений.
//
// Уникальность пары (PlayerID, AchievementID) обеспечивается самим хранилищем:
// при гонке двух одновременных вставок ровно одна завершается успешно,
// вторая возвращает ошибку, совместимую с shared.ErrAlreadyExists.
type AwardRepository interface {
	// Get возвращает запись по паре (игрок, достижение).
	// Возвращает ошибку, совместимую с shared.ErrNotFound, если записи нет.
	Get(ctx context.Context, playerID, achievementID string) (*PlayerAchievement, error)

	// InsertIfAbsent вставляет запись. Если пара уже существует,
	// возвращает ошибку, совместимую с shared.ErrAlreadyExists.
	InsertIfAbsent(ctx context.Context, award PlayerAchievement) error

	// ListByPlayer возвращает все достижения игрока, новые первыми.
	// Для неизвестного игрока возвращает пустой срез без ошибки.
	ListByPlayer(ctx context.Context, playerID string) ([]PlayerAchievement, error)
}
