// Package achievement содержит доменную модель достижений Puzzle Hub.
// Достижение - это награда, которую игрок получает один раз за выполнение
// условия (правила). Правила проверяются для каждого игрового события.
package achievement

import (
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// RuleType определяет тип правила, по которому выдаётся достижение.
type RuleType string

const (
	// RuleTypeCompletionTime - головоломка решена быстрее заданного времени.
	RuleTypeCompletionTime RuleType = "PUZZLE_COMPLETION_TIME"
	// RuleTypeLoginStreak - игрок заходит N дней подряд.
	RuleTypeLoginStreak RuleType = "LOGIN_STREAK"
	// RuleTypeTotalPuzzles - всего решено не меньше N головоломок.
	RuleTypeTotalPuzzles RuleType = "TOTAL_PUZZLES_COMPLETED"
	// RuleTypeFirstPuzzle - первая решённая головоломка.
	RuleTypeFirstPuzzle RuleType = "FIRST_PUZZLE"
	// RuleTypeDailyLogin - любой вход в игру.
	RuleTypeDailyLogin RuleType = "DAILY_LOGIN"
)

// IsKnown возвращает true для поддерживаемых типов правил.
func (t RuleType) IsKnown() bool {
	switch t {
	case RuleTypeCompletionTime, RuleTypeLoginStreak, RuleTypeTotalPuzzles,
		RuleTypeFirstPuzzle, RuleTypeDailyLogin:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление типа правила.
func (t RuleType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT (Definition)
// ══════════════════════════════════════════════════════════════════════════════

// Achievement - определение достижения. Определения редко меняются
// и загружаются администратором или из набора по умолчанию.
type Achievement struct {
	// ID - стабильный идентификатор достижения (например, "speed-solver").
	ID string

	// Title - название для отображения.
	Title string

	// Description - описание условия получения.
	Description string

	// IconURL - ссылка на иконку.
	IconURL string

	// Rule - параметры правила. Тип правила определяется через Rule.Type().
	// Nil означает, что достижение никогда не выдаётся.
	Rule Rule

	// CreatedAt - время создания определения.
	CreatedAt time.Time
}

// NewAchievement создаёт определение достижения с валидацией.
// Неизвестный тип правила допустим: такое достижение просто никогда не выдаётся.
func NewAchievement(id, title, description, iconURL string, rule Rule) (*Achievement, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.ErrInvalidAchievementID
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.ErrEmptyAchievementTitle
	}

	return &Achievement{
		ID:          id,
		Title:       title,
		Description: description,
		IconURL:     iconURL,
		Rule:        rule,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// RuleType возвращает тип правила достижения.
func (a *Achievement) RuleType() RuleType {
	if a.Rule == nil {
		return ""
	}
	return a.Rule.Type()
}

// String возвращает строковое представление для логирования.
func (a *Achievement) String() string {
	return fmt.Sprintf("Achievement{id=%s, rule=%s}", a.ID, a.RuleType())
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAYER ACHIEVEMENT (Award record)
// ══════════════════════════════════════════════════════════════════════════════

// PlayerAchievement - факт получения достижения игроком.
// Пара (PlayerID, AchievementID) уникальна: это гарантирует хранилище.
type PlayerAchievement struct {
	// ID - уникальный идентификатор записи (UUID).
	ID string

	// PlayerID - идентификатор игрока.
	PlayerID string

	// AchievementID - идентификатор определения достижения.
	AchievementID string

	// EarnedAt - время получения.
	EarnedAt time.Time
}

// NewPlayerAchievement создаёт запись о выдаче достижения.
func NewPlayerAchievement(id, playerID, achievementID string, earnedAt time.Time) (*PlayerAchievement, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewDomainError("achievement", "Award", shared.ErrInvalidID, "award id is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return nil, shared.ErrInvalidPlayerID
	}
	if strings.TrimSpace(achievementID) == "" {
		return nil, shared.ErrInvalidAchievementID
	}

	return &PlayerAchievement{
		ID:            id,
		PlayerID:      playerID,
		AchievementID: achievementID,
		EarnedAt:      earnedAt.UTC(),
	}, nil
}

// Key возвращает ключ уникальности записи.
func (pa *PlayerAchievement) Key() AwardKey {
	return AwardKey{PlayerID: pa.PlayerID, AchievementID: pa.AchievementID}
}

// AwardKey - составной ключ уникальности (игрок, достижение).
type AwardKey struct {
	PlayerID      string
	AchievementID string
}
