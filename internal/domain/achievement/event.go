package achievement

import (
	"strings"

	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAME EVENT
// ══════════════════════════════════════════════════════════════════════════════

// EventType - тип игрового события.
type EventType string

const (
	// EventPuzzleCompleted - игрок решил головоломку.
	EventPuzzleCompleted EventType = "puzzle_completed"
	// EventPlayerLogin - игрок вошёл в игру.
	EventPlayerLogin EventType = "player_login"
	// EventGameSessionStart - начало игровой сессии.
	EventGameSessionStart EventType = "game_session_start"
)

// IsValid проверяет, что тип события поддерживается.
func (t EventType) IsValid() bool {
	switch t {
	case EventPuzzleCompleted, EventPlayerLogin, EventGameSessionStart:
		return true
	default:
		return false
	}
}

// Metadata - необязательные поля игрового события.
// Отсутствующее поле (nil) означает, что правило, которому оно нужно, не выполнено.
type Metadata struct {
	// CompletionTime - время решения головоломки в секундах.
	CompletionTime *float64 `json:"completionTime,omitempty"`

	// PuzzleID - идентификатор решённой головоломки.
	PuzzleID *string `json:"puzzleId,omitempty"`

	// LoginDate - дата входа (YYYY-MM-DD).
	LoginDate *string `json:"loginDate,omitempty"`

	// ConsecutiveDays - сколько дней подряд игрок заходит в игру.
	ConsecutiveDays *int `json:"consecutiveDays,omitempty"`

	// TotalPuzzlesCompleted - общее число решённых головоломок с учётом текущей.
	TotalPuzzlesCompleted *int `json:"totalPuzzlesCompleted,omitempty"`
}

// GameEvent - входящее игровое событие. Не сохраняется.
type GameEvent struct {
	PlayerID  string    `json:"playerId"`
	EventType EventType `json:"eventType"`
	Metadata  Metadata  `json:"metadata"`
}

// Validate проверяет обязательные поля события.
// Метаданные не проверяются: неполные метаданные просто не дают достижений.
func (e GameEvent) Validate() error {
	if strings.TrimSpace(e.PlayerID) == "" {
		return shared.ErrInvalidPlayerID
	}
	if !e.EventType.IsValid() {
		return shared.ErrInvalidEventType
	}
	return nil
}

// Float64 возвращает указатель на значение. Удобно для заполнения Metadata.
func Float64(v float64) *float64 { return &v }

// Int возвращает указатель на значение.
func Int(v int) *int { return &v }

// String возвращает указатель на значение.
func String(v string) *string { return &v }
