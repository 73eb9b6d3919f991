// Package leaderboard содержит доменную модель лидерборда Puzzle Hub.
// Лидерборд строится из живых записей игроков (LeaderboardUser), сортируется,
// обрезается до топ-N и отдаётся постранично из кеша с ограниченным временем жизни.
package leaderboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию игрока в лидерборде.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 возвращает true, если игрок в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD USER (live record)
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardUser - живая запись игрока в хранилище лидерборда.
// Одна запись на UserID, обновляется целиком (upsert).
type LeaderboardUser struct {
	// UserID - уникальный идентификатор игрока.
	UserID string `json:"userId"`

	// Username - отображаемое имя, используется для разрешения ничьих.
	Username string `json:"username"`

	// Points - очки игрока.
	Points int64 `json:"points"`

	// PuzzlesSolved - количество решённых головоломок.
	PuzzlesSolved int64 `json:"puzzlesSolved"`
}

// NewLeaderboardUser создаёт запись игрока с валидацией.
func NewLeaderboardUser(userID, username string, points, puzzlesSolved int64) (*LeaderboardUser, error) {
	u := &LeaderboardUser{
		UserID:        strings.TrimSpace(userID),
		Username:      strings.TrimSpace(username),
		Points:        points,
		PuzzlesSolved: puzzlesSolved,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate проверяет инварианты записи.
func (u LeaderboardUser) Validate() error {
	if u.UserID == "" {
		return shared.ErrInvalidUserID
	}
	if u.Username == "" {
		return shared.ErrEmptyUsername
	}
	if u.Points < 0 {
		return shared.ErrNegativePoints
	}
	if u.PuzzlesSolved < 0 {
		return shared.ErrNegativePuzzles
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY (ranked view)
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardEntry - запись в отсортированном и обрезанном представлении.
// Создаётся заново при каждом пересчёте и никогда не изменяется по частям.
type LeaderboardEntry struct {
	LeaderboardUser
	Rank Rank `json:"rank"`
}

// String возвращает строковое представление для логирования.
func (e LeaderboardEntry) String() string {
	return fmt.Sprintf("%s %s (%d pts, %d puzzles)", e.Rank, e.Username, e.Points, e.PuzzlesSolved)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Less задаёт полный порядок записей лидерборда:
// очки по убыванию, затем решённые головоломки по убыванию,
// затем имя по возрастанию. UserID замыкает порядок для полной детерминированности.
func Less(a, b LeaderboardUser) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.PuzzlesSolved != b.PuzzlesSolved {
		return a.PuzzlesSolved > b.PuzzlesSolved
	}
	if a.Username != b.Username {
		return a.Username < b.Username
	}
	return a.UserID < b.UserID
}

// RankUsers сортирует игроков, обрезает до topN и присваивает ранги с 1.
// Входной срез не изменяется. topN <= 0 означает "без ограничения".
func RankUsers(users []LeaderboardUser, topN int) []LeaderboardEntry {
	sorted := make([]LeaderboardUser, len(users))
	copy(sorted, users)

	sort.Slice(sorted, func(i, j int) bool {
		return Less(sorted[i], sorted[j])
	})

	if topN > 0 && len(sorted) > topN {
		sorted = sorted[:topN]
	}

	entries := make([]LeaderboardEntry, len(sorted))
	for i, u := range sorted {
		entries[i] = LeaderboardEntry{LeaderboardUser: u, Rank: Rank(i + 1)}
	}
	return entries
}
