// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/puzzle-hub/internal/domain/leaderboard"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Получает страницу лидерборда из кеша рейтинга.
// Границы page/page_size приводятся к допустимым здесь, до обращения к кешу.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultPageSize - размер страницы по умолчанию.
	DefaultPageSize = 20

	// MaxPageSize - максимальный размер страницы по умолчанию.
	MaxPageSize = 100
)

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// Page - номер страницы (с 1). Значения меньше 1 приводятся к 1.
	Page int

	// PageSize - размер страницы. 0 означает значение по умолчанию,
	// значения вне [1, max] приводятся к границам.
	PageSize int
}

// Normalize приводит параметры к допустимым значениям.
func (q *GetLeaderboardQuery) Normalize(maxPageSize int) {
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize < 1 {
		q.PageSize = 1
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
}

// LeaderboardEntryDTO - DTO для записи лидерборда (Data Transfer Object).
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	// UserID - ID игрока.
	UserID string `json:"userId"`

	// Username - отображаемое имя.
	Username string `json:"username"`

	// Points - очки.
	Points int64 `json:"points"`

	// PuzzlesSolved - количество решённых головоломок.
	PuzzlesSolved int64 `json:"puzzlesSolved"`
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Entries - записи страницы.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// Total - количество записей в обрезанном лидерборде (не больше топ-N).
	Total int `json:"total"`

	// Page - текущая страница (1-based).
	Page int `json:"page"`

	// PageSize - размер страницы.
	PageSize int `json:"pageSize"`

	// HasMore - есть ли ещё записи после текущей страницы.
	HasMore bool `json:"hasMore"`

	// ComputedAt - время пересчёта снапшота.
	ComputedAt time.Time `json:"computedAt"`

	// Stale - отдан последний удачный снапшот после ошибки пересчёта.
	Stale bool `json:"stale,omitempty"`
}

// PageSource - источник страниц лидерборда (RankingCache).
type PageSource interface {
	GetPage(ctx context.Context, page, pageSize int) (leaderboard.Page, error)
}

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	cache       PageSource
	maxPageSize int
	logger      *logger.Logger
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса лидерборда.
func NewGetLeaderboardHandler(cache PageSource, maxPageSize int, log *logger.Logger) *GetLeaderboardHandler {
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GetLeaderboardHandler{
		cache:       cache,
		maxPageSize: maxPageSize,
		logger:      log.With(logger.Component("get_leaderboard")),
	}
}

// Handle выполняет запрос.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	q.Normalize(h.maxPageSize)

	page, err := h.cache.GetPage(ctx, q.Page, q.PageSize)
	if err != nil {
		h.logger.Error("failed to get leaderboard page", logger.Err(err))
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntryDTO, len(page.Entries))
	for i, e := range page.Entries {
		entries[i] = LeaderboardEntryDTO{
			Rank:          int(e.Rank),
			UserID:        e.UserID,
			Username:      e.Username,
			Points:        e.Points,
			PuzzlesSolved: e.PuzzlesSolved,
		}
	}

	return &GetLeaderboardResult{
		Entries:    entries,
		Total:      page.Total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		HasMore:    page.HasMore,
		ComputedAt: page.ComputedAt,
		Stale:      page.Stale,
	}, nil
}
