package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST PLAYER ACHIEVEMENTS QUERY
// Возвращает полученные игроком достижения, новые первыми.
// Для неизвестного игрока - пустой список, не ошибка.
// ══════════════════════════════════════════════════════════════════════════════

// PlayerAchievementDTO - запись о полученном достижении.
type PlayerAchievementDTO struct {
	ID            string    `json:"id"`
	AchievementID string    `json:"achievementId"`
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description,omitempty"`
	IconURL       string    `json:"iconUrl,omitempty"`
	EarnedAt      time.Time `json:"earnedAt"`
}

// ListPlayerAchievementsHandler обрабатывает запрос достижений игрока.
type ListPlayerAchievementsHandler struct {
	awards      achievement.AwardRepository
	definitions achievement.DefinitionRepository
}

// NewListPlayerAchievementsHandler создаёт обработчик.
func NewListPlayerAchievementsHandler(
	awards achievement.AwardRepository,
	definitions achievement.DefinitionRepository,
) *ListPlayerAchievementsHandler {
	return &ListPlayerAchievementsHandler{
		awards:      awards,
		definitions: definitions,
	}
}

// Handle выполняет запрос.
func (h *ListPlayerAchievementsHandler) Handle(ctx context.Context, playerID string) ([]PlayerAchievementDTO, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, shared.ErrInvalidPlayerID
	}

	awards, err := h.awards.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list_player_achievements: %w", err)
	}

	// Названия подставляются из определений; удалённое определение не ошибка.
	byID := make(map[string]achievement.Achievement)
	if len(awards) > 0 && h.definitions != nil {
		defs, err := h.definitions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list_player_achievements: definitions: %w", err)
		}
		for _, d := range defs {
			byID[d.ID] = d
		}
	}

	out := make([]PlayerAchievementDTO, len(awards))
	for i, pa := range awards {
		def := byID[pa.AchievementID]
		out[i] = PlayerAchievementDTO{
			ID:            pa.ID,
			AchievementID: pa.AchievementID,
			Title:         def.Title,
			Description:   def.Description,
			IconURL:       def.IconURL,
			EarnedAt:      pa.EarnedAt,
		}
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST ACHIEVEMENT DEFINITIONS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// AchievementDTO - определение достижения в форме для транспорта.
type AchievementDTO struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	IconURL     string          `json:"iconUrl"`
	RuleType    string          `json:"ruleType"`
	RuleValue   json.RawMessage `json:"ruleValue"`
}

// ListAchievementsHandler возвращает все определения.
type ListAchievementsHandler struct {
	definitions achievement.DefinitionRepository
}

// NewListAchievementsHandler создаёт обработчик.
func NewListAchievementsHandler(definitions achievement.DefinitionRepository) *ListAchievementsHandler {
	return &ListAchievementsHandler{definitions: definitions}
}

// Handle выполняет запрос.
func (h *ListAchievementsHandler) Handle(ctx context.Context) ([]AchievementDTO, error) {
	defs, err := h.definitions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_achievements: %w", err)
	}

	out := make([]AchievementDTO, 0, len(defs))
	for _, d := range defs {
		out = append(out, ToAchievementDTO(d))
	}
	return out, nil
}

// ToAchievementDTO конвертирует определение в DTO.
// Определение без правила отдаётся с пустым типом и "{}".
func ToAchievementDTO(d achievement.Achievement) AchievementDTO {
	dto := AchievementDTO{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		IconURL:     d.IconURL,
		RuleValue:   json.RawMessage("{}"),
	}
	if ruleType, raw, err := achievement.EncodeRule(d.Rule); err == nil {
		dto.RuleType = string(ruleType)
		dto.RuleValue = raw
	}
	return dto
}
