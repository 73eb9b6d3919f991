package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPSERT ACHIEVEMENT DEFINITION COMMAND
// Administrative write: creates or replaces an achievement definition.
// ══════════════════════════════════════════════════════════════════════════════

// UpsertAchievementCommand contains a definition in its wire form.
type UpsertAchievementCommand struct {
	ID          string
	Title       string
	Description string
	IconURL     string
	RuleType    achievement.RuleType
	RuleValue   json.RawMessage
}

// UpsertAchievementHandler handles the UpsertAchievementCommand.
type UpsertAchievementHandler struct {
	definitions achievement.DefinitionRepository
	logger      *logger.Logger
}

// NewUpsertAchievementHandler creates a new UpsertAchievementHandler.
func NewUpsertAchievementHandler(definitions achievement.DefinitionRepository, log *logger.Logger) *UpsertAchievementHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &UpsertAchievementHandler{
		definitions: definitions,
		logger:      log.With(logger.Component("upsert_achievement")),
	}
}

// Handle validates and stores the definition.
// Unknown rule types are accepted and stored; they never award.
func (h *UpsertAchievementHandler) Handle(ctx context.Context, cmd UpsertAchievementCommand) (*achievement.Achievement, error) {
	rule, err := achievement.DecodeRule(cmd.RuleType, cmd.RuleValue)
	if err != nil {
		return nil, fmt.Errorf("upsert_achievement: %w", err)
	}

	def, err := achievement.NewAchievement(cmd.ID, cmd.Title, cmd.Description, cmd.IconURL, rule)
	if err != nil {
		return nil, fmt.Errorf("upsert_achievement: validation failed: %w", err)
	}

	if !cmd.RuleType.IsKnown() {
		h.logger.Warn("storing achievement with unrecognized rule type",
			logger.AchievementID(def.ID),
			logger.RuleType(string(cmd.RuleType)),
		)
	}

	if err := h.definitions.Upsert(ctx, *def); err != nil {
		return nil, fmt.Errorf("upsert_achievement: %w", err)
	}

	h.logger.Info("achievement definition stored",
		logger.AchievementID(def.ID),
		logger.RuleType(string(def.RuleType())),
	)
	return def, nil
}
