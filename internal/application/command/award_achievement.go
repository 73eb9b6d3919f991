// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD ACHIEVEMENT COMMAND
// Idempotent "award if not already earned". The award record is unique per
// (player, achievement); uniqueness is enforced by the AwardRepository, so two
// concurrent awards for the same pair produce exactly one record.
// ══════════════════════════════════════════════════════════════════════════════

// AwardAchievementCommand contains the data to award an achievement.
type AwardAchievementCommand struct {
	// PlayerID is the player receiving the achievement.
	PlayerID string

	// AchievementID is the achievement definition being awarded.
	AchievementID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AwardAchievementCommand) Validate() error {
	if c.PlayerID == "" {
		return shared.ErrInvalidPlayerID
	}
	if c.AchievementID == "" {
		return shared.ErrInvalidAchievementID
	}
	return nil
}

// AwardResult contains the result of an award attempt.
type AwardResult struct {
	// Awarded is true only when this call created the award record.
	Awarded bool

	// Award is the created record. Nil when Awarded is false.
	Award *achievement.PlayerAchievement
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AwardAchievementHandler handles the AwardAchievementCommand.
type AwardAchievementHandler struct {
	awards         achievement.AwardRepository
	eventPublisher shared.EventPublisher
	logger         *logger.Logger
	newID          func() string
	now            func() time.Time
}

// NewAwardAchievementHandler creates a new AwardAchievementHandler.
// eventPublisher may be nil.
func NewAwardAchievementHandler(
	awards achievement.AwardRepository,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *AwardAchievementHandler {
	if log == nil {
		log = logger.Nop()
	}

	return &AwardAchievementHandler{
		awards:         awards,
		eventPublisher: eventPublisher,
		logger:         log.With(logger.Component("award_achievement")),
		newID:          func() string { return uuid.New().String() },
		now:            time.Now,
	}
}

// AwardIfEligible awards the achievement unless the player already has it.
// An already-earned achievement, including one inserted concurrently by
// another writer, yields Awarded=false and no error.
func (h *AwardAchievementHandler) AwardIfEligible(ctx context.Context, playerID, achievementID string) (AwardResult, error) {
	return h.Handle(ctx, AwardAchievementCommand{PlayerID: playerID, AchievementID: achievementID})
}

// Handle executes the award achievement command.
func (h *AwardAchievementHandler) Handle(ctx context.Context, cmd AwardAchievementCommand) (AwardResult, error) {
	if err := cmd.Validate(); err != nil {
		return AwardResult{}, fmt.Errorf("award_achievement: validation failed: %w", err)
	}

	log := h.logger.With(logger.PlayerID(cmd.PlayerID), logger.AchievementID(cmd.AchievementID))

	// Fast path: already earned.
	existing, err := h.awards.Get(ctx, cmd.PlayerID, cmd.AchievementID)
	switch {
	case err == nil && existing != nil:
		return AwardResult{Awarded: false}, nil
	case err != nil && !shared.IsNotFound(err):
		log.Error("failed to check existing award", logger.Err(err))
		return AwardResult{}, fmt.Errorf("award_achievement: check existing: %w", err)
	}

	award, err := achievement.NewPlayerAchievement(h.newID(), cmd.PlayerID, cmd.AchievementID, h.now())
	if err != nil {
		return AwardResult{}, fmt.Errorf("award_achievement: %w", err)
	}

	if err := h.awards.InsertIfAbsent(ctx, *award); err != nil {
		if shared.IsAlreadyExists(err) {
			// Lost the race against a concurrent writer.
			log.Warn("achievement already awarded by concurrent writer")
			return AwardResult{Awarded: false}, nil
		}
		log.Error("failed to insert award", logger.Err(err))
		return AwardResult{}, fmt.Errorf("award_achievement: insert: %w", err)
	}

	log.Info("achievement awarded", logger.String("award_id", award.ID))

	if h.eventPublisher != nil {
		event := shared.NewAchievementAwardedEvent(award.ID, award.PlayerID, award.AchievementID, award.EarnedAt)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		if err := h.eventPublisher.Publish(event); err != nil {
			log.Warn("failed to publish achievement awarded event", logger.Err(err))
		}
	}

	return AwardResult{Awarded: true, Award: award}, nil
}
