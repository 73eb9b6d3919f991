package command

import (
	"context"
	"fmt"

	"github.com/alem-hub/puzzle-hub/internal/domain/leaderboard"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPSERT SCORE COMMAND
// Replaces or inserts a player's leaderboard record and invalidates the
// ranking cache so the very next read recomputes.
// ══════════════════════════════════════════════════════════════════════════════

// UpsertScoreCommand contains a player's new leaderboard standing.
type UpsertScoreCommand struct {
	UserID        string
	Username      string
	Points        int64
	PuzzlesSolved int64
}

// UpsertScoreHandler handles the UpsertScoreCommand.
type UpsertScoreHandler struct {
	store          leaderboard.Store
	cache          leaderboard.Invalidator
	eventPublisher shared.EventPublisher
	logger         *logger.Logger
}

// NewUpsertScoreHandler creates a new UpsertScoreHandler.
// eventPublisher may be nil.
func NewUpsertScoreHandler(
	store leaderboard.Store,
	cache leaderboard.Invalidator,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *UpsertScoreHandler {
	if log == nil {
		log = logger.Nop()
	}

	return &UpsertScoreHandler{
		store:          store,
		cache:          cache,
		eventPublisher: eventPublisher,
		logger:         log.With(logger.Component("upsert_score")),
	}
}

// Handle executes the upsert score command.
func (h *UpsertScoreHandler) Handle(ctx context.Context, cmd UpsertScoreCommand) (*leaderboard.LeaderboardUser, error) {
	user, err := leaderboard.NewLeaderboardUser(cmd.UserID, cmd.Username, cmd.Points, cmd.PuzzlesSolved)
	if err != nil {
		return nil, fmt.Errorf("upsert_score: validation failed: %w", err)
	}

	if err := h.store.Upsert(ctx, *user); err != nil {
		h.logger.Error("failed to upsert leaderboard user",
			logger.PlayerID(user.UserID),
			logger.Err(err),
		)
		return nil, fmt.Errorf("upsert_score: %w", err)
	}

	h.cache.Invalidate()

	h.logger.Debug("leaderboard user upserted",
		logger.PlayerID(user.UserID),
		logger.Int64("points", user.Points),
	)

	if h.eventPublisher != nil {
		event := shared.NewScoreUpdatedEvent(user.UserID, user.Username, user.Points, user.PuzzlesSolved)
		if err := h.eventPublisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish score updated event", logger.Err(err))
		}
	}

	return user, nil
}
