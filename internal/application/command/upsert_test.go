package command

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/domain/leaderboard"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

func TestUpsertScore_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLeaderboardStore()
	cache := leaderboard.NewRankingCache(store)
	pub := &recordingPublisher{}
	h := NewUpsertScoreHandler(store, cache, pub, logger.Nop())

	_, err := h.Handle(ctx, UpsertScoreCommand{UserID: "a", Username: "alice", Points: 10})
	require.NoError(t, err)

	page, err := cache.GetPage(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)

	_, err = h.Handle(ctx, UpsertScoreCommand{UserID: "b", Username: "bob", Points: 20})
	require.NoError(t, err)

	page, err = cache.GetPage(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "bob", page.Entries[0].Username)
	assert.Len(t, pub.events, 2)
}

func TestUpsertScore_Validation(t *testing.T) {
	store := memory.NewLeaderboardStore()
	h := NewUpsertScoreHandler(store, leaderboard.NewRankingCache(store), nil, nil)

	_, err := h.Handle(context.Background(), UpsertScoreCommand{UserID: "a", Username: "alice", Points: -1})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), UpsertScoreCommand{UserID: "a"})
	assert.True(t, shared.IsValidation(err))
}

func TestUpsertAchievement(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewDefinitionRepository()
	h := NewUpsertAchievementHandler(repo, logger.Nop())

	def, err := h.Handle(ctx, UpsertAchievementCommand{
		ID:        "speedy",
		Title:     "Speedy",
		RuleType:  achievement.RuleTypeCompletionTime,
		RuleValue: json.RawMessage(`{"maxTime": 15}`),
	})
	require.NoError(t, err)
	assert.Equal(t, achievement.CompletionTimeRule{MaxTime: 15}, def.Rule)

	stored, err := repo.Get(ctx, "speedy")
	require.NoError(t, err)
	assert.Equal(t, def.Rule, stored.Rule)

	// Unknown rule types are stored but never award.
	_, err = h.Handle(ctx, UpsertAchievementCommand{ID: "odd", Title: "Odd", RuleType: "FUTURE_RULE"})
	require.NoError(t, err)

	_, err = h.Handle(ctx, UpsertAchievementCommand{
		ID:        "bad",
		Title:     "Bad",
		RuleType:  achievement.RuleTypeLoginStreak,
		RuleValue: json.RawMessage(`{"requiredDays": "seven"}`),
	})
	assert.True(t, shared.IsValidation(err))
}
