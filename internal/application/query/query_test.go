package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/domain/leaderboard"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

func TestGetLeaderboardQuery_Normalize(t *testing.T) {
	tests := []struct {
		name         string
		in           GetLeaderboardQuery
		wantPage     int
		wantPageSize int
	}{
		{"defaults", GetLeaderboardQuery{}, 1, DefaultPageSize},
		{"negative page", GetLeaderboardQuery{Page: -3, PageSize: 10}, 1, 10},
		{"negative size", GetLeaderboardQuery{Page: 2, PageSize: -5}, 2, 1},
		{"oversized", GetLeaderboardQuery{Page: 1, PageSize: 1000}, 1, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.in
			q.Normalize(MaxPageSize)
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantPageSize, q.PageSize)
		})
	}
}

func TestGetLeaderboardHandler(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLeaderboardStore()
	for i := 0; i < 15; i++ {
		require.NoError(t, store.Upsert(ctx, leaderboard.LeaderboardUser{
			UserID:   fmt.Sprintf("u%02d", i),
			Username: fmt.Sprintf("user%02d", i),
			Points:   int64(100 - i),
		}))
	}
	h := NewGetLeaderboardHandler(leaderboard.NewRankingCache(store), 0, logger.Nop())

	res, err := h.Handle(ctx, GetLeaderboardQuery{Page: 2, PageSize: 10})
	require.NoError(t, err)

	require.Len(t, res.Entries, 5)
	assert.Equal(t, 15, res.Total)
	assert.Equal(t, 11, res.Entries[0].Rank)
	assert.Equal(t, 15, res.Entries[4].Rank)
	assert.False(t, res.HasMore)

	res, err = h.Handle(ctx, GetLeaderboardQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.True(t, res.HasMore)
	assert.Equal(t, "user00", res.Entries[0].Username)

	res, err = h.Handle(ctx, GetLeaderboardQuery{Page: 6148914691236517206, PageSize: 3})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.False(t, res.HasMore)
}

func TestListPlayerAchievementsHandler(t *testing.T) {
	ctx := context.Background()
	awards := memory.NewAwardRepository()
	defs := memory.NewDefinitionRepository()
	for _, d := range achievement.DefaultDefinitions() {
		require.NoError(t, defs.Upsert(ctx, d))
	}

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, awards.InsertIfAbsent(ctx, achievement.PlayerAchievement{
		ID: "1", PlayerID: "p1", AchievementID: "first-puzzle", EarnedAt: base,
	}))
	require.NoError(t, awards.InsertIfAbsent(ctx, achievement.PlayerAchievement{
		ID: "2", PlayerID: "p1", AchievementID: "removed", EarnedAt: base.Add(time.Minute),
	}))

	h := NewListPlayerAchievementsHandler(awards, defs)

	list, err := h.Handle(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "removed", list[0].AchievementID)
	assert.Empty(t, list[0].Title)
	assert.Equal(t, "First Steps", list[1].Title)

	empty, err := h.Handle(ctx, "stranger")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = h.Handle(ctx, " ")
	assert.True(t, shared.IsValidation(err))
}

func TestListAchievementsHandler(t *testing.T) {
	ctx := context.Background()
	defs := memory.NewDefinitionRepository()
	require.NoError(t, defs.Upsert(ctx, achievement.Achievement{
		ID: "speed", Title: "Speed", Rule: achievement.CompletionTimeRule{MaxTime: 30},
	}))
	require.NoError(t, defs.Upsert(ctx, achievement.Achievement{ID: "bare", Title: "Bare"}))

	list, err := NewListAchievementsHandler(defs).Handle(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "bare", list[0].ID)
	assert.Equal(t, "", list[0].RuleType)
	assert.JSONEq(t, `{}`, string(list[0].RuleValue))

	assert.Equal(t, "PUZZLE_COMPLETION_TIME", list[1].RuleType)
	assert.JSONEq(t, `{"maxTime": 30}`, string(list[1].RuleValue))
}
