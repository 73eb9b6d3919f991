package eventhandler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/puzzle-hub/internal/application/command"
	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

type fixture struct {
	defs    *memory.DefinitionRepository
	awards  *memory.AwardRepository
	handler *OnGameEventHandler
}

func newFixture(t *testing.T, defs ...achievement.Achievement) fixture {
	t.Helper()

	ctx := context.Background()
	defRepo := memory.NewDefinitionRepository()
	for _, d := range defs {
		require.NoError(t, defRepo.Upsert(ctx, d))
	}
	awards := memory.NewAwardRepository()
	ledger := command.NewAwardAchievementHandler(awards, nil, logger.Nop())

	return fixture{
		defs:    defRepo,
		awards:  awards,
		handler: NewOnGameEventHandler(defRepo, awards, ledger, logger.Nop()),
	}
}

func puzzleCompleted(player string, seconds float64, total int) achievement.GameEvent {
	return achievement.GameEvent{
		PlayerID:  player,
		EventType: achievement.EventPuzzleCompleted,
		Metadata: achievement.Metadata{
			CompletionTime:        achievement.Float64(seconds),
			TotalPuzzlesCompleted: achievement.Int(total),
		},
	}
}

func TestHandle_AwardsQualifyingAchievements(t *testing.T) {
	f := newFixture(t, achievement.DefaultDefinitions()...)

	res, err := f.handler.HandleWithResult(context.Background(), puzzleCompleted("p1", 25, 1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first-puzzle", "speed-solver"}, res.Awarded)

	list, err := f.awards.ListByPlayer(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestHandle_DuplicateEventsAwardOnce(t *testing.T) {
	f := newFixture(t, achievement.Achievement{
		ID: "speed", Title: "Speed", Rule: achievement.CompletionTimeRule{MaxTime: 30},
	})
	ev := puzzleCompleted("p1", 10, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, f.handler.Handle(context.Background(), ev))
	}

	assert.Equal(t, 1, f.awards.Count())
}

func TestHandle_ConcurrentDuplicateEvents(t *testing.T) {
	f := newFixture(t, achievement.DefaultDefinitions()...)
	ev := puzzleCompleted("p1", 5, 1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.handler.Handle(context.Background(), ev))
		}()
	}
	wg.Wait()

	// first-puzzle and speed-solver, each exactly once.
	assert.Equal(t, 2, f.awards.Count())
}

func TestHandle_UnknownRuleNeverAwards(t *testing.T) {
	f := newFixture(t, achievement.Achievement{
		ID: "mystery", Title: "Mystery", Rule: achievement.UnknownRule{RuleType: "MOON_PHASE"},
	})

	res, err := f.handler.HandleWithResult(context.Background(), achievement.GameEvent{
		PlayerID: "p1", EventType: achievement.EventPlayerLogin,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Awarded)
	assert.Equal(t, 0, f.awards.Count())
}

func TestHandle_SkipsAlreadyEarned(t *testing.T) {
	f := newFixture(t,
		achievement.Achievement{ID: "daily", Title: "Daily", Rule: achievement.DailyLoginRule{}},
		achievement.Achievement{ID: "streak", Title: "Streak", Rule: achievement.LoginStreakRule{RequiredDays: 3}},
	)
	ctx := context.Background()

	login := func(days int) achievement.GameEvent {
		return achievement.GameEvent{
			PlayerID:  "p1",
			EventType: achievement.EventPlayerLogin,
			Metadata:  achievement.Metadata{ConsecutiveDays: achievement.Int(days)},
		}
	}

	res, err := f.handler.HandleWithResult(ctx, login(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"daily"}, res.Awarded)
	assert.Equal(t, 2, res.Evaluated)

	res, err = f.handler.HandleWithResult(ctx, login(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"streak"}, res.Awarded)
	assert.Equal(t, 1, res.Evaluated)
}

// flakyAwarder fails for one achievement ID and delegates the rest.
type flakyAwarder struct {
	next   Awarder
	failID string
	err    error
}

func (a flakyAwarder) AwardIfEligible(ctx context.Context, playerID, achievementID string) (command.AwardResult, error) {
	if achievementID == a.failID {
		return command.AwardResult{}, a.err
	}
	return a.next.AwardIfEligible(ctx, playerID, achievementID)
}

func TestHandle_FailureIsIsolatedPerAchievement(t *testing.T) {
	ctx := context.Background()
	defRepo := memory.NewDefinitionRepository()
	for _, d := range achievement.DefaultDefinitions() {
		require.NoError(t, defRepo.Upsert(ctx, d))
	}
	awards := memory.NewAwardRepository()
	storeErr := errors.New("timeout")
	awarder := flakyAwarder{
		next:   command.NewAwardAchievementHandler(awards, nil, logger.Nop()),
		failID: "first-puzzle",
		err:    storeErr,
	}
	h := NewOnGameEventHandler(defRepo, awards, awarder, logger.Nop())

	res, err := h.HandleWithResult(ctx, puzzleCompleted("p1", 20, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, []string{"speed-solver"}, res.Awarded)
	assert.Equal(t, 1, awards.Count())
}

func TestHandle_InvalidEvent(t *testing.T) {
	f := newFixture(t)

	err := f.handler.Handle(context.Background(), achievement.GameEvent{EventType: achievement.EventPlayerLogin})
	assert.Error(t, err)

	err = f.handler.Handle(context.Background(), achievement.GameEvent{PlayerID: "p1", EventType: "dance"})
	assert.Error(t, err)
}
