package command

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// racingRepo never sees an existing award on Get, so every caller reaches
// InsertIfAbsent and the store constraint decides.
type racingRepo struct {
	*memory.AwardRepository
}

func (r racingRepo) Get(context.Context, string, string) (*achievement.PlayerAchievement, error) {
	return nil, shared.NewDomainError("achievement", "GetAward", shared.ErrNotFound, "award not found")
}

// failingRepo fails every insert with a fixed error.
type failingRepo struct {
	*memory.AwardRepository
	err error
}

func (r failingRepo) InsertIfAbsent(context.Context, achievement.PlayerAchievement) error {
	return r.err
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestAwardIfEligible_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAwardRepository()
	pub := &recordingPublisher{}
	h := NewAwardAchievementHandler(repo, pub, logger.Nop())

	first, err := h.AwardIfEligible(ctx, "p1", "speed-solver")
	require.NoError(t, err)
	assert.True(t, first.Awarded)
	require.NotNil(t, first.Award)
	assert.NotEmpty(t, first.Award.ID)

	for i := 0; i < 5; i++ {
		again, err := h.AwardIfEligible(ctx, "p1", "speed-solver")
		require.NoError(t, err)
		assert.False(t, again.Awarded)
	}

	list, err := repo.ListByPlayer(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventAchievementAwarded, pub.events[0].EventType())
}

func TestAwardIfEligible_ConcurrentRaceYieldsOneRecord(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAwardRepository()
	h := NewAwardAchievementHandler(racingRepo{repo}, nil, logger.Nop())

	const workers = 32
	var (
		wg      sync.WaitGroup
		awarded atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := h.AwardIfEligible(ctx, "p1", "a1")
			assert.NoError(t, err)
			if res.Awarded {
				awarded.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), awarded.Load())
	assert.Equal(t, 1, repo.Count())
}

func TestAwardIfEligible_PropagatesPersistenceErrors(t *testing.T) {
	storeErr := errors.New("disk full")
	h := NewAwardAchievementHandler(failingRepo{memory.NewAwardRepository(), storeErr}, nil, logger.Nop())

	res, err := h.AwardIfEligible(context.Background(), "p1", "a1")
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, res.Awarded)
}

func TestAwardIfEligible_Validation(t *testing.T) {
	h := NewAwardAchievementHandler(memory.NewAwardRepository(), nil, nil)

	_, err := h.AwardIfEligible(context.Background(), "", "a1")
	assert.True(t, shared.IsValidation(err))

	_, err = h.AwardIfEligible(context.Background(), "p1", "")
	assert.True(t, shared.IsValidation(err))
}
