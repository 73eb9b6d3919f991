package eventhandler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/messaging"
)

func TestOnAchievementAwardedHandler_RingEvictsOldest(t *testing.T) {
	h := NewOnAchievementAwardedHandler(3, nil)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ev := shared.NewAchievementAwardedEvent(fmt.Sprintf("a%d", i), "p1", fmt.Sprintf("ach-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, h.Handle(ev))
	}

	recent := h.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "a4", recent[0].AwardID)
	assert.Equal(t, "a3", recent[1].AwardID)
	assert.Equal(t, "a2", recent[2].AwardID)

	assert.Len(t, h.Recent(2), 2)
	assert.Len(t, h.Recent(100), 3)
}

func TestOnAchievementAwardedHandler_EmptyAndWrongEvent(t *testing.T) {
	h := NewOnAchievementAwardedHandler(0, nil)

	assert.NotNil(t, h.Recent(10))
	assert.Empty(t, h.Recent(10))

	assert.Error(t, h.Handle(shared.NewScoreUpdatedEvent("u1", "alice", 1, 1)))
}

func TestOnAchievementAwardedHandler_SubscribedToBus(t *testing.T) {
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{})
	defer bus.Close()

	h := NewOnAchievementAwardedHandler(10, nil)
	require.NoError(t, h.Register(bus))

	require.NoError(t, bus.Publish(shared.NewAchievementAwardedEvent("a1", "p1", "first-puzzle", time.Now())))
	require.NoError(t, bus.Publish(shared.NewScoreUpdatedEvent("u1", "alice", 1, 1)))

	recent := h.Recent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, "first-puzzle", recent[0].AchievementID)
}
