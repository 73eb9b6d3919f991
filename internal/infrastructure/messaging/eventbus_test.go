package messaging

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
)

func awardedEvent(player string) shared.Event {
	return shared.NewAchievementAwardedEvent("a-1", player, "first-puzzle", time.Now())
}

func TestInMemoryEventBus_SyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{EnableMetrics: true})
	defer bus.Close()

	var typed, global int
	require.NoError(t, bus.Subscribe(shared.EventAchievementAwarded, func(shared.Event) error {
		typed++
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		global++
		return nil
	}))

	require.NoError(t, bus.Publish(awardedEvent("p1")))
	require.NoError(t, bus.Publish(shared.NewScoreUpdatedEvent("u1", "alice", 10, 1)))

	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, global)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(3), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}

func TestInMemoryEventBus_HandlerFailureAndPanicAreContained(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{EnableMetrics: true})
	defer bus.Close()

	var reached bool
	require.NoError(t, bus.Subscribe(shared.EventAchievementAwarded, func(shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventAchievementAwarded, func(shared.Event) error {
		panic("handler exploded")
	}))
	require.NoError(t, bus.Subscribe(shared.EventAchievementAwarded, func(shared.Event) error {
		reached = true
		return nil
	}))

	assert.NoError(t, bus.Publish(awardedEvent("p1")))
	assert.True(t, reached)
	assert.Equal(t, int64(2), bus.Metrics().Snapshot().HandlerFailures)
}

func TestInMemoryEventBus_AsyncDeliveryAndClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var handled atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		handled.Add(1)
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(awardedEvent("p1")))
	}
	require.Eventually(t, func() bool { return handled.Load() == 5 }, time.Second, time.Millisecond)
	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(awardedEvent("p1")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventScoreUpdated, func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestInMemoryEventBus_RejectsNil(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	defer bus.Close()

	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventScoreUpdated, nil))
	assert.Error(t, bus.SubscribeAll(nil))
	assert.Nil(t, bus.Metrics())
}
