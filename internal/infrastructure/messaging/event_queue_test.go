package messaging

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

type processorFunc func(ctx context.Context, ev achievement.GameEvent) error

func (f processorFunc) Handle(ctx context.Context, ev achievement.GameEvent) error {
	return f(ctx, ev)
}

func testQueueConfig() EventQueueConfig {
	return EventQueueConfig{
		Workers:        2,
		QueueSize:      16,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		HandleTimeout:  time.Second,
	}
}

func loginEvent(player string) achievement.GameEvent {
	return achievement.GameEvent{PlayerID: player, EventType: achievement.EventPlayerLogin}
}

func TestEventQueue_ProcessesSubmittedEvents(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}

	q := NewEventQueue(processorFunc(func(_ context.Context, ev achievement.GameEvent) error {
		mu.Lock()
		seen[ev.PlayerID]++
		mu.Unlock()
		return nil
	}), testQueueConfig())

	for _, p := range []string{"p1", "p2", "p3"} {
		require.NoError(t, q.Submit(loginEvent(p)))
	}
	require.NoError(t, q.Close(context.Background()))

	assert.Equal(t, map[string]int{"p1": 1, "p2": 1, "p3": 1}, seen)
	m := q.Metrics()
	assert.Equal(t, int64(3), m.Submitted)
	assert.Equal(t, int64(3), m.Processed)
	assert.Zero(t, m.Failed)
}

func TestEventQueue_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	q := NewEventQueue(processorFunc(func(context.Context, achievement.GameEvent) error {
		if calls.Add(1) < 3 {
			return shared.ErrServiceUnavailable
		}
		return nil
	}), testQueueConfig())

	require.NoError(t, q.Submit(loginEvent("p1")))
	require.NoError(t, q.Close(context.Background()))

	assert.Equal(t, int32(3), calls.Load())
	m := q.Metrics()
	assert.Equal(t, int64(1), m.Processed)
	assert.Equal(t, int64(2), m.Retried)
}

func TestEventQueue_DropsAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	q := NewEventQueue(processorFunc(func(context.Context, achievement.GameEvent) error {
		calls.Add(1)
		return shared.ErrTimeout
	}), testQueueConfig())

	require.NoError(t, q.Submit(loginEvent("p1")))
	require.NoError(t, q.Close(context.Background()))

	assert.Equal(t, int32(3), calls.Load())
	m := q.Metrics()
	assert.Equal(t, int64(1), m.Failed)
	assert.Equal(t, int64(1), m.Dropped)
}

func TestEventQueue_PermanentErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	q := NewEventQueue(processorFunc(func(context.Context, achievement.GameEvent) error {
		calls.Add(1)
		return shared.ErrInvalidPlayerID
	}), testQueueConfig())

	require.NoError(t, q.Submit(loginEvent("p1")))
	require.NoError(t, q.Close(context.Background()))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), q.Metrics().Failed)
	assert.Zero(t, q.Metrics().Dropped)
}

func TestEventQueue_PanicIsContained(t *testing.T) {
	var calls atomic.Int32
	q := NewEventQueue(processorFunc(func(_ context.Context, ev achievement.GameEvent) error {
		calls.Add(1)
		if ev.PlayerID == "bad" {
			panic("processor exploded")
		}
		return nil
	}), testQueueConfig())

	require.NoError(t, q.Submit(loginEvent("bad")))
	require.NoError(t, q.Submit(loginEvent("good")))
	require.NoError(t, q.Close(context.Background()))

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int64(1), q.Metrics().Processed)
}

func TestEventQueue_SubmitFullAndClosed(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	cfg := testQueueConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	q := NewEventQueue(processorFunc(func(context.Context, achievement.GameEvent) error {
		started <- struct{}{}
		<-release
		return nil
	}), cfg)

	require.NoError(t, q.Submit(loginEvent("p1")))
	<-started // worker holds p1
	require.NoError(t, q.Submit(loginEvent("p2")))

	err := q.Submit(loginEvent("p3"))
	assert.True(t, errors.Is(err, ErrQueueFull))
	assert.Equal(t, int64(1), q.Metrics().Rejected)

	close(release)
	require.NoError(t, q.Close(context.Background()))
	assert.ErrorIs(t, q.Submit(loginEvent("p4")), ErrQueueClosed)
	assert.NoError(t, q.Close(context.Background()))
}

func TestEventQueue_CloseHonoursDeadline(t *testing.T) {
	cfg := testQueueConfig()
	cfg.Workers = 1
	q := NewEventQueue(processorFunc(func(ctx context.Context, _ achievement.GameEvent) error {
		<-ctx.Done()
		return ctx.Err()
	}), cfg)

	require.NoError(t, q.Submit(loginEvent("p1")))
	require.NoError(t, q.Submit(loginEvent("p2")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// lockedBuffer lets worker goroutines and the test share log output.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEventQueue_CloseReportsAbandonedEvents(t *testing.T) {
	var out lockedBuffer
	started := make(chan struct{}, 1)

	cfg := testQueueConfig()
	cfg.Workers = 1
	cfg.Logger = logger.New(logger.Options{Output: &out, Level: logger.LevelWarn})
	q := NewEventQueue(processorFunc(func(ctx context.Context, _ achievement.GameEvent) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	}), cfg)

	require.NoError(t, q.Submit(loginEvent("p1")))
	<-started // worker holds p1, the next two stay buffered
	require.NoError(t, q.Submit(loginEvent("p2")))
	require.NoError(t, q.Submit(loginEvent("p3")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)

	assert.Equal(t, int64(2), q.Metrics().Dropped)
	logs := out.String()
	assert.Contains(t, logs, "event queue closed before drain completed")
	assert.Contains(t, logs, `"abandoned":2`)
	assert.Contains(t, logs, `"pending_at_deadline":2`)
}
