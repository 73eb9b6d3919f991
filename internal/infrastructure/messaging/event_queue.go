package messaging

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
	"github.com/alem-hub/puzzle-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAME EVENT QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// GameEventProcessor processes one game event. Implemented by
// eventhandler.OnGameEventHandler.
type GameEventProcessor interface {
	Handle(ctx context.Context, ev achievement.GameEvent) error
}

// EventQueue is the fire-and-forget ingestion path for game events.
// Submit never blocks: the event either lands in a bounded buffer or is
// rejected. A fixed pool of workers drains the buffer, retrying transient
// failures with exponential backoff and dropping the event after the last
// attempt. Retrying a whole event is safe because awarding is idempotent.
type EventQueue struct {
	processor GameEventProcessor
	config    EventQueueConfig
	retrier   *retry.Retrier
	logger    *logger.Logger

	jobs   chan achievement.GameEvent
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	// workCtx is cancelled when Close gives up waiting for the drain.
	workCtx    context.Context
	cancelWork context.CancelFunc

	submitted atomic.Int64
	rejected  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64
	dropped   atomic.Int64
}

// EventQueueConfig contains configuration for EventQueue.
type EventQueueConfig struct {
	// Workers is the number of concurrent processing goroutines.
	Workers int

	// QueueSize is the buffer capacity. Submit fails with ErrQueueFull when full.
	QueueSize int

	// MaxAttempts is the number of tries per event, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration

	// HandleTimeout bounds a single processing attempt.
	HandleTimeout time.Duration

	// Logger for structured logging
	Logger *logger.Logger
}

// DefaultEventQueueConfig returns sensible defaults.
func DefaultEventQueueConfig() EventQueueConfig {
	return EventQueueConfig{
		Workers:        4,
		QueueSize:      1024,
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		HandleTimeout:  5 * time.Second,
	}
}

// NewEventQueue creates the queue and starts its workers.
func NewEventQueue(processor GameEventProcessor, config EventQueueConfig) *EventQueue {
	defaults := DefaultEventQueueConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if config.HandleTimeout <= 0 {
		config.HandleTimeout = defaults.HandleTimeout
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}

	workCtx, cancel := context.WithCancel(context.Background())

	q := &EventQueue{
		processor:  processor,
		config:     config,
		logger:     config.Logger.With(logger.Component("event_queue")),
		jobs:       make(chan achievement.GameEvent, config.QueueSize),
		workCtx:    workCtx,
		cancelWork: cancel,
	}

	q.retrier = retry.New(
		retry.WithMaxAttempts(config.MaxAttempts),
		retry.WithInitialDelay(config.InitialBackoff),
		retry.WithMaxDelay(config.MaxBackoff),
		retry.WithJitter(0.1),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			q.retried.Add(1)
			q.logger.Warn("retrying game event",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)

	for i := 0; i < config.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	return q
}

// Submit enqueues an event without blocking.
func (q *EventQueue) Submit(ev achievement.GameEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- ev:
		q.submitted.Add(1)
		return nil
	default:
		q.rejected.Add(1)
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the buffer to drain.
// If ctx expires first, in-flight work is cancelled and ctx.Err() is returned.
func (q *EventQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancelWork()
		q.logger.Info("event queue drained", logger.Int64("processed", q.processed.Load()))
		return nil
	case <-ctx.Done():
		droppedBefore := q.dropped.Load()
		pending := len(q.jobs)
		q.cancelWork()
		<-done
		q.logger.Warn("event queue closed before drain completed",
			logger.Int("pending_at_deadline", pending),
			logger.Int64("abandoned", q.dropped.Load()-droppedBefore),
		)
		return ctx.Err()
	}
}

// Len returns the number of buffered events.
func (q *EventQueue) Len() int {
	return len(q.jobs)
}

// worker drains the job channel until it is closed.
func (q *EventQueue) worker() {
	defer q.wg.Done()

	for ev := range q.jobs {
		if q.workCtx.Err() != nil {
			q.dropped.Add(1)
			continue
		}
		q.process(ev)
	}
}

// process runs one event through the processor with retries.
func (q *EventQueue) process(ev achievement.GameEvent) {
	log := q.logger.With(logger.PlayerID(ev.PlayerID), logger.EventType(string(ev.EventType)))

	attempts, err := q.retrier.DoCount(q.workCtx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, q.config.HandleTimeout)
		defer cancel()

		err := q.safeHandle(ctx, ev)
		if err != nil && (shared.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)) {
			return retry.Retryable(err)
		}
		return err
	})

	if err == nil {
		q.processed.Add(1)
		return
	}

	q.failed.Add(1)
	if attempts >= q.config.MaxAttempts && (shared.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)) {
		q.dropped.Add(1)
		log.Error("dropping game event after retries", logger.Int("attempts", attempts), logger.Err(err))
		return
	}
	log.Error("game event processing failed", logger.Int("attempts", attempts), logger.Err(err))
}

// safeHandle turns a processor panic into an error so one bad event
// cannot take a worker down.
func (q *EventQueue) safeHandle(ctx context.Context, ev achievement.GameEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
			q.logger.Error("game event processor panicked", logger.String("stack", string(debug.Stack())))
		}
	}()
	return q.processor.Handle(ctx, ev)
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventQueueMetrics is a point-in-time snapshot of queue counters.
type EventQueueMetrics struct {
	Submitted int64 `json:"submitted"`
	Rejected  int64 `json:"rejected"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Retried   int64 `json:"retried"`
	Dropped   int64 `json:"dropped"`
	Pending   int   `json:"pending"`
	Capacity  int   `json:"capacity"`
}

// Metrics returns the current counters.
func (q *EventQueue) Metrics() EventQueueMetrics {
	return EventQueueMetrics{
		Submitted: q.submitted.Load(),
		Rejected:  q.rejected.Load(),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Retried:   q.retried.Load(),
		Dropped:   q.dropped.Load(),
		Pending:   len(q.jobs),
		Capacity:  cap(q.jobs),
	}
}

var (
	// ErrQueueFull is returned by Submit when the buffer is at capacity.
	ErrQueueFull = errors.New("event queue: queue is full")

	// ErrQueueClosed is returned by Submit after Close.
	ErrQueueClosed = errors.New("event queue: queue is closed")
)
