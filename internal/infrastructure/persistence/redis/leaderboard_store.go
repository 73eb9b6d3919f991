package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alem-hub/puzzle-hub/internal/domain/leaderboard"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/pkg/circuitbreaker"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// LeaderboardUsersKey is the hash holding userId -> JSON record.
const LeaderboardUsersKey = "leaderboard:users"

var _ leaderboard.Store = (*LeaderboardStore)(nil)

// LeaderboardStore implements leaderboard.Store on a single Redis hash.
// Ranking happens in the process; Redis only keeps the raw aggregates so
// they survive restarts and can be shared between instances.
type LeaderboardStore struct {
	client  *Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *logger.Logger
}

// StoreOption configures a LeaderboardStore.
type StoreOption func(*LeaderboardStore)

// WithBreaker routes every read and write through cb.
// While the circuit is open calls fail with shared.ErrServiceUnavailable.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) StoreOption {
	return func(s *LeaderboardStore) {
		s.breaker = cb
	}
}

// NewStoreBreaker returns the breaker used in front of Redis.
// Only transient errors trip it; a corrupt record is not an outage.
func NewStoreBreaker(log *logger.Logger) *circuitbreaker.CircuitBreaker {
	if log == nil {
		log = logger.Nop()
	}
	return circuitbreaker.StoreBreaker("redis",
		func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
		circuitbreaker.WithIsFailure(shared.IsRetryable),
	)
}

// NewLeaderboardStore creates a store backed by client.
func NewLeaderboardStore(client *Client, log *logger.Logger, opts ...StoreOption) *LeaderboardStore {
	if log == nil {
		log = logger.Nop()
	}
	s := &LeaderboardStore{
		client: client,
		logger: log.With(logger.Component("redis_leaderboard_store")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the record for userID.
func (s *LeaderboardStore) Get(ctx context.Context, userID string) (*leaderboard.LeaderboardUser, error) {
	var user leaderboard.LeaderboardUser
	err := s.guard(ctx, "HGet", func(ctx context.Context) error {
		err := s.client.HGetJSON(ctx, LeaderboardUsersKey, userID, &user)
		if errors.Is(err, ErrCacheMiss) {
			return shared.ErrLeaderboardUserNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert replaces or inserts the record.
func (s *LeaderboardStore) Upsert(ctx context.Context, user leaderboard.LeaderboardUser) error {
	err := s.guard(ctx, "HSet", func(ctx context.Context) error {
		return s.client.HSetJSON(ctx, LeaderboardUsersKey, user.UserID, user)
	})
	if err != nil {
		return fmt.Errorf("redis leaderboard upsert %s: %w", user.UserID, err)
	}
	return nil
}

// List returns every record. Fields that fail to decode are skipped and logged.
func (s *LeaderboardStore) List(ctx context.Context) ([]leaderboard.LeaderboardUser, error) {
	var fields map[string]string
	err := s.guard(ctx, "HGetAll", func(ctx context.Context) error {
		var err error
		fields, err = s.client.HGetAll(ctx, LeaderboardUsersKey)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]leaderboard.LeaderboardUser, 0, len(fields))
	for userID, raw := range fields {
		var user leaderboard.LeaderboardUser
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			s.logger.Warn("skipping corrupt leaderboard record",
				logger.String("user_id", userID),
				logger.Err(err),
			)
			continue
		}
		out = append(out, user)
	}
	return out, nil
}

// Ping checks that Redis is reachable. It bypasses the breaker so health
// checks report the server's real state.
func (s *LeaderboardStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// BreakerState reports the breaker state, or "disabled" without one.
func (s *LeaderboardStore) BreakerState() string {
	if s.breaker == nil {
		return "disabled"
	}
	return s.breaker.State().String()
}

// guard runs fn through the breaker when one is configured.
func (s *LeaderboardStore) guard(ctx context.Context, op string, fn func(context.Context) error) error {
	if s.breaker == nil {
		return fn(ctx)
	}

	err := s.breaker.Execute(ctx, fn)
	if circuitbreaker.IsRejected(err) {
		return shared.WrapError("redis", op, shared.ErrServiceUnavailable, "redis circuit open", err)
	}
	return err
}
