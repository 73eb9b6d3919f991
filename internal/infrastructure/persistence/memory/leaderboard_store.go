package memory

import (
	"context"
	"sync"

	"github.com/alem-hub/puzzle-hub/internal/domain/leaderboard"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
)

var _ leaderboard.Store = (*LeaderboardStore)(nil)

// LeaderboardStore keeps live leaderboard records in a map keyed by user ID.
// Contents are lost on restart.
type LeaderboardStore struct {
	mu    sync.RWMutex
	users map[string]leaderboard.LeaderboardUser
}

// NewLeaderboardStore creates an empty store.
func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		users: make(map[string]leaderboard.LeaderboardUser),
	}
}

// Get returns the record for userID.
func (s *LeaderboardStore) Get(ctx context.Context, userID string) (*leaderboard.LeaderboardUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, shared.ErrLeaderboardUserNotFound
	}
	return &u, nil
}

// Upsert replaces or inserts the record.
func (s *LeaderboardStore) Upsert(ctx context.Context, user leaderboard.LeaderboardUser) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.UserID] = user
	return nil
}

// List returns a copy of every record.
func (s *LeaderboardStore) List(ctx context.Context) ([]leaderboard.LeaderboardUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]leaderboard.LeaderboardUser, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

// Ping always succeeds. Present so the store satisfies the readiness checker.
func (s *LeaderboardStore) Ping(context.Context) error {
	return nil
}
