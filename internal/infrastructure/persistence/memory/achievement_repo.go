// Package memory provides in-process implementations of the domain repositories.
// They are the default when no database is configured and back most tests.
// All types are safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
)

// Compile-time interface checks.
var (
	_ achievement.DefinitionRepository = (*DefinitionRepository)(nil)
	_ achievement.AwardRepository      = (*AwardRepository)(nil)
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// DefinitionRepository keeps achievement definitions in a map.
type DefinitionRepository struct {
	mu          sync.RWMutex
	definitions map[string]achievement.Achievement
}

// NewDefinitionRepository creates an empty repository.
func NewDefinitionRepository() *DefinitionRepository {
	return &DefinitionRepository{
		definitions: make(map[string]achievement.Achievement),
	}
}

// List returns all definitions ordered by ID.
func (r *DefinitionRepository) List(ctx context.Context) ([]achievement.Achievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]achievement.Achievement, 0, len(r.definitions))
	for _, d := range r.definitions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns a definition by ID.
func (r *DefinitionRepository) Get(ctx context.Context, id string) (*achievement.Achievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.definitions[id]
	if !ok {
		return nil, shared.ErrAchievementNotFound
	}
	return &d, nil
}

// Upsert creates or replaces a definition. The original CreatedAt is kept.
func (r *DefinitionRepository) Upsert(ctx context.Context, def achievement.Achievement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if def.ID == "" {
		return shared.ErrInvalidAchievementID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.definitions[def.ID]; ok && !existing.CreatedAt.IsZero() {
		def.CreatedAt = existing.CreatedAt
	}
	r.definitions[def.ID] = def
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AWARD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AwardRepository keeps award records keyed by (player, achievement).
type AwardRepository struct {
	mu       sync.RWMutex
	awards   map[achievement.AwardKey]achievement.PlayerAchievement
	byPlayer map[string][]achievement.AwardKey
}

// NewAwardRepository creates an empty repository.
func NewAwardRepository() *AwardRepository {
	return &AwardRepository{
		awards:   make(map[achievement.AwardKey]achievement.PlayerAchievement),
		byPlayer: make(map[string][]achievement.AwardKey),
	}
}

// Get returns the award for a (player, achievement) pair.
func (r *AwardRepository) Get(ctx context.Context, playerID, achievementID string) (*achievement.PlayerAchievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pa, ok := r.awards[achievement.AwardKey{PlayerID: playerID, AchievementID: achievementID}]
	if !ok {
		return nil, shared.NewDomainError("achievement", "GetAward", shared.ErrNotFound, "award not found")
	}
	return &pa, nil
}

// InsertIfAbsent stores the award unless the pair already exists.
// The check and the insert happen under one write lock.
func (r *AwardRepository) InsertIfAbsent(ctx context.Context, award achievement.PlayerAchievement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := award.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.awards[key]; exists {
		return shared.ErrAchievementAwarded
	}
	r.awards[key] = award
	r.byPlayer[award.PlayerID] = append(r.byPlayer[award.PlayerID], key)
	return nil
}

// ListByPlayer returns the player's awards, newest first.
func (r *AwardRepository) ListByPlayer(ctx context.Context, playerID string) ([]achievement.PlayerAchievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	keys := r.byPlayer[playerID]
	out := make([]achievement.PlayerAchievement, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.awards[k])
	}
	r.mu.RUnlock()

	// Insertion order is oldest first; reverse before the stable sort so
	// equal timestamps still come out newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EarnedAt.After(out[j].EarnedAt)
	})
	return out, nil
}

// Count returns the total number of award records.
func (r *AwardRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.awards)
}
