// Package jobs contains the scheduled jobs of the puzzle hub.
package jobs

import (
	"context"
	"fmt"

	"github.com/alem-hub/puzzle-hub/internal/domain/leaderboard"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// WARM LEADERBOARD JOB
// Пересчитывает снапшот рейтинга заранее, чтобы чтение лидерборда
// не ждало пересчёта после истечения TTL.
// ══════════════════════════════════════════════════════════════════════════════

// RankingRefresher - кеш рейтинга, который умеет сбрасываться и пересчитываться.
type RankingRefresher interface {
	Invalidate()
	Snapshot(ctx context.Context) (*leaderboard.RankingSnapshot, error)
}

// WarmLeaderboardJob принудительно пересчитывает снапшот.
type WarmLeaderboardJob struct {
	cache  RankingRefresher
	logger *logger.Logger
}

// NewWarmLeaderboardJob создаёт задачу.
func NewWarmLeaderboardJob(cache RankingRefresher, log *logger.Logger) *WarmLeaderboardJob {
	if log == nil {
		log = logger.Nop()
	}
	return &WarmLeaderboardJob{
		cache:  cache,
		logger: log.With(logger.F("job", "warm_leaderboard")),
	}
}

// Name возвращает имя задачи.
func (j *WarmLeaderboardJob) Name() string {
	return "warm_leaderboard"
}

// Run сбрасывает кеш и сразу строит новый снапшот.
// Если пересчёт не удался, кеш продолжает отдавать последний удачный снапшот.
func (j *WarmLeaderboardJob) Run(ctx context.Context) error {
	j.cache.Invalidate()

	snap, err := j.cache.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("warm_leaderboard: %w", err)
	}

	j.logger.Debug("leaderboard snapshot refreshed",
		logger.Int("entries", snap.Total()),
		logger.Time("computed_at", snap.ComputedAt()),
	)
	return nil
}
