package leaderboard

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// RANKING SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// RankingSnapshot - неизменяемый результат пересчёта лидерборда.
// После публикации в кеше снапшот никогда не модифицируется.
type RankingSnapshot struct {
	entries    []LeaderboardEntry
	computedAt time.Time
	generation uint64
}

// newRankingSnapshot строит снапшот из живых записей.
func newRankingSnapshot(users []LeaderboardUser, topN int, computedAt time.Time, generation uint64) *RankingSnapshot {
	return &RankingSnapshot{
		entries:    RankUsers(users, topN),
		computedAt: computedAt,
		generation: generation,
	}
}

// Total возвращает количество записей после обрезки.
func (s *RankingSnapshot) Total() int {
	return len(s.entries)
}

// ComputedAt возвращает время пересчёта.
func (s *RankingSnapshot) ComputedAt() time.Time {
	return s.computedAt
}

// IsExpired возвращает true, если с момента пересчёта прошло больше ttl.
func (s *RankingSnapshot) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.computedAt) > ttl
}

// Slice возвращает копию записей [from:to) с учётом границ.
func (s *RankingSnapshot) Slice(from, to int) []LeaderboardEntry {
	if from < 0 {
		from = 0
	}
	if to > len(s.entries) {
		to = len(s.entries)
	}
	if from >= to {
		return []LeaderboardEntry{}
	}

	out := make([]LeaderboardEntry, to-from)
	copy(out, s.entries[from:to])
	return out
}

// Page - страница лидерборда.
type Page struct {
	// Entries - записи страницы (может быть пустым срезом).
	Entries []LeaderboardEntry

	// Total - общее количество записей в обрезанном лидерборде.
	Total int

	// ComputedAt - время пересчёта снапшота, из которого взята страница.
	ComputedAt time.Time

	// Stale - true, если пересчёт не удался и отдан последний удачный снапшот.
	Stale bool

	// HasMore - true, если за этой страницей есть ещё записи.
	HasMore bool
}
