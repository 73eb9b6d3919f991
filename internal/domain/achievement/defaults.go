package achievement

import "time"

// DefaultDefinitions возвращает стартовый набор достижений.
// Загружается в пустое хранилище определений при запуске.
func DefaultDefinitions() []Achievement {
	now := time.Now().UTC()

	return []Achievement{
		{
			ID:          "first-puzzle",
			Title:       "First Steps",
			Description: "Complete your first puzzle",
			IconURL:     "/icons/first-puzzle.svg",
			Rule:        FirstPuzzleRule{IsFirstPuzzle: true},
			CreatedAt:   now,
		},
		{
			ID:          "speed-solver",
			Title:       "Speed Solver",
			Description: "Complete a puzzle in 30 seconds or less",
			IconURL:     "/icons/speed-solver.svg",
			Rule:        CompletionTimeRule{MaxTime: 30},
			CreatedAt:   now,
		},
		{
			ID:          "puzzle-enthusiast",
			Title:       "Puzzle Enthusiast",
			Description: "Complete 10 puzzles",
			IconURL:     "/icons/puzzle-enthusiast.svg",
			Rule:        TotalPuzzlesRule{RequiredTotal: 10},
			CreatedAt:   now,
		},
		{
			ID:          "puzzle-master",
			Title:       "Puzzle Master",
			Description: "Complete 50 puzzles",
			IconURL:     "/icons/puzzle-master.svg",
			Rule:        TotalPuzzlesRule{RequiredTotal: 50},
			CreatedAt:   now,
		},
		{
			ID:          "week-streak",
			Title:       "Dedicated",
			Description: "Log in 7 days in a row",
			IconURL:     "/icons/week-streak.svg",
			Rule:        LoginStreakRule{RequiredDays: 7},
			CreatedAt:   now,
		},
		{
			ID:          "daily-visitor",
			Title:       "Daily Visitor",
			Description: "Log in to the game",
			IconURL:     "/icons/daily-visitor.svg",
			Rule:        DailyLoginRule{},
			CreatedAt:   now,
		},
	}
}
