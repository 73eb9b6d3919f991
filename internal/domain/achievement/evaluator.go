package achievement

// ══════════════════════════════════════════════════════════════════════════════
// RULE EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// Qualifies решает, выполняет ли событие правило достижения.
// Функция чистая: без побочных эффектов и без паник на некорректных данных.
// Отсутствующее поле метаданных, неизвестный тип правила или nil-правило дают false.
func Qualifies(def Achievement, ev GameEvent) bool {
	md := ev.Metadata

	switch r := def.Rule.(type) {
	case CompletionTimeRule:
		return ev.EventType == EventPuzzleCompleted &&
			md.CompletionTime != nil &&
			*md.CompletionTime <= r.MaxTime

	case LoginStreakRule:
		return ev.EventType == EventPlayerLogin &&
			md.ConsecutiveDays != nil &&
			*md.ConsecutiveDays >= r.RequiredDays

	case TotalPuzzlesRule:
		return ev.EventType == EventPuzzleCompleted &&
			md.TotalPuzzlesCompleted != nil &&
			*md.TotalPuzzlesCompleted >= r.RequiredTotal

	case FirstPuzzleRule:
		return ev.EventType == EventPuzzleCompleted &&
			r.IsFirstPuzzle &&
			md.TotalPuzzlesCompleted != nil &&
			*md.TotalPuzzlesCompleted == 1

	case DailyLoginRule:
		return ev.EventType == EventPlayerLogin

	default:
		// UnknownRule и nil
		return false
	}
}

// IsRecognized возвращает true, если правило достижения может быть проверено.
// Используется вызывающей стороной для отладочного логирования.
func IsRecognized(def Achievement) bool {
	if def.Rule == nil {
		return false
	}
	_, unknown := def.Rule.(UnknownRule)
	return !unknown && def.Rule.Type().IsKnown()
}
