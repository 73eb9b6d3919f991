package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func def(rule Rule) Achievement {
	return Achievement{ID: "a1", Title: "test", Rule: rule}
}

func TestQualifies(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		event GameEvent
		want  bool
	}{
		{
			name:  "completion time under limit",
			rule:  CompletionTimeRule{MaxTime: 30},
			event: GameEvent{PlayerID: "p1", EventType: EventPuzzleCompleted, Metadata: Metadata{CompletionTime: Float64(25)}},
			want:  true,
		},
		{
			name:  "completion time equal to limit",
			rule:  CompletionTimeRule{MaxTime: 30},
			event: GameEvent{PlayerID: "p1", EventType: EventPuzzleCompleted, Metadata: Metadata{CompletionTime: Float64(30)}},
			want:  true,
		},
		{
			name:  "completion time over limit",
			rule:  CompletionTimeRule{MaxTime: 30},
			event: GameEvent{PlayerID: "p1", EventType: EventPuzzleCompleted, Metadata: Metadata{CompletionTime: Float64(45)}},
			want:  false,
		},
		{
			name:  "completion time missing",
			rule:  CompletionTimeRule{MaxTime: 30},
			event: GameEvent{PlayerID: "p1", EventType: EventPuzzleCompleted},
			want:  false,
		},
		{
			name:  "completion time on wrong event",
			rule:  CompletionTimeRule{MaxTime: 30},
			event: GameEvent{PlayerID: "p1", EventType: EventPlayerLogin, Metadata: Metadata{CompletionTime: Float64(5)}},
			want:  false,
		},
		{
			name:  "login streak reached",
			rule:  LoginStreakRule{RequiredDays: 7},
			event: GameEvent{PlayerID: "p1", EventType: EventPlayerLogin, Metadata: Metadata{ConsecutiveDays: Int(7)}},
			want:  true,
		},
		{
			name:  "login streak short",
			rule:  LoginStreakRule{RequiredDays: 7},
			event: GameEvent{PlayerID: "p1", EventType: EventPlayerLogin, Metadata: Metadata{ConsecutiveDays: Int(6)}},
			want:  false,
		},
		{
			name:  "login streak missing days",
			rule:  LoginStreakRule{RequiredDays: 7},
			event: GameEvent{PlayerID: "p1", EventType: EventPlayerLogin},
			want:  false,
		},
		{
			name:  "total puzzles reached",
			rule:  TotalPuzzlesRule{RequiredTotal: 10},
			event: GameEvent{PlayerID: "p1", EventType: EventPuzzleCompleted, Metadata: Metadata{TotalPuzzlesCompleted: Int(12)}},
			want:  true,
		},
		{
			name:  "total puzzles short",
			rule:  TotalPuzzlesRule{RequiredTotal: 10},
			event: GameEvent{PlayerID: "p1", EventType: EventPuzzleCompleted, Metadata: Metadata{TotalPuzzlesCompleted: Int(9)}},
			want:  false,
		},
		{
			name:  "first puzzle",
			rule:  FirstPuzzleRule{IsFirstPuzzle: true},
			event: GameEvent{PlayerID: "p1", EventType: EventPuzzleCompleted, Metadata: Metadata{TotalPuzzlesCompleted: Int(1)}},
			want:  true,
		},
		{
			name:  "first puzzle on second completion",
			rule:  FirstPuzzleRule{IsFirstPuzzle: true},
			event: GameEvent{PlayerID: "p1", EventType: EventPuzzleCompleted, Metadata: Metadata{TotalPuzzlesCompleted: Int(2)}},
			want:  false,
		},
		{
			name:  "first puzzle disabled",
			rule:  FirstPuzzleRule{IsFirstPuzzle: false},
			event: GameEvent{PlayerID: "p1", EventType: EventPuzzleCompleted, Metadata: Metadata{TotalPuzzlesCompleted: Int(1)}},
			want:  false,
		},
		{
			name:  "daily login",
			rule:  DailyLoginRule{},
			event: GameEvent{PlayerID: "p1", EventType: EventPlayerLogin},
			want:  true,
		},
		{
			name:  "daily login on session start",
			rule:  DailyLoginRule{},
			event: GameEvent{PlayerID: "p1", EventType: EventGameSessionStart},
			want:  false,
		},
		{
			name:  "unknown rule",
			rule:  UnknownRule{RuleType: "SECRET_RULE"},
			event: GameEvent{PlayerID: "p1", EventType: EventPlayerLogin},
			want:  false,
		},
		{
			name:  "nil rule",
			rule:  nil,
			event: GameEvent{PlayerID: "p1", EventType: EventPlayerLogin},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Qualifies(def(tt.rule), tt.event))
		})
	}
}

func TestQualifies_UnknownRuleNeverQualifies(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ruleType := RuleType(rapid.StringMatching(`[A-Z_]{1,20}`).Draw(t, "rule_type"))
		if ruleType.IsKnown() {
			t.Skip("known rule type")
		}
		eventType := rapid.SampledFrom([]EventType{
			EventPuzzleCompleted, EventPlayerLogin, EventGameSessionStart,
		}).Draw(t, "event_type")

		ev := GameEvent{
			PlayerID:  "p1",
			EventType: eventType,
			Metadata: Metadata{
				CompletionTime:        Float64(rapid.Float64Range(0, 1000).Draw(t, "completion_time")),
				ConsecutiveDays:       Int(rapid.IntRange(0, 365).Draw(t, "days")),
				TotalPuzzlesCompleted: Int(rapid.IntRange(0, 1000).Draw(t, "total")),
			},
		}

		rule, err := DecodeRule(ruleType, []byte(`{"maxTime": 9999}`))
		if err != nil {
			t.Fatalf("decode unknown rule: %v", err)
		}
		if Qualifies(def(rule), ev) {
			t.Fatalf("unknown rule %q qualified", ruleType)
		}
	})
}

func TestQualifies_CompletionTimeThreshold(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxTime := float64(rapid.IntRange(1, 600).Draw(t, "max_time"))
		took := float64(rapid.IntRange(0, 1200).Draw(t, "took"))

		ev := GameEvent{
			PlayerID:  "p1",
			EventType: EventPuzzleCompleted,
			Metadata:  Metadata{CompletionTime: Float64(took)},
		}
		got := Qualifies(def(CompletionTimeRule{MaxTime: maxTime}), ev)
		if got != (took <= maxTime) {
			t.Fatalf("maxTime=%v took=%v got %v", maxTime, took, got)
		}
	})
}

func TestIsRecognized(t *testing.T) {
	assert.True(t, IsRecognized(def(DailyLoginRule{})))
	assert.False(t, IsRecognized(def(UnknownRule{RuleType: "NOPE"})))
	assert.False(t, IsRecognized(def(nil)))
}
