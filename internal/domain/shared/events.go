package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the domain and is published after the state change is durable.
const (
	// Achievement events
	EventAchievementAwarded EventType = "achievement.awarded"

	// Leaderboard events
	EventScoreUpdated EventType = "leaderboard.score_updated"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementAwardedEvent is emitted once per (player, achievement) pair,
// right after the award record has been stored.
type AchievementAwardedEvent struct {
	BaseEvent
	AwardID       string    `json:"award_id"`
	PlayerID      string    `json:"player_id"`
	AchievementID string    `json:"achievement_id"`
	EarnedAt      time.Time `json:"earned_at"`
}

// Payload implements Event interface.
func (e AchievementAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"award_id":       e.AwardID,
		"player_id":      e.PlayerID,
		"achievement_id": e.AchievementID,
		"earned_at":      e.EarnedAt.Format(time.RFC3339),
	}
}

// NewAchievementAwardedEvent creates a new AchievementAwardedEvent.
func NewAchievementAwardedEvent(awardID, playerID, achievementID string, earnedAt time.Time) AchievementAwardedEvent {
	return AchievementAwardedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementAwarded, playerID),
		AwardID:       awardID,
		PlayerID:      playerID,
		AchievementID: achievementID,
		EarnedAt:      earnedAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// ScoreUpdatedEvent is emitted after a leaderboard record was upserted.
type ScoreUpdatedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Points        int64  `json:"points"`
	PuzzlesSolved int64  `json:"puzzles_solved"`
}

// Payload implements Event interface.
func (e ScoreUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"username":       e.Username,
		"points":         e.Points,
		"puzzles_solved": e.PuzzlesSolved,
	}
}

// NewScoreUpdatedEvent creates a new ScoreUpdatedEvent.
func NewScoreUpdatedEvent(userID, username string, points, puzzlesSolved int64) ScoreUpdatedEvent {
	return ScoreUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventScoreUpdated, userID),
		UserID:        userID,
		Username:      username,
		Points:        points,
		PuzzlesSolved: puzzlesSolved,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Bus contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
