package shared

import (
	"strconv"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types emitted by the progress engine.
const (
	// User events
	EventUserRegistered EventType = "user.registered"

	// Progress events
	EventXPGained EventType = "progress.xp_gained"
	EventLevelUp  EventType = "progress.level_up"

	// Goal events
	EventGoalCreated   EventType = "goal.created"
	EventGoalCompleted EventType = "goal.completed"

	// Habit events
	EventHabitCreated EventType = "habit.created"
	EventHabitTracked EventType = "habit.tracked"

	// Focus events
	EventFocusSessionStarted EventType = "focus.session_started"
)

// Event is the base interface for all domain events.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time
	AggregateID() string
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

func (e BaseEvent) EventType() EventType {
	return e.Type
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event keyed by the owning user.
func NewBaseEvent(eventType EventType, userID int64, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: strconv.FormatInt(userID, 10),
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserRegisteredEvent is emitted when a user record is created, explicitly or on first action.
type UserRegisteredEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"username": e.Username,
	}
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(userID int64, username string, at time.Time) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent: NewBaseEvent(EventUserRegistered, userID, at),
		UserID:    userID,
		Username:  username,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a user gains XP.
type XPGainedEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"`
}

func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(userID int64, amount, newTotal int, source string, at time.Time) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, userID, at),
		UserID:    userID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when an XP gain crosses a level threshold.
type LevelUpEvent struct {
	BaseEvent
	UserID   int64 `json:"user_id"`
	OldLevel int   `json:"old_level"`
	NewLevel int   `json:"new_level"`
	TotalXP  int   `json:"total_xp"`
}

func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"total_xp":  e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID int64, oldLevel, newLevel, totalXP int, at time.Time) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID, at),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Goal Events
// ═══════════════════════════════════════════════════════════════════════════

// GoalCreatedEvent is emitted when a goal is created.
type GoalCreatedEvent struct {
	BaseEvent
	GoalID   int64  `json:"goal_id"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

func (e GoalCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"goal_id":  e.GoalID,
		"title":    e.Title,
		"priority": e.Priority,
	}
}

// NewGoalCreatedEvent creates a new GoalCreatedEvent.
func NewGoalCreatedEvent(userID, goalID int64, title, priority string, at time.Time) GoalCreatedEvent {
	return GoalCreatedEvent{
		BaseEvent: NewBaseEvent(EventGoalCreated, userID, at),
		GoalID:    goalID,
		Title:     title,
		Priority:  priority,
	}
}

// GoalCompletedEvent is emitted when a goal transitions to completed.
type GoalCompletedEvent struct {
	BaseEvent
	GoalID   int64  `json:"goal_id"`
	Priority string `json:"priority"`
	XPEarned int    `json:"xp_earned"`
}

func (e GoalCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"goal_id":   e.GoalID,
		"priority":  e.Priority,
		"xp_earned": e.XPEarned,
	}
}

// NewGoalCompletedEvent creates a new GoalCompletedEvent.
func NewGoalCompletedEvent(userID, goalID int64, priority string, xp int, at time.Time) GoalCompletedEvent {
	return GoalCompletedEvent{
		BaseEvent: NewBaseEvent(EventGoalCompleted, userID, at),
		GoalID:    goalID,
		Priority:  priority,
		XPEarned:  xp,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Habit Events
// ═══════════════════════════════════════════════════════════════════════════

// HabitCreatedEvent is emitted when a habit is created.
type HabitCreatedEvent struct {
	BaseEvent
	HabitID   int64  `json:"habit_id"`
	Title     string `json:"title"`
	Frequency string `json:"frequency"`
}

func (e HabitCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"habit_id":  e.HabitID,
		"title":     e.Title,
		"frequency": e.Frequency,
	}
}

// NewHabitCreatedEvent creates a new HabitCreatedEvent.
func NewHabitCreatedEvent(userID, habitID int64, title, frequency string, at time.Time) HabitCreatedEvent {
	return HabitCreatedEvent{
		BaseEvent: NewBaseEvent(EventHabitCreated, userID, at),
		HabitID:   habitID,
		Title:     title,
		Frequency: frequency,
	}
}

// HabitTrackedEvent is emitted every time a habit is tracked.
// StreakChanged is false for a repeat track on the same day.
type HabitTrackedEvent struct {
	BaseEvent
	UserID        int64 `json:"user_id"`
	HabitID       int64 `json:"habit_id"`
	CurrentStreak int   `json:"current_streak"`
	BestStreak    int   `json:"best_streak"`
	StreakChanged bool  `json:"streak_changed"`
}

func (e HabitTrackedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"habit_id":       e.HabitID,
		"current_streak": e.CurrentStreak,
		"best_streak":    e.BestStreak,
		"streak_changed": e.StreakChanged,
	}
}

// NewHabitTrackedEvent creates a new HabitTrackedEvent.
func NewHabitTrackedEvent(userID, habitID int64, current, best int, changed bool, at time.Time) HabitTrackedEvent {
	return HabitTrackedEvent{
		BaseEvent:     NewBaseEvent(EventHabitTracked, userID, at),
		UserID:        userID,
		HabitID:       habitID,
		CurrentStreak: current,
		BestStreak:    best,
		StreakChanged: changed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Focus Events
// ═══════════════════════════════════════════════════════════════════════════

// FocusSessionStartedEvent is emitted when a focus session is recorded.
type FocusSessionStartedEvent struct {
	BaseEvent
	SessionID       int64  `json:"session_id"`
	DurationMinutes int    `json:"duration_minutes"`
	GoalID          *int64 `json:"goal_id,omitempty"`
}

func (e FocusSessionStartedEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"session_id":       e.SessionID,
		"duration_minutes": e.DurationMinutes,
	}
	if e.GoalID != nil {
		p["goal_id"] = *e.GoalID
	}
	return p
}

// NewFocusSessionStartedEvent creates a new FocusSessionStartedEvent.
func NewFocusSessionStartedEvent(userID, sessionID int64, minutes int, goalID *int64, at time.Time) FocusSessionStartedEvent {
	return FocusSessionStartedEvent{
		BaseEvent:       NewBaseEvent(EventFocusSessionStarted, userID, at),
		SessionID:       sessionID,
		DurationMinutes: minutes,
		GoalID:          goalID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error

	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
