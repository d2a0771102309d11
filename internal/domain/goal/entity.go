// Package goal содержит доменную модель цели пользователя.
package goal

import (
	"strings"
	"time"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Priority определяет важность цели. Хранится как есть:
// неизвестные значения допустимы и награждаются как medium.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status определяет состояние цели.
type Status string

const (
	// StatusActive - цель в работе.
	StatusActive Status = "active"
	// StatusCompleted - цель выполнена.
	StatusCompleted Status = "completed"
)

// Значения по умолчанию для новой цели.
const (
	DefaultPriority   = PriorityMedium
	DefaultCategory   = "general"
	DefaultDifficulty = "medium"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: GOAL
// ══════════════════════════════════════════════════════════════════════════════

// Goal - цель пользователя. ID назначает хранилище.
type Goal struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Priority    Priority
	Category    string
	Difficulty  string
	Deadline    *time.Time
	Status      Status
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// NewGoalParams содержит параметры для создания цели.
type NewGoalParams struct {
	UserID      int64
	Title       string
	Description string
	Priority    string
	Category    string
	Difficulty  string
	Deadline    *time.Time
}

// NewGoal создаёт активную цель, подставляя значения по умолчанию.
func NewGoal(params NewGoalParams, now time.Time) (*Goal, error) {
	if params.UserID <= 0 {
		return nil, shared.ErrInvalidUserID
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, shared.ErrEmptyGoalTitle
	}

	return &Goal{
		UserID:      params.UserID,
		Title:       title,
		Description: params.Description,
		Priority:    Priority(orDefault(params.Priority, string(DefaultPriority))),
		Category:    orDefault(params.Category, DefaultCategory),
		Difficulty:  orDefault(params.Difficulty, DefaultDifficulty),
		Deadline:    params.Deadline,
		Status:      StatusActive,
		CreatedAt:   now,
	}, nil
}

// IsCompleted возвращает true, если цель уже выполнена.
func (g *Goal) IsCompleted() bool {
	return g.Status == StatusCompleted
}

// Complete переводит цель в состояние completed.
// Повторное выполнение запрещено, если allowRepeat == false.
func (g *Goal) Complete(at time.Time, allowRepeat bool) error {
	if g.IsCompleted() && !allowRepeat {
		return shared.ErrGoalAlreadyCompleted
	}
	g.Status = StatusCompleted
	g.CompletedAt = &at
	return nil
}

// IsOverdue возвращает true, если дедлайн прошёл, а цель не выполнена.
func (g *Goal) IsOverdue(now time.Time) bool {
	return g.Deadline != nil && !g.IsCompleted() && now.After(*g.Deadline)
}

// FindOwned ищет цель среди целей пользователя линейным перебором.
func FindOwned(goals []*Goal, goalID int64) (*Goal, bool) {
	for _, g := range goals {
		if g.ID == goalID {
			return g, true
		}
	}
	return nil, false
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
