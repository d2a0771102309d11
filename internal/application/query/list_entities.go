package query

import (
	"context"

	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/habit"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST GOALS / LIST HABITS QUERIES
// Полные списки в порядке создания. Пагинации нет.
// ══════════════════════════════════════════════════════════════════════════════

// ListByUserQuery - параметры списочных запросов.
type ListByUserQuery struct {
	UserID int64
}

// Validate проверяет корректность параметров.
func (q ListByUserQuery) Validate() error {
	if q.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	return nil
}

// ListGoalsHandler возвращает цели пользователя.
type ListGoalsHandler struct {
	goals goal.Repository
	clock timeutil.Clock
}

// NewListGoalsHandler создаёт обработчик. clock нужен для признака просрочки.
func NewListGoalsHandler(goals goal.Repository, clock timeutil.Clock) *ListGoalsHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &ListGoalsHandler{goals: goals, clock: clock}
}

// Handle выполняет запрос.
func (h *ListGoalsHandler) Handle(ctx context.Context, q ListByUserQuery) ([]GoalDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	goals, err := h.goals.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	out := make([]GoalDTO, 0, len(goals))
	for _, g := range goals {
		out = append(out, NewGoalDTO(g, now))
	}
	return out, nil
}

// ListHabitsHandler возвращает привычки пользователя.
type ListHabitsHandler struct {
	habits habit.Repository
}

// NewListHabitsHandler создаёт обработчик.
func NewListHabitsHandler(habits habit.Repository) *ListHabitsHandler {
	return &ListHabitsHandler{habits: habits}
}

// Handle выполняет запрос.
func (h *ListHabitsHandler) Handle(ctx context.Context, q ListByUserQuery) ([]HabitDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	habits, err := h.habits.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]HabitDTO, 0, len(habits))
	for _, hb := range habits {
		out = append(out, NewHabitDTO(hb))
	}
	return out, nil
}
