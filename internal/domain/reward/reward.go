// Package reward содержит таблицу начисления XP за действия пользователя.
// Все функции чистые.
package reward

import "github.com/focusgoal/focusgoal-backend/internal/domain/goal"

// Action определяет действие, за которое начисляется XP.
type Action string

const (
	ActionGoalCreated   Action = "goal_created"
	ActionGoalCompleted Action = "goal_completed"
	ActionHabitCreated  Action = "habit_created"
	ActionHabitTracked  Action = "habit_tracked"
	ActionFocusStarted  Action = "focus_started"
)

const (
	goalCreatedXP    = 10
	habitCreatedXP   = 5
	habitTrackedXP   = 5
	focusStartedXP   = 0
	highPriorityXP   = 75
	mediumPriorityXP = 50
	lowPriorityXP    = 25
)

// ForGoalCreated возвращает XP за создание цели.
func ForGoalCreated() int { return goalCreatedXP }

// ForHabitCreated возвращает XP за создание привычки.
func ForHabitCreated() int { return habitCreatedXP }

// ForHabitTracked возвращает XP за отметку привычки. Дневного лимита нет.
func ForHabitTracked() int { return habitTrackedXP }

// ForFocusSessionStarted возвращает XP за старт фокус-сессии.
func ForFocusSessionStarted() int { return focusStartedXP }

// ForGoalCompleted возвращает XP за выполнение цели с данным приоритетом.
// Неизвестный приоритет награждается как medium.
func ForGoalCompleted(p goal.Priority) int {
	switch p {
	case goal.PriorityHigh:
		return highPriorityXP
	case goal.PriorityLow:
		return lowPriorityXP
	default:
		return mediumPriorityXP
	}
}
