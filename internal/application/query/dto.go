// Package query contains read operations (CQRS - Queries).
package query

import (
	"time"

	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/habit"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// DTO
// Представления сущностей для внешнего слоя. Поля совпадают с JSON-ответами API.
// ══════════════════════════════════════════════════════════════════════════════

// dateLayout - формат календарной даты в ответах.
const dateLayout = "2006-01-02"

// UserDTO - пользователь с прогрессом уровня.
type UserDTO struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	// DisplayName - имя и фамилия, либо username.
	DisplayName string `json:"display_name"`

	XP    int `json:"xp"`
	Level int `json:"level"`

	// LevelProgress - процент прохождения текущего уровня (0..100).
	LevelProgress float64 `json:"level_progress"`

	// XPToNextLevel - сколько XP осталось до следующего уровня.
	XPToNextLevel int `json:"xp_to_next_level"`

	CreatedAt time.Time `json:"created_at"`
}

// NewUserDTO строит DTO из доменного пользователя.
func NewUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		DisplayName:   u.DisplayName(),
		XP:            u.XP,
		Level:         u.Level,
		LevelProgress: u.LevelProgress(),
		XPToNextLevel: u.XPToNextLevel(),
		CreatedAt:     u.CreatedAt,
	}
}

// GoalDTO - цель пользователя.
type GoalDTO struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	Difficulty  string     `json:"difficulty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// IsOverdue - дедлайн прошёл, а цель не выполнена.
	IsOverdue bool `json:"is_overdue"`
}

// NewGoalDTO строит DTO из доменной цели на момент now.
func NewGoalDTO(g *goal.Goal, now time.Time) GoalDTO {
	return GoalDTO{
		ID:          g.ID,
		UserID:      g.UserID,
		Title:       g.Title,
		Description: g.Description,
		Priority:    string(g.Priority),
		Category:    g.Category,
		Difficulty:  g.Difficulty,
		Deadline:    g.Deadline,
		Status:      string(g.Status),
		CompletedAt: g.CompletedAt,
		CreatedAt:   g.CreatedAt,
		IsOverdue:   g.IsOverdue(now),
	}
}

// HabitDTO - привычка с текущей серией.
type HabitDTO struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Frequency    string `json:"frequency"`
	ReminderTime string `json:"reminder_time,omitempty"`
	Category     string `json:"category"`

	CurrentStreak    int    `json:"current_streak"`
	BestStreak       int    `json:"best_streak"`
	LastTrackedDate  string `json:"last_tracked_date,omitempty"`
	TotalCompletions int    `json:"total_completions"`

	CreatedAt time.Time `json:"created_at"`
}

// NewHabitDTO строит DTO из доменной привычки.
func NewHabitDTO(h *habit.Habit) HabitDTO {
	dto := HabitDTO{
		ID:               h.ID,
		UserID:           h.UserID,
		Title:            h.Title,
		Description:      h.Description,
		Frequency:        string(h.Frequency),
		ReminderTime:     h.ReminderTime,
		Category:         h.Category,
		CurrentStreak:    h.CurrentStreak,
		BestStreak:       h.BestStreak,
		TotalCompletions: h.TotalCompletions,
		CreatedAt:        h.CreatedAt,
	}
	if h.LastTrackedDate != nil {
		dto.LastTrackedDate = h.LastTrackedDate.Format(dateLayout)
	}
	return dto
}
