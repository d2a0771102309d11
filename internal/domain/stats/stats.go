// Package stats вычисляет сводную статистику пользователя.
// Статистика всегда строится заново из текущего состояния и нигде не хранится.
package stats

import (
	"github.com/focusgoal/focusgoal-backend/internal/domain/focus"
	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/habit"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"
)

// Stats - сводка по пользователю.
type Stats struct {
	User   UserStats  `json:"user"`
	Goals  GoalStats  `json:"goals"`
	Habits HabitStats `json:"habits"`
	Focus  FocusStats `json:"focus"`
}

// UserStats - блок опыта и уровня.
type UserStats struct {
	XP    int `json:"xp"`
	Level int `json:"level"`
}

// GoalStats - блок целей.
type GoalStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// HabitStats - блок привычек.
type HabitStats struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	TotalStreak int `json:"total_streak"`
	BestStreak  int `json:"best_streak"`
}

// FocusStats - блок фокус-сессий.
type FocusStats struct {
	TotalSessions int `json:"total_sessions"`
	TotalMinutes  int `json:"total_minutes"`
}

// Zero возвращает статистику нового пользователя.
func Zero() Stats {
	return Stats{User: UserStats{XP: 0, Level: 1}}
}

// Aggregate собирает статистику. u может быть nil.
func Aggregate(u *user.User, goals []*goal.Goal, habits []*habit.Habit, sessions []*focus.Session) Stats {
	s := Zero()

	if u != nil {
		s.User.XP = u.XP
		s.User.Level = u.Level
	}

	s.Goals.Total = len(goals)
	for _, g := range goals {
		if g.IsCompleted() {
			s.Goals.Completed++
		}
	}
	if s.Goals.Total > 0 {
		s.Goals.CompletionRate = float64(s.Goals.Completed) / float64(s.Goals.Total)
	}

	s.Habits.Total = len(habits)
	for _, h := range habits {
		if h.IsActive() {
			s.Habits.Active++
		}
		s.Habits.TotalStreak += h.CurrentStreak
		if h.BestStreak > s.Habits.BestStreak {
			s.Habits.BestStreak = h.BestStreak
		}
	}

	s.Focus.TotalSessions = len(sessions)
	for _, fs := range sessions {
		s.Focus.TotalMinutes += fs.DurationMinutes
	}

	return s
}
