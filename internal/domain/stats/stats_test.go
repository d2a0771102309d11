package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/focusgoal/focusgoal-backend/internal/domain/focus"
	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/habit"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"
)

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil, nil, nil, nil)

	assert.Equal(t, Zero(), s)
	assert.Equal(t, 1, s.User.Level)
	assert.Equal(t, 0.0, s.Goals.CompletionRate)
}

func TestAggregate_CompletionRate(t *testing.T) {
	goals := []*goal.Goal{
		{Status: goal.StatusCompleted},
		{Status: goal.StatusActive},
		{Status: goal.StatusActive},
	}

	s := Aggregate(&user.User{XP: 130, Level: 2}, goals, nil, nil)

	assert.Equal(t, 3, s.Goals.Total)
	assert.Equal(t, 1, s.Goals.Completed)
	assert.InDelta(t, 1.0/3.0, s.Goals.CompletionRate, 1e-9)
	assert.Equal(t, UserStats{XP: 130, Level: 2}, s.User)
}

func TestAggregate_HabitsAndFocus(t *testing.T) {
	habits := []*habit.Habit{
		{Streak: habit.Streak{CurrentStreak: 3, BestStreak: 5}},
		{Streak: habit.Streak{CurrentStreak: 0, BestStreak: 7}},
		{Streak: habit.Streak{CurrentStreak: 2, BestStreak: 2}},
	}
	sessions := []*focus.Session{{DurationMinutes: 25}, {DurationMinutes: 50}}

	s := Aggregate(nil, nil, habits, sessions)

	assert.Equal(t, HabitStats{Total: 3, Active: 2, TotalStreak: 5, BestStreak: 7}, s.Habits)
	assert.Equal(t, FocusStats{TotalSessions: 2, TotalMinutes: 75}, s.Focus)
}
