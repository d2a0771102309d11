package habit

import (
	"time"

	"github.com/focusgoal/focusgoal-backend/pkg/timeutil"
)

// Streak - серия последовательных дней, в которые привычка отмечалась.
// Инвариант: BestStreak >= CurrentStreak >= 0.
type Streak struct {
	// CurrentStreak - текущая серия дней.
	CurrentStreak int

	// BestStreak - лучшая серия дней.
	BestStreak int

	// LastTrackedDate - календарная дата последней отметки (полночь UTC).
	LastTrackedDate *time.Time

	// TotalCompletions - сколько раз привычка была отмечена.
	TotalCompletions int
}

// TrackResult описывает, как изменилась серия.
type TrackResult string

const (
	TrackStarted   TrackResult = "started"
	TrackContinued TrackResult = "continued"
	TrackSameDay   TrackResult = "same_day"
	TrackReset     TrackResult = "reset"
)

// Track записывает отметку в момент at и обновляет серию.
func (s *Streak) Track(at time.Time, loc *time.Location) TrackResult {
	today := timeutil.CalendarDate(at, loc)
	result := s.advance(today)

	if s.CurrentStreak > s.BestStreak {
		s.BestStreak = s.CurrentStreak
	}
	s.LastTrackedDate = &today
	s.TotalCompletions++

	return result
}

func (s *Streak) advance(today time.Time) TrackResult {
	if s.LastTrackedDate == nil {
		s.CurrentStreak = 1
		return TrackStarted
	}

	switch timeutil.DaysBetween(*s.LastTrackedDate, today, time.UTC) {
	case 0:
		// Тот же день - серия не меняется
		if s.CurrentStreak == 0 {
			s.CurrentStreak = 1
		}
		return TrackSameDay
	case 1:
		s.CurrentStreak++
		return TrackContinued
	default:
		// Пропуск или дата в будущем - серия начинается заново
		s.CurrentStreak = 1
		return TrackReset
	}
}
