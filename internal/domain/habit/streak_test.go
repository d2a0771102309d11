package habit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
)

func day(d int) time.Time {
	return time.Date(2024, 5, d, 12, 0, 0, 0, time.UTC)
}

func TestStreak_FirstTrack(t *testing.T) {
	var s Streak

	res := s.Track(day(1), time.UTC)

	assert.Equal(t, TrackStarted, res)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.BestStreak)
	assert.Equal(t, 1, s.TotalCompletions)
	require.NotNil(t, s.LastTrackedDate)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *s.LastTrackedDate)
}

func TestStreak_ConsecutiveDays(t *testing.T) {
	var s Streak
	s.Track(day(1), time.UTC)

	res := s.Track(day(2), time.UTC)

	assert.Equal(t, TrackContinued, res)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.BestStreak)
}

func TestStreak_SameDayUnchanged(t *testing.T) {
	var s Streak
	s.Track(day(1), time.UTC)
	s.Track(day(2), time.UTC)

	res := s.Track(day(2).Add(3*time.Hour), time.UTC)

	assert.Equal(t, TrackSameDay, res)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.BestStreak)
	assert.Equal(t, 3, s.TotalCompletions)
}

func TestStreak_GapResets(t *testing.T) {
	var s Streak
	s.Track(day(1), time.UTC)
	s.Track(day(2), time.UTC)

	res := s.Track(day(4), time.UTC)

	assert.Equal(t, TrackReset, res)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 2, s.BestStreak)
}

func TestStreak_FutureLastDateResets(t *testing.T) {
	future := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	s := Streak{CurrentStreak: 3, BestStreak: 3, LastTrackedDate: &future}

	s.Track(day(5), time.UTC)

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 3, s.BestStreak)
}

func TestStreak_BestNeverBelowCurrent(t *testing.T) {
	var s Streak
	days := []int{1, 2, 3, 5, 6, 7, 8, 8, 12}
	for _, d := range days {
		s.Track(day(d), time.UTC)
		assert.GreaterOrEqual(t, s.BestStreak, s.CurrentStreak)
	}
	assert.Equal(t, 4, s.BestStreak)
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestStreak_UsesTimezoneForDayBoundary(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	var s Streak

	// 20:00 UTC on May 1 is already May 2 at UTC+5.
	s.Track(time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC), loc)
	s.Track(time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), loc)

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), *s.LastTrackedDate)
}

func TestNewHabit(t *testing.T) {
	h, err := NewHabit(NewHabitParams{UserID: 3, Title: "Run", ReminderTime: "07:30"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, FrequencyDaily, h.Frequency)
	assert.Equal(t, "general", h.Category)
	assert.False(t, h.IsActive())

	_, err = NewHabit(NewHabitParams{UserID: 3, Title: "Run", ReminderTime: "7am"}, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	_, err = NewHabit(NewHabitParams{UserID: 3, Title: "Run", Frequency: "hourly"}, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewHabit(NewHabitParams{UserID: 3}, time.Now())
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestStreak_DayBoundaryFollowsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	var s Streak

	s.Track(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), loc)
	res := s.Track(time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC), loc)

	assert.Equal(t, TrackContinued, res)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), *s.LastTrackedDate)
}

func TestStreak_Sequence(t *testing.T) {
	var s Streak
	days := []int{1, 1, 2, 4, 4, 5}
	wantCurrent := []int{1, 1, 2, 1, 1, 2}
	wantBest := []int{1, 1, 2, 2, 2, 2}

	for i, d := range days {
		s.Track(day(d), time.UTC)
		assert.Equal(t, wantCurrent[i], s.CurrentStreak, "track %d", i)
		assert.Equal(t, wantBest[i], s.BestStreak, "track %d", i)
	}
	assert.Equal(t, len(days), s.TotalCompletions)
}
