// Package habit содержит доменную модель привычки и трекер серий (streak).
package habit

import (
	"regexp"
	"strings"
	"time"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
)

// Frequency определяет периодичность привычки.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// IsValid проверяет, что периодичность корректна.
func (f Frequency) IsValid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// DefaultCategory - категория новой привычки по умолчанию.
const DefaultCategory = "general"

var reminderRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: HABIT
// ══════════════════════════════════════════════════════════════════════════════

// Habit - привычка пользователя с серией отметок.
type Habit struct {
	ID           int64
	UserID       int64
	Title        string
	Description  string
	Frequency    Frequency
	ReminderTime string
	Category     string

	Streak

	CreatedAt time.Time
}

// NewHabitParams содержит параметры для создания привычки.
type NewHabitParams struct {
	UserID       int64
	Title        string
	Description  string
	Frequency    string
	ReminderTime string
	Category     string
}

// NewHabit создаёт привычку с пустой серией.
func NewHabit(params NewHabitParams, now time.Time) (*Habit, error) {
	if params.UserID <= 0 {
		return nil, shared.ErrInvalidUserID
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, shared.ErrEmptyHabitTitle
	}

	freq := Frequency(strings.TrimSpace(params.Frequency))
	if freq == "" {
		freq = FrequencyDaily
	}
	if !freq.IsValid() {
		return nil, shared.ErrInvalidFrequency
	}

	reminder := strings.TrimSpace(params.ReminderTime)
	if reminder != "" && !reminderRegex.MatchString(reminder) {
		return nil, shared.ErrInvalidReminder
	}

	category := strings.TrimSpace(params.Category)
	if category == "" {
		category = DefaultCategory
	}

	return &Habit{
		UserID:       params.UserID,
		Title:        title,
		Description:  params.Description,
		Frequency:    freq,
		ReminderTime: reminder,
		Category:     category,
		CreatedAt:    now,
	}, nil
}

// IsActive возвращает true, если серия не прервана.
func (h *Habit) IsActive() bool {
	return h.CurrentStreak > 0
}

// FindOwned ищет привычку среди привычек пользователя линейным перебором.
func FindOwned(habits []*Habit, habitID int64) (*Habit, bool) {
	for _, h := range habits {
		if h.ID == habitID {
			return h, true
		}
	}
	return nil, false
}
