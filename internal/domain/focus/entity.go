// Package focus содержит модель фокус-сессии (помодоро).
// Сессия только фиксируется при старте: завершение и паузы не отслеживаются.
package focus

import (
	"context"
	"time"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
)

// DefaultDurationMinutes - длительность сессии по умолчанию.
const DefaultDurationMinutes = 25

// MaxDurationMinutes ограничивает длительность одной сессии сутками.
const MaxDurationMinutes = 24 * 60

// Session - запись о начатой фокус-сессии.
type Session struct {
	ID              int64
	UserID          int64
	DurationMinutes int
	GoalID          *int64
	StartedAt       time.Time
}

// NewSession создаёт сессию. Нулевая длительность заменяется значением по умолчанию.
func NewSession(userID int64, minutes int, goalID *int64, now time.Time) (*Session, error) {
	if userID <= 0 {
		return nil, shared.ErrInvalidUserID
	}
	if minutes == 0 {
		minutes = DefaultDurationMinutes
	}
	if minutes < 0 || minutes > MaxDurationMinutes {
		return nil, shared.ErrInvalidDuration
	}

	return &Session{
		UserID:          userID,
		DurationMinutes: minutes,
		GoalID:          goalID,
		StartedAt:       now,
	}, nil
}

// EndsAt возвращает плановое время окончания сессии.
func (s *Session) EndsAt() time.Time {
	return s.StartedAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Repository определяет операции хранилища с фокус-сессиями.
type Repository interface {
	// ListByUser возвращает все сессии пользователя в порядке создания.
	ListByUser(ctx context.Context, userID int64) ([]*Session, error)

	// Start сохраняет сессию и возвращает назначенный ID.
	Start(ctx context.Context, s *Session) (int64, error)
}
