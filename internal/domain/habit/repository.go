package habit

import (
	"context"
	"time"
)

// Repository определяет операции хранилища с привычками.
type Repository interface {
	// ListByUser возвращает все привычки пользователя в порядке создания.
	ListByUser(ctx context.Context, userID int64) ([]*Habit, error)

	// Create сохраняет привычку и возвращает назначенный ID.
	Create(ctx context.Context, h *Habit) (int64, error)

	// Track атомарно применяет Streak.Track к привычке и возвращает новое состояние.
	// Возвращает shared.ErrHabitNotFound, если привычки нет.
	Track(ctx context.Context, habitID int64, at time.Time) (*Habit, error)
}
