package goal

import (
	"context"
	"time"
)

// Repository определяет операции хранилища с целями.
type Repository interface {
	// ListByUser возвращает все цели пользователя в порядке создания.
	ListByUser(ctx context.Context, userID int64) ([]*Goal, error)

	// Create сохраняет цель и возвращает назначенный ID.
	Create(ctx context.Context, g *Goal) (int64, error)

	// Complete помечает цель выполненной.
	// Возвращает shared.ErrGoalNotFound, если цели нет.
	Complete(ctx context.Context, goalID int64, at time.Time) error
}
