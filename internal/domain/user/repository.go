package user

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища с пользователями.
type Repository interface {
	// GetByID возвращает пользователя по ID.
	// Возвращает shared.ErrUserNotFound, если пользователь не найден.
	GetByID(ctx context.Context, id int64) (*User, error)

	// Create сохраняет нового пользователя.
	// Возвращает shared.ErrUserExists, если пользователь уже есть.
	Create(ctx context.Context, u *User) error

	// UpdateXP записывает новые XP, уровень и время изменения at.
	// Возвращает shared.ErrUserNotFound, если пользователь не найден.
	UpdateXP(ctx context.Context, id int64, xp, level int, at time.Time) error
}
