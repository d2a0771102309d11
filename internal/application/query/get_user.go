package query

import (
	"context"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetUserQuery содержит параметры запроса пользователя.
type GetUserQuery struct {
	UserID int64
}

// Validate проверяет корректность параметров.
func (q GetUserQuery) Validate() error {
	if q.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	return nil
}

// GetUserHandler обрабатывает GetUserQuery.
type GetUserHandler struct {
	users user.Repository
}

// NewGetUserHandler создаёт обработчик.
func NewGetUserHandler(users user.Repository) *GetUserHandler {
	return &GetUserHandler{users: users}
}

// Handle возвращает пользователя или ErrUserNotFound.
func (h *GetUserHandler) Handle(ctx context.Context, q GetUserQuery) (*UserDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.users.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	dto := NewUserDTO(u)
	return &dto, nil
}
