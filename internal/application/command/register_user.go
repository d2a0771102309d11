package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/focusgoal/focusgoal-backend/internal/domain/reward"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Creates the user record with profile data. Registering an existing id is
// not an error: the stored user is returned unchanged.
// ══════════════════════════════════════════════════════════════════════════════

const actionRegisterUser reward.Action = "user_registered"

// RegisterUserCommand contains the data to register a user.
type RegisterUserCommand struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
}

// Validate validates the command.
func (c RegisterUserCommand) Validate() error {
	if c.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	return nil
}

// RegisterUserResult contains the result of registering a user.
type RegisterUserResult struct {
	User    *user.User
	Created bool
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	engine Engine
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(engine Engine) *RegisterUserHandler {
	return &RegisterUserHandler{engine: engine.withDefaults()}
}

// Handle executes the register user command.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (result *RegisterUserResult, err error) {
	defer func() { h.engine.record(actionRegisterUser, err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, err := h.engine.lock(ctx, "register_user", cmd.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := h.engine.Users.GetByID(ctx, cmd.UserID)
	if err == nil {
		return &RegisterUserResult{User: existing}, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("register_user: %w", err)
	}

	now := h.engine.Clock.Now()
	u, err := user.NewUser(user.NewUserParams{
		ID:        cmd.UserID,
		Username:  cmd.Username,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
	}, now)
	if err != nil {
		return nil, err
	}

	if err := h.engine.Users.Create(ctx, u); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			stored, getErr := h.engine.Users.GetByID(ctx, cmd.UserID)
			if getErr != nil {
				return nil, fmt.Errorf("register_user: %w", getErr)
			}
			return &RegisterUserResult{User: stored}, nil
		}
		return nil, fmt.Errorf("register_user: %w", err)
	}

	h.engine.publish(shared.NewUserRegisteredEvent(u.ID, u.Username, now))
	h.engine.Logger.Info("user registered", logger.UserID(u.ID), logger.String("username", u.Username))

	return &RegisterUserResult{User: u, Created: true}, nil
}
