package command

import (
	"context"
	"fmt"

	"github.com/focusgoal/focusgoal-backend/internal/domain/focus"
	"github.com/focusgoal/focusgoal-backend/internal/domain/reward"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// START FOCUS SESSION COMMAND
// Records a focus session. Starting a session grants no XP.
// ══════════════════════════════════════════════════════════════════════════════

// StartFocusSessionCommand contains the data to start a focus session.
type StartFocusSessionCommand struct {
	UserID int64

	// DurationMinutes of 0 means the default 25.
	DurationMinutes int

	// GoalID optionally links the session to a goal. It is not validated.
	GoalID *int64
}

// Validate validates the command.
func (c StartFocusSessionCommand) Validate() error {
	if c.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	return nil
}

// StartFocusSessionResult contains the result of starting a session.
type StartFocusSessionResult struct {
	SessionID       int64
	DurationMinutes int
	XPEarned        int
}

// StartFocusSessionHandler handles the StartFocusSessionCommand.
type StartFocusSessionHandler struct {
	engine Engine
	focus  focus.Repository
}

// NewStartFocusSessionHandler creates a new StartFocusSessionHandler.
func NewStartFocusSessionHandler(engine Engine, sessions focus.Repository) *StartFocusSessionHandler {
	return &StartFocusSessionHandler{engine: engine.withDefaults(), focus: sessions}
}

// Handle executes the start focus session command.
func (h *StartFocusSessionHandler) Handle(ctx context.Context, cmd StartFocusSessionCommand) (result *StartFocusSessionResult, err error) {
	defer func() { h.engine.record(reward.ActionFocusStarted, err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.engine.Clock.Now()

	session, err := focus.NewSession(cmd.UserID, cmd.DurationMinutes, cmd.GoalID, now)
	if err != nil {
		return nil, err
	}

	unlock, err := h.engine.lock(ctx, "start_focus", cmd.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sessionID, err := h.focus.Start(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("start_focus: %w", err)
	}

	granted, err := h.engine.reward(ctx, cmd.UserID, reward.ActionFocusStarted, reward.ForFocusSessionStarted(), now)
	if err != nil {
		h.engine.rewardFailed(reward.ActionFocusStarted, cmd.UserID, err)
		return nil, fmt.Errorf("start_focus: reward: %w", err)
	}

	h.engine.publish(shared.NewFocusSessionStartedEvent(cmd.UserID, sessionID, session.DurationMinutes, cmd.GoalID, now))
	h.engine.Logger.Info("focus session started",
		logger.UserID(cmd.UserID),
		logger.Int64("session_id", sessionID),
		logger.Int("duration_minutes", session.DurationMinutes),
	)

	return &StartFocusSessionResult{
		SessionID:       sessionID,
		DurationMinutes: session.DurationMinutes,
		XPEarned:        granted.Amount,
	}, nil
}
