package command

import (
	"context"
	"fmt"

	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/reward"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE GOAL COMMAND
// Marks a goal owned by the user as completed and grants the priority reward.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteGoalCommand contains the data to complete a goal.
type CompleteGoalCommand struct {
	UserID int64
	GoalID int64
}

// Validate validates the command.
func (c CompleteGoalCommand) Validate() error {
	if c.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	if c.GoalID <= 0 {
		return shared.NewDomainError("goal", "Complete", shared.ErrInvalidID, "goal id must be positive")
	}
	return nil
}

// CompleteGoalResult contains the result of completing a goal.
type CompleteGoalResult struct {
	GoalID   int64
	Priority goal.Priority
	XPEarned int
	TotalXP  int
	Level    int
	LevelUp  bool
}

// RecompletionPolicy reports whether userID may complete an already completed
// goal again (and be rewarded again).
type RecompletionPolicy func(userID int64) bool

// CompleteGoalHandler handles the CompleteGoalCommand.
type CompleteGoalHandler struct {
	engine        Engine
	goals         goal.Repository
	allowRepeated RecompletionPolicy
}

// NewCompleteGoalHandler creates a new CompleteGoalHandler.
// A nil policy rejects re-completion for everyone.
func NewCompleteGoalHandler(engine Engine, goals goal.Repository, policy RecompletionPolicy) *CompleteGoalHandler {
	if policy == nil {
		policy = func(int64) bool { return false }
	}
	return &CompleteGoalHandler{engine: engine.withDefaults(), goals: goals, allowRepeated: policy}
}

// Handle executes the complete goal command.
func (h *CompleteGoalHandler) Handle(ctx context.Context, cmd CompleteGoalCommand) (result *CompleteGoalResult, err error) {
	defer func() { h.engine.record(reward.ActionGoalCompleted, err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, err := h.engine.lock(ctx, "complete_goal", cmd.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	goals, err := h.goals.ListByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("complete_goal: %w", err)
	}

	g, ok := goal.FindOwned(goals, cmd.GoalID)
	if !ok {
		return nil, shared.ErrGoalNotFound
	}

	now := h.engine.Clock.Now()
	if err := g.Complete(now, h.allowRepeated(cmd.UserID)); err != nil {
		return nil, err
	}

	if err := h.goals.Complete(ctx, g.ID, now); err != nil {
		return nil, fmt.Errorf("complete_goal: %w", err)
	}

	xp := reward.ForGoalCompleted(g.Priority)
	granted, err := h.engine.reward(ctx, cmd.UserID, reward.ActionGoalCompleted, xp, now)
	if err != nil {
		h.engine.rewardFailed(reward.ActionGoalCompleted, cmd.UserID, err)
		return nil, fmt.Errorf("complete_goal: reward: %w", err)
	}

	h.engine.publish(shared.NewGoalCompletedEvent(cmd.UserID, g.ID, string(g.Priority), xp, now))
	h.engine.Logger.Info("goal completed",
		logger.UserID(cmd.UserID),
		logger.GoalID(g.ID),
		logger.String("priority", string(g.Priority)),
		logger.XPAmount(xp),
	)

	return &CompleteGoalResult{
		GoalID:   g.ID,
		Priority: g.Priority,
		XPEarned: xp,
		TotalXP:  granted.User.XP,
		Level:    granted.User.Level,
		LevelUp:  granted.LeveledUp,
	}, nil
}
