package command

import (
	"context"
	"fmt"
	"time"

	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/reward"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE GOAL COMMAND
// Stores a new active goal and grants the creation reward.
// ══════════════════════════════════════════════════════════════════════════════

// CreateGoalCommand contains the data to create a goal.
type CreateGoalCommand struct {
	UserID      int64
	Title       string
	Description string

	// Priority is stored verbatim; empty means medium.
	Priority string

	Category   string
	Difficulty string
	Deadline   *time.Time
}

// Validate validates the command.
func (c CreateGoalCommand) Validate() error {
	if c.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	return nil
}

// CreateGoalResult contains the result of creating a goal.
type CreateGoalResult struct {
	GoalID   int64
	XPAdded  int
	TotalXP  int
	Level    int
	LevelUp  bool
	Priority goal.Priority
}

// CreateGoalHandler handles the CreateGoalCommand.
type CreateGoalHandler struct {
	engine Engine
	goals  goal.Repository
}

// NewCreateGoalHandler creates a new CreateGoalHandler.
func NewCreateGoalHandler(engine Engine, goals goal.Repository) *CreateGoalHandler {
	return &CreateGoalHandler{engine: engine.withDefaults(), goals: goals}
}

// Handle executes the create goal command.
func (h *CreateGoalHandler) Handle(ctx context.Context, cmd CreateGoalCommand) (result *CreateGoalResult, err error) {
	defer func() { h.engine.record(reward.ActionGoalCreated, err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.engine.Clock.Now()

	g, err := goal.NewGoal(goal.NewGoalParams{
		UserID:      cmd.UserID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Priority:    cmd.Priority,
		Category:    cmd.Category,
		Difficulty:  cmd.Difficulty,
		Deadline:    cmd.Deadline,
	}, now)
	if err != nil {
		return nil, err
	}

	unlock, err := h.engine.lock(ctx, "create_goal", cmd.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	goalID, err := h.goals.Create(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("create_goal: %w", err)
	}
	g.ID = goalID

	granted, err := h.engine.reward(ctx, cmd.UserID, reward.ActionGoalCreated, reward.ForGoalCreated(), now)
	if err != nil {
		h.engine.rewardFailed(reward.ActionGoalCreated, cmd.UserID, err)
		return nil, fmt.Errorf("create_goal: reward: %w", err)
	}

	h.engine.publish(shared.NewGoalCreatedEvent(cmd.UserID, goalID, g.Title, string(g.Priority), now))
	h.engine.Logger.Info("goal created",
		logger.UserID(cmd.UserID),
		logger.GoalID(goalID),
		logger.XPAmount(granted.Amount),
	)

	return &CreateGoalResult{
		GoalID:   goalID,
		XPAdded:  granted.Amount,
		TotalXP:  granted.User.XP,
		Level:    granted.User.Level,
		LevelUp:  granted.LeveledUp,
		Priority: g.Priority,
	}, nil
}
