package command

import (
	"context"
	"fmt"

	"github.com/focusgoal/focusgoal-backend/internal/domain/habit"
	"github.com/focusgoal/focusgoal-backend/internal/domain/reward"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE HABIT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateHabitCommand contains the data to create a habit.
type CreateHabitCommand struct {
	UserID       int64
	Title        string
	Description  string
	Frequency    string
	ReminderTime string
	Category     string
}

// Validate validates the command.
func (c CreateHabitCommand) Validate() error {
	if c.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	return nil
}

// CreateHabitResult contains the result of creating a habit.
type CreateHabitResult struct {
	HabitID int64
	XPAdded int
	TotalXP int
	Level   int
	LevelUp bool
}

// CreateHabitHandler handles the CreateHabitCommand.
type CreateHabitHandler struct {
	engine Engine
	habits habit.Repository
}

// NewCreateHabitHandler creates a new CreateHabitHandler.
func NewCreateHabitHandler(engine Engine, habits habit.Repository) *CreateHabitHandler {
	return &CreateHabitHandler{engine: engine.withDefaults(), habits: habits}
}

// Handle executes the create habit command.
func (h *CreateHabitHandler) Handle(ctx context.Context, cmd CreateHabitCommand) (result *CreateHabitResult, err error) {
	defer func() { h.engine.record(reward.ActionHabitCreated, err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.engine.Clock.Now()

	hb, err := habit.NewHabit(habit.NewHabitParams{
		UserID:       cmd.UserID,
		Title:        cmd.Title,
		Description:  cmd.Description,
		Frequency:    cmd.Frequency,
		ReminderTime: cmd.ReminderTime,
		Category:     cmd.Category,
	}, now)
	if err != nil {
		return nil, err
	}

	unlock, err := h.engine.lock(ctx, "create_habit", cmd.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	habitID, err := h.habits.Create(ctx, hb)
	if err != nil {
		return nil, fmt.Errorf("create_habit: %w", err)
	}

	granted, err := h.engine.reward(ctx, cmd.UserID, reward.ActionHabitCreated, reward.ForHabitCreated(), now)
	if err != nil {
		h.engine.rewardFailed(reward.ActionHabitCreated, cmd.UserID, err)
		return nil, fmt.Errorf("create_habit: reward: %w", err)
	}

	h.engine.publish(shared.NewHabitCreatedEvent(cmd.UserID, habitID, hb.Title, string(hb.Frequency), now))
	h.engine.Logger.Info("habit created",
		logger.UserID(cmd.UserID),
		logger.HabitID(habitID),
	)

	return &CreateHabitResult{
		HabitID: habitID,
		XPAdded: granted.Amount,
		TotalXP: granted.User.XP,
		Level:   granted.User.Level,
		LevelUp: granted.LeveledUp,
	}, nil
}
