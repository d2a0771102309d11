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
// TRACK HABIT COMMAND
// Records a tracking event, advances the streak and grants the tracking reward.
// Tracking twice on one day keeps the streak but still counts and rewards.
// ══════════════════════════════════════════════════════════════════════════════

// TrackHabitCommand contains the data to track a habit.
type TrackHabitCommand struct {
	UserID  int64
	HabitID int64
}

// Validate validates the command.
func (c TrackHabitCommand) Validate() error {
	if c.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	if c.HabitID <= 0 {
		return shared.NewDomainError("habit", "Track", shared.ErrInvalidID, "habit id must be positive")
	}
	return nil
}

// TrackHabitResult contains the result of tracking a habit.
type TrackHabitResult struct {
	Habit    *habit.Habit
	XPEarned int
	TotalXP  int
	Level    int
	LevelUp  bool
}

// TrackHabitHandler handles the TrackHabitCommand.
type TrackHabitHandler struct {
	engine Engine
	habits habit.Repository
}

// NewTrackHabitHandler creates a new TrackHabitHandler.
func NewTrackHabitHandler(engine Engine, habits habit.Repository) *TrackHabitHandler {
	return &TrackHabitHandler{engine: engine.withDefaults(), habits: habits}
}

// Handle executes the track habit command.
func (h *TrackHabitHandler) Handle(ctx context.Context, cmd TrackHabitCommand) (result *TrackHabitResult, err error) {
	defer func() { h.engine.record(reward.ActionHabitTracked, err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, err := h.engine.lock(ctx, "track_habit", cmd.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	habits, err := h.habits.ListByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("track_habit: %w", err)
	}
	before, ok := habit.FindOwned(habits, cmd.HabitID)
	if !ok {
		return nil, shared.ErrHabitNotFound
	}

	now := h.engine.Clock.Now()

	tracked, err := h.habits.Track(ctx, cmd.HabitID, now)
	if err != nil {
		return nil, fmt.Errorf("track_habit: %w", err)
	}

	granted, err := h.engine.reward(ctx, cmd.UserID, reward.ActionHabitTracked, reward.ForHabitTracked(), now)
	if err != nil {
		h.engine.rewardFailed(reward.ActionHabitTracked, cmd.UserID, err)
		return nil, fmt.Errorf("track_habit: reward: %w", err)
	}

	// Повторная отметка в тот же день не меняет дату последней отметки.
	changed := before.LastTrackedDate == nil || !before.LastTrackedDate.Equal(*tracked.LastTrackedDate)
	h.engine.publish(shared.NewHabitTrackedEvent(cmd.UserID, tracked.ID, tracked.CurrentStreak, tracked.BestStreak, changed, now))
	h.engine.Logger.Info("habit tracked",
		logger.UserID(cmd.UserID),
		logger.HabitID(tracked.ID),
		logger.Int("current_streak", tracked.CurrentStreak),
	)

	return &TrackHabitResult{
		Habit:    tracked,
		XPEarned: granted.Amount,
		TotalXP:  granted.User.XP,
		Level:    granted.User.Level,
		LevelUp:  granted.LeveledUp,
	}, nil
}
