// Package command contains write operations (CQRS - Commands) of the progress engine.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/focusgoal/focusgoal-backend/internal/domain/reward"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
	"github.com/focusgoal/focusgoal-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// UserLocker serializes mutations of one user's progress.
type UserLocker interface {
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}

// MetricsRecorder receives engine outcomes.
type MetricsRecorder interface {
	RecordAction(action, result string)
	RecordXP(action string, amount int)
	RecordLevelUp()
}

// Result labels passed to MetricsRecorder.RecordAction.
const (
	resultSuccess  = "success"
	resultRejected = "rejected"
	resultError    = "error"
)

// Engine bundles what every command handler needs.
type Engine struct {
	Users     user.Repository
	Locker    UserLocker
	Publisher shared.EventPublisher
	Clock     timeutil.Clock
	Logger    *logger.Logger
	Metrics   MetricsRecorder
}

func (e Engine) withDefaults() Engine {
	if e.Clock == nil {
		e.Clock = timeutil.SystemClock{}
	}
	if e.Logger == nil {
		e.Logger = logger.Nop()
	}
	if e.Metrics == nil {
		e.Metrics = nopMetrics{}
	}
	if e.Locker == nil {
		e.Locker = nopLocker{}
	}
	return e
}

type nopMetrics struct{}

func (nopMetrics) RecordAction(string, string) {}
func (nopMetrics) RecordXP(string, int)        {}
func (nopMetrics) RecordLevelUp()              {}

type nopLocker struct{}

func (nopLocker) Lock(context.Context, int64) (func(), error) { return func() {}, nil }

// ══════════════════════════════════════════════════════════════════════════════
// REWARDER
// ══════════════════════════════════════════════════════════════════════════════

// grant describes the outcome of one reward application.
type grant struct {
	User      *user.User
	Amount    int
	OldLevel  int
	LeveledUp bool
}

// ensureUser returns the user, creating it with defaults on first access.
func (e Engine) ensureUser(ctx context.Context, userID int64, now time.Time) (*user.User, error) {
	u, err := e.Users.GetByID(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	u, err = user.NewUser(user.NewUserParams{ID: userID}, now)
	if err != nil {
		return nil, err
	}

	if err := e.Users.Create(ctx, u); err != nil {
		// Lost a race with another creator: read the winner.
		if errors.Is(err, shared.ErrAlreadyExists) {
			return e.Users.GetByID(ctx, userID)
		}
		return nil, err
	}

	e.publish(shared.NewUserRegisteredEvent(u.ID, u.Username, now))
	e.Logger.Info("user registered", logger.UserID(u.ID))

	return u, nil
}

// reward ensures the user, adds amount XP and writes the new total back.
// The caller holds the user's lock.
func (e Engine) reward(ctx context.Context, userID int64, action reward.Action, amount int, now time.Time) (*grant, error) {
	u, err := e.ensureUser(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	g := &grant{User: u, Amount: amount, OldLevel: u.Level}
	if amount == 0 {
		return g, nil
	}

	leveledUp, err := u.AddXP(amount, now)
	if err != nil {
		return nil, err
	}
	if err := e.Users.UpdateXP(ctx, u.ID, u.XP, u.Level, u.UpdatedAt); err != nil {
		return nil, err
	}
	g.LeveledUp = leveledUp

	e.Metrics.RecordXP(string(action), amount)
	e.publish(shared.NewXPGainedEvent(u.ID, amount, u.XP, string(action), now))
	if leveledUp {
		e.Metrics.RecordLevelUp()
		e.publish(shared.NewLevelUpEvent(u.ID, g.OldLevel, u.Level, u.XP, now))
	}

	return g, nil
}

// lock acquires the user's lock, wrapping failures for the caller.
func (e Engine) lock(ctx context.Context, op string, userID int64) (func(), error) {
	unlock, err := e.Locker.Lock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return unlock, nil
}

// publish sends an event; bus failures never fail the action.
func (e Engine) publish(event shared.Event) {
	if e.Publisher == nil {
		return
	}
	if err := e.Publisher.Publish(event); err != nil {
		e.Logger.Warn("failed to publish event",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}

// record tags the action outcome for metrics.
func (e Engine) record(action reward.Action, err error) {
	switch {
	case err == nil:
		e.Metrics.RecordAction(string(action), resultSuccess)
	case shared.IsValidation(err), shared.IsNotFound(err), shared.IsAlreadyProcessed(err):
		e.Metrics.RecordAction(string(action), resultRejected)
	default:
		e.Metrics.RecordAction(string(action), resultError)
	}
}

// rewardFailed logs a reward write that failed after the entity mutation
// was already stored. The mutation is not rolled back.
func (e Engine) rewardFailed(action reward.Action, userID int64, err error) {
	e.Logger.Error("entity stored but reward failed",
		logger.Action(string(action)),
		logger.UserID(userID),
		logger.Err(err),
	)
}
