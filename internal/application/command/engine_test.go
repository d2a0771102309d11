package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/lock"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/messaging"
	"github.com/focusgoal/focusgoal-backend/internal/infrastructure/persistence/memory"
	"github.com/focusgoal/focusgoal-backend/pkg/timeutil"
)

type recordingMetrics struct {
	mu       sync.Mutex
	actions  map[string]int
	xp       map[string]int
	levelUps int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{actions: map[string]int{}, xp: map[string]int{}}
}

func (m *recordingMetrics) RecordAction(action, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[action+"/"+result]++
}

func (m *recordingMetrics) RecordXP(action string, amount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.xp[action] += amount
}

func (m *recordingMetrics) RecordLevelUp() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levelUps++
}

type fixture struct {
	store   *memory.Store
	clock   *timeutil.FixedClock
	metrics *recordingMetrics
	events  *[]shared.EventType
	engine  Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{})
	events := make([]shared.EventType, 0)
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		events = append(events, e.EventType())
		return nil
	}))

	store := memory.NewStore(time.UTC)
	clock := timeutil.NewFixedClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	metrics := newRecordingMetrics()

	return &fixture{
		store:   store,
		clock:   clock,
		metrics: metrics,
		events:  &events,
		engine: Engine{
			Users:     store.Users(),
			Locker:    lock.NewKeyedMutex(),
			Publisher: bus,
			Clock:     clock,
			Metrics:   metrics,
		},
	}
}

func (f *fixture) xp(t *testing.T, userID int64) int {
	t.Helper()
	u, err := f.store.Users().GetByID(context.Background(), userID)
	require.NoError(t, err)
	return u.XP
}

func TestCreateGoal_GrantsRewardAndRegistersUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := NewCreateGoalHandler(f.engine, f.store.Goals()).Handle(ctx, CreateGoalCommand{
		UserID: 42,
		Title:  "Learn Go",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.GoalID)
	assert.Equal(t, 10, res.XPAdded)
	assert.Equal(t, 10, res.TotalXP)
	assert.Equal(t, goal.PriorityMedium, res.Priority)
	assert.Equal(t, 10, f.xp(t, 42))

	assert.Equal(t, []shared.EventType{
		shared.EventUserRegistered,
		shared.EventXPGained,
		shared.EventGoalCreated,
	}, *f.events)
	assert.Equal(t, 1, f.metrics.actions["goal_created/success"])
}

func TestCreateGoal_Validation(t *testing.T) {
	f := newFixture(t)
	h := NewCreateGoalHandler(f.engine, f.store.Goals())

	_, err := h.Handle(context.Background(), CreateGoalCommand{UserID: 1, Title: "  "})
	assert.ErrorIs(t, err, shared.ErrEmptyGoalTitle)
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), CreateGoalCommand{UserID: 0, Title: "x"})
	assert.True(t, shared.IsValidation(err))

	assert.Equal(t, 2, f.metrics.actions["goal_created/rejected"])
}

func TestCompleteGoal_HighPriorityScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := NewRegisterUserHandler(f.engine).Handle(ctx, RegisterUserCommand{UserID: 42})
	require.NoError(t, err)

	created, err := NewCreateGoalHandler(f.engine, f.store.Goals()).Handle(ctx, CreateGoalCommand{
		UserID:   42,
		Title:    "Ship release",
		Priority: "high",
	})
	require.NoError(t, err)
	before := f.xp(t, 42)

	res, err := NewCompleteGoalHandler(f.engine, f.store.Goals(), nil).Handle(ctx, CompleteGoalCommand{
		UserID: 42,
		GoalID: created.GoalID,
	})
	require.NoError(t, err)

	assert.Equal(t, 75, res.XPEarned)
	assert.Equal(t, before+75, res.TotalXP)
	assert.Equal(t, before+75, f.xp(t, 42))

	goals, err := f.store.Goals().ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.True(t, goals[0].IsCompleted())
	require.NotNil(t, goals[0].CompletedAt)
}

func TestCompleteGoal_OwnershipMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := NewCreateGoalHandler(f.engine, f.store.Goals()).Handle(ctx, CreateGoalCommand{UserID: 1, Title: "mine"})
	require.NoError(t, err)

	_, err = NewCompleteGoalHandler(f.engine, f.store.Goals(), nil).Handle(ctx, CompleteGoalCommand{
		UserID: 2,
		GoalID: created.GoalID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrGoalNotFound)
	assert.True(t, shared.IsNotFound(err))

	assert.Equal(t, 10, f.xp(t, 1))
	_, err = f.store.Users().GetByID(ctx, 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	goals, err := f.store.Goals().ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.False(t, goals[0].IsCompleted())
}

func TestCompleteGoal_Recompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := NewCreateGoalHandler(f.engine, f.store.Goals()).Handle(ctx, CreateGoalCommand{
		UserID:   5,
		Title:    "x",
		Priority: "low",
	})
	require.NoError(t, err)
	cmd := CompleteGoalCommand{UserID: 5, GoalID: created.GoalID}

	strict := NewCompleteGoalHandler(f.engine, f.store.Goals(), nil)
	_, err = strict.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 35, f.xp(t, 5))

	_, err = strict.Handle(ctx, cmd)
	assert.ErrorIs(t, err, shared.ErrGoalAlreadyCompleted)
	assert.True(t, shared.IsAlreadyProcessed(err))
	assert.Equal(t, 35, f.xp(t, 5))

	lenient := NewCompleteGoalHandler(f.engine, f.store.Goals(), func(int64) bool { return true })
	res, err := lenient.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 25, res.XPEarned)
	assert.Equal(t, 60, f.xp(t, 5))
}

func TestCompleteGoal_LevelUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goals := f.store.Goals()
	create := NewCreateGoalHandler(f.engine, goals)
	complete := NewCompleteGoalHandler(f.engine, goals, nil)

	a, err := create.Handle(ctx, CreateGoalCommand{UserID: 9, Title: "a", Priority: "high"})
	require.NoError(t, err)
	b, err := create.Handle(ctx, CreateGoalCommand{UserID: 9, Title: "b", Priority: "high"})
	require.NoError(t, err)

	_, err = complete.Handle(ctx, CompleteGoalCommand{UserID: 9, GoalID: a.GoalID})
	require.NoError(t, err)
	res, err := complete.Handle(ctx, CompleteGoalCommand{UserID: 9, GoalID: b.GoalID})
	require.NoError(t, err)

	// 10 + 10 + 75 + 75
	assert.Equal(t, 170, res.TotalXP)
	assert.Equal(t, 2, res.Level)
	assert.True(t, res.LevelUp)
	assert.Equal(t, 1, f.metrics.levelUps)
	assert.Contains(t, *f.events, shared.EventLevelUp)
}

func TestTrackHabit_FourDayScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := NewCreateHabitHandler(f.engine, f.store.Habits()).Handle(ctx, CreateHabitCommand{
		UserID: 7,
		Title:  "Read",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, created.XPAdded)

	track := NewTrackHabitHandler(f.engine, f.store.Habits())
	cmd := TrackHabitCommand{UserID: 7, HabitID: created.HabitID}

	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	f.clock.Set(day1)
	res, err := track.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Habit.CurrentStreak)
	assert.Equal(t, 5, res.XPEarned)

	f.clock.Set(day1.AddDate(0, 0, 1))
	res, err = track.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Habit.CurrentStreak)
	assert.Equal(t, 2, res.Habit.BestStreak)

	f.clock.Set(day1.AddDate(0, 0, 3))
	res, err = track.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Habit.CurrentStreak)
	assert.Equal(t, 2, res.Habit.BestStreak)
	assert.Equal(t, 3, res.Habit.TotalCompletions)

	assert.Equal(t, 5+3*5, f.xp(t, 7))
}

func TestTrackHabit_SameDayStillRewards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := NewCreateHabitHandler(f.engine, f.store.Habits()).Handle(ctx, CreateHabitCommand{UserID: 3, Title: "Run"})
	require.NoError(t, err)

	track := NewTrackHabitHandler(f.engine, f.store.Habits())
	cmd := TrackHabitCommand{UserID: 3, HabitID: created.HabitID}

	_, err = track.Handle(ctx, cmd)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)
	res, err := track.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Habit.CurrentStreak)
	assert.Equal(t, 2, res.Habit.TotalCompletions)
	assert.Equal(t, 15, res.TotalXP)
}

type habitEvents []shared.HabitTrackedEvent

func (h *habitEvents) Publish(e shared.Event) error {
	if tracked, ok := e.(shared.HabitTrackedEvent); ok {
		*h = append(*h, tracked)
	}
	return nil
}

func TestTrackHabit_SameDayEventKeepsStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var published habitEvents
	f.engine.Publisher = &published

	created, err := NewCreateHabitHandler(f.engine, f.store.Habits()).Handle(ctx, CreateHabitCommand{UserID: 3, Title: "Run"})
	require.NoError(t, err)

	track := NewTrackHabitHandler(f.engine, f.store.Habits())
	cmd := TrackHabitCommand{UserID: 3, HabitID: created.HabitID}

	_, err = track.Handle(ctx, cmd)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = track.Handle(ctx, cmd)
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)
	_, err = track.Handle(ctx, cmd)
	require.NoError(t, err)

	require.Len(t, published, 3)
	assert.True(t, published[0].StreakChanged)
	assert.False(t, published[1].StreakChanged)
	assert.True(t, published[2].StreakChanged)
	assert.Equal(t, 2, published[2].CurrentStreak)
	assert.Equal(t, int64(3), published[2].UserID)
}

func TestReward_StampsUserWithEngineClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := NewCreateGoalHandler(f.engine, f.store.Goals()).Handle(ctx, CreateGoalCommand{UserID: 9, Title: "Ship"})
	require.NoError(t, err)

	u, err := f.store.Users().GetByID(ctx, 9)
	require.NoError(t, err)
	assert.True(t, u.UpdatedAt.Equal(f.clock.Now()), "updated_at %s", u.UpdatedAt)
}

func TestTrackHabit_OwnershipMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := NewCreateHabitHandler(f.engine, f.store.Habits()).Handle(ctx, CreateHabitCommand{UserID: 1, Title: "Run"})
	require.NoError(t, err)

	_, err = NewTrackHabitHandler(f.engine, f.store.Habits()).Handle(ctx, TrackHabitCommand{UserID: 2, HabitID: created.HabitID})
	assert.ErrorIs(t, err, shared.ErrHabitNotFound)

	habits, err := f.store.Habits().ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, habits[0].TotalCompletions)
}

func TestStartFocusSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := NewStartFocusSessionHandler(f.engine, f.store.Focus())

	res, err := h.Handle(ctx, StartFocusSessionCommand{UserID: 4})
	require.NoError(t, err)
	assert.Equal(t, 25, res.DurationMinutes)
	assert.Equal(t, 0, res.XPEarned)
	assert.Equal(t, 0, f.xp(t, 4))

	goalID := int64(99)
	res, err = h.Handle(ctx, StartFocusSessionCommand{UserID: 4, DurationMinutes: 50, GoalID: &goalID})
	require.NoError(t, err)
	assert.Equal(t, 50, res.DurationMinutes)

	sessions, err := f.store.Focus().ListByUser(ctx, 4)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.NotNil(t, sessions[1].GoalID)
	assert.Equal(t, int64(99), *sessions[1].GoalID)

	_, err = h.Handle(ctx, StartFocusSessionCommand{UserID: 4, DurationMinutes: -5})
	assert.ErrorIs(t, err, shared.ErrInvalidDuration)
}

func TestRegisterUser_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := NewRegisterUserHandler(f.engine)

	res, err := h.Handle(ctx, RegisterUserCommand{UserID: 11, Username: "ann", FirstName: "Ann"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "ann", res.User.Username)
	assert.Equal(t, 1, res.User.Level)

	res, err = h.Handle(ctx, RegisterUserCommand{UserID: 11, Username: "other"})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "ann", res.User.Username)
}

func TestConcurrentRewardsAreNotLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := NewCreateHabitHandler(f.engine, f.store.Habits()).Handle(ctx, CreateHabitCommand{UserID: 8, Title: "Water"})
	require.NoError(t, err)

	track := NewTrackHabitHandler(f.engine, f.store.Habits())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := track.Handle(ctx, TrackHabitCommand{UserID: 8, HabitID: created.HabitID})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5+20*5, f.xp(t, 8))
}
