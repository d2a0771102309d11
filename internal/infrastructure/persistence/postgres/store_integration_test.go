package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/habit"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"
)

// newTestStore connects to DATABASE_URL, migrates and truncates. Skips without a database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	_ = godotenv.Load("../../../../.env")

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.URL = url

	conn, err := NewConnection(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	_, err = NewMigrator(conn).Migrate(ctx)
	require.NoError(t, err)

	_, err = conn.Exec(ctx, `TRUNCATE users, goals, habits, focus_sessions RESTART IDENTITY`)
	require.NoError(t, err)

	return NewStore(conn, time.UTC)
}

func TestMigrator_RollbackAndReapply(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := NewMigrator(s.conn)

	require.NoError(t, m.Rollback(ctx))
	n, err := m.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = m.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_UserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := user.NewUser(user.NewUserParams{ID: 42}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, s.Users().Create(ctx, u))
	assert.ErrorIs(t, s.Users().Create(ctx, u), shared.ErrAlreadyExists)

	require.NoError(t, s.Users().UpdateXP(ctx, 42, 120, 2, time.Now().UTC()))
	got, err := s.Users().GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 120, got.XP)
	assert.Equal(t, 2, got.Level)

	_, err = s.Users().GetByID(ctx, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStore_GoalsAndHabits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g, err := goal.NewGoal(goal.NewGoalParams{UserID: 42, Title: "ship"}, time.Now().UTC())
	require.NoError(t, err)
	goalID, err := s.Goals().Create(ctx, g)
	require.NoError(t, err)
	require.NoError(t, s.Goals().Complete(ctx, goalID, time.Now().UTC()))

	goals, err := s.Goals().ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.True(t, goals[0].IsCompleted())

	h, err := habit.NewHabit(habit.NewHabitParams{UserID: 42, Title: "read"}, time.Now().UTC())
	require.NoError(t, err)
	habitID, err := s.Habits().Create(ctx, h)
	require.NoError(t, err)

	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	_, err = s.Habits().Track(ctx, habitID, day1)
	require.NoError(t, err)
	tracked, err := s.Habits().Track(ctx, habitID, day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, tracked.CurrentStreak)
	assert.Equal(t, 2, tracked.BestStreak)

	_, err = s.Habits().Track(ctx, 9999, day1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
