// Package memory implements the entity store in process memory.
// It is the default backend for development and the deterministic fake used by tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/focusgoal/focusgoal-backend/internal/domain/focus"
	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/habit"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"
)

// Store holds every entity kind behind one RWMutex.
// Readers receive copies, so callers never alias stored state.
type Store struct {
	mu  sync.RWMutex
	loc *time.Location

	users    map[int64]*user.User
	goals    map[int64]*goal.Goal
	habits   map[int64]*habit.Habit
	sessions map[int64]*focus.Session

	// Per-user insertion order.
	goalsByUser    map[int64][]int64
	habitsByUser   map[int64][]int64
	sessionsByUser map[int64][]int64

	nextGoalID    int64
	nextHabitID   int64
	nextSessionID int64
}

// NewStore creates an empty store. loc decides calendar days for habit streaks.
func NewStore(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		loc:            loc,
		users:          make(map[int64]*user.User),
		goals:          make(map[int64]*goal.Goal),
		habits:         make(map[int64]*habit.Habit),
		sessions:       make(map[int64]*focus.Session),
		goalsByUser:    make(map[int64][]int64),
		habitsByUser:   make(map[int64][]int64),
		sessionsByUser: make(map[int64][]int64),
	}
}

// Users returns the user repository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Goals returns the goal repository view.
func (s *Store) Goals() *GoalRepository { return &GoalRepository{s: s} }

// Habits returns the habit repository view.
func (s *Store) Habits() *HabitRepository { return &HabitRepository{s: s} }

// Focus returns the focus session repository view.
func (s *Store) Focus() *FocusRepository { return &FocusRepository{s: s} }

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository.
type UserRepository struct{ s *Store }

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.ID]; ok {
		return shared.ErrUserExists
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) UpdateXP(ctx context.Context, id int64, xp, level int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return shared.ErrUserNotFound
	}
	u.XP = xp
	u.Level = level
	u.UpdatedAt = at
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GOALS
// ══════════════════════════════════════════════════════════════════════════════

// GoalRepository implements goal.Repository.
type GoalRepository struct{ s *Store }

var _ goal.Repository = (*GoalRepository)(nil)

func (r *GoalRepository) ListByUser(ctx context.Context, userID int64) ([]*goal.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := r.s.goalsByUser[userID]
	out := make([]*goal.Goal, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyGoal(r.s.goals[id]))
	}
	return out, nil
}

func (r *GoalRepository) Create(ctx context.Context, g *goal.Goal) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextGoalID++
	id := r.s.nextGoalID

	cp := copyGoal(g)
	cp.ID = id
	r.s.goals[id] = cp
	r.s.goalsByUser[g.UserID] = append(r.s.goalsByUser[g.UserID], id)

	return id, nil
}

func (r *GoalRepository) Complete(ctx context.Context, goalID int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.goals[goalID]
	if !ok {
		return shared.ErrGoalNotFound
	}
	g.Status = goal.StatusCompleted
	g.CompletedAt = &at
	return nil
}

func copyGoal(g *goal.Goal) *goal.Goal {
	cp := *g
	if g.Deadline != nil {
		d := *g.Deadline
		cp.Deadline = &d
	}
	if g.CompletedAt != nil {
		c := *g.CompletedAt
		cp.CompletedAt = &c
	}
	return &cp
}

// ══════════════════════════════════════════════════════════════════════════════
// HABITS
// ══════════════════════════════════════════════════════════════════════════════

// HabitRepository implements habit.Repository.
type HabitRepository struct{ s *Store }

var _ habit.Repository = (*HabitRepository)(nil)

func (r *HabitRepository) ListByUser(ctx context.Context, userID int64) ([]*habit.Habit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := r.s.habitsByUser[userID]
	out := make([]*habit.Habit, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyHabit(r.s.habits[id]))
	}
	return out, nil
}

func (r *HabitRepository) Create(ctx context.Context, h *habit.Habit) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextHabitID++
	id := r.s.nextHabitID

	cp := copyHabit(h)
	cp.ID = id
	r.s.habits[id] = cp
	r.s.habitsByUser[h.UserID] = append(r.s.habitsByUser[h.UserID], id)

	return id, nil
}

func (r *HabitRepository) Track(ctx context.Context, habitID int64, at time.Time) (*habit.Habit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	h, ok := r.s.habits[habitID]
	if !ok {
		return nil, shared.ErrHabitNotFound
	}
	h.Track(at, r.s.loc)
	return copyHabit(h), nil
}

func copyHabit(h *habit.Habit) *habit.Habit {
	cp := *h
	if h.LastTrackedDate != nil {
		d := *h.LastTrackedDate
		cp.LastTrackedDate = &d
	}
	return &cp
}

// ══════════════════════════════════════════════════════════════════════════════
// FOCUS SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

// FocusRepository implements focus.Repository.
type FocusRepository struct{ s *Store }

var _ focus.Repository = (*FocusRepository)(nil)

func (r *FocusRepository) ListByUser(ctx context.Context, userID int64) ([]*focus.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := r.s.sessionsByUser[userID]
	out := make([]*focus.Session, 0, len(ids))
	for _, id := range ids {
		cp := *r.s.sessions[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *FocusRepository) Start(ctx context.Context, fs *focus.Session) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextSessionID++
	id := r.s.nextSessionID

	cp := *fs
	cp.ID = id
	r.s.sessions[id] = &cp
	r.s.sessionsByUser[fs.UserID] = append(r.s.sessionsByUser[fs.UserID], id)

	return id, nil
}
