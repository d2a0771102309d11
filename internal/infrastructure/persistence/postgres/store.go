package postgres

import (
	"context"
	"time"
)

// Store groups the repositories that share one pool.
type Store struct {
	conn   *Connection
	users  *UserRepository
	goals  *GoalRepository
	habits *HabitRepository
	focus  *FocusRepository
}

// NewStore builds every repository over conn.
func NewStore(conn *Connection, loc *time.Location) *Store {
	return &Store{
		conn:   conn,
		users:  NewUserRepository(conn),
		goals:  NewGoalRepository(conn),
		habits: NewHabitRepository(conn, loc),
		focus:  NewFocusRepository(conn),
	}
}

func (s *Store) Users() *UserRepository   { return s.users }
func (s *Store) Goals() *GoalRepository   { return s.goals }
func (s *Store) Habits() *HabitRepository { return s.habits }
func (s *Store) Focus() *FocusRepository  { return s.focus }

// Ping checks the pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}
