package postgres

import (
	"context"

	"github.com/focusgoal/focusgoal-backend/internal/domain/focus"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
)

// FocusRepository implements focus.Repository for PostgreSQL.
type FocusRepository struct {
	conn *Connection
}

var _ focus.Repository = (*FocusRepository)(nil)

// NewFocusRepository creates a new FocusRepository.
func NewFocusRepository(conn *Connection) *FocusRepository {
	return &FocusRepository{conn: conn}
}

// ListByUser returns the user's sessions ordered by id.
func (r *FocusRepository) ListByUser(ctx context.Context, userID int64) ([]*focus.Session, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, duration_minutes, goal_id, started_at
		FROM focus_sessions
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, shared.StorageError("focus", "ListByUser", err)
	}
	defer rows.Close()

	sessions := make([]*focus.Session, 0)
	for rows.Next() {
		var s focus.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.DurationMinutes, &s.GoalID, &s.StartedAt); err != nil {
			return nil, shared.StorageError("focus", "ListByUser", err)
		}
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.StorageError("focus", "ListByUser", err)
	}

	return sessions, nil
}

// Start inserts a session and returns its id.
func (r *FocusRepository) Start(ctx context.Context, s *focus.Session) (int64, error) {
	var id int64
	err := r.conn.QueryRow(ctx, `
		INSERT INTO focus_sessions (user_id, duration_minutes, goal_id, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, s.UserID, s.DurationMinutes, s.GoalID, s.StartedAt).Scan(&id)
	if err != nil {
		return 0, shared.StorageError("focus", "Start", err)
	}

	return id, nil
}
