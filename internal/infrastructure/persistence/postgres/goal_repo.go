package postgres

import (
	"context"
	"time"

	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
)

// GoalRepository implements goal.Repository for PostgreSQL.
type GoalRepository struct {
	conn *Connection
}

var _ goal.Repository = (*GoalRepository)(nil)

// NewGoalRepository creates a new GoalRepository.
func NewGoalRepository(conn *Connection) *GoalRepository {
	return &GoalRepository{conn: conn}
}

// ListByUser returns the user's goals ordered by id, which is insertion order.
func (r *GoalRepository) ListByUser(ctx context.Context, userID int64) ([]*goal.Goal, error) {
	query := `
		SELECT id, user_id, title, description, priority, category, difficulty,
			   deadline, status, completed_at, created_at
		FROM goals
		WHERE user_id = $1
		ORDER BY id
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, shared.StorageError("goal", "ListByUser", err)
	}
	defer rows.Close()

	goals := make([]*goal.Goal, 0)
	for rows.Next() {
		var g goal.Goal
		var priority, status string
		if err := rows.Scan(
			&g.ID, &g.UserID, &g.Title, &g.Description, &priority, &g.Category, &g.Difficulty,
			&g.Deadline, &status, &g.CompletedAt, &g.CreatedAt,
		); err != nil {
			return nil, shared.StorageError("goal", "ListByUser", err)
		}
		g.Priority = goal.Priority(priority)
		g.Status = goal.Status(status)
		goals = append(goals, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.StorageError("goal", "ListByUser", err)
	}

	return goals, nil
}

// Create inserts a goal and returns its id.
func (r *GoalRepository) Create(ctx context.Context, g *goal.Goal) (int64, error) {
	query := `
		INSERT INTO goals (user_id, title, description, priority, category, difficulty,
			deadline, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := r.conn.QueryRow(ctx, query,
		g.UserID, g.Title, g.Description, string(g.Priority), g.Category, g.Difficulty,
		g.Deadline, string(g.Status), g.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, shared.StorageError("goal", "Create", err)
	}

	return id, nil
}

// Complete marks a goal completed.
func (r *GoalRepository) Complete(ctx context.Context, goalID int64, at time.Time) error {
	query := `UPDATE goals SET status = 'completed', completed_at = $2 WHERE id = $1`

	tag, err := r.conn.Exec(ctx, query, goalID, at)
	if err != nil {
		return shared.StorageError("goal", "Complete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrGoalNotFound
	}

	return nil
}
