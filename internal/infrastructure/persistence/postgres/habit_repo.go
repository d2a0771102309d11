package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/focusgoal/focusgoal-backend/internal/domain/habit"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
)

const habitColumns = `id, user_id, title, description, frequency, reminder_time, category,
	current_streak, best_streak, last_tracked_date, total_completions, created_at`

// HabitRepository implements habit.Repository for PostgreSQL.
type HabitRepository struct {
	conn *Connection
	loc  *time.Location
}

var _ habit.Repository = (*HabitRepository)(nil)

// NewHabitRepository creates a new HabitRepository. loc decides calendar days for streaks.
func NewHabitRepository(conn *Connection, loc *time.Location) *HabitRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &HabitRepository{conn: conn, loc: loc}
}

func scanHabit(row pgx.Row) (*habit.Habit, error) {
	var h habit.Habit
	var frequency string
	err := row.Scan(
		&h.ID, &h.UserID, &h.Title, &h.Description, &frequency, &h.ReminderTime, &h.Category,
		&h.CurrentStreak, &h.BestStreak, &h.LastTrackedDate, &h.TotalCompletions, &h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.Frequency = habit.Frequency(frequency)
	return &h, nil
}

// ListByUser returns the user's habits ordered by id.
func (r *HabitRepository) ListByUser(ctx context.Context, userID int64) ([]*habit.Habit, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, shared.StorageError("habit", "ListByUser", err)
	}
	defer rows.Close()

	habits := make([]*habit.Habit, 0)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, shared.StorageError("habit", "ListByUser", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.StorageError("habit", "ListByUser", err)
	}

	return habits, nil
}

// Create inserts a habit and returns its id.
func (r *HabitRepository) Create(ctx context.Context, h *habit.Habit) (int64, error) {
	query := `
		INSERT INTO habits (user_id, title, description, frequency, reminder_time, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.conn.QueryRow(ctx, query,
		h.UserID, h.Title, h.Description, string(h.Frequency), h.ReminderTime, h.Category, h.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, shared.StorageError("habit", "Create", err)
	}

	return id, nil
}

// Track locks the habit row, applies the streak rules and writes the result back
// in one transaction, so concurrent tracks of the same habit serialize.
func (r *HabitRepository) Track(ctx context.Context, habitID int64, at time.Time) (*habit.Habit, error) {
	var tracked *habit.Habit

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		h, err := scanHabit(tx.QueryRow(ctx,
			`SELECT `+habitColumns+` FROM habits WHERE id = $1 FOR UPDATE`, habitID))
		if err != nil {
			return err
		}

		h.Track(at, r.loc)

		_, err = tx.Exec(ctx, `
			UPDATE habits
			SET current_streak = $2, best_streak = $3, last_tracked_date = $4, total_completions = $5
			WHERE id = $1
		`, h.ID, h.CurrentStreak, h.BestStreak, h.LastTrackedDate, h.TotalCompletions)
		if err != nil {
			return err
		}

		tracked = h
		return nil
	})
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrHabitNotFound
		}
		return nil, shared.StorageError("habit", "Track", err)
	}

	return tracked, nil
}
