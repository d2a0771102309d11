package postgres

import (
	"context"
	"time"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"
)

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `
		SELECT id, username, first_name, last_name, xp, level, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u user.User
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName,
		&u.XP, &u.Level, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, shared.StorageError("user", "GetByID", err)
	}

	return &u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, username, first_name, last_name, xp, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		u.ID, u.Username, u.FirstName, u.LastName,
		u.XP, u.Level, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserExists
		}
		return shared.StorageError("user", "Create", err)
	}

	return nil
}

// UpdateXP writes back XP and level.
func (r *UserRepository) UpdateXP(ctx context.Context, id int64, xp, level int, at time.Time) error {
	query := `UPDATE users SET xp = $2, level = $3, updated_at = $4 WHERE id = $1`

	tag, err := r.conn.Exec(ctx, query, id, xp, level, at)
	if err != nil {
		return shared.StorageError("user", "UpdateXP", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}
