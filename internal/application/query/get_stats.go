package query

import (
	"context"
	"errors"

	"github.com/focusgoal/focusgoal-backend/internal/domain/focus"
	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
	"github.com/focusgoal/focusgoal-backend/internal/domain/habit"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/internal/domain/stats"
	"github.com/focusgoal/focusgoal-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATS QUERY
// Агрегирует статистику по снимку всех сущностей пользователя.
// Ничего не кэширует: каждый запрос читает хранилище заново.
// ══════════════════════════════════════════════════════════════════════════════

// Repositories - набор хранилищ для запросов чтения.
type Repositories struct {
	Users  user.Repository
	Goals  goal.Repository
	Habits habit.Repository
	Focus  focus.Repository
}

// snapshot - все сущности пользователя на момент запроса.
type snapshot struct {
	user     *user.User // nil, если записи нет
	goals    []*goal.Goal
	habits   []*habit.Habit
	sessions []*focus.Session
}

func (s snapshot) empty() bool {
	return s.user == nil && len(s.goals) == 0 && len(s.habits) == 0 && len(s.sessions) == 0
}

func loadSnapshot(ctx context.Context, repos Repositories, userID int64) (*snapshot, error) {
	var snap snapshot

	u, err := repos.Users.GetByID(ctx, userID)
	switch {
	case err == nil:
		snap.user = u
	case errors.Is(err, shared.ErrNotFound):
	default:
		return nil, err
	}

	if snap.goals, err = repos.Goals.ListByUser(ctx, userID); err != nil {
		return nil, err
	}
	if snap.habits, err = repos.Habits.ListByUser(ctx, userID); err != nil {
		return nil, err
	}
	if snap.sessions, err = repos.Focus.ListByUser(ctx, userID); err != nil {
		return nil, err
	}

	return &snap, nil
}

// GetStatsQuery содержит параметры запроса статистики.
type GetStatsQuery struct {
	UserID int64
}

// Validate проверяет корректность параметров.
func (q GetStatsQuery) Validate() error {
	if q.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	return nil
}

// GetStatsHandler обрабатывает GetStatsQuery.
type GetStatsHandler struct {
	repos Repositories
}

// NewGetStatsHandler создаёт обработчик.
func NewGetStatsHandler(repos Repositories) *GetStatsHandler {
	return &GetStatsHandler{repos: repos}
}

// Handle возвращает статистику. Если у пользователя нет ни записи, ни
// сущностей, возвращает ErrStatsNotFound.
func (h *GetStatsHandler) Handle(ctx context.Context, q GetStatsQuery) (*stats.Stats, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(ctx, h.repos, q.UserID)
	if err != nil {
		return nil, err
	}
	if snap.empty() {
		return nil, shared.ErrStatsNotFound
	}

	st := stats.Aggregate(snap.user, snap.goals, snap.habits, snap.sessions)
	return &st, nil
}
