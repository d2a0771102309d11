package query

import (
	"context"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/internal/domain/stats"
	"github.com/focusgoal/focusgoal-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Главный экран: пользователь, цели, привычки, статистика и прогресс уровня
// одним ответом.
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardQuery содержит параметры запроса.
type GetDashboardQuery struct {
	UserID int64
}

// Validate проверяет корректность параметров.
func (q GetDashboardQuery) Validate() error {
	if q.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	return nil
}

// DashboardDTO - данные главного экрана.
type DashboardDTO struct {
	User          UserDTO     `json:"user"`
	Goals         []GoalDTO   `json:"goals"`
	Habits        []HabitDTO  `json:"habits"`
	Stats         stats.Stats `json:"stats"`
	LevelProgress float64     `json:"level_progress"`

	// ActiveGoals - цели в работе, для быстрого отображения.
	ActiveGoals int `json:"active_goals"`
}

// GetDashboardHandler обрабатывает GetDashboardQuery.
type GetDashboardHandler struct {
	repos Repositories
	clock timeutil.Clock
}

// NewGetDashboardHandler создаёт обработчик.
func NewGetDashboardHandler(repos Repositories, clock timeutil.Clock) *GetDashboardHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &GetDashboardHandler{repos: repos, clock: clock}
}

// Handle собирает главный экран. Пользователь должен существовать:
// регистрацию при первом входе выполняет вызывающая сторона.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*DashboardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(ctx, h.repos, q.UserID)
	if err != nil {
		return nil, err
	}
	if snap.user == nil {
		return nil, shared.ErrUserNotFound
	}

	now := h.clock.Now()
	dto := &DashboardDTO{
		User:          NewUserDTO(snap.user),
		Goals:         make([]GoalDTO, 0, len(snap.goals)),
		Habits:        make([]HabitDTO, 0, len(snap.habits)),
		Stats:         stats.Aggregate(snap.user, snap.goals, snap.habits, snap.sessions),
		LevelProgress: snap.user.LevelProgress(),
	}
	for _, g := range snap.goals {
		dto.Goals = append(dto.Goals, NewGoalDTO(g, now))
		if !g.IsCompleted() {
			dto.ActiveGoals++
		}
	}
	for _, hb := range snap.habits {
		dto.Habits = append(dto.Habits, NewHabitDTO(hb))
	}

	return dto, nil
}
